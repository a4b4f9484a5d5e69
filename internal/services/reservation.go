package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/auth"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
)

// ReservationService handles token reservations on accepted offers. A
// reservation holds the property for 30 days for a fee of 0.1% of the
// accepted amount; after the window it silently expires. Expiry is
// informational only and always evaluated at read time.
type ReservationService struct {
	store    storage.Store
	notifier *Notifier
}

// NewReservationService creates a new reservation service
func NewReservationService(store storage.Store, notifier *Notifier) *ReservationService {
	return &ReservationService{store: store, notifier: notifier}
}

// CreateReservation opens a token reservation against an accepted offer.
func (s *ReservationService) CreateReservation(actor auth.Actor, offerID string) (*models.Reservation, error) {
	offer, err := s.store.GetOffer(offerID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireBuyerOfOffer(actor, offer); err != nil {
		return nil, err
	}
	if offer.Status != models.OfferStatusAccepted {
		return nil, apperr.InvalidState("reservations require an accepted offer, not %s", offer.Status)
	}

	existing, err := s.store.GetReservationsByOffer(offerID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for _, r := range existing {
		if r.Status == models.ReservationStatusPaid || (r.Status == models.ReservationStatusActive && !r.ExpiredAt(now)) {
			return nil, apperr.Validation("reservation %s is already open for offer %s", r.ReservationID, offerID)
		}
	}

	res := &models.Reservation{
		OfferID:    offer.OfferID,
		PropertyID: offer.PropertyID,
		BuyerID:    offer.BuyerID,
		Fee:        offer.Amount * models.ReservationFeeRate,
		Status:     models.ReservationStatusActive,
		PaymentRef: uuid.NewString(),
		ValidUntil: now.Add(models.ReservationValidity),
	}

	return s.store.CreateReservation(res)
}

// GetReservation reads a reservation, applying the wall-clock expiry
// check. A lapsed reservation is marked expired on the way out.
func (s *ReservationService) GetReservation(reservationID string) (*models.Reservation, error) {
	res, err := s.store.GetReservation(reservationID)
	if err != nil {
		return nil, err
	}

	if res.Status == models.ReservationStatusActive && res.ExpiredAt(time.Now()) {
		res.Status = models.ReservationStatusExpired
		if err := s.store.UpdateReservation(res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// MarkPaid records a captured token payment and advances the offer to
// token_paid through the state machine (never by writing status directly).
// The stage advance runs first so a refused advance never leaves a paid
// reservation behind; an offer whose token milestone is already recorded
// just gets the reservation caught up.
func (s *ReservationService) MarkPaid(paymentRef string, offers *OfferService) (*models.Reservation, error) {
	res, err := s.store.GetReservationByPaymentRef(paymentRef)
	if err != nil {
		return nil, err
	}
	if res.Status == models.ReservationStatusPaid {
		return res, nil // webhook retries are harmless
	}
	if res.ExpiredAt(time.Now()) {
		return nil, apperr.InvalidState("reservation %s expired on %s", res.ReservationID, res.ValidUntil.Format("02 Jan 2006"))
	}

	offer, err := s.store.GetOffer(res.OfferID)
	if err != nil {
		return nil, err
	}
	if offer.TokenPaidAt == nil {
		system := auth.Actor{UserID: res.BuyerID, Role: models.RoleBuyer}
		if _, err := offers.AdvanceStage(system, res.OfferID, models.OfferStageTokenPaid, ""); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	res.Status = models.ReservationStatusPaid
	res.PaidAt = &now
	if err := s.store.UpdateReservation(res); err != nil {
		return nil, err
	}
	return res, nil
}
