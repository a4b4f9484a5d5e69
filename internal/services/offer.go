package services

import (
	"time"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/auth"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
)

// OfferService governs price negotiation and the post-acceptance deal
// stages. Amount always holds the last proposed or agreed value; once an
// offer is accepted the amount is frozen and only the stage moves, one
// step at a time.
type OfferService struct {
	store    storage.Store
	notifier *Notifier
}

// NewOfferService creates a new offer service
func NewOfferService(store storage.Store, notifier *Notifier) *OfferService {
	return &OfferService{store: store, notifier: notifier}
}

// SubmitOffer creates a pending offer. At most one non-terminal offer may
// exist per (property, buyer) pair.
func (s *OfferService) SubmitOffer(actor auth.Actor, propertyID string, amount float64, message string) (*models.Offer, error) {
	if amount <= 0 {
		return nil, apperr.Validation("offer amount must be positive, got %.2f", amount)
	}

	property, err := s.store.GetProperty(propertyID)
	if err != nil {
		return nil, err
	}
	if property.OwnerID == actor.UserID {
		return nil, apperr.Validation("cannot make an offer on your own listing")
	}

	if existing, err := s.store.GetActiveOfferForPair(propertyID, actor.UserID); err == nil {
		return nil, apperr.Validation("an active offer (%s) already exists for property %s", existing.OfferID, propertyID)
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	offer := &models.Offer{
		PropertyID: propertyID,
		BuyerID:    actor.UserID,
		AgentID:    property.OwnerID,
		Amount:     amount,
		Message:    message,
		Status:     models.OfferStatusPending,
		CounterBy:  models.CounterByBuyer,
	}

	offer, err = s.store.CreateOffer(offer)
	if err != nil {
		return nil, err
	}

	s.notifier.OfferReceived(offer)
	return offer, nil
}

// CounterOffer proposes a new price. Either side of the negotiation may
// counter, any number of rounds, while the offer is pending or countered.
func (s *OfferService) CounterOffer(actor auth.Actor, offerID string, newAmount float64, message string, ifVersion int) (*models.Offer, error) {
	offer, err := s.store.GetOffer(offerID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequirePartyToOffer(actor, offer); err != nil {
		return nil, err
	}
	if ifVersion != 0 && offer.Version != ifVersion {
		return nil, apperr.Conflict("offer %s changed since it was read (version %d, expected %d)", offerID, offer.Version, ifVersion)
	}
	if offer.Status != models.OfferStatusPending && offer.Status != models.OfferStatusCountered {
		return nil, apperr.InvalidState("offer %s cannot be countered from status %s", offerID, offer.Status)
	}
	if newAmount <= 0 {
		return nil, apperr.Validation("counter amount must be positive, got %.2f", newAmount)
	}

	counterBy := models.CounterByBuyer
	if actor.UserID == offer.AgentID || auth.IsAdmin(actor) {
		counterBy = models.CounterByAgent
	}

	offer.Status = models.OfferStatusCountered
	offer.Amount = newAmount
	offer.CounterAmount = newAmount
	offer.CounterMessage = message
	offer.CounterBy = counterBy
	offer.CounterAcceptedBy = "" // a new price voids any earlier agreement

	if err := s.store.UpdateOffer(offer, offer.Version); err != nil {
		return nil, err
	}

	s.notifier.OfferCountered(offer)
	return offer, nil
}

// AcceptCounter records the buyer's agreement to the agent's countered
// price. The status does not change: only the agent's AcceptOffer freezes
// the amount and opens the deal.
func (s *OfferService) AcceptCounter(actor auth.Actor, offerID string) (*models.Offer, error) {
	offer, err := s.store.GetOffer(offerID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireBuyerOfOffer(actor, offer); err != nil {
		return nil, err
	}
	if offer.Status != models.OfferStatusCountered {
		return nil, apperr.InvalidState("offer %s has no open counter (status %s)", offerID, offer.Status)
	}
	if offer.CounterBy != models.CounterByAgent {
		return nil, apperr.InvalidState("the current price on offer %s was proposed by the buyer", offerID)
	}

	offer.CounterAcceptedBy = models.CounterByBuyer

	if err := s.store.UpdateOffer(offer, offer.Version); err != nil {
		return nil, err
	}

	s.notifier.CounterAgreed(offer)
	return offer, nil
}

// AcceptOffer closes the negotiation at the current amount. Only the
// listing agent may accept; the amount is frozen from here on and the
// property is marked under offer.
func (s *OfferService) AcceptOffer(actor auth.Actor, offerID string, ifVersion int) (*models.Offer, error) {
	offer, err := s.store.GetOffer(offerID)
	if err != nil {
		return nil, err
	}
	property, err := s.store.GetProperty(offer.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireAgentOf(actor, property); err != nil {
		return nil, err
	}
	if ifVersion != 0 && offer.Version != ifVersion {
		return nil, apperr.Conflict("offer %s changed since it was read (version %d, expected %d)", offerID, offer.Version, ifVersion)
	}
	if offer.Status != models.OfferStatusPending && offer.Status != models.OfferStatusCountered {
		return nil, apperr.InvalidState("offer %s cannot be accepted from status %s", offerID, offer.Status)
	}

	now := time.Now()
	offer.Status = models.OfferStatusAccepted
	offer.AcceptedAt = &now

	if err := s.store.UpdateOffer(offer, offer.Version); err != nil {
		return nil, err
	}

	property.Status = models.PropertyStatusUnderOffer
	if err := s.store.UpdateProperty(property); err != nil {
		return nil, err
	}

	s.notifier.OfferAccepted(offer)
	return offer, nil
}

// RejectOffer ends the negotiation. Either party may reject while the
// offer is non-terminal.
func (s *OfferService) RejectOffer(actor auth.Actor, offerID string) (*models.Offer, error) {
	offer, err := s.store.GetOffer(offerID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequirePartyToOffer(actor, offer); err != nil {
		return nil, err
	}
	if offer.IsTerminal() {
		return nil, apperr.InvalidState("offer %s is already closed (status %s)", offerID, offer.Status)
	}

	offer.Status = models.OfferStatusRejected

	if err := s.store.UpdateOffer(offer, offer.Version); err != nil {
		return nil, err
	}

	s.notifier.OfferRejected(offer, actor.UserID)
	return offer, nil
}

// CancelOffer lets the buyer withdraw. A no-op on an already-terminal
// offer, mirroring booking cancellation.
func (s *OfferService) CancelOffer(actor auth.Actor, offerID string) (*models.Offer, error) {
	offer, err := s.store.GetOffer(offerID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireBuyerOfOffer(actor, offer); err != nil {
		return nil, err
	}
	if offer.IsTerminal() {
		return offer, nil
	}

	offer.Status = models.OfferStatusCancelled

	if err := s.store.UpdateOffer(offer, offer.Version); err != nil {
		return nil, err
	}
	return offer, nil
}

// AdvanceStage moves an accepted offer exactly one milestone forward
// through token_paid → registration → commission → completed. Skipping or
// moving backward fails. saleDeedURL is recorded when the deal reaches
// the commission stage.
func (s *OfferService) AdvanceStage(actor auth.Actor, offerID, targetStage, saleDeedURL string) (*models.Offer, error) {
	offer, err := s.store.GetOffer(offerID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequirePartyToOffer(actor, offer); err != nil {
		return nil, err
	}

	idx := offer.StageIndex()
	if idx < 0 {
		return nil, apperr.InvalidState("offer %s has not been accepted (status %s)", offerID, offer.Status)
	}
	if idx == len(models.DealStages)-1 {
		return nil, apperr.InvalidState("deal %s is already completed", offerID)
	}
	if next := models.DealStages[idx+1]; targetStage != next {
		return nil, apperr.InvalidState("deal %s must advance to %s next, not %s", offerID, next, targetStage)
	}

	now := time.Now()
	offer.Status = targetStage
	switch targetStage {
	case models.OfferStageTokenPaid:
		offer.TokenPaidAt = &now
	case models.OfferStageRegistration:
		offer.RegistrationAt = &now
	case models.OfferStageCommission:
		if saleDeedURL != "" {
			offer.SaleDeedURL = saleDeedURL
		}
	case models.OfferStageCompleted:
		offer.CommissionPaid = true
		offer.CompletedAt = &now
	}

	if err := s.store.UpdateOffer(offer, offer.Version); err != nil {
		return nil, err
	}

	if targetStage == models.OfferStageCompleted {
		if property, err := s.store.GetProperty(offer.PropertyID); err == nil {
			property.Status = models.PropertyStatusSold
			_ = s.store.UpdateProperty(property)
		}
	}

	s.notifier.StageAdvanced(offer)
	return offer, nil
}
