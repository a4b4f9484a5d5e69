package services

import (
	"crypto/subtle"
	"encoding/json"
	"time"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/auth"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
	"github.com/NivaasHQ/nivaas-backend/internal/utils"
)

// BookingService is the only code path allowed to move a visit request
// through its lifecycle. Every mutation checks the authorization guard
// first, then the current status, then lands the write through the
// store's compare-and-set, so a failed transition never leaves a partial
// write behind.
type BookingService struct {
	store    storage.Store
	notifier *Notifier
}

// NewBookingService creates a new booking service
func NewBookingService(store storage.Store, notifier *Notifier) *BookingService {
	return &BookingService{store: store, notifier: notifier}
}

// RequestVisit creates a PENDING visit request for the buyer. A buyer can
// hold at most one non-terminal booking per property.
func (s *BookingService) RequestVisit(actor auth.Actor, propertyID, preferredSlot string) (*models.Booking, error) {
	if preferredSlot == "" {
		return nil, apperr.Validation("preferred slot is required")
	}

	property, err := s.store.GetProperty(propertyID)
	if err != nil {
		return nil, err
	}
	if property.OwnerID == actor.UserID {
		return nil, apperr.Validation("cannot request a visit on your own listing")
	}

	existing, err := s.store.GetBookingsForPair(propertyID, actor.UserID)
	if err != nil {
		return nil, err
	}
	for _, b := range existing {
		if !b.IsTerminal() {
			return nil, apperr.Validation("an active visit request (%s) already exists for property %s", b.BookingID, propertyID)
		}
	}

	booking := &models.Booking{
		PropertyID:    propertyID,
		BuyerID:       actor.UserID,
		AgentID:       property.OwnerID,
		Status:        models.BookingStatusPending,
		RequestedSlot: preferredSlot,
		LocationMatch: models.LocationNotVerified,
	}

	return s.store.CreateBooking(booking)
}

// Approve confirms a slot and moves the booking to APPROVED. Only the
// listing agent may approve, from PENDING or COUNTER_PROPOSED.
func (s *BookingService) Approve(actor auth.Actor, bookingID string, confirmedSlot time.Time, ifVersion int) (*models.Booking, error) {
	booking, err := s.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAgent(actor, booking); err != nil {
		return nil, err
	}
	if ifVersion != 0 && booking.Version != ifVersion {
		return nil, apperr.Conflict("booking %s changed since it was read (version %d, expected %d)", bookingID, booking.Version, ifVersion)
	}
	if booking.Status != models.BookingStatusPending && booking.Status != models.BookingStatusCounterProposed {
		return nil, apperr.InvalidState("booking %s cannot be approved from status %s", bookingID, booking.Status)
	}

	now := time.Now()
	booking.Status = models.BookingStatusApproved
	booking.ApprovedSlot = &confirmedSlot
	booking.ApprovedAt = &now

	if err := s.store.UpdateBooking(booking, booking.Version); err != nil {
		return nil, err
	}

	s.notifier.BookingApproved(booking)
	return booking, nil
}

// Counter proposes a different slot and moves the booking to
// COUNTER_PROPOSED. Same preconditions as Approve.
func (s *BookingService) Counter(actor auth.Actor, bookingID string, proposedSlot time.Time, message string, ifVersion int) (*models.Booking, error) {
	booking, err := s.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAgent(actor, booking); err != nil {
		return nil, err
	}
	if ifVersion != 0 && booking.Version != ifVersion {
		return nil, apperr.Conflict("booking %s changed since it was read (version %d, expected %d)", bookingID, booking.Version, ifVersion)
	}
	if booking.Status != models.BookingStatusPending && booking.Status != models.BookingStatusCounterProposed {
		return nil, apperr.InvalidState("booking %s cannot be countered from status %s", bookingID, booking.Status)
	}

	booking.Status = models.BookingStatusCounterProposed
	booking.AgentSuggestedSlot = &proposedSlot
	booking.CounterMessage = message

	if err := s.store.UpdateBooking(booking, booking.Version); err != nil {
		return nil, err
	}

	s.notifier.SlotCountered(booking)
	return booking, nil
}

// AcceptCounter lets the buyer take the agent's suggested slot, which
// becomes the approved slot.
func (s *BookingService) AcceptCounter(actor auth.Actor, bookingID string, ifVersion int) (*models.Booking, error) {
	booking, err := s.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireBuyerOfBooking(actor, booking); err != nil {
		return nil, err
	}
	if ifVersion != 0 && booking.Version != ifVersion {
		return nil, apperr.Conflict("booking %s changed since it was read (version %d, expected %d)", bookingID, booking.Version, ifVersion)
	}
	if booking.Status != models.BookingStatusCounterProposed {
		return nil, apperr.InvalidState("booking %s has no open counter proposal (status %s)", bookingID, booking.Status)
	}
	if booking.AgentSuggestedSlot == nil {
		return nil, apperr.InvalidState("booking %s has no suggested slot to accept", bookingID)
	}

	now := time.Now()
	booking.Status = models.BookingStatusApproved
	booking.ApprovedSlot = booking.AgentSuggestedSlot
	booking.ApprovedAt = &now

	if err := s.store.UpdateBooking(booking, booking.Version); err != nil {
		return nil, err
	}

	s.notifier.BookingApproved(booking)
	return booking, nil
}

// DeclineCounter lets the buyer walk away from a counter proposal. Like
// Cancel it is a no-op on an already-terminal booking.
func (s *BookingService) DeclineCounter(actor auth.Actor, bookingID string) (*models.Booking, error) {
	booking, err := s.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireBuyerOfBooking(actor, booking); err != nil {
		return nil, err
	}
	return s.cancel(actor, booking, "buyer declined the suggested slot")
}

// Cancel moves any non-terminal booking to CANCELLED. Either party (or an
// admin) may cancel. Cancelling an already-terminal booking is a no-op,
// not an error, so double-taps are harmless.
func (s *BookingService) Cancel(actor auth.Actor, bookingID, reason string) (*models.Booking, error) {
	booking, err := s.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequirePartyToBooking(actor, booking); err != nil {
		return nil, err
	}
	return s.cancel(actor, booking, reason)
}

func (s *BookingService) cancel(actor auth.Actor, booking *models.Booking, reason string) (*models.Booking, error) {
	if booking.IsTerminal() {
		return booking, nil
	}

	now := time.Now()
	booking.Status = models.BookingStatusCancelled
	booking.CancelReason = reason
	booking.CancelledAt = &now
	booking.OTP = ""

	if err := s.store.UpdateBooking(booking, booking.Version); err != nil {
		return nil, err
	}

	s.notifier.BookingCancelled(booking, actor.UserID)
	return booking, nil
}

// Reject lets the agent turn down a pending request outright. Terminal.
func (s *BookingService) Reject(actor auth.Actor, bookingID, reason string) (*models.Booking, error) {
	booking, err := s.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAgent(actor, booking); err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, apperr.InvalidState("booking %s cannot be rejected from status %s", bookingID, booking.Status)
	}

	booking.Status = models.BookingStatusRejected
	booking.CancelReason = reason

	if err := s.store.UpdateBooking(booking, booking.Version); err != nil {
		return nil, err
	}
	return booking, nil
}

// GenerateOTP creates a fresh single-use 4-digit start code for an
// APPROVED booking and dispatches it to the buyer out-of-band. The
// booking status does not change.
func (s *BookingService) GenerateOTP(actor auth.Actor, bookingID string) (*models.Booking, error) {
	booking, err := s.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAgent(actor, booking); err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusApproved {
		return nil, apperr.InvalidState("visit code requires an approved booking, not %s", booking.Status)
	}

	code, err := utils.GenerateVisitCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	booking.OTP = code
	booking.OTPGeneratedAt = &now

	if err := s.store.UpdateBooking(booking, booking.Version); err != nil {
		return nil, err
	}

	s.notifier.VisitOTP(booking, code)
	return booking, nil
}

// StartVisit checks the submitted code against the booking's stored code
// and, on a match, consumes it and moves the visit to IN_PROGRESS. A
// mismatch fails without touching state.
func (s *BookingService) StartVisit(actor auth.Actor, bookingID, submittedOTP string) (*models.Booking, error) {
	booking, err := s.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAgent(actor, booking); err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusApproved {
		return nil, apperr.InvalidState("visit cannot start from status %s", booking.Status)
	}
	if booking.ApprovedSlot == nil {
		return nil, apperr.InvalidState("booking %s has no approved slot", bookingID)
	}
	if booking.OTP == "" {
		return nil, apperr.InvalidOTP("no visit code has been generated for booking %s", bookingID)
	}
	if subtle.ConstantTimeCompare([]byte(booking.OTP), []byte(submittedOTP)) != 1 {
		return nil, apperr.InvalidOTP("visit code does not match")
	}

	now := time.Now()
	booking.OTP = ""
	booking.OTPGeneratedAt = nil
	booking.Status = models.BookingStatusInProgress
	booking.StartedAt = &now

	if err := s.store.UpdateBooking(booking, booking.Version); err != nil {
		return nil, err
	}
	return booking, nil
}

// CompleteVisit records the agent's report and closes the visit. A
// location mismatch is recorded, never blocking.
func (s *BookingService) CompleteVisit(actor auth.Actor, bookingID string, report *models.VisitReport) (*models.Booking, error) {
	booking, err := s.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAgent(actor, booking); err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusInProgress {
		return nil, apperr.InvalidState("visit is not in progress (status %s)", booking.Status)
	}

	match := report.LocationMatch
	switch match {
	case models.LocationMatch, models.LocationMismatch, models.LocationNotVerified:
	case "":
		match = models.LocationNotVerified
	default:
		return nil, apperr.Validation("unknown location match result %q", report.LocationMatch)
	}

	images, err := json.Marshal(report.VisitImages)
	if err != nil {
		return nil, apperr.Validation("invalid visit images: %v", err)
	}

	now := time.Now()
	booking.Status = models.BookingStatusCompleted
	booking.CheckInLatitude = report.Latitude
	booking.CheckInLongitude = report.Longitude
	booking.LocationMatch = match
	booking.AgentNotes = report.AgentNotes
	booking.VisitImages = images
	booking.BuyerInterest = report.BuyerInterest
	booking.BuyerTimeline = report.BuyerTimeline
	booking.BuyerBudgetFeedback = report.BuyerBudgetFeedback
	booking.CompletedAt = &now

	if err := s.store.UpdateBooking(booking, booking.Version); err != nil {
		return nil, err
	}
	return booking, nil
}

// RateVisit attaches the buyer's rating to a completed visit. The status
// does not change.
func (s *BookingService) RateVisit(actor auth.Actor, bookingID string, rating int, comment string) (*models.Booking, error) {
	booking, err := s.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireBuyerOfBooking(actor, booking); err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusCompleted {
		return nil, apperr.InvalidState("only completed visits can be rated (status %s)", booking.Status)
	}
	if rating < 1 || rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5, got %d", rating)
	}

	booking.Rating = rating
	booking.ReviewComment = comment

	if err := s.store.UpdateBooking(booking, booking.Version); err != nil {
		return nil, err
	}
	return booking, nil
}

// requireAgent resolves the booking's property and checks listing
// ownership before any state is inspected.
func (s *BookingService) requireAgent(actor auth.Actor, booking *models.Booking) error {
	property, err := s.store.GetProperty(booking.PropertyID)
	if err != nil {
		return err
	}
	return auth.RequireAgentOf(actor, property)
}
