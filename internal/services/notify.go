package services

import (
	"fmt"
	"log"
	"time"

	"github.com/NivaasHQ/nivaas-backend/internal/models"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
)

// Notifier pushes status-transition notices to the parties over Twilio.
// Delivery is strictly fire-and-forget: the state machines never block on
// it and never see a delivery failure. With no Twilio service configured
// it only logs, which is what tests run with.
type Notifier struct {
	store  storage.Store
	twilio *TwilioService
}

// NewNotifier creates a notifier backed by the given store and Twilio
// service. A nil twilio falls back to the globally registered service;
// with neither configured the notifier only logs.
func NewNotifier(store storage.Store, twilio *TwilioService) *Notifier {
	if twilio == nil {
		twilio = GetTwilioService()
	}
	return &Notifier{store: store, twilio: twilio}
}

func (n *Notifier) send(userID, message string) {
	user, err := n.store.GetUser(userID)
	if err != nil {
		log.Printf("notify: user %s not found, dropping message", userID)
		return
	}
	if n.twilio == nil {
		log.Printf("notify (dry-run) → %s: %s", user.Phone, message)
		return
	}
	// WhatsApp is the primary channel, plain SMS the fallback.
	if err := n.twilio.SendWhatsAppMessage(user.Phone, message); err != nil {
		if err := n.twilio.SendSMS(user.Phone, message); err != nil {
			log.Printf("notify: delivery to %s failed: %v", user.Phone, err)
		}
	}
}

// VisitOTP delivers the visit start code to the buyer out-of-band.
func (n *Notifier) VisitOTP(b *models.Booking, code string) {
	n.send(b.BuyerID, fmt.Sprintf(
		"Your visit code for booking %s is %s. Share it with the agent at the property to begin the visit.",
		b.BookingID, code))
}

// BookingApproved tells the buyer their visit slot is confirmed.
func (n *Notifier) BookingApproved(b *models.Booking) {
	slot := ""
	if b.ApprovedSlot != nil {
		slot = b.ApprovedSlot.Format(time.RFC1123)
	}
	n.send(b.BuyerID, fmt.Sprintf("Your visit request %s was approved for %s.", b.BookingID, slot))
}

// SlotCountered tells the buyer the agent proposed a different time.
func (n *Notifier) SlotCountered(b *models.Booking) {
	slot := ""
	if b.AgentSuggestedSlot != nil {
		slot = b.AgentSuggestedSlot.Format(time.RFC1123)
	}
	n.send(b.BuyerID, fmt.Sprintf(
		"The agent suggested a new time for visit %s: %s. %s", b.BookingID, slot, b.CounterMessage))
}

// BookingCancelled informs the other party of a cancellation.
func (n *Notifier) BookingCancelled(b *models.Booking, actorID string) {
	target := b.BuyerID
	if actorID == b.BuyerID {
		target = b.AgentID
	}
	n.send(target, fmt.Sprintf("Visit %s was cancelled. %s", b.BookingID, b.CancelReason))
}

// OfferReceived tells the agent a new offer arrived.
func (n *Notifier) OfferReceived(o *models.Offer) {
	n.send(o.AgentID, fmt.Sprintf("New offer of ₹%.0f received on property %s.", o.Amount, o.PropertyID))
}

// OfferCountered tells the other side about a new proposed price.
func (n *Notifier) OfferCountered(o *models.Offer) {
	target := o.BuyerID
	if o.CounterBy == models.CounterByBuyer {
		target = o.AgentID
	}
	n.send(target, fmt.Sprintf(
		"Counter offer of ₹%.0f on property %s. %s", o.Amount, o.PropertyID, o.CounterMessage))
}

// CounterAgreed tells the agent the buyer agreed to the countered price.
func (n *Notifier) CounterAgreed(o *models.Offer) {
	n.send(o.AgentID, fmt.Sprintf(
		"Buyer agreed to ₹%.0f on property %s. Accept the offer to open the deal.", o.Amount, o.PropertyID))
}

// OfferAccepted tells the buyer the deal is on.
func (n *Notifier) OfferAccepted(o *models.Offer) {
	n.send(o.BuyerID, fmt.Sprintf(
		"Your offer of ₹%.0f on property %s was accepted! Pay the token amount to reserve.", o.Amount, o.PropertyID))
}

// OfferRejected tells the other side the negotiation ended.
func (n *Notifier) OfferRejected(o *models.Offer, actorID string) {
	target := o.BuyerID
	if actorID == o.BuyerID {
		target = o.AgentID
	}
	n.send(target, fmt.Sprintf("Offer %s on property %s was declined.", o.OfferID, o.PropertyID))
}

// StageAdvanced tells the buyer the deal moved forward.
func (n *Notifier) StageAdvanced(o *models.Offer) {
	n.send(o.BuyerID, fmt.Sprintf("Deal %s moved to stage: %s.", o.OfferID, o.Status))
}

// ReservationExpired sends the informational expiry notice.
func (n *Notifier) ReservationExpired(r *models.Reservation) {
	n.send(r.BuyerID, fmt.Sprintf(
		"Your token reservation %s expired on %s.", r.ReservationID, r.ValidUntil.Format("02 Jan 2006")))
}

// AccountOTP delivers an account-verification code.
func (n *Notifier) AccountOTP(phone, code string) {
	if n.twilio == nil {
		log.Printf("notify (dry-run) → %s: verification code %s", phone, code)
		return
	}
	msg := fmt.Sprintf("Your Nivaas verification code is %s. Valid for 10 minutes.", code)
	if err := n.twilio.SendSMS(phone, msg); err != nil {
		log.Printf("notify: OTP delivery to %s failed: %v", phone, err)
	}
}
