// Package auth holds the ownership and role predicates consulted before
// every mutating lifecycle operation. Predicates are pure; the caller's
// identity arrives as an explicit Actor, never ambient state.
package auth

import (
	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
)

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the actor holds the admin role.
func IsAdmin(a Actor) bool {
	return a.Role == models.RoleAdmin
}

// IsBuyerOfBooking reports whether the actor is the booking's buyer.
func IsBuyerOfBooking(a Actor, b *models.Booking) bool {
	return a.UserID == b.BuyerID
}

// IsBuyerOfOffer reports whether the actor is the offer's buyer.
func IsBuyerOfOffer(a Actor, o *models.Offer) bool {
	return a.UserID == o.BuyerID
}

// IsAgentOf reports whether the actor is the agent who listed the property.
func IsAgentOf(a Actor, p *models.Property) bool {
	return a.UserID == p.OwnerID
}

// RequireAgentOf fails with an authorization error unless the actor owns
// the property or is an admin.
func RequireAgentOf(a Actor, p *models.Property) error {
	if IsAdmin(a) || IsAgentOf(a, p) {
		return nil
	}
	return apperr.Authorization("user %s is not the listing agent for property %s", a.UserID, p.PropertyID)
}

// RequireBuyerOfBooking fails unless the actor is the booking's buyer or
// an admin.
func RequireBuyerOfBooking(a Actor, b *models.Booking) error {
	if IsAdmin(a) || IsBuyerOfBooking(a, b) {
		return nil
	}
	return apperr.Authorization("user %s is not the buyer on booking %s", a.UserID, b.BookingID)
}

// RequireBuyerOfOffer fails unless the actor is the offer's buyer or an
// admin.
func RequireBuyerOfOffer(a Actor, o *models.Offer) error {
	if IsAdmin(a) || IsBuyerOfOffer(a, o) {
		return nil
	}
	return apperr.Authorization("user %s is not the buyer on offer %s", a.UserID, o.OfferID)
}

// RequirePartyToBooking fails unless the actor is the booking's buyer,
// the listing agent, or an admin. Used for cancel, where either side may
// act.
func RequirePartyToBooking(a Actor, b *models.Booking) error {
	if IsAdmin(a) || IsBuyerOfBooking(a, b) || a.UserID == b.AgentID {
		return nil
	}
	return apperr.Authorization("user %s is not a party to booking %s", a.UserID, b.BookingID)
}

// RequirePartyToOffer fails unless the actor is the offer's buyer, the
// listing agent, or an admin.
func RequirePartyToOffer(a Actor, o *models.Offer) error {
	if IsAdmin(a) || IsBuyerOfOffer(a, o) || a.UserID == o.AgentID {
		return nil
	}
	return apperr.Authorization("user %s is not a party to offer %s", a.UserID, o.OfferID)
}
