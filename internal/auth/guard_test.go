package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
)

var (
	agent    = Actor{UserID: "USR00001", Role: models.RoleAgent}
	buyer    = Actor{UserID: "USR00002", Role: models.RoleBuyer}
	admin    = Actor{UserID: "USR00003", Role: models.RoleAdmin}
	stranger = Actor{UserID: "USR00004", Role: models.RoleBuyer}
)

func testBooking() *models.Booking {
	return &models.Booking{BookingID: "BKG00001", BuyerID: buyer.UserID, AgentID: agent.UserID}
}

func testOffer() *models.Offer {
	return &models.Offer{OfferID: "OFR00001", BuyerID: buyer.UserID, AgentID: agent.UserID}
}

func testProperty() *models.Property {
	return &models.Property{PropertyID: "PROP00001", OwnerID: agent.UserID}
}

func TestRequireAgentOf(t *testing.T) {
	property := testProperty()

	assert.NoError(t, RequireAgentOf(agent, property))
	assert.NoError(t, RequireAgentOf(admin, property), "admins override ownership")

	for _, a := range []Actor{buyer, stranger} {
		err := RequireAgentOf(a, property)
		assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	}
}

func TestRequireBuyerOf(t *testing.T) {
	booking := testBooking()
	offer := testOffer()

	assert.NoError(t, RequireBuyerOfBooking(buyer, booking))
	assert.NoError(t, RequireBuyerOfOffer(buyer, offer))
	assert.NoError(t, RequireBuyerOfBooking(admin, booking))

	// The listing agent is a party but not the buyer.
	assert.True(t, apperr.Is(RequireBuyerOfBooking(agent, booking), apperr.KindAuthorization))
	assert.True(t, apperr.Is(RequireBuyerOfOffer(agent, offer), apperr.KindAuthorization))
	assert.True(t, apperr.Is(RequireBuyerOfOffer(stranger, offer), apperr.KindAuthorization))
}

func TestRequireParty(t *testing.T) {
	booking := testBooking()
	offer := testOffer()

	for _, a := range []Actor{buyer, agent, admin} {
		assert.NoError(t, RequirePartyToBooking(a, booking), a.UserID)
		assert.NoError(t, RequirePartyToOffer(a, offer), a.UserID)
	}

	assert.True(t, apperr.Is(RequirePartyToBooking(stranger, booking), apperr.KindAuthorization))
	assert.True(t, apperr.Is(RequirePartyToOffer(stranger, offer), apperr.KindAuthorization))
}

func TestPredicatesIgnoreRoleClaims(t *testing.T) {
	// A buyer-id actor claiming the agent role still fails ownership.
	impostor := Actor{UserID: stranger.UserID, Role: models.RoleAgent}
	assert.False(t, IsAgentOf(impostor, testProperty()))
	assert.Error(t, RequireAgentOf(impostor, testProperty()))
}
