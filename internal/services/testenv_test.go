package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NivaasHQ/nivaas-backend/internal/auth"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
)

// testEnv wires the services against a fresh in-memory store with one
// agent, one buyer, one admin, and one listed property.
type testEnv struct {
	store        *storage.MemoryStore
	bookings     *BookingService
	offers       *OfferService
	deals        *DealService
	reservations *ReservationService

	agent    auth.Actor
	buyer    auth.Actor
	admin    auth.Actor
	stranger auth.Actor

	property *models.Property
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := storage.NewMemoryStore()
	notifier := NewNotifier(store, nil)

	users := map[string]*auth.Actor{}
	for _, u := range []struct {
		name, phone, role string
	}{
		{"Asha Agent", "+911111111111", models.RoleAgent},
		{"Bala Buyer", "+912222222222", models.RoleBuyer},
		{"Asim Admin", "+913333333333", models.RoleAdmin},
		{"Sana Stranger", "+914444444444", models.RoleBuyer},
	} {
		created, err := store.CreateUser(&models.User{
			Name:         u.name,
			Phone:        u.phone,
			PasswordHash: "x",
			Role:         u.role,
			Verified:     true,
			Active:       true,
		})
		require.NoError(t, err)
		users[u.name] = &auth.Actor{UserID: created.UserID, Role: u.role}
	}

	agent := *users["Asha Agent"]
	property, err := store.CreateProperty(&models.Property{
		OwnerID: agent.UserID,
		Title:   "2BHK in Indiranagar",
		Address: "100 Feet Road",
		City:    "Bengaluru",
		Price:   9_500_000,
	})
	require.NoError(t, err)

	return &testEnv{
		store:        store,
		bookings:     NewBookingService(store, notifier),
		offers:       NewOfferService(store, notifier),
		deals:        NewDealService(store),
		reservations: NewReservationService(store, notifier),
		agent:        agent,
		buyer:        *users["Bala Buyer"],
		admin:        *users["Asim Admin"],
		stranger:     *users["Sana Stranger"],
		property:     property,
	}
}

func testSlot() time.Time {
	return time.Date(2026, 9, 12, 10, 30, 0, 0, time.UTC)
}

// requestApproved walks a booking to APPROVED for tests that start there.
func (e *testEnv) requestApproved(t *testing.T) *models.Booking {
	t.Helper()

	booking, err := e.bookings.RequestVisit(e.buyer, e.property.PropertyID, "Saturday morning")
	require.NoError(t, err)

	booking, err = e.bookings.Approve(e.agent, booking.BookingID, testSlot(), 0)
	require.NoError(t, err)
	return booking
}

// acceptedOffer walks an offer to accepted for deal/reservation tests.
func (e *testEnv) acceptedOffer(t *testing.T, amount float64) *models.Offer {
	t.Helper()

	offer, err := e.offers.SubmitOffer(e.buyer, e.property.PropertyID, amount, "")
	require.NoError(t, err)

	offer, err = e.offers.AcceptOffer(e.agent, offer.OfferID, 0)
	require.NoError(t, err)
	return offer
}
