package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
)

func TestRequestVisit(t *testing.T) {
	env := newTestEnv(t)

	booking, err := env.bookings.RequestVisit(env.buyer, env.property.PropertyID, "Saturday morning")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.Equal(t, env.buyer.UserID, booking.BuyerID)
	assert.Equal(t, env.agent.UserID, booking.AgentID)
	assert.Equal(t, models.LocationNotVerified, booking.LocationMatch)
	assert.Equal(t, 1, booking.Version)

	t.Run("duplicate active request is rejected", func(t *testing.T) {
		_, err := env.bookings.RequestVisit(env.buyer, env.property.PropertyID, "Sunday evening")
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("a second request is allowed once the first is terminal", func(t *testing.T) {
		_, err := env.bookings.Cancel(env.buyer, booking.BookingID, "changed my mind")
		require.NoError(t, err)

		again, err := env.bookings.RequestVisit(env.buyer, env.property.PropertyID, "Sunday evening")
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusPending, again.Status)
	})

	t.Run("unknown property", func(t *testing.T) {
		_, err := env.bookings.RequestVisit(env.buyer, "PROP99999", "whenever")
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("missing slot", func(t *testing.T) {
		_, err := env.bookings.RequestVisit(env.stranger, env.property.PropertyID, "")
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}

func TestApproveAuthorization(t *testing.T) {
	env := newTestEnv(t)
	booking, err := env.bookings.RequestVisit(env.buyer, env.property.PropertyID, "Saturday morning")
	require.NoError(t, err)

	// A non-owning user fails the guard before any state is touched.
	_, err = env.bookings.Approve(env.stranger, booking.BookingID, testSlot(), 0)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	stored, err := env.store.GetBooking(booking.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, stored.Status)

	// The listing agent succeeds.
	approved, err := env.bookings.Approve(env.agent, booking.BookingID, testSlot(), 0)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedSlot)
	assert.True(t, approved.ApprovedSlot.Equal(testSlot()))

	// An admin may also approve, for support overrides.
	booking2, err := env.bookings.RequestVisit(env.stranger, env.property.PropertyID, "Friday")
	require.NoError(t, err)
	_, err = env.bookings.Approve(env.admin, booking2.BookingID, testSlot(), 0)
	assert.NoError(t, err)
}

func TestCounterProposalFlow(t *testing.T) {
	env := newTestEnv(t)
	booking, err := env.bookings.RequestVisit(env.buyer, env.property.PropertyID, "Saturday morning")
	require.NoError(t, err)

	suggested := testSlot().Add(48 * time.Hour)
	booking, err = env.bookings.Counter(env.agent, booking.BookingID, suggested, "Saturday is packed, Monday instead?", 0)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCounterProposed, booking.Status)
	require.NotNil(t, booking.AgentSuggestedSlot)
	assert.Nil(t, booking.ApprovedSlot)

	t.Run("only the buyer may accept the counter", func(t *testing.T) {
		_, err := env.bookings.AcceptCounter(env.stranger, booking.BookingID, 0)
		assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	})

	t.Run("accepting copies the suggested slot into the approved slot", func(t *testing.T) {
		accepted, err := env.bookings.AcceptCounter(env.buyer, booking.BookingID, 0)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusApproved, accepted.Status)
		require.NotNil(t, accepted.ApprovedSlot)
		assert.True(t, accepted.ApprovedSlot.Equal(suggested))
	})

	t.Run("declining a counter cancels the booking", func(t *testing.T) {
		b, err := env.bookings.RequestVisit(env.stranger, env.property.PropertyID, "anytime")
		require.NoError(t, err)
		b, err = env.bookings.Counter(env.agent, b.BookingID, suggested, "", 0)
		require.NoError(t, err)

		declined, err := env.bookings.DeclineCounter(env.stranger, b.BookingID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, declined.Status)
	})
}

func TestVisitOTPGate(t *testing.T) {
	env := newTestEnv(t)
	booking, err := env.bookings.RequestVisit(env.buyer, env.property.PropertyID, "Saturday morning")
	require.NoError(t, err)

	// No code before approval.
	_, err = env.bookings.GenerateOTP(env.agent, booking.BookingID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	booking, err = env.bookings.Approve(env.agent, booking.BookingID, testSlot(), 0)
	require.NoError(t, err)

	// Starting without a generated code fails as an OTP error.
	_, err = env.bookings.StartVisit(env.agent, booking.BookingID, "0000")
	assert.True(t, apperr.Is(err, apperr.KindInvalidOTP))

	booking, err = env.bookings.GenerateOTP(env.agent, booking.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusApproved, booking.Status, "generating a code does not change status")
	require.Len(t, booking.OTP, 4)
	code := booking.OTP

	t.Run("wrong code leaves state untouched", func(t *testing.T) {
		wrong := "0000"
		if code == wrong {
			wrong = "1111"
		}
		_, err := env.bookings.StartVisit(env.agent, booking.BookingID, wrong)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindInvalidOTP))

		stored, err := env.store.GetBooking(booking.BookingID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusApproved, stored.Status)
		assert.Equal(t, code, stored.OTP, "a mismatch does not burn the code")
	})

	t.Run("only the agent can start the visit", func(t *testing.T) {
		_, err := env.bookings.StartVisit(env.buyer, booking.BookingID, code)
		assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	})

	t.Run("matching code starts the visit and is consumed", func(t *testing.T) {
		started, err := env.bookings.StartVisit(env.agent, booking.BookingID, code)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusInProgress, started.Status)
		assert.Empty(t, started.OTP)

		// The consumed code cannot start anything again.
		_, err = env.bookings.StartVisit(env.agent, booking.BookingID, code)
		assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	})
}

func TestCompleteAndRateVisit(t *testing.T) {
	env := newTestEnv(t)
	booking := env.requestApproved(t)

	booking, err := env.bookings.GenerateOTP(env.agent, booking.BookingID)
	require.NoError(t, err)
	booking, err = env.bookings.StartVisit(env.agent, booking.BookingID, booking.OTP)
	require.NoError(t, err)

	report := &models.VisitReport{
		Latitude:      12.9716,
		Longitude:     77.5946,
		LocationMatch: models.LocationMismatch,
		AgentNotes:    "Buyer liked the kitchen, worried about road noise",
		VisitImages:   []string{"https://cdn.example.com/visits/1.jpg"},
		BuyerInterest: "high",
		BuyerTimeline: "3 months",
	}

	booking, err = env.bookings.CompleteVisit(env.agent, booking.BookingID, report)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCompleted, booking.Status)
	assert.Equal(t, models.LocationMismatch, booking.LocationMatch, "a mismatch is recorded, never blocking")
	assert.Equal(t, report.AgentNotes, booking.AgentNotes)
	require.NotNil(t, booking.CompletedAt)

	t.Run("rating bounds", func(t *testing.T) {
		for _, bad := range []int{0, 6, -1} {
			_, err := env.bookings.RateVisit(env.buyer, booking.BookingID, bad, "")
			assert.True(t, apperr.Is(err, apperr.KindValidation), "rating %d should fail", bad)
		}
	})

	t.Run("buyer rates the completed visit", func(t *testing.T) {
		rated, err := env.bookings.RateVisit(env.buyer, booking.BookingID, 4, "Great visit")
		require.NoError(t, err)
		assert.Equal(t, 4, rated.Rating)
		assert.Equal(t, models.BookingStatusCompleted, rated.Status, "rating does not change status")
	})

	t.Run("agent cannot rate", func(t *testing.T) {
		_, err := env.bookings.RateVisit(env.agent, booking.BookingID, 5, "")
		assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	})
}

func TestRateRequiresCompletion(t *testing.T) {
	env := newTestEnv(t)
	booking := env.requestApproved(t)

	_, err := env.bookings.RateVisit(env.buyer, booking.BookingID, 5, "premature")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	env := newTestEnv(t)

	booking, err := env.bookings.RequestVisit(env.buyer, env.property.PropertyID, "Saturday")
	require.NoError(t, err)
	booking, err = env.bookings.Cancel(env.buyer, booking.BookingID, "no longer interested")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, booking.Status)

	t.Run("no transition succeeds from a terminal state", func(t *testing.T) {
		_, err := env.bookings.Approve(env.agent, booking.BookingID, testSlot(), 0)
		assert.True(t, apperr.Is(err, apperr.KindInvalidState))

		_, err = env.bookings.Counter(env.agent, booking.BookingID, testSlot(), "", 0)
		assert.True(t, apperr.Is(err, apperr.KindInvalidState))

		_, err = env.bookings.GenerateOTP(env.agent, booking.BookingID)
		assert.True(t, apperr.Is(err, apperr.KindInvalidState))

		_, err = env.bookings.StartVisit(env.agent, booking.BookingID, "1234")
		assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	})

	t.Run("cancel on a terminal booking is an idempotent no-op", func(t *testing.T) {
		again, err := env.bookings.Cancel(env.buyer, booking.BookingID, "double tap")
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, again.Status)
		assert.Equal(t, "no longer interested", again.CancelReason, "the original reason survives")
	})
}

func TestRejectPendingRequest(t *testing.T) {
	env := newTestEnv(t)
	booking, err := env.bookings.RequestVisit(env.buyer, env.property.PropertyID, "Saturday")
	require.NoError(t, err)

	rejected, err := env.bookings.Reject(env.agent, booking.BookingID, "property off market this month")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusRejected, rejected.Status)

	// Rejection is terminal too.
	_, err = env.bookings.Approve(env.agent, booking.BookingID, testSlot(), 0)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestBookingVersionConflict(t *testing.T) {
	env := newTestEnv(t)
	booking, err := env.bookings.RequestVisit(env.buyer, env.property.PropertyID, "Saturday")
	require.NoError(t, err)

	// Two readers see version 1; the second writer loses.
	readVersion := booking.Version
	_, err = env.bookings.Counter(env.agent, booking.BookingID, testSlot(), "first writer", readVersion)
	require.NoError(t, err)

	_, err = env.bookings.Approve(env.agent, booking.BookingID, testSlot(), readVersion)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	// Without a version the approve lands against fresh state.
	_, err = env.bookings.Approve(env.agent, booking.BookingID, testSlot(), 0)
	assert.NoError(t, err)
}
