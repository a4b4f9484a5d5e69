package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
)

func TestCreateReservation(t *testing.T) {
	env := newTestEnv(t)
	offer := env.acceptedOffer(t, 5_200_000)

	res, err := env.reservations.CreateReservation(env.buyer, offer.OfferID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusActive, res.Status)
	assert.InDelta(t, 5_200.0, res.Fee, 0.001, "fee is 0.1% of the accepted amount")
	assert.NotEmpty(t, res.PaymentRef)
	assert.WithinDuration(t, time.Now().Add(models.ReservationValidity), res.ValidUntil, 5*time.Second)

	t.Run("only one open reservation per offer", func(t *testing.T) {
		_, err := env.reservations.CreateReservation(env.buyer, offer.OfferID)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("only the buyer may reserve", func(t *testing.T) {
		_, err := env.reservations.CreateReservation(env.stranger, offer.OfferID)
		assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	})
}

func TestReservationRequiresAcceptedOffer(t *testing.T) {
	env := newTestEnv(t)

	offer, err := env.offers.SubmitOffer(env.buyer, env.property.PropertyID, 5_000_000, "")
	require.NoError(t, err)

	_, err = env.reservations.CreateReservation(env.buyer, offer.OfferID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestReservationExpiresAtReadTime(t *testing.T) {
	env := newTestEnv(t)
	offer := env.acceptedOffer(t, 5_200_000)

	res, err := env.reservations.CreateReservation(env.buyer, offer.OfferID)
	require.NoError(t, err)

	// Backdate the window to simulate the 30 days passing.
	res.ValidUntil = time.Now().Add(-time.Hour)
	require.NoError(t, env.store.UpdateReservation(res))

	read, err := env.reservations.GetReservation(res.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusExpired, read.Status)

	t.Run("an expired reservation cannot be paid", func(t *testing.T) {
		_, err := env.reservations.MarkPaid(res.PaymentRef, env.offers)
		assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	})

	t.Run("a fresh reservation may replace it", func(t *testing.T) {
		_, err := env.reservations.CreateReservation(env.buyer, offer.OfferID)
		require.NoError(t, err)
	})
}

func TestMarkPaidAdvancesTheDeal(t *testing.T) {
	env := newTestEnv(t)
	offer := env.acceptedOffer(t, 5_200_000)

	res, err := env.reservations.CreateReservation(env.buyer, offer.OfferID)
	require.NoError(t, err)

	paid, err := env.reservations.MarkPaid(res.PaymentRef, env.offers)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	stored, err := env.store.GetOffer(offer.OfferID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStageTokenPaid, stored.Status)
	assert.NotNil(t, stored.TokenPaidAt)

	t.Run("webhook retries are idempotent", func(t *testing.T) {
		again, err := env.reservations.MarkPaid(res.PaymentRef, env.offers)
		require.NoError(t, err)
		assert.Equal(t, models.ReservationStatusPaid, again.Status)

		stored, err := env.store.GetOffer(offer.OfferID)
		require.NoError(t, err)
		assert.Equal(t, models.OfferStageTokenPaid, stored.Status, "the deal did not advance twice")
	})

	t.Run("an unknown payment reference is not found", func(t *testing.T) {
		_, err := env.reservations.MarkPaid("no-such-ref", env.offers)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

// The agent may record the token stage through /advance before the
// gateway webhook lands; the late payment then only settles the
// reservation, it does not advance the deal a second time.
func TestMarkPaidAfterManualAdvance(t *testing.T) {
	env := newTestEnv(t)
	offer := env.acceptedOffer(t, 5_200_000)

	res, err := env.reservations.CreateReservation(env.buyer, offer.OfferID)
	require.NoError(t, err)

	_, err = env.offers.AdvanceStage(env.agent, offer.OfferID, models.OfferStageTokenPaid, "")
	require.NoError(t, err)

	paid, err := env.reservations.MarkPaid(res.PaymentRef, env.offers)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusPaid, paid.Status)

	stored, err := env.store.GetOffer(offer.OfferID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStageTokenPaid, stored.Status)
}

// A refused stage advance must not leave a paid reservation behind.
func TestMarkPaidLeavesNoPartialState(t *testing.T) {
	env := newTestEnv(t)
	offer := env.acceptedOffer(t, 5_200_000)

	res, err := env.reservations.CreateReservation(env.buyer, offer.OfferID)
	require.NoError(t, err)

	// The deal collapses before the webhook lands.
	_, err = env.offers.RejectOffer(env.agent, offer.OfferID)
	require.NoError(t, err)

	_, err = env.reservations.MarkPaid(res.PaymentRef, env.offers)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	stored, err := env.store.GetReservation(res.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusActive, stored.Status, "the failed advance never marked the reservation paid")
	assert.Nil(t, stored.PaidAt)
}
