package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
)

func TestDealViewWhileNegotiating(t *testing.T) {
	env := newTestEnv(t)

	offer, err := env.offers.SubmitOffer(env.buyer, env.property.PropertyID, 5_000_000, "")
	require.NoError(t, err)
	offer, err = env.offers.CounterOffer(env.agent, offer.OfferID, 5_200_000, "final price", 0)
	require.NoError(t, err)

	view, err := env.deals.BuildDealView(offer.OfferID)
	require.NoError(t, err)

	assert.Equal(t, models.DealModeNegotiating, view.Mode)
	assert.Equal(t, -1, view.StageIndex)
	assert.Empty(t, view.CurrentStage)
	assert.Zero(t, view.ProgressPercent)

	require.NotNil(t, view.Negotiation)
	assert.Equal(t, 5_200_000.0, view.Negotiation.Amount)
	assert.Equal(t, models.CounterByAgent, view.Negotiation.CounterBy)
	assert.Equal(t, "final price", view.Negotiation.CounterMessage)

	assert.Equal(t, env.property.Title, view.Property.Title)
}

func TestDealViewProgression(t *testing.T) {
	env := newTestEnv(t)
	offer := env.acceptedOffer(t, 5_200_000)

	view, err := env.deals.BuildDealView(offer.OfferID)
	require.NoError(t, err)
	assert.Equal(t, models.DealModeProgressing, view.Mode)
	assert.Nil(t, view.Negotiation)
	assert.Equal(t, 0, view.StageIndex)
	assert.Equal(t, models.OfferStatusAccepted, view.CurrentStage)
	assert.InDelta(t, 20.0, view.ProgressPercent, 0.001)

	walk := []struct {
		stage   string
		percent float64
	}{
		{models.OfferStageTokenPaid, 40},
		{models.OfferStageRegistration, 60},
		{models.OfferStageCommission, 80},
		{models.OfferStageCompleted, 100},
	}
	for _, step := range walk {
		deedURL := ""
		if step.stage == models.OfferStageCommission {
			deedURL = "https://docs.example.com/deed.pdf"
		}
		_, err := env.offers.AdvanceStage(env.agent, offer.OfferID, step.stage, deedURL)
		require.NoError(t, err)

		view, err := env.deals.BuildDealView(offer.OfferID)
		require.NoError(t, err)
		assert.Equal(t, step.stage, view.CurrentStage)
		assert.InDelta(t, step.percent, view.ProgressPercent, 0.001)
	}

	t.Run("documents appear with the deed", func(t *testing.T) {
		view, err := env.deals.BuildDealView(offer.OfferID)
		require.NoError(t, err)
		require.Len(t, view.Documents, 1)
		assert.Equal(t, "Sale deed", view.Documents[0].Name)
	})
}

// A recorded milestone wins over a stale status when deriving the stage.
func TestStageDerivedFromMilestones(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name  string
		offer models.Offer
		want  string
	}{
		{
			name:  "status alone",
			offer: models.Offer{Status: models.OfferStageTokenPaid},
			want:  models.OfferStageTokenPaid,
		},
		{
			name:  "the milestone of the current stage does not lift it",
			offer: models.Offer{Status: models.OfferStageTokenPaid, TokenPaidAt: &now},
			want:  models.OfferStageTokenPaid,
		},
		{
			name:  "token payment implies registration",
			offer: models.Offer{Status: models.OfferStatusAccepted, TokenPaidAt: &now},
			want:  models.OfferStageRegistration,
		},
		{
			name:  "sale deed implies commission",
			offer: models.Offer{Status: models.OfferStageTokenPaid, SaleDeedURL: "x"},
			want:  models.OfferStageCommission,
		},
		{
			name:  "status ahead of milestones wins",
			offer: models.Offer{Status: models.OfferStageCompleted, TokenPaidAt: &now},
			want:  models.OfferStageCompleted,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			idx := stageIndexFromMilestones(&tc.offer)
			assert.Equal(t, tc.want, models.DealStages[idx])
		})
	}
}

func TestProgressPercentBounds(t *testing.T) {
	assert.Equal(t, ProgressFloor, progressPercent(-1, 5), "floor applies at zero")
	assert.Equal(t, 100.0, progressPercent(5, 5), "clamped at the top")
	assert.InDelta(t, 60.0, progressPercent(2, 5), 0.001)
}

func TestDealViewFinancials(t *testing.T) {
	env := newTestEnv(t)
	offer := env.acceptedOffer(t, 5_200_000)

	view, err := env.deals.BuildDealView(offer.OfferID)
	require.NoError(t, err)

	fin := view.Financial
	assert.Equal(t, 5_200_000.0, fin.SalePrice)
	assert.InDelta(t, 5_200.0, fin.TokenFee, 0.001)
	assert.InDelta(t, 104_000.0, fin.Commission, 0.001)
	assert.InDelta(t, 5_194_800.0, fin.Balance, 0.001)
	assert.False(t, fin.TokenPaid)
	assert.False(t, fin.CommissionPaid)
}

func TestDealViewIncludesVisitHistory(t *testing.T) {
	env := newTestEnv(t)

	booking := env.requestApproved(t)
	booking, err := env.bookings.GenerateOTP(env.agent, booking.BookingID)
	require.NoError(t, err)
	booking, err = env.bookings.StartVisit(env.agent, booking.BookingID, booking.OTP)
	require.NoError(t, err)
	_, err = env.bookings.CompleteVisit(env.agent, booking.BookingID, &models.VisitReport{
		LocationMatch: models.LocationMatch,
		AgentNotes:    "went well",
	})
	require.NoError(t, err)

	offer := env.acceptedOffer(t, 5_200_000)
	view, err := env.deals.BuildDealView(offer.OfferID)
	require.NoError(t, err)

	require.Len(t, view.Visits, 1)
	assert.Equal(t, booking.BookingID, view.Visits[0].BookingID)
	assert.Equal(t, models.BookingStatusCompleted, view.Visits[0].Status)
}

func TestDealViewUnknownOffer(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.deals.BuildDealView("OFR99999")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDealSummaryLine(t *testing.T) {
	env := newTestEnv(t)

	offer, err := env.offers.SubmitOffer(env.buyer, env.property.PropertyID, 5_000_000, "")
	require.NoError(t, err)
	view, err := env.deals.BuildDealView(offer.OfferID)
	require.NoError(t, err)
	assert.Contains(t, DealSummaryLine(view), "negotiating")

	_, err = env.offers.AcceptOffer(env.agent, offer.OfferID, 0)
	require.NoError(t, err)
	view, err = env.deals.BuildDealView(offer.OfferID)
	require.NoError(t, err)
	assert.Contains(t, DealSummaryLine(view), models.OfferStatusAccepted)
}
