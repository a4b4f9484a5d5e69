package services

import (
	"fmt"

	"github.com/NivaasHQ/nivaas-backend/internal/models"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
)

// CommissionRate is the platform commission on the sale price, itemised
// in the deal's financial breakdown.
const CommissionRate = 0.02

// ProgressFloor is the minimum progress percentage shown once a deal
// exists at all.
const ProgressFloor = 5.0

// DealService derives the read-only Deal Room composite. It recomputes
// from the underlying Offer/Booking state on every call and has no write
// path.
type DealService struct {
	store storage.Store
}

// NewDealService creates a new deal aggregator
func NewDealService(store storage.Store) *DealService {
	return &DealService{store: store}
}

// BuildDealView joins the offer with its property, visit history,
// documents and financials. An offer still in negotiation gets the
// negotiation sub-view with no progress; an accepted-or-later offer gets
// the stage/progress view. The two modes are mutually exclusive.
func (s *DealService) BuildDealView(offerID string) (*models.DealView, error) {
	offer, err := s.store.GetOffer(offerID)
	if err != nil {
		return nil, err
	}

	property, err := s.store.GetProperty(offer.PropertyID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.store.GetBookingsForPair(offer.PropertyID, offer.BuyerID)
	if err != nil {
		return nil, err
	}

	view := &models.DealView{
		Offer:       offer,
		Property:    property.Summary(),
		Visits:      visitSummaries(bookings),
		Documents:   dealDocuments(offer),
		Financial:   financialBreakdown(offer),
		TotalStages: len(models.DealStages),
		StageIndex:  -1,
	}

	if offer.IsNegotiating() {
		view.Mode = models.DealModeNegotiating
		view.Negotiation = &models.NegotiationView{
			Amount:            offer.Amount,
			CounterAmount:     offer.CounterAmount,
			CounterBy:         offer.CounterBy,
			CounterMessage:    offer.CounterMessage,
			CounterAcceptedBy: offer.CounterAcceptedBy,
			Status:            offer.Status,
		}
		return view, nil
	}

	idx := stageIndexFromMilestones(offer)
	view.Mode = models.DealModeProgressing
	view.StageIndex = idx
	view.CurrentStage = models.DealStages[idx]
	view.ProgressPercent = progressPercent(idx, len(models.DealStages))
	return view, nil
}

// stageIndexFromMilestones derives the stage the deal has reached: the
// offer status maps directly onto the ordered stage list, and a recorded
// milestone only lifts a status that lags behind it. A token capture on a
// still-accepted offer means registration is up next; an offer already at
// token_paid stays there, since the milestone is set on entering that
// stage.
func stageIndexFromMilestones(offer *models.Offer) int {
	idx := offer.StageIndex()
	if idx < 0 {
		idx = 0
	}

	if offer.TokenPaidAt != nil && offer.Status == models.OfferStatusAccepted {
		if i := stageIndex(models.OfferStageRegistration); i > idx {
			idx = i
		}
	}
	if offer.SaleDeedURL != "" {
		if i := stageIndex(models.OfferStageCommission); i > idx {
			idx = i
		}
	}
	return idx
}

func stageIndex(stage string) int {
	for i, s := range models.DealStages {
		if s == stage {
			return i
		}
	}
	return -1
}

// progressPercent is (stageIndex+1)/totalStages*100, clamped to [0,100]
// with the visual floor applied.
func progressPercent(stageIdx, totalStages int) float64 {
	pct := float64(stageIdx+1) / float64(totalStages) * 100
	if pct > 100 {
		pct = 100
	}
	if pct < ProgressFloor {
		pct = ProgressFloor
	}
	return pct
}

func visitSummaries(bookings []*models.Booking) []models.VisitSummary {
	summaries := make([]models.VisitSummary, 0, len(bookings))
	for _, b := range bookings {
		summaries = append(summaries, models.VisitSummary{
			BookingID:    b.BookingID,
			Status:       b.Status,
			ApprovedSlot: b.ApprovedSlot,
			CompletedAt:  b.CompletedAt,
			Rating:       b.Rating,
		})
	}
	return summaries
}

func dealDocuments(offer *models.Offer) []models.DealDocument {
	var docs []models.DealDocument
	if offer.SaleDeedURL != "" {
		docs = append(docs, models.DealDocument{Name: "Sale deed", URL: offer.SaleDeedURL})
	}
	return docs
}

func financialBreakdown(offer *models.Offer) models.FinancialBreakdown {
	tokenFee := offer.Amount * models.ReservationFeeRate
	return models.FinancialBreakdown{
		SalePrice:      offer.Amount,
		TokenFee:       tokenFee,
		TokenPaid:      offer.TokenPaidAt != nil,
		Commission:     offer.Amount * CommissionRate,
		CommissionPaid: offer.CommissionPaid,
		Balance:        offer.Amount - tokenFee,
	}
}

// DealSummaryLine is used by admin listings and notifications.
func DealSummaryLine(v *models.DealView) string {
	if v.Mode == models.DealModeNegotiating {
		return fmt.Sprintf("%s: negotiating at ₹%.0f", v.Offer.OfferID, v.Offer.Amount)
	}
	return fmt.Sprintf("%s: %s (%.0f%%)", v.Offer.OfferID, v.CurrentStage, v.ProgressPercent)
}
