package models

import "time"

// Deal view display modes. An offer still in price negotiation gets the
// negotiation sub-view; progress is only computed once accepted.
const (
	DealModeNegotiating = "negotiating"
	DealModeProgressing = "progressing"
)

// DealDocument is a document attached to a deal (sale deed, receipts).
type DealDocument struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// FinancialBreakdown itemises the money side of a deal.
type FinancialBreakdown struct {
	SalePrice      float64 `json:"sale_price"`
	TokenFee       float64 `json:"token_fee"`
	TokenPaid      bool    `json:"token_paid"`
	Commission     float64 `json:"commission"`
	CommissionPaid bool    `json:"commission_paid"`
	Balance        float64 `json:"balance"` // due at registration
}

// VisitSummary is a booking projected into the deal timeline.
type VisitSummary struct {
	BookingID    string     `json:"booking_id"`
	Status       string     `json:"status"`
	ApprovedSlot *time.Time `json:"approved_slot"`
	CompletedAt  *time.Time `json:"completed_at"`
	Rating       int        `json:"rating"`
}

// NegotiationView is the sub-view shown while the price is still open.
type NegotiationView struct {
	Amount            float64 `json:"amount"`
	CounterAmount     float64 `json:"counter_amount"`
	CounterBy         string  `json:"counter_by"`
	CounterMessage    string  `json:"counter_message"`
	CounterAcceptedBy string  `json:"counter_accepted_by"`
	Status            string  `json:"status"`
}

// DealView is the read-only Deal Room composite. It is recomputed from
// the underlying Offer/Booking state on every fetch and never writes back.
type DealView struct {
	Offer    *Offer          `json:"offer"`
	Property PropertySummary `json:"property"`

	Mode string `json:"mode"` // negotiating or progressing

	// Progressing fields, zero while negotiating
	CurrentStage    string  `json:"current_stage,omitempty"`
	StageIndex      int     `json:"stage_index"`
	TotalStages     int     `json:"total_stages"`
	ProgressPercent float64 `json:"progress_percent"`

	Negotiation *NegotiationView `json:"negotiation,omitempty"`

	Visits    []VisitSummary     `json:"visits"`
	Documents []DealDocument     `json:"documents"`
	Financial FinancialBreakdown `json:"financial"`
}
