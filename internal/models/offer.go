package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Offer represents a buyer's proposed purchase price for a property,
// negotiated with the listing agent and carried through the post-acceptance
// deal stages
type Offer struct {
	gorm.Model
	OfferID    string `json:"offer_id" gorm:"uniqueIndex"`
	PropertyID string `json:"property_id" gorm:"index;not null"`
	BuyerID    string `json:"buyer_id" gorm:"index;not null"`
	AgentID    string `json:"agent_id" gorm:"index;not null"`

	// Amount is the last agreed-upon or proposed value. Frozen once accepted.
	Amount  float64 `json:"amount"`
	Message string  `json:"message"`

	Status string `json:"status"` // "pending", "countered", "accepted", "rejected", "token_paid", "registration", "commission", "completed", "cancelled"

	// Negotiation
	CounterAmount     float64 `json:"counter_amount"`
	CounterMessage    string  `json:"counter_message"`
	CounterBy         string  `json:"counter_by"`          // "buyer" or "agent", who proposed the current price
	CounterAcceptedBy string  `json:"counter_accepted_by"` // buyer agreement note, agent still closes via accept

	// Deal milestones
	TokenPaidAt    *time.Time `json:"token_paid_at"`
	RegistrationAt *time.Time `json:"registration_at"`
	SaleDeedURL    string     `json:"sale_deed_url"`
	CommissionPaid bool       `json:"commission_paid"`

	// Optimistic concurrency
	Version int `json:"version" gorm:"default:1"`

	AcceptedAt  *time.Time `json:"accepted_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Offer status constants
const (
	OfferStatusPending   = "pending"
	OfferStatusCountered = "countered"
	OfferStatusAccepted  = "accepted"
	OfferStatusRejected  = "rejected"
	OfferStatusCancelled = "cancelled"

	OfferStageTokenPaid    = "token_paid"
	OfferStageRegistration = "registration"
	OfferStageCommission   = "commission"
	OfferStageCompleted    = "completed"

	CounterByBuyer = "buyer"
	CounterByAgent = "agent"
)

// DealStages lists the post-acceptance milestones in order. advanceStage
// only ever moves one step to the right.
var DealStages = []string{
	OfferStatusAccepted,
	OfferStageTokenPaid,
	OfferStageRegistration,
	OfferStageCommission,
	OfferStageCompleted,
}

// BeforeCreate generates OfferID
func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.OfferID == "" {
		var count int64
		tx.Model(&Offer{}).Count(&count)
		o.OfferID = fmt.Sprintf("OFR%05d", count+1)
	}
	return nil
}

// IsTerminal reports whether the offer can never transition again.
func (o *Offer) IsTerminal() bool {
	switch o.Status {
	case OfferStatusRejected, OfferStatusCancelled, OfferStageCompleted:
		return true
	}
	return false
}

// IsNegotiating reports whether the offer is still in price negotiation.
func (o *Offer) IsNegotiating() bool {
	switch o.Status {
	case OfferStatusPending, OfferStatusCountered, OfferStatusRejected, OfferStatusCancelled:
		return true
	}
	return false
}

// StageIndex returns the position of the offer's status in DealStages,
// or -1 while negotiating.
func (o *Offer) StageIndex() int {
	for i, s := range DealStages {
		if o.Status == s {
			return i
		}
	}
	return -1
}
