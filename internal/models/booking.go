package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Booking represents a property visit request between a buyer and the
// listing agent
type Booking struct {
	gorm.Model
	BookingID  string `json:"booking_id" gorm:"uniqueIndex"`
	PropertyID string `json:"property_id" gorm:"index;not null"`
	BuyerID    string `json:"buyer_id" gorm:"index;not null"`
	AgentID    string `json:"agent_id" gorm:"index;not null"` // property owner at request time

	// Status tracking
	Status string `json:"status"` // "PENDING", "APPROVED", "COUNTER_PROPOSED", "IN_PROGRESS", "COMPLETED", "CANCELLED", "REJECTED"

	// Scheduling
	RequestedSlot      string     `json:"requested_slot"` // buyer's preference, free text or RFC3339
	ApprovedSlot       *time.Time `json:"approved_slot"`
	AgentSuggestedSlot *time.Time `json:"agent_suggested_slot"`
	CounterMessage     string     `json:"counter_message"`
	CancelReason       string     `json:"cancel_reason"`

	// Visit check-in
	OTP            string     `json:"-"` // single-use start code, cleared on consumption
	OTPGeneratedAt *time.Time `json:"-"`

	CheckInLatitude  float64 `json:"checkin_latitude"`
	CheckInLongitude float64 `json:"checkin_longitude"`
	LocationMatch    string  `json:"location_match"` // "MATCH", "MISMATCH", "NOT_VERIFIED"

	// Completion report
	AgentNotes          string         `json:"agent_notes"`
	VisitImages         datatypes.JSON `json:"visit_images"`
	BuyerInterest       string         `json:"buyer_interest"`
	BuyerTimeline       string         `json:"buyer_timeline"`
	BuyerBudgetFeedback string         `json:"buyer_budget_feedback"`

	// Buyer review, attached after completion
	Rating        int    `json:"rating" gorm:"default:0"`
	ReviewComment string `json:"review_comment"`

	// Optimistic concurrency
	Version int `json:"version" gorm:"default:1"`

	// Timestamps
	ApprovedAt  *time.Time `json:"approved_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
}

// BookingStatus constants
const (
	BookingStatusPending         = "PENDING"
	BookingStatusApproved        = "APPROVED"
	BookingStatusCounterProposed = "COUNTER_PROPOSED"
	BookingStatusInProgress      = "IN_PROGRESS"
	BookingStatusCompleted       = "COMPLETED"
	BookingStatusCancelled       = "CANCELLED"
	BookingStatusRejected        = "REJECTED"

	LocationMatch       = "MATCH"
	LocationMismatch    = "MISMATCH"
	LocationNotVerified = "NOT_VERIFIED"
)

// BeforeCreate generates BookingID
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.BookingID == "" {
		var count int64
		tx.Model(&Booking{}).Count(&count)
		b.BookingID = fmt.Sprintf("BKG%05d", count+1)
	}
	return nil
}

// IsTerminal reports whether the booking can never transition again.
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusRejected:
		return true
	}
	return false
}

// VisitReport carries the agent's completion data for a visit.
type VisitReport struct {
	Latitude            float64  `json:"latitude"`
	Longitude           float64  `json:"longitude"`
	LocationMatch       string   `json:"location_match"`
	AgentNotes          string   `json:"agent_notes"`
	VisitImages         []string `json:"visit_images"`
	BuyerInterest       string   `json:"buyer_interest"`
	BuyerTimeline       string   `json:"buyer_timeline"`
	BuyerBudgetFeedback string   `json:"buyer_budget_feedback"`
}
