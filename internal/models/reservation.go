package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ReservationFeeRate is the token fee charged against the accepted offer
// amount.
const ReservationFeeRate = 0.001

// ReservationValidity is how long a token reservation stays payable.
const ReservationValidity = 30 * 24 * time.Hour

// Reservation is the token-payment artifact created from an accepted offer.
// It expires silently after its validity window; expiry is informational,
// no refund semantics.
type Reservation struct {
	gorm.Model
	ReservationID string  `json:"reservation_id" gorm:"uniqueIndex"`
	OfferID       string  `json:"offer_id" gorm:"index;not null"`
	PropertyID    string  `json:"property_id" gorm:"index"`
	BuyerID       string  `json:"buyer_id" gorm:"index"`
	Fee           float64 `json:"fee"` // offer amount * ReservationFeeRate

	Status     string `json:"status"` // "active", "paid", "expired"
	PaymentRef string `json:"payment_ref" gorm:"index"`

	ValidUntil time.Time  `json:"valid_until"`
	PaidAt     *time.Time `json:"paid_at"`
}

// Reservation status constants
const (
	ReservationStatusActive  = "active"
	ReservationStatusPaid    = "paid"
	ReservationStatusExpired = "expired"
)

// BeforeCreate generates ReservationID
func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ReservationID == "" {
		var count int64
		tx.Model(&Reservation{}).Count(&count)
		r.ReservationID = fmt.Sprintf("RSV%05d", count+1)
	}
	return nil
}

// ExpiredAt reports whether the reservation's window has lapsed at the
// given instant. Paid reservations never expire.
func (r *Reservation) ExpiredAt(now time.Time) bool {
	return r.Status != ReservationStatusPaid && now.After(r.ValidUntil)
}
