package models

import (
	"time"

	"gorm.io/gorm"
)

// OTP is an account-verification code sent over SMS. Unlike the visit
// start code (which lives on the Booking row), these are tracked with
// attempts and lock out after repeated failures.
type OTP struct {
	gorm.Model
	Phone       string    `gorm:"not null;index"`
	Code        string    `gorm:"not null"`
	Purpose     string    `gorm:"not null"` // "registration", "phone_change"
	ReferenceID string    `gorm:"index"`    // UserID for account OTPs
	ExpiresAt   time.Time `gorm:"not null"`
	VerifiedAt  *time.Time
	Attempts    int  `gorm:"default:0"`
	IsUsed      bool `gorm:"default:false"`
}

// OTP purposes
const (
	OTPPurposeRegistration = "registration"
	OTPPurposePhoneChange  = "phone_change"
)
