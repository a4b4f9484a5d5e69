package services

import (
	"time"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
	"github.com/NivaasHQ/nivaas-backend/internal/utils"
)

// OTPAttemptLimit is how many wrong guesses an account code tolerates
// before locking out. The visit start code deliberately has no such
// counter; only this account flow does.
const OTPAttemptLimit = 3

// OTPExpiry is the validity window for account codes.
const OTPExpiry = 10 * time.Minute

// OTPService issues and checks account-verification codes.
type OTPService struct {
	store    storage.Store
	notifier *Notifier
}

// NewOTPService creates a new OTP service
func NewOTPService(store storage.Store, notifier *Notifier) *OTPService {
	return &OTPService{store: store, notifier: notifier}
}

// CreateOTP creates and dispatches a new code for the given purpose.
func (s *OTPService) CreateOTP(phone, purpose, referenceID string) (*models.OTP, error) {
	code, err := utils.GenerateAccountCode()
	if err != nil {
		return nil, err
	}

	otp := &models.OTP{
		Phone:       phone,
		Code:        code,
		Purpose:     purpose,
		ReferenceID: referenceID,
		ExpiresAt:   time.Now().Add(OTPExpiry),
	}

	otp, err = s.store.CreateOTP(otp)
	if err != nil {
		return nil, err
	}

	s.notifier.AccountOTP(phone, code)
	return otp, nil
}

// VerifyOTP checks the submitted code. Expired, used, or locked-out codes
// fail; three wrong guesses burn the code.
func (s *OTPService) VerifyOTP(phone, code, purpose string) (string, error) {
	otp, err := s.store.GetActiveOTP(phone, purpose)
	if err != nil {
		return "", err
	}

	if time.Now().After(otp.ExpiresAt) {
		return "", apperr.InvalidOTP("code expired, request a new one")
	}
	if otp.Attempts >= OTPAttemptLimit {
		return "", apperr.InvalidOTP("too many attempts, request a new code")
	}

	if otp.Code != code {
		otp.Attempts++
		if err := s.store.UpdateOTP(otp); err != nil {
			return "", err
		}
		return "", apperr.InvalidOTP("code does not match")
	}

	now := time.Now()
	otp.IsUsed = true
	otp.VerifiedAt = &now
	if err := s.store.UpdateOTP(otp); err != nil {
		return "", err
	}

	return otp.ReferenceID, nil
}
