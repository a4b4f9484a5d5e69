package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateVisitCode generates a cryptographically secure 4-digit code for
// visit check-in.
func GenerateVisitCode() (string, error) {
	max := big.NewInt(9999)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}

	// Add 1 to avoid 0 and format with leading zeros to ensure 4 digits
	return fmt.Sprintf("%04d", n.Int64()+1), nil
}

// GenerateAccountCode generates a cryptographically secure 6-digit code
// for account verification.
func GenerateAccountCode() (string, error) {
	max := big.NewInt(999999)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+1), nil
}
