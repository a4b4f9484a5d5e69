package storage

import (
	"time"

	"github.com/NivaasHQ/nivaas-backend/internal/models"
)

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Store defines the interface for storage operations. Booking and Offer
// updates are compare-and-set: the write only lands if the stored version
// still equals expectedVersion, and the version is bumped on success.
type Store interface {
	// User operations
	CreateUser(user *models.User) (*models.User, error)
	GetUser(userID string) (*models.User, error)
	GetUserByPhone(phone string) (*models.User, error)
	GetAllUsers() ([]*models.User, error)
	UpdateUser(user *models.User) error

	// Property operations
	CreateProperty(property *models.Property) (*models.Property, error)
	GetProperty(propertyID string) (*models.Property, error)
	GetPropertiesByOwner(ownerID string) ([]*models.Property, error)
	GetAllProperties() ([]*models.Property, error)
	UpdateProperty(property *models.Property) error

	// Booking operations
	CreateBooking(booking *models.Booking) (*models.Booking, error)
	GetBooking(bookingID string) (*models.Booking, error)
	GetBookingsByBuyer(buyerID string) ([]*models.Booking, error)
	GetBookingsByProperty(propertyID string) ([]*models.Booking, error)
	GetBookingsForPair(propertyID, buyerID string) ([]*models.Booking, error)
	UpdateBooking(booking *models.Booking, expectedVersion int) error

	// Offer operations
	CreateOffer(offer *models.Offer) (*models.Offer, error)
	GetOffer(offerID string) (*models.Offer, error)
	GetOffersByBuyer(buyerID string) ([]*models.Offer, error)
	GetOffersByProperty(propertyID string) ([]*models.Offer, error)
	GetActiveOfferForPair(propertyID, buyerID string) (*models.Offer, error)
	UpdateOffer(offer *models.Offer, expectedVersion int) error

	// Reservation operations
	CreateReservation(res *models.Reservation) (*models.Reservation, error)
	GetReservation(reservationID string) (*models.Reservation, error)
	GetReservationByPaymentRef(paymentRef string) (*models.Reservation, error)
	GetReservationsByOffer(offerID string) ([]*models.Reservation, error)
	GetExpiredReservations(asOf time.Time) ([]*models.Reservation, error)
	UpdateReservation(res *models.Reservation) error

	// OTP operations (account verification)
	CreateOTP(otp *models.OTP) (*models.OTP, error)
	GetActiveOTP(phone, purpose string) (*models.OTP, error)
	UpdateOTP(otp *models.OTP) error
	DeleteExpiredOTPs() error
}
