package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM/Postgres.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store backed by the given database handle
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func notFoundOr(err error, wrapped error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return wrapped
	}
	return err
}

// User operations

func (s *DatabaseStore) CreateUser(user *models.User) (*models.User, error) {
	var count int64
	s.db.Model(&models.User{}).Where("phone = ?", user.Phone).Count(&count)
	if count > 0 {
		return nil, apperr.Validation("phone %s is already registered", user.Phone)
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *DatabaseStore) GetUser(userID string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, notFoundOr(err, apperr.NotFound("user %s not found", userID))
	}
	return &user, nil
}

func (s *DatabaseStore) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, notFoundOr(err, apperr.NotFound("no user with phone %s", phone))
	}
	return &user, nil
}

func (s *DatabaseStore) GetAllUsers() ([]*models.User, error) {
	var users []*models.User
	if err := s.db.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *DatabaseStore) UpdateUser(user *models.User) error {
	return s.db.Save(user).Error
}

// Property operations

func (s *DatabaseStore) CreateProperty(property *models.Property) (*models.Property, error) {
	if err := s.db.Create(property).Error; err != nil {
		return nil, err
	}
	return property, nil
}

func (s *DatabaseStore) GetProperty(propertyID string) (*models.Property, error) {
	var property models.Property
	if err := s.db.Where("property_id = ?", propertyID).First(&property).Error; err != nil {
		return nil, notFoundOr(err, apperr.NotFound("property %s not found", propertyID))
	}
	return &property, nil
}

func (s *DatabaseStore) GetPropertiesByOwner(ownerID string) ([]*models.Property, error) {
	var properties []*models.Property
	if err := s.db.Where("owner_id = ?", ownerID).Find(&properties).Error; err != nil {
		return nil, err
	}
	return properties, nil
}

func (s *DatabaseStore) GetAllProperties() ([]*models.Property, error) {
	var properties []*models.Property
	if err := s.db.Find(&properties).Error; err != nil {
		return nil, err
	}
	return properties, nil
}

func (s *DatabaseStore) UpdateProperty(property *models.Property) error {
	return s.db.Save(property).Error
}

// Booking operations

func (s *DatabaseStore) CreateBooking(booking *models.Booking) (*models.Booking, error) {
	booking.Version = 1
	if err := s.db.Create(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *DatabaseStore) GetBooking(bookingID string) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.Where("booking_id = ?", bookingID).First(&booking).Error; err != nil {
		return nil, notFoundOr(err, apperr.NotFound("booking %s not found", bookingID))
	}
	return &booking, nil
}

func (s *DatabaseStore) GetBookingsByBuyer(buyerID string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	if err := s.db.Where("buyer_id = ?", buyerID).Order("created_at desc").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *DatabaseStore) GetBookingsByProperty(propertyID string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	if err := s.db.Where("property_id = ?", propertyID).Order("created_at desc").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *DatabaseStore) GetBookingsForPair(propertyID, buyerID string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := s.db.Where("property_id = ? AND buyer_id = ?", propertyID, buyerID).
		Order("created_at desc").Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *DatabaseStore) UpdateBooking(booking *models.Booking, expectedVersion int) error {
	booking.Version = expectedVersion + 1
	res := s.db.Model(&models.Booking{}).
		Where("booking_id = ? AND version = ?", booking.BookingID, expectedVersion).
		Select("*").Omit("id", "created_at").Updates(booking)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing row from a stale version.
		var count int64
		s.db.Model(&models.Booking{}).Where("booking_id = ?", booking.BookingID).Count(&count)
		if count == 0 {
			return apperr.NotFound("booking %s not found", booking.BookingID)
		}
		return apperr.Conflict("booking %s was modified concurrently (expected version %d)",
			booking.BookingID, expectedVersion)
	}
	return nil
}

// Offer operations

func (s *DatabaseStore) CreateOffer(offer *models.Offer) (*models.Offer, error) {
	offer.Version = 1
	if err := s.db.Create(offer).Error; err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *DatabaseStore) GetOffer(offerID string) (*models.Offer, error) {
	var offer models.Offer
	if err := s.db.Where("offer_id = ?", offerID).First(&offer).Error; err != nil {
		return nil, notFoundOr(err, apperr.NotFound("offer %s not found", offerID))
	}
	return &offer, nil
}

func (s *DatabaseStore) GetOffersByBuyer(buyerID string) ([]*models.Offer, error) {
	var offers []*models.Offer
	if err := s.db.Where("buyer_id = ?", buyerID).Order("created_at desc").Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

func (s *DatabaseStore) GetOffersByProperty(propertyID string) ([]*models.Offer, error) {
	var offers []*models.Offer
	if err := s.db.Where("property_id = ?", propertyID).Order("created_at desc").Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

func (s *DatabaseStore) GetActiveOfferForPair(propertyID, buyerID string) (*models.Offer, error) {
	var offer models.Offer
	err := s.db.Where("property_id = ? AND buyer_id = ? AND status NOT IN ?",
		propertyID, buyerID,
		[]string{models.OfferStatusRejected, models.OfferStatusCancelled, models.OfferStageCompleted}).
		First(&offer).Error
	if err != nil {
		return nil, notFoundOr(err, apperr.NotFound("no active offer for property %s by buyer %s", propertyID, buyerID))
	}
	return &offer, nil
}

func (s *DatabaseStore) UpdateOffer(offer *models.Offer, expectedVersion int) error {
	offer.Version = expectedVersion + 1
	res := s.db.Model(&models.Offer{}).
		Where("offer_id = ? AND version = ?", offer.OfferID, expectedVersion).
		Select("*").Omit("id", "created_at").Updates(offer)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		s.db.Model(&models.Offer{}).Where("offer_id = ?", offer.OfferID).Count(&count)
		if count == 0 {
			return apperr.NotFound("offer %s not found", offer.OfferID)
		}
		return apperr.Conflict("offer %s was modified concurrently (expected version %d)",
			offer.OfferID, expectedVersion)
	}
	return nil
}

// Reservation operations

func (s *DatabaseStore) CreateReservation(res *models.Reservation) (*models.Reservation, error) {
	if err := s.db.Create(res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

func (s *DatabaseStore) GetReservation(reservationID string) (*models.Reservation, error) {
	var res models.Reservation
	if err := s.db.Where("reservation_id = ?", reservationID).First(&res).Error; err != nil {
		return nil, notFoundOr(err, apperr.NotFound("reservation %s not found", reservationID))
	}
	return &res, nil
}

func (s *DatabaseStore) GetReservationByPaymentRef(paymentRef string) (*models.Reservation, error) {
	var res models.Reservation
	if err := s.db.Where("payment_ref = ?", paymentRef).First(&res).Error; err != nil {
		return nil, notFoundOr(err, apperr.NotFound("no reservation with payment ref %s", paymentRef))
	}
	return &res, nil
}

func (s *DatabaseStore) GetReservationsByOffer(offerID string) ([]*models.Reservation, error) {
	var out []*models.Reservation
	if err := s.db.Where("offer_id = ?", offerID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DatabaseStore) GetExpiredReservations(asOf time.Time) ([]*models.Reservation, error) {
	var out []*models.Reservation
	err := s.db.Where("status = ? AND valid_until < ?", models.ReservationStatusActive, asOf).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DatabaseStore) UpdateReservation(res *models.Reservation) error {
	return s.db.Save(res).Error
}

// OTP operations

func (s *DatabaseStore) CreateOTP(otp *models.OTP) (*models.OTP, error) {
	if err := s.db.Create(otp).Error; err != nil {
		return nil, err
	}
	return otp, nil
}

func (s *DatabaseStore) GetActiveOTP(phone, purpose string) (*models.OTP, error) {
	var otp models.OTP
	err := s.db.Where("phone = ? AND purpose = ? AND is_used = ?", phone, purpose, false).
		Order("created_at desc").First(&otp).Error
	if err != nil {
		return nil, notFoundOr(err, apperr.NotFound("no active OTP for %s", phone))
	}
	return &otp, nil
}

func (s *DatabaseStore) UpdateOTP(otp *models.OTP) error {
	return s.db.Save(otp).Error
}

func (s *DatabaseStore) DeleteExpiredOTPs() error {
	return s.db.Where("expires_at < ?", time.Now()).Delete(&models.OTP{}).Error
}
