package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
)

// MemoryStore holds all data in memory for tests and local runs.
// Reads hand out copies so an abandoned transition never leaks partial
// writes back into the store; only Update lands changes, and Booking/Offer
// updates are version-checked.
type MemoryStore struct {
	users        map[string]*models.User
	properties   map[string]*models.Property
	bookings     map[string]*models.Booking
	offers       map[string]*models.Offer
	reservations map[string]*models.Reservation
	otps         []*models.OTP

	// Mutexes for thread safety
	userMu     sync.RWMutex
	propertyMu sync.RWMutex
	bookingMu  sync.RWMutex
	offerMu    sync.RWMutex
	resMu      sync.RWMutex
	otpMu      sync.Mutex

	// Counters for ID generation
	userCounter     int
	propertyCounter int
	bookingCounter  int
	offerCounter    int
	resCounter      int
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]*models.User),
		properties:   make(map[string]*models.Property),
		bookings:     make(map[string]*models.Booking),
		offers:       make(map[string]*models.Offer),
		reservations: make(map[string]*models.Reservation),
	}
}

// User operations

func (m *MemoryStore) CreateUser(user *models.User) (*models.User, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	for _, u := range m.users {
		if u.Phone == user.Phone {
			return nil, apperr.Validation("phone %s is already registered", user.Phone)
		}
	}

	m.userCounter++
	user.UserID = fmt.Sprintf("USR%05d", m.userCounter)
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	m.users[user.UserID] = user
	cp := *user
	return &cp, nil
}

func (m *MemoryStore) GetUser(userID string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, exists := m.users[userID]
	if !exists {
		return nil, apperr.NotFound("user %s not found", userID)
	}
	cp := *user
	return &cp, nil
}

func (m *MemoryStore) GetUserByPhone(phone string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	for _, user := range m.users {
		if user.Phone == phone {
			cp := *user
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("no user with phone %s", phone)
}

func (m *MemoryStore) GetAllUsers() ([]*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	var users []*models.User
	for _, user := range m.users {
		cp := *user
		users = append(users, &cp)
	}
	return users, nil
}

func (m *MemoryStore) UpdateUser(user *models.User) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if _, exists := m.users[user.UserID]; !exists {
		return apperr.NotFound("user %s not found", user.UserID)
	}
	user.UpdatedAt = time.Now()
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

// Property operations

func (m *MemoryStore) CreateProperty(property *models.Property) (*models.Property, error) {
	m.propertyMu.Lock()
	defer m.propertyMu.Unlock()

	m.propertyCounter++
	property.PropertyID = fmt.Sprintf("PROP%05d", m.propertyCounter)
	if property.Status == "" {
		property.Status = models.PropertyStatusListed
	}
	property.CreatedAt = time.Now()
	property.UpdatedAt = time.Now()

	m.properties[property.PropertyID] = property
	cp := *property
	return &cp, nil
}

func (m *MemoryStore) GetProperty(propertyID string) (*models.Property, error) {
	m.propertyMu.RLock()
	defer m.propertyMu.RUnlock()

	property, exists := m.properties[propertyID]
	if !exists {
		return nil, apperr.NotFound("property %s not found", propertyID)
	}
	cp := *property
	return &cp, nil
}

func (m *MemoryStore) GetPropertiesByOwner(ownerID string) ([]*models.Property, error) {
	m.propertyMu.RLock()
	defer m.propertyMu.RUnlock()

	var properties []*models.Property
	for _, p := range m.properties {
		if p.OwnerID == ownerID {
			cp := *p
			properties = append(properties, &cp)
		}
	}
	return properties, nil
}

func (m *MemoryStore) GetAllProperties() ([]*models.Property, error) {
	m.propertyMu.RLock()
	defer m.propertyMu.RUnlock()

	var properties []*models.Property
	for _, p := range m.properties {
		cp := *p
		properties = append(properties, &cp)
	}
	return properties, nil
}

func (m *MemoryStore) UpdateProperty(property *models.Property) error {
	m.propertyMu.Lock()
	defer m.propertyMu.Unlock()

	if _, exists := m.properties[property.PropertyID]; !exists {
		return apperr.NotFound("property %s not found", property.PropertyID)
	}
	property.UpdatedAt = time.Now()
	cp := *property
	m.properties[property.PropertyID] = &cp
	return nil
}

// Booking operations

func (m *MemoryStore) CreateBooking(booking *models.Booking) (*models.Booking, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	m.bookingCounter++
	booking.BookingID = fmt.Sprintf("BKG%05d", m.bookingCounter)
	booking.Version = 1
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	cp := *booking
	m.bookings[booking.BookingID] = &cp
	return booking, nil
}

func (m *MemoryStore) GetBooking(bookingID string) (*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	booking, exists := m.bookings[bookingID]
	if !exists {
		return nil, apperr.NotFound("booking %s not found", bookingID)
	}
	cp := *booking
	return &cp, nil
}

func (m *MemoryStore) GetBookingsByBuyer(buyerID string) ([]*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	var bookings []*models.Booking
	for _, b := range m.bookings {
		if b.BuyerID == buyerID {
			cp := *b
			bookings = append(bookings, &cp)
		}
	}
	return bookings, nil
}

func (m *MemoryStore) GetBookingsByProperty(propertyID string) ([]*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	var bookings []*models.Booking
	for _, b := range m.bookings {
		if b.PropertyID == propertyID {
			cp := *b
			bookings = append(bookings, &cp)
		}
	}
	return bookings, nil
}

func (m *MemoryStore) GetBookingsForPair(propertyID, buyerID string) ([]*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	var bookings []*models.Booking
	for _, b := range m.bookings {
		if b.PropertyID == propertyID && b.BuyerID == buyerID {
			cp := *b
			bookings = append(bookings, &cp)
		}
	}
	return bookings, nil
}

func (m *MemoryStore) UpdateBooking(booking *models.Booking, expectedVersion int) error {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	stored, exists := m.bookings[booking.BookingID]
	if !exists {
		return apperr.NotFound("booking %s not found", booking.BookingID)
	}
	if stored.Version != expectedVersion {
		return apperr.Conflict("booking %s was modified concurrently (version %d, expected %d)",
			booking.BookingID, stored.Version, expectedVersion)
	}

	booking.Version = expectedVersion + 1
	booking.UpdatedAt = time.Now()
	cp := *booking
	m.bookings[booking.BookingID] = &cp
	return nil
}

// Offer operations

func (m *MemoryStore) CreateOffer(offer *models.Offer) (*models.Offer, error) {
	m.offerMu.Lock()
	defer m.offerMu.Unlock()

	m.offerCounter++
	offer.OfferID = fmt.Sprintf("OFR%05d", m.offerCounter)
	offer.Version = 1
	offer.CreatedAt = time.Now()
	offer.UpdatedAt = time.Now()

	cp := *offer
	m.offers[offer.OfferID] = &cp
	return offer, nil
}

func (m *MemoryStore) GetOffer(offerID string) (*models.Offer, error) {
	m.offerMu.RLock()
	defer m.offerMu.RUnlock()

	offer, exists := m.offers[offerID]
	if !exists {
		return nil, apperr.NotFound("offer %s not found", offerID)
	}
	cp := *offer
	return &cp, nil
}

func (m *MemoryStore) GetOffersByBuyer(buyerID string) ([]*models.Offer, error) {
	m.offerMu.RLock()
	defer m.offerMu.RUnlock()

	var offers []*models.Offer
	for _, o := range m.offers {
		if o.BuyerID == buyerID {
			cp := *o
			offers = append(offers, &cp)
		}
	}
	return offers, nil
}

func (m *MemoryStore) GetOffersByProperty(propertyID string) ([]*models.Offer, error) {
	m.offerMu.RLock()
	defer m.offerMu.RUnlock()

	var offers []*models.Offer
	for _, o := range m.offers {
		if o.PropertyID == propertyID {
			cp := *o
			offers = append(offers, &cp)
		}
	}
	return offers, nil
}

func (m *MemoryStore) GetActiveOfferForPair(propertyID, buyerID string) (*models.Offer, error) {
	m.offerMu.RLock()
	defer m.offerMu.RUnlock()

	for _, o := range m.offers {
		if o.PropertyID == propertyID && o.BuyerID == buyerID && !o.IsTerminal() {
			cp := *o
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("no active offer for property %s by buyer %s", propertyID, buyerID)
}

func (m *MemoryStore) UpdateOffer(offer *models.Offer, expectedVersion int) error {
	m.offerMu.Lock()
	defer m.offerMu.Unlock()

	stored, exists := m.offers[offer.OfferID]
	if !exists {
		return apperr.NotFound("offer %s not found", offer.OfferID)
	}
	if stored.Version != expectedVersion {
		return apperr.Conflict("offer %s was modified concurrently (version %d, expected %d)",
			offer.OfferID, stored.Version, expectedVersion)
	}

	offer.Version = expectedVersion + 1
	offer.UpdatedAt = time.Now()
	cp := *offer
	m.offers[offer.OfferID] = &cp
	return nil
}

// Reservation operations

func (m *MemoryStore) CreateReservation(res *models.Reservation) (*models.Reservation, error) {
	m.resMu.Lock()
	defer m.resMu.Unlock()

	m.resCounter++
	res.ReservationID = fmt.Sprintf("RSV%05d", m.resCounter)
	res.CreatedAt = time.Now()
	res.UpdatedAt = time.Now()

	cp := *res
	m.reservations[res.ReservationID] = &cp
	return res, nil
}

func (m *MemoryStore) GetReservation(reservationID string) (*models.Reservation, error) {
	m.resMu.RLock()
	defer m.resMu.RUnlock()

	res, exists := m.reservations[reservationID]
	if !exists {
		return nil, apperr.NotFound("reservation %s not found", reservationID)
	}
	cp := *res
	return &cp, nil
}

func (m *MemoryStore) GetReservationByPaymentRef(paymentRef string) (*models.Reservation, error) {
	m.resMu.RLock()
	defer m.resMu.RUnlock()

	for _, r := range m.reservations {
		if r.PaymentRef == paymentRef {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("no reservation with payment ref %s", paymentRef)
}

func (m *MemoryStore) GetReservationsByOffer(offerID string) ([]*models.Reservation, error) {
	m.resMu.RLock()
	defer m.resMu.RUnlock()

	var out []*models.Reservation
	for _, r := range m.reservations {
		if r.OfferID == offerID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetExpiredReservations(asOf time.Time) ([]*models.Reservation, error) {
	m.resMu.RLock()
	defer m.resMu.RUnlock()

	var out []*models.Reservation
	for _, r := range m.reservations {
		if r.Status == models.ReservationStatusActive && asOf.After(r.ValidUntil) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateReservation(res *models.Reservation) error {
	m.resMu.Lock()
	defer m.resMu.Unlock()

	if _, exists := m.reservations[res.ReservationID]; !exists {
		return apperr.NotFound("reservation %s not found", res.ReservationID)
	}
	res.UpdatedAt = time.Now()
	cp := *res
	m.reservations[res.ReservationID] = &cp
	return nil
}

// OTP operations

func (m *MemoryStore) CreateOTP(otp *models.OTP) (*models.OTP, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp.CreatedAt = time.Now()
	otp.UpdatedAt = time.Now()
	m.otps = append(m.otps, otp)
	return otp, nil
}

func (m *MemoryStore) GetActiveOTP(phone, purpose string) (*models.OTP, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	// Newest first; the latest code for a purpose supersedes older ones.
	for i := len(m.otps) - 1; i >= 0; i-- {
		otp := m.otps[i]
		if otp.Phone == phone && otp.Purpose == purpose && !otp.IsUsed {
			return otp, nil
		}
	}
	return nil, apperr.NotFound("no active OTP for %s", phone)
}

func (m *MemoryStore) UpdateOTP(otp *models.OTP) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) DeleteExpiredOTPs() error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	now := time.Now()
	kept := m.otps[:0]
	for _, otp := range m.otps {
		if now.Before(otp.ExpiresAt) {
			kept = append(kept, otp)
		}
	}
	m.otps = kept
	return nil
}
