package jobs

import (
	"log"
	"sync"
	"time"

	"github.com/NivaasHQ/nivaas-backend/internal/models"
	"github.com/NivaasHQ/nivaas-backend/internal/services"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
)

// ReservationJob sweeps lapsed token reservations in the background and
// sends the informational expiry notices. Expiry itself is always also
// checked at read time; the sweep only keeps the table tidy and the
// buyers informed.
type ReservationJob struct {
	store    storage.Store
	notifier *services.Notifier

	mu   sync.Mutex
	stop chan struct{} // non-nil while running
}

// NewReservationJob creates a new reservation sweep job
func NewReservationJob(store storage.Store, notifier *services.Notifier) *ReservationJob {
	return &ReservationJob{store: store, notifier: notifier}
}

// Start begins the background sweeps
func (j *ReservationJob) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.stop != nil {
		log.Println("Reservation sweep already running")
		return
	}
	j.stop = make(chan struct{})
	log.Println("Starting reservation expiry sweep...")

	go j.runLoop(j.stop, 1*time.Hour, j.sweepExpiredReservations)
	go j.runLoop(j.stop, 24*time.Hour, j.cleanupExpiredOTPs)
}

// Stop halts the sweeps. Safe to call more than once.
func (j *ReservationJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.stop == nil {
		return
	}
	close(j.stop)
	j.stop = nil
	log.Println("Stopping reservation expiry sweep...")
}

func (j *ReservationJob) runLoop(stop <-chan struct{}, interval time.Duration, pass func()) {
	for {
		pass()
		select {
		case <-stop:
			return
		case <-time.After(interval):
		}
	}
}

func (j *ReservationJob) sweepExpiredReservations() {
	expired, err := j.store.GetExpiredReservations(time.Now())
	if err != nil {
		log.Printf("Reservation sweep failed: %v", err)
		return
	}
	for _, res := range expired {
		res.Status = models.ReservationStatusExpired
		if err := j.store.UpdateReservation(res); err != nil {
			log.Printf("Failed to expire reservation %s: %v", res.ReservationID, err)
			continue
		}
		log.Printf("Reservation %s expired", res.ReservationID)
		j.notifier.ReservationExpired(res)
	}
}

func (j *ReservationJob) cleanupExpiredOTPs() {
	if err := j.store.DeleteExpiredOTPs(); err != nil {
		log.Printf("OTP cleanup failed: %v", err)
	}
}
