package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NivaasHQ/nivaas-backend/internal/models"
	"github.com/NivaasHQ/nivaas-backend/internal/services"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
)

func newJob(t *testing.T) (*ReservationJob, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return NewReservationJob(store, services.NewNotifier(store, nil)), store
}

func TestSweepMarksLapsedReservations(t *testing.T) {
	job, store := newJob(t)
	now := time.Now()

	lapsed, err := store.CreateReservation(&models.Reservation{
		OfferID:    "OFR00001",
		BuyerID:    "USR00002",
		Status:     models.ReservationStatusActive,
		ValidUntil: now.Add(-time.Hour),
	})
	require.NoError(t, err)
	open, err := store.CreateReservation(&models.Reservation{
		OfferID:    "OFR00002",
		BuyerID:    "USR00002",
		Status:     models.ReservationStatusActive,
		ValidUntil: now.Add(time.Hour),
	})
	require.NoError(t, err)

	job.sweepExpiredReservations()

	swept, err := store.GetReservation(lapsed.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusExpired, swept.Status)

	untouched, err := store.GetReservation(open.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusActive, untouched.Status)
}

func TestStartStopIsIdempotent(t *testing.T) {
	job, _ := newJob(t)

	// Stop before start is a no-op; double start keeps one set of loops;
	// double stop does not panic on a closed channel.
	job.Stop()
	job.Start()
	job.Start()
	job.Stop()
	job.Stop()

	// The job can be restarted after a stop.
	job.Start()
	job.Stop()
}
