package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/middleware"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
	"github.com/NivaasHQ/nivaas-backend/internal/services"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
)

// BookingHandler exposes the visit lifecycle over HTTP. All transitions
// go through the booking service; no handler touches status directly.
type BookingHandler struct {
	store    storage.Store
	bookings *services.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(store storage.Store, bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{store: store, bookings: bookings}
}

// RequestVisit handles POST /api/bookings
func (h *BookingHandler) RequestVisit(c *fiber.Ctx) error {
	var req struct {
		PropertyID    string `json:"property_id" validate:"required"`
		PreferredSlot string `json:"preferred_slot" validate:"required"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	booking, err := h.bookings.RequestVisit(middleware.ActorFromCtx(c), req.PropertyID, req.PreferredSlot)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Visit requested",
		"booking": booking,
	})
}

// Approve handles POST /api/bookings/:id/approve
func (h *BookingHandler) Approve(c *fiber.Ctx) error {
	var req struct {
		ConfirmedSlot time.Time `json:"confirmed_slot" validate:"required"`
		Version       int       `json:"version"` // optional optimistic-concurrency check
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	booking, err := h.bookings.Approve(middleware.ActorFromCtx(c), c.Params("id"), req.ConfirmedSlot, req.Version)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Visit approved", "booking": booking})
}

// Counter handles POST /api/bookings/:id/counter
func (h *BookingHandler) Counter(c *fiber.Ctx) error {
	var req struct {
		ProposedSlot time.Time `json:"proposed_slot" validate:"required"`
		Message      string    `json:"message"`
		Version      int       `json:"version"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	booking, err := h.bookings.Counter(middleware.ActorFromCtx(c), c.Params("id"), req.ProposedSlot, req.Message, req.Version)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "New slot proposed", "booking": booking})
}

// AcceptCounter handles POST /api/bookings/:id/accept-counter
func (h *BookingHandler) AcceptCounter(c *fiber.Ctx) error {
	var req struct {
		Version int `json:"version"`
	}
	_ = c.BodyParser(&req) // body optional

	booking, err := h.bookings.AcceptCounter(middleware.ActorFromCtx(c), c.Params("id"), req.Version)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Suggested slot accepted", "booking": booking})
}

// DeclineCounter handles POST /api/bookings/:id/decline-counter
func (h *BookingHandler) DeclineCounter(c *fiber.Ctx) error {
	booking, err := h.bookings.DeclineCounter(middleware.ActorFromCtx(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Counter declined", "booking": booking})
}

// Cancel handles POST /api/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *fiber.Ctx) error {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&req)

	booking, err := h.bookings.Cancel(middleware.ActorFromCtx(c), c.Params("id"), req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Visit cancelled", "booking": booking})
}

// Reject handles POST /api/bookings/:id/reject
func (h *BookingHandler) Reject(c *fiber.Ctx) error {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&req)

	booking, err := h.bookings.Reject(middleware.ActorFromCtx(c), c.Params("id"), req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Visit rejected", "booking": booking})
}

// GenerateOTP handles POST /api/bookings/:id/otp
func (h *BookingHandler) GenerateOTP(c *fiber.Ctx) error {
	booking, err := h.bookings.GenerateOTP(middleware.ActorFromCtx(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	// The code itself only travels out-of-band to the buyer.
	return c.JSON(fiber.Map{
		"message": "Visit code sent to the buyer",
		"booking": booking,
	})
}

// StartVisit handles POST /api/bookings/:id/start
func (h *BookingHandler) StartVisit(c *fiber.Ctx) error {
	var req struct {
		OTP string `json:"otp" validate:"required,len=4,numeric"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	booking, err := h.bookings.StartVisit(middleware.ActorFromCtx(c), c.Params("id"), req.OTP)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Visit started", "booking": booking})
}

// CompleteVisit handles POST /api/bookings/:id/complete
func (h *BookingHandler) CompleteVisit(c *fiber.Ctx) error {
	var report models.VisitReport
	if err := c.BodyParser(&report); err != nil {
		return fail(c, apperr.Validation("invalid request body"))
	}

	booking, err := h.bookings.CompleteVisit(middleware.ActorFromCtx(c), c.Params("id"), &report)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Visit completed", "booking": booking})
}

// RateVisit handles POST /api/bookings/:id/rate
func (h *BookingHandler) RateVisit(c *fiber.Ctx) error {
	var req struct {
		Rating  int    `json:"rating" validate:"required"`
		Comment string `json:"comment"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	booking, err := h.bookings.RateVisit(middleware.ActorFromCtx(c), c.Params("id"), req.Rating, req.Comment)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Thanks for the feedback", "booking": booking})
}

// GetBooking handles GET /api/bookings/:id
func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	booking, err := h.store.GetBooking(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(booking)
}

// GetMyBookings handles GET /api/bookings
func (h *BookingHandler) GetMyBookings(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	bookings, err := h.store.GetBookingsByBuyer(actor.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"bookings": bookings, "count": len(bookings)})
}

// GetPropertyBookings handles GET /api/properties/:id/bookings
func (h *BookingHandler) GetPropertyBookings(c *fiber.Ctx) error {
	bookings, err := h.store.GetBookingsByProperty(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"bookings": bookings, "count": len(bookings)})
}
