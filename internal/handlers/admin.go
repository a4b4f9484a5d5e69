package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/NivaasHQ/nivaas-backend/internal/middleware"
	"github.com/NivaasHQ/nivaas-backend/internal/services"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
)

// AdminHandler is the support/override surface. Admin actors pass the
// ownership guards, so overrides still flow through the state machines.
type AdminHandler struct {
	store    storage.Store
	bookings *services.BookingService
	offers   *services.OfferService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store storage.Store, bookings *services.BookingService, offers *services.OfferService) *AdminHandler {
	return &AdminHandler{store: store, bookings: bookings, offers: offers}
}

// ListUsers handles GET /admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.store.GetAllUsers()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"users": users, "count": len(users)})
}

// SuspendUser handles POST /admin/users/:id/suspend
func (h *AdminHandler) SuspendUser(c *fiber.Ctx) error {
	user, err := h.store.GetUser(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}

	user.Active = false
	if err := h.store.UpdateUser(user); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Account suspended", "user": user})
}

// ReactivateUser handles POST /admin/users/:id/reactivate
func (h *AdminHandler) ReactivateUser(c *fiber.Ctx) error {
	user, err := h.store.GetUser(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}

	user.Active = true
	if err := h.store.UpdateUser(user); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Account reactivated", "user": user})
}

// CancelBooking handles POST /admin/bookings/:id/cancel — support
// override, rides the normal cancel transition with admin rights.
func (h *AdminHandler) CancelBooking(c *fiber.Ctx) error {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&req)

	booking, err := h.bookings.Cancel(middleware.ActorFromCtx(c), c.Params("id"), req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Booking cancelled by support", "booking": booking})
}

// RejectOffer handles POST /admin/offers/:id/reject — support override.
func (h *AdminHandler) RejectOffer(c *fiber.Ctx) error {
	offer, err := h.offers.RejectOffer(middleware.ActorFromCtx(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Offer rejected by support", "offer": offer})
}
