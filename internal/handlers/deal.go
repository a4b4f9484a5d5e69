package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/auth"
	"github.com/NivaasHQ/nivaas-backend/internal/middleware"
	"github.com/NivaasHQ/nivaas-backend/internal/services"
)

// DealHandler serves the read-only Deal Room view.
type DealHandler struct {
	deals *services.DealService
}

// NewDealHandler creates a new deal handler
func NewDealHandler(deals *services.DealService) *DealHandler {
	return &DealHandler{deals: deals}
}

// GetDealView handles GET /api/deals/:offerID. Only the parties to the
// offer (or an admin) may look inside the deal room.
func (h *DealHandler) GetDealView(c *fiber.Ctx) error {
	view, err := h.deals.BuildDealView(c.Params("offerID"))
	if err != nil {
		return fail(c, err)
	}

	actor := middleware.ActorFromCtx(c)
	if !auth.IsAdmin(actor) && actor.UserID != view.Offer.BuyerID && actor.UserID != view.Offer.AgentID {
		return fail(c, apperr.Authorization("user %s is not a party to this deal", actor.UserID))
	}

	return c.JSON(view)
}
