package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/NivaasHQ/nivaas-backend/internal/middleware"
	"github.com/NivaasHQ/nivaas-backend/internal/services"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
)

// OfferHandler exposes offer negotiation and deal stages over HTTP.
type OfferHandler struct {
	store  storage.Store
	offers *services.OfferService
}

// NewOfferHandler creates a new offer handler
func NewOfferHandler(store storage.Store, offers *services.OfferService) *OfferHandler {
	return &OfferHandler{store: store, offers: offers}
}

// SubmitOffer handles POST /api/offers
func (h *OfferHandler) SubmitOffer(c *fiber.Ctx) error {
	var req struct {
		PropertyID string  `json:"property_id" validate:"required"`
		Amount     float64 `json:"amount" validate:"required,gt=0"`
		Message    string  `json:"message"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	offer, err := h.offers.SubmitOffer(middleware.ActorFromCtx(c), req.PropertyID, req.Amount, req.Message)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Offer submitted",
		"offer":   offer,
	})
}

// CounterOffer handles POST /api/offers/:id/counter
func (h *OfferHandler) CounterOffer(c *fiber.Ctx) error {
	var req struct {
		Amount  float64 `json:"amount" validate:"required,gt=0"`
		Message string  `json:"message"`
		Version int     `json:"version"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	offer, err := h.offers.CounterOffer(middleware.ActorFromCtx(c), c.Params("id"), req.Amount, req.Message, req.Version)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Counter offer sent", "offer": offer})
}

// AcceptCounter handles POST /api/offers/:id/accept-counter
func (h *OfferHandler) AcceptCounter(c *fiber.Ctx) error {
	offer, err := h.offers.AcceptCounter(middleware.ActorFromCtx(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Agreement recorded, waiting on the agent", "offer": offer})
}

// AcceptOffer handles POST /api/offers/:id/accept
func (h *OfferHandler) AcceptOffer(c *fiber.Ctx) error {
	var req struct {
		Version int `json:"version"`
	}
	_ = c.BodyParser(&req)

	offer, err := h.offers.AcceptOffer(middleware.ActorFromCtx(c), c.Params("id"), req.Version)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Offer accepted", "offer": offer})
}

// RejectOffer handles POST /api/offers/:id/reject
func (h *OfferHandler) RejectOffer(c *fiber.Ctx) error {
	offer, err := h.offers.RejectOffer(middleware.ActorFromCtx(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Offer rejected", "offer": offer})
}

// CancelOffer handles POST /api/offers/:id/cancel
func (h *OfferHandler) CancelOffer(c *fiber.Ctx) error {
	offer, err := h.offers.CancelOffer(middleware.ActorFromCtx(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Offer withdrawn", "offer": offer})
}

// AdvanceStage handles POST /api/offers/:id/advance
func (h *OfferHandler) AdvanceStage(c *fiber.Ctx) error {
	var req struct {
		TargetStage string `json:"target_stage" validate:"required"`
		SaleDeedURL string `json:"sale_deed_url"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	offer, err := h.offers.AdvanceStage(middleware.ActorFromCtx(c), c.Params("id"), req.TargetStage, req.SaleDeedURL)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Deal advanced", "offer": offer})
}

// GetOffer handles GET /api/offers/:id
func (h *OfferHandler) GetOffer(c *fiber.Ctx) error {
	offer, err := h.store.GetOffer(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(offer)
}

// GetMyOffers handles GET /api/offers
func (h *OfferHandler) GetMyOffers(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	offers, err := h.store.GetOffersByBuyer(actor.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"offers": offers, "count": len(offers)})
}

// GetPropertyOffers handles GET /api/properties/:id/offers
func (h *OfferHandler) GetPropertyOffers(c *fiber.Ctx) error {
	offers, err := h.store.GetOffersByProperty(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"offers": offers, "count": len(offers)})
}
