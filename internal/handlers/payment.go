package handlers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/middleware"
	"github.com/NivaasHQ/nivaas-backend/internal/services"
)

// PaymentHandler covers token reservations and the mocked gateway
// webhook. The gateway never talks back into the state machines except
// through AdvanceStage.
type PaymentHandler struct {
	reservations *services.ReservationService
	offers       *services.OfferService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(reservations *services.ReservationService, offers *services.OfferService) *PaymentHandler {
	return &PaymentHandler{reservations: reservations, offers: offers}
}

// CreateReservation handles POST /api/reservations
func (h *PaymentHandler) CreateReservation(c *fiber.Ctx) error {
	var req struct {
		OfferID string `json:"offer_id" validate:"required"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	res, err := h.reservations.CreateReservation(middleware.ActorFromCtx(c), req.OfferID)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Reservation created, pay the token fee to confirm",
		"reservation": res,
	})
}

// GetReservation handles GET /api/reservations/:id
func (h *PaymentHandler) GetReservation(c *fiber.Ctx) error {
	res, err := h.reservations.GetReservation(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(res)
}

// gatewayWebhookPayload mirrors the Razorpay webhook shape the mock
// gateway posts.
type gatewayWebhookPayload struct {
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
}

// HandleWebhook handles POST /webhook/payment
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	var webhook gatewayWebhookPayload
	if err := json.Unmarshal(c.Body(), &webhook); err != nil {
		return fail(c, apperr.Validation("failed to parse webhook payload"))
	}

	log.Printf("Processing payment webhook: %s", webhook.Event)

	switch webhook.Event {
	case "payment.captured":
		payment, _ := webhook.Payload["payment"].(map[string]interface{})
		ref, _ := payment["reference"].(string)
		if ref == "" {
			return fail(c, apperr.Validation("payment reference missing from webhook"))
		}

		res, err := h.reservations.MarkPaid(ref, h.offers)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "Token payment recorded", "reservation": res})

	case "payment.failed":
		// Informational only; the reservation stays open until it expires.
		log.Printf("Payment failed event received")
		return c.JSON(fiber.Map{"message": "Acknowledged"})

	default:
		log.Printf("Unhandled webhook event: %s", webhook.Event)
		return c.JSON(fiber.Map{"message": "Ignored"})
	}
}
