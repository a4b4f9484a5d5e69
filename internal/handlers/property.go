package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/middleware"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
)

// PropertyHandler is the property directory surface: agents list,
// everyone browses, the guard and deal view resolve owners through it.
type PropertyHandler struct {
	store storage.Store
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(store storage.Store) *PropertyHandler {
	return &PropertyHandler{store: store}
}

// CreateProperty handles POST /api/properties
func (h *PropertyHandler) CreateProperty(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	if actor.Role != models.RoleAgent && actor.Role != models.RoleAdmin {
		return fail(c, apperr.Authorization("only agents can list properties"))
	}

	var req struct {
		Title    string  `json:"title" validate:"required"`
		Address  string  `json:"address" validate:"required"`
		City     string  `json:"city" validate:"required"`
		State    string  `json:"state"`
		Price    float64 `json:"price" validate:"required,gt=0"`
		Bedrooms int     `json:"bedrooms"`
		AreaSqft float64 `json:"area_sqft"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	property, err := h.store.CreateProperty(&models.Property{
		OwnerID:  actor.UserID,
		Title:    req.Title,
		Address:  req.Address,
		City:     req.City,
		State:    req.State,
		Price:    req.Price,
		Bedrooms: req.Bedrooms,
		AreaSqft: req.AreaSqft,
		Status:   models.PropertyStatusListed,
	})
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Property listed",
		"property": property,
	})
}

// GetProperty handles GET /api/properties/:id
func (h *PropertyHandler) GetProperty(c *fiber.Ctx) error {
	property, err := h.store.GetProperty(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(property)
}

// GetAllProperties handles GET /api/properties
func (h *PropertyHandler) GetAllProperties(c *fiber.Ctx) error {
	properties, err := h.store.GetAllProperties()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"properties": properties, "count": len(properties)})
}

// GetMyProperties handles GET /api/properties/mine
func (h *PropertyHandler) GetMyProperties(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)
	properties, err := h.store.GetPropertiesByOwner(actor.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"properties": properties, "count": len(properties)})
}
