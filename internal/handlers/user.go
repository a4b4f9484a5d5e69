package handlers

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/gofiber/fiber/v2"

	"github.com/NivaasHQ/nivaas-backend/internal/apperr"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
	"github.com/NivaasHQ/nivaas-backend/internal/services"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
	"github.com/NivaasHQ/nivaas-backend/internal/utils"
)

// UserHandler handles registration, login, and phone verification.
type UserHandler struct {
	store storage.Store
	otps  *services.OTPService
}

// NewUserHandler creates a new user handler
func NewUserHandler(store storage.Store, otps *services.OTPService) *UserHandler {
	return &UserHandler{store: store, otps: otps}
}

// Register handles POST /api/users/register
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req models.UserRegistration
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, err)
	}

	user, err := h.store.CreateUser(&models.User{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	})
	if err != nil {
		return fail(c, err)
	}

	// Verification code goes out-of-band; account works unverified but
	// flagged until the code comes back.
	if _, err := h.otps.CreateOTP(user.Phone, models.OTPPurposeRegistration, user.UserID); err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registered, verification code sent",
		"user":    user,
	})
}

// Login handles POST /api/users/login
func (h *UserHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Phone    string `json:"phone" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	user, err := h.store.GetUserByPhone(req.Phone)
	if err != nil {
		// Same response as a bad password, to avoid user enumeration.
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	}
	if !user.Active {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account is suspended"})
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Verify handles POST /api/users/verify
func (h *UserHandler) Verify(c *fiber.Ctx) error {
	var req struct {
		Phone string `json:"phone" validate:"required"`
		Code  string `json:"code" validate:"required,len=6,numeric"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	userID, err := h.otps.VerifyOTP(req.Phone, req.Code, models.OTPPurposeRegistration)
	if err != nil {
		return fail(c, err)
	}

	user, err := h.store.GetUser(userID)
	if err != nil {
		return fail(c, err)
	}
	user.Verified = true
	if err := h.store.UpdateUser(user); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "Phone verified", "user": user})
}

// ResendCode handles POST /api/users/resend-code
func (h *UserHandler) ResendCode(c *fiber.Ctx) error {
	var req struct {
		Phone string `json:"phone" validate:"required"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	user, err := h.store.GetUserByPhone(req.Phone)
	if err != nil {
		return fail(c, err)
	}
	if user.Verified {
		return fail(c, apperr.Validation("phone %s is already verified", req.Phone))
	}

	if _, err := h.otps.CreateOTP(user.Phone, models.OTPPurposeRegistration, user.UserID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Verification code sent"})
}
