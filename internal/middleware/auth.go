package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/NivaasHQ/nivaas-backend/internal/auth"
	"github.com/NivaasHQ/nivaas-backend/internal/models"
	"github.com/NivaasHQ/nivaas-backend/internal/storage"
	"github.com/NivaasHQ/nivaas-backend/internal/utils"
)

const actorKey = "actor"

// Protected validates the bearer token and stashes the caller's Actor in
// the request context. Suspended accounts are turned away here.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or malformed token",
			})
		}

		userID, role, err := utils.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		// The role claim is advisory; the store is authoritative.
		if user, err := storage.GetStore().GetUser(userID); err == nil {
			if !user.Active {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "Account is suspended",
				})
			}
			role = user.Role
		}

		c.Locals(actorKey, auth.Actor{UserID: userID, Role: role})
		return c.Next()
	}
}

// AdminOnly gates a route to admin accounts. Must run after Protected.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFromCtx(c)
		if actor.Role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		return c.Next()
	}
}

// ActorFromCtx returns the authenticated actor set by Protected.
func ActorFromCtx(c *fiber.Ctx) auth.Actor {
	if a, ok := c.Locals(actorKey).(auth.Actor); ok {
		return a
	}
	return auth.Actor{}
}
