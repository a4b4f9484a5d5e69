package handlers

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/NivaasHQ/nivaas-backend/database"
)

// HealthCheck handles GET /health for monitoring probes.
func HealthCheck(c *fiber.Ctx) error {
	status := "healthy"
	statusCode := 200

	if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
		sqlDB, err := database.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			status = "unhealthy"
			statusCode = 503
		}
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status": status,
		"services": fiber.Map{
			"database": status == "healthy",
		},
	})
}
