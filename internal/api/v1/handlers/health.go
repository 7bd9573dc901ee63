package handlers

import (
	"context"
	"time"

	"studyflow/internal/config"

	"github.com/gofiber/fiber/v2"
)

func Health(c *fiber.Ctx) error {
	database := "down"
	if config.DB != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if config.DB.PingContext(ctx) == nil {
			database = "up"
		}
	}

	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"database":  database,
		"cache":     config.Cache.GetStats(),
	})
}
