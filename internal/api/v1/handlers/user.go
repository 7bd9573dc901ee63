package handlers

import (
	"errors"

	"studyflow/internal/config"
	"studyflow/internal/middleware"
	"studyflow/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// Me returns the authenticated user.
func Me(c *fiber.Ctx) error {
	user, err := config.Auth.Me(c.UserContext(), middleware.UserID(c))
	if errors.Is(err, repository.ErrNotFound) {
		return respond(c, fiber.StatusNotFound, "User not found", nil)
	}
	if err != nil {
		return respondError(c, err, "fetching user")
	}
	return respond(c, fiber.StatusOK, "User fetched successfully", user)
}
