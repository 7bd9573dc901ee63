package middleware

import (
	"strings"

	"studyflow/internal/auth"
	"studyflow/internal/config"
	"studyflow/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UseToken authenticates the request from an "Authorization: Bearer" header,
// or a token query parameter for websocket upgrades, and stores the caller
// in c.Locals("userID").
func UseToken(c *fiber.Ctx) error {
	raw, ok := bearerToken(c)
	if !ok {
		return unauthorized(c, "No token provided")
	}

	claims, err := auth.ParseToken(raw, config.JWTSecret)
	if err != nil {
		logger.SecurityLogger.Warn("Rejected token",
			zap.String("ip", c.IP()),
			zap.String("url", c.OriginalURL()),
			zap.Error(err),
		)
		return unauthorized(c, "Invalid token")
	}

	c.Locals("userID", claims.UserID)
	c.Locals("username", claims.Username)
	return c.Next()
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": message,
		"success": false,
		"status":  fiber.StatusUnauthorized,
	})
}

// UserID returns the authenticated caller set by UseToken.
func UserID(c *fiber.Ctx) int {
	id, _ := c.Locals("userID").(int)
	return id
}
