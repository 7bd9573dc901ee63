package handlers

import (
	"studyflow/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RequireUpgrade rejects plain HTTP requests to the websocket endpoint.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// TaskEvents streams the caller's task change events.
var TaskEvents = websocket.New(func(conn *websocket.Conn) {
	ownerID, _ := conn.Locals("userID").(int)
	config.Hub.Serve(ownerID, conn)
})
