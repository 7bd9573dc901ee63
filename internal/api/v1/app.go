package v1

import (
	"time"

	"studyflow/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// NewApp builds the Fiber app with the middleware stack and every route.
// rateLimit is requests per minute per client; 0 turns the limiter off.
func NewApp(rateLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "StudyFlow API",
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		ExposeHeaders: middleware.HeaderRequestID,
	}))
	if rateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        rateLimit,
			Expiration: 1 * time.Minute,
		}))
	}

	RegisterRoutes(app)
	return app
}
