package middleware

import (
	"fmt"
	"runtime/debug"
	"time"

	"studyflow/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const HeaderRequestID = "X-Request-ID"

// ErrorHandler recovers from panics, tags every request with an id and logs it.
func ErrorHandler() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		start := time.Now()
		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(HeaderRequestID, requestID)
		c.Locals("requestID", requestID)

		defer func() {
			if r := recover(); r != nil {
				errMsg := fmt.Sprintf("Recovered from panic: %v", r)
				logger.ErrorLogger.Error(errMsg,
					zap.String("request_id", requestID),
					zap.String("stack", string(debug.Stack())),
				)
				err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"message": "Internal server error",
					"success": false,
					"status":  fiber.StatusInternalServerError,
				})
			}
		}()

		logger.RequestLogger.Info("Incoming request",
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("url", c.OriginalURL()),
		)
		err = c.Next()
		logger.RequestLogger.Info("Request completed",
			zap.String("request_id", requestID),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		)
		return err
	}
}
