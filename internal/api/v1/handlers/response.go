package handlers

import (
	"errors"
	"strconv"

	"studyflow/internal/auth"
	"studyflow/internal/lifecycle"
	"studyflow/internal/repository"
	"studyflow/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	body := fiber.Map{
		"message": message,
		"success": status < 400,
		"status":  status,
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

// respondError maps a domain error to its status code. Unknown errors are
// logged and reported as 500 with a generic message.
func respondError(c *fiber.Ctx, err error, action string) error {
	var verr *lifecycle.ValidationError
	switch {
	case errors.As(err, &verr):
		logger.AuditLogger.Warn("Validation error in "+action, zap.String("field", verr.Field), zap.String("reason", verr.Message))
		body := fiber.Map{
			"message": verr.Message,
			"success": false,
			"status":  fiber.StatusBadRequest,
		}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, repository.ErrNotFound):
		return respond(c, fiber.StatusNotFound, "Task not found", nil)
	case errors.Is(err, repository.ErrForbidden):
		logger.SecurityLogger.Warn("Forbidden access in "+action,
			zap.Any("user_id", c.Locals("userID")), zap.String("url", c.OriginalURL()))
		return respond(c, fiber.StatusForbidden, "Access denied", nil)
	case errors.Is(err, lifecycle.ErrAlreadyArchived):
		return respond(c, fiber.StatusConflict, "Task is already archived", nil)
	case errors.Is(err, auth.ErrDuplicateUsername):
		return respond(c, fiber.StatusConflict, err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		logger.SecurityLogger.Warn("Failed login", zap.String("ip", c.IP()))
		return respond(c, fiber.StatusUnauthorized, err.Error(), nil)
	default:
		logger.ErrorLogger.Error("Error in "+action, zap.Any("request_id", c.Locals("requestID")), zap.Error(err))
		return respond(c, fiber.StatusInternalServerError, "Error "+action, nil)
	}
}

func badRequest(c *fiber.Ctx, err error, action string) error {
	logger.ErrorLogger.Error("Bad request in "+action, zap.Error(err))
	return respond(c, fiber.StatusBadRequest, "Bad request", nil)
}

// validate runs the struct tags and reports the first failure as a
// ValidationError.
func validate(v *validator.Validate, req interface{}) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return lifecycle.NewValidationError(verrs[0].Field(), verrs[0].Error())
	}
	return lifecycle.NewValidationError("", err.Error())
}

func taskID(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return 0, lifecycle.NewValidationError("id", "Invalid task ID")
	}
	return id, nil
}
