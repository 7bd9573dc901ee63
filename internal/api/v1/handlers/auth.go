package handlers

import (
	"time"

	"studyflow/internal/auth"
	"studyflow/internal/config"
	"studyflow/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func Register(c *fiber.Ctx) error {
	var req auth.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err, "register")
	}

	user, err := config.Auth.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err, "registering user")
	}

	logger.AuditLogger.Info("User registered successfully", zap.Int("user_id", user.ID), zap.String("username", user.Username))
	return respond(c, fiber.StatusCreated, "User registered successfully", fiber.Map{"user": user})
}

func Login(c *fiber.Ctx) error {
	type LoginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err, "login")
	}

	user, err := config.Auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err, "logging in")
	}

	token, err := auth.IssueToken(user, config.JWTSecret, config.JWTTTL, time.Now())
	if err != nil {
		return respondError(c, err, "generating token")
	}

	logger.AuditLogger.Info("User logged in successfully", zap.Int("user_id", user.ID))
	return respond(c, fiber.StatusOK, "Login successful", fiber.Map{"user": user, "token": token})
}
