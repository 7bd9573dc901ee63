package handlers

import (
	"studyflow/internal/middleware"
	"studyflow/internal/repository"
	"studyflow/internal/stats"

	"github.com/gofiber/fiber/v2"
)

// WeeklyStats builds the statistics page for the caller from their active
// and archived lists.
func WeeklyStats(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	active, err := ownerTasks(c, userID, false)
	if err != nil {
		return respondError(c, err, "fetching statistics")
	}
	archived, err := ownerTasks(c, userID, true)
	if err != nil {
		return respondError(c, err, "fetching statistics")
	}

	report := stats.BuildReport(active, archived, repository.Now())
	return respond(c, fiber.StatusOK, "Statistics fetched successfully", report)
}
