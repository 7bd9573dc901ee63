package v1

import (
	"studyflow/internal/api/v1/handlers"
	"studyflow/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App) {
	app.Get("/health", handlers.Health)

	api := app.Group("/api/v1")

	// Auth
	api.Post("/auth/register", handlers.Register)
	api.Post("/auth/login", handlers.Login)

	// User
	userRoutes := api.Group("/users", middleware.UseToken)
	userRoutes.Get("/me", handlers.Me)

	// Task
	taskRoutes := api.Group("/tasks", middleware.UseToken)
	taskRoutes.Get("/", handlers.ListTasks)
	taskRoutes.Get("/archived", handlers.ListArchivedTasks)
	taskRoutes.Post("/", handlers.CreateTask)
	taskRoutes.Get("/:id", handlers.GetTask)
	taskRoutes.Put("/:id", handlers.UpdateTask)
	taskRoutes.Patch("/:id", handlers.UpdateTask)
	taskRoutes.Delete("/:id", handlers.DeleteTask)
	taskRoutes.Post("/:id/archive", handlers.ArchiveTask)
	taskRoutes.Post("/:id/ai-solution", handlers.SuggestSolution)

	// Statistics
	api.Get("/stats/weekly", middleware.UseToken, handlers.WeeklyStats)

	// Live task events
	api.Get("/ws", handlers.RequireUpgrade, middleware.UseToken, handlers.TaskEvents)
}
