package handlers

import (
	"time"

	"studyflow/internal/config"
	"studyflow/internal/lifecycle"
	"studyflow/internal/middleware"
	"studyflow/internal/models"
	"studyflow/internal/repository"
	"studyflow/internal/websocket"
	"studyflow/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TaskView is a task as the dashboard shows it.
type TaskView struct {
	models.Task
	Deadline *lifecycle.DeadlineLabel `json:"deadline"`
}

func views(tasks []models.Task, now time.Time) []TaskView {
	out := make([]TaskView, len(tasks))
	for i, t := range tasks {
		out[i] = TaskView{Task: t, Deadline: lifecycle.Deadline(t.DueDate, now)}
	}
	return out
}

// ownerTasks serves an owner's list from the cache, filling it on a miss.
// The generation is read before the database so a fill racing a mutation
// lands under a superseded key.
func ownerTasks(c *fiber.Ctx, ownerID int, archived bool) ([]models.Task, error) {
	ctx := c.UserContext()
	gen, err := config.Cache.Generation(ctx, ownerID)
	if err != nil {
		logger.ErrorLogger.Warn("Error reading task cache generation", zap.Int("user_id", ownerID), zap.Error(err))
		return config.Tasks.FetchByOwner(ctx, ownerID, archived)
	}

	if tasks, found, err := config.Cache.GetTasks(ctx, ownerID, gen, archived); err != nil {
		logger.ErrorLogger.Warn("Error reading task cache", zap.Int("user_id", ownerID), zap.Error(err))
	} else if found {
		return tasks, nil
	}

	tasks, err := config.Tasks.FetchByOwner(ctx, ownerID, archived)
	if err != nil {
		return nil, err
	}
	if err := config.Cache.SetTasks(ctx, ownerID, gen, archived, tasks); err != nil {
		logger.ErrorLogger.Warn("Error writing task cache", zap.Int("user_id", ownerID), zap.Error(err))
	}
	return tasks, nil
}

// changed invalidates the owner's cached lists and notifies their open sockets.
func changed(c *fiber.Ctx, ownerID int, event string, taskID int) {
	if err := config.Cache.InvalidateOwner(c.UserContext(), ownerID); err != nil {
		logger.ErrorLogger.Warn("Error invalidating task cache", zap.Int("user_id", ownerID), zap.Error(err))
	}
	config.Hub.Publish(ownerID, event, taskID)
}

// ListTasks returns the caller's non-archived tasks, newest first.
// ?state=active or ?state=done narrows the list.
func ListTasks(c *fiber.Ctx) error {
	now, err := clientNow(c)
	if err != nil {
		return respondError(c, err, "fetching tasks")
	}

	var state lifecycle.State
	if raw := c.Query("state"); raw != "" {
		if state, err = lifecycle.ParseState(raw); err != nil {
			return respondError(c, err, "fetching tasks")
		}
	}

	tasks, err := ownerTasks(c, middleware.UserID(c), state == lifecycle.Archived)
	if err != nil {
		return respondError(c, err, "fetching tasks")
	}
	if state != "" {
		tasks = lifecycle.Filter(tasks, state)
	}
	return respond(c, fiber.StatusOK, "Tasks fetched successfully", views(tasks, now))
}

func ListArchivedTasks(c *fiber.Ctx) error {
	tasks, err := ownerTasks(c, middleware.UserID(c), true)
	if err != nil {
		return respondError(c, err, "fetching archived tasks")
	}
	return respond(c, fiber.StatusOK, "Archived tasks fetched successfully", tasks)
}

func GetTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return respondError(c, err, "fetching task")
	}

	now, err := clientNow(c)
	if err != nil {
		return respondError(c, err, "fetching task")
	}

	task, err := config.Tasks.GetByID(c.UserContext(), id)
	if err == nil && task.UserID != middleware.UserID(c) {
		err = repository.ErrForbidden
	}
	if err != nil {
		return respondError(c, err, "fetching task")
	}
	return respond(c, fiber.StatusOK, "Task fetched successfully", views([]models.Task{task}, now)[0])
}

func CreateTask(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err, "create task")
	}
	if err := validate(config.Validate, req); err != nil {
		return respondError(c, err, "creating task")
	}
	in, err := req.ToNewTask()
	if err != nil {
		return respondError(c, err, "creating task")
	}

	task, err := config.Tasks.Create(c.UserContext(), userID, in)
	if err != nil {
		return respondError(c, err, "creating task")
	}

	logger.AuditLogger.Info("Task created successfully", zap.Int("task_id", task.ID), zap.Int("user_id", userID))
	changed(c, userID, websocket.TaskCreated, task.ID)
	return respond(c, fiber.StatusCreated, "Task created successfully", task)
}

// UpdateTask applies a partial update; PUT and PATCH behave the same.
func UpdateTask(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	id, err := taskID(c)
	if err != nil {
		return respondError(c, err, "updating task")
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err, "update task")
	}
	patch, err := req.ToPatch()
	if err != nil {
		return respondError(c, err, "updating task")
	}

	task, err := config.Tasks.UpdateByID(c.UserContext(), id, userID, patch)
	if err != nil {
		return respondError(c, err, "updating task")
	}

	logger.AuditLogger.Info("Task updated successfully", zap.Int("task_id", id), zap.Int("user_id", userID))
	changed(c, userID, websocket.TaskUpdated, id)
	return respond(c, fiber.StatusOK, "Task updated successfully", task)
}

func ArchiveTask(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	id, err := taskID(c)
	if err != nil {
		return respondError(c, err, "archiving task")
	}

	task, err := config.Tasks.ArchiveByID(c.UserContext(), id, userID)
	if err != nil {
		return respondError(c, err, "archiving task")
	}

	logger.AuditLogger.Info("Task archived successfully", zap.Int("task_id", id), zap.Int("user_id", userID))
	changed(c, userID, websocket.TaskArchived, id)
	return respond(c, fiber.StatusOK, "Task archived successfully", task)
}

func DeleteTask(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	id, err := taskID(c)
	if err != nil {
		return respondError(c, err, "deleting task")
	}

	deleted, err := config.Tasks.DeleteByID(c.UserContext(), id, userID)
	if err == nil && !deleted {
		err = repository.ErrNotFound
	}
	if err != nil {
		return respondError(c, err, "deleting task")
	}

	logger.AuditLogger.Info("Task deleted successfully", zap.Int("task_id", id), zap.Int("user_id", userID))
	changed(c, userID, websocket.TaskDeleted, id)
	return respond(c, fiber.StatusOK, "Task deleted successfully", fiber.Map{"id": id})
}

// SuggestSolution asks the AI client for a plan for the task. The answer is
// always 200; AI failures come back as a readable message.
func SuggestSolution(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return respondError(c, err, "generating solution")
	}

	task, err := config.Tasks.GetByID(c.UserContext(), id)
	if err == nil && task.UserID != middleware.UserID(c) {
		err = repository.ErrForbidden
	}
	if err != nil {
		return respondError(c, err, "generating solution")
	}

	notes := ""
	if task.Notes != nil {
		notes = *task.Notes
	}
	solution := config.AI.Suggest(c.UserContext(), task.Title, notes)
	return respond(c, fiber.StatusOK, "Solution generated", fiber.Map{"solution": solution})
}
