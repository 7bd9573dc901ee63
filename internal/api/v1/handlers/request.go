package handlers

import (
	"strings"
	"time"
	_ "time/tzdata"

	"studyflow/internal/lifecycle"
	"studyflow/internal/models"
	"studyflow/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// HeaderTimezone carries the client's IANA time zone, e.g. "Europe/Moscow".
const HeaderTimezone = "X-Timezone"

// clientNow is the current time in the caller's zone, taken from the
// X-Timezone header or the tz query parameter. Without either it is UTC.
func clientNow(c *fiber.Ctx) (time.Time, error) {
	now := repository.Now()
	name := c.Get(HeaderTimezone)
	if name == "" {
		name = c.Query("tz")
	}
	if name == "" {
		return now, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Time{}, lifecycle.NewValidationError("tz", "Unknown time zone "+name)
	}
	return now.In(loc), nil
}

type CreateTaskRequest struct {
	Title   string  `json:"title" validate:"max=500"`
	Subject *string `json:"subject" validate:"omitempty,max=255"`
	DueDate *string `json:"dueDate"`
	Notes   *string `json:"notes" validate:"omitempty,max=5000"`
}

func (r CreateTaskRequest) ToNewTask() (models.NewTask, error) {
	in := models.NewTask{Title: r.Title, Subject: r.Subject, Notes: r.Notes}
	if r.DueDate != nil && strings.TrimSpace(*r.DueDate) != "" {
		d, err := models.ParseDate(*r.DueDate)
		if err != nil {
			return models.NewTask{}, lifecycle.NewValidationError("dueDate", "Invalid date, expected YYYY-MM-DD")
		}
		in.DueDate = &d
	}
	return in, nil
}

// UpdateTaskRequest keeps the presence of every key so that an omitted
// field is preserved and an explicit null clears it.
type UpdateTaskRequest struct {
	Title   models.Optional[string] `json:"title"`
	Subject models.Optional[string] `json:"subject"`
	DueDate models.Optional[string] `json:"dueDate"`
	Notes   models.Optional[string] `json:"notes"`
	Done    models.Optional[bool]   `json:"done"`
}

func (r UpdateTaskRequest) ToPatch() (lifecycle.Patch, error) {
	patch := lifecycle.Patch{
		Title:   r.Title,
		Subject: r.Subject,
		Notes:   r.Notes,
		Done:    r.Done,
	}
	if raw, ok := r.DueDate.Get(); ok && strings.TrimSpace(raw) != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			return lifecycle.Patch{}, lifecycle.NewValidationError("dueDate", "Invalid date, expected YYYY-MM-DD")
		}
		patch.DueDate = models.Some(d)
	} else if r.DueDate.Set {
		patch.DueDate = models.Null[models.Date]()
	}
	return patch, nil
}
