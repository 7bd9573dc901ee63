// Package lifecycle computes task state transitions. It performs no I/O:
// every function takes the current state and the operation time and returns
// the next state.
package lifecycle

import (
	"strings"
	"time"

	"studyflow/internal/models"
)

type State string

const (
	Active   State = "active"
	Done     State = "done"
	Archived State = "archived"
)

// Patch is a partial update. Absent fields are preserved.
type Patch struct {
	Title   models.Optional[string]
	Subject models.Optional[string]
	DueDate models.Optional[models.Date]
	Notes   models.Optional[string]
	Done    models.Optional[bool]
}

// StateOf derives the lifecycle state from the done and archived flags.
func StateOf(t models.Task) State {
	switch {
	case t.Archived:
		return Archived
	case t.Done:
		return Done
	default:
		return Active
	}
}

// ParseState reads a state name from a query string.
func ParseState(s string) (State, error) {
	switch st := State(s); st {
	case Active, Done, Archived:
		return st, nil
	}
	return "", invalid("state", "state must be one of active, done, archived")
}

// Filter keeps the tasks in state st, preserving order.
func Filter(tasks []models.Task, st State) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if StateOf(t) == st {
			out = append(out, t)
		}
	}
	return out
}

// CanTransition reports whether the state machine allows from -> to.
// Nothing leaves Archived.
func CanTransition(from, to State) bool {
	switch from {
	case Active:
		return to == Done || to == Archived
	case Done:
		return to == Active || to == Archived
	default:
		return false
	}
}

// Create builds a new active task. The store assigns the ID.
func Create(ownerID int, in models.NewTask, now time.Time) (models.Task, error) {
	if ownerID <= 0 {
		return models.Task{}, invalid("userId", "owner is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return models.Task{}, invalid("title", "title is required")
	}
	return models.Task{
		UserID:    ownerID,
		Title:     in.Title,
		Subject:   emptyToNil(in.Subject),
		DueDate:   in.DueDate,
		Notes:     emptyToNil(in.Notes),
		CreatedAt: now,
	}, nil
}

// ApplyUpdate applies patch to current. Marking an already completed task
// done again keeps its original completion time. An archived task keeps its
// done flag; other fields stay editable.
func ApplyUpdate(current models.Task, patch Patch, now time.Time) (models.Task, error) {
	next := current

	if done, ok := patch.Done.Get(); ok && done != current.Done {
		to := Active
		if done {
			to = Done
		}
		if !CanTransition(StateOf(current), to) {
			return current, invalid("done", "archived task cannot change its completion")
		}
	}

	if title, ok := patch.Title.Get(); ok {
		if strings.TrimSpace(title) == "" {
			return current, invalid("title", "title must not be empty")
		}
		next.Title = title
	}
	if patch.Subject.Set {
		next.Subject = emptyToNil(patch.Subject.Value)
	}
	if patch.Notes.Set {
		next.Notes = emptyToNil(patch.Notes.Value)
	}
	if patch.DueDate.Set {
		next.DueDate = patch.DueDate.Value
	}

	if done, ok := patch.Done.Get(); ok && done != current.Done {
		next.Done = done
		if done {
			if next.CompletedAt == nil {
				completed := now
				next.CompletedAt = &completed
			}
		} else {
			next.CompletedAt = nil
		}
	}

	return next, nil
}

// Archive moves a task to the terminal Archived state.
func Archive(current models.Task, now time.Time) (models.Task, error) {
	if current.Archived {
		return current, ErrAlreadyArchived
	}
	next := current
	archived := now
	next.Archived = true
	next.ArchivedAt = &archived
	return next, nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

// Normalize repairs an externally supplied record so it satisfies the
// timestamp invariants: a done task without a completion time is taken to
// have completed when it was created, and timestamps on unset flags are dropped.
func Normalize(t models.Task, now time.Time) models.Task {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	switch {
	case t.Done && t.CompletedAt == nil:
		created := t.CreatedAt
		t.CompletedAt = &created
	case !t.Done:
		t.CompletedAt = nil
	}
	switch {
	case t.Archived && t.ArchivedAt == nil:
		archived := now
		t.ArchivedAt = &archived
	case !t.Archived:
		t.ArchivedAt = nil
	}
	return t
}
