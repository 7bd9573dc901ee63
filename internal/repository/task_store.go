package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"studyflow/internal/lifecycle"
	"studyflow/internal/models"

	"github.com/jmoiron/sqlx"
)

const taskColumns = `id, user_id, title, subject, due_date, done, notes, created_at, completed_at, archived, archived_at`

// TaskStore persists tasks. Every state change goes through the lifecycle
// package inside a transaction holding the row lock.
type TaskStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewTaskStore(db *sqlx.DB) *TaskStore {
	return &TaskStore{db: db, now: Now}
}

// Now is the store clock: UTC at the microsecond precision Postgres keeps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (s *TaskStore) Create(ctx context.Context, ownerID int, in models.NewTask) (models.Task, error) {
	task, err := lifecycle.Create(ownerID, in, s.now())
	if err != nil {
		return models.Task{}, err
	}

	var created models.Task
	err = s.db.GetContext(ctx, &created, `
		INSERT INTO tasks (user_id, title, subject, due_date, notes, done, archived, created_at)
		VALUES ($1, $2, $3, $4, $5, false, false, $6)
		RETURNING `+taskColumns,
		task.UserID, task.Title, task.Subject, task.DueDate, task.Notes, task.CreatedAt,
	)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return models.Task{}, lifecycle.NewValidationError("userId", "owner does not exist")
		}
		return models.Task{}, fmt.Errorf("creating task: %w", err)
	}
	return created, nil
}

// FetchByOwner lists active tasks newest first, or archived tasks most
// recently archived first.
func (s *TaskStore) FetchByOwner(ctx context.Context, ownerID int, archived bool) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE user_id = $1 AND archived = false
		ORDER BY created_at DESC, id DESC`
	if archived {
		query = `SELECT ` + taskColumns + ` FROM tasks
		WHERE user_id = $1 AND archived = true
		ORDER BY archived_at DESC, id DESC`
	}

	tasks := []models.Task{}
	if err := s.db.SelectContext(ctx, &tasks, query, ownerID); err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskStore) GetByID(ctx context.Context, id int) (models.Task, error) {
	var task models.Task
	err := s.db.GetContext(ctx, &task, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("getting task %d: %w", id, err)
	}
	return task, nil
}

// UpdateByID applies patch to the latest persisted state of the task.
func (s *TaskStore) UpdateByID(ctx context.Context, id, ownerID int, patch lifecycle.Patch) (models.Task, error) {
	return s.mutate(ctx, id, ownerID, func(current models.Task, now time.Time) (models.Task, error) {
		return lifecycle.ApplyUpdate(current, patch, now)
	})
}

func (s *TaskStore) ArchiveByID(ctx context.Context, id, ownerID int) (models.Task, error) {
	return s.mutate(ctx, id, ownerID, lifecycle.Archive)
}

func (s *TaskStore) mutate(
	ctx context.Context,
	id, ownerID int,
	apply func(models.Task, time.Time) (models.Task, error),
) (models.Task, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Task{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current models.Task
	err = tx.GetContext(ctx, &current, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("locking task %d: %w", id, err)
	}
	if current.UserID != ownerID {
		return models.Task{}, ErrForbidden
	}

	next, err := apply(current, s.now())
	if err != nil {
		return models.Task{}, err
	}
	if err := writeTask(ctx, tx, next); err != nil {
		return models.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Task{}, fmt.Errorf("committing task %d: %w", id, err)
	}
	return next, nil
}

func writeTask(ctx context.Context, tx *sqlx.Tx, t models.Task) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET title = $1,
			subject = $2,
			due_date = $3,
			done = $4,
			notes = $5,
			completed_at = $6,
			archived = $7,
			archived_at = $8
		WHERE id = $9`,
		t.Title, t.Subject, t.DueDate, t.Done, t.Notes, t.CompletedAt, t.Archived, t.ArchivedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task %d: %w", t.ID, err)
	}
	return nil
}

// DeleteByID hard-deletes a task in any state. It reports false when no
// task has that id.
func (s *TaskStore) DeleteByID(ctx context.Context, id, ownerID int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("deleting task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting task %d: %w", id, err)
	}
	if n > 0 {
		return true, nil
	}

	var owner int
	err = s.db.GetContext(ctx, &owner, `SELECT user_id FROM tasks WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking task %d: %w", id, err)
	}
	return false, ErrForbidden
}

// ArchiveCompletedBefore archives every done, unarchived task completed
// before cutoff and returns the archived tasks.
func (s *TaskStore) ArchiveCompletedBefore(ctx context.Context, cutoff time.Time) ([]models.Task, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var due []models.Task
	err = tx.SelectContext(ctx, &due, `SELECT `+taskColumns+` FROM tasks
		WHERE done = true AND archived = false AND completed_at < $1
		ORDER BY completed_at
		FOR UPDATE SKIP LOCKED`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("selecting completed tasks: %w", err)
	}

	now := s.now()
	archived := make([]models.Task, 0, len(due))
	for _, t := range due {
		next, err := lifecycle.Archive(t, now)
		if err != nil {
			return nil, err
		}
		if err := writeTask(ctx, tx, next); err != nil {
			return nil, err
		}
		archived = append(archived, next)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing auto-archive: %w", err)
	}
	return archived, nil
}

// Import inserts a complete record as given, skipping conflicts. It reports
// whether a row was written.
func (s *TaskStore) Import(ctx context.Context, t models.Task) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (user_id, title, subject, due_date, done, notes, created_at, completed_at, archived, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING`,
		t.UserID, t.Title, t.Subject, t.DueDate, t.Done, t.Notes, t.CreatedAt, t.CompletedAt, t.Archived, t.ArchivedAt,
	)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return false, lifecycle.NewValidationError("userId", "owner does not exist")
		}
		return false, fmt.Errorf("importing task %q: %w", t.Title, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("importing task %q: %w", t.Title, err)
	}
	return n > 0, nil
}

// Count returns the number of archived or active tasks across all users.
func (s *TaskStore) Count(ctx context.Context, archived bool) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM tasks WHERE archived = $1`, archived); err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return n, nil
}
