// Package importer loads tasks from a legacy db.json export.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"studyflow/internal/lifecycle"
	"studyflow/internal/models"
)

const DefaultTitle = "Без названия"

// Record is one task as the legacy file stores it. Every field may be missing.
type Record struct {
	UserID      int    `json:"userId"`
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	DueDate     string `json:"dueDate"`
	Done        bool   `json:"done"`
	Notes       string `json:"notes"`
	CreatedAt   string `json:"createdAt"`
	CompletedAt string `json:"completedAt"`
	Archived    bool   `json:"archived"`
	ArchivedAt  string `json:"archivedAt"`
}

type File struct {
	Tasks         []Record `json:"tasks"`
	ArchivedTasks []Record `json:"archivedTasks"`
}

func Parse(r io.Reader) (File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return File{}, fmt.Errorf("decoding db.json: %w", err)
	}
	return f, nil
}

// ToTask fills the defaults for missing fields. Entries from archivedTasks
// are always archived.
func (r Record) ToTask(defaultUser int, archived bool, now time.Time) (models.Task, error) {
	t := models.Task{
		UserID:   r.UserID,
		Title:    r.Title,
		Subject:  models.StringPtr(r.Subject),
		Notes:    models.StringPtr(r.Notes),
		Done:     r.Done,
		Archived: r.Archived || archived,
	}
	if t.UserID <= 0 {
		t.UserID = defaultUser
	}
	if strings.TrimSpace(t.Title) == "" {
		t.Title = DefaultTitle
	}

	if r.DueDate != "" {
		d, err := models.ParseDate(r.DueDate)
		if err != nil {
			return models.Task{}, lifecycle.NewValidationError("dueDate", err.Error())
		}
		t.DueDate = &d
	}

	var err error
	if t.CreatedAt, err = parseTime("createdAt", r.CreatedAt, now); err != nil {
		return models.Task{}, err
	}
	if r.CompletedAt != "" {
		completed, err := parseTime("completedAt", r.CompletedAt, now)
		if err != nil {
			return models.Task{}, err
		}
		t.CompletedAt = &completed
	}
	if r.ArchivedAt != "" {
		at, err := parseTime("archivedAt", r.ArchivedAt, now)
		if err != nil {
			return models.Task{}, err
		}
		t.ArchivedAt = &at
	}

	return lifecycle.Normalize(t, now), nil
}

func parseTime(field, s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, lifecycle.NewValidationError(field, err.Error())
	}
	return t.UTC(), nil
}

// Store is where imported tasks go.
type Store interface {
	Import(ctx context.Context, t models.Task) (bool, error)
}

type Result struct {
	Imported int
	Skipped  int
	Failed   int
}

// Run imports every record, reporting progress to out. A failing record is
// reported and skipped; only a cancelled context stops the run.
func Run(ctx context.Context, store Store, f File, defaultUser int, now time.Time, out io.Writer) (Result, error) {
	var res Result

	batches := []struct {
		label    string
		records  []Record
		archived bool
	}{
		{"Задача", f.Tasks, false},
		{"Архивная задача", f.ArchivedTasks, true},
	}

	for _, b := range batches {
		if len(b.records) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s: найдено %d\n", b.label, len(b.records))
		for _, rec := range b.records {
			if err := ctx.Err(); err != nil {
				return res, err
			}

			task, err := rec.ToTask(defaultUser, b.archived, now)
			if err == nil {
				var written bool
				written, err = store.Import(ctx, task)
				if err == nil && !written {
					res.Skipped++
					fmt.Fprintf(out, "  %s %q уже существует\n", b.label, task.Title)
					continue
				}
			}
			if err != nil {
				res.Failed++
				fmt.Fprintf(out, "  %s %q пропущена: %v\n", b.label, rec.Title, err)
				continue
			}
			res.Imported++
			fmt.Fprintf(out, "  %s %q мигрирована\n", b.label, task.Title)
		}
	}
	return res, nil
}
