package importer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"studyflow/internal/lifecycle"
	"studyflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

const legacyFile = `{
  "tasks": [
    {"id": 1, "userId": 3, "title": "Курсовая", "subject": "Математика", "dueDate": "2025-03-05",
     "done": true, "createdAt": "2025-02-20T08:00:00.000Z", "completedAt": "2025-02-25T18:30:00.000Z"},
    {"id": 2, "title": "", "notes": "без даты"},
    {"id": 3, "title": "Плохая дата", "dueDate": "завтра"}
  ],
  "archivedTasks": [
    {"id": 4, "userId": 3, "title": "Старое эссе", "done": true, "createdAt": "2025-01-01T00:00:00.000Z"}
  ]
}`

type fakeStore struct {
	tasks []models.Task
	dupes map[string]bool
	fail  map[string]error
}

func (f *fakeStore) Import(_ context.Context, t models.Task) (bool, error) {
	if err := f.fail[t.Title]; err != nil {
		return false, err
	}
	if f.dupes[t.Title] {
		return false, nil
	}
	f.tasks = append(f.tasks, t)
	return true, nil
}

func TestParseAndRun(t *testing.T) {
	f, err := Parse(strings.NewReader(legacyFile))
	require.NoError(t, err)
	require.Len(t, f.Tasks, 3)
	require.Len(t, f.ArchivedTasks, 1)

	store := &fakeStore{}
	var out bytes.Buffer
	res, err := Run(context.Background(), store, f, 1, now, &out)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 3, Failed: 1}, res)
	assert.Contains(t, out.String(), `"Плохая дата" пропущена`)

	require.Len(t, store.tasks, 3)
	first := store.tasks[0]
	assert.Equal(t, 3, first.UserID)
	assert.Equal(t, "2025-03-05", first.DueDate.String())
	require.NotNil(t, first.CompletedAt)
	assert.Equal(t, time.Date(2025, 2, 25, 18, 30, 0, 0, time.UTC), *first.CompletedAt)

	untitled := store.tasks[1]
	assert.Equal(t, DefaultTitle, untitled.Title)
	assert.Equal(t, 1, untitled.UserID)
	assert.Equal(t, now, untitled.CreatedAt)
	assert.Equal(t, "без даты", *untitled.Notes)
	assert.Nil(t, untitled.Subject)

	archived := store.tasks[2]
	assert.True(t, archived.Archived)
	require.NotNil(t, archived.ArchivedAt)
	assert.Equal(t, now, *archived.ArchivedAt)
	require.NotNil(t, archived.CompletedAt, "done without completedAt takes createdAt")
	assert.Equal(t, archived.CreatedAt, *archived.CompletedAt)
}

func TestRunReportsDuplicatesAndStoreFailures(t *testing.T) {
	f := File{Tasks: []Record{{Title: "a"}, {Title: "b"}, {Title: "c"}}}
	store := &fakeStore{
		dupes: map[string]bool{"a": true},
		fail:  map[string]error{"b": lifecycle.NewValidationError("userId", "owner does not exist")},
	}

	res, err := Run(context.Background(), store, f, 1, now, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 1, Skipped: 1, Failed: 1}, res)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, &fakeStore{}, File{Tasks: []Record{{Title: "a"}}}, 1, now, &bytes.Buffer{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(strings.NewReader("{tasks"))
	assert.Error(t, err)
}
