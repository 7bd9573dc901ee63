package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"studyflow/internal/models"
	"studyflow/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	cutoffs []time.Time
	result  []models.Task
	err     error
}

func (f *fakeStore) ArchiveCompletedBefore(_ context.Context, cutoff time.Time) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	out := f.result
	f.result = nil
	return out, f.err
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

type fakeCache struct{ owners []int }

func (f *fakeCache) InvalidateOwner(_ context.Context, ownerID int) error {
	f.owners = append(f.owners, ownerID)
	return nil
}

type published struct {
	owner, task int
	kind        string
}

type fakeEvents struct{ events []published }

func (f *fakeEvents) Publish(ownerID int, eventType string, taskID int) {
	f.events = append(f.events, published{owner: ownerID, task: taskID, kind: eventType})
}

func TestSweep(t *testing.T) {
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{result: []models.Task{
		{ID: 1, UserID: 7, Archived: true},
		{ID: 2, UserID: 7, Archived: true},
		{ID: 3, UserID: 8, Archived: true},
	}}
	cache := &fakeCache{}
	events := &fakeEvents{}
	a := &AutoArchiver{
		Store:  store,
		Cache:  cache,
		Events: events,
		After:  7 * 24 * time.Hour,
		Now:    func() time.Time { return now },
	}

	n, err := a.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []time.Time{now.Add(-7 * 24 * time.Hour)}, store.cutoffs)
	assert.ElementsMatch(t, []int{7, 8}, cache.owners)
	assert.Equal(t, []published{
		{owner: 7, task: 1, kind: websocket.TaskArchived},
		{owner: 7, task: 2, kind: websocket.TaskArchived},
		{owner: 8, task: 3, kind: websocket.TaskArchived},
	}, events.events)
}

func TestSweepError(t *testing.T) {
	boom := errors.New("db down")
	a := &AutoArchiver{Store: &fakeStore{err: boom}, After: time.Hour}

	_, err := a.Sweep(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestDisabledArchiverNeverStarts(t *testing.T) {
	store := &fakeStore{}
	a := &AutoArchiver{Store: store, After: 0, Interval: time.Millisecond}

	assert.False(t, a.Enabled())
	a.Start()
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, store.calls())
	assert.NoError(t, a.Stop(context.Background()))
}

func TestStartAndStop(t *testing.T) {
	store := &fakeStore{}
	a := &AutoArchiver{Store: store, After: time.Hour, Interval: 5 * time.Millisecond}

	a.Start()
	require.Eventually(t, func() bool { return store.calls() >= 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, a.Stop(ctx))
	require.NoError(t, a.Stop(ctx))

	calls := store.calls()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, store.calls())
}
