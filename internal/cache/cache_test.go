package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"studyflow/internal/models"
	"studyflow/internal/testutil"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testRedis *redis.Client
	skipMsg   string
)

func TestMain(m *testing.M) {
	client, cleanup, err := testutil.StartRedis()
	if err != nil {
		skipMsg = fmt.Sprintf("redis unavailable: %v", err)
	} else {
		testRedis = client
	}

	code := m.Run()
	if cleanup != nil {
		cleanup()
	}
	os.Exit(code)
}

func requireRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testRedis == nil {
		t.Skip(skipMsg)
	}
	require.NoError(t, testRedis.FlushAll(context.Background()).Err())
	return testRedis
}

func sampleTasks() []models.Task {
	created := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	return []models.Task{
		{ID: 2, UserID: 7, Title: "Эссе", Subject: models.StringPtr("История"), CreatedAt: created},
		{ID: 1, UserID: 7, Title: "Лабораторная", CreatedAt: created.Add(-time.Hour)},
	}
}

func TestDisabledCache(t *testing.T) {
	c := New(nil, "studyflow:", time.Minute, "")
	ctx := context.Background()

	assert.False(t, c.Enabled())
	gen, err := c.Generation(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, gen)
	require.NoError(t, c.SetTasks(ctx, 7, gen, false, sampleTasks()))

	tasks, found, err := c.GetTasks(ctx, 7, gen, false)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, tasks)
	assert.NoError(t, c.InvalidateOwner(ctx, 7))
	assert.Zero(t, c.GetStats().TotalGets)
}

func TestTaskListKey(t *testing.T) {
	assert.Equal(t, "tasks:7:g0:active", TaskListKey(7, 0, false))
	assert.Equal(t, "tasks:7:g3:archived", TaskListKey(7, 3, true))
	assert.Equal(t, "tasks:7:gen", GenerationKey(7))
}

func TestTaskListRoundTrip(t *testing.T) {
	client := requireRedis(t)
	c := New(client, "studyflow:", time.Minute, "")
	ctx := context.Background()

	gen, err := c.Generation(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, gen)

	_, found, err := c.GetTasks(ctx, 7, gen, false)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetTasks(ctx, 7, gen, false, sampleTasks()))
	tasks, found, err := c.GetTasks(ctx, 7, gen, false)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sampleTasks(), tasks)

	ttl, err := client.TTL(ctx, "studyflow:tasks:7:g0:active").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.InvalidateOwner(ctx, 7))
	gen, err = c.Generation(ctx, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 1, gen)
	_, found, err = c.GetTasks(ctx, 7, gen, false)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Delete(ctx, TaskListKey(7, 0, false)))

	stats := c.GetStats()
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 2, stats.Misses)
	assert.EqualValues(t, 1, stats.Sets)
	assert.EqualValues(t, 1, stats.Invalidations)
	assert.EqualValues(t, 1, stats.Deletes)
	assert.True(t, stats.Enabled)

	c.ResetStats()
	assert.Zero(t, c.GetStats().TotalGets)
}

// A reader that loaded its list before a concurrent mutation must not leave
// that list visible once the mutation has invalidated the owner.
func TestStaleFillAfterInvalidate(t *testing.T) {
	client := requireRedis(t)
	c := New(client, "studyflow:", time.Minute, "")
	ctx := context.Background()

	readerGen, err := c.Generation(ctx, 7)
	require.NoError(t, err)
	stale := sampleTasks()

	require.NoError(t, c.InvalidateOwner(ctx, 7))
	require.NoError(t, c.SetTasks(ctx, 7, readerGen, false, stale))

	gen, err := c.Generation(ctx, 7)
	require.NoError(t, err)
	assert.NotEqual(t, readerGen, gen)
	_, found, err := c.GetTasks(ctx, 7, gen, false)
	require.NoError(t, err)
	assert.False(t, found)

	fresh := stale[:1]
	require.NoError(t, c.SetTasks(ctx, 7, gen, false, fresh))
	tasks, found, err := c.GetTasks(ctx, 7, gen, false)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, fresh, tasks)
}

func TestGenerationsArePerOwner(t *testing.T) {
	client := requireRedis(t)
	c := New(client, "studyflow:", time.Minute, "")
	ctx := context.Background()

	require.NoError(t, c.SetTasks(ctx, 8, 0, true, sampleTasks()))
	require.NoError(t, c.InvalidateOwner(ctx, 7))

	gen, err := c.Generation(ctx, 8)
	require.NoError(t, err)
	assert.Zero(t, gen)
	_, found, err := c.GetTasks(ctx, 8, gen, true)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestEncryptedPayload(t *testing.T) {
	client := requireRedis(t)
	c := New(client, "studyflow:", time.Minute, "cache-key")
	ctx := context.Background()

	require.NoError(t, c.SetTasks(ctx, 7, 0, true, sampleTasks()))

	raw, err := client.Get(ctx, "studyflow:tasks:7:g0:archived").Result()
	require.NoError(t, err)
	assert.NotContains(t, raw, "Эссе")

	tasks, found, err := c.GetTasks(ctx, 7, 0, true)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sampleTasks(), tasks)

	wrongKey := New(client, "studyflow:", time.Minute, "other-key")
	_, found, err = wrongKey.GetTasks(ctx, 7, 0, true)
	assert.Error(t, err)
	assert.False(t, found)
	assert.EqualValues(t, 1, wrongKey.GetStats().Errors)
}
