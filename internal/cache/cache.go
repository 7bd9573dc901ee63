// Package cache is a cache-aside layer over Redis for per-owner task lists.
// A Cache built without a client is disabled: reads miss and writes are no-ops.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"studyflow/internal/models"
	"studyflow/pkg/crypto"

	"github.com/go-redis/redis/v8"
)

type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	key    string
	stats  Stats
}

// Stats counts cache operations since start or the last ResetStats.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Sets    uint64 `json:"sets"`
	Deletes uint64 `json:"deletes"`
	Errors  uint64 `json:"errors"`

	Invalidations uint64 `json:"invalidations"`
}

type StatsSnapshot struct {
	Stats
	HitRate   float64 `json:"hitRate"`
	TotalGets uint64  `json:"totalGets"`
	Enabled   bool    `json:"enabled"`
}

// New returns a cache storing values under prefix for ttl. A non-empty
// encryptionKey seals every payload with AES-GCM.
func New(client *redis.Client, prefix string, ttl time.Duration, encryptionKey string) *Cache {
	return &Cache{client: client, prefix: prefix, ttl: ttl, key: encryptionKey}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get decodes the value stored at key into dest and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	data, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		atomic.AddUint64(&c.stats.Misses, 1)
		return false, nil
	}
	if err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return false, fmt.Errorf("cache get: %w", err)
	}

	if c.key != "" {
		data, err = crypto.Decrypt(data, c.key)
		if err != nil {
			atomic.AddUint64(&c.stats.Errors, 1)
			return false, fmt.Errorf("cache decrypt: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return false, fmt.Errorf("cache unmarshal: %w", err)
	}

	atomic.AddUint64(&c.stats.Hits, 1)
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	if !c.Enabled() {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache marshal: %w", err)
	}
	data := string(raw)
	if c.key != "" {
		data, err = crypto.Encrypt(data, c.key)
		if err != nil {
			atomic.AddUint64(&c.stats.Errors, 1)
			return fmt.Errorf("cache encrypt: %w", err)
		}
	}

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache set: %w", err)
	}
	atomic.AddUint64(&c.stats.Sets, 1)
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	n, err := c.client.Del(ctx, full...).Result()
	if err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache delete: %w", err)
	}
	atomic.AddUint64(&c.stats.Deletes, uint64(n))
	return nil
}

func (c *Cache) GetStats() StatsSnapshot {
	hits := atomic.LoadUint64(&c.stats.Hits)
	misses := atomic.LoadUint64(&c.stats.Misses)
	total := hits + misses

	var rate float64
	if total > 0 {
		rate = float64(hits) / float64(total) * 100
	}
	return StatsSnapshot{
		Stats: Stats{
			Hits:    hits,
			Misses:  misses,
			Sets:    atomic.LoadUint64(&c.stats.Sets),
			Deletes: atomic.LoadUint64(&c.stats.Deletes),
			Errors:  atomic.LoadUint64(&c.stats.Errors),

			Invalidations: atomic.LoadUint64(&c.stats.Invalidations),
		},
		HitRate:   rate,
		TotalGets: total,
		Enabled:   c.Enabled(),
	}
}

func (c *Cache) ResetStats() {
	atomic.StoreUint64(&c.stats.Hits, 0)
	atomic.StoreUint64(&c.stats.Misses, 0)
	atomic.StoreUint64(&c.stats.Sets, 0)
	atomic.StoreUint64(&c.stats.Deletes, 0)
	atomic.StoreUint64(&c.stats.Errors, 0)
	atomic.StoreUint64(&c.stats.Invalidations, 0)
}

// TaskListKey names the cached active or archived list of an owner at
// generation gen.
func TaskListKey(ownerID int, gen int64, archived bool) string {
	if archived {
		return fmt.Sprintf("tasks:%d:g%d:archived", ownerID, gen)
	}
	return fmt.Sprintf("tasks:%d:g%d:active", ownerID, gen)
}

// GenerationKey names the counter InvalidateOwner bumps. It has no TTL.
func GenerationKey(ownerID int) string {
	return fmt.Sprintf("tasks:%d:gen", ownerID)
}

// Generation returns the owner's current list generation. Readers must take
// it before loading from the database and cache under it, so a list loaded
// before a concurrent invalidation lands under a key nobody reads again.
func (c *Cache) Generation(ctx context.Context, ownerID int) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	gen, err := c.client.Get(ctx, c.prefix+GenerationKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return 0, fmt.Errorf("cache generation: %w", err)
	}
	return gen, nil
}

func (c *Cache) GetTasks(ctx context.Context, ownerID int, gen int64, archived bool) ([]models.Task, bool, error) {
	var tasks []models.Task
	found, err := c.Get(ctx, TaskListKey(ownerID, gen, archived), &tasks)
	if err != nil || !found {
		return nil, false, err
	}
	return tasks, true, nil
}

func (c *Cache) SetTasks(ctx context.Context, ownerID int, gen int64, archived bool, tasks []models.Task) error {
	return c.Set(ctx, TaskListKey(ownerID, gen, archived), tasks)
}

// InvalidateOwner moves ownerID to a new generation. Lists cached under older
// generations are never read again and expire with their TTL.
func (c *Cache) InvalidateOwner(ctx context.Context, ownerID int) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Incr(ctx, c.prefix+GenerationKey(ownerID)).Err(); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache invalidate: %w", err)
	}
	atomic.AddUint64(&c.stats.Invalidations, 1)
	return nil
}
