// Package worker runs the periodic auto-archive sweep.
package worker

import (
	"context"
	"sync"
	"time"

	"studyflow/internal/models"
	"studyflow/internal/websocket"
	"studyflow/pkg/logger"

	"go.uber.org/zap"
)

type TaskArchiver interface {
	ArchiveCompletedBefore(ctx context.Context, cutoff time.Time) ([]models.Task, error)
}

type CacheInvalidator interface {
	InvalidateOwner(ctx context.Context, ownerID int) error
}

type Publisher interface {
	Publish(ownerID int, eventType string, taskID int)
}

// AutoArchiver archives tasks completed more than After ago, every Interval.
type AutoArchiver struct {
	Store    TaskArchiver
	Cache    CacheInvalidator
	Events   Publisher
	After    time.Duration
	Interval time.Duration
	Now      func() time.Time

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

func (a *AutoArchiver) Enabled() bool {
	return a.After > 0 && a.Interval > 0
}

// Start launches the sweep loop. It is a no-op when the archiver is disabled.
func (a *AutoArchiver) Start() {
	if !a.Enabled() {
		logger.SystemLogger.Info("Auto-archive disabled")
		return
	}
	a.stopChan = make(chan struct{})
	a.doneChan = make(chan struct{})
	go a.run()
	logger.SystemLogger.Info("Auto-archive started",
		zap.Duration("after", a.After), zap.Duration("interval", a.Interval))
}

func (a *AutoArchiver) run() {
	ticker := time.NewTicker(a.Interval)
	defer ticker.Stop()
	defer close(a.doneChan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-a.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-a.stopChan:
			return
		case <-ticker.C:
			if _, err := a.Sweep(ctx); err != nil && ctx.Err() == nil {
				logger.ErrorLogger.Error("Auto-archive sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep runs one pass and returns how many tasks it archived.
func (a *AutoArchiver) Sweep(ctx context.Context) (int, error) {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}

	archived, err := a.Store.ArchiveCompletedBefore(ctx, now().Add(-a.After))
	if err != nil {
		return 0, err
	}

	owners := make(map[int]bool)
	for _, t := range archived {
		owners[t.UserID] = true
		if a.Events != nil {
			a.Events.Publish(t.UserID, websocket.TaskArchived, t.ID)
		}
	}
	if a.Cache != nil {
		for owner := range owners {
			if err := a.Cache.InvalidateOwner(ctx, owner); err != nil {
				logger.ErrorLogger.Warn("Error invalidating task cache", zap.Int("user_id", owner), zap.Error(err))
			}
		}
	}

	if len(archived) > 0 {
		logger.AuditLogger.Info("Auto-archived completed tasks", zap.Int("count", len(archived)))
	}
	return len(archived), nil
}

// Stop ends the loop, waiting for a running sweep until ctx expires.
func (a *AutoArchiver) Stop(ctx context.Context) error {
	if a.stopChan == nil {
		return nil
	}
	a.stopOnce.Do(func() { close(a.stopChan) })

	select {
	case <-a.doneChan:
		logger.SystemLogger.Info("Auto-archive stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
