package server

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/louten/chiprank/internal/room"
)

// Janitor periodically sweeps the registry for stale rooms. It is safe to
// run alongside normal traffic: the sweep only removes rooms that already
// satisfy the no-connections predicate.
type Janitor struct {
	registry *room.Registry
	interval time.Duration
	clock    quartz.Clock
	logger   *log.Logger
}

// NewJanitor creates a janitor over the given registry
func NewJanitor(registry *room.Registry, interval time.Duration, clock quartz.Clock, logger *log.Logger) *Janitor {
	return &Janitor{
		registry: registry,
		interval: interval,
		clock:    clock,
		logger:   logger.WithPrefix("janitor"),
	}
}

// Run sweeps on every tick until the context is cancelled
func (j *Janitor) Run(ctx context.Context) error {
	j.logger.Info("Janitor started", "interval", j.interval)

	waiter := j.clock.TickerFunc(ctx, j.interval, func() error {
		if cleaned := j.registry.CleanupStaleRooms(); cleaned > 0 {
			j.logger.Info("Cleaned up stale rooms", "count", cleaned, "remaining", j.registry.RoomCount())
		}
		return nil
	}, "janitor")

	err := waiter.Wait()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
