package shipments

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lodestarfreight/mailroom/workflow"
)

// stateCache holds the workflow state definitions with TTL-based refresh.
// Definitions change rarely (configuration, not data), so a staleness
// window up to the TTL is acceptable. On a failed refresh the cache serves
// the previous set rather than failing callers.
type stateCache struct {
	ttl    time.Duration
	load   func(ctx context.Context) (*workflow.StateSet, error)
	logger *slog.Logger

	mu      sync.Mutex
	set     *workflow.StateSet
	expires time.Time
}

func newStateCache(
	ttl time.Duration,
	load func(ctx context.Context) (*workflow.StateSet, error),
	logger *slog.Logger,
) *stateCache {
	return &stateCache{
		ttl:    ttl,
		load:   load,
		logger: logger.With("cache", "workflow_states"),
	}
}

// Get returns the cached state set, reloading it when the TTL has lapsed.
func (c *stateCache) Get(ctx context.Context) (*workflow.StateSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.set != nil && time.Now().Before(c.expires) {
		return c.set, nil
	}

	set, err := c.load(ctx)
	if err != nil {
		if c.set != nil {
			c.logger.Warn("state refresh failed, serving stale definitions", "error", err)
			c.expires = time.Now().Add(c.ttl)
			return c.set, nil
		}
		return nil, err
	}

	c.set = set
	c.expires = time.Now().Add(c.ttl)
	return set, nil
}

// Invalidate drops the cached set so the next Get reloads.
func (c *stateCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = nil
}
