package asset

import (
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-arena/engine/loader"
	"github.com/Carmen-Shannon/oxy-arena/engine/storage"
)

// CacheBuilderOption is a functional option for configuring a Cache via NewCache.
type CacheBuilderOption func(*cache)

// WithStorage is an option builder that sets where file bytes are read from.
//
// Parameters:
//   - s: the storage to read from
//
// Returns:
//   - CacheBuilderOption: a function that applies the storage option to a cache
func WithStorage(s storage.Storage) CacheBuilderOption {
	return func(c *cache) {
		c.storage = s
	}
}

// WithLoader is an option builder that sets the decoder used for file bytes.
//
// Parameters:
//   - l: the model loader
//
// Returns:
//   - CacheBuilderOption: a function that applies the loader option to a cache
func WithLoader(l loader.Loader) CacheBuilderOption {
	return func(c *cache) {
		c.loader = l
	}
}

// WithGracePeriod is an option builder that sets how long an unreferenced entry is kept.
//
// Parameters:
//   - d: the grace period; negative values are treated as zero
//
// Returns:
//   - CacheBuilderOption: a function that applies the grace period option to a cache
func WithGracePeriod(d time.Duration) CacheBuilderOption {
	return func(c *cache) {
		c.grace = max(d, 0)
	}
}

// WithClock is an option builder that replaces the wall clock used for eviction timers.
//
// Parameters:
//   - clock: the clock implementation
//
// Returns:
//   - CacheBuilderOption: a function that applies the clock option to a cache
func WithClock(clock Clock) CacheBuilderOption {
	return func(c *cache) {
		c.clock = clock
	}
}

// WithWorkers is an option builder that sets the number of concurrent load workers.
//
// Parameters:
//   - n: the worker count, at least 1
//
// Returns:
//   - CacheBuilderOption: a function that applies the worker count option to a cache
func WithWorkers(n int) CacheBuilderOption {
	return func(c *cache) {
		c.workers = max(n, 1)
	}
}

// WithLogger is an option builder that sets the logger for load and eviction events.
//
// Parameters:
//   - logger: the logger to write to
//
// Returns:
//   - CacheBuilderOption: a function that applies the logger option to a cache
func WithLogger(logger *log.Logger) CacheBuilderOption {
	return func(c *cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDisposeHook is an option builder that registers a callback run once per disposed
// handle, after its object URL has been revoked. Renderers use it to free GPU copies.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - CacheBuilderOption: a function that applies the dispose hook option to a cache
func WithDisposeHook(fn func(Handle)) CacheBuilderOption {
	return func(c *cache) {
		c.onDispose = fn
	}
}
