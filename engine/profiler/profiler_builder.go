package profiler

import (
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-arena/engine/asset"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler via NewProfiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often statistics are logged.
//
// Parameters:
//   - d: the logging interval
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithLogger sets the logger statistics are written to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithLogger(logger *log.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.logger = logger
	}
}

// WithCacheStats attaches an asset cache whose statistics are appended to every line.
//
// Parameters:
//   - stats: returns the current cache snapshot, usually Cache.Stats
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithCacheStats(stats func() asset.Stats) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.cacheStats = stats
	}
}

// WithClock replaces the wall clock used to measure intervals.
//
// Parameters:
//   - now: returns the current time
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}
