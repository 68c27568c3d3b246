package engine

import (
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-arena/engine/asset"
	"github.com/Carmen-Shannon/oxy-arena/engine/viewer"
	"github.com/Carmen-Shannon/oxy-arena/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithWindow sets the window whose message loop Run pumps. Without one the engine runs
// headless until Quit.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithCache sets the asset cache shared by the engine's viewers. Its statistics are
// included in profiler output.
//
// Parameters:
//   - c: the cache
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCache(c asset.Cache) EngineBuilderOption {
	return func(e *engine) {
		e.cache = c
	}
}

// WithViewer registers a viewer at the given key during engine construction.
//
// Parameters:
//   - key: the update order (lower updates first)
//   - v: the viewer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithViewer(key int, v viewer.Viewer) EngineBuilderOption {
	return func(e *engine) {
		e.viewers[key] = v
	}
}

// WithLogger sets the logger for engine and profiler output.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *log.Logger) EngineBuilderOption {
	return func(e *engine) {
		e.logger = logger
	}
}
