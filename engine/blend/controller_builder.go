package blend

import (
	"log"

	"github.com/Carmen-Shannon/oxy-arena/engine/timeline"
)

// ControllerBuilderOption is a functional option for configuring a Controller via NewController.
type ControllerBuilderOption func(*controller)

// WithBlendDuration is an option builder that sets the crossfade length.
//
// Parameters:
//   - seconds: the crossfade length
//
// Returns:
//   - ControllerBuilderOption: a function that applies the blend duration option to a controller
func WithBlendDuration(seconds float32) ControllerBuilderOption {
	return func(c *controller) {
		c.blend = seconds
	}
}

// WithFallbackFloor is an option builder that sets the minimum attack duration assumed
// by the fallback timer.
//
// Parameters:
//   - seconds: the floor
//
// Returns:
//   - ControllerBuilderOption: a function that applies the fallback floor option to a controller
func WithFallbackFloor(seconds float32) ControllerBuilderOption {
	return func(c *controller) {
		c.floor = seconds
	}
}

// WithFallbackMargin is an option builder that sets the slack added to the fallback window.
//
// Parameters:
//   - seconds: the margin
//
// Returns:
//   - ControllerBuilderOption: a function that applies the fallback margin option to a controller
func WithFallbackMargin(seconds float32) ControllerBuilderOption {
	return func(c *controller) {
		c.margin = seconds
	}
}

// WithWarp is an option builder that enables time warping during crossfades.
//
// Parameters:
//   - warp: true to ramp playback speeds so the clips meet during a crossfade
//
// Returns:
//   - ControllerBuilderOption: a function that applies the warp option to a controller
func WithWarp(warp bool) ControllerBuilderOption {
	return func(c *controller) {
		c.warp = warp
	}
}

// WithTimeline is an option builder that sets the timeline the controller schedules its
// fallback and stop timers on. The timeline may be shared by several controllers; the
// caller owns it and must advance it once per frame, before the controllers' Update.
//
// Parameters:
//   - tl: the timeline
//
// Returns:
//   - ControllerBuilderOption: a function that applies the timeline option to a controller
func WithTimeline(tl timeline.Timeline) ControllerBuilderOption {
	return func(c *controller) {
		c.timeline = tl
	}
}

// WithLogger is an option builder that sets the logger for transition messages.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - ControllerBuilderOption: a function that applies the logger option to a controller
func WithLogger(logger *log.Logger) ControllerBuilderOption {
	return func(c *controller) {
		c.logger = logger
	}
}
