package viewer

import (
	"log"

	"github.com/Carmen-Shannon/oxy-arena/engine/blend"
	"github.com/Carmen-Shannon/oxy-arena/engine/mixer"
	"github.com/Carmen-Shannon/oxy-arena/engine/resolver"
)

// ViewerBuilderOption is a functional option for configuring a Viewer via NewViewer.
type ViewerBuilderOption func(*viewer)

// WithResolver is an option builder that sets the clip resolver.
//
// Parameters:
//   - r: the resolver
//
// Returns:
//   - ViewerBuilderOption: a function that applies the resolver option to a viewer
func WithResolver(r resolver.Resolver) ViewerBuilderOption {
	return func(v *viewer) {
		v.resolver = r
	}
}

// WithControllerOptions is an option builder that passes options to every blend
// controller the viewer builds.
//
// Parameters:
//   - options: the controller options
//
// Returns:
//   - ViewerBuilderOption: a function that applies the controller options to a viewer
func WithControllerOptions(options ...blend.ControllerBuilderOption) ViewerBuilderOption {
	return func(v *viewer) {
		v.controllerOpts = append(v.controllerOpts, options...)
	}
}

// WithMixerOptions is an option builder that passes options to every mixer the viewer builds.
//
// Parameters:
//   - options: the mixer options
//
// Returns:
//   - ViewerBuilderOption: a function that applies the mixer options to a viewer
func WithMixerOptions(options ...mixer.MixerBuilderOption) ViewerBuilderOption {
	return func(v *viewer) {
		v.mixerOpts = append(v.mixerOpts, options...)
	}
}

// WithLogger is an option builder that sets the logger for the viewer and its controllers.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - ViewerBuilderOption: a function that applies the logger option to a viewer
func WithLogger(logger *log.Logger) ViewerBuilderOption {
	return func(v *viewer) {
		v.logger = logger
	}
}
