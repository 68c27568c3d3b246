package mixer

// MixerBuilderOption is a functional option for configuring a Mixer via NewMixer.
type MixerBuilderOption func(*mixer)

// WithTimeScale is an option builder that sets the global playback speed of the Mixer.
//
// Parameters:
//   - scale: the factor applied to every Update delta
//
// Returns:
//   - MixerBuilderOption: a function that applies the time scale option to a mixer
func WithTimeScale(scale float32) MixerBuilderOption {
	return func(m *mixer) {
		m.timeScale = scale
	}
}
