package model

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithScene is an option builder that sets the scene graph of the Model.
//
// Parameters:
//   - scene: the decoded scene
//
// Returns:
//   - ModelBuilderOption: a function that applies the scene option to a model
func WithScene(scene *Scene) ModelBuilderOption {
	return func(m *model) {
		m.scene = scene
	}
}

// WithClips is an option builder that sets the animation clips of the Model.
//
// Parameters:
//   - clips: the animation clips to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the clips option to a model
func WithClips(clips ...*Clip) ModelBuilderOption {
	return func(m *model) {
		m.clips = clips
	}
}

// WithByteSize is an option builder that records the size of the source blob.
//
// Parameters:
//   - size: the blob size in bytes
//
// Returns:
//   - ModelBuilderOption: a function that applies the size option to a model
func WithByteSize(size int) ModelBuilderOption {
	return func(m *model) {
		m.size = size
	}
}
