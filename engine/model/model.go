package model

// model is the implementation of the Model interface.
type model struct {
	name  string
	scene *Scene
	clips []*Clip
	size  int
}

// Model defines the interface for a loaded 3D model.
// A Model is a read-only container holding the decoded scene graph, its skins and
// its animation clips. It is produced by the Loader after importing a model file and
// may be shared by every viewer holding the same cache handle, so callers must clone
// the scene (see SkinnedClone) and copy clips before mutating them.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Scene retrieves the scene graph decoded from the model file.
	//
	// Returns:
	//   - *Scene: the scene, never nil for a loaded model
	Scene() *Scene

	// Skins retrieves every skin referenced by the scene.
	//
	// Returns:
	//   - []*Skin: the skins in traversal order
	Skins() []*Skin

	// Skinned reports whether this model carries at least one skin.
	//
	// Returns:
	//   - bool: true if the model has bone data
	Skinned() bool

	// Clips retrieves all animation clips bundled with this model.
	//
	// Returns:
	//   - []*Clip: the animation clips in file order
	Clips() []*Clip

	// ClipCount returns the number of available animation clips.
	//
	// Returns:
	//   - int: the clip count
	ClipCount() int

	// ClipNames returns the names of all animation clips.
	//
	// Returns:
	//   - []string: the clip names in file order
	ClipNames() []string

	// Clip returns the first clip with the given name, or nil if not found.
	//
	// Parameters:
	//   - name: the clip name to search for
	//
	// Returns:
	//   - *Clip: the clip, or nil
	Clip(name string) *Clip

	// ByteSize returns the size of the source blob the model was decoded from.
	//
	// Returns:
	//   - int: the size in bytes
	ByteSize() int
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if m.scene == nil {
		m.scene = &Scene{Name: m.name}
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Scene() *Scene {
	return m.scene
}

func (m *model) Skins() []*Skin {
	return m.scene.Skins()
}

func (m *model) Skinned() bool {
	return len(m.Skins()) > 0
}

func (m *model) Clips() []*Clip {
	return m.clips
}

func (m *model) ClipCount() int {
	return len(m.clips)
}

func (m *model) ClipNames() []string {
	names := make([]string, len(m.clips))
	for i, c := range m.clips {
		names[i] = c.Name
	}
	return names
}

func (m *model) Clip(name string) *Clip {
	for _, c := range m.clips {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (m *model) ByteSize() int {
	return m.size
}
