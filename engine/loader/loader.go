package loader

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-arena/engine/model"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	backend loaderBackend
	baseDir string
	logger  *log.Logger
	verbose bool
}

// Loader defines the public-facing interface for decoding 3D model blobs.
// It abstracts the file format (glTF, GLB, etc.) behind a generic backend. Loader does
// not cache: sharing and lifetime of decoded models belong to the asset cache.
// A Loader holds no mutable state after construction and is safe for concurrent use.
type Loader interface {
	// Load imports a model file from disk.
	// The backend is selected based on the file extension (.gltf/.glb → glTF backend).
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Model: the decoded model
	//   - error: error if loading fails
	Load(path string) (model.Model, error)

	// LoadReader decodes a model from a reader. The format is sniffed from the content,
	// so the reader may come from an object reference with no file extension.
	//
	// Parameters:
	//   - name: the model name, usually the originating path
	//   - r: the reader providing model data
	//
	// Returns:
	//   - model.Model: the decoded model
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (model.Model, error)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		logger: log.Default(),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (model.Model, error) {
	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	m, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	l.report(path, m)
	return m, nil
}

func (l *loader) LoadReader(name string, r io.Reader) (model.Model, error) {
	if l.backend == nil {
		return nil, fmt.Errorf("no loader backend configured")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	m, err := l.backend.LoadBytes(name, data, l.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	l.report(name, m)
	return m, nil
}

// resolveBackend selects an appropriate loader backend based on the file extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		if l.backend == nil {
			return nil, fmt.Errorf("no loader backend configured")
		}
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported model format: %s", ext)
	}
}

func (l *loader) report(name string, m model.Model) {
	if !l.verbose {
		return
	}
	nodes := len(m.Scene().NodeNames())
	l.logger.Printf("[Loader] %s: %d nodes, %d skins, %d clips %v", name, nodes, len(m.Skins()), m.ClipCount(), m.ClipNames())
}
