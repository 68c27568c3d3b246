package loader

import (
	"github.com/Carmen-Shannon/oxy-arena/engine/model"
)

// loaderBackend defines the generic interface for loading models from files or blobs.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load performs a full model import from the given file path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - model.Model: the imported model
	//   - error: error if loading fails
	Load(path string) (model.Model, error)

	// LoadBytes imports a model from an in-memory blob.
	//
	// Parameters:
	//   - name: the model name
	//   - data: the raw file contents
	//   - baseDir: directory for resolving external references, or ""
	//
	// Returns:
	//   - model.Model: the imported model
	//   - error: error if loading fails
	LoadBytes(name string, data []byte, baseDir string) (model.Model, error)
}
