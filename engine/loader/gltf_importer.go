package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-arena/engine/model"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter defines the interface for orchestrating a full glTF/GLB import.
// It combines the parser and all extractors to produce a complete model.Model.
type gltfImporter interface {
	// Import loads a glTF/GLB file and extracts the scene graph, skins and animations.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - model.Model: the fully populated model
	//   - error: error if import fails
	Import(path string) (model.Model, error)

	// ImportBytes extracts a model from an in-memory glTF JSON or GLB blob.
	//
	// Parameters:
	//   - name: the model name, usually the source path
	//   - data: the raw file contents
	//   - baseDir: directory for resolving external buffers, or ""
	//
	// Returns:
	//   - model.Model: the fully populated model
	//   - error: error if import fails
	ImportBytes(name string, data []byte, baseDir string) (model.Model, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string) (model.Model, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return imp.importFromParser(parser, path, 0)
}

func (imp *gltfImporterImpl) ImportBytes(name string, data []byte, baseDir string) (model.Model, error) {
	parser := newGLTFParser()
	if err := parser.ParseBytes(data, baseDir); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	return imp.importFromParser(parser, name, len(data))
}

// importFromParser performs a full import from a parser that has already loaded a document.
//
// Parameters:
//   - parser: the glTF parser that has already loaded a document
//   - fallbackPath: file path or key used as a fallback for model naming
//   - size: size of the source blob in bytes, or 0 if unknown
func (imp *gltfImporterImpl) importFromParser(parser gltfParser, fallbackPath string, size int) (model.Model, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document after parsing")
	}

	sceneExtractor := newGLTFSceneExtractor(parser)
	animationExtractor := newGLTFAnimationExtractor(parser)

	scene, err := sceneExtractor.ExtractScene(-1)
	if err != nil {
		return nil, fmt.Errorf("scene extraction failed: %w", err)
	}

	name := gltfExtractModelName(doc, fallbackPath)
	if scene.Name == "" {
		scene.Name = name
	}

	var clips []*model.Clip
	if len(doc.Animations) > 0 {
		clips, err = animationExtractor.ExtractAllAnimations(sceneExtractor.NodeNames())
		if err != nil {
			return nil, fmt.Errorf("animation extraction failed: %w", err)
		}
	}

	return model.NewModel(
		model.WithName(name),
		model.WithScene(scene),
		model.WithClips(clips...),
		model.WithByteSize(size),
	), nil
}

// --- Helper Functions ---

// gltfExtractModelName derives a model name from the default scene or a file path fallback.
func gltfExtractModelName(doc *gltfDocument, fallbackPath string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}

	if fallbackPath != "" {
		return strings.TrimSuffix(filepath.Base(fallbackPath), filepath.Ext(fallbackPath))
	}

	return "unnamed_model"
}
