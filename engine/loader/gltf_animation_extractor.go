package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-arena/engine/model"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	parser gltfParser
}

// gltfAnimationExtractor defines the interface for extracting animation data from a parsed glTF document.
// It converts glTF animation definitions into engine-ready Clip structs whose tracks address
// their target node by name rather than by index, so a clip authored against one file can be
// played on a skeleton loaded from another.
//
// The nodeNames parameter maps glTF node indices to engine node names and is produced by the
// scene extractor.
type gltfAnimationExtractor interface {
	// ExtractAnimation extracts a single animation by index.
	//
	// Parameters:
	//   - animIndex: the index of the animation in the document
	//   - nodeNames: maps glTF node index to node name
	//
	// Returns:
	//   - *model.Clip: the extracted animation clip
	//   - error: error if extraction fails
	ExtractAnimation(animIndex int, nodeNames []string) (*model.Clip, error)

	// ExtractAllAnimations extracts every animation from the document.
	//
	// Parameters:
	//   - nodeNames: maps glTF node index to node name
	//
	// Returns:
	//   - []*model.Clip: all extracted animation clips
	//   - error: error if extraction fails
	ExtractAllAnimations(nodeNames []string) ([]*model.Clip, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates a new animation extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfAnimationExtractor: the animation extractor
func newGLTFAnimationExtractor(parser gltfParser) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser}
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int, nodeNames []string) (*model.Clip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return nil, fmt.Errorf("animation index %d out of range", animIndex)
	}

	anim := &doc.Animations[animIndex]

	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}

	clip := &model.Clip{Name: name}

	for i := range anim.Channels {
		ch := &anim.Channels[i]

		// Channels without a target node belong to extensions we don't drive
		if ch.Target.Node == nil {
			continue
		}
		nodeIndex := *ch.Target.Node
		if nodeIndex < 0 || nodeIndex >= len(nodeNames) {
			return nil, fmt.Errorf("animation %q channel %d: invalid node index %d", name, i, nodeIndex)
		}

		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", name, i, ch.Sampler)
		}
		sampler := &anim.Samplers[ch.Sampler]

		var property model.Property
		switch ch.Target.Path {
		case gltfAnimPathTranslation:
			property = model.PropertyTranslation
		case gltfAnimPathRotation:
			property = model.PropertyRotation
		case gltfAnimPathScale:
			property = model.PropertyScale
		case gltfAnimPathWeights:
			property = model.PropertyWeights
		default:
			continue
		}

		times, err := e.parser.ReadScalarAccessor(sampler.Input)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read timestamps: %w", name, i, err)
		}
		values, _, err := e.parser.ReadFloatAccessor(sampler.Output)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read %s values: %w", name, i, ch.Target.Path, err)
		}

		track, err := gltfBuildTrack(nodeNames[nodeIndex], property, sampler.Interpolation, times, values)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: %w", name, i, err)
		}
		if len(track.Times) == 0 {
			continue
		}

		// Track max timestamp for duration
		if t := track.Times[len(track.Times)-1]; t > clip.Duration {
			clip.Duration = t
		}
		clip.Tracks = append(clip.Tracks, track)
	}

	return clip, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations(nodeNames []string) ([]*model.Clip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}

	clips := make([]*model.Clip, len(doc.Animations))
	for i := range doc.Animations {
		clip, err := e.ExtractAnimation(i, nodeNames)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		clips[i] = clip
	}

	return clips, nil
}

// --- Helper Functions ---

// gltfBuildTrack packs sampler output into a track. Cubic-spline samplers store an
// in-tangent, value and out-tangent per key; only the value is kept and the track is
// sampled linearly.
func gltfBuildTrack(target string, property model.Property, interpolation string, times, values []float32) (model.Track, error) {
	track := model.Track{
		Target:        target,
		Property:      property,
		Interpolation: model.InterpolationLinear,
		Times:         times,
	}
	if interpolation == gltfAnimInterpolationStep {
		track.Interpolation = model.InterpolationStep
	}

	keys := len(times)
	if keys == 0 {
		return track, nil
	}

	stride := len(values) / keys
	if interpolation == gltfAnimInterpolationCubicSpline {
		stride /= 3
	}
	if stride == 0 {
		return track, fmt.Errorf("%s track for %q: %d values for %d keys", property, target, len(values), keys)
	}
	if c := property.Components(); c != 0 && c != stride {
		return track, fmt.Errorf("%s track for %q: expected %d components, got %d", property, target, c, stride)
	}

	if interpolation == gltfAnimInterpolationCubicSpline {
		packed := make([]float32, keys*stride)
		for k := 0; k < keys; k++ {
			copy(packed[k*stride:(k+1)*stride], values[(3*k+1)*stride:(3*k+2)*stride])
		}
		track.Values = packed
	} else {
		track.Values = values[:keys*stride]
	}
	return track, nil
}
