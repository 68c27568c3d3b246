package loader

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-arena/engine/model"
)

// gltfSceneExtractorImpl is the implementation of the gltfSceneExtractor interface.
type gltfSceneExtractorImpl struct {
	parser gltfParser
	nodes  []*model.Node
}

// gltfSceneExtractor defines the interface for extracting the node hierarchy and skins
// from a parsed glTF document. Joints are ordinary nodes of the extracted scene, so a
// skin's Joints slice points at the same *model.Node values reachable from the roots.
type gltfSceneExtractor interface {
	// ExtractScene builds the node graph of a scene and binds every skinned node to its skin.
	// A negative index selects the document's default scene, or every parentless node when
	// the document declares no scenes.
	//
	// Parameters:
	//   - sceneIndex: the scene to extract, or -1 for the default
	//
	// Returns:
	//   - *model.Scene: the extracted scene graph
	//   - error: error if extraction fails
	ExtractScene(sceneIndex int) (*model.Scene, error)

	// NodeNames returns the engine-side name of every glTF node, indexed by node index.
	// Unnamed nodes receive a stable generated name. Valid after ExtractScene.
	//
	// Returns:
	//   - []string: the node names
	NodeNames() []string
}

var _ gltfSceneExtractor = &gltfSceneExtractorImpl{}

// newGLTFSceneExtractor creates a new scene extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfSceneExtractor: the scene extractor
func newGLTFSceneExtractor(parser gltfParser) gltfSceneExtractor {
	return &gltfSceneExtractorImpl{parser: parser}
}

func (e *gltfSceneExtractorImpl) NodeNames() []string {
	names := make([]string, len(e.nodes))
	for i, n := range e.nodes {
		names[i] = n.Name
	}
	return names
}

func (e *gltfSceneExtractorImpl) ExtractScene(sceneIndex int) (*model.Scene, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}

	// First pass: one engine node per glTF node
	e.nodes = make([]*model.Node, len(doc.Nodes))
	for i := range doc.Nodes {
		src := &doc.Nodes[i]
		name := src.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		n := model.NewNode(name)
		n.Local = gltfExtractNodeTransform(src)
		n.Rest = n.Local
		if src.Mesh != nil {
			n.Mesh = *src.Mesh
		}
		e.nodes[i] = n
	}

	// Second pass: establish parent relationships
	hasParent := make([]bool, len(doc.Nodes))
	for i := range doc.Nodes {
		for _, c := range doc.Nodes[i].Children {
			if c < 0 || c >= len(doc.Nodes) {
				return nil, fmt.Errorf("node %d: invalid child index %d", i, c)
			}
			if hasParent[c] || c == i {
				return nil, fmt.Errorf("node %d: child %d already has a parent", i, c)
			}
			hasParent[c] = true
			e.nodes[i].AddChild(e.nodes[c])
		}
	}
	for i, n := range e.nodes {
		depth := 0
		for p := n.Parent; p != nil; p = p.Parent {
			if depth++; depth > len(e.nodes) {
				return nil, fmt.Errorf("node %d: hierarchy contains a cycle", i)
			}
		}
	}

	// Third pass: skins, bound to the shared node objects
	skins := make([]*model.Skin, len(doc.Skins))
	for i := range doc.Skins {
		skin, err := e.extractSkin(i)
		if err != nil {
			return nil, fmt.Errorf("skin %d: %w", i, err)
		}
		skins[i] = skin
	}
	for i := range doc.Nodes {
		if s := doc.Nodes[i].Skin; s != nil {
			if *s < 0 || *s >= len(skins) {
				return nil, fmt.Errorf("node %d: invalid skin index %d", i, *s)
			}
			e.nodes[i].Skin = skins[*s]
		}
	}

	roots, name, err := e.sceneRoots(doc, sceneIndex, hasParent)
	if err != nil {
		return nil, err
	}

	scene := &model.Scene{Name: name}
	for _, r := range roots {
		scene.Roots = append(scene.Roots, e.nodes[r])
	}
	return scene, nil
}

// sceneRoots resolves the root node indices of the requested scene.
func (e *gltfSceneExtractorImpl) sceneRoots(doc *gltfDocument, sceneIndex int, hasParent []bool) ([]int, string, error) {
	if sceneIndex < 0 && doc.Scene != nil {
		sceneIndex = *doc.Scene
	}
	if sceneIndex < 0 && len(doc.Scenes) > 0 {
		sceneIndex = 0
	}

	if sceneIndex < 0 {
		var roots []int
		for i := range doc.Nodes {
			if !hasParent[i] {
				roots = append(roots, i)
			}
		}
		return roots, "", nil
	}

	if sceneIndex >= len(doc.Scenes) {
		return nil, "", fmt.Errorf("scene index %d out of range", sceneIndex)
	}
	s := &doc.Scenes[sceneIndex]
	for _, r := range s.Nodes {
		if r < 0 || r >= len(doc.Nodes) {
			return nil, "", fmt.Errorf("scene %d: invalid root node %d", sceneIndex, r)
		}
	}
	return s.Nodes, s.Name, nil
}

func (e *gltfSceneExtractorImpl) extractSkin(skinIndex int) (*model.Skin, error) {
	doc := e.parser.Document()
	skin := &doc.Skins[skinIndex]

	// Read inverse bind matrices (optional but usually present)
	var inverseBindMatrices [][16]float32
	if skin.InverseBindMatrices != nil {
		var err error
		inverseBindMatrices, err = e.parser.ReadMat4Accessor(*skin.InverseBindMatrices)
		if err != nil {
			return nil, fmt.Errorf("failed to read inverse bind matrices: %w", err)
		}
	}

	out := &model.Skin{
		Name:                skin.Name,
		Joints:              make([]*model.Node, len(skin.Joints)),
		InverseBindMatrices: make([][16]float32, len(skin.Joints)),
	}
	for i, jointIndex := range skin.Joints {
		if jointIndex < 0 || jointIndex >= len(e.nodes) {
			return nil, fmt.Errorf("joint %d: invalid node index %d", i, jointIndex)
		}
		out.Joints[i] = e.nodes[jointIndex]
		if i < len(inverseBindMatrices) {
			out.InverseBindMatrices[i] = inverseBindMatrices[i]
		} else {
			out.InverseBindMatrices[i] = gltfIdentityMatrix()
		}
	}
	if skin.Skeleton != nil {
		if *skin.Skeleton < 0 || *skin.Skeleton >= len(e.nodes) {
			return nil, fmt.Errorf("invalid skeleton node %d", *skin.Skeleton)
		}
		out.Skeleton = e.nodes[*skin.Skeleton]
	}
	return out, nil
}

// --- Helper Functions ---

// gltfExtractNodeTransform extracts TRS transform from a glTF node.
func gltfExtractNodeTransform(node *gltfNode) model.Transform {
	if node.Matrix != nil {
		return gltfDecomposeMatrix(*node.Matrix)
	}

	transform := model.IdentityTransform()
	if node.Translation != nil {
		transform.Translation = *node.Translation
	}
	if node.Rotation != nil {
		transform.Rotation = *node.Rotation
	}
	if node.Scale != nil {
		transform.Scale = *node.Scale
	}

	return transform
}

// gltfIdentityMatrix returns a 4x4 identity matrix.
func gltfIdentityMatrix() [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// gltfDecomposeMatrix decomposes a 4x4 column-major matrix into translation, rotation (quaternion), and scale.
// This is an approximation that assumes no shear.
func gltfDecomposeMatrix(m [16]float32) model.Transform {
	var t model.Transform

	// Extract translation (column 3)
	t.Translation = [3]float32{m[12], m[13], m[14]}

	// Extract scale (length of each column)
	sx := gltfVectorLength(m[0], m[1], m[2])
	sy := gltfVectorLength(m[4], m[5], m[6])
	sz := gltfVectorLength(m[8], m[9], m[10])
	t.Scale = [3]float32{sx, sy, sz}

	// Avoid division by zero
	if sx < 0.0001 {
		sx = 1
	}
	if sy < 0.0001 {
		sy = 1
	}
	if sz < 0.0001 {
		sz = 1
	}

	// Rows of the rotation part, from the normalized columns
	r := [9]float32{
		m[0] / sx, m[4] / sy, m[8] / sz,
		m[1] / sx, m[5] / sy, m[9] / sz,
		m[2] / sx, m[6] / sy, m[10] / sz,
	}

	t.Rotation = gltfMatrixToQuaternion(r)

	return t
}

// gltfVectorLength computes the length of a 3D vector.
func gltfVectorLength(x, y, z float32) float32 {
	return float32(math.Sqrt(float64(x*x + y*y + z*z)))
}

// gltfMatrixToQuaternion converts a 3x3 rotation matrix to a quaternion.
// Matrix is in row-major order: [r00, r01, r02, r10, r11, r12, r20, r21, r22].
// Returns quaternion as [x, y, z, w].
func gltfMatrixToQuaternion(m [9]float32) [4]float32 {
	r00, r01, r02 := m[0], m[1], m[2]
	r10, r11, r12 := m[3], m[4], m[5]
	r20, r21, r22 := m[6], m[7], m[8]

	trace := r00 + r11 + r22

	var x, y, z, w float32

	if trace > 0 {
		s := float32(math.Sqrt(float64(trace+1.0))) * 2
		w = 0.25 * s
		x = (r21 - r12) / s
		y = (r02 - r20) / s
		z = (r10 - r01) / s
	} else if r00 > r11 && r00 > r22 {
		s := float32(math.Sqrt(float64(1.0+r00-r11-r22))) * 2
		w = (r21 - r12) / s
		x = 0.25 * s
		y = (r01 + r10) / s
		z = (r02 + r20) / s
	} else if r11 > r22 {
		s := float32(math.Sqrt(float64(1.0+r11-r00-r22))) * 2
		w = (r02 - r20) / s
		x = (r01 + r10) / s
		y = 0.25 * s
		z = (r12 + r21) / s
	} else {
		s := float32(math.Sqrt(float64(1.0+r22-r00-r11))) * 2
		w = (r10 - r01) / s
		x = (r02 + r20) / s
		y = (r12 + r21) / s
		z = 0.25 * s
	}

	// Normalize quaternion
	length := float32(math.Sqrt(float64(x*x + y*y + z*z + w*w)))
	if length > 0.0001 {
		x /= length
		y /= length
		z /= length
		w /= length
	}

	return [4]float32{x, y, z, w}
}
