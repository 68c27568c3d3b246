package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// --- Transform & Scene Graph Types ---

// Transform represents a decomposed local transform for animation interpolation.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32
}

// IdentityTransform returns a Transform with no translation, no rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}

// Matrix composes the transform into a column-major 4x4 matrix (T * R * S).
//
// Returns:
//   - mgl32.Mat4: the composed local matrix
func (t Transform) Matrix() mgl32.Mat4 {
	q := mgl32.Quat{W: t.Rotation[3], V: mgl32.Vec3{t.Rotation[0], t.Rotation[1], t.Rotation[2]}}
	return mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).
		Mul4(q.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Node is a single named element of a scene graph. Bones are plain nodes referenced
// by a Skin; skinned mesh nodes carry a non-nil Skin.
type Node struct {
	// Name is the node's identifier and the target key for animation tracks.
	Name string

	// Parent is the parent node, or nil for scene roots.
	Parent *Node

	// Children are the node's direct children in document order.
	Children []*Node

	// Local is the node's current local transform. The mixer writes the animated pose here.
	Local Transform

	// Rest is the node's bind (as-loaded) local transform.
	Rest Transform

	// Mesh is the index of the mesh drawn at this node, or -1 when the node has no mesh.
	Mesh int

	// Skin binds this node's mesh to a set of joint nodes. Nil for rigid nodes.
	Skin *Skin
}

// NewNode creates a detached node at the identity transform.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - *Node: the new node
func NewNode(name string) *Node {
	return &Node{
		Name:  name,
		Local: IdentityTransform(),
		Rest:  IdentityTransform(),
		Mesh:  -1,
	}
}

// AddChild attaches child under n, detaching it from any previous parent.
//
// Parameters:
//   - child: the node to attach
func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		siblings := child.Parent.Children
		for i, c := range siblings {
			if c == child {
				child.Parent.Children = append(siblings[:i:i], siblings[i+1:]...)
				break
			}
		}
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

// WorldMatrix returns the node's model-space matrix by walking up its parent chain.
//
// Returns:
//   - mgl32.Mat4: the world matrix of the node
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.Local.Matrix()
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.Local.Matrix().Mul4(m)
	}
	return m
}

// ResetPose copies the rest transform back into the local transform for n and every descendant.
func (n *Node) ResetPose() {
	n.Local = n.Rest
	for _, c := range n.Children {
		c.ResetPose()
	}
}

// Skin binds a skinned mesh to a list of joint nodes.
type Skin struct {
	// Name is an optional skin name.
	Name string

	// Joints are the bone nodes in joint-index order.
	Joints []*Node

	// InverseBindMatrices transform from model space to each joint's bind space.
	InverseBindMatrices [][16]float32

	// Skeleton is the optional common root of the joint hierarchy.
	Skeleton *Node
}

// JointMatrices computes the skinning matrix (world * inverseBind) of every joint.
//
// Returns:
//   - []mgl32.Mat4: one matrix per joint, in joint-index order
func (s *Skin) JointMatrices() []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(s.Joints))
	for i, j := range s.Joints {
		ibm := mgl32.Ident4()
		if i < len(s.InverseBindMatrices) {
			ibm = mgl32.Mat4(s.InverseBindMatrices[i])
		}
		out[i] = j.WorldMatrix().Mul4(ibm)
	}
	return out
}

// Scene is a forest of nodes loaded from one asset.
type Scene struct {
	// Name is the scene identifier.
	Name string

	// Roots are the top-level nodes of the scene.
	Roots []*Node
}

// Walk visits every node depth-first in document order. Returning false from fn
// stops the walk.
//
// Parameters:
//   - fn: the visitor
func (s *Scene) Walk(fn func(n *Node) bool) {
	var visit func(n *Node) bool
	visit = func(n *Node) bool {
		if !fn(n) {
			return false
		}
		for _, c := range n.Children {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	for _, r := range s.Roots {
		if !visit(r) {
			return
		}
	}
}

// Find returns the first node with the given name, or nil.
//
// Parameters:
//   - name: the node name to look up
//
// Returns:
//   - *Node: the node or nil
func (s *Scene) Find(name string) *Node {
	var found *Node
	s.Walk(func(n *Node) bool {
		if n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// NodeNames returns the set of node names present in the scene.
//
// Returns:
//   - map[string]struct{}: the name set
func (s *Scene) NodeNames() map[string]struct{} {
	names := make(map[string]struct{})
	s.Walk(func(n *Node) bool {
		names[n.Name] = struct{}{}
		return true
	})
	return names
}

// Skins returns every distinct skin referenced by nodes of the scene, in traversal order.
//
// Returns:
//   - []*Skin: the skins
func (s *Scene) Skins() []*Skin {
	seen := make(map[*Skin]bool)
	var skins []*Skin
	s.Walk(func(n *Node) bool {
		if n.Skin != nil && !seen[n.Skin] {
			seen[n.Skin] = true
			skins = append(skins, n.Skin)
		}
		return true
	})
	return skins
}

// ResetPose restores the rest transform of every node.
func (s *Scene) ResetPose() {
	for _, r := range s.Roots {
		r.ResetPose()
	}
}

// --- Animation Types ---

// Property identifies which node property a Track animates.
type Property int

const (
	// PropertyTranslation animates Transform.Translation (3 components).
	PropertyTranslation Property = iota
	// PropertyRotation animates Transform.Rotation (4 components, quaternion x, y, z, w).
	PropertyRotation
	// PropertyScale animates Transform.Scale (3 components).
	PropertyScale
	// PropertyWeights animates morph target weights (N components).
	PropertyWeights
)

// String returns the glTF path name of the property.
func (p Property) String() string {
	switch p {
	case PropertyTranslation:
		return "translation"
	case PropertyRotation:
		return "rotation"
	case PropertyScale:
		return "scale"
	case PropertyWeights:
		return "weights"
	default:
		return "unknown"
	}
}

// Components returns the number of float values per keyframe, or 0 when variable.
func (p Property) Components() int {
	switch p {
	case PropertyTranslation, PropertyScale:
		return 3
	case PropertyRotation:
		return 4
	default:
		return 0
	}
}

// Interpolation is the keyframe interpolation mode of a Track.
type Interpolation int

const (
	// InterpolationLinear lerps vectors and slerps quaternions between keys.
	InterpolationLinear Interpolation = iota
	// InterpolationStep holds each key until the next one.
	InterpolationStep
)

// Track animates one property of one node, addressed by node name.
type Track struct {
	// Target is the name of the animated node.
	Target string

	// Property is the animated property.
	Property Property

	// Interpolation is the keyframe interpolation mode.
	Interpolation Interpolation

	// Times are the keyframe timestamps in seconds, ascending.
	Times []float32

	// Values holds len(Times) * components floats, packed per keyframe.
	Values []float32
}

// Clip represents a single named animation (idle, attack, etc.).
type Clip struct {
	// Name is the animation identifier.
	Name string

	// Duration is the total length of the animation in seconds.
	Duration float32

	// Tracks are the per-node property tracks, in authoring order.
	Tracks []Track
}

// Targets returns the distinct node names targeted by the clip's tracks.
//
// Returns:
//   - []string: the target names in first-seen order
func (c *Clip) Targets() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range c.Tracks {
		if !seen[t.Target] {
			seen[t.Target] = true
			out = append(out, t.Target)
		}
	}
	return out
}

// HasTarget reports whether any track of the clip animates the named node.
func (c *Clip) HasTarget(name string) bool {
	for _, t := range c.Tracks {
		if t.Target == name {
			return true
		}
	}
	return false
}
