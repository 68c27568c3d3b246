package model

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"
)

// SkinnedClone deep-copies a scene graph so that every skin in the copy is bound to
// the copy's own joint nodes. A naive node-by-node copy would leave each cloned Skin
// pointing at the source bones, so posing the clone would silently pose (or fail to
// pose) the shared original.
//
// Parameters:
//   - src: the scene to clone
//
// Returns:
//   - *Scene: the independent copy, or nil when src is nil
func SkinnedClone(src *Scene) *Scene {
	if src == nil {
		return nil
	}

	nodes := make(map[*Node]*Node)
	var cloneNode func(n *Node, parent *Node) *Node
	cloneNode = func(n *Node, parent *Node) *Node {
		c := &Node{
			Name:   n.Name,
			Parent: parent,
			Local:  n.Local,
			Rest:   n.Rest,
			Mesh:   n.Mesh,
		}
		nodes[n] = c
		c.Children = make([]*Node, 0, len(n.Children))
		for _, child := range n.Children {
			c.Children = append(c.Children, cloneNode(child, c))
		}
		return c
	}

	dst := &Scene{Name: src.Name, Roots: make([]*Node, 0, len(src.Roots))}
	for _, r := range src.Roots {
		dst.Roots = append(dst.Roots, cloneNode(r, nil))
	}

	// Skins are rebound after the whole graph exists since joints can live in any subtree.
	skins := make(map[*Skin]*Skin)
	for orig, c := range nodes {
		if orig.Skin == nil {
			continue
		}
		s, ok := skins[orig.Skin]
		if !ok {
			s = rebindSkin(orig.Skin, nodes)
			skins[orig.Skin] = s
		}
		c.Skin = s
	}
	return dst
}

func rebindSkin(src *Skin, nodes map[*Node]*Node) *Skin {
	s := &Skin{
		Name:                src.Name,
		Joints:              make([]*Node, len(src.Joints)),
		InverseBindMatrices: make([][16]float32, len(src.InverseBindMatrices)),
	}
	copy(s.InverseBindMatrices, src.InverseBindMatrices)
	for i, j := range src.Joints {
		if cj, ok := nodes[j]; ok {
			s.Joints[i] = cj
		} else {
			// joint outside the cloned scene; keep a detached copy rather than alias the source
			s.Joints[i] = &Node{Name: j.Name, Local: j.Local, Rest: j.Rest, Mesh: -1}
		}
	}
	if src.Skeleton != nil {
		s.Skeleton = nodes[src.Skeleton]
	}
	return s
}

// Clone returns a deep copy of the clip. Keyframe slices are never shared with c.
//
// Returns:
//   - *Clip: the copy
//   - error: an error if the copy failed
func (c *Clip) Clone() (*Clip, error) {
	out := &Clip{Name: c.Name, Duration: c.Duration}
	if err := deepcopy.Copy(&out.Tracks, c.Tracks); err != nil {
		return nil, fmt.Errorf("failed to copy tracks of clip %q: %w", c.Name, err)
	}
	return out, nil
}
