// Package gltftest builds small glTF 2.0 documents in memory for tests.
package gltftest

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
)

// Node describes one glTF node.
type Node struct {
	Name        string
	Children    []int
	Translation *[3]float32
	Rotation    *[4]float32
	Mesh        bool
	Skin        *int
}

// Channel animates one path of one node.
type Channel struct {
	Node          int
	Path          string
	Interpolation string
	Times         []float32
	Values        []float32
}

// Animation is a named set of channels.
type Animation struct {
	Name     string
	Channels []Channel
}

// Asset is the input to JSON and GLB.
type Asset struct {
	Nodes      []Node
	Roots      []int
	Skins      [][]int
	Animations []Animation
}

// Robot node indices.
const (
	Armature = iota
	Hips
	Spine
	Head
	Body
)

// Robot returns the standard test rig: Armature -> Hips -> Spine -> Head, plus a skinned
// Body mesh under Armature bound to Hips, Spine and Head.
//
// Parameters:
//   - animations: the clips to embed
//
// Returns:
//   - Asset: the rig
func Robot(animations ...Animation) Asset {
	skin := 0
	return Asset{
		Nodes: []Node{
			{Name: "Armature", Children: []int{Hips, Body}},
			{Name: "Hips", Children: []int{Spine}, Translation: &[3]float32{0, 1, 0}},
			{Name: "Spine", Children: []int{Head}, Translation: &[3]float32{0, 0.5, 0}},
			{Name: "Head", Translation: &[3]float32{0, 0.4, 0}},
			{Name: "Body", Mesh: true, Skin: &skin},
		},
		Roots:      []int{Armature},
		Skins:      [][]int{{Hips, Spine, Head}},
		Animations: animations,
	}
}

// Clip returns an animation of the given duration with a rotation channel on each target
// node and a translation channel on the first target.
//
// Parameters:
//   - name: the clip name
//   - duration: the last keyframe time
//   - targets: node indices to animate
//
// Returns:
//   - Animation: the clip
func Clip(name string, duration float32, targets ...int) Animation {
	a := Animation{Name: name}
	half := float32(math.Sqrt(0.5))
	for i, t := range targets {
		if i == 0 {
			a.Channels = append(a.Channels, Channel{
				Node:   t,
				Path:   "translation",
				Times:  []float32{0, duration},
				Values: []float32{0, 1, 0, 0, 1, 1},
			})
		}
		a.Channels = append(a.Channels, Channel{
			Node:   t,
			Path:   "rotation",
			Times:  []float32{0, duration},
			Values: []float32{0, 0, 0, 1, 0, half, 0, half},
		})
	}
	return a
}

type document struct {
	Asset       map[string]string `json:"asset"`
	Scene       int               `json:"scene"`
	Scenes      []scene           `json:"scenes"`
	Nodes       []node            `json:"nodes"`
	Meshes      []mesh            `json:"meshes,omitempty"`
	Skins       []skin            `json:"skins,omitempty"`
	Animations  []animation       `json:"animations,omitempty"`
	Accessors   []accessor        `json:"accessors,omitempty"`
	BufferViews []bufferView      `json:"bufferViews,omitempty"`
	Buffers     []buffer          `json:"buffers,omitempty"`
}

type scene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes"`
}

type node struct {
	Name        string      `json:"name,omitempty"`
	Children    []int       `json:"children,omitempty"`
	Translation *[3]float32 `json:"translation,omitempty"`
	Rotation    *[4]float32 `json:"rotation,omitempty"`
	Mesh        *int        `json:"mesh,omitempty"`
	Skin        *int        `json:"skin,omitempty"`
}

type mesh struct {
	Name string `json:"name"`
}

type skin struct {
	InverseBindMatrices int   `json:"inverseBindMatrices"`
	Joints              []int `json:"joints"`
}

type animation struct {
	Name     string    `json:"name"`
	Channels []channel `json:"channels"`
	Samplers []sampler `json:"samplers"`
}

type channel struct {
	Sampler int    `json:"sampler"`
	Target  target `json:"target"`
}

type target struct {
	Node int    `json:"node"`
	Path string `json:"path"`
}

type sampler struct {
	Input         int    `json:"input"`
	Output        int    `json:"output"`
	Interpolation string `json:"interpolation,omitempty"`
}

type accessor struct {
	BufferView    int    `json:"bufferView"`
	ComponentType int    `json:"componentType"`
	Count         int    `json:"count"`
	Type          string `json:"type"`
}

type bufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
}

type buffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
}

type builder struct {
	doc document
	bin bytes.Buffer
}

func (b *builder) floats(values []float32, typ string, count int) int {
	offset := b.bin.Len()
	for _, v := range values {
		_ = binary.Write(&b.bin, binary.LittleEndian, v)
	}
	b.doc.BufferViews = append(b.doc.BufferViews, bufferView{ByteOffset: offset, ByteLength: len(values) * 4})
	b.doc.Accessors = append(b.doc.Accessors, accessor{
		BufferView:    len(b.doc.BufferViews) - 1,
		ComponentType: 5126,
		Count:         count,
		Type:          typ,
	})
	return len(b.doc.Accessors) - 1
}

func (a Asset) build() *builder {
	b := &builder{doc: document{
		Asset:  map[string]string{"version": "2.0", "generator": "gltftest"},
		Scenes: []scene{{Nodes: a.Roots}},
	}}

	for _, n := range a.Nodes {
		out := node{Name: n.Name, Children: n.Children, Translation: n.Translation, Rotation: n.Rotation, Skin: n.Skin}
		if n.Mesh {
			idx := len(b.doc.Meshes)
			b.doc.Meshes = append(b.doc.Meshes, mesh{Name: n.Name})
			out.Mesh = &idx
		}
		b.doc.Nodes = append(b.doc.Nodes, out)
	}

	for _, joints := range a.Skins {
		ibm := make([]float32, 0, 16*len(joints))
		for range joints {
			ibm = append(ibm, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1)
		}
		b.doc.Skins = append(b.doc.Skins, skin{
			InverseBindMatrices: b.floats(ibm, "MAT4", len(joints)),
			Joints:              joints,
		})
	}

	for _, anim := range a.Animations {
		out := animation{Name: anim.Name}
		for _, ch := range anim.Channels {
			in := b.floats(ch.Times, "SCALAR", len(ch.Times))
			typ := "VEC3"
			if ch.Path == "rotation" {
				typ = "VEC4"
			}
			count := len(ch.Values) / 3
			if typ == "VEC4" {
				count = len(ch.Values) / 4
			}
			if ch.Path == "weights" {
				typ, count = "SCALAR", len(ch.Values)
			}
			outAcc := b.floats(ch.Values, typ, count)
			out.Samplers = append(out.Samplers, sampler{Input: in, Output: outAcc, Interpolation: ch.Interpolation})
			out.Channels = append(out.Channels, channel{
				Sampler: len(out.Samplers) - 1,
				Target:  target{Node: ch.Node, Path: ch.Path},
			})
		}
		b.doc.Animations = append(b.doc.Animations, out)
	}
	return b
}

// JSON encodes the asset as a self-contained .gltf document with a base64 data URI buffer.
//
// Returns:
//   - []byte: the document
func (a Asset) JSON() []byte {
	b := a.build()
	if b.bin.Len() > 0 {
		b.doc.Buffers = []buffer{{
			URI:        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(b.bin.Bytes()),
			ByteLength: b.bin.Len(),
		}}
	}
	out, err := json.Marshal(b.doc)
	if err != nil {
		panic(err)
	}
	return out
}

// GLB encodes the asset as a binary glTF container.
//
// Returns:
//   - []byte: the GLB blob
func (a Asset) GLB() []byte {
	b := a.build()
	if b.bin.Len() > 0 {
		b.doc.Buffers = []buffer{{ByteLength: b.bin.Len()}}
	}
	js, err := json.Marshal(b.doc)
	if err != nil {
		panic(err)
	}
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}
	bin := b.bin.Bytes()
	for len(bin)%4 != 0 {
		bin = append(bin, 0)
	}

	total := 12 + 8 + len(js)
	if len(bin) > 0 {
		total += 8 + len(bin)
	}

	var out bytes.Buffer
	_ = binary.Write(&out, binary.LittleEndian, [3]uint32{0x46546C67, 2, uint32(total)})
	_ = binary.Write(&out, binary.LittleEndian, [2]uint32{uint32(len(js)), 0x4E4F534A})
	out.Write(js)
	if len(bin) > 0 {
		_ = binary.Write(&out, binary.LittleEndian, [2]uint32{uint32(len(bin)), 0x004E4942})
		out.Write(bin)
	}
	return out.Bytes()
}
