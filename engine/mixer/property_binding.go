package mixer

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-arena/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// bindingKey addresses one animatable property of one node.
type bindingKey struct {
	node     *model.Node
	property model.Property
}

// propertyBinding accumulates the weighted contributions of every scheduled action to a
// single node property during one Update, then writes the blend into the node's local
// transform. Any weight short of 1 is filled with the node's rest value.
type propertyBinding struct {
	node     *model.Node
	property model.Property

	// useCount is the number of scheduled actions sampling into this binding.
	useCount int

	cumulative float32
	buffer     [4]float32
}

// accumulate blends value into the buffer with the given weight.
func (b *propertyBinding) accumulate(value [4]float32, weight float32) {
	if b.cumulative == 0 {
		b.buffer = value
		b.cumulative = weight
		return
	}
	b.cumulative += weight
	b.buffer = mixValues(b.property, b.buffer, value, weight/b.cumulative)
}

// apply writes the accumulated value to the node and clears the accumulator.
func (b *propertyBinding) apply() {
	rest := readProperty(b.node.Rest, b.property)
	value := rest
	switch {
	case b.cumulative >= 1:
		value = b.buffer
	case b.cumulative > 0:
		value = mixValues(b.property, b.buffer, rest, 1-b.cumulative)
	}
	writeProperty(&b.node.Local, b.property, value)
	b.cumulative = 0
}

// restore puts the node property back at its rest value.
func (b *propertyBinding) restore() {
	writeProperty(&b.node.Local, b.property, readProperty(b.node.Rest, b.property))
	b.cumulative = 0
}

// --- Sampling ---

// sampleTrack evaluates a track at time t, clamping outside the keyed range.
func sampleTrack(track *model.Track, t float32) [4]float32 {
	n := track.Property.Components()
	times := track.Times
	if len(times) == 0 || n == 0 {
		return [4]float32{}
	}

	key := func(i int) [4]float32 {
		var v [4]float32
		copy(v[:n], track.Values[i*n:(i+1)*n])
		return v
	}

	if t <= times[0] {
		return key(0)
	}
	last := len(times) - 1
	if t >= times[last] {
		return key(last)
	}

	// first key strictly after t
	hi := sort.Search(len(times), func(i int) bool { return times[i] > t })
	lo := hi - 1
	if track.Interpolation == model.InterpolationStep {
		return key(lo)
	}

	span := times[hi] - times[lo]
	if span <= 0 {
		return key(hi)
	}
	return mixValues(track.Property, key(lo), key(hi), (t-times[lo])/span)
}

// mixValues interpolates a toward b by amount, slerping rotations along the shortest arc.
func mixValues(p model.Property, a, b [4]float32, amount float32) [4]float32 {
	if p == model.PropertyRotation {
		return slerp(a, b, amount)
	}
	va := mgl32.Vec3{a[0], a[1], a[2]}
	vb := mgl32.Vec3{b[0], b[1], b[2]}
	v := va.Add(vb.Sub(va).Mul(amount))
	return [4]float32{v[0], v[1], v[2], 0}
}

func slerp(a, b [4]float32, amount float32) [4]float32 {
	qa := mgl32.Quat{W: a[3], V: mgl32.Vec3{a[0], a[1], a[2]}}
	qb := mgl32.Quat{W: b[3], V: mgl32.Vec3{b[0], b[1], b[2]}}
	if qa.Dot(qb) < 0 {
		qb = qb.Scale(-1)
	}
	q := mgl32.QuatSlerp(qa, qb, amount)
	return [4]float32{q.V[0], q.V[1], q.V[2], q.W}
}

func readProperty(t model.Transform, p model.Property) [4]float32 {
	switch p {
	case model.PropertyTranslation:
		return [4]float32{t.Translation[0], t.Translation[1], t.Translation[2], 0}
	case model.PropertyRotation:
		return t.Rotation
	case model.PropertyScale:
		return [4]float32{t.Scale[0], t.Scale[1], t.Scale[2], 0}
	default:
		return [4]float32{}
	}
}

func writeProperty(t *model.Transform, p model.Property, v [4]float32) {
	switch p {
	case model.PropertyTranslation:
		t.Translation = [3]float32{v[0], v[1], v[2]}
	case model.PropertyRotation:
		t.Rotation = v
	case model.PropertyScale:
		t.Scale = [3]float32{v[0], v[1], v[2]}
	}
}
