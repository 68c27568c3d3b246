package mixer

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-arena/engine/model"
)

// ListenerID identifies a finished-event subscription.
type ListenerID uint64

type listener struct {
	id ListenerID
	fn func(Action)
}

// mixer is the implementation of the Mixer interface.
type mixer struct {
	root      *model.Scene
	nodes     map[string]*model.Node
	time      float32
	timeScale float32

	actions  map[*model.Clip]*action
	active   []*action
	bindings map[bindingKey]*propertyBinding

	listeners []listener
	nextID    ListenerID
}

// Mixer plays weighted, time-scaled clips on the nodes of one scene. Tracks are bound to
// nodes by name when an action is created; tracks naming a node that does not exist in
// the root are ignored. On every Update the mixer blends all scheduled actions into the
// nodes' local transforms, filling missing weight with each node's rest pose.
//
// A Mixer is owned by the frame goroutine and is not safe for concurrent use.
type Mixer interface {
	// Root returns the scene the mixer poses.
	Root() *model.Scene

	// ClipAction returns the action for clip, creating and caching it on first use.
	//
	// Parameters:
	//   - clip: the clip to play
	//
	// Returns:
	//   - Action: the cached action
	ClipAction(clip *model.Clip) Action

	// ExistingAction returns the cached action for clip, or nil.
	ExistingAction(clip *model.Clip) Action

	// Update advances every scheduled action by dt seconds, writes the blended pose and
	// then notifies finished listeners.
	//
	// Parameters:
	//   - dt: the frame delta in seconds
	Update(dt float32)

	// Time returns the accumulated mixer time.
	Time() float32

	// SetTimeScale scales every subsequent Update delta.
	SetTimeScale(scale float32)

	// StopAllAction stops every scheduled action.
	StopAllAction()

	// UncacheClip stops and forgets the action for clip.
	UncacheClip(clip *model.Clip)

	// UncacheRoot stops and forgets every action and binding, returning all animated
	// nodes to their rest pose. The mixer can be reused afterwards.
	UncacheRoot()

	// AddFinishedListener subscribes fn to finished notifications. fn receives the
	// action that finished and runs on the goroutine calling Update.
	//
	// Parameters:
	//   - fn: the callback
	//
	// Returns:
	//   - ListenerID: handle for RemoveFinishedListener
	AddFinishedListener(fn func(Action)) ListenerID

	// RemoveFinishedListener unsubscribes a listener.
	//
	// Returns:
	//   - bool: true if the listener was subscribed
	RemoveFinishedListener(id ListenerID) bool

	// ScheduledCount returns the number of scheduled actions.
	ScheduledCount() int
}

var _ Mixer = &mixer{}

// NewMixer creates a Mixer bound to root with the specified options applied.
//
// Parameters:
//   - root: the scene whose nodes the mixer poses
//   - options: a variadic list of MixerBuilderOption functions to configure the Mixer
//
// Returns:
//   - Mixer: a new Mixer
func NewMixer(root *model.Scene, options ...MixerBuilderOption) Mixer {
	m := &mixer{
		root:      root,
		nodes:     make(map[string]*model.Node),
		timeScale: 1,
		actions:   make(map[*model.Clip]*action),
		bindings:  make(map[bindingKey]*propertyBinding),
	}
	if root != nil {
		root.Walk(func(n *model.Node) bool {
			if _, dup := m.nodes[n.Name]; !dup {
				m.nodes[n.Name] = n
			}
			return true
		})
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *mixer) Root() *model.Scene {
	return m.root
}

func (m *mixer) ClipAction(clip *model.Clip) Action {
	if a, ok := m.actions[clip]; ok {
		return a
	}
	a := newAction(m, clip)
	m.actions[clip] = a
	return a
}

func (m *mixer) ExistingAction(clip *model.Clip) Action {
	if a, ok := m.actions[clip]; ok {
		return a
	}
	return nil
}

func (m *mixer) Update(dt float32) {
	dt *= m.timeScale
	m.time += dt

	var finished []*action
	for _, a := range slices.Clone(m.active) {
		if a.update(dt) {
			finished = append(finished, a)
		}
	}

	for _, b := range m.bindings {
		if b.useCount > 0 {
			b.apply()
		}
	}

	for _, a := range finished {
		for _, l := range slices.Clone(m.listeners) {
			l.fn(a)
		}
	}
}

func (m *mixer) Time() float32 {
	return m.time
}

func (m *mixer) SetTimeScale(scale float32) {
	m.timeScale = scale
}

func (m *mixer) StopAllAction() {
	for _, a := range slices.Clone(m.active) {
		a.Stop()
	}
}

func (m *mixer) UncacheClip(clip *model.Clip) {
	a, ok := m.actions[clip]
	if !ok {
		return
	}
	a.Stop()
	delete(m.actions, clip)
}

func (m *mixer) UncacheRoot() {
	m.StopAllAction()
	for _, b := range m.bindings {
		b.restore()
	}
	m.actions = make(map[*model.Clip]*action)
	m.bindings = make(map[bindingKey]*propertyBinding)
}

func (m *mixer) AddFinishedListener(fn func(Action)) ListenerID {
	m.nextID++
	m.listeners = append(m.listeners, listener{id: m.nextID, fn: fn})
	return m.nextID
}

func (m *mixer) RemoveFinishedListener(id ListenerID) bool {
	for i, l := range m.listeners {
		if l.id == id {
			m.listeners = slices.Delete(m.listeners, i, i+1)
			return true
		}
	}
	return false
}

func (m *mixer) ScheduledCount() int {
	return len(m.active)
}

// --- Bookkeeping ---

// bindingFor returns the shared binding for the node and property a track targets, or
// nil when the node is not part of the root or the property is not a transform.
func (m *mixer) bindingFor(track *model.Track) *propertyBinding {
	if track.Property.Components() == 0 {
		return nil
	}
	node, ok := m.nodes[track.Target]
	if !ok {
		return nil
	}
	key := bindingKey{node: node, property: track.Property}
	b, ok := m.bindings[key]
	if !ok {
		b = &propertyBinding{node: node, property: track.Property}
		m.bindings[key] = b
	}
	return b
}

func (m *mixer) activate(a *action) {
	if a.scheduled {
		return
	}
	a.scheduled = true
	m.active = append(m.active, a)
	for _, b := range a.bindings {
		if b != nil {
			b.useCount++
		}
	}
}

func (m *mixer) deactivate(a *action) {
	if !a.scheduled {
		return
	}
	a.scheduled = false
	if i := slices.Index(m.active, a); i >= 0 {
		m.active = slices.Delete(m.active, i, i+1)
	}
	for _, b := range a.bindings {
		if b == nil {
			continue
		}
		if b.useCount--; b.useCount == 0 {
			b.restore()
		}
	}
}
