package blend

import (
	"log"

	"github.com/Carmen-Shannon/oxy-arena/common"
	"github.com/Carmen-Shannon/oxy-arena/engine/mixer"
	"github.com/Carmen-Shannon/oxy-arena/engine/model"
	"github.com/Carmen-Shannon/oxy-arena/engine/timeline"
)

const (
	// DefaultBlendDuration is the crossfade length in seconds.
	DefaultBlendDuration float32 = 0.15
	// DefaultFallbackFloor is the shortest attack duration the fallback timer assumes.
	DefaultFallbackFloor float32 = 0.5
	// DefaultFallbackMargin is added to the fallback window after the crossfade.
	DefaultFallbackMargin float32 = 0.25
)

// TransitionFunc observes state changes.
type TransitionFunc func(from, to State, reason Reason)

// controller is the implementation of the Controller interface.
type controller struct {
	mixer        mixer.Mixer
	timeline     timeline.Timeline
	ownsTimeline bool
	logger       *log.Logger

	idle   mixer.Action
	attack mixer.Action

	blend, floor, margin float32
	warp                 bool

	state      State
	fallbackID timeline.TimerID
	stopID     timeline.TimerID
	listenerID mixer.ListenerID
	observers  []TransitionFunc
	closed     bool
}

// Controller drives one mixer between a looping idle clip and a one-shot attack clip.
//
// An attack returns to idle on whichever comes first: the mixer's finished event for the
// attack action, the fallback timer, or the caller retracting the intent. Every return
// path is state-checked, so the first one wins and the others do nothing. While idle, a
// watchdog restarts the idle action on the next Update if anything stopped it.
//
// All methods must be called from the frame goroutine.
type Controller interface {
	// State returns the current state.
	State() State

	// SetAttacking sets the attack intent. true while Idle starts an attack when an attack
	// clip exists; true while Attacking is ignored; false while Attacking returns to idle
	// immediately.
	//
	// Parameters:
	//   - attacking: the intent
	SetAttacking(attacking bool)

	// Update runs due timers, advances the mixer by dt seconds and then runs the idle
	// watchdog. A timeline passed with WithTimeline is not advanced here; its owner
	// advances it once per frame before updating the controllers that share it.
	//
	// Parameters:
	//   - dt: the frame delta in seconds
	Update(dt float32)

	// OnTransition registers fn to be called after every state change.
	OnTransition(fn TransitionFunc)

	// CanAttack reports whether an attack clip is available.
	CanAttack() bool

	// Animated reports whether an idle clip is available. Without one the controller is
	// inert and the skeleton stays in its rest pose.
	Animated() bool

	// FallbackWindow returns the time an attack may take before the fallback timer
	// forces a return to idle, or 0 without an attack clip.
	FallbackWindow() float32

	// Close stops every action, cancels this controller's pending timers and releases
	// the mixer's bindings. Calling Close more than once is a no-op.
	Close()
}

var _ Controller = &controller{}

// NewController creates a Controller on mx with the specified options applied and starts
// the idle clip. Either clip may be nil.
//
// Parameters:
//   - mx: the mixer bound to the rendered skeleton
//   - idle: the looping idle clip
//   - attack: the one-shot attack clip
//   - options: a variadic list of ControllerBuilderOption functions to configure the Controller
//
// Returns:
//   - Controller: a new Controller
func NewController(mx mixer.Mixer, idle, attack *model.Clip, options ...ControllerBuilderOption) Controller {
	c := &controller{
		mixer:  mx,
		blend:  DefaultBlendDuration,
		floor:  DefaultFallbackFloor,
		margin: DefaultFallbackMargin,
		state:  StateIdle,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.timeline == nil {
		c.timeline = timeline.New()
		c.ownsTimeline = true
	}
	c.logger = common.Coalesce(c.logger, log.Default())

	if idle == nil {
		c.logger.Printf("[Blend] no idle clip, holding rest pose")
		return c
	}
	c.idle = mx.ClipAction(idle)
	c.idle.SetLoop(mixer.LoopRepeat, 0)
	c.idle.Play()

	if attack != nil {
		c.attack = mx.ClipAction(attack)
		c.attack.SetLoop(mixer.LoopOnce, 1)
		c.attack.SetClampWhenFinished(false)
	}
	c.listenerID = mx.AddFinishedListener(c.onFinished)
	return c
}

func (c *controller) State() State {
	return c.state
}

func (c *controller) SetAttacking(attacking bool) {
	if c.closed {
		return
	}
	switch {
	case attacking && c.state == StateIdle:
		c.startAttack()
	case !attacking && c.state == StateAttacking:
		c.returnToIdle(ReasonRetracted)
	}
}

func (c *controller) Update(dt float32) {
	if c.closed || c.idle == nil {
		return
	}
	if c.ownsTimeline {
		c.timeline.Advance(float64(dt))
	}
	c.mixer.Update(dt)

	if c.state == StateIdle && !c.idle.IsRunning() {
		c.logger.Printf("[Blend] idle action stopped unexpectedly, restarting")
		c.idle.Reset()
		c.idle.SetEffectiveTimeScale(1)
		c.idle.SetEffectiveWeight(1)
		c.idle.Play()
	}
}

func (c *controller) OnTransition(fn TransitionFunc) {
	c.observers = append(c.observers, fn)
}

func (c *controller) CanAttack() bool {
	return c.idle != nil && c.attack != nil
}

func (c *controller) Animated() bool {
	return c.idle != nil
}

func (c *controller) FallbackWindow() float32 {
	if c.attack == nil {
		return 0
	}
	return max(c.floor, c.attack.Clip().Duration) + c.blend + c.margin
}

func (c *controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel(&c.fallbackID)
	c.cancel(&c.stopID)
	if c.idle != nil {
		c.mixer.RemoveFinishedListener(c.listenerID)
	}
	c.mixer.StopAllAction()
	c.mixer.UncacheRoot()
}

// --- Transitions ---

func (c *controller) startAttack() {
	if !c.CanAttack() {
		return
	}
	c.cancel(&c.stopID)

	c.attack.Reset()
	c.attack.SetLoop(mixer.LoopOnce, 1)
	c.attack.SetClampWhenFinished(false)
	c.attack.SetEffectiveTimeScale(1)
	c.attack.SetEffectiveWeight(0)
	c.attack.Play()
	c.attack.CrossFadeFrom(c.idle, c.blend, c.warp)

	c.fallbackID = c.timeline.After(float64(c.FallbackWindow()), func() {
		c.fallbackID = 0
		c.returnToIdle(ReasonFallback)
	})
	c.transition(StateAttacking, ReasonRequested)
}

func (c *controller) onFinished(a mixer.Action) {
	if a != c.attack {
		return
	}
	c.returnToIdle(ReasonFinished)
}

func (c *controller) returnToIdle(reason Reason) {
	if c.closed || c.state != StateAttacking {
		return
	}
	c.cancel(&c.fallbackID)

	if !c.idle.IsRunning() {
		c.idle.Reset()
		c.idle.SetEffectiveTimeScale(1)
		c.idle.Play()
	}
	c.idle.CrossFadeFrom(c.attack, c.blend, c.warp)

	// the attack keeps contributing while it fades out
	c.cancel(&c.stopID)
	c.stopID = c.timeline.After(float64(c.blend), func() {
		c.stopID = 0
		c.attack.Stop()
	})
	c.transition(StateIdle, reason)
}

func (c *controller) transition(to State, reason Reason) {
	from := c.state
	c.state = to
	c.logger.Printf("[Blend] %s -> %s (%s)", from, to, reason)
	for _, fn := range c.observers {
		fn(from, to, reason)
	}
}

func (c *controller) cancel(id *timeline.TimerID) {
	if *id != 0 {
		c.timeline.Cancel(*id)
		*id = 0
	}
}
