package mixer

import (
	"math"

	"github.com/Carmen-Shannon/oxy-arena/engine/model"
)

// LoopMode selects what an action does when its play head reaches the end of the clip.
type LoopMode int

const (
	// LoopRepeat wraps the play head back to the start, for a number of repetitions.
	LoopRepeat LoopMode = iota
	// LoopOnce plays the clip a single time and then finishes.
	LoopOnce
)

// ramp linearly moves a value from one level to another over a duration of mixer time.
type ramp struct {
	from, to          float32
	duration, elapsed float32
}

func (r *ramp) value() float32 {
	if r.duration <= 0 || r.elapsed >= r.duration {
		return r.to
	}
	return r.from + (r.to-r.from)*(r.elapsed/r.duration)
}

func (r *ramp) done() bool {
	return r.elapsed >= r.duration
}

// action is the implementation of the Action interface.
type action struct {
	mixer    *mixer
	clip     *model.Clip
	bindings []*propertyBinding

	loop        LoopMode
	repetitions int
	clamp       bool

	time      float32
	loopCount int

	enabled, paused bool
	scheduled       bool

	weight, effectiveWeight       float32
	timeScale, effectiveTimeScale float32

	fade, warp *ramp
}

// Action schedules the playback of one clip on a Mixer's root. An action contributes to
// the pose only while it is scheduled (after Play, until Stop), enabled, and its
// effective weight is above zero.
//
// Fades ramp the effective weight from its current value, so starting a fade while
// another is in flight retargets the curve rather than jumping.
type Action interface {
	// Clip returns the clip this action plays.
	//
	// Returns:
	//   - *model.Clip: the clip
	Clip() *model.Clip

	// Play schedules the action on its mixer. Playing a scheduled action is a no-op.
	Play()

	// Stop unschedules the action and resets it.
	Stop()

	// Reset rewinds the play head, re-enables and unpauses the action and cancels any
	// fade or warp. The weight is left as is.
	Reset()

	// SetLoop sets the loop mode and repetition count.
	//
	// Parameters:
	//   - mode: LoopRepeat or LoopOnce
	//   - repetitions: number of plays for LoopRepeat; <= 0 repeats forever
	SetLoop(mode LoopMode, repetitions int)

	// Loop returns the loop mode.
	Loop() LoopMode

	// SetClampWhenFinished controls whether a finished action holds its last frame
	// (paused, weight kept) or is disabled.
	//
	// Parameters:
	//   - clamp: true to hold the last frame
	SetClampWhenFinished(clamp bool)

	// IsRunning reports whether the action is scheduled, enabled, unpaused and has a
	// non-zero time scale.
	IsRunning() bool

	// IsScheduled reports whether the action is registered with the mixer (between
	// Play and Stop), regardless of whether it currently contributes to the pose.
	IsScheduled() bool

	// Enabled reports whether the action is enabled. Actions are disabled when a
	// fade-out completes or a non-clamped play-once clip finishes.
	Enabled() bool

	// SetEffectiveWeight sets the weight immediately and cancels any fade.
	//
	// Parameters:
	//   - weight: the weight in [0,1]
	SetEffectiveWeight(weight float32)

	// EffectiveWeight returns the weight the action contributed on the last Update,
	// or the weight set since.
	EffectiveWeight() float32

	// SetEffectiveTimeScale sets the playback speed immediately and cancels any warp.
	//
	// Parameters:
	//   - scale: the speed factor
	SetEffectiveTimeScale(scale float32)

	// EffectiveTimeScale returns the speed factor applied on the last Update.
	EffectiveTimeScale() float32

	// Time returns the local play head in seconds.
	Time() float32

	// SetTime moves the local play head.
	SetTime(t float32)

	// FadeIn ramps the effective weight from its current value to 1.
	//
	// Parameters:
	//   - duration: the ramp length in seconds
	FadeIn(duration float32)

	// FadeOut ramps the effective weight from its current value to 0. The action is
	// disabled when the ramp completes.
	//
	// Parameters:
	//   - duration: the ramp length in seconds
	FadeOut(duration float32)

	// CrossFadeFrom fades from out and fades this action in over the same duration.
	// With warp, both actions' time scales are ramped so their clip lengths meet.
	//
	// Parameters:
	//   - from: the action to fade out
	//   - duration: the crossfade length in seconds
	//   - warp: true to synchronize playback speeds during the fade
	CrossFadeFrom(from Action, duration float32, warp bool)

	// CrossFadeTo is CrossFadeFrom seen from the outgoing action.
	//
	// Parameters:
	//   - to: the action to fade in
	//   - duration: the crossfade length in seconds
	//   - warp: true to synchronize playback speeds during the fade
	CrossFadeTo(to Action, duration float32, warp bool)

	// IsFading reports whether a weight ramp is in progress.
	IsFading() bool

	// StopFading cancels any weight ramp, leaving the weight at its ramp target.
	StopFading()

	// StopWarping cancels any time-scale ramp.
	StopWarping()
}

var _ Action = &action{}

func newAction(m *mixer, clip *model.Clip) *action {
	a := &action{
		mixer:              m,
		clip:               clip,
		loop:               LoopRepeat,
		loopCount:          -1,
		enabled:            true,
		weight:             1,
		effectiveWeight:    1,
		timeScale:          1,
		effectiveTimeScale: 1,
	}
	a.bindings = make([]*propertyBinding, len(clip.Tracks))
	for i := range clip.Tracks {
		a.bindings[i] = m.bindingFor(&clip.Tracks[i])
	}
	return a
}

func (a *action) Clip() *model.Clip {
	return a.clip
}

func (a *action) Play() {
	a.mixer.activate(a)
}

func (a *action) Stop() {
	a.mixer.deactivate(a)
	a.Reset()
}

func (a *action) Reset() {
	a.paused = false
	a.enabled = true
	a.time = 0
	a.loopCount = -1
	a.fade = nil
	a.warp = nil
	a.effectiveWeight = a.weight
}

func (a *action) SetLoop(mode LoopMode, repetitions int) {
	a.loop = mode
	a.repetitions = repetitions
}

func (a *action) Loop() LoopMode {
	return a.loop
}

func (a *action) SetClampWhenFinished(clamp bool) {
	a.clamp = clamp
}

func (a *action) IsRunning() bool {
	return a.scheduled && a.enabled && !a.paused && a.timeScale != 0
}

func (a *action) IsScheduled() bool {
	return a.scheduled
}

func (a *action) Enabled() bool {
	return a.enabled
}

func (a *action) SetEffectiveWeight(weight float32) {
	a.weight = weight
	a.fade = nil
	if a.enabled {
		a.effectiveWeight = weight
	} else {
		a.effectiveWeight = 0
	}
}

func (a *action) EffectiveWeight() float32 {
	return a.effectiveWeight
}

func (a *action) SetEffectiveTimeScale(scale float32) {
	a.timeScale = scale
	a.warp = nil
	if a.paused {
		a.effectiveTimeScale = 0
	} else {
		a.effectiveTimeScale = scale
	}
}

func (a *action) EffectiveTimeScale() float32 {
	return a.effectiveTimeScale
}

func (a *action) Time() float32 {
	return a.time
}

func (a *action) SetTime(t float32) {
	a.time = t
}

func (a *action) FadeIn(duration float32) {
	a.scheduleFade(1, duration)
}

func (a *action) FadeOut(duration float32) {
	a.scheduleFade(0, duration)
}

func (a *action) CrossFadeFrom(from Action, duration float32, warp bool) {
	from.FadeOut(duration)
	a.FadeIn(duration)

	if !warp {
		return
	}
	other, ok := from.(*action)
	if !ok || other.clip.Duration <= 0 || a.clip.Duration <= 0 {
		return
	}
	ratio := other.clip.Duration / a.clip.Duration
	other.scheduleWarp(1, ratio, duration)
	a.scheduleWarp(1/ratio, 1, duration)
}

func (a *action) CrossFadeTo(to Action, duration float32, warp bool) {
	to.CrossFadeFrom(a, duration, warp)
}

func (a *action) IsFading() bool {
	return a.fade != nil
}

func (a *action) StopFading() {
	if a.fade != nil {
		a.weight = a.fade.to
		a.fade = nil
	}
}

func (a *action) StopWarping() {
	a.warp = nil
}

// currentWeight is the weight the action would contribute right now.
func (a *action) currentWeight() float32 {
	if !a.enabled {
		return 0
	}
	if a.fade != nil {
		return a.fade.value()
	}
	return a.weight
}

func (a *action) scheduleFade(to, duration float32) {
	from := a.currentWeight()
	a.weight = to
	if duration <= 0 {
		a.fade = nil
		a.effectiveWeight = to
		if to == 0 {
			a.enabled = false
		}
		return
	}
	a.fade = &ramp{from: from, to: to, duration: duration}
}

func (a *action) scheduleWarp(from, to, duration float32) {
	if duration <= 0 {
		a.SetEffectiveTimeScale(to)
		return
	}
	a.warp = &ramp{from: from * a.timeScale, to: to * a.timeScale, duration: duration}
}

// --- Per-frame evaluation ---

// update advances the action by dt seconds of mixer time, samples its tracks into the
// bindings and reports whether the action finished during this step.
func (a *action) update(dt float32) bool {
	if !a.enabled {
		a.effectiveWeight = 0
		return false
	}

	scale := a.updateTimeScale(dt)
	finished := a.updateTime(dt * scale)
	weight := a.updateWeight(dt)

	if weight > 0 {
		for i := range a.clip.Tracks {
			if b := a.bindings[i]; b != nil {
				b.accumulate(sampleTrack(&a.clip.Tracks[i], a.time), weight)
			}
		}
	}
	return finished
}

func (a *action) updateTimeScale(dt float32) float32 {
	if a.paused {
		a.effectiveTimeScale = 0
		return 0
	}
	scale := a.timeScale
	if a.warp != nil {
		a.warp.elapsed += dt
		scale = a.warp.value()
		if a.warp.done() {
			a.warp = nil
			if scale == 0 {
				a.paused = true
			} else {
				a.timeScale = scale
			}
		}
	}
	a.effectiveTimeScale = scale
	return scale
}

func (a *action) updateTime(dt float32) bool {
	if dt == 0 {
		return false
	}
	duration := a.clip.Duration
	if a.loopCount == -1 {
		a.loopCount = 0
	}
	a.time += dt

	if a.loop == LoopOnce {
		switch {
		case a.time >= duration:
			a.time = duration
		case a.time < 0:
			a.time = 0
		default:
			return false
		}
		a.finish()
		return true
	}

	if duration <= 0 {
		a.time = 0
		return false
	}
	if a.time < duration && a.time >= 0 {
		return false
	}

	wraps := float32(math.Floor(float64(a.time / duration)))
	a.time -= duration * wraps
	a.loopCount += int(math.Abs(float64(wraps)))
	if a.repetitions > 0 && a.loopCount >= a.repetitions {
		if dt > 0 {
			a.time = duration
		} else {
			a.time = 0
		}
		a.finish()
		return true
	}
	return false
}

func (a *action) finish() {
	if a.clamp {
		a.paused = true
	} else {
		a.enabled = false
	}
}

func (a *action) updateWeight(dt float32) float32 {
	if !a.enabled {
		a.effectiveWeight = 0
		return 0
	}
	weight := a.weight
	if a.fade != nil {
		a.fade.elapsed += dt
		weight = a.fade.value()
		if a.fade.done() {
			a.fade = nil
			if weight == 0 {
				a.enabled = false
			}
		}
	}
	a.effectiveWeight = weight
	return weight
}
