package blend

import (
	"io"
	"log"
	"testing"

	"github.com/Carmen-Shannon/oxy-arena/engine/mixer"
	"github.com/Carmen-Shannon/oxy-arena/engine/model"
	"github.com/Carmen-Shannon/oxy-arena/engine/timeline"
)

const frame = float32(0.05)

type transition struct {
	from, to State
	reason   Reason
	at       float64
}

type harness struct {
	mx          mixer.Mixer
	tl          timeline.Timeline
	c           Controller
	idle        *model.Clip
	attack      *model.Clip
	transitions []transition
}

func spin(name string, duration float32) *model.Clip {
	return &model.Clip{
		Name:     name,
		Duration: duration,
		Tracks: []model.Track{{
			Target:   "Bone",
			Property: model.PropertyRotation,
			Times:    []float32{0, duration},
			Values:   []float32{0, 0, 0, 1, 0, 0.7071068, 0, 0.7071068},
		}},
	}
}

func newHarness(t *testing.T, idle, attack *model.Clip, options ...ControllerBuilderOption) *harness {
	t.Helper()
	root := model.NewNode("Armature")
	root.AddChild(model.NewNode("Bone"))
	h := &harness{
		mx:     mixer.NewMixer(&model.Scene{Roots: []*model.Node{root}}),
		tl:     timeline.New(),
		idle:   idle,
		attack: attack,
	}
	opts := append([]ControllerBuilderOption{
		WithTimeline(h.tl),
		WithLogger(log.New(io.Discard, "", 0)),
	}, options...)
	h.c = NewController(h.mx, idle, attack, opts...)
	h.c.OnTransition(func(from, to State, reason Reason) {
		h.transitions = append(h.transitions, transition{from, to, reason, h.tl.Now()})
	})
	t.Cleanup(h.c.Close)
	return h
}

// step advances the harness timeline and then the controller by one frame.
func (h *harness) step() {
	h.tl.Advance(float64(frame))
	h.c.Update(frame)
}

func (h *harness) run(seconds float32) {
	for elapsed := float32(0); elapsed < seconds-1e-4; elapsed += frame {
		h.step()
	}
}

func (h *harness) attackAction() mixer.Action {
	return h.mx.ExistingAction(h.attack)
}

func (h *harness) idleAction() mixer.Action {
	return h.mx.ExistingAction(h.idle)
}

func TestAttackScenario(t *testing.T) {
	h := newHarness(t, spin("Idle", 2.0), spin("Punch", 0.6))
	if got := h.c.FallbackWindow(); got < 0.99 || got > 1.01 {
		t.Fatalf("expected fallback window 1.0, got %v", got)
	}

	h.c.SetAttacking(true)
	if h.c.State() != StateAttacking {
		t.Fatalf("expected Attacking immediately, got %s", h.c.State())
	}

	var stoppedAt float64
	for i := 0; i < 40 && stoppedAt == 0; i++ {
		h.step()
		if !h.attackAction().IsScheduled() {
			stoppedAt = h.tl.Now()
		}
	}

	if len(h.transitions) != 2 {
		t.Fatalf("expected two transitions, got %+v", h.transitions)
	}
	back := h.transitions[1]
	if back.to != StateIdle || back.reason != ReasonFinished {
		t.Fatalf("expected finished return, got %+v", back)
	}
	if back.at < 0.6-1e-3 || back.at > 0.65+1e-3 {
		t.Fatalf("expected return near 0.6s, got %v", back.at)
	}
	if stoppedAt == 0 || stoppedAt < back.at+0.15-1e-3 {
		t.Fatalf("attack stopped at %v, before the blend after %v completed", stoppedAt, back.at)
	}
	if stoppedAt > back.at+0.15+float64(frame)+1e-3 {
		t.Fatalf("attack stopped late at %v", stoppedAt)
	}

	// the fallback was cancelled by the finished path
	h.run(1)
	if len(h.transitions) != 2 || h.c.State() != StateIdle {
		t.Fatalf("fallback fired after the finished return: %+v", h.transitions)
	}
	if !h.idleAction().IsRunning() || h.idleAction().EffectiveWeight() != 1 {
		t.Fatalf("idle should be running at full weight")
	}
}

func TestRetriggerWhileAttackingIsNoop(t *testing.T) {
	h := newHarness(t, spin("Idle", 2.0), spin("Punch", 0.6))

	h.c.SetAttacking(true)
	h.run(0.3)
	before := h.attackAction().Time()
	h.c.SetAttacking(true)
	if len(h.transitions) != 1 || h.attackAction().Time() != before || h.attackAction().IsFading() {
		t.Fatalf("re-trigger restarted the attack")
	}

	h.run(0.4)
	if h.c.State() != StateIdle || h.transitions[1].reason != ReasonFinished {
		t.Fatalf("expected the original attack to finish on schedule, got %+v", h.transitions)
	}
}

func TestFallbackReturnsWithoutFinishedEvent(t *testing.T) {
	h := newHarness(t, spin("Idle", 2.0), spin("Punch", 0.6))

	h.c.SetAttacking(true)
	// a frozen attack never reaches its end
	h.attackAction().SetEffectiveTimeScale(0)

	h.run(0.95)
	if h.c.State() != StateAttacking {
		t.Fatalf("returned before the fallback window")
	}
	h.run(0.1)
	if h.c.State() != StateIdle {
		t.Fatalf("fallback did not return to idle")
	}
	if last := h.transitions[len(h.transitions)-1]; last.reason != ReasonFallback {
		t.Fatalf("expected fallback reason, got %s", last.reason)
	}
}

func TestRetractReturnsImmediately(t *testing.T) {
	h := newHarness(t, spin("Idle", 2.0), spin("Punch", 0.6))

	h.c.SetAttacking(true)
	h.run(0.2)
	h.c.SetAttacking(false)
	if h.c.State() != StateIdle || h.transitions[1].reason != ReasonRetracted {
		t.Fatalf("expected immediate retracted return, got %+v", h.transitions)
	}
	if !h.attackAction().IsScheduled() {
		t.Fatalf("attack stopped before its fade-out")
	}
	h.run(0.2)
	if h.attackAction().IsScheduled() {
		t.Fatalf("attack was never stopped")
	}

	// a new attack can start right away
	h.c.SetAttacking(true)
	if h.c.State() != StateAttacking || h.attackAction().Time() != 0 {
		t.Fatalf("second attack did not start from the beginning")
	}
}

func TestWatchdogRestartsIdle(t *testing.T) {
	h := newHarness(t, spin("Idle", 2.0), spin("Punch", 0.6))
	h.run(0.1)

	h.idleAction().Stop()
	h.step()
	if !h.idleAction().IsRunning() || h.idleAction().EffectiveWeight() != 1 {
		t.Fatalf("watchdog did not restart idle within one tick")
	}
}

func TestWatchdogStaysOutOfAttacks(t *testing.T) {
	h := newHarness(t, spin("Idle", 2.0), spin("Punch", 0.6))

	h.c.SetAttacking(true)
	h.run(0.3)
	if h.idleAction().IsRunning() {
		t.Fatalf("idle should be faded out during the attack")
	}
	h.idleAction().Stop()
	h.step()
	if h.idleAction().IsScheduled() {
		t.Fatalf("watchdog acted during Attacking")
	}

	h.run(0.5)
	if h.c.State() != StateIdle || !h.idleAction().IsRunning() {
		t.Fatalf("return to idle did not restart the idle action")
	}
}

func TestDegradedControllers(t *testing.T) {
	noAttack := newHarness(t, spin("Idle", 2.0), nil)
	noAttack.c.SetAttacking(true)
	noAttack.run(0.2)
	if noAttack.c.State() != StateIdle || noAttack.c.CanAttack() || len(noAttack.transitions) != 0 {
		t.Fatalf("attack intent should be a no-op without an attack clip")
	}

	static := newHarness(t, nil, spin("Punch", 0.6))
	static.c.SetAttacking(true)
	static.run(0.2)
	if static.c.Animated() || static.c.State() != StateIdle || static.mx.ScheduledCount() != 0 {
		t.Fatalf("controller without idle should be inert")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	h := newHarness(t, spin("Idle", 2.0), spin("Punch", 0.6))
	h.c.SetAttacking(true)
	h.run(0.1)

	h.c.Close()
	h.c.Close()
	if h.mx.ScheduledCount() != 0 || h.tl.Len() != 0 || h.mx.ExistingAction(h.idle) != nil {
		t.Fatalf("Close left state behind")
	}
	h.c.SetAttacking(false)
	h.step()
	if len(h.transitions) != 1 {
		t.Fatalf("closed controller transitioned")
	}
}

func TestSharedTimelineKeepsOtherFallbacks(t *testing.T) {
	tl := timeline.New()
	quiet := WithLogger(log.New(io.Discard, "", 0))
	newController := func(options ...mixer.MixerBuilderOption) Controller {
		root := model.NewNode("Armature")
		root.AddChild(model.NewNode("Bone"))
		mx := mixer.NewMixer(&model.Scene{Roots: []*model.Node{root}}, options...)
		return NewController(mx, spin("Idle", 2.0), spin("Punch", 0.6), WithTimeline(tl), quiet)
	}

	a := newController()
	// a frozen mixer never reports the attack finished, so only the fallback can return b
	b := newController(mixer.WithTimeScale(0))
	defer b.Close()
	bystander := newController()
	defer bystander.Close()

	var reasons []Reason
	b.OnTransition(func(_, to State, reason Reason) {
		if to == StateIdle {
			reasons = append(reasons, reason)
		}
	})

	a.SetAttacking(true)
	b.SetAttacking(true)
	if tl.Len() != 2 {
		t.Fatalf("expected one fallback timer per controller, got %d", tl.Len())
	}
	a.Close()
	if tl.Len() != 1 {
		t.Fatalf("closing one controller removed %d timers", 2-tl.Len())
	}

	advance := func(seconds float32) {
		for elapsed := float32(0); elapsed < seconds-1e-4; elapsed += frame {
			tl.Advance(float64(frame))
			a.Update(frame)
			b.Update(frame)
			bystander.Update(frame)
		}
	}
	advance(0.9)
	if b.State() != StateAttacking {
		t.Fatalf("fallback fired early at %v, window is %v", tl.Now(), b.FallbackWindow())
	}
	advance(0.3)
	if b.State() != StateIdle || len(reasons) != 1 || reasons[0] != ReasonFallback {
		t.Fatalf("expected a fallback return, state %s reasons %v", b.State(), reasons)
	}
}
