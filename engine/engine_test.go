package engine

import (
	"context"
	"io"
	"log"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-arena/engine/blend"
	"github.com/Carmen-Shannon/oxy-arena/engine/model"
	"github.com/Carmen-Shannon/oxy-arena/engine/viewer"
)

// fakeViewer records calls into a shared journal.
type fakeViewer struct {
	name    string
	journal *journal
	closed  int
}

type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) snapshot() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.entries)
}

var _ viewer.Viewer = &fakeViewer{}

func (f *fakeViewer) Update(float32) { f.journal.add("update " + f.name) }
func (f *fakeViewer) Await(context.Context) error { return nil }
func (f *fakeViewer) SetAttacking(bool) {}
func (f *fakeViewer) SetSources(viewer.Sources) {}
func (f *fakeViewer) Sources() viewer.Sources { return viewer.Sources{} }
func (f *fakeViewer) State() blend.State { return blend.StateIdle }
func (f *fakeViewer) Status() viewer.Status { return viewer.StatusReady }
func (f *fakeViewer) Err() error { return nil }
func (f *fakeViewer) Diagnostics() []error { return nil }
func (f *fakeViewer) Scene() *model.Scene { return nil }
func (f *fakeViewer) Close() {
	f.closed++
	f.journal.add("close " + f.name)
}

func quietEngine(options ...EngineBuilderOption) Engine {
	return NewEngine(append([]EngineBuilderOption{WithLogger(log.New(io.Discard, "", 0))}, options...)...)
}

func TestStepUpdatesViewersInKeyOrder(t *testing.T) {
	j := &journal{}
	e := quietEngine(
		WithViewer(2, &fakeViewer{name: "b", journal: j}),
		WithViewer(1, &fakeViewer{name: "a", journal: j}),
	)
	e.SetTickCallback(func(float32) { j.add("tick") })

	e.Step(0.016)
	want := []string{"update a", "update b", "tick"}
	if got := j.snapshot(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if keys := e.ViewerKeys(); !slices.Equal(keys, []int{1, 2}) {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestRemovedViewersCloseOnFrameGoroutine(t *testing.T) {
	j := &journal{}
	a := &fakeViewer{name: "a", journal: j}
	b := &fakeViewer{name: "b", journal: j}
	e := quietEngine(WithViewer(1, a))

	e.AddViewer(1, b)
	if a.closed != 0 {
		t.Fatalf("replaced viewer closed outside a tick")
	}
	e.RemoveViewer(1)
	e.RemoveViewer(1)
	if e.Viewer(1) != nil {
		t.Fatalf("viewer still registered")
	}

	e.Step(0.016)
	if a.closed != 1 || b.closed != 1 {
		t.Fatalf("expected each viewer closed once, got a=%d b=%d", a.closed, b.closed)
	}
	if got := j.snapshot(); slices.Contains(got, "update b") {
		t.Fatalf("removed viewer was updated: %v", got)
	}
}

func TestRunHeadlessUntilQuit(t *testing.T) {
	j := &journal{}
	v := &fakeViewer{name: "a", journal: j}
	e := quietEngine(WithTickRate(200), WithViewer(1, v))

	ticks := make(chan struct{}, 1)
	e.SetTickCallback(func(float32) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatalf("engine never ticked")
	}
	e.Quit()
	e.Quit()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after Quit")
	}
	if v.closed != 1 || len(e.ViewerKeys()) != 0 {
		t.Fatalf("Run must close registered viewers, closed=%d", v.closed)
	}
}
