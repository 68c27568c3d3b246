package viewer

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Carmen-Shannon/oxy-arena/engine/asset"
	"github.com/Carmen-Shannon/oxy-arena/engine/blend"
	"github.com/Carmen-Shannon/oxy-arena/engine/loader/gltftest"
	"github.com/Carmen-Shannon/oxy-arena/engine/resolver"
	"github.com/Carmen-Shannon/oxy-arena/engine/storage"
)

var quiet = log.New(io.Discard, "", 0)

func newTestCache(t *testing.T) asset.Cache {
	t.Helper()
	tail := gltftest.Asset{
		Nodes: []gltftest.Node{{Name: "Tail"}},
		Roots: []int{0},
		Animations: []gltftest.Animation{{
			Name: "Whip",
			Channels: []gltftest.Channel{{
				Node:   0,
				Path:   "rotation",
				Times:  []float32{0, 1},
				Values: []float32{0, 0, 0, 1, 0, 0, 0, 1},
			}},
		}},
	}
	fsys := fstest.MapFS{
		"robotA.glb":       {Data: gltftest.Robot(gltftest.Clip("Idle", 2, gltftest.Hips)).GLB()},
		"robotB.glb":       {Data: gltftest.Robot(gltftest.Clip("Punch", 0.6, gltftest.Spine)).GLB()},
		"static.glb":       {Data: gltftest.Robot().GLB()},
		"tail.glb":         {Data: tail.GLB()},
		"task1_idle.glb":   {Data: gltftest.Robot(gltftest.Clip("Breathing", 2, gltftest.Spine)).GLB()},
		"task1_attack.glb": {Data: gltftest.Robot(gltftest.Clip("Kick", 0.8, gltftest.Head)).GLB()},
	}
	c := asset.NewCache(
		asset.WithStorage(storage.NewStorage(storage.WithFS(fsys))),
		asset.WithGracePeriod(time.Hour),
		asset.WithWorkers(2),
		asset.WithLogger(quiet),
	)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func await(t *testing.T, v Viewer) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return v.Await(ctx)
}

func TestOverlappingViewersShareHandles(t *testing.T) {
	c := newTestCache(t)
	v1 := NewViewer(c, "robotA.glb", "robotB.glb", WithLogger(quiet))
	v2 := NewViewer(c, "robotA.glb", "robotA.glb", WithLogger(quiet))

	if err := await(t, v1); err != nil {
		t.Fatalf("v1 failed: %v", err)
	}
	if err := await(t, v2); err != nil {
		t.Fatalf("v2 failed: %v", err)
	}

	s := c.Stats()
	if s.Loads != 2 || s.References != 4 {
		t.Fatalf("expected 2 loads and 4 references, got %+v", s)
	}
	if v1.Scene() == nil || v1.Scene() == v2.Scene() {
		t.Fatalf("each viewer must pose its own clone")
	}
	if len(v1.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics %v", v1.Diagnostics())
	}

	v1.SetAttacking(true)
	v1.Update(0.05)
	if v1.State() != blend.StateAttacking || v2.State() != blend.StateIdle {
		t.Fatalf("intent leaked between viewers: %s / %s", v1.State(), v2.State())
	}

	v1.Close()
	v1.Close()
	if s := c.Stats(); s.References != 2 {
		t.Fatalf("expected v2's 2 references to remain, got %+v", s)
	}
	v2.Close()
	if s := c.Stats(); s.References != 0 || s.Entries != 2 {
		t.Fatalf("expected parked entries with no references, got %+v", s)
	}
}

func TestAnimationRunsOnClone(t *testing.T) {
	c := newTestCache(t)
	v := NewViewer(c, "robotA.glb", "robotB.glb", WithLogger(quiet))
	defer v.Close()
	if err := await(t, v); err != nil {
		t.Fatalf("Await failed: %v", err)
	}

	hips := v.Scene().Find("Hips")
	rest := hips.Rest.Rotation
	for i := 0; i < 10; i++ {
		v.Update(0.05)
	}
	if hips.Local.Rotation == rest {
		t.Fatalf("idle did not animate the clone")
	}
	if hips.Local.Translation != hips.Rest.Translation {
		t.Fatalf("root motion was not stripped: %v", hips.Local.Translation)
	}

	h, err := c.Acquire(context.Background(), "robotA.glb")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer c.Release("robotA.glb")
	if cached := h.Model.Scene().Find("Hips"); cached.Local != cached.Rest {
		t.Fatalf("animating the clone mutated the cached scene")
	}
}

func TestLoadFailureReleasesOtherKey(t *testing.T) {
	c := newTestCache(t)
	v := NewViewer(c, "missing.glb", "robotA.glb", WithLogger(quiet))
	defer v.Close()

	err := await(t, v)
	if !errors.Is(err, asset.ErrLoad) || v.Status() != StatusFailed || v.Err() == nil {
		t.Fatalf("expected a failed viewer, got %v (%s)", err, v.Status())
	}
	if s := c.Stats(); s.References != 0 {
		t.Fatalf("failed viewer kept references: %+v", s)
	}
	v.SetAttacking(true)
	v.Update(0.05)
	if v.Scene() != nil || v.State() != blend.StateIdle {
		t.Fatalf("failed viewer should render nothing")
	}
}

func TestDegradedClipsAreDiagnostics(t *testing.T) {
	c := newTestCache(t)

	v := NewViewer(c, "robotA.glb", "tail.glb", WithLogger(quiet))
	defer v.Close()
	if err := await(t, v); err != nil {
		t.Fatalf("incompatible attack must not fail the viewer: %v", err)
	}
	var rig *resolver.IncompatibleRigError
	if len(v.Diagnostics()) != 1 || !errors.As(v.Diagnostics()[0], &rig) || rig.Clip != "Whip" {
		t.Fatalf("expected an incompatible rig diagnostic, got %v", v.Diagnostics())
	}
	v.SetAttacking(true)
	if v.State() != blend.StateIdle {
		t.Fatalf("attack without a compatible clip should be a no-op")
	}

	s := NewViewer(c, "static.glb", "static.glb", WithLogger(quiet))
	defer s.Close()
	if err := await(t, s); err != nil {
		t.Fatalf("clipless asset must not fail the viewer: %v", err)
	}
	if len(s.Diagnostics()) != 2 || s.Scene() == nil {
		t.Fatalf("expected a static pose with two diagnostics, got %v", s.Diagnostics())
	}
}

func TestSetSourcesSwapsAndReleases(t *testing.T) {
	c := newTestCache(t)
	v := NewViewer(c, "robotA.glb", "robotB.glb", WithLogger(quiet))
	defer v.Close()
	if err := await(t, v); err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	first := v.Scene()

	src := PairFromTask("", "task1")
	v.SetSources(src)
	if v.Status() != StatusLoading || v.Scene() != first {
		t.Fatalf("old pose should keep rendering while the new pair loads")
	}
	if err := await(t, v); err != nil {
		t.Fatalf("Await after SetSources failed: %v", err)
	}
	if v.Scene() == first || v.Sources() != src {
		t.Fatalf("sources were not swapped")
	}
	if s := c.Stats(); s.References != 2 {
		t.Fatalf("expected only the new pair to be referenced, got %+v", s)
	}
}

func TestCloseBeforeInstall(t *testing.T) {
	c := newTestCache(t)
	v := NewViewer(c, "robotA.glb", "robotB.glb", WithLogger(quiet))
	v.Close()

	if s := c.Stats(); s.References != 0 {
		t.Fatalf("Close leaked references: %+v", s)
	}
	if err := v.Await(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestPairFromTask(t *testing.T) {
	got := PairFromTask("assets/models", "task1")
	want := Sources{Idle: "assets/models/task1_idle.glb", Attack: "assets/models/task1_attack.glb"}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
