package asset

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Carmen-Shannon/oxy-arena/engine/loader/gltftest"
	"github.com/Carmen-Shannon/oxy-arena/engine/storage"
)

// manualClock fires timers only when Advance is called.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	fn      func()
	stopped bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && t.at <= c.now {
			t.stopped = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}

// gatedStorage counts reads and holds each read until the gate is closed.
type gatedStorage struct {
	storage.Storage
	reads atomic.Int32
	gate  chan struct{}
}

func (g *gatedStorage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	g.reads.Add(1)
	if g.gate != nil {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.Storage.ReadFile(ctx, path)
}

func fixtureFS() fstest.MapFS {
	return fstest.MapFS{
		"robotA.glb":  {Data: gltftest.Robot(gltftest.Clip("Idle", 2, gltftest.Hips)).GLB()},
		"robotB.glb":  {Data: gltftest.Robot(gltftest.Clip("Punch", 0.6, gltftest.Spine)).GLB()},
		"corrupt.glb": {Data: []byte("glTF but not really")},
	}
}

func newTestCache(t *testing.T, gate chan struct{}, options ...CacheBuilderOption) (Cache, *gatedStorage, *manualClock, *atomic.Int32) {
	t.Helper()
	st := &gatedStorage{Storage: storage.NewStorage(storage.WithFS(fixtureFS())), gate: gate}
	clock := &manualClock{}
	disposed := &atomic.Int32{}
	opts := append([]CacheBuilderOption{
		WithStorage(st),
		WithClock(clock),
		WithGracePeriod(30 * time.Second),
		WithWorkers(2),
		WithLogger(log.New(io.Discard, "", 0)),
		WithDisposeHook(func(Handle) { disposed.Add(1) }),
	}, options...)
	c := NewCache(opts...)
	t.Cleanup(func() { _ = c.Close() })
	return c, st, clock, disposed
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAcquireReleaseGracePeriod(t *testing.T) {
	c, st, clock, disposed := newTestCache(t, nil)
	ctx := context.Background()

	h, err := c.Acquire(ctx, "robotA.glb")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if h.Model == nil || h.Model.Clip("Idle") == nil || h.ObjectURL == "" {
		t.Fatalf("unexpected handle %+v", h)
	}

	c.Release("robotA.glb")
	clock.Advance(29 * time.Second)
	if disposed.Load() != 0 {
		t.Fatalf("disposed before grace period elapsed")
	}

	// re-acquire inside the grace period cancels eviction and reuses the handle
	h2, err := c.Acquire(ctx, "robotA.glb")
	if err != nil {
		t.Fatalf("re-Acquire failed: %v", err)
	}
	if h2.Model != h.Model || st.reads.Load() != 1 {
		t.Fatalf("expected cached handle, reads=%d", st.reads.Load())
	}
	clock.Advance(5 * time.Second)
	if disposed.Load() != 0 {
		t.Fatalf("stale timer disposed a referenced entry")
	}

	c.Release("robotA.glb")
	clock.Advance(31 * time.Second)
	if disposed.Load() != 1 {
		t.Fatalf("expected exactly one disposal, got %d", disposed.Load())
	}
	if s := c.Stats(); s.Entries != 0 || s.Disposals != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}

	// a later acquire loads again
	if _, err := c.Acquire(ctx, "robotA.glb"); err != nil {
		t.Fatalf("Acquire after eviction failed: %v", err)
	}
	if st.reads.Load() != 2 {
		t.Fatalf("expected a fresh load after eviction, reads=%d", st.reads.Load())
	}
}

func TestAcquireTwiceReleaseTwiceDisposesOnce(t *testing.T) {
	c, _, clock, disposed := newTestCache(t, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.Acquire(ctx, "robotA.glb"); err != nil {
			t.Fatalf("Acquire %d failed: %v", i, err)
		}
	}
	c.Release("robotA.glb")
	c.Release("robotA.glb")
	c.Release("robotA.glb") // extra release floors at zero

	if s := c.Stats(); s.References != 0 || s.Entries != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
	clock.Advance(time.Minute)
	clock.Advance(time.Minute)
	if disposed.Load() != 1 {
		t.Fatalf("expected one disposal, got %d", disposed.Load())
	}
}

func TestSingleFlightAcquire(t *testing.T) {
	gate := make(chan struct{})
	c, st, _, _ := newTestCache(t, gate)

	const n = 8
	var wg sync.WaitGroup
	handles := make([]Handle, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], errs[i] = c.Acquire(context.Background(), "robotB.glb")
		}(i)
	}

	waitFor(t, "all waiters registered", func() bool { return c.Stats().References == n })
	if s := c.Stats(); s.Pending != 1 || s.Loads != 1 {
		t.Fatalf("expected one pending load, got %+v", s)
	}
	close(gate)
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("waiter %d failed: %v", i, errs[i])
		}
		if handles[i].Model != handles[0].Model {
			t.Fatalf("waiter %d got a different model", i)
		}
	}
	if st.reads.Load() != 1 {
		t.Fatalf("expected one read, got %d", st.reads.Load())
	}
}

func TestLoadFailureReachesEveryWaiterAndRetries(t *testing.T) {
	gate := make(chan struct{})
	c, st, _, _ := newTestCache(t, gate)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := c.Acquire(context.Background(), "corrupt.glb")
			errs <- err
		}()
	}
	waitFor(t, "both waiters registered", func() bool { return c.Stats().References == 2 })
	close(gate)

	for i := 0; i < 2; i++ {
		err := <-errs
		var le *LoadError
		if !errors.As(err, &le) || le.Key != "corrupt.glb" || le.Op != "decode" {
			t.Fatalf("expected decode LoadError, got %v", err)
		}
		if !errors.Is(err, ErrLoad) {
			t.Fatalf("LoadError must match ErrLoad")
		}
	}
	if s := c.Stats(); s.Entries != 0 || s.Failures != 1 {
		t.Fatalf("failed entry must be removed: %+v", s)
	}

	// a later acquire retries instead of caching the failure
	_, err := c.Acquire(context.Background(), "corrupt.glb")
	if !errors.Is(err, ErrLoad) || st.reads.Load() != 2 {
		t.Fatalf("expected retry, reads=%d err=%v", st.reads.Load(), err)
	}

	_, err = c.Acquire(context.Background(), "missing.glb")
	var le *LoadError
	if !errors.As(err, &le) || le.Op != "read" {
		t.Fatalf("expected read LoadError, got %v", err)
	}
}

func TestCanceledWaiterAbandonsOnlyItsReference(t *testing.T) {
	gate := make(chan struct{})
	c, _, clock, disposed := newTestCache(t, gate)

	ctx, cancel := context.WithCancel(context.Background())
	canceled := make(chan error, 1)
	go func() {
		_, err := c.Acquire(ctx, "robotA.glb")
		canceled <- err
	}()
	kept := make(chan error, 1)
	go func() {
		_, err := c.Acquire(context.Background(), "robotA.glb")
		kept <- err
	}()
	waitFor(t, "both waiters registered", func() bool { return c.Stats().References == 2 })

	cancel()
	if err := <-canceled; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	close(gate)
	if err := <-kept; err != nil {
		t.Fatalf("remaining waiter failed: %v", err)
	}
	if s := c.Stats(); s.References != 1 {
		t.Fatalf("expected one live reference, got %+v", s)
	}
	clock.Advance(time.Minute)
	if disposed.Load() != 0 {
		t.Fatalf("entry disposed while still referenced")
	}
}

func TestOrphanedLoadParksWithTimer(t *testing.T) {
	gate := make(chan struct{})
	c, _, clock, disposed := newTestCache(t, gate)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_, _ = c.Acquire(ctx, "robotA.glb")
		close(done)
	}()
	waitFor(t, "waiter registered", func() bool { return c.Stats().References == 1 })
	cancel()
	<-done
	close(gate)

	waitFor(t, "load to finish", func() bool { return c.Stats().Pending == 0 })
	if s := c.Stats(); s.Entries != 1 || s.References != 0 {
		t.Fatalf("expected parked entry, got %+v", s)
	}
	clock.Advance(time.Minute)
	if disposed.Load() != 1 {
		t.Fatalf("parked entry was not evicted")
	}
}

func TestCloseDisposesEachHandleOnce(t *testing.T) {
	c, st, clock, disposed := newTestCache(t, nil)
	ctx := context.Background()

	if _, err := c.Acquire(ctx, "robotA.glb"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if _, err := c.Acquire(ctx, "robotB.glb"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	c.Release("robotB.glb")

	_ = c.Close()
	_ = c.Close()
	clock.Advance(time.Hour)

	if disposed.Load() != 2 {
		t.Fatalf("expected 2 disposals, got %d", disposed.Load())
	}
	if st.ObjectCount() != 0 {
		t.Fatalf("object URLs leaked: %d", st.ObjectCount())
	}
	if _, err := c.Acquire(ctx, "robotA.glb"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	c.Release("robotA.glb")
}
