package asset

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-arena/engine/loader"
	"github.com/Carmen-Shannon/oxy-arena/engine/model"
	"github.com/Carmen-Shannon/oxy-arena/engine/storage"
)

// DefaultGracePeriod is how long an unreferenced entry survives before disposal.
const DefaultGracePeriod = 30 * time.Second

// Handle is a decoded, shareable model plus the bookkeeping needed to dispose it.
// The Model is read-only for holders: clone its scene and copy its clips before mutating.
type Handle struct {
	// Key is the resource key the handle was acquired with.
	Key string

	// Model is the decoded model.
	Model model.Model

	// ObjectURL is the in-memory object reference the model was decoded from. It stays
	// registered until the handle is disposed.
	ObjectURL string

	// Size is the byte size of the source file.
	Size int
}

// Stats is a point-in-time snapshot of cache occupancy and lifetime counters.
type Stats struct {
	// Entries is the number of keys present, realized or pending.
	Entries int

	// Pending is the number of keys whose load has not finished.
	Pending int

	// References is the sum of reference counts over all entries.
	References int

	// Loads counts load pipelines started.
	Loads uint64

	// Failures counts load pipelines that ended in a *LoadError.
	Failures uint64

	// Disposals counts handles disposed, by eviction or Close.
	Disposals uint64
}

// entry is the per-key cache record. All fields except done are guarded by cache.mu;
// handle and err are written once before done is closed.
type entry struct {
	done     chan struct{}
	ready    bool
	handle   Handle
	err      error
	refCount int
	timer    Timer
	timerSeq uint64
	disposed bool
}

// cache is the implementation of the Cache interface.
type cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
	seq     uint64
	taskID  int

	storage   storage.Storage
	loader    loader.Loader
	clock     Clock
	grace     time.Duration
	logger    *log.Logger
	onDispose func(Handle)

	workers int
	pool    worker.DynamicWorkerPool

	ctx    context.Context
	cancel context.CancelFunc

	loads, failures, disposals uint64
}

// Cache shares decoded models between any number of holders. Each key is loaded at most
// once while it is present: concurrent Acquire calls for the same key wait on the same
// load. Holders pair every successful Acquire with exactly one Release; when the last
// reference is released the entry is disposed after a grace period unless it is acquired
// again first.
//
// All methods are safe for concurrent use.
type Cache interface {
	// Acquire returns the handle for key, loading it if needed, and takes one reference.
	// If ctx ends while the load is in flight, only this caller's reference is abandoned;
	// the load continues for any other waiters.
	//
	// Parameters:
	//   - ctx: bounds how long this caller waits
	//   - key: the resource key (a file path)
	//
	// Returns:
	//   - Handle: the shared handle
	//   - error: a *LoadError if the load failed, ErrClosed after Close, or ctx.Err()
	Acquire(ctx context.Context, key string) (Handle, error)

	// Release drops one reference to key. The count never goes below zero, and releasing
	// an unknown key is a no-op. When the count reaches zero the eviction timer is armed.
	//
	// Parameters:
	//   - key: the resource key
	Release(key string)

	// Stats returns a snapshot of cache occupancy and counters.
	//
	// Returns:
	//   - Stats: the snapshot
	Stats() Stats

	// Close cancels all timers and in-flight reads, disposes every realized handle
	// exactly once and rejects future Acquire calls with ErrClosed. Close is idempotent.
	//
	// Returns:
	//   - error: always nil; present to satisfy io.Closer
	Close() error
}

var _ Cache = &cache{}

// NewCache creates a new Cache with the specified options applied.
//
// Parameters:
//   - options: a variadic list of CacheBuilderOption functions to configure the Cache
//
// Returns:
//   - Cache: a new instance of Cache configured with the provided options
func NewCache(options ...CacheBuilderOption) Cache {
	c := &cache{
		entries: make(map[string]*entry),
		clock:   realClock{},
		grace:   DefaultGracePeriod,
		logger:  log.Default(),
		workers: max(runtime.NumCPU()-1, 1),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.storage == nil {
		c.storage = storage.NewStorage()
	}
	if c.loader == nil {
		c.loader = loader.NewLoader(loader.BackendTypeGLTF, loader.WithLogger(c.logger))
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	// Queue size of 256 leaves room for a burst of distinct keys requested in one frame.
	c.pool = worker.NewDynamicWorkerPool(c.workers, 256, 1*time.Second)
	return c
}

func (c *cache) Acquire(ctx context.Context, key string) (Handle, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Handle{}, ErrClosed
	}

	e, ok := c.entries[key]
	taskID := 0
	if !ok {
		e = &entry{done: make(chan struct{})}
		c.entries[key] = e
		c.loads++
		c.taskID++
		taskID = c.taskID
	}
	c.disarm(e)
	e.refCount++
	if e.ready {
		h := e.handle
		c.mu.Unlock()
		return h, nil
	}
	c.mu.Unlock()

	// submitted outside the lock: a full queue must not stall finishing workers
	if taskID != 0 {
		c.submit(taskID, key, e)
	}

	select {
	case <-e.done:
		if e.err != nil {
			return Handle{}, e.err
		}
		return e.handle, nil
	case <-ctx.Done():
		c.release(key, e)
		return Handle{}, fmt.Errorf("acquire %s: %w", key, ctx.Err())
	}
}

func (c *cache) Release(key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return
	}
	c.release(key, e)
}

// release drops one reference from e, provided e is still the live entry for key.
func (c *cache) release(key string, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[key] != e {
		return
	}
	if e.refCount > 0 {
		e.refCount--
	}
	if e.refCount == 0 && e.ready {
		c.arm(key, e)
	}
}

func (c *cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Entries:   len(c.entries),
		Loads:     c.loads,
		Failures:  c.failures,
		Disposals: c.disposals,
	}
	for _, e := range c.entries {
		if !e.ready {
			s.Pending++
		}
		s.References += e.refCount
	}
	return s
}

func (c *cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true

	var disposed []Handle
	for key, e := range c.entries {
		c.disarm(e)
		if e.ready && c.markDisposed(e) {
			disposed = append(disposed, e.handle)
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()

	c.cancel()
	for _, h := range disposed {
		c.dispose(h)
	}
	c.logger.Printf("[Asset] cache closed, %d handles disposed", len(disposed))
	return nil
}

// --- Load Pipeline ---

// submit queues the load of key on the worker pool.
func (c *cache) submit(id int, key string, e *entry) {
	c.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			h, err := c.load(key)
			c.finish(key, e, h, err)
			return nil, err
		},
	})
}

// load runs read → object URL → decode for key.
func (c *cache) load(key string) (Handle, error) {
	start := time.Now()

	data, err := c.storage.ReadFile(c.ctx, key)
	if err != nil {
		return Handle{}, &LoadError{Key: key, Op: "read", Err: err}
	}

	url := c.storage.CreateObjectURL(data)
	r, err := c.storage.Open(url)
	if err != nil {
		c.storage.RevokeObjectURL(url)
		return Handle{}, &LoadError{Key: key, Op: "open", Err: err}
	}
	m, err := c.loader.LoadReader(key, r)
	_ = r.Close()
	if err != nil {
		c.storage.RevokeObjectURL(url)
		return Handle{}, &LoadError{Key: key, Op: "decode", Err: err}
	}

	c.logger.Printf("[Asset] loaded %s (%d bytes, %d clips) in %v", key, len(data), m.ClipCount(), time.Since(start).Round(time.Millisecond))
	return Handle{Key: key, Model: m, ObjectURL: url, Size: len(data)}, nil
}

// finish publishes the outcome of a load to every waiter on e.
func (c *cache) finish(key string, e *entry, h Handle, err error) {
	c.mu.Lock()

	live := c.entries[key] == e
	switch {
	case err != nil:
		c.failures++
		e.err = err
		if live {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		close(e.done)
		c.logger.Printf("[Asset] %v", err)
		return

	case c.closed || !live:
		e.err = ErrClosed
		e.handle = h
		c.markDisposed(e)
		c.mu.Unlock()
		close(e.done)
		c.dispose(h)
		return
	}

	e.handle = h
	e.ready = true
	if e.refCount == 0 {
		// every waiter gave up; park the handle so a quick retry still hits
		c.arm(key, e)
	}
	c.mu.Unlock()
	close(e.done)
}

// --- Eviction ---

// arm (re)starts the eviction timer of e. Must be called with c.mu held.
func (c *cache) arm(key string, e *entry) {
	c.disarm(e)
	c.seq++
	seq := c.seq
	e.timerSeq = seq
	e.timer = c.clock.AfterFunc(c.grace, func() {
		c.expire(key, e, seq)
	})
}

// disarm stops the eviction timer of e, if any. Must be called with c.mu held.
func (c *cache) disarm(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.timerSeq = 0
}

// expire disposes e if it is still the live, unreferenced entry for key and seq is
// still its armed timer. A stale timer that fires after re-acquisition does nothing.
func (c *cache) expire(key string, e *entry, seq uint64) {
	c.mu.Lock()
	if c.entries[key] != e || e.timerSeq != seq || e.refCount != 0 || !e.ready {
		c.mu.Unlock()
		return
	}
	e.timer = nil
	e.timerSeq = 0
	delete(c.entries, key)
	ok := c.markDisposed(e)
	c.mu.Unlock()

	if ok {
		c.dispose(e.handle)
		c.logger.Printf("[Asset] evicted %s after %v idle", key, c.grace)
	}
}

// markDisposed flips e to disposed and counts it. It reports false if e was already
// disposed. Must be called with c.mu held.
func (c *cache) markDisposed(e *entry) bool {
	if e.disposed {
		return false
	}
	e.disposed = true
	c.disposals++
	return true
}

// dispose releases the resources held by h. Called without c.mu held.
func (c *cache) dispose(h Handle) {
	if h.ObjectURL != "" {
		c.storage.RevokeObjectURL(h.ObjectURL)
	}
	if c.onDispose != nil {
		c.onDispose(h)
	}
}
