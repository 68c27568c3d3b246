package engine

import (
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-arena/common"
	"github.com/Carmen-Shannon/oxy-arena/engine/asset"
	"github.com/Carmen-Shannon/oxy-arena/engine/profiler"
	"github.com/Carmen-Shannon/oxy-arena/engine/viewer"
	"github.com/Carmen-Shannon/oxy-arena/engine/window"
)

// engine implements the Engine interface.
// Coordinates the frame goroutine and the window thread.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window window.Window
	cache  asset.Cache
	logger *log.Logger

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)

	// mu guards viewers and retired; the viewers themselves belong to the frame goroutine
	mu      sync.Mutex
	viewers map[int]viewer.Viewer
	retired []viewer.Viewer
}

// Engine is the main entry point for the viewer host.
// It owns the frame goroutine: every registered viewer is updated there once per tick,
// in ascending key order, followed by the tick callback.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance, or nil when running headless
	Window() window.Window

	// Cache returns the asset cache shared by the engine's viewers.
	//
	// Returns:
	//   - asset.Cache: the cache, or nil if none was configured
	Cache() asset.Cache

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick after the viewers
	// have been updated. It runs on the frame goroutine and may call viewer methods.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// AddViewer registers a viewer at the given key, replacing and closing any viewer
	// already registered there.
	//
	// Parameters:
	//   - key: the update order (lower updates first)
	//   - v: the viewer
	AddViewer(key int, v viewer.Viewer)

	// RemoveViewer unregisters the viewer at key. It is closed on the frame goroutine
	// before the next update.
	//
	// Parameters:
	//   - key: the viewer's key
	RemoveViewer(key int)

	// Viewer retrieves the viewer registered at key.
	//
	// Parameters:
	//   - key: the viewer's key
	//
	// Returns:
	//   - viewer.Viewer: the viewer, or nil if not found
	Viewer(key int) viewer.Viewer

	// ViewerKeys returns the registered keys in update order.
	//
	// Returns:
	//   - []int: the sorted keys
	ViewerKeys() []int

	// Step runs one tick synchronously on the calling goroutine. It is for hosts that
	// drive frames themselves and must not be mixed with Run.
	//
	// Parameters:
	//   - deltaTime: the frame delta in seconds
	Step(deltaTime float32)

	// Run starts the frame goroutine and blocks until the window closes or Quit is
	// called. Every viewer still registered is closed before Run returns.
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		viewers:         make(map[int]viewer.Viewer),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}
	e.logger = common.Coalesce(e.logger, log.Default())

	profilerOpts := []profiler.ProfilerBuilderOption{profiler.WithLogger(e.logger)}
	if e.cache != nil {
		profilerOpts = append(profilerOpts, profiler.WithCacheStats(e.cache.Stats))
	}
	e.profiler = profiler.NewProfiler(profilerOpts...)

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Cache() asset.Cache {
	return e.cache
}

func (e *engine) Run() {
	e.running = true
	e.wg.Add(1)
	go e.handleEngine()

	if e.window != nil {
		// the window must be pumped from the thread that created it
		e.window.ProcessMessages()
		e.signalQuit()
	} else {
		<-e.quitChannel
	}
	e.wg.Wait()
	e.running = false
}

// Quit signals all engine goroutines to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate tick loop on the frame goroutine.
// Listens for dynamic rate changes via tickRateChannel and exits when the quit channel is
// closed, closing every viewer on the way out.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer e.closeViewers()
	// Recover from panics inside the frame goroutine to avoid crashing the whole process.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("[Engine] frame goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.Step(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

func (e *engine) Step(deltaTime float32) {
	e.mu.Lock()
	retired := e.retired
	e.retired = nil
	keys := common.SortedKeys(e.viewers)
	active := make([]viewer.Viewer, len(keys))
	for i, k := range keys {
		active[i] = e.viewers[k]
	}
	e.mu.Unlock()

	for _, v := range retired {
		v.Close()
	}
	for _, v := range active {
		v.Update(deltaTime)
	}

	if e.tickCallback != nil {
		e.tickCallback(deltaTime)
	}

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}
}

// closeViewers closes every registered and retired viewer on the frame goroutine.
func (e *engine) closeViewers() {
	e.mu.Lock()
	all := e.retired
	for _, k := range common.SortedKeys(e.viewers) {
		all = append(all, e.viewers[k])
	}
	e.retired = nil
	e.viewers = make(map[int]viewer.Viewer)
	e.mu.Unlock()

	for _, v := range all {
		v.Close()
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if !e.running {
		e.engineTickRate = newRate
		return
	}
	// replace any pending update with the newest rate
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) AddViewer(key int, v viewer.Viewer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if old, ok := e.viewers[key]; ok && old != v {
		e.retired = append(e.retired, old)
	}
	e.viewers[key] = v
}

func (e *engine) RemoveViewer(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.viewers[key]; ok {
		e.retired = append(e.retired, v)
		delete(e.viewers, key)
	}
}

func (e *engine) Viewer(key int) viewer.Viewer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewers[key]
}

func (e *engine) ViewerKeys() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return common.SortedKeys(e.viewers)
}
