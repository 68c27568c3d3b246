package viewer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-arena/engine/asset"
	"github.com/Carmen-Shannon/oxy-arena/engine/blend"
	"github.com/Carmen-Shannon/oxy-arena/engine/mixer"
	"github.com/Carmen-Shannon/oxy-arena/engine/model"
	"github.com/Carmen-Shannon/oxy-arena/engine/resolver"
)

// ErrClosed is returned by Await after Close.
var ErrClosed = errors.New("viewer: closed")

// Status is the loading state of a viewer.
type Status int

const (
	// StatusLoading waits for both assets of the current sources. It is the initial
	// status and the status after SetSources.
	StatusLoading Status = iota
	// StatusReady has a posed clone and a running controller.
	StatusReady
	// StatusFailed could not acquire an asset; Err reports why.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "Loading"
	case StatusReady:
		return "Ready"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// loadResult carries one generation's acquisitions from the load goroutine to the
// frame goroutine. held lists the keys successfully acquired, one per reference.
type loadResult struct {
	gen    int
	src    Sources
	idle   asset.Handle
	attack asset.Handle
	held   []string
	err    error
}

// viewer is the implementation of the Viewer interface.
type viewer struct {
	cache    asset.Cache
	resolver resolver.Resolver
	logger   *log.Logger

	mixerOpts      []mixer.MixerBuilderOption
	controllerOpts []blend.ControllerBuilderOption

	// load goroutines only touch results and wg
	results chan loadResult
	wg      sync.WaitGroup

	gen        int
	cancelLoad context.CancelFunc

	sources     Sources
	held        []string
	status      Status
	err         error
	scene       *model.Scene
	mixer       mixer.Mixer
	controller  blend.Controller
	diagnostics []error
	closed      bool
}

// Viewer renders one combatant: it holds cache references for an idle and an attack
// asset, poses a skinning-safe clone of the idle asset's scene and drives it with a
// blend controller.
//
// Loads run in the background; every other method, including Update, must be called
// from the frame goroutine.
type Viewer interface {
	// Update installs finished loads and advances the animation by dt seconds.
	//
	// Parameters:
	//   - dt: the frame delta in seconds
	Update(dt float32)

	// Await blocks until the current sources are installed or have failed, installing
	// them on the calling goroutine.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - error: the load error, ctx.Err() or ErrClosed
	Await(ctx context.Context) error

	// SetAttacking forwards the attack intent to the blend controller. It is ignored
	// until the viewer is ready.
	//
	// Parameters:
	//   - attacking: the intent
	SetAttacking(attacking bool)

	// SetSources switches to a new asset pair. The current pose keeps animating until
	// the new pair is installed; the old cache references are released afterwards.
	//
	// Parameters:
	//   - src: the new sources
	SetSources(src Sources)

	// Sources returns the asset pair most recently requested.
	Sources() Sources

	// State returns the blend state, Idle when not ready.
	State() blend.State

	// Status returns the loading state.
	Status() Status

	// Err returns the load error when Status is StatusFailed.
	Err() error

	// Diagnostics returns the clip resolution problems of the installed pair.
	Diagnostics() []error

	// Scene returns the posed clone, or nil when not ready.
	Scene() *model.Scene

	// Close tears down the controller and releases every cache reference exactly once.
	Close()
}

var _ Viewer = &viewer{}

// NewViewer creates a Viewer with the specified options applied and starts acquiring
// both sources from cache.
//
// Parameters:
//   - cache: the shared asset cache
//   - idlePath: the idle source key
//   - attackPath: the attack source key
//   - options: a variadic list of ViewerBuilderOption functions to configure the Viewer
//
// Returns:
//   - Viewer: a new Viewer
func NewViewer(cache asset.Cache, idlePath, attackPath string, options ...ViewerBuilderOption) Viewer {
	v := &viewer{
		cache:   cache,
		logger:  log.Default(),
		results: make(chan loadResult, 1),
	}
	for _, opt := range options {
		opt(v)
	}
	if v.resolver == nil {
		v.resolver = resolver.NewResolver()
	}
	v.SetSources(Sources{Idle: idlePath, Attack: attackPath})
	return v
}

func (v *viewer) Update(dt float32) {
	if v.closed {
		return
	}
drain:
	for {
		select {
		case r := <-v.results:
			v.install(r)
		default:
			break drain
		}
	}
	if v.controller != nil {
		v.controller.Update(dt)
	}
}

func (v *viewer) Await(ctx context.Context) error {
	for {
		if v.closed {
			return ErrClosed
		}
		switch v.status {
		case StatusReady:
			return nil
		case StatusFailed:
			return v.err
		}
		select {
		case r := <-v.results:
			v.install(r)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (v *viewer) SetAttacking(attacking bool) {
	if v.controller != nil {
		v.controller.SetAttacking(attacking)
	}
}

func (v *viewer) SetSources(src Sources) {
	if v.closed {
		return
	}
	if v.cancelLoad != nil {
		v.cancelLoad()
	}
	v.gen++
	v.sources = src
	v.status = StatusLoading
	v.err = nil

	ctx, cancel := context.WithCancel(context.Background())
	v.cancelLoad = cancel
	v.wg.Add(1)
	go v.load(ctx, v.gen, src)
}

func (v *viewer) Sources() Sources {
	return v.sources
}

func (v *viewer) State() blend.State {
	if v.controller == nil {
		return blend.StateIdle
	}
	return v.controller.State()
}

func (v *viewer) Status() Status {
	return v.status
}

func (v *viewer) Err() error {
	return v.err
}

func (v *viewer) Diagnostics() []error {
	return v.diagnostics
}

func (v *viewer) Scene() *model.Scene {
	return v.scene
}

func (v *viewer) Close() {
	if v.closed {
		return
	}
	v.closed = true
	if v.cancelLoad != nil {
		v.cancelLoad()
	}
	// after Wait no goroutine can send, so draining finds every undelivered result
	v.wg.Wait()
drain:
	for {
		select {
		case r := <-v.results:
			v.release(r.held)
		default:
			break drain
		}
	}
	v.teardown()
	v.release(v.held)
	v.held = nil
}

// --- Loading ---

// load acquires both sources concurrently and hands the outcome to the frame goroutine.
func (v *viewer) load(ctx context.Context, gen int, src Sources) {
	defer v.wg.Done()

	keys := src.keys()
	handles := make([]asset.Handle, len(keys))
	errs := make([]error, len(keys))
	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles[i], errs[i] = v.cache.Acquire(ctx, key)
		}()
	}
	wg.Wait()

	r := loadResult{gen: gen, src: src}
	for i, key := range keys {
		if errs[i] == nil {
			r.held = append(r.held, key)
		} else if r.err == nil {
			r.err = fmt.Errorf("viewer: acquire %q: %w", key, errs[i])
		}
	}
	if r.err != nil {
		v.release(r.held)
		r.held = nil
	} else {
		r.idle, r.attack = handles[0], handles[1]
	}

	select {
	case v.results <- r:
	case <-ctx.Done():
		v.release(r.held)
	}
}

func (v *viewer) release(keys []string) {
	for _, key := range keys {
		v.cache.Release(key)
	}
}

// install applies a load result on the frame goroutine.
func (v *viewer) install(r loadResult) {
	if r.gen != v.gen {
		v.release(r.held)
		return
	}
	previous := v.held
	v.held = r.held
	v.teardown()
	defer v.release(previous)

	if r.err != nil {
		v.status = StatusFailed
		v.err = r.err
		v.logger.Printf("[Viewer] failed to load %s / %s: %v", r.src.Idle, r.src.Attack, r.err)
		return
	}

	v.scene = model.SkinnedClone(r.idle.Model.Scene())
	res := v.resolver.Resolve(r.idle.Model.Clips(), r.attack.Model.Clips(), v.scene.NodeNames())
	v.diagnostics = res.Diagnostics
	for _, d := range res.Diagnostics {
		v.logger.Printf("[Viewer] %s: %v", r.src.Idle, d)
	}

	v.mixer = mixer.NewMixer(v.scene, v.mixerOpts...)
	opts := append([]blend.ControllerBuilderOption{blend.WithLogger(v.logger)}, v.controllerOpts...)
	v.controller = blend.NewController(v.mixer, res.Idle, res.Attack, opts...)
	v.status = StatusReady
}

// teardown closes the controller so at most one mixer ever drives a clone.
func (v *viewer) teardown() {
	if v.controller != nil {
		v.controller.Close()
	}
	v.controller = nil
	v.mixer = nil
	v.scene = nil
	v.diagnostics = nil
}
