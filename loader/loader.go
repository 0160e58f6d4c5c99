package loader

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/argon2-engine/backend"
	"github.com/wippyai/argon2-engine/engine"
	"github.com/wippyai/argon2-engine/errors"
)

// State is the loader's lifecycle position. Transitions are
// Uninitialized -> Loading -> Ready, with Loading -> Failed on error.
// Ready is terminal; Failed is terminal unless retry is enabled.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LinkFunc turns fetched assets into a live engine surface. The default
// wraps engine.Link; tests substitute their own.
type LinkFunc func(ctx context.Context, assets backend.Assets, cfg engine.Config) (engine.Surface, error)

// Config holds the loader's inputs. Zero-valued hooks fall back to the
// real probe, fetcher and linker.
type Config struct {
	Locators backend.Locators

	// MemoryCostKiB sizes the engine's linear memory at link time.
	MemoryCostKiB uint32

	// EnableThreads requests the threads feature for the primary
	// backend when the probe reports support.
	EnableThreads bool

	// Retry allows Failed -> Loading on a subsequent call. Off by
	// default: a failed load is permanent for the process lifetime.
	Retry bool

	Probe func() backend.Capabilities
	Fetch backend.Fetcher
	Link  LinkFunc
}

// Loader owns the process-wide engine lifecycle. All mutation of "is the
// engine ready" funnels through here; everything else only reads the
// surface EnsureReady hands out.
type Loader struct {
	mu       sync.Mutex
	cfg      Config
	selector backend.Selector

	state     State
	settled   chan struct{}
	inst      engine.Surface
	err       error
	startedAt time.Time

	// Instrumentation for tests and diagnostics: completed fetch and
	// link cycles.
	fetches atomic.Int64
	links   atomic.Int64
}

// New creates a loader. Nothing is fetched until the first EnsureReady.
func New(cfg Config) *Loader {
	if cfg.Probe == nil {
		cfg.Probe = backend.Probe
	}
	if cfg.Fetch == nil {
		cfg.Fetch = backend.Fetch
	}
	if cfg.Link == nil {
		cfg.Link = func(ctx context.Context, assets backend.Assets, ecfg engine.Config) (engine.Surface, error) {
			return engine.Link(ctx, assets, ecfg)
		}
	}
	return &Loader{cfg: cfg}
}

// State returns the loader's current lifecycle position.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Fetches returns the number of completed asset-fetch cycles.
func (l *Loader) Fetches() int64 { return l.fetches.Load() }

// Links returns the number of completed link cycles.
func (l *Loader) Links() int64 { return l.links.Load() }

// EnsureReady resolves to the singleton engine surface, initializing it on
// first use. Concurrent callers arriving while a load is in flight share
// that load: for N waiters exactly one fetch and one link occur, and every
// waiter observes the same surface or the same error.
//
// The caller's context cancels only this caller's wait, never the load
// itself; an abandoned call leaves the in-flight work running for the
// next caller.
func (l *Loader) EnsureReady(ctx context.Context) (engine.Surface, error) {
	l.mu.Lock()
	switch l.state {
	case StateReady:
		inst := l.inst
		l.mu.Unlock()
		return inst, nil

	case StateFailed:
		if !l.cfg.Retry {
			err := l.err
			l.mu.Unlock()
			return nil, err
		}
		l.begin(ctx)

	case StateLoading:
		// fall through to wait on the in-flight attempt

	case StateUninitialized:
		l.begin(ctx)
	}
	settled := l.settled
	l.mu.Unlock()

	select {
	case <-settled:
	case <-ctx.Done():
		return nil, errors.Wrap(errors.PhaseLink, errors.KindTimeout, ctx.Err(),
			"canceled while waiting for engine")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateReady {
		return l.inst, nil
	}
	return nil, l.err
}

// begin transitions to Loading and launches the load. Must be called with
// the mutex held; the settle channel is recorded before any blocking work
// so callers racing in behind us observe Loading, never a second
// transition.
func (l *Loader) begin(ctx context.Context) {
	l.state = StateLoading
	l.settled = make(chan struct{})
	l.startedAt = time.Now()
	go l.load(context.WithoutCancel(ctx))
}

func (l *Loader) load(ctx context.Context) {
	caps := l.cfg.Probe()
	kind := l.selector.Select(caps, l.cfg.Locators)

	Logger().Info("loading engine",
		zap.String("backend", kind.String()),
		zap.Bool("simd", caps.SIMD),
		zap.Bool("threads", caps.Threads))

	// Acquire phase: resolve the backend's assets.
	assets, err := backend.FetchAssets(ctx, kind, l.cfg.Locators, l.cfg.Fetch)
	if err != nil {
		l.settle(nil, errors.Fetch("acquire backend assets", err))
		return
	}
	l.fetches.Add(1)

	// Link phase: compile, instantiate, await the ready signal.
	inst, err := l.cfg.Link(ctx, assets, engine.Config{
		Kind:          kind,
		MemoryCostKiB: l.cfg.MemoryCostKiB,
		EnableThreads: l.cfg.EnableThreads && caps.Threads,
	})
	if err != nil {
		l.settle(nil, errors.Link("link backend", err))
		return
	}
	l.links.Add(1)

	l.settle(inst, nil)
}

// settle records the load outcome and fans it out to every waiter.
func (l *Loader) settle(inst engine.Surface, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	elapsed := time.Since(l.startedAt)
	if err != nil {
		l.state = StateFailed
		l.err = err
		Logger().Error("engine load failed",
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	} else {
		l.state = StateReady
		l.inst = inst
		Logger().Info("engine ready",
			zap.String("backend", inst.Kind().String()),
			zap.Duration("elapsed", elapsed))
	}
	close(l.settled)
}
