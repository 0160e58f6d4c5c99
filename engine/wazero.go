package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	argon2engine "github.com/wippyai/argon2-engine"
	"github.com/wippyai/argon2-engine/backend"
	"github.com/wippyai/argon2-engine/errors"
)

// Export names of the engine's native surface.
const (
	exportHash      = "argon2_hash_ext"
	exportErrorMsg  = "argon2_error_message"
	exportMalloc    = "malloc"
	exportFree      = "free"
	exportInit      = "_initialize"
	exportReadyFlag = "argon2_ready"

	shimModuleName = "env"
)

// Linear-memory sizing. The requested working set is scaled to page
// granularity with a fixed margin of reserved pages on top, then clamped
// to the platform ceiling.
const (
	pageSizeKiB   = 64
	reservedPages = 16
	maxPages      = 65536 // 4 GiB
)

// Config holds configuration for linking one engine instance.
type Config struct {
	Kind backend.Kind

	// MemoryCostKiB sizes the instance's linear-memory ceiling from the
	// expected working set. 0 means the platform maximum.
	MemoryCostKiB uint32

	// EnableThreads enables the WebAssembly threads proposal for the
	// primary backend. Ignored for the fallback.
	EnableThreads bool
}

// MemoryLimitPages converts the working-set request to a page limit.
func (c Config) MemoryLimitPages() uint32 {
	if c.MemoryCostKiB == 0 {
		return maxPages
	}
	pages := (uint64(c.MemoryCostKiB) + pageSizeKiB - 1) / pageSizeKiB
	pages += reservedPages
	if pages > maxPages {
		pages = maxPages
	}
	return uint32(pages)
}

func runtimeConfig(cfg Config) wazero.RuntimeConfig {
	var rc wazero.RuntimeConfig
	switch cfg.Kind {
	case backend.Primary:
		rc = wazero.NewRuntimeConfigCompiler()
		if cfg.EnableThreads {
			rc = rc.WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads)
		}
	default:
		rc = wazero.NewRuntimeConfigInterpreter()
	}
	return rc.WithMemoryLimitPages(cfg.MemoryLimitPages())
}

// Instance is a linked engine: a running wasm module with its native
// surface bound. Exactly one Instance exists per process once the loader
// has created it.
//
// The guest is single-threaded; every entry into it (hash, error lookup,
// malloc, free) is serialized on one mutex.
type Instance struct {
	kind    backend.Kind
	runtime wazero.Runtime
	module  api.Module
	mem     *LinearMemory
	alloc   *guestAllocator
	hashFn  api.Function
	errFn   api.Function
	guestMu sync.Mutex
	ready   atomic.Bool
}

// Link compiles and instantiates the fetched backend assets, waits for the
// engine's own readiness signal, and returns a ready Instance. On failure
// the partially built runtime is torn down and the error names the failing
// step.
func Link(ctx context.Context, assets backend.Assets, cfg Config) (*Instance, error) {
	r := wazero.NewRuntimeWithConfig(ctx, runtimeConfig(cfg))

	inst, err := link(ctx, r, assets, cfg)
	if err != nil {
		_ = r.Close(ctx)
		return nil, err
	}
	return inst, nil
}

func link(ctx context.Context, r wazero.Runtime, assets backend.Assets, cfg Config) (*Instance, error) {
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		return nil, errors.Link("instantiate WASI", err)
	}

	// The primary binary imports glue from "env"; the shim must be live
	// before the main module links against it.
	if len(assets.Shim) > 0 {
		shim, err := r.CompileModule(ctx, assets.Shim)
		if err != nil {
			return nil, errors.Link("compile shim", err)
		}
		if _, err := r.InstantiateModule(ctx, shim, wazero.NewModuleConfig().WithName(shimModuleName)); err != nil {
			return nil, errors.Link("instantiate shim", err)
		}
	}

	compiled, err := r.CompileModule(ctx, assets.Binary)
	if err != nil {
		return nil, errors.Link("compile backend binary", err)
	}

	mod, err := r.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName("argon2").WithStartFunctions())
	if err != nil {
		return nil, errors.Link("instantiate backend binary", err)
	}

	// Reactor-model builds signal init completion by returning from
	// _initialize.
	if initFn := mod.ExportedFunction(exportInit); initFn != nil {
		if _, err := initFn.Call(ctx); err != nil {
			return nil, errors.Link("run engine initializer", err)
		}
	}

	inst := &Instance{
		kind:    cfg.Kind,
		runtime: r,
		module:  mod,
	}

	if err := inst.bindExports(); err != nil {
		return nil, err
	}
	if err := inst.awaitReady(ctx); err != nil {
		return nil, err
	}

	inst.ready.Store(true)
	Logger().Info("engine linked",
		zap.String("backend", cfg.Kind.String()),
		zap.Uint32("memory_limit_pages", cfg.MemoryLimitPages()))
	return inst, nil
}

func (i *Instance) bindExports() error {
	mem := i.module.Memory()
	if mem == nil {
		return errors.Link("backend binary exports no memory", nil)
	}
	i.mem = &LinearMemory{mem: mem}

	i.hashFn = i.module.ExportedFunction(exportHash)
	if i.hashFn == nil {
		return errors.Link("backend binary does not export "+exportHash, nil)
	}
	i.errFn = i.module.ExportedFunction(exportErrorMsg)

	allocFn := i.module.ExportedFunction(exportMalloc)
	if allocFn == nil {
		return errors.Link("backend binary does not export "+exportMalloc, nil)
	}
	i.alloc = &guestAllocator{
		allocFn:  allocFn,
		freeFn:   i.module.ExportedFunction(exportFree),
		stackBuf: make([]uint64, 2),
		mu:       &i.guestMu,
	}
	return nil
}

// Readiness deferral for the window where the module object exists but the
// guest has not yet flagged itself fully linked.
const (
	readyPollInterval = 10 * time.Millisecond
	readyPollMax      = 50
)

// awaitReady waits for the engine's initialization-complete signal. Builds
// without an explicit ready flag are considered ready once instantiation
// and the initializer returned; builds with one are polled on a short
// bounded deferral.
func (i *Instance) awaitReady(ctx context.Context) error {
	readyFn := i.module.ExportedFunction(exportReadyFlag)
	if readyFn == nil {
		return nil
	}

	for attempt := 0; ; attempt++ {
		res, err := readyFn.Call(ctx)
		if err != nil {
			return errors.Link("query engine ready flag", err)
		}
		if len(res) > 0 && res[0] != 0 {
			return nil
		}
		if attempt >= readyPollMax {
			return errors.Wrap(errors.PhaseLink, errors.KindTimeout, nil,
				"engine never signalled readiness")
		}
		select {
		case <-ctx.Done():
			return errors.Link("wait for engine readiness", ctx.Err())
		case <-time.After(readyPollInterval):
		}
	}
}

func (i *Instance) Kind() backend.Kind { return i.kind }

func (i *Instance) Ready() bool { return i.ready.Load() }

func (i *Instance) Memory() argon2engine.Memory { return i.mem }

func (i *Instance) Allocator() argon2engine.Allocator { return i.alloc }

// Hash invokes the native hashing function. The returned status is the
// engine's own; a non-nil error means the call trapped or faulted at the
// host level before a status was produced.
func (i *Instance) Hash(ctx context.Context, call HashCall) (int32, error) {
	if !i.ready.Load() {
		return 0, errors.NotInitialized(errors.PhaseCompute, "engine")
	}

	i.guestMu.Lock()
	defer i.guestMu.Unlock()

	res, err := i.hashFn.Call(ctx,
		uint64(call.TimeCost),
		uint64(call.MemoryCostKiB),
		uint64(call.Parallelism),
		uint64(call.PasswordPtr),
		uint64(call.PasswordLen),
		uint64(call.SaltPtr),
		uint64(call.SaltLen),
		uint64(call.HashPtr),
		uint64(call.HashLen),
		uint64(call.EncodedPtr),
		uint64(call.EncodedCap),
		uint64(call.Variant),
		uint64(call.Version),
	)
	if err != nil {
		return 0, err
	}
	if len(res) == 0 {
		return 0, errors.Wrap(errors.PhaseCompute, errors.KindInvalidData, nil,
			"hash export returned no status")
	}
	return int32(uint32(res[0])), nil
}

// ErrorMessage resolves a status code via the engine's own lookup export.
func (i *Instance) ErrorMessage(ctx context.Context, code int32) string {
	if i.errFn == nil || !i.ready.Load() {
		return ""
	}

	i.guestMu.Lock()
	defer i.guestMu.Unlock()

	res, err := i.errFn.Call(ctx, uint64(uint32(code)))
	if err != nil || len(res) == 0 {
		return ""
	}
	msg, err := ReadCString(i.mem, uint32(res[0]), 256)
	if err != nil {
		Logger().Warn("read engine error message",
			zap.Int32("status", code), zap.Error(err))
		return ""
	}
	return msg
}

// Close tears the runtime down. The loader never calls this during normal
// operation; it exists for tests and short-lived tools.
func (i *Instance) Close(ctx context.Context) error {
	i.ready.Store(false)
	return i.runtime.Close(ctx)
}

var _ Surface = (*Instance)(nil)
