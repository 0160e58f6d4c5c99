package hasher

import (
	"context"
	"encoding/hex"

	"go.uber.org/zap"

	argon2engine "github.com/wippyai/argon2-engine"
	"github.com/wippyai/argon2-engine/arena"
	"github.com/wippyai/argon2-engine/engine"
	"github.com/wippyai/argon2-engine/errors"
	"github.com/wippyai/argon2-engine/loader"
)

// Hasher is the public entry point. It owns a loader and lazily brings the
// engine up on the first call; all Hashers sharing one loader share one
// engine.
type Hasher struct {
	loader *loader.Loader
}

// New creates a Hasher. The engine is not touched until the first Hash.
func New(opts ...Option) *Hasher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Hasher{loader: loader.New(o.loaderConfig())}
}

// Loader exposes the underlying lifecycle for diagnostics.
func (h *Hasher) Loader() *loader.Loader {
	return h.loader
}

// Hash computes an Argon2 hash. It validates and defaults params, waits
// for the singleton engine (initializing it on first use), and runs one
// scoped allocate/compute/decode/release cycle against it.
//
// Success and failure are mutually exclusive: a non-nil error means no
// result, and a failed call never corrupts the engine for future calls.
func (h *Hasher) Hash(ctx context.Context, params argon2engine.HashParams) (*argon2engine.HashResult, error) {
	p := params.WithDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	surf, err := h.loader.EnsureReady(ctx)
	if err != nil {
		return nil, err
	}
	return compute(ctx, surf, p)
}

// compute runs the invocation against a ready surface. Buffers are carved
// from the engine's linear memory and released exactly once on every exit
// path; a host-level failure during the call is captured, never allowed to
// escape past the release.
func compute(ctx context.Context, surf engine.Surface, p argon2engine.HashParams) (*argon2engine.HashResult, error) {
	if !surf.Ready() {
		return nil, errors.NotInitialized(errors.PhaseCompute, "engine")
	}

	mem := surf.Memory()
	buffers := arena.NewList(mem, surf.Allocator())
	defer buffers.FreeAndRelease()

	password, err := buffers.Push(p.Password)
	if err != nil {
		return nil, err
	}
	salt, err := buffers.Push(p.Salt)
	if err != nil {
		return nil, err
	}
	hashBuf, err := buffers.PushZero(p.HashLength)
	if err != nil {
		return nil, err
	}
	encodedBuf, err := buffers.PushZero(argon2engine.EncodedCapacity)
	if err != nil {
		return nil, err
	}

	status, callErr := surf.Hash(ctx, engine.HashCall{
		TimeCost:      p.TimeCost,
		MemoryCostKiB: p.MemoryCostKiB,
		Parallelism:   p.Parallelism,
		PasswordPtr:   password.Ptr,
		PasswordLen:   uint32(len(p.Password)),
		SaltPtr:       salt.Ptr,
		SaltLen:       uint32(len(p.Salt)),
		HashPtr:       hashBuf.Ptr,
		HashLen:       p.HashLength,
		EncodedPtr:    encodedBuf.Ptr,
		EncodedCap:    argon2engine.EncodedCapacity,
		Variant:       uint32(p.Variant),
		Version:       argon2engine.VersionTag,
	})
	if callErr != nil {
		Logger().Debug("engine invocation failed", zap.Error(callErr))
		return nil, errors.HostFailure(callErr)
	}
	if status != 0 {
		return nil, errors.NewHashError(status, surf.ErrorMessage(ctx, status))
	}

	// Reads may alias linear memory; copy before the buffers are freed
	// and their regions recycled.
	view, err := mem.Read(hashBuf.Ptr, p.HashLength)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, err, "read hash output")
	}
	raw := make([]byte, len(view))
	copy(raw, view)

	encoded, err := engine.ReadCString(mem, encodedBuf.Ptr, argon2engine.EncodedCapacity)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "read encoded output")
	}

	return &argon2engine.HashResult{
		RawHash: raw,
		HexHash: hex.EncodeToString(raw),
		Encoded: encoded,
	}, nil
}
