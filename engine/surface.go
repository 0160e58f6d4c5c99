package engine

import (
	"context"

	argon2engine "github.com/wippyai/argon2-engine"
	"github.com/wippyai/argon2-engine/backend"
)

// HashCall carries one invocation of the engine's native hashing function.
// Pointer/length pairs reference regions previously carved from the
// engine's linear memory.
type HashCall struct {
	TimeCost      uint32
	MemoryCostKiB uint32
	Parallelism   uint32
	PasswordPtr   uint32
	PasswordLen   uint32
	SaltPtr       uint32
	SaltLen       uint32
	HashPtr       uint32
	HashLen       uint32
	EncodedPtr    uint32
	EncodedCap    uint32
	Variant       uint32
	Version       uint32
}

// Surface is the engine's native surface as the invoker sees it. The wasm
// Instance implements it; tests substitute an in-memory double.
type Surface interface {
	// Kind reports which backend this engine was linked with.
	Kind() backend.Kind
	// Ready reports whether linking completed. No computation may run
	// against a non-ready surface.
	Ready() bool
	// Memory exposes the engine's linear memory.
	Memory() argon2engine.Memory
	// Allocator exposes the engine's malloc/free over that memory.
	Allocator() argon2engine.Allocator
	// Hash invokes the native hashing function and returns its status
	// code. A non-nil error means the call itself failed at the host
	// level and no status was produced.
	Hash(ctx context.Context, call HashCall) (int32, error)
	// ErrorMessage resolves a status code through the engine's own
	// lookup. Returns "" when the lookup itself is unavailable.
	ErrorMessage(ctx context.Context, code int32) string
}
