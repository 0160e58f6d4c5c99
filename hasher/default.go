package hasher

import (
	"context"
	"sync"

	argon2engine "github.com/wippyai/argon2-engine"
)

// The process-wide default hasher backs the package-level calls. It is
// created lazily from the options given to Configure, so Configure must
// run before the first package-level Hash or Verify.
var (
	defaultMu     sync.Mutex
	defaultOpts   []Option
	defaultHasher *Hasher
)

// Configure sets the options for the process-wide default hasher. Calling
// it after the default has been built replaces the default wholesale; the
// old engine, if any, keeps serving calls already in flight.
func Configure(opts ...Option) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultOpts = opts
	defaultHasher = nil
}

// Default returns the process-wide hasher, building it on first use.
func Default() *Hasher {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultHasher == nil {
		defaultHasher = New(defaultOpts...)
	}
	return defaultHasher
}

// Hash computes an Argon2 hash with the process-wide default hasher.
func Hash(ctx context.Context, params argon2engine.HashParams) (*argon2engine.HashResult, error) {
	return Default().Hash(ctx, params)
}

// Verify checks a password against an encoded hash with the process-wide
// default hasher.
func Verify(ctx context.Context, encoded string, password []byte) error {
	return Default().Verify(ctx, encoded, password)
}
