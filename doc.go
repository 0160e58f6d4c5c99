// Package argon2engine provides asynchronous Argon2 hashing backed by a
// heavyweight, lazily-initialized WebAssembly computation engine.
//
// The engine binary is fetched and linked at most once per process and is
// shared by all callers. The hard part of this library is not the hash
// algorithm (the wasm module owns that) but the coordination core around it:
// backend selection, initialization deduplication, and per-call scratch
// buffer management inside the engine's linear memory.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	argon2engine/        Root package with Memory/Allocator interfaces and parameter types
//	├── hasher/          High-level API: Hash, Verify, process-wide default
//	├── loader/          Singleton engine lifecycle state machine
//	├── backend/         Capability probe, backend selection, asset fetching
//	├── engine/          Low-level wazero integration and export binding
//	├── arena/           Scoped scratch-buffer allocation in linear memory
//	├── errors/          Structured error types for debugging
//	└── enginetest/      In-memory engine double for tests
//
// # Quick Start
//
// Hash a password with the process-wide default engine:
//
//	hasher.Configure(
//	    hasher.WithLocators(backend.Locators{
//	        PrimaryBinary:  backend.Locator{Source: "assets/argon2-simd.wasm"},
//	        PrimaryShim:    backend.Locator{Source: "assets/argon2-shim.wasm"},
//	        FallbackBinary: backend.Locator{Source: "assets/argon2.wasm"},
//	    }),
//	)
//
//	result, err := hasher.Hash(ctx, argon2engine.HashParams{
//	    Password: []byte("password"),
//	    Salt:     []byte("somesalt"),
//	})
//	fmt.Println(result.HexHash)
//
// # Backends
//
// Two incompatible execution backends exist: the primary backend runs a
// SIMD/threads-enabled build of the engine on wazero's compiler, and the
// portable fallback runs a plain build on wazero's interpreter. Selection
// happens once per process from a CPU capability probe and the configured
// asset locators; mixing backends mid-process is unsupported.
//
// # Thread Safety
//
// All public entry points are safe for concurrent use. Concurrent callers
// arriving before the engine is ready share a single fetch and link cycle
// and observe the same outcome.
//
// # Memory Model
//
// WASM linear memory can only grow, never shrink. Per-call buffers are
// carved from the engine's linear memory via the guest allocator and are
// always released before the call returns, on every exit path.
package argon2engine
