// Package backend decides which of the engine's two execution backends to
// use and fetches its assets.
//
// The primary backend is a SIMD/threads build of the engine running on
// wazero's compiling runtime; the fallback is a portable build running on
// the interpreter. The choice is made once per process from a CPU
// capability probe and the configured asset locators, then memoized.
package backend
