// Package engine is the low-level wazero integration: it links fetched
// backend assets into a running wasm module and binds the engine's native
// surface (hash function, error-message lookup, malloc/free, linear
// memory).
//
// The primary backend runs on wazero's compiling runtime with the threads
// feature available; the fallback runs on the interpreter. Both expose the
// same Surface to the rest of the library, and tests substitute their own
// Surface without touching wazero at all.
package engine
