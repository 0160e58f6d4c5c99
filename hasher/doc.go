// Package hasher is the high-level API: Hash and Verify over the
// process-wide singleton engine.
//
// A Hasher composes the backend selector, the engine loader and the
// buffer arena into one call path. Callers never see the loader's
// internal states; a call is simply pending until the engine is ready,
// then resolves or fails.
package hasher
