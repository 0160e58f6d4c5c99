// Package arena provides scoped scratch-buffer management over the
// engine's linear memory.
//
// Every hash invocation carves its buffers through a List, computes, and
// releases the whole list exactly once before returning, on every exit
// path including host-level failures. Double-free and leak are both
// invariant violations; FreeAll is idempotent to keep the error paths
// simple.
package arena
