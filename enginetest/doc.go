// Package enginetest provides an in-memory double of the engine surface
// for tests: a bump allocator over a slice-backed linear memory, real
// Argon2 output via golang.org/x/crypto/argon2, and knobs for forcing
// status codes and host-level failures.
package enginetest
