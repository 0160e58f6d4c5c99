// Package errors provides structured error types for the hashing engine.
//
// Errors carry a Phase (where in processing the failure occurred) and a
// Kind (what went wrong), so callers can match on either without parsing
// message strings:
//
//	if errors.Is(err, &enginerrors.Error{Phase: enginerrors.PhaseFetch, Kind: enginerrors.KindIO}) {
//	    // asset fetch failed
//	}
//
// HashError is distinct from Error: it represents a status reported by the
// engine itself (or a host-level call failure) during an otherwise healthy
// invocation, and carries the engine's numeric status code.
package errors
