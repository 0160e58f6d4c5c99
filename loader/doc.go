// Package loader owns the process-wide engine lifecycle: a singleton state
// machine that fetches and links the selected backend exactly once and
// fans the outcome out to every concurrent caller.
//
// The state machine is Uninitialized -> Loading -> Ready, with
// Loading -> Failed on error. Ready is terminal for the process lifetime;
// Failed is terminal too unless Config.Retry opts into another attempt.
// Callers that arrive while a load is in flight never trigger a second
// fetch: they wait on the same settle channel and observe the same result.
package loader
