package errors

import "fmt"

// HashError reports a failed engine invocation. Code carries the engine's
// own status code when one exists; 0 is reserved for success and never
// appears here. Host-level failures (the call itself failed, no status was
// produced) use CodeHostFailure.
type HashError struct {
	Code    int32
	Message string
}

// CodeHostFailure marks errors raised by the host call path rather than
// reported by the engine as a status code.
const CodeHostFailure int32 = -1

func (e *HashError) Error() string {
	if e.Code == CodeHostFailure {
		return fmt.Sprintf("hash failed: %s", e.Message)
	}
	return fmt.Sprintf("hash failed (status %d): %s", e.Code, e.Message)
}

// Is reports whether target matches this error type
func (e *HashError) Is(target error) bool {
	t, ok := target.(*HashError)
	return ok && (t.Code == 0 || t.Code == e.Code)
}

// statusText holds offline fallbacks for engine status codes, used when the
// engine's own message lookup cannot be reached.
var statusText = map[int32]string{
	1:  "output pointer mismatch",
	2:  "output too short",
	3:  "output too long",
	4:  "password too short",
	5:  "password too long",
	6:  "salt too short",
	7:  "salt too long",
	12: "time cost too small",
	13: "time cost too large",
	14: "memory cost too little",
	15: "memory cost too much",
	16: "too few lanes",
	17: "too many lanes",
	22: "memory allocation error",
	26: "encoding failed",
	31: "decoding failed",
	35: "verification mismatch",
}

// StatusText returns the offline message for an engine status code, or a
// generic placeholder when the code is unknown.
func StatusText(code int32) string {
	if msg, ok := statusText[code]; ok {
		return msg
	}
	return fmt.Sprintf("unknown engine status %d", code)
}

// NewHashError builds a HashError for an engine status code, preferring the
// engine-provided message and falling back to the offline table.
func NewHashError(code int32, message string) *HashError {
	if message == "" {
		message = StatusText(code)
	}
	return &HashError{Code: code, Message: message}
}

// HostFailure builds a HashError for a failure in the host call path.
func HostFailure(cause error) *HashError {
	msg := "engine invocation failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &HashError{Code: CodeHostFailure, Message: msg}
}
