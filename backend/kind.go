package backend

// Kind identifies one of the two execution backends for the engine.
type Kind int

const (
	// Primary runs a SIMD/threads-enabled engine build on the compiling
	// wazero runtime. Requires native code generation support and both
	// primary asset locators.
	Primary Kind = iota
	// Fallback runs a portable engine build on the wazero interpreter.
	// Works everywhere, slower.
	Fallback
)

func (k Kind) String() string {
	switch k {
	case Primary:
		return "primary"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}
