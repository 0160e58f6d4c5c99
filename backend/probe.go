package backend

import (
	"runtime"
	"sync"

	cpuid "github.com/klauspost/cpuid/v2"
)

// Capabilities is the result of probing the host for primary-backend
// support. The zero value means "nothing supported".
type Capabilities struct {
	// Compiler reports whether wazero's compiling runtime can be used
	// on this platform at all.
	Compiler bool
	// SIMD reports whether the CPU has the vector extensions the
	// primary engine build is compiled against.
	SIMD bool
	// Threads reports whether atomics/shared-memory support can be
	// enabled for the primary build.
	Threads bool
}

// Usable reports whether the primary backend can run on this host.
func (c Capabilities) Usable() bool {
	return c.Compiler && c.SIMD
}

var (
	probeOnce sync.Once
	probed    Capabilities
)

// Probe detects host support for the primary backend. The result is
// computed once and cached for the process lifetime; backends cannot be
// mixed mid-process, so a changing answer would be worse than useless.
func Probe() Capabilities {
	probeOnce.Do(func() {
		probed = detect(runtime.GOOS, runtime.GOARCH)
	})
	return probed
}

func detect(goos, goarch string) Capabilities {
	var c Capabilities

	// wazero's compiler emits native code only for these targets.
	switch goarch {
	case "amd64", "arm64":
	default:
		return c
	}
	switch goos {
	case "linux", "darwin", "windows", "freebsd":
	default:
		return c
	}
	c.Compiler = true

	// On ARM64 some features require explicit detection
	if goarch == "arm64" {
		cpuid.DetectARM()
	}

	switch goarch {
	case "amd64":
		c.SIMD = cpuid.CPU.Supports(cpuid.SSE2)
	case "arm64":
		c.SIMD = cpuid.CPU.Supports(cpuid.ASIMD)
	}
	// The threads feature needs the same baseline; wazero provides the
	// atomics lowering on any compiler-supported target.
	c.Threads = c.SIMD
	return c
}
