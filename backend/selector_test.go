package backend

import "testing"

func locatorsWithPrimary() Locators {
	return Locators{
		PrimaryBinary:  Locator{Source: "assets/argon2-simd.wasm"},
		PrimaryShim:    Locator{Source: "assets/argon2-shim.wasm"},
		FallbackBinary: Locator{Source: "assets/argon2.wasm"},
	}
}

func TestSelect(t *testing.T) {
	able := Capabilities{Compiler: true, SIMD: true, Threads: true}

	tests := []struct {
		name string
		caps Capabilities
		loc  Locators
		want Kind
	}{
		{
			name: "probe positive with full locators",
			caps: able,
			loc:  locatorsWithPrimary(),
			want: Primary,
		},
		{
			name: "probe negative",
			caps: Capabilities{},
			loc:  locatorsWithPrimary(),
			want: Fallback,
		},
		{
			name: "compiler without simd",
			caps: Capabilities{Compiler: true},
			loc:  locatorsWithPrimary(),
			want: Fallback,
		},
		{
			name: "primary binary locator omitted",
			caps: able,
			loc: Locators{
				PrimaryShim:    Locator{Source: "assets/argon2-shim.wasm"},
				FallbackBinary: Locator{Source: "assets/argon2.wasm"},
			},
			want: Fallback,
		},
		{
			name: "primary shim locator omitted",
			caps: able,
			loc: Locators{
				PrimaryBinary:  Locator{Source: "assets/argon2-simd.wasm"},
				FallbackBinary: Locator{Source: "assets/argon2.wasm"},
			},
			want: Fallback,
		},
		{
			name: "preloaded bytes count as present",
			caps: able,
			loc: Locators{
				PrimaryBinary: Locator{Bytes: []byte{0x00, 0x61, 0x73, 0x6d}},
				PrimaryShim:   Locator{Bytes: []byte{0x00, 0x61, 0x73, 0x6d}},
			},
			want: Primary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Select(tt.caps, tt.loc); got != tt.want {
				t.Errorf("Select() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelector_Memoizes(t *testing.T) {
	var s Selector
	able := Capabilities{Compiler: true, SIMD: true}

	first := s.Select(Capabilities{}, locatorsWithPrimary())
	if first != Fallback {
		t.Fatalf("first selection = %v, want fallback", first)
	}

	// Later calls with different inputs must not flip the decision.
	if got := s.Select(able, locatorsWithPrimary()); got != Fallback {
		t.Errorf("memoized selection changed to %v", got)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		goos, goarch string
		wantCompiler bool
	}{
		{"linux", "amd64", true},
		{"darwin", "arm64", true},
		{"linux", "riscv64", false},
		{"js", "wasm", false},
		{"plan9", "amd64", false},
	}

	for _, tt := range tests {
		c := detect(tt.goos, tt.goarch)
		if c.Compiler != tt.wantCompiler {
			t.Errorf("detect(%s/%s).Compiler = %v, want %v", tt.goos, tt.goarch, c.Compiler, tt.wantCompiler)
		}
		if !tt.wantCompiler && c.Usable() {
			t.Errorf("detect(%s/%s) usable without compiler support", tt.goos, tt.goarch)
		}
	}
}
