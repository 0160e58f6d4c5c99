package argon2engine

import "testing"

func TestWithDefaults(t *testing.T) {
	p := HashParams{
		Password: []byte("pw"),
		Salt:     []byte("somesalt"),
	}.WithDefaults()

	if p.TimeCost != DefaultTimeCost {
		t.Errorf("time cost = %d, want %d", p.TimeCost, DefaultTimeCost)
	}
	if p.MemoryCostKiB != DefaultMemoryCostKiB {
		t.Errorf("memory cost = %d, want %d", p.MemoryCostKiB, DefaultMemoryCostKiB)
	}
	if p.Parallelism != DefaultParallelism {
		t.Errorf("parallelism = %d, want %d", p.Parallelism, DefaultParallelism)
	}
	if p.HashLength != DefaultHashLength {
		t.Errorf("hash length = %d, want %d", p.HashLength, DefaultHashLength)
	}
	if p.Variant != TypeD {
		t.Errorf("variant = %v, want %v", p.Variant, TypeD)
	}
}

func TestWithDefaults_KeepsExplicitValues(t *testing.T) {
	original := HashParams{
		Password:      []byte("pw"),
		Salt:          []byte("somesalt"),
		TimeCost:      3,
		MemoryCostKiB: 65536,
		Parallelism:   4,
		HashLength:    32,
		Variant:       TypeI,
	}
	p := original.WithDefaults()
	if p.TimeCost != 3 || p.MemoryCostKiB != 65536 || p.Parallelism != 4 || p.HashLength != 32 || p.Variant != TypeI {
		t.Errorf("explicit values were replaced: %+v", p)
	}
	// WithDefaults works on a copy.
	original.TimeCost = 0
	p2 := original.WithDefaults()
	if original.TimeCost != 0 {
		t.Error("WithDefaults mutated the receiver")
	}
	if p2.TimeCost != DefaultTimeCost {
		t.Errorf("time cost = %d, want default", p2.TimeCost)
	}
}

func TestValidate(t *testing.T) {
	valid := HashParams{
		Password: []byte("pw"),
		Salt:     []byte("somesalt"),
	}.WithDefaults()

	tests := []struct {
		name   string
		mutate func(*HashParams)
		wantOK bool
	}{
		{"defaults pass", func(p *HashParams) {}, true},
		{"empty password passes", func(p *HashParams) { p.Password = nil }, true},
		{"empty salt", func(p *HashParams) { p.Salt = nil }, false},
		{"memory below floor", func(p *HashParams) { p.MemoryCostKiB = MinMemoryCostKiB - 1 }, false},
		{"memory at floor", func(p *HashParams) { p.MemoryCostKiB = MinMemoryCostKiB }, true},
		{"hash length below floor", func(p *HashParams) { p.HashLength = MinHashLength - 1 }, false},
		{"hash length at floor", func(p *HashParams) { p.HashLength = MinHashLength }, true},
		{"unknown variant", func(p *HashParams) { p.Variant = Variant(9) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantOK && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.wantOK && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestVariantString(t *testing.T) {
	if got := TypeD.String(); got != "argon2d" {
		t.Errorf("TypeD = %q", got)
	}
	if got := TypeI.String(); got != "argon2i" {
		t.Errorf("TypeI = %q", got)
	}
	if got := Variant(9).String(); got != "unknown" {
		t.Errorf("Variant(9) = %q", got)
	}
}
