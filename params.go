package argon2engine

import (
	"github.com/wippyai/argon2-engine/errors"
)

// Variant selects the engine's memory-access mode.
type Variant uint32

const (
	// TypeD is the data-dependent variant (argon2d).
	TypeD Variant = 0
	// TypeI is the data-independent variant (argon2i).
	TypeI Variant = 1
)

// String returns the variant's tag as it appears in encoded hashes.
func (v Variant) String() string {
	switch v {
	case TypeD:
		return "argon2d"
	case TypeI:
		return "argon2i"
	default:
		return "unknown"
	}
}

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	return v == TypeD || v == TypeI
}

// Parameter defaults and bounds. Zero-valued HashParams fields are replaced
// by the defaults during validation.
const (
	DefaultTimeCost      uint32 = 1
	DefaultMemoryCostKiB uint32 = 1024
	DefaultParallelism   uint32 = 1
	DefaultHashLength    uint32 = 24

	MinMemoryCostKiB uint32 = 8
	MinHashLength    uint32 = 4

	// EncodedCapacity is the fixed size of the encoded-output buffer,
	// including the NUL terminator. Encodings that do not fit are a
	// defined engine failure, never a truncation.
	EncodedCapacity uint32 = 512

	// VersionTag is the algorithm version passed to the engine (0x13).
	VersionTag uint32 = 0x13
)

// HashParams are the inputs to a single hash invocation. The struct is
// treated as immutable once passed in; WithDefaults returns a normalized
// copy rather than mutating in place.
type HashParams struct {
	Password      []byte
	Salt          []byte
	TimeCost      uint32
	MemoryCostKiB uint32
	Parallelism   uint32
	HashLength    uint32
	Variant       Variant
}

// WithDefaults returns a copy of p with zero-valued cost fields replaced by
// the package defaults.
func (p HashParams) WithDefaults() HashParams {
	if p.TimeCost == 0 {
		p.TimeCost = DefaultTimeCost
	}
	if p.MemoryCostKiB == 0 {
		p.MemoryCostKiB = DefaultMemoryCostKiB
	}
	if p.Parallelism == 0 {
		p.Parallelism = DefaultParallelism
	}
	if p.HashLength == 0 {
		p.HashLength = DefaultHashLength
	}
	return p
}

// Validate checks p against the parameter bounds. Call WithDefaults first;
// Validate does not apply defaults.
func (p HashParams) Validate() error {
	if len(p.Salt) == 0 {
		return errors.InvalidInput(errors.PhaseValidate, "salt must not be empty")
	}
	if p.TimeCost < 1 {
		return errors.InvalidInput(errors.PhaseValidate, "time cost must be >= 1")
	}
	if p.MemoryCostKiB < MinMemoryCostKiB {
		return errors.InvalidInput(errors.PhaseValidate, "memory cost must be >= 8 KiB")
	}
	if p.Parallelism < 1 {
		return errors.InvalidInput(errors.PhaseValidate, "parallelism must be >= 1")
	}
	if p.HashLength < MinHashLength {
		return errors.InvalidInput(errors.PhaseValidate, "hash length must be >= 4")
	}
	if !p.Variant.Valid() {
		return errors.InvalidInput(errors.PhaseValidate, "unknown hash variant")
	}
	return nil
}

// HashResult is the outcome of a successful hash invocation.
type HashResult struct {
	// RawHash holds exactly HashLength bytes of output.
	RawHash []byte
	// HexHash is RawHash in lowercase hexadecimal.
	HexHash string
	// Encoded is the self-describing form embedding variant, version,
	// cost parameters, salt and hash, suitable for storage and later
	// verification.
	Encoded string
}
