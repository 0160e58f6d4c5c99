package argon2engine

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/wippyai/argon2-engine/errors"
)

// b64 is the alphabet the engine uses for encoded hashes: standard base64
// without padding.
var b64 = base64.RawStdEncoding

// ParseEncoded decodes the self-describing text form produced by the engine,
// e.g.
//
//	$argon2d$v=19$m=1024,t=1,p=1$c29tZXNhbHQ$rDp7kVTLVbNhpEk...
//
// It returns the embedded parameters (with Salt and HashLength filled in,
// Password left empty) and the raw hash bytes.
func ParseEncoded(encoded string) (HashParams, []byte, error) {
	var p HashParams

	fields := strings.Split(encoded, "$")
	// Leading '$' yields an empty first field.
	if len(fields) != 6 || fields[0] != "" {
		return p, nil, errors.InvalidInput(errors.PhaseDecode, "malformed encoded hash")
	}

	switch fields[1] {
	case "argon2d":
		p.Variant = TypeD
	case "argon2i":
		p.Variant = TypeI
	default:
		return p, nil, errors.InvalidInput(errors.PhaseDecode, "unknown variant tag "+strconv.Quote(fields[1]))
	}

	version, ok := strings.CutPrefix(fields[2], "v=")
	if !ok {
		return p, nil, errors.InvalidInput(errors.PhaseDecode, "missing version field")
	}
	if v, err := strconv.ParseUint(version, 10, 32); err != nil || uint32(v) != VersionTag {
		return p, nil, errors.InvalidInput(errors.PhaseDecode, "unsupported version "+strconv.Quote(version))
	}

	for _, kv := range strings.Split(fields[3], ",") {
		key, val, found := strings.Cut(kv, "=")
		if !found {
			return p, nil, errors.InvalidInput(errors.PhaseDecode, "malformed cost field "+strconv.Quote(kv))
		}
		n, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return p, nil, errors.InvalidInput(errors.PhaseDecode, "malformed cost value "+strconv.Quote(val))
		}
		switch key {
		case "m":
			p.MemoryCostKiB = uint32(n)
		case "t":
			p.TimeCost = uint32(n)
		case "p":
			p.Parallelism = uint32(n)
		default:
			return p, nil, errors.InvalidInput(errors.PhaseDecode, "unknown cost parameter "+strconv.Quote(key))
		}
	}
	if p.MemoryCostKiB == 0 || p.TimeCost == 0 || p.Parallelism == 0 {
		return p, nil, errors.InvalidInput(errors.PhaseDecode, "incomplete cost parameters")
	}

	salt, err := b64.DecodeString(fields[4])
	if err != nil {
		return p, nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "decode salt")
	}
	hash, err := b64.DecodeString(fields[5])
	if err != nil {
		return p, nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "decode hash")
	}
	if len(hash) < int(MinHashLength) {
		return p, nil, errors.InvalidInput(errors.PhaseDecode, "embedded hash too short")
	}

	p.Salt = salt
	p.HashLength = uint32(len(hash))
	return p, hash, nil
}
