package enginetest

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"golang.org/x/crypto/argon2"

	argon2engine "github.com/wippyai/argon2-engine"
	"github.com/wippyai/argon2-engine/backend"
	"github.com/wippyai/argon2-engine/engine"
	"github.com/wippyai/argon2-engine/errors"
)

// Engine status codes the double reports, mirroring the wasm engine's
// conventions.
const (
	statusOK           int32 = 0
	statusSaltTooShort int32 = 6
	statusEncodingFail int32 = 26
)

// Engine is an in-memory stand-in for the linked wasm engine. It carves
// buffers from a slice-backed linear memory through a bump allocator and
// computes real Argon2 output, so wrapper-level tests exercise true
// length, determinism and salt-sensitivity semantics without any wasm
// assets.
//
// The TypeD variant is computed with the same data-independent mixing as
// TypeI; only the encoded tag differs. Cross-variant bit-compatibility is
// the real engine's business, not the double's.
type Engine struct {
	mu   sync.Mutex
	mem  *Memory
	kind backend.Kind

	next        uint32
	live        map[uint32]uint32
	doubleFrees int

	ready        bool
	lookupBroken bool
	forcedStatus int32
	hostErr      error
}

// New creates a ready fake engine with a 16 MiB linear memory.
func New() *Engine {
	return &Engine{
		mem:   &Memory{data: make([]byte, 16<<20)},
		kind:  backend.Fallback,
		next:  16, // keep 0 reserved so a null pointer stays invalid
		live:  make(map[uint32]uint32),
		ready: true,
	}
}

// WithKind sets the backend kind the double reports.
func (e *Engine) WithKind(k backend.Kind) *Engine {
	e.kind = k
	return e
}

// SetReady flips the readiness flag, for tests of the not-ready invariant.
func (e *Engine) SetReady(ready bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = ready
}

// FailNextWithStatus makes the next Hash call report the given engine
// status instead of computing.
func (e *Engine) FailNextWithStatus(code int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.forcedStatus = code
}

// FailNextWithError makes the next Hash call fail at the host level, as a
// wasm trap would.
func (e *Engine) FailNextWithError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hostErr = err
}

// BreakLookup makes ErrorMessage return "", exercising the offline
// fallback table.
func (e *Engine) BreakLookup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lookupBroken = true
}

// Outstanding returns the number of live allocations, for leak checks.
func (e *Engine) Outstanding() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.live)
}

// DoubleFrees returns how many times a dead pointer was freed.
func (e *Engine) DoubleFrees() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doubleFrees
}

func (e *Engine) Kind() backend.Kind { return e.kind }

func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

func (e *Engine) Memory() argon2engine.Memory { return e.mem }

func (e *Engine) Allocator() argon2engine.Allocator { return (*allocator)(e) }

// Hash mimics the native argon2_hash_ext export.
func (e *Engine) Hash(_ context.Context, call engine.HashCall) (int32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return 0, errors.NotInitialized(errors.PhaseCompute, "fake engine")
	}
	if e.hostErr != nil {
		err := e.hostErr
		e.hostErr = nil
		return 0, err
	}
	if e.forcedStatus != 0 {
		code := e.forcedStatus
		e.forcedStatus = 0
		return code, nil
	}

	password, err := e.mem.Read(call.PasswordPtr, call.PasswordLen)
	if err != nil {
		return 0, err
	}
	salt, err := e.mem.Read(call.SaltPtr, call.SaltLen)
	if err != nil {
		return 0, err
	}
	if call.SaltLen < 8 {
		return statusSaltTooShort, nil
	}

	hash := argon2.Key(password, salt,
		call.TimeCost, call.MemoryCostKiB, uint8(call.Parallelism), call.HashLen)
	if err := e.mem.Write(call.HashPtr, hash); err != nil {
		return 0, err
	}

	encoded := fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2engine.Variant(call.Variant),
		call.Version,
		call.MemoryCostKiB, call.TimeCost, call.Parallelism,
		b64(salt), b64(hash))
	if uint32(len(encoded))+1 > call.EncodedCap {
		return statusEncodingFail, nil
	}
	if err := e.mem.Write(call.EncodedPtr, append([]byte(encoded), 0)); err != nil {
		return 0, err
	}
	return statusOK, nil
}

// ErrorMessage mimics the native argon2_error_message export.
func (e *Engine) ErrorMessage(_ context.Context, code int32) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lookupBroken || !e.ready {
		return ""
	}
	return errors.StatusText(code)
}

var _ engine.Surface = (*Engine)(nil)

// allocator is the fake's bump allocator view over the same state.
type allocator Engine

func (a *allocator) Alloc(size, align uint32) (uint32, error) {
	e := (*Engine)(a)
	e.mu.Lock()
	defer e.mu.Unlock()

	if size == 0 {
		return 0, fmt.Errorf("zero-size alloc")
	}
	if align == 0 {
		align = 1
	}
	ptr := (e.next + align - 1) &^ (align - 1)
	if uint64(ptr)+uint64(size) > uint64(len(e.mem.data)) {
		return 0, fmt.Errorf("fake engine out of memory")
	}
	e.next = ptr + size
	e.live[ptr] = size
	return ptr, nil
}

func (a *allocator) Free(ptr, size, align uint32) {
	e := (*Engine)(a)
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.live[ptr]; !ok {
		e.doubleFrees++
		return
	}
	delete(e.live, ptr)
}

// Memory is a slice-backed linear memory.
type Memory struct {
	data []byte
}

func (m *Memory) Read(offset, length uint32) ([]byte, error) {
	if uint64(offset)+uint64(length) > uint64(len(m.data)) {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	out := make([]byte, length)
	copy(out, m.data[offset:])
	return out, nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	if uint64(offset)+uint64(len(data)) > uint64(len(m.data)) {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *Memory) ReadU8(offset uint32) (uint8, error) {
	b, err := m.Read(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	b, err := m.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

func (m *Memory) WriteU8(offset uint32, value uint8) error {
	return m.Write(offset, []byte{value})
}

func (m *Memory) WriteU32(offset uint32, value uint32) error {
	return m.Write(offset, []byte{byte(value), byte(value >> 8), byte(value >> 16), byte(value >> 24)})
}

func (m *Memory) Size() uint32 { return uint32(len(m.data)) }

var _ argon2engine.Memory = (*Memory)(nil)
var _ argon2engine.MemorySizer = (*Memory)(nil)

func b64(data []byte) string {
	return base64.RawStdEncoding.EncodeToString(data)
}
