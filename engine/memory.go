package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	argon2engine "github.com/wippyai/argon2-engine"
)

// LinearMemory wraps wazero memory to implement argon2engine.Memory
type LinearMemory struct {
	mem api.Memory
}

func (m *LinearMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

func (m *LinearMemory) Write(offset uint32, data []byte) error {
	ok := m.mem.Write(offset, data)
	if !ok {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *LinearMemory) ReadU8(offset uint32) (uint8, error) {
	data, err := m.Read(offset, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

func (m *LinearMemory) ReadU32(offset uint32) (uint32, error) {
	val, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, fmt.Errorf("read out of bounds")
	}
	return val, nil
}

func (m *LinearMemory) WriteU8(offset uint32, value uint8) error {
	return m.Write(offset, []byte{value})
}

func (m *LinearMemory) WriteU32(offset uint32, value uint32) error {
	ok := m.mem.WriteUint32Le(offset, value)
	if !ok {
		return fmt.Errorf("write out of bounds")
	}
	return nil
}

func (m *LinearMemory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// Compile-time check that LinearMemory implements argon2engine.Memory and MemorySizer
var _ argon2engine.Memory = (*LinearMemory)(nil)
var _ argon2engine.MemorySizer = (*LinearMemory)(nil)

// guestAllocator drives the engine's exported malloc/free. Calls share the
// instance's guest mutex: the non-threaded builds' heap bookkeeping is not
// re-entrant.
type guestAllocator struct {
	allocFn  api.Function
	freeFn   api.Function
	stackBuf []uint64
	mu       *sync.Mutex
}

func (a *guestAllocator) Alloc(size, align uint32) (uint32, error) {
	if a.allocFn == nil {
		return 0, fmt.Errorf("no allocator available")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// malloc takes the size only; the guest's allocator aligns at least
	// to 8, which covers every buffer the invoker carves.
	_ = align
	a.stackBuf[0] = uint64(size)
	if err := a.allocFn.CallWithStack(context.Background(), a.stackBuf[:1]); err != nil {
		return 0, err
	}
	ptr := uint32(a.stackBuf[0])
	if ptr == 0 {
		return 0, fmt.Errorf("guest malloc returned null for %d bytes", size)
	}
	return ptr, nil
}

func (a *guestAllocator) Free(ptr, size, align uint32) {
	if a.freeFn == nil || ptr == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.stackBuf[0] = uint64(ptr)
	if err := a.freeFn.CallWithStack(context.Background(), a.stackBuf[:1]); err != nil {
		Logger().Warn("Free: failed to call guest free",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err))
	}
}

// Compile-time check that guestAllocator implements argon2engine.Allocator
var _ argon2engine.Allocator = (*guestAllocator)(nil)

// ReadCString reads a NUL-terminated string from engine memory, scanning at
// most max bytes. A missing terminator within max bytes is an error, not a
// truncation.
func ReadCString(mem argon2engine.Memory, ptr, max uint32) (string, error) {
	if ptr == 0 {
		return "", fmt.Errorf("nil string pointer")
	}
	for n := uint32(0); n < max; n++ {
		b, err := mem.ReadU8(ptr + n)
		if err != nil {
			return "", err
		}
		if b == 0 {
			data, err := mem.Read(ptr, n)
			if err != nil {
				return "", err
			}
			return string(data), nil
		}
	}
	return "", fmt.Errorf("string not terminated within %d bytes", max)
}
