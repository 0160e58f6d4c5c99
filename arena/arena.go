package arena

import (
	"sync"

	argon2engine "github.com/wippyai/argon2-engine"
	"github.com/wippyai/argon2-engine/errors"
)

type Memory = argon2engine.Memory
type Allocator = argon2engine.Allocator

// bufferAlign matches the guest allocator's natural alignment.
const bufferAlign = 8

// Allocation is one region carved from the engine's linear memory for a
// single call. Regions belonging to different in-flight calls are always
// disjoint.
type Allocation struct {
	Ptr  uint32
	Size uint32
}

// List tracks every allocation made for one hash invocation so all of them
// can be released exactly once on every exit path.
type List struct {
	mem         Memory
	alloc       Allocator
	allocations []Allocation
	freed       bool
}

var listPool = sync.Pool{
	New: func() any {
		return &List{allocations: make([]Allocation, 0, 4)}
	},
}

// NewList obtains a pooled list bound to one engine's memory and allocator.
func NewList(mem Memory, alloc Allocator) *List {
	l := listPool.Get().(*List)
	l.mem = mem
	l.alloc = alloc
	l.freed = false
	return l
}

const maxPooledCapacity = 64

// Release returns the list to the pool. Must be called after FreeAll; the
// list is invalid after Release.
func (l *List) Release() {
	l.mem = nil
	l.alloc = nil
	// Only pool small lists to prevent memory bloat
	if cap(l.allocations) > maxPooledCapacity {
		return
	}
	l.allocations = l.allocations[:0]
	listPool.Put(l)
}

// Push carves a fresh region, copies data into it, and records it for
// release.
func (l *List) Push(data []byte) (Allocation, error) {
	size := uint32(len(data))
	a, err := l.PushZero(size)
	if err != nil {
		return Allocation{}, err
	}
	if size > 0 {
		if err := l.mem.Write(a.Ptr, data); err != nil {
			return Allocation{}, errors.Wrap(errors.PhaseAlloc, errors.KindOutOfBounds, err, "copy into arena")
		}
	}
	return a, nil
}

// PushString encodes s as UTF-8 bytes and pushes them.
func (l *List) PushString(s string) (Allocation, error) {
	return l.Push([]byte(s))
}

// PushZero carves an uninitialized output region of n bytes. Zero-size
// requests still produce a distinct region so pointer arguments stay valid.
func (l *List) PushZero(n uint32) (Allocation, error) {
	size := n
	if size == 0 {
		size = 1
	}
	ptr, err := l.alloc.Alloc(size, bufferAlign)
	if err != nil {
		return Allocation{}, errors.AllocationFailed(size, bufferAlign, err)
	}
	a := Allocation{Ptr: ptr, Size: size}
	l.allocations = append(l.allocations, a)
	return a, nil
}

// FreeAll releases every recorded allocation exactly once. Safe to call
// more than once; later calls are no-ops. Release failures are logged and
// swallowed so they never mask the call's primary result.
func (l *List) FreeAll() {
	if l.freed {
		return
	}
	l.freed = true
	if l.alloc == nil {
		return
	}
	for _, a := range l.allocations {
		if a.Ptr != 0 {
			l.alloc.Free(a.Ptr, a.Size, bufferAlign)
		}
	}
	l.allocations = l.allocations[:0]
}

// FreeAndRelease combines FreeAll and Release.
func (l *List) FreeAndRelease() {
	l.FreeAll()
	l.Release()
}

// Count returns the number of live allocations.
func (l *List) Count() int {
	return len(l.allocations)
}
