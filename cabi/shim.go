// Package cabi exposes the C ABI malloc/realloc/free/calloc surface over a
// single bound zeealloc.Allocator instance, plus the cabi_realloc/cabi_free
// pair the WASM Component Model toolchain expects, so a component built
// with this allocator composes with component-model hosts.
//
// The shim carries no state of its own beyond the one bound instance: it
// translates C-style calls into Allocate/Resize/Deallocate using
// payload-pointer recovery.
package cabi

import (
	"math/bits"
	"unsafe"

	"github.com/fengb/zee-alloc"
)

// Shim binds one Allocator instance to the four C ABI exports. Multiple
// Shims can coexist (each wrapping a distinct Allocator) for embedders that
// want more than one arena; the package-level //export functions in
// exports.go bind exactly one, built at first use.
type Shim struct {
	alloc *zeealloc.Allocator
}

// New wraps alloc for C ABI export.
func New(alloc *zeealloc.Allocator) *Shim {
	return &Shim{alloc: alloc}
}

// Malloc implements malloc(size_t): allocate(n, 1), mapping OutOfMemory to
// nil.
func (s *Shim) Malloc(n uintptr) unsafe.Pointer {
	payload, err := s.alloc.Allocate(n, 1)
	if err != nil {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(payload))
}

// Realloc implements realloc(void*, size_t): a nil p is a malloc; a zero n
// is a free that still returns a valid (non-nil) pointer, matching the
// common realloc(p, 0) convention.
func (s *Shim) Realloc(p unsafe.Pointer, n uintptr) unsafe.Pointer {
	if p == nil {
		return s.Malloc(n)
	}
	if n == 0 {
		s.Free(p)
		return s.Malloc(0)
	}

	old := syntheticSlice(p)
	newPayload, err := s.alloc.Resize(old, n, 1)
	if err != nil {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(newPayload))
}

// Free implements free(void*): a no-op on nil, otherwise a synthetic
// single-byte slice at p so the core can recover the frame.
func (s *Shim) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	s.alloc.Deallocate(syntheticSlice(p))
}

// Calloc implements calloc(size_t, size_t): allocate count*size bytes,
// zeroed, with overflow in the multiplication mapped to nil rather than a
// truncated allocation.
func (s *Shim) Calloc(count, size uintptr) unsafe.Pointer {
	total, overflow := mulOverflows(count, size)
	if overflow {
		return nil
	}
	payload, err := s.alloc.Allocate(total, 1)
	if err != nil {
		return nil
	}
	clear(payload)
	return unsafe.Pointer(unsafe.SliceData(payload))
}

// CabiRealloc implements the WASM Component Model ABI entry point: same
// operation as Realloc, but with the Component Model's four-argument
// signature (old pointer, old size, align, new size) rather than C's.
// oldSize is unused — like Realloc, recovery goes through the frame
// header, not the caller's claimed old size.
func (s *Shim) CabiRealloc(ptr unsafe.Pointer, _, align, newSize uintptr) unsafe.Pointer {
	if ptr == nil {
		if newSize == 0 {
			return s.Malloc(0)
		}
		payload, err := s.alloc.Allocate(newSize, align)
		if err != nil {
			return nil
		}
		return unsafe.Pointer(unsafe.SliceData(payload))
	}
	if newSize == 0 {
		s.CabiFree(ptr)
		return s.Malloc(0)
	}

	newPayload, err := s.alloc.Resize(syntheticSlice(ptr), newSize, align)
	if err != nil {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(newPayload))
}

// CabiFree implements the Component Model ABI's free export.
func (s *Shim) CabiFree(ptr unsafe.Pointer) {
	s.Free(ptr)
}

func syntheticSlice(p unsafe.Pointer) []byte {
	return unsafe.Slice((*byte)(p), 1)
}

func mulOverflows(a, b uintptr) (uintptr, bool) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 {
		return 0, true
	}
	return uintptr(lo), false
}
