// Package backing provides concrete zeealloc.PageProvider implementations.
// The core allocator only ever calls PageProvider.Allocate with a positive
// multiple of its PAGE_SIZE and align == PAGE_SIZE — everything beyond
// that contract is this package's concern, not the core's.
package backing

import "errors"

// ErrOutOfMemory is returned by a PageProvider when the underlying source
// of pages — WASM memory.grow, or an mmap call — cannot satisfy a request.
var ErrOutOfMemory = errors.New("backing: out of memory")
