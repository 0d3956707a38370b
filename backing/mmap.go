//go:build unix

package backing

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MmapProvider is a grow-only PageProvider backed by anonymous mmap
// regions, for running and testing the allocator as an ordinary host
// process rather than a WASM guest. It never unmaps on its own — a
// PageProvider only ever grows — so Close exists purely so tests don't
// leak mappings across a whole process run, never for the allocator to
// call.
type MmapProvider struct {
	regions [][]byte
}

// NewMmapProvider constructs an empty MmapProvider. Its first Allocate call
// lazily establishes the process's view into anonymous memory; there is no
// separate "open" step.
func NewMmapProvider() *MmapProvider {
	return &MmapProvider{}
}

// Allocate satisfies zeealloc.PageProvider. It over-maps by align bytes so
// it can hand back a sub-slice whose start address is a multiple of align
// — mmap on Linux/Darwin only guarantees OS-page alignment, which can be
// smaller than a caller's PAGE_SIZE (e.g. the default 64 KiB).
func (p *MmapProvider) Allocate(bytesRequested, align uintptr) ([]byte, error) {
	if bytesRequested == 0 {
		return nil, fmt.Errorf("%w: zero-sized request", ErrOutOfMemory)
	}

	total := int(bytesRequested + align)
	data, err := unix.Mmap(-1, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap: %v", ErrOutOfMemory, err)
	}

	base := uintptr(unsafe.Pointer(&data[0]))
	aligned := (base + align - 1) &^ (align - 1)
	offset := int(aligned - base)
	size := int(bytesRequested)

	p.regions = append(p.regions, data)
	return data[offset : offset+size : offset+size], nil
}

// Close unmaps every region this provider ever handed out. Only safe once
// the Allocator built on top of it is no longer in use — the core itself
// never calls this.
func (p *MmapProvider) Close() error {
	for _, region := range p.regions {
		if err := unix.Munmap(region); err != nil {
			return err
		}
	}
	p.regions = nil
	return nil
}
