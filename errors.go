package zeealloc

import "errors"

// Sentinel errors surfaced across the allocate/resize/deallocate boundary,
// checked with errors.Is rather than typed error structs.
var (
	// ErrOutOfMemory is returned when the backing provider cannot satisfy a
	// request, or when the caller asks for an alignment this allocator does
	// not support.
	ErrOutOfMemory = errors.New("zeealloc: out of memory")

	// ErrUnalignedMemory is returned by FrameFromPayload when a pointer does
	// not recover a frame whose start is 2*word aligned and whose frame_size
	// is a valid power of two or PAGE_SIZE multiple. It signals a programmer
	// error: a double free, a foreign pointer, or corrupted header.
	ErrUnalignedMemory = errors.New("zeealloc: unaligned or corrupt frame metadata")

	// ErrDoubleFree is the Dev-validation-only diagnostic raised when the
	// live-pointer set (see validation.go) shows a payload address being
	// freed twice, distinguishing it from a merely corrupt/foreign pointer.
	ErrDoubleFree = errors.New("zeealloc: double free")
)
