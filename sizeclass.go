package zeealloc

// SizeClasses is the pure policy layer mapping requested byte counts to
// frame sizes and bucket indices. It carries no allocator state — only the
// PAGE_SIZE it was constructed with — so it is safe to share and trivial to
// unit test in isolation from the Allocator core.
type SizeClasses struct {
	pageSize uintptr
	// bucketCount is B = log2(PAGE_SIZE) - log2(MIN_FRAME_SIZE) + 2.
	bucketCount int
}

// JumboBucket is the fixed index of the oversized/jumbo free list.
const JumboBucket = 0

// PageBucket is the fixed index of the exactly-PAGE_SIZE free list.
const PageBucket = 1

// newSizeClasses builds the policy table for a given PAGE_SIZE. pageSize
// must already be validated as a power of two >= minFrameSize by the
// caller (Config.validate).
func newSizeClasses(pageSize uintptr) SizeClasses {
	b := log2(pageSize) - log2(minFrameSize) + 2
	return SizeClasses{pageSize: pageSize, bucketCount: b}
}

// BucketCount returns B, the number of free lists the Allocator core must
// hold (including the jumbo bucket at index 0).
func (sc SizeClasses) BucketCount() int {
	return sc.bucketCount
}

// PadToFrameSize maps a requested payload size to the frame size that will
// hold it plus its header.
func (sc SizeClasses) PadToFrameSize(requested uintptr) uintptr {
	need := requested + headerSize
	switch {
	case need <= minFrameSize:
		return minFrameSize
	case need <= sc.pageSize:
		return nextPow2(need)
	default:
		return alignUp(need, sc.pageSize)
	}
}

// BucketOf returns the free-list index a frame of the given size belongs
// on.
func (sc SizeClasses) BucketOf(frameSize uintptr) int {
	switch {
	case frameSize > sc.pageSize:
		return JumboBucket
	case frameSize <= minFrameSize:
		return sc.bucketCount - 1
	default:
		return 1 + log2(sc.pageSize) - log2(frameSize)
	}
}

// BucketSize returns the canonical frame size for a non-jumbo bucket. It
// panics for JumboBucket, which has no single canonical size.
func (sc SizeClasses) BucketSize(bucket int) uintptr {
	if bucket == JumboBucket {
		panic("zeealloc: jumbo bucket has no canonical frame size")
	}
	shift := log2(sc.pageSize) - (bucket - 1)
	return uintptr(1) << shift
}

// BuddyAddress returns addr XOR frameSize, the address of the other half of
// the 2*frameSize region addr's frame lives in. Only meaningful for
// non-jumbo frames whose backing region is PAGE_SIZE-aligned and whose size
// divides PAGE_SIZE — true by construction for every frame this allocator
// ever creates.
func (sc SizeClasses) BuddyAddress(addr, frameSize uintptr) uintptr {
	return addr ^ frameSize
}

// alignUp rounds need up to the next multiple of pageSize.
func alignUp(need, pageSize uintptr) uintptr {
	return (need + pageSize - 1) &^ (pageSize - 1)
}

// BucketStat is one row of a Describe() report: how many free frames sit
// on a given bucket, and what size they are (0 for the jumbo bucket, which
// has no single canonical size).
type BucketStat struct {
	Index     int
	FrameSize uintptr
	FreeCount int
}

// Describe summarizes the free lists for diagnostics: the bucket occupancy
// report used by cmd/zalloctrace and the WASM component Stats() export.
func (sc SizeClasses) Describe(freeLists []FreeList) []BucketStat {
	stats := make([]BucketStat, len(freeLists))
	for i := range freeLists {
		size := uintptr(0)
		if i != JumboBucket {
			size = sc.BucketSize(i)
		}
		stats[i] = BucketStat{Index: i, FrameSize: size, FreeCount: freeLists[i].Len()}
	}
	return stats
}
