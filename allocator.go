package zeealloc

import (
	"fmt"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// Stats aggregates the plain counters Allocator.Stats exposes. Plain
// counters, not atomics: this allocator is single-threaded by design, so
// atomics here would be a needless hedge against a concurrency model it
// never has to support.
type Stats struct {
	BytesFromBacking     uint64
	LiveAllocations      int64
	TotalAllocateCalls   uint64
	TotalDeallocateCalls uint64
	TotalCoalesces       uint64
	// TrackedLive is the live-pointer set's own count, populated only
	// under ValidationDev (-1 otherwise). It should always equal
	// LiveAllocations; a mismatch would mean the two bookkeeping paths
	// have drifted apart.
	TrackedLive int
}

// Allocator is the core: it owns the per-size-class free lists, the
// backing page provider, and implements Allocate/Resize/Deallocate. It is
// not safe for concurrent use — callers serialize access externally.
type Allocator struct {
	cfg     Config
	sc      SizeClasses
	backing PageProvider

	freeLists []FreeList
	// regions records the [start, end) ranges ever returned by backing, so
	// coalescing can tell "buddy address outside any backing allocation"
	// from "buddy address is a real, too-small frame" without
	// dereferencing memory we were never given.
	regions [][2]uintptr

	stats Stats
	log   *logrus.Entry
	live  *liveSet // non-nil only under ValidationDev
}

// NewAllocator constructs an Allocator bound to backing, applying opts on
// top of the library defaults.
func NewAllocator(backing PageProvider, opts ...Option) (*Allocator, error) {
	cfg := NewConfig(opts...)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	sc := newSizeClasses(cfg.PageSize)
	a := &Allocator{
		cfg:       cfg,
		sc:        sc,
		backing:   backing,
		freeLists: make([]FreeList, sc.BucketCount()),
		log:       newAllocatorLog(cfg),
	}
	if cfg.Validation == ValidationDev {
		a.live = newLiveSet()
	}
	return a, nil
}

// Stats returns a snapshot of the allocator's aggregate counters.
func (a *Allocator) Stats() Stats {
	s := a.stats
	s.TrackedLive = -1
	if a.live != nil {
		s.TrackedLive = a.live.count()
	}
	return s
}

// Describe reports per-bucket free-list occupancy, for diagnostics.
func (a *Allocator) Describe() []BucketStat {
	return a.sc.Describe(a.freeLists)
}

// PageSize returns the configured PAGE_SIZE.
func (a *Allocator) PageSize() uintptr {
	return a.cfg.PageSize
}

// Allocate reserves size bytes aligned to align, returning the payload
// slice or ErrOutOfMemory.
func (a *Allocator) Allocate(size, align uintptr) ([]byte, error) {
	if align > frameAlign {
		return nil, ErrOutOfMemory
	}

	target := a.sc.PadToFrameSize(size)
	frame, err := a.findOrGrow(target)
	if err != nil {
		return nil, err
	}

	frame = a.splitDown(frame, target)
	frame.MarkAllocated()

	a.stats.TotalAllocateCalls++
	a.stats.LiveAllocations++
	if a.live != nil {
		a.live.add(frame.PayloadAddr())
	}
	a.log.WithFields(logrus.Fields{"size": size, "frame": frame.String()}).Debug("allocate")

	return frame.PayloadSlice(0, size), nil
}

// findOrGrow locates a free frame >= target, doubling the search size
// across buckets 1..B-1 before falling back to the backing provider.
func (a *Allocator) findOrGrow(target uintptr) (Frame, error) {
	for searchSize := target; ; {
		bucket := a.sc.BucketOf(searchSize)
		if frame := a.takeFit(bucket, searchSize); frame != 0 {
			return frame, nil
		}
		if bucket <= PageBucket {
			break
		}
		searchSize *= 2
	}
	return a.growFromBacking(target)
}

// takeFit pops a fitting frame from bucket, or returns 0. Non-jumbo
// buckets only ever hold frames of exactly their canonical size, so any
// head is a fit; the jumbo bucket applies Config.JumboMatchStrategy.
func (a *Allocator) takeFit(bucket int, searchSize uintptr) Frame {
	fl := &a.freeLists[bucket]
	if bucket != JumboBucket {
		return fl.RemoveAfter(0)
	}
	switch a.cfg.JumboMatchStrategy {
	case JumboFirst:
		return removeJumboFirst(fl, searchSize)
	case JumboClosest:
		return removeJumboClosest(fl, searchSize)
	default:
		return removeJumboExact(fl, searchSize)
	}
}

func removeJumboExact(fl *FreeList, target uintptr) Frame {
	var found Frame
	fl.Each(func(f Frame) bool {
		if f.FrameSize() == target {
			found = f
			return false
		}
		return true
	})
	if found != 0 {
		fl.Remove(found)
	}
	return found
}

func removeJumboFirst(fl *FreeList, target uintptr) Frame {
	var found Frame
	fl.Each(func(f Frame) bool {
		if f.FrameSize() >= target {
			found = f
			return false
		}
		return true
	})
	if found != 0 {
		fl.Remove(found)
	}
	return found
}

func removeJumboClosest(fl *FreeList, target uintptr) Frame {
	var best Frame
	var bestSize uintptr
	fl.Each(func(f Frame) bool {
		s := f.FrameSize()
		if s == target {
			best, bestSize = f, s
			return false
		}
		if s >= target && (best == 0 || s < bestSize) {
			best, bestSize = f, s
		}
		return true
	})
	if best != 0 {
		fl.Remove(best)
	}
	return best
}

// growFromBacking asks the backing provider for a fresh PAGE_SIZE-multiple,
// PAGE_SIZE-aligned chunk and carves a single Frame over it.
func (a *Allocator) growFromBacking(target uintptr) (Frame, error) {
	allocSize := alignUp(target, a.cfg.PageSize)
	raw, err := a.backing.Allocate(allocSize, a.cfg.PageSize)
	if err != nil {
		a.log.WithError(err).Warn("backing allocate failed")
		return 0, ErrOutOfMemory
	}
	if uintptr(len(raw)) != allocSize {
		return 0, fmt.Errorf("%w: backing returned %d bytes, wanted %d", ErrOutOfMemory, len(raw), allocSize)
	}

	frame := initFrame(raw)
	a.recordRegion(frame.Addr(), allocSize)
	a.stats.BytesFromBacking += uint64(allocSize)
	return frame, nil
}

func (a *Allocator) recordRegion(start, size uintptr) {
	a.regions = append(a.regions, [2]uintptr{start, start + size})
}

func (a *Allocator) inBacking(addr uintptr) bool {
	for _, r := range a.regions {
		if addr >= r[0] && addr < r[1] {
			return true
		}
	}
	return false
}

// splitDown carves frame down to the smallest size class that still fits
// target, pushing each carved remainder onto its bucket's free list (also
// reused by Resize's in-place shrink). Jumbo frames never enter the loop
// (frame_size > PageSize short-circuits it), so they are never split.
func (a *Allocator) splitDown(frame Frame, target uintptr) Frame {
	floor := target
	if floor < minFrameSize {
		floor = minFrameSize
	}
	for frame.FrameSize() > floor && frame.FrameSize() <= a.cfg.PageSize {
		cur := frame.FrameSize()
		half := cur / 2
		sub := Frame(uintptr(frame) + half)
		sub.setFrameSize(half)
		sub.setNext(0)
		a.freeLists[a.sc.BucketOf(half)].Prepend(sub)
		frame.setFrameSize(half)
	}
	return frame
}

// Resize changes an existing allocation's size. Shrinking happens in place
// and returns a slice starting at the same pointer; growing allocates
// fresh, copies, and frees the original. No attempt is made to grow in
// place even when the neighboring buddy happens to be free — that keeps
// the resize path simple at the cost of an extra copy on grow.
func (a *Allocator) Resize(oldPayload []byte, newSize, newAlign uintptr) ([]byte, error) {
	if newAlign > frameAlign {
		return nil, ErrOutOfMemory
	}

	frame, err := a.recoverFrame(oldPayload)
	if err != nil {
		a.abort(err)
		return nil, err
	}
	if a.cfg.Validation != ValidationUnsafe && !frame.IsAllocated() {
		err := fmt.Errorf("zeealloc: resize on non-allocated %s", frame)
		a.abort(err)
		return nil, err
	}

	// oldCapacity, not len(oldPayload), bounds the copy below: the C ABI
	// shim (package cabi) only ever has a pointer, not the caller's
	// original requested length, and reconstructs a synthetic one-byte
	// slice to recover the frame. The frame's actual usable size is always
	// >= whatever the caller last asked for, so copying up to it is always
	// correct — at worst it also copies unread padding bytes that belong
	// to this allocation anyway.
	oldCapacity := frame.PayloadSize()
	if newSize <= oldCapacity {
		target := a.sc.PadToFrameSize(newSize)
		frame = a.splitDown(frame, target)
		frame.MarkAllocated()
		return frame.PayloadSlice(0, newSize), nil
	}

	newPayload, err := a.Allocate(newSize, newAlign)
	if err != nil {
		return nil, err
	}
	copy(newPayload, frame.PayloadSlice(0, oldCapacity))
	a.deallocateFrame(frame)
	return newPayload, nil
}

// Deallocate returns payload to the allocator, coalescing with its buddy
// chain under FreeCompact.
func (a *Allocator) Deallocate(payload []byte) {
	frame, err := a.recoverFrame(payload)
	if err != nil {
		a.abort(err)
		return
	}
	if a.live != nil && !a.live.addrs.Contains(frame.PayloadAddr()) {
		a.abort(ErrDoubleFree)
		return
	}
	if a.cfg.Validation != ValidationUnsafe && !frame.IsAllocated() {
		a.abort(fmt.Errorf("zeealloc: double free or foreign pointer at %s", frame))
		return
	}
	a.deallocateFrame(frame)
}

// deallocateFrame is the shared tail of Deallocate and Resize's grow path:
// both already hold a validated, allocated Frame and just need the free
// bookkeeping done once.
func (a *Allocator) deallocateFrame(frame Frame) {
	if a.live != nil && !a.live.remove(frame.PayloadAddr()) {
		a.abort(ErrDoubleFree)
		return
	}

	frame.markFree()
	a.stats.TotalDeallocateCalls++
	a.stats.LiveAllocations--
	a.log.WithField("frame", frame.String()).Debug("deallocate")

	if a.cfg.FreeStrategy == FreeFast || frame.FrameSize() >= a.cfg.PageSize {
		a.freeLists[a.sc.BucketOf(frame.FrameSize())].Prepend(frame)
		return
	}
	a.coalesce(frame)
}

// coalesce walks the buddy chain upward, merging while the buddy is free,
// the right size, and inside a region we actually got from backing.
func (a *Allocator) coalesce(frame Frame) {
	for frame.FrameSize() < a.cfg.PageSize {
		size := frame.FrameSize()
		buddyAddr := a.sc.BuddyAddress(uintptr(frame), size)
		if !a.inBacking(buddyAddr) {
			break
		}
		buddy := frameFromAddress(buddyAddr, a.cfg.PageSize, a.cfg.Validation)
		if buddy.IsAllocated() || buddy.FrameSize() != size {
			break
		}
		removed := a.freeLists[a.sc.BucketOf(size)].Remove(buddy)
		if a.cfg.Validation == ValidationDev {
			assertf(removed, "zeealloc: buddy %s missing from its free list during coalesce", buddy)
		}

		merged := Frame(min(uintptr(frame), buddyAddr))
		merged.setFrameSize(size * 2)
		frame = merged
		a.stats.TotalCoalesces++
	}
	a.freeLists[a.sc.BucketOf(frame.FrameSize())].Prepend(frame)
}

// recoverFrame recovers payload's Frame, honoring Config.Validation:
// ValidationUnsafe trusts the pointer outright (a bad pointer there is
// undefined behavior), everything else validates.
func (a *Allocator) recoverFrame(payload []byte) (Frame, error) {
	ptr := unsafe.Pointer(unsafe.SliceData(payload))
	if a.cfg.Validation == ValidationUnsafe {
		return Frame(uintptr(ptr) - headerSize), nil
	}
	return FrameFromPayload(ptr, a.cfg.PageSize)
}

// abort logs (Dev only has a listening logger; External's is silenced,
// see newAllocatorLog) and panics on a detected metadata violation. Unsafe
// never reaches here — recoverFrame doesn't validate under it.
func (a *Allocator) abort(err error) {
	a.log.WithError(err).Error("zeealloc: aborting on metadata violation")
	panic(err)
}
