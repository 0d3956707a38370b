package zeealloc

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// assertf panics if cond is false. It is only ever called from paths gated
// on Config.Validation == ValidationDev: the coalescing checks that a
// buddy has a valid header and sits on its bucket's free list. Split-down
// bounds and free-list duplicates are not asserted.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// liveSet tracks the payload addresses currently handed out to callers. It
// exists purely to turn a Dev-mode double free into a precise diagnostic
// instead of an opaque sentinel-mismatch panic; allocate/resize/deallocate
// semantics are unaffected when it is nil (External and Unsafe builds never
// allocate one).
//
// mapset.NewThreadUnsafeSet is deliberate, not a shortcut: this allocator
// is single-threaded and not reentrant by design, so paying for a
// mutex-guarded set here would only slow down the one call path that uses
// it.
type liveSet struct {
	addrs mapset.Set[uintptr]
}

func newLiveSet() *liveSet {
	return &liveSet{addrs: mapset.NewThreadUnsafeSet[uintptr]()}
}

func (s *liveSet) add(addr uintptr) {
	s.addrs.Add(addr)
}

// remove reports whether addr was present (and removes it). A caller
// freeing an address not in the set is either double-freeing or passing a
// foreign pointer; header validation in recoverFrame usually catches the
// latter first, so in practice this distinguishes the former.
func (s *liveSet) remove(addr uintptr) bool {
	if !s.addrs.Contains(addr) {
		return false
	}
	s.addrs.Remove(addr)
	return true
}

// count reports how many live addresses are currently tracked, surfaced
// through Allocator.Stats as a cross-check against LiveAllocations.
func (s *liveSet) count() int {
	return s.addrs.Cardinality()
}
