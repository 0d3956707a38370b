//go:build wasm || wasip1

// Package component surfaces allocator diagnostics across the WASM
// Component Model ABI boundary: per-bucket free list occupancy, exposed to
// a WIT host import via cm.List.
package component

import (
	"github.com/fengb/zee-alloc"

	"go.bytecodealliance.org/cm"
)

// BucketStat mirrors zeealloc.BucketStat in a shape cm.List can carry
// across the ABI boundary.
type BucketStat struct {
	Index     uint32
	FrameSize uint64
	FreeCount uint32
}

// Stats converts an Allocator's bucket report into a cm.List a component
// host can read directly, without the host needing to understand Go slice
// layout.
func Stats(alloc *zeealloc.Allocator) cm.List[BucketStat] {
	report := alloc.Describe()
	out := make([]BucketStat, len(report))
	for i, b := range report {
		out[i] = BucketStat{
			Index:     uint32(b.Index),
			FrameSize: uint64(b.FrameSize),
			FreeCount: uint32(b.FreeCount),
		}
	}
	return cm.ToList(out)
}
