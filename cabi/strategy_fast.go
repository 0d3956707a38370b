//go:build fast

package cabi

import "github.com/fengb/zee-alloc"

// The fast build tag trades buddy coalescing for minimum CPU on the free
// path, prepending every freed frame to its bucket immediately.
const defaultFreeStrategy = zeealloc.FreeFast
