//go:build !fast

package cabi

import "github.com/fengb/zee-alloc"

const defaultFreeStrategy = zeealloc.FreeCompact
