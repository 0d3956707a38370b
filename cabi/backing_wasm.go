//go:build wasm || wasip1

package cabi

import (
	"github.com/fengb/zee-alloc"
	"github.com/fengb/zee-alloc/backing"
)

func newDefaultBacking() zeealloc.PageProvider {
	return backing.NewWasmGrowProvider()
}
