package cabi

import (
	"sync"
	"unsafe"

	"github.com/fengb/zee-alloc"
)

var defaultShim = sync.OnceValue(func() *Shim {
	alloc, err := zeealloc.NewAllocator(newDefaultBacking(), zeealloc.WithFreeStrategy(defaultFreeStrategy))
	if err != nil {
		panic(err)
	}
	return New(alloc)
})

//export malloc
func malloc(n uintptr) unsafe.Pointer {
	return defaultShim().Malloc(n)
}

//export realloc
func realloc(p unsafe.Pointer, n uintptr) unsafe.Pointer {
	return defaultShim().Realloc(p, n)
}

//export free
func free(p unsafe.Pointer) {
	defaultShim().Free(p)
}

//export calloc
func calloc(count, size uintptr) unsafe.Pointer {
	return defaultShim().Calloc(count, size)
}

//export cabi_realloc
func cabi_realloc(ptr unsafe.Pointer, oldSize, align, newSize uintptr) unsafe.Pointer {
	return defaultShim().CabiRealloc(ptr, oldSize, align, newSize)
}

//export cabi_free
func cabi_free(ptr unsafe.Pointer) {
	defaultShim().CabiFree(ptr)
}
