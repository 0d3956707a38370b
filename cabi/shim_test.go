//go:build unix

package cabi

import (
	"testing"
	"unsafe"

	"github.com/fengb/zee-alloc"
	"github.com/fengb/zee-alloc/backing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShim(t *testing.T) *Shim {
	t.Helper()
	alloc, err := zeealloc.NewAllocator(backing.NewMmapProvider())
	require.NoError(t, err)
	return New(alloc)
}

func TestMallocFreeRoundTrip(t *testing.T) {
	s := newTestShim(t)
	p := s.Malloc(32)
	require.NotNil(t, p)
	s.Free(p)
}

func TestMallocZeroIsNonNil(t *testing.T) {
	s := newTestShim(t)
	p := s.Malloc(0)
	assert.NotNil(t, p)
	s.Free(p)
}

func TestFreeNilIsNoop(t *testing.T) {
	s := newTestShim(t)
	assert.NotPanics(t, func() { s.Free(nil) })
}

func TestReallocNilActsAsMalloc(t *testing.T) {
	s := newTestShim(t)
	p := s.Realloc(nil, 16)
	require.NotNil(t, p)
	s.Free(p)
}

func TestReallocGrowsAndPreservesPrefix(t *testing.T) {
	s := newTestShim(t)
	p := s.Malloc(8)
	require.NotNil(t, p)

	bytes := unsafe.Slice((*byte)(p), 8)
	bytes[0], bytes[7] = 0x11, 0x22

	grown := s.Realloc(p, 64)
	require.NotNil(t, grown)
	grownBytes := unsafe.Slice((*byte)(grown), 64)
	assert.Equal(t, byte(0x11), grownBytes[0])
	assert.Equal(t, byte(0x22), grownBytes[7])
	s.Free(grown)
}

func TestReallocToZeroFreesAndReturnsValidPointer(t *testing.T) {
	s := newTestShim(t)
	p := s.Malloc(16)
	require.NotNil(t, p)
	zeroed := s.Realloc(p, 0)
	assert.NotNil(t, zeroed)
	s.Free(zeroed)
}

func TestCallocZeroesMemory(t *testing.T) {
	s := newTestShim(t)
	p := s.Calloc(8, 4)
	require.NotNil(t, p)
	bytes := unsafe.Slice((*byte)(p), 32)
	for _, b := range bytes {
		assert.Zero(t, b)
	}
	s.Free(p)
}

func TestCallocOverflowReturnsNil(t *testing.T) {
	s := newTestShim(t)
	p := s.Calloc(^uintptr(0), 2)
	assert.Nil(t, p)
}

func TestCabiReallocNilWithZeroSizeActsAsMallocZero(t *testing.T) {
	s := newTestShim(t)
	p := s.CabiRealloc(nil, 0, 1, 0)
	assert.NotNil(t, p)
	s.CabiFree(p)
}

func TestMulOverflows(t *testing.T) {
	_, overflow := mulOverflows(4, 8)
	assert.False(t, overflow)

	_, overflow = mulOverflows(^uintptr(0), 2)
	assert.True(t, overflow)
}
