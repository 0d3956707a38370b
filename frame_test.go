package zeealloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestFrame carves a frame of size out of an oversized backing buffer,
// rounding the start address up to frameAlign by hand since make() doesn't
// promise 2*word alignment for arbitrary byte slices.
func newTestFrame(t *testing.T, size uintptr) Frame {
	t.Helper()
	buf := make([]byte, size+frameAlign)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	aligned := (base + frameAlign - 1) &^ (frameAlign - 1)
	offset := aligned - base
	return initFrame(buf[offset : offset+size])
}

func TestFrameSizeRoundTrip(t *testing.T) {
	f := newTestFrame(t, 64)
	f.setFrameSize(64)
	assert.Equal(t, uintptr(64), f.FrameSize())
}

func TestFrameAllocatedSentinelDistinctFromAnyNext(t *testing.T) {
	f := newTestFrame(t, 64)
	assert.False(t, f.IsAllocated())
	f.MarkAllocated()
	assert.True(t, f.IsAllocated())
	f.markFree()
	assert.False(t, f.IsAllocated())
}

func TestFrameNextRoundTrip(t *testing.T) {
	a := newTestFrame(t, 64)
	b := newTestFrame(t, 64)
	a.setNext(b)
	assert.Equal(t, b, a.Next())
}

func TestFrameFromPayloadRejectsUnalignedPointer(t *testing.T) {
	var junk [1]byte
	_, err := FrameFromPayload(unsafe.Pointer(&junk[0]), DefaultPageSize)
	assert.ErrorIs(t, err, ErrUnalignedMemory)
}

func TestFrameFromPayloadRoundTrip(t *testing.T) {
	f := newTestFrame(t, 64)
	f.setFrameSize(64)
	recovered, err := FrameFromPayload(f.Payload(), DefaultPageSize)
	require.NoError(t, err)
	assert.Equal(t, f, recovered)
}

func TestIsValidFrameSizeForPage(t *testing.T) {
	cases := []struct {
		size, pageSize uintptr
		want           bool
	}{
		{0, DefaultPageSize, false},
		{minFrameSize, DefaultPageSize, true},
		{minFrameSize - 1, DefaultPageSize, false},
		{minFrameSize * 3, DefaultPageSize, false}, // not a power of two
		{DefaultPageSize, DefaultPageSize, true},
		{DefaultPageSize * 2, DefaultPageSize, true},
		{DefaultPageSize*2 + 1, DefaultPageSize, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, isValidFrameSizeForPage(c.size, c.pageSize), "size=%d pageSize=%d", c.size, c.pageSize)
	}
}

func TestPayloadSliceBounds(t *testing.T) {
	f := newTestFrame(t, 64)
	f.setFrameSize(64)
	s := f.PayloadSlice(0, f.PayloadSize())
	assert.Len(t, s, int(f.PayloadSize()))

	empty := f.PayloadSlice(0, 0)
	assert.Len(t, empty, 0)

	assert.Panics(t, func() { f.PayloadSlice(0, f.PayloadSize()+1) })
}

func TestLog2AndNextPow2(t *testing.T) {
	assert.Equal(t, 0, log2(1))
	assert.Equal(t, 6, log2(64))
	assert.Equal(t, uintptr(1), nextPow2(1))
	assert.Equal(t, uintptr(64), nextPow2(64))
	assert.Equal(t, uintptr(128), nextPow2(65))
}
