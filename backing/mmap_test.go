//go:build unix

package backing

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addrOf(t *testing.T, data []byte) uintptr {
	t.Helper()
	require.NotEmpty(t, data)
	return uintptr(unsafe.Pointer(unsafe.SliceData(data)))
}

func TestMmapProviderAlignment(t *testing.T) {
	p := NewMmapProvider()
	defer p.Close()

	const pageSize = 64 * 1024
	data, err := p.Allocate(pageSize, pageSize)
	require.NoError(t, err)
	require.Len(t, data, pageSize)

	addr := addrOf(t, data)
	assert.Zero(t, addr%pageSize, "expected %#x to be %d-aligned", addr, pageSize)
}

func TestMmapProviderNeverOverlaps(t *testing.T) {
	p := NewMmapProvider()
	defer p.Close()

	const pageSize = 64 * 1024
	first, err := p.Allocate(pageSize, pageSize)
	require.NoError(t, err)
	second, err := p.Allocate(pageSize, pageSize)
	require.NoError(t, err)

	firstStart := addrOf(t, first)
	secondStart := addrOf(t, second)
	assert.NotEqual(t, firstStart, secondStart)

	// The two regions must not overlap, regardless of allocation order.
	overlap := firstStart < secondStart+pageSize && secondStart < firstStart+pageSize
	assert.False(t, overlap, "regions [%#x,+%d) and [%#x,+%d) overlap", firstStart, pageSize, secondStart, pageSize)
}

func TestMmapProviderZeroSizedRequestErrors(t *testing.T) {
	p := NewMmapProvider()
	defer p.Close()

	_, err := p.Allocate(0, 64*1024)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}
