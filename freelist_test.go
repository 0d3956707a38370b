package zeealloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreeListPrependRemoveAfterHeadOrder(t *testing.T) {
	var fl FreeList
	a := newTestFrame(t, 64)
	b := newTestFrame(t, 64)
	c := newTestFrame(t, 64)

	fl.Prepend(a)
	fl.Prepend(b)
	fl.Prepend(c)

	assert.Equal(t, c, fl.Head())
	assert.Equal(t, 3, fl.Len())

	popped := fl.RemoveAfter(0)
	assert.Equal(t, c, popped)
	assert.Equal(t, b, fl.Head())
	assert.Equal(t, 2, fl.Len())
}

func TestFreeListRemoveAfterCursor(t *testing.T) {
	var fl FreeList
	a := newTestFrame(t, 64)
	b := newTestFrame(t, 64)
	c := newTestFrame(t, 64)
	fl.Prepend(a)
	fl.Prepend(b)
	fl.Prepend(c) // list: c -> b -> a

	removed := fl.RemoveAfter(c)
	assert.Equal(t, b, removed)

	var order []Frame
	fl.Each(func(f Frame) bool {
		order = append(order, f)
		return true
	})
	assert.Equal(t, []Frame{c, a}, order)
}

func TestFreeListRemoveByIdentity(t *testing.T) {
	var fl FreeList
	a := newTestFrame(t, 64)
	b := newTestFrame(t, 64)
	c := newTestFrame(t, 64)
	fl.Prepend(a)
	fl.Prepend(b)
	fl.Prepend(c)

	assert.True(t, fl.Remove(b))
	assert.False(t, fl.Remove(b)) // already gone
	assert.Equal(t, 2, fl.Len())

	assert.True(t, fl.Remove(c)) // head case
	assert.Equal(t, 1, fl.Len())
	assert.Equal(t, a, fl.Head())
}

func TestFreeListEmpty(t *testing.T) {
	var fl FreeList
	assert.True(t, fl.Empty())
	assert.Equal(t, Frame(0), fl.RemoveAfter(0))

	fl.Prepend(newTestFrame(t, 64))
	assert.False(t, fl.Empty())
}
