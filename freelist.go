package zeealloc

// FreeList is a headed, intrusive, singly-linked list of free Frames,
// threaded through each frame's header next slot. The zero value is an
// empty list. There is one FreeList per size class, held in an array by
// the Allocator core.
type FreeList struct {
	head Frame
}

// Prepend inserts node at the head of the list. node's next slot is
// overwritten unconditionally — callers must not Prepend a frame that is
// still linked into another list.
func (l *FreeList) Prepend(node Frame) {
	node.setNext(l.head)
	l.head = node
}

// RemoveAfter detaches and returns the frame after cursor, or 0 if there is
// none. cursor == 0 means "the head itself" — the O(1) pop used by the
// allocate fast path.
func (l *FreeList) RemoveAfter(cursor Frame) Frame {
	if cursor == 0 {
		node := l.head
		if node == 0 {
			return 0
		}
		l.head = node.Next()
		node.setNext(0) // detached; next slot no longer meaningful
		return node
	}
	node := cursor.Next()
	if node == 0 {
		return 0
	}
	cursor.setNext(node.Next())
	node.setNext(0)
	return node
}

// Remove scans from head and unlinks target if present; it is a no-op if
// target is absent. O(n) — used only by buddy coalescing, where the bucket
// fan-out is bounded by log2(PAGE_SIZE/MIN_FRAME_SIZE).
func (l *FreeList) Remove(target Frame) bool {
	if l.head == target {
		l.head = target.Next()
		return true
	}
	for cur := l.head; cur != 0; cur = cur.Next() {
		if next := cur.Next(); next == target {
			cur.setNext(next.Next())
			return true
		}
	}
	return false
}

// Len counts the frames on the list. O(n); debug/diagnostics only.
func (l *FreeList) Len() int {
	n := 0
	l.Each(func(Frame) bool { n++; return true })
	return n
}

// Each calls fn for every frame on the list, head first, stopping early if
// fn returns false.
func (l *FreeList) Each(fn func(Frame) bool) {
	for cur := l.head; cur != 0; cur = cur.Next() {
		if !fn(cur) {
			return
		}
	}
}

// Head exposes the list's first frame without removing it, or 0 if empty.
func (l *FreeList) Head() Frame {
	return l.head
}

// Empty reports whether the list has no frames.
func (l *FreeList) Empty() bool {
	return l.head == 0
}
