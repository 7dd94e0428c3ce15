/*
NAME
  reorder.go

DESCRIPTION
  reorder.go implements the min-heap reorder buffer shared by the encode
  writer stage and the decode reassembly stage: results may complete out
  of order, but must be flushed to the next stage in ascending
  frame_index order.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import "container/heap"

// indexedItem holds an arbitrary payload under its frame_index, the
// concrete type reorderBuffer operates on.
type indexedItem struct {
	idx     int
	payload interface{}
}

// itemHeap is a container/heap min-heap of indexedItem, ordered by index.
type itemHeap []indexedItem

func (h itemHeap) Len() int            { return len(h) }
func (h itemHeap) Less(i, j int) bool  { return h[i].idx < h[j].idx }
func (h itemHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x interface{}) { *h = append(*h, x.(indexedItem)) }
func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// reorderBuffer buffers out-of-order (frame_index, payload) results and
// yields them strictly in ascending index order starting from zero. It is
// single-threaded and needs no locking of its own; callers serialize
// access to it.
type reorderBuffer struct {
	h     itemHeap
	next  int
	bound int // refuse to buffer indices further ahead of next than this.
}

// newReorderBuffer returns an empty buffer expecting indices starting at
// 0. bound caps how far ahead of `next` an index may sit before it is
// treated as an invariant violation: a worker produced out-of-order
// indices beyond the heap's bound.
func newReorderBuffer(bound int) *reorderBuffer {
	return &reorderBuffer{bound: bound}
}

// Push adds one out-of-order result. ok is false if idx is too far ahead
// of the next expected index, signalling an InternalError to the caller.
func (b *reorderBuffer) Push(idx int, payload interface{}) bool {
	if idx-b.next > b.bound {
		return false
	}
	heap.Push(&b.h, indexedItem{idx: idx, payload: payload})
	return true
}

// Drain returns every buffered item whose index is now the next expected
// one, in order, advancing `next` past each one returned.
func (b *reorderBuffer) Drain() []interface{} {
	var out []interface{}
	for len(b.h) > 0 && b.h[0].idx == b.next {
		item := heap.Pop(&b.h).(indexedItem)
		out = append(out, item.payload)
		b.next++
	}
	return out
}

// Empty reports whether every pushed item has been drained.
func (b *reorderBuffer) Empty() bool { return len(b.h) == 0 }
