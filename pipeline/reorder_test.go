package pipeline

import (
	"math/rand"
	"testing"
)

func TestReorderBufferDrainsInOrderDespiteOutOfOrderPush(t *testing.T) {
	buf := newReorderBuffer(8)
	order := []int{2, 0, 3, 1}
	var drained []int

	for _, idx := range order {
		if !buf.Push(idx, idx) {
			t.Fatalf("Push(%d) rejected unexpectedly", idx)
		}
		for _, item := range buf.Drain() {
			drained = append(drained, item.(int))
		}
	}

	want := []int{0, 1, 2, 3}
	if len(drained) != len(want) {
		t.Fatalf("drained %v, want %v", drained, want)
	}
	for i, v := range want {
		if drained[i] != v {
			t.Fatalf("drained %v, want %v", drained, want)
		}
	}
	if !buf.Empty() {
		t.Fatalf("buffer should be empty after full drain")
	}
}

func TestReorderBufferRejectsFarFutureIndex(t *testing.T) {
	buf := newReorderBuffer(2)
	if !buf.Push(0, nil) {
		t.Fatalf("Push(0) should be accepted")
	}
	if buf.Push(10, nil) {
		t.Fatalf("Push(10) should be rejected: far beyond bound")
	}
}

func TestReorderBufferRandomPermutation(t *testing.T) {
	const n = 200
	perm := rand.New(rand.NewSource(1)).Perm(n)
	buf := newReorderBuffer(n + 1)
	var drained []int
	for _, idx := range perm {
		buf.Push(idx, idx)
	}
	for _, item := range buf.Drain() {
		drained = append(drained, item.(int))
	}
	if len(drained) != n {
		t.Fatalf("drained %d items, want %d", len(drained), n)
	}
	for i, v := range drained {
		if v != i {
			t.Fatalf("drained[%d] = %d, want %d", i, v, i)
		}
	}
}
