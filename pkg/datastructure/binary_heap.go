package datastructure

import (
	"errors"
	"math"
)

var (
	ErrHeapEmpty       = errors.New("heap is empty")
	ErrInvalidDecrease = errors.New("invalid index or new value")
)

type PriorityQueueNode[T comparable] struct {
	rank float64
	item T
}

func (p *PriorityQueueNode[T]) GetItem() T {
	return p.item
}

func (p *PriorityQueueNode[T]) GetRank() float64 {
	return p.rank
}

func NewPriorityQueueNode[T comparable](rank float64, item T) PriorityQueueNode[T] {
	return PriorityQueueNode[T]{rank: rank, item: item}
}

// MinHeap binary heap priority queue with decrease-key.
// pos[item] is the item's slot in heap, -1 once extracted.
type MinHeap[T comparable] struct {
	heap []PriorityQueueNode[T]
	pos  map[T]int
}

func NewMinHeap[T comparable]() *MinHeap[T] {
	return &MinHeap[T]{
		heap: make([]PriorityQueueNode[T], 0),
		pos:  make(map[T]int),
	}
}

func (h *MinHeap[T]) parent(index int) int {
	return (index - 1) / 2
}

func (h *MinHeap[T]) leftChild(index int) int {
	return 2*index + 1
}

func (h *MinHeap[T]) rightChild(index int) int {
	return 2*index + 2
}

func (h *MinHeap[T]) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.pos[h.heap[i].item] = i
	h.pos[h.heap[j].item] = j
}

// heapifyUp moves index towards the root while its parent has a larger rank. O(logN).
func (h *MinHeap[T]) heapifyUp(index int) {
	for index != 0 && h.heap[index].rank < h.heap[h.parent(index)].rank {
		h.swap(index, h.parent(index))
		index = h.parent(index)
	}
}

// heapifyDown moves index towards the leaves while a child has a smaller rank. O(logN).
func (h *MinHeap[T]) heapifyDown(index int) {
	for {
		smallest := index
		left := h.leftChild(index)
		right := h.rightChild(index)

		if left < len(h.heap) && h.heap[left].rank < h.heap[smallest].rank {
			smallest = left
		}
		if right < len(h.heap) && h.heap[right].rank < h.heap[smallest].rank {
			smallest = right
		}
		if smallest == index {
			return
		}
		h.swap(index, smallest)
		index = smallest
	}
}

func (h *MinHeap[T]) isEmpty() bool {
	return len(h.heap) == 0
}

func (h *MinHeap[T]) Size() int {
	return len(h.heap)
}

func (h *MinHeap[T]) Clear() {
	h.heap = make([]PriorityQueueNode[T], 0)
	h.pos = make(map[T]int)
}

// Contains reports whether item is currently queued.
func (h *MinHeap[T]) Contains(item T) bool {
	idx, ok := h.pos[item]
	return ok && idx >= 0
}

func (h *MinHeap[T]) GetMin() (PriorityQueueNode[T], error) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, ErrHeapEmpty
	}
	return h.heap[0], nil
}

func (h *MinHeap[T]) GetMinrank() float64 {
	if h.isEmpty() {
		return math.MaxFloat64
	}
	return h.heap[0].rank
}

func (h *MinHeap[T]) Insert(key PriorityQueueNode[T]) {
	h.heap = append(h.heap, key)
	index := h.Size() - 1
	h.pos[key.item] = index
	h.heapifyUp(index)
}

// ExtractMin pops the minimum-rank node. O(logN).
func (h *MinHeap[T]) ExtractMin() (PriorityQueueNode[T], error) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, ErrHeapEmpty
	}
	root := h.heap[0]
	last := h.Size() - 1
	h.heap[0] = h.heap[last]
	h.pos[h.heap[0].item] = 0
	h.heap = h.heap[:last]
	h.pos[root.item] = -1
	h.heapifyDown(0)
	return root, nil
}

// DecreaseKey lowers the rank of a queued item. O(logN).
func (h *MinHeap[T]) DecreaseKey(item PriorityQueueNode[T]) error {
	idx, ok := h.pos[item.item]
	if !ok || idx < 0 || idx >= h.Size() || item.rank > h.heap[idx].rank {
		return ErrInvalidDecrease
	}
	h.heap[idx] = item
	h.heapifyUp(idx)
	return nil
}

// Upsert inserts item or lowers its rank if it is already queued.
func (h *MinHeap[T]) Upsert(item PriorityQueueNode[T]) error {
	if h.Contains(item.item) {
		return h.DecreaseKey(item)
	}
	h.Insert(item)
	return nil
}

func (h *MinHeap[T]) Getitem(item T) PriorityQueueNode[T] {
	return h.heap[h.pos[item]]
}
