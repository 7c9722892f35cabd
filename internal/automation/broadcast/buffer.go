package broadcast

import "sync"

// RingBuffer is a bounded, thread-safe buffer. When full, the oldest item
// is dropped to make room for the new one.
type RingBuffer[T any] struct {
	mu       sync.Mutex
	items    []T
	head     int // next write position
	count    int
	capacity int

	dropped int64
}

func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RingBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Push adds an item, evicting the oldest if necessary.
func (b *RingBuffer[T]) Push(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.count < b.capacity {
		b.count++
		return
	}
	b.dropped++
}

// Newest returns the buffered items, newest first.
func (b *RingBuffer[T]) Newest() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]T, b.count)
	for i := range b.count {
		out[i] = b.items[(b.head-1-i+b.capacity)%b.capacity]
	}
	return out
}

func (b *RingBuffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Dropped returns the total number of evicted items.
func (b *RingBuffer[T]) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
