package stream

import "sync"

// Buffer is a thread-safe ring buffer that doubles its capacity when it
// reaches 70% full. The read loop pushes quote updates in; the poller
// drains the backlog when assembling the next snapshot.
type Buffer[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []T
	head     int
	tail     int
	count    int
	capacity int
	closed   bool

	totalPushed  int64
	totalDrained int64
	resizes      int
}

// NewBuffer creates a buffer with the given initial capacity.
func NewBuffer[T any](initialCapacity int) *Buffer[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	b := &Buffer[T]{
		buf:      make([]T, initialCapacity),
		capacity: initialCapacity,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Push adds an item, growing the buffer when near capacity. Returns
// false once the buffer is closed.
func (b *Buffer[T]) Push(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	threshold := (b.capacity * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if b.count+1 >= threshold {
		b.grow()
	}

	b.buf[b.tail] = item
	b.tail = (b.tail + 1) % b.capacity
	b.count++
	b.totalPushed++

	b.cond.Signal()
	return true
}

// Pop blocks until an item is available or the buffer is closed and
// empty.
func (b *Buffer[T]) Pop() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.count == 0 && !b.closed {
		b.cond.Wait()
	}
	if b.count == 0 {
		var zero T
		return zero, false
	}
	return b.popLocked(), true
}

// Drain removes and returns every buffered item in arrival order.
func (b *Buffer[T]) Drain() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}
	out := make([]T, 0, b.count)
	for b.count > 0 {
		out = append(out, b.popLocked())
	}
	return out
}

func (b *Buffer[T]) popLocked() T {
	item := b.buf[b.head]
	var zero T
	b.buf[b.head] = zero
	b.head = (b.head + 1) % b.capacity
	b.count--
	b.totalDrained++
	return item
}

// Close stops further pushes and wakes blocked readers.
func (b *Buffer[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cond.Broadcast()
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the current capacity.
func (b *Buffer[T]) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

// Stats reports buffer counters.
func (b *Buffer[T]) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BufferStats{
		Count:        b.count,
		Capacity:     b.capacity,
		TotalPushed:  b.totalPushed,
		TotalDrained: b.totalDrained,
		Resizes:      b.resizes,
	}
}

// BufferStats contains buffer counters.
type BufferStats struct {
	Count        int
	Capacity     int
	TotalPushed  int64
	TotalDrained int64
	Resizes      int
}

// grow doubles capacity. Caller holds mu.
func (b *Buffer[T]) grow() {
	newBuf := make([]T, b.capacity*2)
	if b.count > 0 {
		if b.head < b.tail {
			copy(newBuf, b.buf[b.head:b.tail])
		} else {
			n := copy(newBuf, b.buf[b.head:])
			copy(newBuf[n:], b.buf[:b.tail])
		}
	}
	b.buf = newBuf
	b.head = 0
	b.tail = b.count
	b.capacity *= 2
	b.resizes++
}
