// Package queue provides a lock-free Multi-Producer Single-Consumer (MPSC) queue.
//
// Features and Guarantees:
//
//   - Lock-Free: producers only use atomic compare-and-swap, no mutex is taken on Push
//   - Unbounded Size: the queue grows as needed, limited only by available memory
//   - Thread-Safe writes: any number of goroutines may Push concurrently
//   - Single Consumer: exactly one goroutine polls with Pop or Drain. The consumer never
//     blocks, which makes the queue suitable for a busy polling event loop.
//   - Per-Producer FIFO: values pushed by one goroutine are popped in push order. Across
//     producers the order is the order in which their appends were linearized.
package queue

import (
	"runtime"
	"sync/atomic"
)

// node represents a single element in the queue
type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// MPSC is a lock-free multi-producer single-consumer queue backed by a linked
// list with a sentinel head node
type MPSC[T any] struct {
	head   atomic.Pointer[node[T]] // consumer side, always a sentinel
	tail   atomic.Pointer[node[T]] // producer side
	size   atomic.Int64
	closed atomic.Bool
}

// NewMPSC creates an empty queue
func NewMPSC[T any]() *MPSC[T] {
	sentinel := &node[T]{}
	q := &MPSC[T]{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	return q
}

// Push appends a value. It returns false if the queue is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *MPSC[T]) Push(value T) bool {
	if q.closed.Load() {
		return false
	}

	newNode := &node[T]{value: value}
	var backoff uint8

	for {
		tailNode := q.tail.Load()
		next := tailNode.next.Load()
		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// may fail if another producer already advanced the tail, which is fine
				q.tail.CompareAndSwap(tailNode, newNode)
				q.size.Add(1)
				return true
			}
		} else {
			// help a producer that appended but did not move the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		// exponential backoff under contention
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// Pop removes the oldest value. The boolean is false if the queue is empty.
//
// Thread-safety: only the single consumer goroutine may call Pop.
func (q *MPSC[T]) Pop() (T, bool) {
	var zero T
	head := q.head.Load()
	next := head.next.Load()
	if next == nil {
		return zero, false
	}

	value := next.value
	// next becomes the new sentinel, clear its value for the gc
	next.value = zero
	q.head.Store(next)
	q.size.Add(-1)
	return value, true
}

// Drain pops at most max values and hands each to fn. It returns the number of
// values processed. A non-positive max drains everything.
//
// Thread-safety: only the single consumer goroutine may call Drain.
func (q *MPSC[T]) Drain(max int, fn func(T)) int {
	n := 0
	for max <= 0 || n < max {
		v, ok := q.Pop()
		if !ok {
			break
		}
		fn(v)
		n++
	}
	return n
}

// Close rejects further pushes. Queued values can still be popped.
func (q *MPSC[T]) Close() {
	q.closed.Store(true)
}

// IsClosed returns true if the queue is closed
func (q *MPSC[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len returns an approximate count of queued values
func (q *MPSC[T]) Len() int {
	return int(q.size.Load())
}

// IsEmpty reports whether the consumer would find nothing to pop
func (q *MPSC[T]) IsEmpty() bool {
	return q.head.Load().next.Load() == nil
}
