package queue

import (
	"runtime"
	"sync"
	"testing"
)

// TestBasicOperations tests push and pop in FIFO order
func TestBasicOperations(t *testing.T) {
	q := NewMPSC[int]()

	for i := 0; i < 10; i++ {
		if !q.Push(i) {
			t.Fatalf("Failed to push item %d", i)
		}
	}
	if q.Len() != 10 {
		t.Errorf("Expected 10 queued items, got %d", q.Len())
	}

	for i := 0; i < 10; i++ {
		v, ok := q.Pop()
		if !ok {
			t.Fatalf("Queue empty at item %d", i)
		}
		if v != i {
			t.Errorf("Expected %d, got %d", i, v)
		}
	}

	if _, ok := q.Pop(); ok {
		t.Error("Queue should be empty")
	}
	if !q.IsEmpty() || q.Len() != 0 {
		t.Error("IsEmpty/Len disagree with Pop")
	}
}

// TestDrainLimit processes at most max values per call
func TestDrainLimit(t *testing.T) {
	q := NewMPSC[int]()
	for i := 0; i < 40; i++ {
		q.Push(i)
	}

	var got []int
	n := q.Drain(16, func(v int) { got = append(got, v) })
	if n != 16 || len(got) != 16 {
		t.Fatalf("Expected 16 drained values, got %d", n)
	}
	if got[0] != 0 || got[15] != 15 {
		t.Errorf("Drain did not keep FIFO order: %v", got)
	}
	if q.Len() != 24 {
		t.Errorf("Expected 24 remaining values, got %d", q.Len())
	}

	if n := q.Drain(0, func(int) {}); n != 24 {
		t.Errorf("Unbounded drain should take the rest, took %d", n)
	}
}

// TestCloseQueue rejects pushes but keeps queued values
func TestCloseQueue(t *testing.T) {
	q := NewMPSC[string]()
	q.Push("a")
	q.Close()

	if q.Push("b") {
		t.Error("Should not be able to push after queue is closed")
	}
	if v, ok := q.Pop(); !ok || v != "a" {
		t.Errorf("Expected queued value after close, got %q %t", v, ok)
	}
	if !q.IsClosed() {
		t.Error("IsClosed should be true")
	}
}

// TestConcurrentProducers verifies no value is lost or duplicated and per producer order holds
func TestConcurrentProducers(t *testing.T) {
	q := NewMPSC[[2]int]()

	const numProducers = 8
	const itemsPerProducer = 2000

	var wg sync.WaitGroup
	wg.Add(numProducers)
	for p := 0; p < numProducers; p++ {
		go func(producer int) {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				q.Push([2]int{producer, i})
				if i%100 == 0 {
					runtime.Gosched()
				}
			}
		}(p)
	}

	last := make([]int, numProducers)
	for i := range last {
		last[i] = -1
	}
	received := 0

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	consume := func() {
		q.Drain(0, func(v [2]int) {
			if v[1] != last[v[0]]+1 {
				t.Errorf("Producer %d: expected %d, got %d", v[0], last[v[0]]+1, v[1])
			}
			last[v[0]] = v[1]
			received++
		})
	}

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
			runtime.Gosched()
		}
		consume()
	}
	consume()

	if received != numProducers*itemsPerProducer {
		t.Errorf("Expected %d items, got %d", numProducers*itemsPerProducer, received)
	}
}
