package timer

// timerHeap is a min heap of scheduled timers ordered by deadline. Each timer
// keeps its own heap index, so stop and reschedule are O(log n) without a scan.
// Ties are broken by timer id to keep firing order deterministic.
//
// Not thread-safe, the manager owns it.
type timerHeap struct {
	items []*Timer
}

// Len returns the number of scheduled timers (part of heap.Interface)
func (h *timerHeap) Len() int { return len(h.items) }

// Less orders by deadline, then by creation order (part of heap.Interface)
func (h *timerHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.deadline == b.deadline {
		return a.id < b.id
	}
	return a.deadline < b.deadline
}

// Swap exchanges timers at positions i and j (part of heap.Interface)
func (h *timerHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

// Push adds a timer to the heap (part of heap.Interface)
func (h *timerHeap) Push(x interface{}) {
	t := x.(*Timer)
	t.index = len(h.items)
	h.items = append(h.items, t)
}

// Pop removes the last timer (part of heap.Interface)
func (h *timerHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	t := old[n-1]
	old[n-1] = nil // avoid memory leak
	t.index = -1
	h.items = old[:n-1]
	return t
}

// peek returns the timer with the nearest deadline
func (h *timerHeap) peek() (*Timer, bool) {
	if len(h.items) == 0 {
		return nil, false
	}
	return h.items[0], true
}
