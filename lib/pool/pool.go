// Package pool provides the bounded slot pool that holds in-flight inbound
// requests.
//
// The pool has a fixed number of slots. Admission never fails: Put probes a
// few random slots and, if all of them are taken, evicts the occupant of the
// last probed slot by cancelling it. Memory therefore stays bounded under any
// load, at the price of cancelling a random older request when the pool is
// saturated.
//
// The pool is not thread-safe. It is owned by the event loop goroutine.
package pool

import (
	"github.com/lni/dragonboat/v4/logger"
	"github.com/valyala/fastrand"
)

var Logger = logger.GetLogger("pool")

const (
	// DefaultCapacity is the default number of slots
	DefaultCapacity = 100000
	// DefaultAttempts is the default number of random probes per Put
	DefaultAttempts = 5
)

// Entry is anything that can occupy a slot. Cancel is called exactly once when
// the entry is evicted to make room for another one.
type Entry interface {
	Cancel()
}

// Option configures a RequestPool
type Option func(*RequestPool)

// WithRandom replaces the random source. rnd must return a value in [0, n).
func WithRandom(rnd func(n uint32) uint32) Option {
	return func(p *RequestPool) { p.rnd = rnd }
}

// RequestPool is a fixed size slot array with random probing
type RequestPool struct {
	slots     []Entry
	count     int
	attempts  int
	evictions uint64
	rnd       func(n uint32) uint32
}

// New creates a pool. Non-positive arguments fall back to the defaults.
func New(capacity, attempts int, opts ...Option) *RequestPool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	p := &RequestPool{
		slots:    make([]Entry, capacity),
		attempts: attempts,
		rnd:      fastrand.Uint32n,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Put stores e and returns its slot index.
//
// Up to `attempts` random slots are probed and the first free one is taken.
// If every probed slot is occupied, the occupant of the last probed slot is
// removed, cancelled and replaced by e.
func (p *RequestPool) Put(e Entry) int {
	var index int
	for i := 0; i < p.attempts; i++ {
		index = int(p.rnd(uint32(len(p.slots))))
		if p.slots[index] == nil {
			p.slots[index] = e
			p.count++
			return index
		}
	}

	// the slot is cleared before Cancel, so a Complete issued by the evicted
	// entry itself does not touch the newcomer or the count
	evicted := p.slots[index]
	p.slots[index] = nil
	p.count--
	p.evictions++
	p.cancel(evicted, index)

	p.slots[index] = e
	p.count++
	return index
}

// Complete frees the slot if it still holds exactly e and reports whether it did
func (p *RequestPool) Complete(index int, e Entry) bool {
	if index < 0 || index >= len(p.slots) || e == nil {
		return false
	}
	if p.slots[index] != e {
		return false
	}
	p.slots[index] = nil
	p.count--
	return true
}

// Get returns the entry in a slot
func (p *RequestPool) Get(index int) (Entry, bool) {
	if index < 0 || index >= len(p.slots) || p.slots[index] == nil {
		return nil, false
	}
	return p.slots[index], true
}

// IsEmpty reports whether no slot is occupied
func (p *RequestPool) IsEmpty() bool { return p.count == 0 }

// Len returns the number of occupied slots
func (p *RequestPool) Len() int { return p.count }

// Cap returns the number of slots
func (p *RequestPool) Cap() int { return len(p.slots) }

// Evictions returns how many entries were cancelled to make room
func (p *RequestPool) Evictions() uint64 { return p.evictions }

// cancel invokes Cancel and logs a panic instead of propagating it
func (p *RequestPool) cancel(e Entry, index int) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("cancel of evicted entry in slot %d panicked: %v", index, r)
		}
	}()
	Logger.Debugf("pool saturated, evicting entry in slot %d", index)
	e.Cancel()
}
