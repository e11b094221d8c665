package timer

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("timer")

// ErrInterrupted can be returned by a callback to abort the rest of the current tick
var ErrInterrupted = errors.New("timer: interrupted")

// Callback is invoked when a timer is due. Returning remove=true unschedules the
// timer, otherwise it is rescheduled to now + period. A returned error is
// collected and reported after the tick, the remove flag is honored either way.
type Callback func(t *Timer) (remove bool, err error)

// --------------------------------------------------------------------------
// Manager
// --------------------------------------------------------------------------

// Manager owns a set of timers on a logical clock. The clock only moves when
// UpdateTime or SetTime is called, so a tick sees one consistent "now".
//
// Thread-safety: none. A manager and its timers belong to one goroutine.
type Manager struct {
	clock  func() time.Time
	origin time.Time
	now    time.Duration
	queue  timerHeap
	nextID uint64
}

// NewManager creates a timer manager. A nil clock means time.Now.
func NewManager(clock func() time.Time) *Manager {
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		clock:  clock,
		origin: clock(),
	}
}

// Now returns the logical time of the manager
func (m *Manager) Now() time.Duration { return m.now }

// UpdateTime sets the logical time from the clock
func (m *Manager) UpdateTime() {
	m.now = m.clock().Sub(m.origin)
}

// SetTime sets the logical time explicitly
func (m *Manager) SetTime(now time.Duration) {
	m.now = now
}

// Len returns the number of scheduled timers
func (m *Manager) Len() int { return m.queue.Len() }

// New creates a stopped timer
func (m *Manager) New(period time.Duration, tag string, cb Callback) *Timer {
	m.nextID++
	return &Timer{
		id:       m.nextID,
		tag:      tag,
		mgr:      m,
		callback: cb,
		period:   period,
		deadline: m.now + period,
		index:    -1,
	}
}

// Run creates a timer and starts it
func (m *Manager) Run(period time.Duration, tag string, cb Callback) *Timer {
	t := m.New(period, tag, cb)
	t.Start()
	return t
}

// WaitPeriod returns the time until the nearest deadline (zero if already due).
// The boolean is false when no timer is scheduled.
func (m *Manager) WaitPeriod() (time.Duration, bool) {
	nearest, ok := m.queue.peek()
	if !ok {
		return 0, false
	}
	if wait := nearest.deadline - m.now; wait > 0 {
		return wait, true
	}
	return 0, true
}

// UpdateAndProcess advances the clock and fires due timers
func (m *Manager) UpdateAndProcess(ctx context.Context) error {
	m.UpdateTime()
	return m.Process(ctx)
}

// Process fires every timer that is due at the current logical time.
//
// If the nearest timer is not due the call returns immediately. Otherwise the
// due timers are collected once and fired in deadline order. A timer that is
// stopped or pushed into the future by an earlier callback of the same tick is
// skipped. Callback errors (and panics) are returned together after the scan.
// Cancellation of ctx, or a callback returning ErrInterrupted or
// context.Canceled, aborts the remaining work; that is only logged.
func (m *Manager) Process(ctx context.Context) error {
	nearest, ok := m.queue.peek()
	if !ok || nearest.deadline > m.now {
		return nil
	}

	due := m.collectDue()

	var errs *multierror.Error
	for _, t := range due {
		if ctx.Err() != nil {
			m.logInterrupted(ctx.Err(), errs)
			return nil
		}

		// stopped or restarted by another callback of this tick
		if t.index < 0 || t.deadline > m.now {
			continue
		}

		remove, err := t.invoke()
		interrupted := errors.Is(err, ErrInterrupted) || errors.Is(err, context.Canceled)
		if err != nil && !interrupted {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", t, err))
		}

		// the callback may have stopped the timer itself
		if t.index >= 0 {
			if remove {
				heap.Remove(&m.queue, t.index)
			} else {
				t.deadline = m.now + t.period
				heap.Fix(&m.queue, t.index)
			}
		}

		if interrupted {
			m.logInterrupted(err, errs)
			return nil
		}
	}

	return errs.ErrorOrNil()
}

// collectDue returns all due timers in firing order
func (m *Manager) collectDue() []*Timer {
	var due []*Timer
	for _, t := range m.queue.items {
		if t.deadline <= m.now {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline == due[j].deadline {
			return due[i].id < due[j].id
		}
		return due[i].deadline < due[j].deadline
	})
	return due
}

func (m *Manager) logInterrupted(cause error, errs *multierror.Error) {
	Logger.Warningf("timer tick interrupted: %v", cause)
	if errs != nil {
		Logger.Errorf("errors before interruption: %v", errs)
	}
}

// --------------------------------------------------------------------------
// Timer
// --------------------------------------------------------------------------

// Timer is a periodic or one-shot callback owned by a Manager
type Timer struct {
	id       uint64
	tag      string
	mgr      *Manager
	callback Callback
	period   time.Duration
	deadline time.Duration
	index    int // heap index, -1 when not scheduled
}

func (t *Timer) ID() uint64 { return t.id }

func (t *Timer) Tag() string { return t.tag }

func (t *Timer) Period() time.Duration { return t.period }

// Deadline returns the logical time at which the timer fires next
func (t *Timer) Deadline() time.Duration { return t.deadline }

// Active reports whether the timer is scheduled
func (t *Timer) Active() bool { return t.index >= 0 }

// Start schedules the timer with its current deadline. Starting an active timer is a no-op.
func (t *Timer) Start() {
	if t.index >= 0 {
		return
	}
	heap.Push(&t.mgr.queue, t)
}

// Stop unschedules the timer. Stopping a stopped timer is a no-op.
func (t *Timer) Stop() {
	if t.index < 0 {
		return
	}
	heap.Remove(&t.mgr.queue, t.index)
}

// Close stops the timer
func (t *Timer) Close() { t.Stop() }

// Restart moves the deadline to now + period
func (t *Timer) Restart() {
	t.deadline = t.mgr.now + t.period
	if t.index >= 0 {
		heap.Fix(&t.mgr.queue, t.index)
	}
}

// SetPeriod changes the period but keeps the original start time, so the new
// deadline is start + period. A deadline that is already in the past fires on
// the next Process call.
func (t *Timer) SetPeriod(period time.Duration) {
	start := t.deadline - t.period
	t.period = period
	t.deadline = start + period
	if t.index >= 0 {
		heap.Fix(&t.mgr.queue, t.index)
	}
}

// SetCallback replaces the callback
func (t *Timer) SetCallback(cb Callback) { t.callback = cb }

func (t *Timer) String() string {
	if t.tag == "" {
		return fmt.Sprintf("timer#%d", t.id)
	}
	return fmt.Sprintf("timer#%d(%s)", t.id, t.tag)
}

// invoke runs the callback and turns a panic into an error. A panicking timer is removed.
func (t *Timer) invoke() (remove bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			remove = true
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if t.callback == nil {
		return true, nil
	}
	return t.callback(t)
}
