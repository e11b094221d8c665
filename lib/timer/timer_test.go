package timer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
)

// newTestManager returns a manager at logical time zero
func newTestManager() *Manager {
	m := NewManager(nil)
	m.SetTime(0)
	return m
}

// counter returns a callback that counts its invocations
func counter(n *int, remove bool) Callback {
	return func(*Timer) (bool, error) {
		*n++
		return remove, nil
	}
}

// TestFireOnceAndReschedule checks that a due timer fires once per tick and moves to now + period
func TestFireOnceAndReschedule(t *testing.T) {
	m := newTestManager()
	fired := 0
	tm := m.Run(10*time.Millisecond, "periodic", counter(&fired, false))

	m.SetTime(9 * time.Millisecond)
	if err := m.Process(context.Background()); err != nil {
		t.Fatal(err)
	}
	if fired != 0 {
		t.Fatalf("Timer fired before its deadline")
	}

	m.SetTime(10 * time.Millisecond)
	if err := m.Process(context.Background()); err != nil {
		t.Fatal(err)
	}
	if fired != 1 {
		t.Fatalf("Expected one firing at the deadline, got %d", fired)
	}
	if tm.Deadline() != 20*time.Millisecond {
		t.Errorf("Expected deadline 20ms after reschedule, got %v", tm.Deadline())
	}

	// same logical time, nothing is due any more
	if err := m.Process(context.Background()); err != nil {
		t.Fatal(err)
	}
	if fired != 1 {
		t.Errorf("Timer fired twice for the same deadline")
	}
}

// TestRescheduleIsRelativeToNow verifies that a late tick does not cause catch up firings
func TestRescheduleIsRelativeToNow(t *testing.T) {
	m := newTestManager()
	fired := 0
	tm := m.Run(10*time.Millisecond, "", counter(&fired, false))

	m.SetTime(35 * time.Millisecond)
	_ = m.Process(context.Background())

	if fired != 1 {
		t.Fatalf("Expected a single firing, got %d", fired)
	}
	if tm.Deadline() != 45*time.Millisecond {
		t.Errorf("Expected deadline 45ms, got %v", tm.Deadline())
	}
}

// TestRemoveOnTrue checks that a one-shot timer leaves the set
func TestRemoveOnTrue(t *testing.T) {
	m := newTestManager()
	fired := 0
	tm := m.Run(time.Millisecond, "once", counter(&fired, true))

	m.SetTime(time.Second)
	_ = m.Process(context.Background())
	_ = m.Process(context.Background())

	if fired != 1 {
		t.Errorf("Expected one firing, got %d", fired)
	}
	if tm.Active() || m.Len() != 0 {
		t.Errorf("Timer should have been removed")
	}
}

// TestFiringOrder fires due timers in deadline order
func TestFiringOrder(t *testing.T) {
	m := newTestManager()
	var order []string
	record := func(name string) Callback {
		return func(*Timer) (bool, error) {
			order = append(order, name)
			return true, nil
		}
	}

	m.Run(30*time.Millisecond, "", record("c"))
	m.Run(10*time.Millisecond, "", record("a"))
	m.Run(20*time.Millisecond, "", record("b"))

	m.SetTime(time.Second)
	_ = m.Process(context.Background())

	if strings.Join(order, "") != "abc" {
		t.Errorf("Expected order abc, got %v", order)
	}
}

// TestStopDuringTick skips a due timer that an earlier callback stopped
func TestStopDuringTick(t *testing.T) {
	m := newTestManager()
	secondFired := 0

	second := m.New(2*time.Millisecond, "", counter(&secondFired, true))
	m.Run(time.Millisecond, "", func(*Timer) (bool, error) {
		second.Stop()
		return true, nil
	})
	second.Start()

	m.SetTime(time.Second)
	_ = m.Process(context.Background())

	if secondFired != 0 {
		t.Errorf("Stopped timer fired")
	}
}

// TestErrorsAreAggregated collects every failure of one tick
func TestErrorsAreAggregated(t *testing.T) {
	m := newTestManager()
	okFired := 0

	m.Run(time.Millisecond, "first", func(*Timer) (bool, error) { return true, errors.New("first failed") })
	m.Run(2*time.Millisecond, "ok", counter(&okFired, true))
	m.Run(3*time.Millisecond, "third", func(*Timer) (bool, error) { panic("third panicked") })

	m.SetTime(time.Second)
	err := m.Process(context.Background())
	if err == nil {
		t.Fatal("Expected an aggregated error")
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("Expected *multierror.Error, got %T", err)
	}
	if len(merr.Errors) != 2 {
		t.Errorf("Expected 2 errors, got %d: %v", len(merr.Errors), err)
	}
	if okFired != 1 {
		t.Errorf("A failing timer must not prevent others from firing")
	}
	if m.Len() != 0 {
		t.Errorf("All timers should have been removed, %d left", m.Len())
	}
}

// TestInterruptAbortsTick stops the scan without reporting an error
func TestInterruptAbortsTick(t *testing.T) {
	m := newTestManager()
	laterFired := 0

	m.Run(time.Millisecond, "", func(*Timer) (bool, error) { return true, ErrInterrupted })
	m.Run(2*time.Millisecond, "", counter(&laterFired, true))

	m.SetTime(time.Second)
	if err := m.Process(context.Background()); err != nil {
		t.Fatalf("Interruption must not be reported as error, got %v", err)
	}
	if laterFired != 0 {
		t.Errorf("Timer after the interruption fired")
	}

	// the next tick picks up the remaining timer
	_ = m.Process(context.Background())
	if laterFired != 1 {
		t.Errorf("Remaining timer should fire on the next tick")
	}
}

// TestCancelledContextAbortsTick behaves like an interruption
func TestCancelledContextAbortsTick(t *testing.T) {
	m := newTestManager()
	fired := 0
	m.Run(time.Millisecond, "", counter(&fired, true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m.SetTime(time.Second)
	if err := m.Process(ctx); err != nil {
		t.Fatal(err)
	}
	if fired != 0 {
		t.Errorf("Timer fired on a cancelled tick")
	}
}

// TestStartStopIdempotent allows repeated calls
func TestStartStopIdempotent(t *testing.T) {
	m := newTestManager()
	tm := m.New(time.Millisecond, "", nil)

	tm.Start()
	tm.Start()
	if m.Len() != 1 {
		t.Fatalf("Expected one scheduled timer, got %d", m.Len())
	}
	tm.Stop()
	tm.Stop()
	if m.Len() != 0 || tm.Active() {
		t.Fatalf("Expected no scheduled timer")
	}
}

// TestRestartAndSetPeriod checks the deadline arithmetic
func TestRestartAndSetPeriod(t *testing.T) {
	m := newTestManager()
	tm := m.Run(100*time.Millisecond, "", nil)

	m.SetTime(40 * time.Millisecond)
	tm.Restart()
	if tm.Deadline() != 140*time.Millisecond {
		t.Errorf("Restart: expected 140ms, got %v", tm.Deadline())
	}

	// start time is 40ms, so the new deadline is 40ms + 10ms
	tm.SetPeriod(10 * time.Millisecond)
	if tm.Deadline() != 50*time.Millisecond {
		t.Errorf("SetPeriod: expected 50ms, got %v", tm.Deadline())
	}
	if d, ok := m.WaitPeriod(); !ok || d != 10*time.Millisecond {
		t.Errorf("WaitPeriod: expected 10ms, got %v (%t)", d, ok)
	}
}

// TestWaitPeriodEmpty reports no timer
func TestWaitPeriodEmpty(t *testing.T) {
	m := newTestManager()
	if _, ok := m.WaitPeriod(); ok {
		t.Error("Expected no wait period without timers")
	}
}

// TestUpdateTimeUsesClock derives logical time from the injected clock
func TestUpdateTimeUsesClock(t *testing.T) {
	now := time.Unix(1000, 0)
	m := NewManager(func() time.Time { return now })

	now = now.Add(250 * time.Millisecond)
	m.UpdateTime()

	if m.Now() != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", m.Now())
	}
}
