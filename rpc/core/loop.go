package core

import (
	"context"
	"time"
)

// DefaultLoopMaxPark bounds how long an idle event loop sleeps, and with it
// how late a timer can fire
const DefaultLoopMaxPark = time.Millisecond

// EventLoop drives a Context from a single goroutine
type EventLoop struct {
	ctx   *Context
	idle  IdleStrategy
	drain time.Duration
}

// LoopOption configures an EventLoop
type LoopOption func(*EventLoop)

// WithIdleStrategy sets how the loop waits when a tick did no work
func WithIdleStrategy(s IdleStrategy) LoopOption {
	return func(l *EventLoop) { l.idle = s }
}

// WithDrainTimeout bounds how long Run waits for in flight requests after its
// context was cancelled. Once it passed, the messaging context is aborted.
// Zero waits forever.
func WithDrainTimeout(d time.Duration) LoopOption {
	return func(l *EventLoop) { l.drain = d }
}

// NewEventLoop creates a loop for c
func NewEventLoop(c *Context, opts ...LoopOption) *EventLoop {
	idle := NewBackoffIdleStrategy()
	idle.MaxParkDur = DefaultLoopMaxPark
	l := &EventLoop{ctx: c, idle: idle}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run ticks the context until it is closed. Cancelling ctx schedules the
// closing: requests in flight are still served, then the context closes.
func (l *EventLoop) Run(ctx context.Context) {
	// timers keep firing while draining, so ticks never see a cancelled context
	tickCtx := context.WithoutCancel(ctx)
	done := ctx.Done()
	var deadline time.Time

	for l.ctx.State() != StateClosed {
		select {
		case <-done:
			Logger.Infof("Draining context %s", l.ctx.Self())
			l.ctx.ScheduleClosing()
			if l.drain > 0 {
				deadline = time.Now().Add(l.drain)
			}
			done = nil
		default:
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			Logger.Warningf("Context %s did not drain within %s, aborting", l.ctx.Self(), l.drain)
			if err := l.ctx.Abort(); err != nil {
				Logger.Errorf("Aborting context %s: %v", l.ctx.Self(), err)
			}
			return
		}

		if l.ctx.Tick(tickCtx) > 0 {
			l.idle.Reset()
		} else {
			l.idle.Idle()
		}
	}
}
