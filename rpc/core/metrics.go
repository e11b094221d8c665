package core

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
)

// contextMetrics are the counters of one context. They live in their own
// metrics.Set, so several contexts in one process do not collide. Gauges read
// atomic mirrors because the set is written from the HTTP goroutine.
type contextMetrics struct {
	set *metrics.Set

	framesReceived  *metrics.Counter
	framesMalformed *metrics.Counter
	framesUnknown   *metrics.Counter
	framesLate      *metrics.Counter

	requestsReceived  *metrics.Counter
	requestsCancelled *metrics.Counter
	requestsEvicted   *metrics.Counter
	requestsFailed    *metrics.Counter

	sendAttempts  *metrics.Counter
	sendRetries   *metrics.Counter
	sendExhausted *metrics.Counter
	sendDropped   *metrics.Counter

	tasksExecuted *metrics.Counter
	timerErrors   *metrics.Counter

	pending  atomic.Int64
	inflight atomic.Int64
	timers   atomic.Int64
	tasks    atomic.Int64
}

func newContextMetrics(self string) *contextMetrics {
	s := metrics.NewSet()
	name := func(metric string, labels ...string) string {
		l := fmt.Sprintf(`self=%q`, self)
		for i := 0; i+1 < len(labels); i += 2 {
			l += fmt.Sprintf(`,%s=%q`, labels[i], labels[i+1])
		}
		return fmt.Sprintf("kvmsg_%s{%s}", metric, l)
	}

	m := &contextMetrics{
		set: s,

		framesReceived:  s.NewCounter(name("frames_received_total")),
		framesMalformed: s.NewCounter(name("frames_dropped_total", "reason", "malformed")),
		framesUnknown:   s.NewCounter(name("frames_dropped_total", "reason", "unknown_type")),
		framesLate:      s.NewCounter(name("frames_dropped_total", "reason", "late")),

		requestsReceived:  s.NewCounter(name("requests_received_total")),
		requestsCancelled: s.NewCounter(name("requests_cancelled_total")),
		requestsEvicted:   s.NewCounter(name("requests_evicted_total")),
		requestsFailed:    s.NewCounter(name("requests_failed_total")),

		sendAttempts:  s.NewCounter(name("send_attempts_total")),
		sendRetries:   s.NewCounter(name("send_retries_total")),
		sendExhausted: s.NewCounter(name("send_exhausted_total")),
		sendDropped:   s.NewCounter(name("send_dropped_total")),

		tasksExecuted: s.NewCounter(name("tasks_executed_total")),
		timerErrors:   s.NewCounter(name("timer_errors_total")),
	}

	s.NewGauge(name("pending_responses"), func() float64 { return float64(m.pending.Load()) })
	s.NewGauge(name("inflight_requests"), func() float64 { return float64(m.inflight.Load()) })
	s.NewGauge(name("timers"), func() float64 { return float64(m.timers.Load()) })
	s.NewGauge(name("queued_tasks"), func() float64 { return float64(m.tasks.Load()) })
	return m
}

// WriteMetrics writes the metrics of the context in Prometheus text format.
// It is safe to call from any goroutine.
func (c *Context) WriteMetrics(w io.Writer) {
	c.metrics.set.WritePrometheus(w)
}
