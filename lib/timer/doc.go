// Package timer provides a cooperative timer subsystem for a single threaded
// event loop.
//
// A Manager keeps its timers in a min heap ordered by deadline, so the common
// case of "nothing is due" costs one comparison against the heap root. Time is
// logical: the owner advances it once per loop iteration (UpdateTime) and all
// timers of that iteration observe the same value. Tests drive it with SetTime.
//
// Timers are created stopped (New) or running (Run). A callback decides whether
// its timer is removed or rescheduled to now + period, which makes one-shot
// timeouts and periodic jobs the same primitive:
//
//	timers := timer.NewManager(nil)
//	timers.Run(time.Second, "heartbeat", func(t *timer.Timer) (bool, error) {
//	    sendHeartbeat()
//	    return false, nil // keep running
//	})
//
//	for {
//	    if err := timers.UpdateAndProcess(ctx); err != nil {
//	        log.Printf("timer errors: %v", err)
//	    }
//	}
//
// Callback errors of one tick are aggregated with go-multierror and returned
// together once the tick is complete.
package timer
