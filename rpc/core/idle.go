package core

import (
	"runtime"
	"time"
)

// IdleStrategy decides how to wait between two attempts that made no progress
type IdleStrategy interface {
	// Idle waits a little, longer on every call
	Idle()
	// Reset starts over with the shortest wait
	Reset()
}

const (
	DefaultMaxSpins   = 1000
	DefaultMaxYields  = 200
	DefaultMinParkDur = time.Microsecond
	DefaultMaxParkDur = 500 * time.Microsecond
)

// BackoffIdleStrategy busy spins first, then yields the processor and finally
// sleeps with an exponentially growing duration
type BackoffIdleStrategy struct {
	MaxSpins   int
	MaxYields  int
	MinParkDur time.Duration
	MaxParkDur time.Duration

	spins  int
	yields int
	park   time.Duration
}

// NewBackoffIdleStrategy creates a strategy with the default limits
func NewBackoffIdleStrategy() *BackoffIdleStrategy {
	return &BackoffIdleStrategy{
		MaxSpins:   DefaultMaxSpins,
		MaxYields:  DefaultMaxYields,
		MinParkDur: DefaultMinParkDur,
		MaxParkDur: DefaultMaxParkDur,
	}
}

func (s *BackoffIdleStrategy) Idle() {
	switch {
	case s.spins < s.MaxSpins:
		s.spins++
	case s.yields < s.MaxYields:
		s.yields++
		runtime.Gosched()
	default:
		if s.park < s.MinParkDur {
			s.park = s.MinParkDur
		}
		time.Sleep(s.park)
		if s.park *= 2; s.park > s.MaxParkDur {
			s.park = s.MaxParkDur
		}
	}
}

func (s *BackoffIdleStrategy) Reset() {
	s.spins = 0
	s.yields = 0
	s.park = 0
}

// NoopIdleStrategy never waits. Tests use it to make send retries instant.
type NoopIdleStrategy struct{}

func (NoopIdleStrategy) Idle()  {}
func (NoopIdleStrategy) Reset() {}
