package base

import (
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Tracker remembers the publications and subscriptions of a factory so that
// the factory can close all of them at once
type Tracker struct {
	mu      sync.Mutex
	closers map[io.Closer]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{closers: make(map[io.Closer]struct{})}
}

func (t *Tracker) Add(c io.Closer) {
	t.mu.Lock()
	t.closers[c] = struct{}{}
	t.mu.Unlock()
}

func (t *Tracker) Remove(c io.Closer) {
	t.mu.Lock()
	delete(t.closers, c)
	t.mu.Unlock()
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.closers)
}

// CloseAll closes every tracked closer and collects the errors
func (t *Tracker) CloseAll() error {
	t.mu.Lock()
	closers := make([]io.Closer, 0, len(t.closers))
	for c := range t.closers {
		closers = append(closers, c)
	}
	t.closers = make(map[io.Closer]struct{})
	t.mu.Unlock()

	var result *multierror.Error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
