package lstore

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/kvmsg/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("store")

// DefaultGCInterval is the default interval between two sweeps for expired entries
const DefaultGCInterval = time.Second

// entry is a stored value. Entries are immutable, a write replaces the entry.
type entry struct {
	value    []byte
	version  int64
	expireAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// Options configures the local store
type Options struct {
	// Clock is the time source for expiry (nil = time.Now)
	Clock func() time.Time
	// GCInterval is the time between two sweeps (0 = DefaultGCInterval, negative = no background sweeps)
	GCInterval time.Duration
}

type storeImpl struct {
	data  *xsync.MapOf[string, entry]
	index atomic.Int64
	clock func() time.Time

	// garbage collection
	gcStop chan struct{}
	gcDone sync.WaitGroup
	closed atomic.Bool
}

// NewLocalStore creates a new local store instance. Options may be nil.
// This store implementation is not distributed and only works on a single node.
func NewLocalStore(opts *Options) store.IVersionedStore {
	if opts == nil {
		opts = &Options{}
	}
	s := &storeImpl{
		data:   xsync.NewMapOf[string, entry](),
		clock:  opts.Clock,
		gcStop: make(chan struct{}),
	}
	if s.clock == nil {
		s.clock = time.Now
	}

	interval := opts.GCInterval
	if interval == 0 {
		interval = DefaultGCInterval
	}
	if interval > 0 {
		s.gcDone.Add(1)
		go s.garbageCollector(interval)
	}
	return s
}

// nextVersion increments the write index and returns the new value.
// It is used to ensure that each write operation has a unique version.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) nextVersion() int64 {
	return s.index.Add(1)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(key string) ([]byte, int64, error) {
	if s.closed.Load() {
		return nil, 0, store.NewError(store.RetCClosed, "store is closed")
	}
	e, ok := s.data.Load(key)
	if !ok || e.expired(s.clock()) {
		return nil, 0, nil
	}
	return e.value, e.version, nil
}

func (s *storeImpl) GetVersion(key string) (int64, error) {
	_, version, err := s.Get(key)
	return version, err
}

func (s *storeImpl) Set(key string, value []byte, cond store.Condition, version int64, expire int32) (store.SetResult, error) {
	if s.closed.Load() {
		return store.SetResult{}, store.NewError(store.RetCClosed, "store is closed")
	}
	if !cond.Valid() {
		return store.SetResult{}, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown condition %s", cond))
	}
	if expire < store.ExpireKeep {
		return store.SetResult{}, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("invalid expire %d", expire))
	}

	// Copy value to prevent memory corruption
	valueCopy := bytes.Clone(value)

	now := s.clock()
	var result store.SetResult
	s.data.Compute(key, func(old entry, loaded bool) (entry, bool) {
		if loaded && old.expired(now) {
			old, loaded = entry{}, false
		}

		if !cond.Holds(loaded, old.version, version) {
			result = store.SetResult{Applied: false, Version: old.version}
			// an expired entry is dropped on the way
			return old, !loaded
		}

		e := entry{
			value:    valueCopy,
			version:  s.nextVersion(),
			expireAt: store.ExpireAt(now, expire, old.expireAt),
		}
		result = store.SetResult{Applied: true, Version: e.version}
		return e, false
	})
	return result, nil
}

func (s *storeImpl) Len() int {
	return s.data.Size()
}

func (s *storeImpl) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		close(s.gcStop)
		s.gcDone.Wait()
	}
	return nil
}

// --------------------------------------------------------------------------
// Garbage Collection
// --------------------------------------------------------------------------

// garbageCollector removes expired entries until the store is closed
func (s *storeImpl) garbageCollector(interval time.Duration) {
	defer s.gcDone.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.gcStop:
			return
		case <-ticker.C:
			if n := s.collect(); n > 0 {
				Logger.Debugf("removed %d expired entries", n)
			}
		}
	}
}

// collect removes all entries expired at the current time and returns their number
func (s *storeImpl) collect() int {
	now := s.clock()
	removed := 0
	s.data.Range(func(key string, e entry) bool {
		if !e.expired(now) {
			return true
		}
		s.data.Compute(key, func(current entry, loaded bool) (entry, bool) {
			// the entry may have been replaced since Range saw it
			drop := loaded && current.expired(now)
			if drop {
				removed++
			}
			return current, drop || !loaded
		})
		return true
	})
	return removed
}
