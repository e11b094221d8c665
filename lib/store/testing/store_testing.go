package testing

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/kvmsg/lib/store"
)

// Clock is a manually advanced time source for expiry tests
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock at a fixed point in time
func NewClock() *Clock {
	return &Clock{now: time.Unix(1_700_000_000, 0)}
}

// Now returns the current time of the clock
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// StoreFactory creates a store that reads the time from clock
type StoreFactory func(clock func() time.Time) store.IVersionedStore

// RunVersionedStoreTests runs a test suite for an IVersionedStore implementation.
func RunVersionedStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, newStore(t, factory, nil))
		})

		t.Run("VersionsIncrease", func(t *testing.T) {
			testVersionsIncrease(t, newStore(t, factory, nil))
		})

		t.Run("Conditions", func(t *testing.T) {
			testConditions(t, factory)
		})

		t.Run("InvalidArguments", func(t *testing.T) {
			testInvalidArguments(t, newStore(t, factory, nil))
		})

		t.Run("Expiry", func(t *testing.T) {
			testExpiry(t, factory)
		})

		t.Run("Concurrency", func(t *testing.T) {
			testConcurrency(t, newStore(t, factory, nil))
		})

		t.Run("Closed", func(t *testing.T) {
			testClosed(t, factory(nil))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func newStore(t *testing.T, factory StoreFactory, clock *Clock) store.IVersionedStore {
	t.Helper()
	var now func() time.Time
	if clock != nil {
		now = clock.Now
	}
	s := factory(now)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustSet(t *testing.T, s store.IVersionedStore, key string, value []byte, cond store.Condition, version int64, expire int32) store.SetResult {
	t.Helper()
	res, err := s.Set(key, value, cond, version, expire)
	if err != nil {
		t.Fatalf("Set(%q) failed: %v", key, err)
	}
	return res
}

func expectValue(t *testing.T, s store.IVersionedStore, key string, value []byte, version int64) {
	t.Helper()
	got, gotVersion, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get(%q) value = %q, want %q", key, got, value)
	}
	if gotVersion != version {
		t.Errorf("Get(%q) version = %d, want %d", key, gotVersion, version)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IVersionedStore) {
	expectValue(t, s, "missing", nil, 0)

	res := mustSet(t, s, "key", []byte("value"), store.CondAlways, 0, store.ExpireNone)
	if !res.Applied || res.Version <= 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	expectValue(t, s, "key", []byte("value"), res.Version)

	version, err := s.GetVersion("key")
	if err != nil || version != res.Version {
		t.Errorf("GetVersion = %d, %v; want %d", version, err, res.Version)
	}

	// the store keeps its own copy
	value := []byte("original")
	res = mustSet(t, s, "copy", value, store.CondAlways, 0, store.ExpireNone)
	value[0] = 'X'
	expectValue(t, s, "copy", []byte("original"), res.Version)

	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func testVersionsIncrease(t *testing.T, s store.IVersionedStore) {
	var last int64
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("key-%d", i%3)
		res := mustSet(t, s, key, []byte{byte(i)}, store.CondAlways, 0, store.ExpireNone)
		if res.Version <= last {
			t.Fatalf("version %d is not greater than %d", res.Version, last)
		}
		last = res.Version
	}
}

func testConditions(t *testing.T, factory StoreFactory) {
	tests := []struct {
		name        string
		existing    bool
		cond        store.Condition
		useVersion  bool // use the stored version as expected version
		wantApplied bool
	}{
		{"always on missing", false, store.CondAlways, false, true},
		{"always on existing", true, store.CondAlways, false, true},
		{"exists on missing", false, store.CondExists, false, false},
		{"exists on existing", true, store.CondExists, false, true},
		{"not exists on missing", false, store.CondNotExists, false, true},
		{"not exists on existing", true, store.CondNotExists, false, false},
		{"version 0 on missing", false, store.CondVersion, false, true},
		{"version 0 on existing", true, store.CondVersion, false, false},
		{"matching version", true, store.CondVersion, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t, factory, nil)
			var stored int64
			if tt.existing {
				stored = mustSet(t, s, "key", []byte("old"), store.CondAlways, 0, store.ExpireNone).Version
			}
			var expected int64
			if tt.useVersion {
				expected = stored
			}

			res := mustSet(t, s, "key", []byte("new"), tt.cond, expected, store.ExpireNone)
			if res.Applied != tt.wantApplied {
				t.Fatalf("Applied = %v, want %v", res.Applied, tt.wantApplied)
			}
			if tt.wantApplied {
				expectValue(t, s, "key", []byte("new"), res.Version)
				return
			}
			if res.Version != stored {
				t.Errorf("rejected write reported version %d, want stored %d", res.Version, stored)
			}
			if tt.existing {
				expectValue(t, s, "key", []byte("old"), stored)
			} else {
				expectValue(t, s, "key", nil, 0)
			}
		})
	}
}

func testInvalidArguments(t *testing.T, s store.IVersionedStore) {
	var storeErr *store.Error

	_, err := s.Set("key", nil, store.Condition(42), 0, store.ExpireNone)
	if !errors.As(err, &storeErr) || storeErr.Code != store.RetCInvalidOperation {
		t.Errorf("unknown condition: got %v", err)
	}

	_, err = s.Set("key", nil, store.CondAlways, 0, -2)
	if !errors.As(err, &storeErr) || storeErr.Code != store.RetCInvalidOperation {
		t.Errorf("invalid expire: got %v", err)
	}
}

func testExpiry(t *testing.T, factory StoreFactory) {
	clock := NewClock()
	s := newStore(t, factory, clock)

	mustSet(t, s, "short", []byte("a"), store.CondAlways, 0, 10)
	long := mustSet(t, s, "long", []byte("b"), store.CondAlways, 0, 60)

	clock.Advance(30 * time.Second)
	expectValue(t, s, "short", nil, 0)
	expectValue(t, s, "long", []byte("b"), long.Version)

	// an expired key counts as missing for conditions
	res := mustSet(t, s, "short", []byte("again"), store.CondNotExists, 0, store.ExpireNone)
	if !res.Applied {
		t.Fatalf("write to expired key was rejected")
	}

	// ExpireKeep keeps the lifetime, ExpireNone removes it
	kept := mustSet(t, s, "long", []byte("c"), store.CondAlways, 0, store.ExpireKeep)
	clock.Advance(20 * time.Second)
	expectValue(t, s, "long", []byte("c"), kept.Version)
	clock.Advance(20 * time.Second)
	expectValue(t, s, "long", nil, 0)

	forever := mustSet(t, s, "short", []byte("forever"), store.CondAlways, 0, store.ExpireNone)
	clock.Advance(24 * time.Hour)
	expectValue(t, s, "short", []byte("forever"), forever.Version)
}

func testConcurrency(t *testing.T, s store.IVersionedStore) {
	const workers = 8
	const perWorker = 100

	var wg sync.WaitGroup
	applied := make([]int, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				version, err := s.GetVersion("counter")
				if err != nil {
					t.Errorf("GetVersion failed: %v", err)
					return
				}
				res, err := s.Set("counter", []byte{byte(w)}, store.CondVersion, version, store.ExpireNone)
				if err != nil {
					t.Errorf("Set failed: %v", err)
					return
				}
				if res.Applied {
					applied[w]++
				}
			}
		}(w)
	}
	wg.Wait()

	total := 0
	for _, n := range applied {
		total += n
	}
	// every applied compare-and-set moved the version exactly once
	version, _ := s.GetVersion("counter")
	if total == 0 || version < int64(total) {
		t.Errorf("applied %d writes, final version %d", total, version)
	}
}

func testClosed(t *testing.T, s store.IVersionedStore) {
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	var storeErr *store.Error
	if _, err := s.Set("key", nil, store.CondAlways, 0, store.ExpireNone); !errors.As(err, &storeErr) || storeErr.Code != store.RetCClosed {
		t.Errorf("Set on closed store: got %v", err)
	}
	if _, _, err := s.Get("key"); !errors.As(err, &storeErr) || storeErr.Code != store.RetCClosed {
		t.Errorf("Get on closed store: got %v", err)
	}
}
