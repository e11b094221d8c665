package lockmgr

import (
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/kvmsg/lib/store/lstore"
	storetesting "github.com/ValentinKolb/kvmsg/lib/store/testing"
)

func newTestManager(t *testing.T) (ILockManager, *storetesting.Clock) {
	t.Helper()
	clock := storetesting.NewClock()
	s := lstore.NewLocalStore(&lstore.Options{Clock: clock.Now, GCInterval: -1})
	t.Cleanup(func() { _ = s.Close() })
	return NewLockManager(s), clock
}

func TestAcquireAndRelease(t *testing.T) {
	lm, _ := newTestManager(t)

	ok, owner, err := lm.AcquireLock("res", 0)
	if err != nil || !ok || len(owner) != ownerIDLength {
		t.Fatalf("first acquire: ok=%v owner=%d err=%v", ok, len(owner), err)
	}

	if ok, _, err := lm.AcquireLock("res", 0); err != nil || ok {
		t.Fatalf("second acquire must fail: ok=%v err=%v", ok, err)
	}

	if ok, err := lm.ReleaseLock("res", []byte("someone else")); err != nil || ok {
		t.Fatalf("release by a foreign owner must fail: ok=%v err=%v", ok, err)
	}

	if ok, err := lm.ReleaseLock("res", owner); err != nil || !ok {
		t.Fatalf("release: ok=%v err=%v", ok, err)
	}

	// releasing twice reports success
	if ok, err := lm.ReleaseLock("res", owner); err != nil || !ok {
		t.Fatalf("second release: ok=%v err=%v", ok, err)
	}

	if ok, _, err := lm.AcquireLock("res", 0); err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestLockTimeout(t *testing.T) {
	lm, clock := newTestManager(t)

	if ok, _, err := lm.AcquireLock("res", 5); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}

	clock.Advance(4 * time.Second)
	if ok, _, _ := lm.AcquireLock("res", 5); ok {
		t.Fatal("lock must still be held")
	}

	clock.Advance(2 * time.Second)
	if ok, _, err := lm.AcquireLock("res", 5); err != nil || !ok {
		t.Fatalf("acquire after timeout: ok=%v err=%v", ok, err)
	}
}

func TestInvalidTimeout(t *testing.T) {
	lm, _ := newTestManager(t)
	if _, _, err := lm.AcquireLock("res", -1); err != ErrInvalidTimeout {
		t.Fatalf("expected ErrInvalidTimeout, got %v", err)
	}
}

func TestConcurrentAcquire(t *testing.T) {
	lm, _ := newTestManager(t)

	const contenders = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := lm.AcquireLock("res", 0)
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}
