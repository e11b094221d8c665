package lstore

import (
	"testing"
	"time"

	"github.com/ValentinKolb/kvmsg/lib/store"
	storetesting "github.com/ValentinKolb/kvmsg/lib/store/testing"
)

func factory(clock func() time.Time) store.IVersionedStore {
	return NewLocalStore(&Options{Clock: clock})
}

func Test(t *testing.T) {
	storetesting.RunVersionedStoreTests(t, "LocalStore", factory)
}

func Benchmark(b *testing.B) {
	storetesting.RunVersionedStoreBenchmarks(b, "LocalStore", factory)
}

func TestCollectRemovesExpired(t *testing.T) {
	clock := storetesting.NewClock()
	s := NewLocalStore(&Options{Clock: clock.Now, GCInterval: -1}).(*storeImpl)
	defer s.Close()

	if _, err := s.Set("a", []byte("1"), store.CondAlways, 0, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Set("b", []byte("2"), store.CondAlways, 0, store.ExpireNone); err != nil {
		t.Fatal(err)
	}

	if n := s.collect(); n != 0 {
		t.Errorf("collected %d entries before expiry", n)
	}
	clock.Advance(2 * time.Second)
	if n := s.collect(); n != 1 {
		t.Errorf("collected %d entries, want 1", n)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}
