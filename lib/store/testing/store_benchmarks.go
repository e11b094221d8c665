package testing

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/kvmsg/lib/store"
)

// RunVersionedStoreBenchmarks runs the benchmarks for an IVersionedStore implementation
func RunVersionedStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			s := factory(nil)
			defer s.Close()
			value := []byte("value")
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = s.Set(fmt.Sprintf("key-%d", i), value, store.CondAlways, 0, store.ExpireNone)
			}
		})

		b.Run("SetExisting", func(b *testing.B) {
			s := factory(nil)
			defer s.Close()
			value := []byte("value")
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = s.Set("key", value, store.CondAlways, 0, store.ExpireNone)
			}
		})

		b.Run("CompareAndSet", func(b *testing.B) {
			s := factory(nil)
			defer s.Close()
			value := []byte("value")
			var version int64
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				res, _ := s.Set("key", value, store.CondVersion, version, store.ExpireNone)
				version = res.Version
			}
		})

		b.Run("Get", func(b *testing.B) {
			s := factory(nil)
			defer s.Close()
			for i := 0; i < 1000; i++ {
				_, _ = s.Set(fmt.Sprintf("key-%d", i), []byte("value"), store.CondAlways, 0, store.ExpireNone)
			}
			keys := make([]string, 1000)
			for i := range keys {
				keys[i] = fmt.Sprintf("key-%d", i)
			}
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					_, _, _ = s.Get(keys[i%len(keys)])
					i++
				}
			})
		})
	})
}
