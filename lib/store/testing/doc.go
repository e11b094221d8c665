// Package testing provides standardised tests and benchmarks for store
// implementations that satisfy the store.IVersionedStore interface.
//
// Example usage:
//
//	factory := func(clock func() time.Time) store.IVersionedStore {
//		return NewMyStore(clock)
//	}
//
//	// Running the standard test suite
//	storetesting.RunVersionedStoreTests(t, "MyStore", factory)
//
//	// Running performance benchmarks
//	storetesting.RunVersionedStoreBenchmarks(b, "MyStore", factory)
package testing
