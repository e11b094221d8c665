// Package lockmgr implements a locking mechanism using
// key-value stores that implement the store.IVersionedStore interface. It provides
// a simple yet robust way to coordinate access to shared resources across
// multiple processes or nodes.
//
// The lockmgr only ever stores in the provided store and has no other internal
// state. Therefore it is safe to be created multiple times on the same store.
// It is even possible to create a new lockmgr for every acquire and or release
// operation. As long as the same store is used every time, all locks will
// work as expected.
//
// Core Functionality:
//   - Lock acquisition with ownership verification
//   - Automatic lockmgr expiration through configurable timeouts
//   - Safe release operations that verify ownership
//
// Implementation Approach:
//
//	Locks are implemented with the versioned writes of the underlying store:
//
//	- Lock Acquisition: The current entry is read. If it holds a value the
//	  lock is taken. Otherwise a random owner ID is written on the condition
//	  that the version did not change. A missing key has version 0, so two
//	  requesters can never both succeed.
//
//	- Timeouts: The owner ID is written with the lock timeout as lifetime.
//	  The lock is released automatically after that period, preventing
//	  deadlocks if a client crashes.
//
//	- Safe Release: ReleaseLock compares the stored owner ID with the given
//	  one and replaces it by an empty value, again on the condition that the
//	  version did not change. The empty entry expires shortly after.
//
// Thread Safety:
//
//	The lockmgr is as thread-safe as the underlying store.IVersionedStore
//	implementation.
//
// Usage Example:
//
//	// Create a lockmgr provider with a store backend
//	lockProvider := lockmgr.NewLockManager(store)
//
//	// Acquire a lockmgr with a timeout
//	acquired, ownerID, err := lockProvider.AcquireLock("resource:123", 30)
//	if err != nil {
//	    // Handle error
//	}
//
//	if acquired {
//	    // Use the resource safely
//	    // ...
//
//	    // Release the lockmgr when done
//	    released, err := lockProvider.ReleaseLock("resource:123", ownerID)
//	    if err != nil {
//	        // Handle error
//	    }
//	}
//
// Security Considerations:
//
//	The lockmgr mechanism uses randomly generated owner IDs, which provides
//	reasonable protection against accidental lockmgr stealing. However, it is
//	not designed to resist malicious attacks, as an attacker with access to
//	the underlying store could potentially manipulate lockmgr data directly.
//
// Performance Impact:
//
//	Lock operations require 2 store operations each:
//	- AcquireLock: One Get followed by one conditional Set
//	- ReleaseLock: One Get followed by one conditional Set
package lockmgr
