// Package lstore implements a local, in-memory, single-node versioned key-value
// store based on the store.IVersionedStore interface. Data is stored entirely in
// memory and is not persisted between process restarts.
//
// Key Features:
//   - Pure in-memory storage on a concurrent map (xsync.MapOf)
//   - Store-wide write index used as entry version, managed with atomic operations
//   - Conditional writes evaluated atomically per key
//   - Expiry with lazy checks on read and a background sweep
//
// Implementation Details:
//
//   - Versions: the store keeps an atomic counter that increments with every
//     applied write. The new value is the version of the written entry, so
//     versions are unique and increase over the whole store, not only per key.
//
//   - Expiry: an expired entry is invisible to reads immediately. The garbage
//     collector removes it on its next sweep (every GCInterval), a write to the
//     key replaces it earlier.
//
// Thread Safety:
//
//	All operations in the local store are thread-safe.
package lstore
