// Package store defines the versioned key-value store the kvmsg server answers
// requests from, with conditional writes, expiry and unified error handling.
//
// Key Components:
//
//   - IVersionedStore Interface: Get, GetVersion and a conditional Set. Every
//     applied write hands out a new, store-wide increasing version, so a reader
//     can wait for "a version greater than the one I saw".
//
//   - Condition: guards a write (always, exists, not-exists, version). A version
//     condition against version 0 only succeeds for a missing key, which makes it
//     a create-if-absent.
//
//   - Error System: a structured error reporting mechanism using typed return
//     codes and descriptive messages.
//
// Implementations:
//
//	- Local Store (lstore): an in-memory, single-node store on a concurrent map.
//	  Available in the "github.com/ValentinKolb/kvmsg/lib/store/lstore" package.
package store
