// Package wire provides the low level byte codec used by the messaging core.
//
// The package contains:
//   - Writer: appends primitive values to a reusable buffer (little endian by default)
//   - Reader: reads primitive values from a fixed slice with an explicit cursor; every
//     read is bounds checked and reports ErrShortBuffer instead of panicking
//   - keys: fixed width big endian encodings for sort keys, so that an unsigned
//     lexicographic byte comparison orders keys exactly like their numeric values
//
// The little endian default matches the frame header layout. Callers that need a
// different byte order for a single field use the *With variants, which take an
// encoding/binary ByteOrder.
//
// Neither Writer nor Reader is safe for concurrent use.
package wire
