// Package tcp implements an alternative network channel over TCP connections
// for environments where UDP is filtered. Each publication owns one outgoing
// connection that is dialed on the first offer and redialed after it broke.
// Frames are length prefixed (see base.WriteFrame).
//
// The socket options (no delay, buffer sizes, keep-alive, linger) are applied
// to both outgoing and accepted connections. The default buffer size is
// 512 KB.
//
// A write that hits the write deadline before any byte was written is
// backpressure. A write that stops in the middle of a frame leaves the stream
// out of sync, so the connection is dropped and the frame is lost, which is the
// same failure a datagram channel has.
package tcp
