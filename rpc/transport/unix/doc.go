// Package unix implements the intra-host channel over unixgram sockets. Every
// context listens on <dir>/kvmsg-<port>.sock, so contexts on the same host talk
// without going through the network stack.
//
// Unlike UDP, a unixgram write blocks while the receiver queue is full. The
// publication bounds that wait with a short write deadline and reports the
// timeout as backpressure, which makes the sender retry.
package unix
