// Package udp implements the network channel over UDP datagrams. Every frame is
// one datagram, so frames larger than a datagram can carry are dropped by the
// kernel. Publications use connected sockets: a missing receiver surfaces as
// ECONNREFUSED on a later write and is reported as not connected.
package udp
