// Package base provides the building blocks shared by the channel
// implementations in the sibling packages.
//
// Key Components:
//
//   - Inbox: bounded frame queue between receiving goroutines and the polling
//     control goroutine. A full inbox drops the frame and counts it, which is
//     what a datagram socket does as well. Frame buffers are recycled through a
//     sync.Pool once the handler returned.
//
//   - ConnPublication: publication over a lazily dialed net.Conn with a short
//     write deadline. The dial is repeated after the connection broke, so a
//     receiver may start listening after the sender opened its publication.
//
//   - PacketSubscription: reader goroutine for datagram sockets (udp, unixgram).
//
//   - WriteFrame / ReadFrame: 4 byte length prefixed framing for stream sockets.
//
//   - ClassifyWriteError: maps socket errors to transport.OfferResult.
//
//   - Tracker: lets a factory close everything it created.
//
// Thread Safety:
//
//	Publications may be offered to from one goroutine at a time and closed from
//	any goroutine. Inboxes accept pushes from any goroutine but must be polled
//	from a single one.
package base
