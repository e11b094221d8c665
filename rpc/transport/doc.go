// Package transport defines the channel abstraction the messaging core sends
// frames over. A channel is connectionless from the point of view of the core:
// frames are offered to a Publication for a destination address and arrive,
// unordered and possibly not at all, at the Subscription of that address.
//
// Key Components:
//
//   - Publication: Offer never blocks for long. Its OfferResult tells the core
//     whether to retry (backpressure) or to give up (closed, not connected).
//
//   - Subscription: polled by the single control goroutine of a context, at most
//     a bounded number of frames per poll.
//
//   - IChannelFactory: one implementation per channel kind. Implementations live
//     in subpackages: memory (in-process), udp and tcp (network), unix (same
//     host). Shared building blocks are in base.
//
//   - Channels: pairs an intra-host and a network factory. The core picks the
//     intra-host one when the destination has the same host as the local address.
package transport
