package transport

import (
	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/hashicorp/go-multierror"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport")

// --------------------------------------------------------------------------
// Offer Results
// --------------------------------------------------------------------------

// OfferResult is the outcome of a single Publication.Offer
type OfferResult uint8

const (
	// OfferAccepted means the frame was handed to the channel
	OfferAccepted OfferResult = iota
	// OfferBackpressure means the channel is momentarily full, the offer may be retried
	OfferBackpressure
	// OfferClosed means the publication was closed, the frame is dropped
	OfferClosed
	// OfferNotConnected means no receiver is attached, the frame is dropped
	OfferNotConnected
)

func (r OfferResult) String() string {
	switch r {
	case OfferAccepted:
		return "accepted"
	case OfferBackpressure:
		return "backpressure"
	case OfferClosed:
		return "closed"
	case OfferNotConnected:
		return "not connected"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Channel Interfaces
// --------------------------------------------------------------------------

// Publication sends frames to one destination. Delivery is best effort and
// unordered, like a datagram.
type Publication interface {
	// Offer hands a complete frame to the channel without blocking for long.
	// The frame may be reused by the caller as soon as Offer returns.
	Offer(frame []byte) OfferResult
	// Close releases the publication
	Close() error
}

// FrameHandler receives one inbound frame. The slice is only valid during the call.
type FrameHandler func(frame []byte)

// Subscription receives the frames sent to one local address
type Subscription interface {
	// Poll passes at most max queued frames to handler and returns how many were
	// handled. It never blocks.
	Poll(handler FrameHandler, max int) int
	// Close stops receiving
	Close() error
}

// IChannelFactory creates publications and subscriptions of one channel kind
// (e.g. "udp", "unix", "memory")
type IChannelFactory interface {
	// Open creates a publication towards the given address. Opening does not
	// require the receiver to be listening yet.
	Open(to common.Address) (Publication, error)
	// Listen creates the subscription for the given local address
	Listen(self common.Address) (Subscription, error)
	// GetName returns the name of the channel kind
	GetName() string
	// Close closes every publication and subscription created by this factory
	Close() error
}

// --------------------------------------------------------------------------
// Channel Selection
// --------------------------------------------------------------------------

// Channels bundles the factory used between processes on the same host and the
// one used across hosts. IPC may be nil, then Network is used for everything.
type Channels struct {
	IPC     IChannelFactory
	Network IChannelFactory
}

// For returns the factory that reaches to from self
func (c Channels) For(self, to common.Address) IChannelFactory {
	if c.IPC != nil && self.SameHost(to) {
		return c.IPC
	}
	return c.Network
}

// Close closes both factories
func (c Channels) Close() error {
	var result *multierror.Error
	if c.IPC != nil {
		if err := c.IPC.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if c.Network != nil {
		if err := c.Network.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
