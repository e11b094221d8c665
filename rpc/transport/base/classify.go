package base

import (
	"errors"
	"net"
	"os"
	"syscall"

	"github.com/ValentinKolb/kvmsg/rpc/transport"
)

// ClassifyWriteError maps the error of a socket write to an offer result.
// Only conditions that go away by themselves are reported as backpressure.
func ClassifyWriteError(err error) transport.OfferResult {
	if err == nil {
		return transport.OfferAccepted
	}
	switch {
	case errors.Is(err, ErrPartialWrite):
		return transport.OfferNotConnected
	case errors.Is(err, net.ErrClosed):
		return transport.OfferClosed
	case errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, syscall.EAGAIN),
		errors.Is(err, syscall.ENOBUFS):
		return transport.OfferBackpressure
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ENOENT),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return transport.OfferNotConnected
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return transport.OfferBackpressure
	}

	transport.Logger.Warningf("Dropping frame after write error: %v", err)
	return transport.OfferNotConnected
}
