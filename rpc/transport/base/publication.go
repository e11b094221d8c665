package base

import (
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/kvmsg/rpc/transport"
)

// DefaultWriteTimeout bounds a single socket write. A write that does not
// finish in time is reported as backpressure.
const DefaultWriteTimeout = 500 * time.Microsecond

// Dialer opens the connection of a publication
type Dialer func() (net.Conn, error)

// FrameWriter writes one frame to conn
type FrameWriter func(conn net.Conn, frame []byte) error

// WriteDatagram writes the frame as a single datagram
func WriteDatagram(conn net.Conn, frame []byte) error {
	_, err := conn.Write(frame)
	return err
}

// ConnPublication is a publication over a lazily dialed connection. A failed
// dial or a broken connection reports OfferNotConnected, the next offer dials
// again.
type ConnPublication struct {
	dial         Dialer
	write        FrameWriter
	writeTimeout time.Duration
	onClose      func(*ConnPublication)

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// NewConnPublication creates a publication. onClose may be nil.
func NewConnPublication(dial Dialer, write FrameWriter, writeTimeout time.Duration, onClose func(*ConnPublication)) *ConnPublication {
	return &ConnPublication{
		dial:         dial,
		write:        write,
		writeTimeout: writeTimeout,
		onClose:      onClose,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.Publication)
// --------------------------------------------------------------------------

func (p *ConnPublication) Offer(frame []byte) transport.OfferResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return transport.OfferClosed
	}

	if p.conn == nil {
		conn, err := p.dial()
		if err != nil {
			transport.Logger.Debugf("Dial failed: %v", err)
			return transport.OfferNotConnected
		}
		p.conn = conn
	}

	if p.writeTimeout > 0 {
		if err := p.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout)); err != nil {
			p.resetLocked()
			return transport.OfferNotConnected
		}
	}

	res := ClassifyWriteError(p.write(p.conn, frame))
	switch res {
	case transport.OfferAccepted, transport.OfferBackpressure:
		return res
	default:
		// the connection is unusable, redial on the next offer
		p.resetLocked()
		return transport.OfferNotConnected
	}
}

func (p *ConnPublication) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	var err error
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	p.mu.Unlock()

	if p.onClose != nil {
		p.onClose(p)
	}
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (p *ConnPublication) resetLocked() {
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
