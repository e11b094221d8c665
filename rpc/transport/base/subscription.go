package base

import (
	"errors"
	"net"
	"sync"

	"github.com/ValentinKolb/kvmsg/rpc/transport"
)

// MaxDatagramSize is the largest frame a datagram subscription can receive
const MaxDatagramSize = 64 * 1024

// PacketSubscription reads datagrams from a packet connection in a background
// goroutine and queues them in its inbox
type PacketSubscription struct {
	*Inbox
	conn    net.PacketConn
	done    chan struct{}
	once    sync.Once
	cleanup func()
}

// NewPacketSubscription starts reading from conn. cleanup runs after the
// connection was closed and may be nil.
func NewPacketSubscription(conn net.PacketConn, capacity int, cleanup func()) *PacketSubscription {
	s := &PacketSubscription{
		Inbox:   NewInbox(capacity),
		conn:    conn,
		done:    make(chan struct{}),
		cleanup: cleanup,
	}
	go s.readLoop()
	return s
}

// Close stops the reader and closes the connection
func (s *PacketSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.Inbox.Close()
		err = s.conn.Close()
		<-s.done
		if s.cleanup != nil {
			s.cleanup()
		}
	})
	return err
}

// LocalAddr returns the address the subscription is bound to
func (s *PacketSubscription) LocalAddr() net.Addr { return s.conn.LocalAddr() }

func (s *PacketSubscription) readLoop() {
	defer close(s.done)
	buf := make([]byte, MaxDatagramSize)

	for {
		n, _, err := s.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			transport.Logger.Warningf("Read error on %s: %v", s.conn.LocalAddr(), err)
			continue
		}
		if res := s.PushCopy(buf[:n]); res != transport.OfferAccepted {
			transport.Logger.Debugf("Dropping inbound frame on %s: inbox %s", s.conn.LocalAddr(), res)
		}
	}
}
