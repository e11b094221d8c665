package udp

import (
	"fmt"
	"net"
	"time"

	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/transport"
	"github.com/ValentinKolb/kvmsg/rpc/transport/base"
)

const (
	defaultReadBufferSize = 4 * 1024 * 1024 // 4 MB
)

// factory implements the IChannelFactory interface for UDP sockets
type factory struct {
	writeTimeout   time.Duration
	inboxCapacity  int
	readBufferSize int
	tracker        *base.Tracker
}

// Option configures the UDP factory
type Option func(*factory)

// WithWriteTimeout bounds a single datagram write
func WithWriteTimeout(d time.Duration) Option {
	return func(f *factory) { f.writeTimeout = d }
}

// WithInboxCapacity sets how many received frames are buffered until polled
func WithInboxCapacity(n int) Option {
	return func(f *factory) { f.inboxCapacity = n }
}

// WithReadBufferSize sets the socket receive buffer, zero keeps the OS default
func WithReadBufferSize(n int) Option {
	return func(f *factory) { f.readBufferSize = n }
}

// NewChannelFactory creates the UDP channel factory
func NewChannelFactory(opts ...Option) transport.IChannelFactory {
	f := &factory{
		writeTimeout:   base.DefaultWriteTimeout,
		inboxCapacity:  base.DefaultInboxCapacity,
		readBufferSize: defaultReadBufferSize,
		tracker:        base.NewTracker(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IChannelFactory)
// --------------------------------------------------------------------------

func (f *factory) GetName() string {
	return "udp"
}

func (f *factory) Open(to common.Address) (transport.Publication, error) {
	addr := to.UDPAddr()
	pub := base.NewConnPublication(
		func() (net.Conn, error) { return net.DialUDP("udp4", nil, addr) },
		base.WriteDatagram,
		f.writeTimeout,
		func(p *base.ConnPublication) { f.tracker.Remove(p) },
	)
	f.tracker.Add(pub)
	return pub, nil
}

func (f *factory) Listen(self common.Address) (transport.Subscription, error) {
	conn, err := net.ListenUDP("udp4", self.UDPAddr())
	if err != nil {
		return nil, fmt.Errorf("failed to create UDP socket: %v", err)
	}

	if f.readBufferSize > 0 {
		if err := conn.SetReadBuffer(f.readBufferSize); err != nil {
			transport.Logger.Warningf("Failed to set read buffer of %s: %v", self, err)
		}
	}

	var sub *base.PacketSubscription
	sub = base.NewPacketSubscription(conn, f.inboxCapacity, func() { f.tracker.Remove(sub) })
	f.tracker.Add(sub)

	transport.Logger.Infof("Listening for udp frames on %s", conn.LocalAddr())
	return sub, nil
}

func (f *factory) Close() error {
	return f.tracker.CloseAll()
}
