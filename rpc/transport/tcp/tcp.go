package tcp

import (
	"fmt"
	"net"
	"time"

	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/transport"
	"github.com/ValentinKolb/kvmsg/rpc/transport/base"
)

const (
	defaultBufferSize   = 512 * 1024 // 512 KB
	defaultWriteTimeout = 10 * time.Millisecond
	defaultDialTimeout  = time.Second
)

// Config holds the socket options applied to every TCP connection
type Config struct {
	NoDelay         bool
	KeepAlive       time.Duration // zero disables keep-alive
	Linger          int           // negative keeps the OS default
	ReadBufferSize  int
	WriteBufferSize int
	WriteTimeout    time.Duration
	DialTimeout     time.Duration
	InboxCapacity   int
}

// DefaultConfig returns the default socket options
func DefaultConfig() Config {
	return Config{
		NoDelay:         true,
		KeepAlive:       30 * time.Second,
		Linger:          -1,
		ReadBufferSize:  defaultBufferSize,
		WriteBufferSize: defaultBufferSize,
		WriteTimeout:    defaultWriteTimeout,
		DialTimeout:     defaultDialTimeout,
		InboxCapacity:   base.DefaultInboxCapacity,
	}
}

// factory implements the IChannelFactory interface for TCP sockets. Frames are
// length prefixed; a connection that broke mid frame is dropped and redialed.
type factory struct {
	config  Config
	tracker *base.Tracker
}

// NewChannelFactory creates the TCP channel factory
func NewChannelFactory(config Config) transport.IChannelFactory {
	return &factory{config: config, tracker: base.NewTracker()}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IChannelFactory)
// --------------------------------------------------------------------------

func (f *factory) GetName() string {
	return "tcp"
}

func (f *factory) Open(to common.Address) (transport.Publication, error) {
	endpoint := to.String()
	dial := func() (net.Conn, error) {
		conn, err := net.DialTimeout("tcp4", endpoint, f.config.DialTimeout)
		if err != nil {
			return nil, err
		}
		if err := upgradeConnection(conn, f.config); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}

	pub := base.NewConnPublication(dial, base.WriteFrame, f.config.WriteTimeout,
		func(p *base.ConnPublication) { f.tracker.Remove(p) })
	f.tracker.Add(pub)
	return pub, nil
}

func (f *factory) Listen(self common.Address) (transport.Subscription, error) {
	listener, err := net.Listen("tcp4", self.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create TCP socket: %v", err)
	}

	var sub *streamSubscription
	sub = newStreamSubscription(listener, f.config, func() { f.tracker.Remove(sub) })
	f.tracker.Add(sub)

	transport.Logger.Infof("Listening for tcp frames on %s", listener.Addr())
	return sub, nil
}

func (f *factory) Close() error {
	return f.tracker.CloseAll()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// upgradeConnection applies the socket options of config to a TCP connection
func upgradeConnection(conn net.Conn, config Config) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to upgrade
	}

	// Disable Nagle's algorithm, frames are small and latency matters
	if err := tcpConn.SetNoDelay(config.NoDelay); err != nil {
		return err
	}

	if config.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(config.WriteBufferSize); err != nil {
			return err
		}
	}

	if config.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(config.ReadBufferSize); err != nil {
			return err
		}
	}

	if config.KeepAlive > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(config.KeepAlive); err != nil {
			return err
		}
	}

	if config.Linger >= 0 {
		if err := tcpConn.SetLinger(config.Linger); err != nil {
			return err
		}
	}

	return nil
}
