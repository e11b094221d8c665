package unix

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/transport"
	"github.com/ValentinKolb/kvmsg/rpc/transport/base"
)

// factory implements the IChannelFactory interface for unixgram sockets
type factory struct {
	dir           string
	writeTimeout  time.Duration
	inboxCapacity int
	tracker       *base.Tracker
}

// Option configures the unix factory
type Option func(*factory)

// WithWriteTimeout bounds a single datagram write. A full receiver queue
// blocks the write, so this is where backpressure comes from.
func WithWriteTimeout(d time.Duration) Option {
	return func(f *factory) { f.writeTimeout = d }
}

// WithInboxCapacity sets how many received frames are buffered until polled
func WithInboxCapacity(n int) Option {
	return func(f *factory) { f.inboxCapacity = n }
}

// NewChannelFactory creates the unix channel factory. All sockets live in dir.
func NewChannelFactory(dir string, opts ...Option) transport.IChannelFactory {
	f := &factory{
		dir:           dir,
		writeTimeout:  base.DefaultWriteTimeout,
		inboxCapacity: base.DefaultInboxCapacity,
		tracker:       base.NewTracker(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SocketPath returns the socket of the context listening on port. The host
// part of an address is ignored, all sockets in dir belong to this host.
func SocketPath(dir string, port uint32) string {
	return filepath.Join(dir, fmt.Sprintf("kvmsg-%d.sock", port))
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IChannelFactory)
// --------------------------------------------------------------------------

func (f *factory) GetName() string {
	return "unix"
}

func (f *factory) Open(to common.Address) (transport.Publication, error) {
	addr := &net.UnixAddr{Name: SocketPath(f.dir, to.Port), Net: "unixgram"}
	pub := base.NewConnPublication(
		func() (net.Conn, error) { return net.DialUnix("unixgram", nil, addr) },
		base.WriteDatagram,
		f.writeTimeout,
		func(p *base.ConnPublication) { f.tracker.Remove(p) },
	)
	f.tracker.Add(pub)
	return pub, nil
}

func (f *factory) Listen(self common.Address) (transport.Subscription, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %v", err)
	}

	socketPath := SocketPath(f.dir, self.Port)

	// Remove a stale socket file of a previous run
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove existing socket: %v", err)
	}

	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: socketPath, Net: "unixgram"})
	if err != nil {
		return nil, fmt.Errorf("failed to create unix socket: %v", err)
	}

	var sub *base.PacketSubscription
	sub = base.NewPacketSubscription(conn, f.inboxCapacity, func() {
		f.tracker.Remove(sub)
		_ = os.Remove(socketPath)
	})
	f.tracker.Add(sub)

	transport.Logger.Infof("Listening for unix frames on %s", socketPath)
	return sub, nil
}

func (f *factory) Close() error {
	return f.tracker.CloseAll()
}
