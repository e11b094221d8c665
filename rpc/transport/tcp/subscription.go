package tcp

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/ValentinKolb/kvmsg/rpc/transport"
	"github.com/ValentinKolb/kvmsg/rpc/transport/base"
)

// streamSubscription accepts connections and feeds the frames of all of them
// into one inbox
type streamSubscription struct {
	*base.Inbox
	listener net.Listener
	config   Config
	cleanup  func()

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

func newStreamSubscription(listener net.Listener, config Config, cleanup func()) *streamSubscription {
	s := &streamSubscription{
		Inbox:    base.NewInbox(config.InboxCapacity),
		listener: listener,
		config:   config,
		cleanup:  cleanup,
		conns:    make(map[net.Conn]struct{}),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s
}

// LocalAddr returns the address the listener is bound to
func (s *streamSubscription) LocalAddr() net.Addr { return s.listener.Addr() }

// Close stops accepting, closes all connections and waits for the readers
func (s *streamSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.Inbox.Close()
		err = s.listener.Close()

		s.mu.Lock()
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.mu.Unlock()

		s.wg.Wait()
		if s.cleanup != nil {
			s.cleanup()
		}
	})
	return err
}

func (s *streamSubscription) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			transport.Logger.Errorf("Accept error: %v", err)
			continue
		}

		if err := upgradeConnection(conn, s.config); err != nil {
			transport.Logger.Warningf("Failed to apply socket options: %v", err)
		}

		s.mu.Lock()
		if s.IsClosed() {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.readLoop(conn)
	}
}

// readLoop handles incoming frames of one connection
func (s *streamSubscription) readLoop(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	var buf []byte
	for {
		frame, err := base.ReadFrame(conn, buf)
		if err != nil {
			// Case EOF: Connection closed by peer
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				transport.Logger.Debugf("Connection from %s closed", conn.RemoteAddr())
				return
			}
			transport.Logger.Warningf("Error reading from %s: %v", conn.RemoteAddr(), err)
			return
		}
		buf = frame

		if res := s.PushCopy(frame); res != transport.OfferAccepted {
			transport.Logger.Debugf("Dropping inbound frame from %s: inbox %s", conn.RemoteAddr(), res)
		}
	}
}
