package memory

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/transport"
	"github.com/ValentinKolb/kvmsg/rpc/transport/base"
	"github.com/puzpuzpuz/xsync/v3"
)

// Filter decides whether a frame on its way to an address is delivered. It is
// used to simulate loss.
type Filter func(to common.Address, frame []byte) bool

// Hub connects all contexts of one process. It has separate namespaces for the
// intra-host and the network channel, so both paths of a context can be used.
type Hub struct {
	capacity int
	ipc      *namespace
	network  *namespace
}

// Option configures a Hub
type Option func(*Hub)

// WithInboxCapacity sets how many frames a subscription buffers
func WithInboxCapacity(n int) Option {
	return func(h *Hub) { h.capacity = n }
}

// NewHub creates an empty hub
func NewHub(opts ...Option) *Hub {
	h := &Hub{capacity: base.DefaultInboxCapacity}
	for _, opt := range opts {
		opt(h)
	}
	h.ipc = newNamespace("memory-ipc", h.capacity)
	h.network = newNamespace("memory", h.capacity)
	return h
}

// IPC returns the factory for the intra-host namespace
func (h *Hub) IPC() transport.IChannelFactory { return h.ipc }

// Network returns the factory for the network namespace
func (h *Hub) Network() transport.IChannelFactory { return h.network }

// Channels returns both factories
func (h *Hub) Channels() transport.Channels {
	return transport.Channels{IPC: h.ipc, Network: h.network}
}

// SetFilter installs a filter on both namespaces, nil removes it
func (h *Hub) SetFilter(f Filter) {
	h.ipc.filter.Store(&f)
	h.network.filter.Store(&f)
}

// Delivered returns the number of frames accepted by both namespaces
func (h *Hub) Delivered() uint64 {
	return h.ipc.delivered.Load() + h.network.delivered.Load()
}

// --------------------------------------------------------------------------
// Namespace (implements transport.IChannelFactory)
// --------------------------------------------------------------------------

type namespace struct {
	name      string
	capacity  int
	inboxes   *xsync.MapOf[common.Address, *subscription]
	filter    atomic.Pointer[Filter]
	delivered atomic.Uint64
}

func newNamespace(name string, capacity int) *namespace {
	return &namespace{
		name:     name,
		capacity: capacity,
		inboxes:  xsync.NewMapOf[common.Address, *subscription](),
	}
}

func (n *namespace) GetName() string { return n.name }

func (n *namespace) Open(to common.Address) (transport.Publication, error) {
	return &publication{ns: n, to: to}, nil
}

func (n *namespace) Listen(self common.Address) (transport.Subscription, error) {
	sub := &subscription{Inbox: base.NewInbox(n.capacity), ns: n, self: self}
	if _, loaded := n.inboxes.LoadOrStore(self, sub); loaded {
		return nil, fmt.Errorf("%s: address %s already in use", n.name, self)
	}
	return sub, nil
}

func (n *namespace) Close() error {
	n.inboxes.Range(func(addr common.Address, sub *subscription) bool {
		_ = sub.Close()
		return true
	})
	return nil
}

func (n *namespace) deliver(to common.Address, frame []byte) transport.OfferResult {
	if f := n.filter.Load(); f != nil && *f != nil && !(*f)(to, frame) {
		// a lost frame looks like a delivered one to the sender
		return transport.OfferAccepted
	}
	sub, ok := n.inboxes.Load(to)
	if !ok {
		return transport.OfferNotConnected
	}
	res := sub.PushCopy(frame)
	if res == transport.OfferAccepted {
		n.delivered.Add(1)
	}
	return res
}

// --------------------------------------------------------------------------
// Publication and Subscription
// --------------------------------------------------------------------------

type publication struct {
	ns     *namespace
	to     common.Address
	closed atomic.Bool
}

func (p *publication) Offer(frame []byte) transport.OfferResult {
	if p.closed.Load() {
		return transport.OfferClosed
	}
	return p.ns.deliver(p.to, frame)
}

func (p *publication) Close() error {
	p.closed.Store(true)
	return nil
}

type subscription struct {
	*base.Inbox
	ns   *namespace
	self common.Address
	once sync.Once
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.Inbox.Close()
		s.ns.inboxes.Compute(s.self, func(old *subscription, loaded bool) (*subscription, bool) {
			// only remove our own registration
			return old, !loaded || old == s
		})
	})
	return nil
}
