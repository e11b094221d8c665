package core

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/kvmsg/lib/pool"
	"github.com/ValentinKolb/kvmsg/lib/queue"
	"github.com/ValentinKolb/kvmsg/lib/timer"
	"github.com/ValentinKolb/kvmsg/lib/wire"
	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/serializer"
	"github.com/ValentinKolb/kvmsg/rpc/transport"
	"github.com/hashicorp/go-multierror"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("core")

// Context is a messaging endpoint. It owns the channels to other endpoints,
// the handlers for inbound requests, the table of outbound requests waiting
// for an answer, the timers and the task queue.
//
// Thread-safety: a context belongs to the goroutine that drives it (see
// EventLoop). Schedule, State and WriteMetrics may be called from any
// goroutine, everything else only from the control goroutine, which includes
// handlers, callbacks and scheduled tasks.
type Context struct {
	self       common.Address
	config     common.ContextConfig
	channels   transport.Channels
	serializer serializer.IPayloadSerializer

	subscriptions []transport.Subscription
	publications  map[common.Address]transport.Publication
	handlers      map[common.MessageType]RequestHandler

	pending  *correlationTable
	requests *pool.RequestPool
	timers   *timer.Manager
	tasks    *queue.MPSC[func()]

	sendIdle IdleStrategy
	out      *wire.Writer
	counter  uint64
	state    atomic.Int32
	metrics  *contextMetrics
}

// Option configures a Context
type Option func(*options)

type options struct {
	clock    func() time.Time
	sendIdle IdleStrategy
	poolOpts []pool.Option
}

// WithClock replaces time.Now as the time source of the timers
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithSendIdleStrategy sets how the send path waits between retries
func WithSendIdleStrategy(s IdleStrategy) Option {
	return func(o *options) { o.sendIdle = s }
}

// WithPoolOptions passes options to the inbound request pool
func WithPoolOptions(opts ...pool.Option) Option {
	return func(o *options) { o.poolOpts = append(o.poolOpts, opts...) }
}

// New creates a context for the local address self and starts listening on
// the channels. The IPC channel, if any, is listened on as well as the network.
func New(self common.Address, config common.ContextConfig, channels transport.Channels,
	s serializer.IPayloadSerializer, opts ...Option) (*Context, error) {

	if channels.Network == nil {
		return nil, fmt.Errorf("core: a network channel is required")
	}
	if s == nil {
		return nil, fmt.Errorf("core: a serializer is required")
	}

	o := options{sendIdle: NewBackoffIdleStrategy()}
	for _, opt := range opts {
		opt(&o)
	}

	config = config.WithDefaults()
	c := &Context{
		self:         self,
		config:       config,
		channels:     channels,
		serializer:   s,
		publications: make(map[common.Address]transport.Publication),
		handlers:     make(map[common.MessageType]RequestHandler),
		pending:      newCorrelationTable(),
		requests:     pool.New(config.MaxRequestCount, config.MaxRequestPutAttempts, o.poolOpts...),
		timers:       timer.NewManager(o.clock),
		tasks:        queue.NewMPSC[func()](),
		sendIdle:     o.sendIdle,
		out:          wire.NewWriter(config.SendBufferSize),
		metrics:      newContextMetrics(self.String()),
	}

	for _, factory := range []transport.IChannelFactory{channels.Network, channels.IPC} {
		if factory == nil {
			continue
		}
		sub, err := factory.Listen(self)
		if err != nil {
			c.closeSubscriptions()
			return nil, fmt.Errorf("core: listening on %s via %s: %w", self, factory.GetName(), err)
		}
		c.subscriptions = append(c.subscriptions, sub)
	}

	Logger.Infof("Context %s started (serializer %s)", self, s.GetName())
	return c, nil
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Self returns the local address, which is announced as sender of requests
func (c *Context) Self() common.Address { return c.self }

// Config returns the effective configuration
func (c *Context) Config() common.ContextConfig { return c.config }

// Serializer returns the payload serializer
func (c *Context) Serializer() serializer.IPayloadSerializer { return c.serializer }

// State returns the lifecycle state
func (c *Context) State() State { return State(c.state.Load()) }

// Now returns the logical time of the timers
func (c *Context) Now() time.Duration { return c.timers.Now() }

// PendingCount returns the number of outbound requests waiting for an answer
func (c *Context) PendingCount() int { return c.pending.len() }

// InflightCount returns the number of inbound requests not answered yet
func (c *Context) InflightCount() int { return c.requests.Len() }

// --------------------------------------------------------------------------
// Handler registry
// --------------------------------------------------------------------------

// Register installs the handler for a type tag. A tag can only be registered once.
func (c *Context) Register(tag common.MessageType, h RequestHandler) error {
	if _, ok := c.handlers[tag]; ok {
		return fmt.Errorf("%w %s", ErrDuplicateHandler, tag)
	}
	c.handlers[tag] = h
	return nil
}

// RegisterFunc installs a function as handler for a type tag
func (c *Context) RegisterFunc(tag common.MessageType, fn func(req *InboundRequest) error) error {
	return c.Register(tag, HandlerFunc(fn))
}

// --------------------------------------------------------------------------
// Tasks and timers
// --------------------------------------------------------------------------

// Schedule queues fn for execution on the control goroutine. It is safe to
// call from any goroutine. Tasks run in FIFO order, a bounded number per tick.
func (c *Context) Schedule(fn func()) error {
	if !c.tasks.Push(fn) {
		return ErrClosed
	}
	return nil
}

// SetTimeout runs fn once after d. Closing the returned resource cancels it.
func (c *Context) SetTimeout(d time.Duration, fn func()) Resource {
	return c.timers.Run(d, "timeout", func(*timer.Timer) (bool, error) {
		fn()
		return true, nil
	})
}

// SetInterval runs fn every d until the returned resource is closed or fn
// returns an error
func (c *Context) SetInterval(d time.Duration, fn func() error) Resource {
	return c.timers.Run(d, "interval", func(*timer.Timer) (bool, error) {
		if err := fn(); err != nil {
			return true, err
		}
		return false, nil
	})
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// CanClose reports whether no request is in flight in either direction
func (c *Context) CanClose() bool {
	return c.pending.isEmpty() && c.requests.IsEmpty()
}

// ScheduleClosing switches to StateClosing. The event loop closes the context
// as soon as CanClose reports true. Safe to call from any goroutine.
func (c *Context) ScheduleClosing() {
	c.state.CompareAndSwap(int32(StateRunning), int32(StateClosing))
}

// Close closes the channels and switches to StateClosed. It never waits: while
// requests are in flight it returns ErrCannotClose.
func (c *Context) Close() error {
	if c.State() == StateClosed {
		return nil
	}
	if !c.CanClose() {
		return ErrCannotClose
	}
	return c.shutdown()
}

// Abort cancels every inbound request (the requesters receive TIMEOUT), fails
// every outbound request with TIMEOUT and closes the context.
func (c *Context) Abort() error {
	if c.State() == StateClosed {
		return nil
	}

	for i := 0; i < c.requests.Cap() && !c.requests.IsEmpty(); i++ {
		if e, ok := c.requests.Get(i); ok {
			e.Cancel()
		}
	}
	for _, id := range c.pending.ids() {
		c.resolveError(id, common.CodeTimeout)
	}
	return c.shutdown()
}

func (c *Context) shutdown() error {
	c.state.Store(int32(StateClosed))
	c.tasks.Close()

	var result *multierror.Error
	for addr, pub := range c.publications {
		if err := pub.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("closing publication to %s: %w", addr, err))
		}
	}
	c.publications = make(map[common.Address]transport.Publication)

	if err := c.closeSubscriptions(); err != nil {
		result = multierror.Append(result, err)
	}

	Logger.Infof("Context %s closed", c.self)
	return result.ErrorOrNil()
}

func (c *Context) closeSubscriptions() error {
	var result *multierror.Error
	for _, sub := range c.subscriptions {
		if err := sub.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	c.subscriptions = nil
	return result.ErrorOrNil()
}

// --------------------------------------------------------------------------
// Tick
// --------------------------------------------------------------------------

// Tick performs one iteration of the event loop: fire due timers, run up to
// TasksPerTick scheduled tasks and poll up to FramesPerPoll frames from every
// subscription. A context in StateClosing is closed once it can be. The
// returned number is the amount of work done; zero means the loop may idle.
func (c *Context) Tick(ctx context.Context) int {
	if c.State() == StateClosed {
		return 0
	}

	work := 0

	before := c.timers.Len()
	if err := c.timers.UpdateAndProcess(ctx); err != nil {
		c.metrics.timerErrors.Inc()
		Logger.Errorf("Timer errors: %v", err)
	}
	if c.timers.Len() != before {
		work++
	}

	work += c.tasks.Drain(c.config.TasksPerTick, c.runTask)

	for _, sub := range c.subscriptions {
		work += sub.Poll(c.HandleFrame, c.config.FramesPerPoll)
	}

	c.metrics.pending.Store(int64(c.pending.len()))
	c.metrics.inflight.Store(int64(c.requests.Len()))
	c.metrics.timers.Store(int64(c.timers.Len()))
	c.metrics.tasks.Store(int64(c.tasks.Len()))

	if c.State() == StateClosing && c.CanClose() {
		if err := c.Close(); err != nil {
			Logger.Errorf("Closing context %s: %v", c.self, err)
		}
	}
	return work
}

// runTask executes a scheduled task, a panic is logged and swallowed
func (c *Context) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("Scheduled task panicked: %v", r)
		}
	}()
	c.metrics.tasksExecuted.Inc()
	fn()
}
