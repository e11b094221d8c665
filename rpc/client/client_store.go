package client

import (
	"context"
	"fmt"
	"time"

	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/core"
	"github.com/ValentinKolb/kvmsg/rpc/messages"
	"github.com/ValentinKolb/kvmsg/rpc/serializer"
	"github.com/ValentinKolb/kvmsg/rpc/transport"
)

// DefaultTimeout is the request deadline used when the config sets none
const DefaultTimeout = 5 * time.Second

// NewRPCStore creates a new RPC store
// The function takes a client config, the channels and a serializer as parameters.
// The store runs its own messaging context on a background goroutine until Close.
func NewRPCStore(
	config common.ClientConfig,
	channels transport.Channels,
	s serializer.IPayloadSerializer,
	opts ...core.Option,
) (*RPCStore, error) {

	self, err := common.ParseAddress(config.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid client address: %w", err)
	}
	endpoints, err := common.ParseAddresses(config.Endpoints)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoints: %w", err)
	}

	ctx, err := core.New(self, config.Context, channels, s, opts...)
	if err != nil {
		return nil, err
	}
	client, err := NewContextClient(ctx, endpoints)
	if err != nil {
		_ = ctx.Close()
		return nil, err
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	store := &RPCStore{
		ctx:     ctx,
		client:  client,
		timeout: timeout,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go func() {
		defer close(store.done)
		core.NewEventLoop(ctx, core.WithDrainTimeout(timeout)).Run(loopCtx)
	}()

	Logger.Debugf("RPC store %s started with %d endpoints", self, len(endpoints))
	return store, nil
}

// RPCStore is a blocking client of the store service. All methods are safe
// for concurrent use.
type RPCStore struct {
	ctx     *core.Context
	client  *ContextClient
	timeout time.Duration
	cancel  context.CancelFunc
	done    chan struct{}
}

// --------------------------------------------------------------------------
// Store operations
// --------------------------------------------------------------------------

// Get returns the value and version of key. A missing key has version 0.
func (s *RPCStore) Get(ctx context.Context, key []byte) (value []byte, version int64, err error) {
	resp, err := invokeRPCRequest[*messages.GetResponse](ctx, s, messages.NewGetRequest(key))
	if err != nil {
		return nil, 0, err
	}
	return resp.Value, resp.Version, nil
}

// Set writes value unconditionally and returns the new version. The expire
// parameter is a lifetime in seconds (messages.ExpireNone for none).
func (s *RPCStore) Set(ctx context.Context, key, value []byte, expire int32) (version int64, err error) {
	req := messages.NewSetRequest(key, value)
	req.Expire = expire
	resp, err := invokeRPCRequest[*messages.SetResponse](ctx, s, req)
	if err != nil {
		return 0, err
	}
	return resp.Version, nil
}

// CompareAndSet writes value only if the stored version equals version. It
// returns whether the write was applied and the version the key has now.
func (s *RPCStore) CompareAndSet(ctx context.Context, key, value []byte, version int64) (applied bool, current int64, err error) {
	resp, err := invokeRPCRequest[*messages.SetResponse](ctx, s, messages.NewCompareAndSetRequest(key, value, version))
	if err != nil {
		return false, 0, err
	}
	return resp.Status, resp.Version, nil
}

// GetVersion returns the version of key
func (s *RPCStore) GetVersion(ctx context.Context, key []byte) (int64, error) {
	resp, err := invokeRPCRequest[*messages.GetVersionResponse](ctx, s, messages.NewGetVersionRequest(key))
	if err != nil {
		return 0, err
	}
	return resp.Version, nil
}

// Listen waits until the version of key exceeds version and returns the new
// state. If nothing happens within timeout the error has the TIMEOUT code.
func (s *RPCStore) Listen(ctx context.Context, key []byte, version int64, timeout time.Duration) (value []byte, current int64, err error) {
	if timeout <= 0 {
		timeout = messages.DefaultListenTimeout
	}
	req := messages.NewListenRequest(key, version).SetTimeout(timeout)
	resp, err := invokeWithTimeout[*messages.ListenResponse](ctx, s, req, timeout+s.timeout)
	if err != nil {
		return nil, 0, err
	}
	return resp.Value, resp.Version, nil
}

// Ping measures the round trip to the next endpoint
func (s *RPCStore) Ping(ctx context.Context, payload []byte) (time.Duration, error) {
	resp, err := invokeRPCRequest[*messages.PingResponse](ctx, s, messages.NewPingRequest(time.Now(), payload))
	if err != nil {
		return 0, err
	}
	return resp.RoundTrip(time.Now()), nil
}

// Close stops the background loop. Requests in flight are answered or time
// out first. Close waits until the messaging context is closed.
func (s *RPCStore) Close() error {
	s.cancel()
	<-s.done
	return nil
}
