package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ValentinKolb/kvmsg/lib/store"
	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/core"
	"github.com/ValentinKolb/kvmsg/rpc/serializer"
	"github.com/ValentinKolb/kvmsg/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/hashicorp/go-multierror"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc")

// metricsShutdownTimeout bounds how long Serve waits for the metrics endpoint to stop
const metricsShutdownTimeout = 5 * time.Second

// NewRPCServer creates a new RPC server
// It takes a config, the channels, a serializer and the store to serve as parameters
//
// Usage:
//
//	s, err := server.NewRPCServer(
//		*config,
//		transport.Channels{Network: udp.NewChannelFactory()},
//		serializer.NewProtoSerializer(),
//		lstore.NewLocalStore(nil),
//	)
//	if err != nil {
//		panic(err)
//	}
//
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	channels transport.Channels,
	s serializer.IPayloadSerializer,
	kv store.IVersionedStore,
	opts ...core.Option,
) (*RPCServer, error) {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	self, err := common.ParseAddress(config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	ctx, err := core.New(self, config.Context, channels, s, opts...)
	if err != nil {
		return nil, err
	}

	srv := &RPCServer{
		config: config,
		ctx:    ctx,
		store:  kv,
		kv:     NewStoreServerAdapter(kv).(*storeServerAdapterImpl),
	}
	for _, adapter := range []IRPCServerAdapter{srv.kv, NewPingServerAdapter()} {
		if err := adapter.Register(ctx); err != nil {
			_ = ctx.Close()
			return nil, fmt.Errorf("registering %s adapter: %w", adapter.GetName(), err)
		}
		Logger.Debugf("Registered %s adapter", adapter.GetName())
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())
	return srv, nil
}

// RPCServer serves a versioned store over a messaging context
type RPCServer struct {
	config common.ServerConfig
	ctx    *core.Context
	store  store.IVersionedStore
	kv     *storeServerAdapterImpl
}

// Context returns the messaging context of the server
func (s *RPCServer) Context() *core.Context { return s.ctx }

// Address returns the address the server listens on
func (s *RPCServer) Address() common.Address { return s.ctx.Self() }

// Listeners returns the number of parked listen requests. Like everything
// bound to the context it must be called from the control goroutine.
func (s *RPCServer) Listeners() int { return s.kv.waiting() }

// MetricsHandler serves the process metrics and the metrics of the context in
// Prometheus text format
func (s *RPCServer) MetricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		metrics.WritePrometheus(w, true)
		s.ctx.WriteMetrics(w)
	})
}

// Serve runs the event loop of the server until ctx is cancelled. In flight
// requests are still answered after the cancellation, at most until they time
// out. The store is closed when Serve returns.
func (s *RPCServer) Serve(ctx context.Context) error {
	var result *multierror.Error

	var metricsSrv *http.Server
	if s.config.MetricsEndpoint != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.MetricsHandler())
		metricsSrv = &http.Server{Addr: s.config.MetricsEndpoint, Handler: mux}
		go func() {
			Logger.Infof("Serving metrics on http://%s/metrics", s.config.MetricsEndpoint)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				Logger.Errorf("Metrics endpoint failed: %v", err)
			}
		}()
	}

	Logger.Infof("Serving on %s", s.ctx.Self())
	drain := s.ctx.Config().RequestTimeout
	core.NewEventLoop(s.ctx, core.WithDrainTimeout(drain)).Run(ctx)
	Logger.Infof("Server %s stopped", s.ctx.Self())

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			result = multierror.Append(result, fmt.Errorf("stopping metrics endpoint: %w", err))
		}
		cancel()
	}
	if err := s.store.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("closing store: %w", err))
	}
	return result.ErrorOrNil()
}
