// Package server implements the kvmsg server: a messaging context with the
// handlers of the store service installed, driven by an event loop.
//
// The package focuses on:
//   - Server-side request handling for the versioned store and ping
//   - Adapter pattern to decouple the store from the messaging core
//   - Long polling: Listen requests are parked on the server and answered by
//     the next write that moves the key past the awaited version
//
// Key Components:
//
//   - IRPCServerAdapter: Interface every adapter implements. Register installs
//     the handlers of one service on a core.Context.
//
//   - NewStoreServerAdapter: Serves Get, Set (with conditions and expiry),
//     GetVersion and Listen from a store.IVersionedStore.
//
//   - NewPingServerAdapter: Echoes ping requests.
//
//   - NewRPCServer: Creates the context, registers the adapters and exposes
//     Serve, which runs the event loop until its context is cancelled and then
//     drains the requests in flight.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Endpoint:        "10.0.0.1:7000",
//	  MetricsEndpoint: ":9100",
//	}
//
//	s, err := server.NewRPCServer(
//	  config,
//	  transport.Channels{Network: udp.NewChannelFactory()},
//	  serializer.NewProtoSerializer(),
//	  lstore.NewLocalStore(nil),
//	)
//	if err != nil {
//	  log.Fatal(err)
//	}
//	err = s.Serve(ctx)
package server
