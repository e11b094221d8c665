// Package client implements the clients of the kvmsg store service.
//
// The package focuses on:
//   - Balancing requests over a fixed list of servers
//   - Tracking outstanding requests so that they can be cancelled together
//   - A blocking, goroutine-safe facade for applications that do not run
//     their own event loop
//
// Key Components:
//
//   - EndpointBalancer: round robin over the configured endpoints.
//
//   - ContextClient: sends requests through a core.Context and keeps every
//     request and timer in a core.ResourceList. Close cancels them all. It
//     belongs to the control goroutine of its context.
//
//   - RPCStore: owns a context and runs its event loop on a background
//     goroutine. Get, Set, CompareAndSet, GetVersion, Listen and Ping block until
//     the answer arrived, the deadline passed or the context.Context is done.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  Address:   "10.0.0.2:0",
//	  Endpoints: []string{"10.0.0.1:7000"},
//	  Timeout:   2 * time.Second,
//	}
//
//	kv, err := client.NewRPCStore(config,
//	  transport.Channels{Network: udp.NewChannelFactory()},
//	  serializer.NewProtoSerializer(),
//	)
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer kv.Close()
//
//	version, err := kv.Set(ctx, []byte("key"), []byte("value"), messages.ExpireNone)
package client
