// Package rpc provides the request/response messaging layer of kvmsg. It
// moves requests and their answers between nodes over connectionless channels,
// correlates answers with requests and guarantees that every request with a
// response handler is resolved exactly once.
//
// The package is organized into several subpackages:
//
//   - common: Addresses, message interfaces, error codes, configuration
//     structures and logging.
//
//   - frame: The binary frame format (version, flags, correlation id, sender,
//     type tag, payload or error code).
//
//   - transport: Channel abstractions with pluggable implementations
//     (in-memory, UDP, TCP, unix datagram sockets for same-host IPC).
//
//   - serializer: Payload codecs (proto, CBOR, JSON, GOB).
//
//   - messages: The request and response types of the store service.
//
//   - core: The messaging context: sending with backpressure retries,
//     response correlation, inbound request slots, timers, scheduled tasks
//     and the event loop.
//
//   - client: Clients of the store service, from the context bound
//     ContextClient to the blocking RPCStore.
//
//   - server: The store service. Adapters register request handlers on a
//     context and Serve runs its event loop.
package rpc
