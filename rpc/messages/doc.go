// Package messages defines the payloads of the versioned key value API that
// is served over the messaging core.
//
// Every request implements common.Request and knows the response value it is
// answered with. Every message encodes itself in the protobuf wire format
// (serializer.ProtoMessage) and also carries json tags, so all serializers in
// rpc/serializer can move it.
//
// Replication parameters (N, R, W) travel with each request exactly as the
// caller set them. Neither the core nor the local server interprets them.
package messages
