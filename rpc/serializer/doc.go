// Package serializer provides the payload codecs of the messaging core. The core
// only frames and correlates; the bytes after the type tag of a frame are produced
// and consumed by an IPayloadSerializer.
//
// Key Components:
//
//   - IPayloadSerializer: Core interface that all serializer implementations must satisfy.
//
//   - protoSerializerImpl: Protobuf wire format. Messages implement ProtoMessage and
//     append their fields with protowire, so no generated code and no reflection is
//     involved. Zero values are omitted and unknown fields are skipped, which keeps
//     peers of different versions compatible. This is the default.
//
//   - cborSerializerImpl: Canonical CBOR via fxamacker/cbor. Compact and schema-less,
//     useful when messages are exchanged with non-Go peers.
//
//   - jsonSerializerImpl: JSON encoding, useful for debugging but with the largest
//     payloads after gob.
//
//   - gobSerializerImpl: Go's gob encoding. Every payload carries a type description,
//     which makes it the slowest and largest format for single messages.
//
// Thread Safety:
//
//	All serializer implementations are stateless (the CBOR modes are immutable) and
//	safe for concurrent use across multiple goroutines.
//
// Usage:
//
//	s, err := serializer.ByName("proto")
//	data, err := s.Serialize(messages.NewGetRequest(key))
//	// ... send data ...
//	var resp messages.GetResponse
//	err = s.Deserialize(receivedData, &resp)
package serializer
