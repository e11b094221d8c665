package serializer

import "fmt"

// IPayloadSerializer is the interface for all payload serializers.
// The messaging core hands it the payload of a frame after the type tag has
// been consumed, so implementations only see message bodies.
type IPayloadSerializer interface {
	// Serialize serializes a message (a pointer to a message struct) into a byte array
	Serialize(msg any) ([]byte, error)
	// Deserialize deserializes a byte array into msg, which must be a pointer
	Deserialize(b []byte, msg any) error
	// GetName returns the name of the serializer (e.g. "proto", "json")
	GetName() string
}

// ByName creates a serializer by its name
func ByName(name string) (IPayloadSerializer, error) {
	switch name {
	case "proto", "":
		return NewProtoSerializer(), nil
	case "cbor":
		return NewCBORSerializer()
	case "json":
		return NewJSONSerializer(), nil
	case "gob":
		return NewGOBSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s (expected one of proto, cbor, json, gob)", name)
	}
}
