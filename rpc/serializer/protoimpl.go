package serializer

import (
	"errors"
	"fmt"
)

// ErrNotProtoMessage is returned by the proto serializer for values that do not implement ProtoMessage
var ErrNotProtoMessage = errors.New("serializer: value does not implement ProtoMessage")

// ProtoMessage is implemented by messages that encode themselves in the
// protobuf wire format (see google.golang.org/protobuf/encoding/protowire)
type ProtoMessage interface {
	// AppendProto appends the encoded message to b
	AppendProto(b []byte) []byte
	// UnmarshalProto decodes b into the message. Unknown fields are skipped.
	UnmarshalProto(b []byte) error
}

// NewProtoSerializer creates a serializer for the protobuf wire format. No
// generated code is involved, the messages encode their fields by hand.
func NewProtoSerializer() IPayloadSerializer {
	return &protoSerializerImpl{}
}

// protoSerializerImpl implements the IPayloadSerializer interface using protowire
type protoSerializerImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IPayloadSerializer)
// --------------------------------------------------------------------------

func (p *protoSerializerImpl) Serialize(msg any) ([]byte, error) {
	m, ok := msg.(ProtoMessage)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotProtoMessage, msg)
	}
	return m.AppendProto(nil), nil
}

func (p *protoSerializerImpl) Deserialize(b []byte, msg any) error {
	m, ok := msg.(ProtoMessage)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotProtoMessage, msg)
	}
	return m.UnmarshalProto(b)
}

func (p *protoSerializerImpl) GetName() string { return "proto" }
