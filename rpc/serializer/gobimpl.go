package serializer

import (
	"bytes"
	"encoding/gob"
)

// NewGOBSerializer creates a new serializer using Go's binary gob format
func NewGOBSerializer() IPayloadSerializer {
	return &gobSerializerImpl{}
}

// gobSerializerImpl implements the IPayloadSerializer interface using gob encoding.
// Every payload carries its own type description, which makes gob the largest format.
type gobSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IPayloadSerializer)
// --------------------------------------------------------------------------

func (g gobSerializerImpl) Serialize(msg any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobSerializerImpl) Deserialize(b []byte, msg any) error {
	dec := gob.NewDecoder(bytes.NewReader(b))
	return dec.Decode(msg)
}

func (g gobSerializerImpl) GetName() string { return "gob" }
