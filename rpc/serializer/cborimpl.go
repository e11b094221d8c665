package serializer

import (
	"github.com/fxamacker/cbor/v2"
)

// NewCBORSerializer creates a deterministic CBOR serializer (canonical encoding)
func NewCBORSerializer() (IPayloadSerializer, error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	return &cborSerializerImpl{enc: em, dec: dm}, nil
}

// cborSerializerImpl implements the IPayloadSerializer interface using CBOR
type cborSerializerImpl struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IPayloadSerializer)
// --------------------------------------------------------------------------

func (c *cborSerializerImpl) Serialize(msg any) ([]byte, error) {
	return c.enc.Marshal(msg)
}

func (c *cborSerializerImpl) Deserialize(b []byte, msg any) error {
	return c.dec.Unmarshal(b, msg)
}

func (c *cborSerializerImpl) GetName() string { return "cbor" }
