package messages

import (
	"bytes"

	"google.golang.org/protobuf/encoding/protowire"
)

// --------------------------------------------------------------------------
// Encoding helpers
// --------------------------------------------------------------------------

// appendVarint appends a varint field, zero values are omitted
func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	return appendVarint(b, num, 1)
}

// appendBytes appends a length delimited field, nil slices are omitted
func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// --------------------------------------------------------------------------
// Decoding helpers
// --------------------------------------------------------------------------

// fieldFunc decodes a single field value from b and returns the number of
// consumed bytes. Zero means the field is unknown and is skipped, a negative
// value is a protowire error code.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) int

// decodeFields walks all fields of an encoded message
func decodeFields(b []byte, field fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n = field(num, typ, b)
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

type integer interface {
	~uint8 | ~int32 | ~uint32 | ~int64 | ~uint64
}

// varintField stores a varint into dst. A field with a foreign wire type is skipped.
func varintField[T integer](typ protowire.Type, b []byte, dst *T) int {
	if typ != protowire.VarintType {
		return 0
	}
	v, n := protowire.ConsumeVarint(b)
	if n > 0 {
		*dst = T(v)
	}
	return n
}

func boolField(typ protowire.Type, b []byte, dst *bool) int {
	var v uint64
	n := varintField(typ, b, &v)
	if n > 0 {
		*dst = v != 0
	}
	return n
}

// bytesField copies a length delimited value into dst. The frame buffer is
// reused by the transports, so the value must not alias it.
func bytesField(typ protowire.Type, b []byte, dst *[]byte) int {
	if typ != protowire.BytesType {
		return 0
	}
	v, n := protowire.ConsumeBytes(b)
	if n > 0 {
		*dst = bytes.Clone(v)
	}
	return n
}
