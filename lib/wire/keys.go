package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Sort keys are always big endian and fixed width. Tree and range code compares
// keys with CompareKeys (unsigned, lexicographic), so the numeric order of the
// encoded values must survive the byte comparison.

const signBit = uint64(1) << 63

// EncodeUint64Key returns the 8 byte sort key for v
func EncodeUint64Key(v uint64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), v)
}

// DecodeUint64Key is the inverse of EncodeUint64Key
func DecodeUint64Key(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: uint64 key needs 8 bytes, got %d", ErrShortBuffer, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// EncodeUint32Key returns the 4 byte sort key for v
func EncodeUint32Key(v uint32) []byte {
	return binary.BigEndian.AppendUint32(make([]byte, 0, 4), v)
}

// DecodeUint32Key is the inverse of EncodeUint32Key
func DecodeUint32Key(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: uint32 key needs 4 bytes, got %d", ErrShortBuffer, len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

// EncodeInt64Key returns the 8 byte sort key for a signed value.
// The sign bit is flipped so negative values sort before positive ones.
func EncodeInt64Key(v int64) []byte {
	return EncodeUint64Key(uint64(v) ^ signBit)
}

// DecodeInt64Key is the inverse of EncodeInt64Key
func DecodeInt64Key(b []byte) (int64, error) {
	u, err := DecodeUint64Key(b)
	if err != nil {
		return 0, err
	}
	return int64(u ^ signBit), nil
}

// CompareKeys compares two keys as unsigned byte strings
func CompareKeys(a, b []byte) int {
	return bytes.Compare(a, b)
}
