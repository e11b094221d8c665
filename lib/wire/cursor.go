package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrShortBuffer is returned when a read needs more bytes than remain in the buffer
	ErrShortBuffer = errors.New("wire: data too short")
	// ErrInvalidLength is returned when a length prefix is negative
	ErrInvalidLength = errors.New("wire: invalid length prefix")
)

// --------------------------------------------------------------------------
// Writer
// --------------------------------------------------------------------------

// Writer appends values to a growable buffer. The buffer is kept between
// Reset calls, so a single Writer can be reused for every outgoing frame.
type Writer struct {
	buf []byte
}

// NewWriter creates a writer with the given initial capacity
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Reset empties the writer but keeps the allocated buffer
func (w *Writer) Reset() { w.buf = w.buf[:0] }

// Len returns the number of bytes written since the last Reset
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the written bytes. The slice is only valid until the next write or Reset.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) PutUint8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) PutInt8(v int8) { w.buf = append(w.buf, byte(v)) }

func (w *Writer) PutBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) PutUint16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *Writer) PutUint32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *Writer) PutUint64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *Writer) PutInt32(v int32) { w.PutUint32(uint32(v)) }

func (w *Writer) PutInt64(v int64) { w.PutUint64(uint64(v)) }

// PutUint16With writes v using the given byte order
func (w *Writer) PutUint16With(order binary.AppendByteOrder, v uint16) {
	w.buf = order.AppendUint16(w.buf, v)
}

// PutUint32With writes v using the given byte order
func (w *Writer) PutUint32With(order binary.AppendByteOrder, v uint32) {
	w.buf = order.AppendUint32(w.buf, v)
}

// PutUint64With writes v using the given byte order
func (w *Writer) PutUint64With(order binary.AppendByteOrder, v uint64) {
	w.buf = order.AppendUint64(w.buf, v)
}

// PutBytes writes b without a length prefix
func (w *Writer) PutBytes(b []byte) { w.buf = append(w.buf, b...) }

// PutBlob writes b with an int32 length prefix
func (w *Writer) PutBlob(b []byte) {
	w.PutInt32(int32(len(b)))
	w.buf = append(w.buf, b...)
}

// --------------------------------------------------------------------------
// Reader
// --------------------------------------------------------------------------

// Reader reads values from a fixed slice. The offset only moves forward on
// successful reads.
type Reader struct {
	buf []byte
	off int
}

// NewReader creates a reader positioned at the start of b
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Wrap points the reader at a new slice and resets the offset
func (r *Reader) Wrap(b []byte) {
	r.buf = b
	r.off = 0
}

// Offset returns the current read position
func (r *Reader) Offset() int { return r.off }

// SetOffset moves the cursor to an absolute position
func (r *Reader) SetOffset(off int) error {
	if off < 0 || off > len(r.buf) {
		return fmt.Errorf("%w: offset %d outside buffer of %d bytes", ErrShortBuffer, off, len(r.buf))
	}
	r.off = off
	return nil
}

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// next returns the following n bytes and advances the cursor
func (r *Reader) next(n int, field string) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, fmt.Errorf("%w for %s: need %d bytes at offset %d, have %d", ErrShortBuffer, field, n, r.off, r.Remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.next(1, "uint8")
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err
}

func (r *Reader) Bool() (bool, error) {
	v, err := r.Uint8()
	return v != 0, err
}

func (r *Reader) Uint16() (uint16, error) { return r.Uint16With(binary.LittleEndian) }

func (r *Reader) Uint32() (uint32, error) { return r.Uint32With(binary.LittleEndian) }

func (r *Reader) Uint64() (uint64, error) { return r.Uint64With(binary.LittleEndian) }

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

// Uint16With reads a uint16 using the given byte order
func (r *Reader) Uint16With(order binary.ByteOrder) (uint16, error) {
	b, err := r.next(2, "uint16")
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

// Uint32With reads a uint32 using the given byte order
func (r *Reader) Uint32With(order binary.ByteOrder) (uint32, error) {
	b, err := r.next(4, "uint32")
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

// Uint64With reads a uint64 using the given byte order
func (r *Reader) Uint64With(order binary.ByteOrder) (uint64, error) {
	b, err := r.next(8, "uint64")
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

// Bytes returns the next n bytes. The result aliases the underlying buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.next(n, "bytes")
}

// Blob reads an int32 length prefix followed by that many bytes.
// The result aliases the underlying buffer.
func (r *Reader) Blob() ([]byte, error) {
	start := r.off
	n, err := r.Int32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		r.off = start
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	b, err := r.next(int(n), "blob")
	if err != nil {
		r.off = start
		return nil, err
	}
	return b, nil
}

// Rest returns all unread bytes and moves the cursor to the end
func (r *Reader) Rest() []byte {
	b := r.buf[r.off:]
	r.off = len(r.buf)
	return b
}
