package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// TestWriterLittleEndianLayout verifies the default byte order of the writer
func TestWriterLittleEndianLayout(t *testing.T) {
	w := NewWriter(16)
	w.PutUint16(0x0102)
	w.PutUint32(0x03040506)

	expected := []byte{0x02, 0x01, 0x06, 0x05, 0x04, 0x03}
	if !bytes.Equal(w.Bytes(), expected) {
		t.Errorf("Expected %x, got %x", expected, w.Bytes())
	}
}

// TestReaderReadsWhatWriterWrote checks every primitive in one buffer
func TestReaderReadsWhatWriterWrote(t *testing.T) {
	w := NewWriter(0)
	w.PutUint8(0xff)
	w.PutBool(true)
	w.PutUint16(65535)
	w.PutInt32(-7)
	w.PutUint64(1 << 62)
	w.PutUint32With(binary.BigEndian, 42)
	w.PutBlob([]byte("value"))
	w.PutBytes([]byte("tail"))

	r := NewReader(w.Bytes())

	if v, err := r.Uint8(); err != nil || v != 0xff {
		t.Fatalf("Uint8: got %d, %v", v, err)
	}
	if v, err := r.Bool(); err != nil || !v {
		t.Fatalf("Bool: got %t, %v", v, err)
	}
	if v, err := r.Uint16(); err != nil || v != 65535 {
		t.Fatalf("Uint16: got %d, %v", v, err)
	}
	if v, err := r.Int32(); err != nil || v != -7 {
		t.Fatalf("Int32: got %d, %v", v, err)
	}
	if v, err := r.Uint64(); err != nil || v != 1<<62 {
		t.Fatalf("Uint64: got %d, %v", v, err)
	}
	if v, err := r.Uint32With(binary.BigEndian); err != nil || v != 42 {
		t.Fatalf("Uint32With: got %d, %v", v, err)
	}
	if v, err := r.Blob(); err != nil || string(v) != "value" {
		t.Fatalf("Blob: got %q, %v", v, err)
	}
	if rest := r.Rest(); string(rest) != "tail" {
		t.Fatalf("Rest: got %q", rest)
	}
	if r.Remaining() != 0 {
		t.Errorf("Expected no remaining bytes, got %d", r.Remaining())
	}
}

// TestReaderShortBuffer verifies that truncated input fails without moving the cursor
func TestReaderShortBuffer(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(r *Reader) error
	}{
		{"uint16", []byte{1}, func(r *Reader) error { _, err := r.Uint16(); return err }},
		{"uint32", []byte{1, 2, 3}, func(r *Reader) error { _, err := r.Uint32(); return err }},
		{"uint64", []byte{1, 2, 3, 4, 5, 6, 7}, func(r *Reader) error { _, err := r.Uint64(); return err }},
		{"bytes", []byte{1, 2}, func(r *Reader) error { _, err := r.Bytes(3); return err }},
		{"blob", []byte{5, 0, 0, 0, 'a'}, func(r *Reader) error { _, err := r.Blob(); return err }},
		{"empty", nil, func(r *Reader) error { _, err := r.Uint8(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.data)
			err := tt.read(r)
			if !errors.Is(err, ErrShortBuffer) {
				t.Fatalf("Expected ErrShortBuffer, got %v", err)
			}
			if r.Offset() != 0 {
				t.Errorf("Offset moved to %d after failed read", r.Offset())
			}
		})
	}
}

// TestReaderNegativeBlobLength rejects a negative length prefix
func TestReaderNegativeBlobLength(t *testing.T) {
	w := NewWriter(4)
	w.PutInt32(-1)

	_, err := NewReader(w.Bytes()).Blob()
	if !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("Expected ErrInvalidLength, got %v", err)
	}
}

// TestWriterReset keeps the buffer but forgets the content
func TestWriterReset(t *testing.T) {
	w := NewWriter(8)
	w.PutUint64(1)
	w.Reset()
	if w.Len() != 0 {
		t.Fatalf("Expected empty writer after reset, got %d bytes", w.Len())
	}
	w.PutUint8(9)
	if !bytes.Equal(w.Bytes(), []byte{9}) {
		t.Errorf("Unexpected content after reset: %x", w.Bytes())
	}
}

// TestReaderSetOffset allows jumping back but never outside the buffer
func TestReaderSetOffset(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if _, err := r.Bytes(2); err != nil {
		t.Fatal(err)
	}
	if err := r.SetOffset(0); err != nil {
		t.Fatal(err)
	}
	if v, _ := r.Uint8(); v != 1 {
		t.Errorf("Expected 1 after rewinding, got %d", v)
	}
	if err := r.SetOffset(4); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("Expected ErrShortBuffer for offset past the end, got %v", err)
	}
}
