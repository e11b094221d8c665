package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ValentinKolb/kvmsg/lib/wire"
	"github.com/ValentinKolb/kvmsg/rpc/common"
)

// TestFrameShapes encodes and decodes every frame shape
func TestFrameShapes(t *testing.T) {
	from := common.MustAddress("192.168.1.20", 40123)

	tests := []struct {
		name  string
		frame Frame
	}{
		{"request", Frame{Kind: KindRequest, ID: 1, From: from, Type: common.MsgTGet, Payload: []byte("payload")}},
		{"request max id", Frame{Kind: KindRequest, ID: ^uint64(0), From: from, Type: 255, Payload: []byte{0}}},
		{"request empty payload", Frame{Kind: KindRequest, ID: 7, From: from, Type: common.MsgTSet, Payload: []byte{}}},
		{"fire and forget", Frame{Kind: KindFireAndForget, Type: common.MsgTPing, Payload: []byte("x")}},
		{"fire and forget tag 255", Frame{Kind: KindFireAndForget, Type: 255, Payload: []byte{}}},
		{"response", Frame{Kind: KindResponse, ID: 1 << 40, Type: common.MsgTGet, Payload: []byte("value")}},
		{"response empty payload", Frame{Kind: KindResponse, ID: 3, Type: 0, Payload: []byte{}}},
		{"error", Frame{Kind: KindError, ID: 99, Code: common.CodeTimeout}},
		{"error transaction code", Frame{Kind: KindError, ID: 100, Code: common.CodeTrNotFound}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := wire.NewWriter(64)
			Encode(w, &tt.frame)

			got, err := Decode(w.Bytes())
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got.Kind != tt.frame.Kind || got.ID != tt.frame.ID || got.From != tt.frame.From ||
				got.Type != tt.frame.Type || got.Code != tt.frame.Code {
				t.Errorf("Header mismatch: got %+v, want %+v", got, tt.frame)
			}
			if !bytes.Equal(got.Payload, tt.frame.Payload) {
				t.Errorf("Payload mismatch: got %x, want %x", got.Payload, tt.frame.Payload)
			}
		})
	}
}

// TestRequestLayout pins the byte layout of a request that expects a response
func TestRequestLayout(t *testing.T) {
	w := wire.NewWriter(32)
	EncodeRequest(w, true, 0x0102030405060708, common.MustAddress("10.0.0.1", 9000), common.MsgTSet, []byte{0xAA})

	b := w.Bytes()
	if len(b) != 2+2+8+8+1+1 {
		t.Fatalf("Unexpected frame length %d", len(b))
	}
	if v := binary.LittleEndian.Uint16(b[0:]); v != ProtocolVersion {
		t.Errorf("Version = 0x%04x", v)
	}
	if f := Flags(binary.LittleEndian.Uint16(b[2:])); f != FlagRequest|FlagNeedResponse {
		t.Errorf("Flags = %b", f)
	}
	if id := binary.LittleEndian.Uint64(b[4:]); id != 0x0102030405060708 {
		t.Errorf("ID = %x", id)
	}
	if !bytes.Equal(b[12:16], []byte{10, 0, 0, 1}) || binary.LittleEndian.Uint32(b[16:]) != 9000 {
		t.Errorf("Sender = %x", b[12:20])
	}
	if b[20] != byte(common.MsgTSet) || b[21] != 0xAA {
		t.Errorf("Tag/payload = %x", b[20:])
	}
}

// TestFireAndForgetOmitsIdAndSender keeps the header at four bytes
func TestFireAndForgetOmitsIdAndSender(t *testing.T) {
	w := wire.NewWriter(8)
	EncodeRequest(w, false, 42, common.MustAddress("10.0.0.1", 1), common.MsgTPing, nil)
	if w.Len() != 5 {
		t.Errorf("Expected 5 bytes, got %d", w.Len())
	}
}

// TestVersionMismatch rejects foreign frames before reading further
func TestVersionMismatch(t *testing.T) {
	w := wire.NewWriter(8)
	w.PutUint16(ProtocolVersion + 1)

	_, err := Decode(w.Bytes())
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("Expected ErrVersionMismatch, got %v", err)
	}
}

// TestTruncatedFrames reports malformed frames instead of panicking
func TestTruncatedFrames(t *testing.T) {
	w := wire.NewWriter(32)
	EncodeRequest(w, true, 5, common.MustAddress("10.0.0.1", 1), common.MsgTGet, nil)
	full := append([]byte(nil), w.Bytes()...)

	for n := 0; n < len(full); n++ {
		if _, err := Decode(full[:n]); !errors.Is(err, ErrMalformed) {
			t.Errorf("Prefix of %d bytes: expected ErrMalformed, got %v", n, err)
		}
	}
}
