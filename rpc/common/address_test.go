package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/kvmsg/lib/wire"
)

// TestParseAddress covers valid and invalid inputs
func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    Address
		wantErr bool
	}{
		{"127.0.0.1:4000", Address{Host: [4]byte{127, 0, 0, 1}, Port: 4000}, false},
		{"10.1.2.3:0", Address{Host: [4]byte{10, 1, 2, 3}, Port: 0}, false},
		{"10.1.2.3", Address{}, true},
		{"10.1.2.3:port", Address{}, true},
		{"[::1]:4000", Address{}, true},
		{"10.1.2.3:70000", Address{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAddress(%q) error = %v, wantErr %t", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseAddress(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if !tt.wantErr && got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

// TestAddressCompare orders by host bytes, then by port
func TestAddressCompare(t *testing.T) {
	a := MustAddress("10.0.0.1", 2000)
	b := MustAddress("10.0.0.1", 3000)
	c := MustAddress("200.0.0.1", 1000)

	if a.Compare(b) >= 0 || b.Compare(a) <= 0 {
		t.Error("Port ordering is wrong")
	}
	// 200 > 10 as unsigned byte
	if b.Compare(c) >= 0 {
		t.Error("Host ordering must be unsigned")
	}
	if a.Compare(a) != 0 {
		t.Error("Address must compare equal to itself")
	}
	if !a.SameHost(b) || a.SameHost(c) {
		t.Error("SameHost is wrong")
	}
}

// TestAddressWireForm writes host bytes and a little endian port
func TestAddressWireForm(t *testing.T) {
	a := MustAddress("1.2.3.4", 0x0102)
	w := wire.NewWriter(AddressSize)
	PutAddress(w, a)

	expected := []byte{1, 2, 3, 4, 0x02, 0x01, 0, 0}
	if fmt.Sprintf("%x", w.Bytes()) != fmt.Sprintf("%x", expected) {
		t.Fatalf("Expected %x, got %x", expected, w.Bytes())
	}

	got, err := ReadAddress(wire.NewReader(w.Bytes()))
	if err != nil || got != a {
		t.Errorf("ReadAddress = %v, %v", got, err)
	}

	if _, err := ReadAddress(wire.NewReader(expected[:5])); !errors.Is(err, wire.ErrShortBuffer) {
		t.Errorf("Expected short buffer error, got %v", err)
	}
}

// TestCodeOf maps errors to wire codes
func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"code error", NewCodeError(CodeTrNotFound), CodeTrNotFound},
		{"wrapped code error", fmt.Errorf("ctx: %w", NewCodeError(CodeTrInterrupted)), CodeTrInterrupted},
		{"illegal argument", IllegalArgument("key must not be empty"), CodeIllegalArgument},
		{"timeout", ErrTimeout, CodeTimeout},
		{"result error", &ResultError{Code: CodeUnexpectedError, Err: errors.New("decode")}, CodeUnexpectedError},
		{"anything else", errors.New("boom"), CodeUnexpectedError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestMessageTypeJSON keeps the readable names in json
func TestMessageTypeJSON(t *testing.T) {
	for _, mt := range []MessageType{MsgTGet, MsgTSet, MsgTListen, MsgTGetVersion, MsgTPing, 0x42} {
		data, err := json.Marshal(mt)
		if err != nil {
			t.Fatal(err)
		}
		var back MessageType
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if back != mt {
			t.Errorf("Expected %v, got %v", mt, back)
		}
	}
}
