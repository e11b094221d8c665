// Package frame encodes and decodes the frames exchanged by messaging contexts.
//
// All integers are little endian. Layout:
//
//	offset  size  field
//	0       2     protocol version, must equal ProtocolVersion
//	2       2     flags: bit0 REQUEST, bit1 NEED_RESPONSE, bit2 ERROR
//	4       8     correlation id      (request with NEED_RESPONSE, or any response)
//	12      8     sender address      (request with NEED_RESPONSE only)
//	-       1     type tag            (any request, success response)
//	-       rest  payload             (any request, success response)
//	-       4     error code          (error response, instead of tag and payload)
package frame

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/kvmsg/lib/wire"
	"github.com/ValentinKolb/kvmsg/rpc/common"
)

// ProtocolVersion is the only version a context accepts
const ProtocolVersion uint16 = 0x0003

// Flags is the 16 bit flag field of a frame
type Flags uint16

const (
	FlagRequest      Flags = 1 << 0
	FlagNeedResponse Flags = 1 << 1
	FlagError        Flags = 1 << 2
)

func (f Flags) Has(flag Flags) bool { return f&flag != 0 }

var (
	// ErrVersionMismatch is returned for frames with a foreign protocol version
	ErrVersionMismatch = errors.New("frame: protocol version mismatch")
	// ErrMalformed is returned for frames that end before a mandatory field
	ErrMalformed = errors.New("frame: malformed")
)

// Kind distinguishes the four frame shapes
type Kind uint8

const (
	KindRequest Kind = iota
	KindFireAndForget
	KindResponse
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindFireAndForget:
		return "fire-and-forget"
	case KindResponse:
		return "response"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Frame is a decoded frame. Payload aliases the decoded buffer.
type Frame struct {
	Kind    Kind
	ID      uint64
	From    common.Address
	Type    common.MessageType
	Code    common.ErrorCode
	Payload []byte
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// EncodeRequest writes a request frame. With needResponse the correlation id and
// the sender address are included, otherwise both are omitted.
func EncodeRequest(w *wire.Writer, needResponse bool, id uint64, from common.Address, tag common.MessageType, payload []byte) {
	flags := FlagRequest
	if needResponse {
		flags |= FlagNeedResponse
	}
	w.PutUint16(ProtocolVersion)
	w.PutUint16(uint16(flags))
	if needResponse {
		w.PutUint64(id)
		common.PutAddress(w, from)
	}
	w.PutUint8(uint8(tag))
	w.PutBytes(payload)
}

// EncodeResponse writes a success response frame
func EncodeResponse(w *wire.Writer, id uint64, tag common.MessageType, payload []byte) {
	w.PutUint16(ProtocolVersion)
	w.PutUint16(0)
	w.PutUint64(id)
	w.PutUint8(uint8(tag))
	w.PutBytes(payload)
}

// EncodeError writes an error response frame
func EncodeError(w *wire.Writer, id uint64, code common.ErrorCode) {
	w.PutUint16(ProtocolVersion)
	w.PutUint16(uint16(FlagError))
	w.PutUint64(id)
	w.PutInt32(int32(code))
}

// Encode writes f according to its kind
func Encode(w *wire.Writer, f *Frame) {
	switch f.Kind {
	case KindRequest:
		EncodeRequest(w, true, f.ID, f.From, f.Type, f.Payload)
	case KindFireAndForget:
		EncodeRequest(w, false, 0, common.Address{}, f.Type, f.Payload)
	case KindResponse:
		EncodeResponse(w, f.ID, f.Type, f.Payload)
	case KindError:
		EncodeError(w, f.ID, f.Code)
	}
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// Decode parses a frame. A version mismatch is reported before anything else is read.
func Decode(b []byte) (Frame, error) {
	var f Frame
	r := wire.NewReader(b)

	version, err := r.Uint16()
	if err != nil {
		return f, fmt.Errorf("%w: version: %v", ErrMalformed, err)
	}
	if version != ProtocolVersion {
		return f, fmt.Errorf("%w: got 0x%04x, want 0x%04x", ErrVersionMismatch, version, ProtocolVersion)
	}

	rawFlags, err := r.Uint16()
	if err != nil {
		return f, fmt.Errorf("%w: flags: %v", ErrMalformed, err)
	}
	flags := Flags(rawFlags)

	if flags.Has(FlagRequest) {
		f.Kind = KindFireAndForget
		if flags.Has(FlagNeedResponse) {
			f.Kind = KindRequest
			if f.ID, err = r.Uint64(); err != nil {
				return f, fmt.Errorf("%w: correlation id: %v", ErrMalformed, err)
			}
			if f.From, err = common.ReadAddress(r); err != nil {
				return f, fmt.Errorf("%w: sender: %v", ErrMalformed, err)
			}
		}
		return f, readTagged(r, &f)
	}

	if f.ID, err = r.Uint64(); err != nil {
		return f, fmt.Errorf("%w: correlation id: %v", ErrMalformed, err)
	}
	if flags.Has(FlagError) {
		f.Kind = KindError
		code, err := r.Int32()
		if err != nil {
			return f, fmt.Errorf("%w: error code: %v", ErrMalformed, err)
		}
		f.Code = common.ErrorCode(code)
		return f, nil
	}

	f.Kind = KindResponse
	return f, readTagged(r, &f)
}

// readTagged reads the type tag and takes the rest as payload
func readTagged(r *wire.Reader, f *Frame) error {
	tag, err := r.Uint8()
	if err != nil {
		return fmt.Errorf("%w: type tag: %v", ErrMalformed, err)
	}
	f.Type = common.MessageType(tag)
	f.Payload = r.Rest()
	return nil
}
