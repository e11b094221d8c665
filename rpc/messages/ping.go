package messages

import (
	"time"

	"github.com/ValentinKolb/kvmsg/rpc/common"
	"google.golang.org/protobuf/encoding/protowire"
)

// PingRequest is echoed back by every server. SentAt lets the caller measure
// the round trip without keeping state.
type PingRequest struct {
	SentAt  int64  `json:"sentAt"`
	Payload []byte `json:"payload,omitempty"`
}

// NewPingRequest creates a ping stamped with now
func NewPingRequest(now time.Time, payload []byte) *PingRequest {
	return &PingRequest{SentAt: now.UnixNano(), Payload: payload}
}

func (m *PingRequest) MsgType() common.MessageType  { return common.MsgTPing }
func (m *PingRequest) NewResponse() common.Message { return &PingResponse{} }

func (m *PingRequest) AppendProto(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.SentAt))
	return appendBytes(b, 2, m.Payload)
}

func (m *PingRequest) UnmarshalProto(b []byte) error {
	*m = PingRequest{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return varintField(typ, b, &m.SentAt)
		case 2:
			return bytesField(typ, b, &m.Payload)
		}
		return 0
	})
}

// PingResponse echoes the fields of the ping
type PingResponse struct {
	SentAt  int64  `json:"sentAt"`
	Payload []byte `json:"payload,omitempty"`
}

// RoundTrip returns the time since the ping was sent
func (m *PingResponse) RoundTrip(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, m.SentAt))
}

func (m *PingResponse) MsgType() common.MessageType { return common.MsgTPing }

func (m *PingResponse) AppendProto(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.SentAt))
	return appendBytes(b, 2, m.Payload)
}

func (m *PingResponse) UnmarshalProto(b []byte) error {
	*m = PingResponse{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return varintField(typ, b, &m.SentAt)
		case 2:
			return bytesField(typ, b, &m.Payload)
		}
		return 0
	})
}
