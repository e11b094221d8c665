package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Interfaces
// --------------------------------------------------------------------------

// Message is any payload that travels in a frame. The type tag selects the
// handler on the receiving side.
type Message interface {
	MsgType() MessageType
}

// Request is a message that expects an answer. NewResponse allocates the
// response value the answer payload is decoded into.
type Request interface {
	Message
	NewResponse() Message
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType is the 8 bit type tag of a frame
type MessageType uint8

const (
	MsgTGet        MessageType = 0x01
	MsgTSet        MessageType = 0x02
	MsgTListen     MessageType = 0x03
	MsgTGetVersion MessageType = 0x16
	MsgTPing       MessageType = 0x7F
)

// String returns the string representation of a MessageType
func (t MessageType) String() string {
	switch t {
	case MsgTGet:
		return "get"
	case MsgTSet:
		return "set"
	case MsgTListen:
		return "listen"
	case MsgTGetVersion:
		return "getVersion"
	case MsgTPing:
		return "ping"
	default:
		return fmt.Sprintf("0x%02x", uint8(t))
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "get":
		*t = MsgTGet
	case "set":
		*t = MsgTSet
	case "listen":
		*t = MsgTListen
	case "getVersion":
		*t = MsgTGetVersion
	case "ping":
		*t = MsgTPing
	default:
		var raw uint8
		if _, err := fmt.Sscanf(s, "0x%02x", &raw); err != nil {
			return fmt.Errorf("unknown message type: %s", s)
		}
		*t = MessageType(raw)
	}
	return nil
}
