package messages

import (
	"time"

	"github.com/ValentinKolb/kvmsg/rpc/common"
	"google.golang.org/protobuf/encoding/protowire"
)

// Default replication parameters used by the constructors
const (
	DefaultN uint8 = 3
	DefaultR uint8 = 2
	DefaultW uint8 = 2
)

// DefaultListenTimeout is the wait limit of a ListenRequest created by NewListenRequest
const DefaultListenTimeout = 30 * time.Second

// Condition guards a SetRequest
type Condition uint8

const (
	// CondAlways applies the write unconditionally
	CondAlways Condition = 0
	// CondExists applies the write only if the key exists
	CondExists Condition = 1
	// CondNotExists applies the write only if the key does not exist
	CondNotExists Condition = 2
	// CondVersion applies the write only if the stored version equals SetRequest.Version
	CondVersion Condition = 3
)

func (c Condition) String() string {
	switch c {
	case CondAlways:
		return "always"
	case CondExists:
		return "exists"
	case CondNotExists:
		return "not-exists"
	case CondVersion:
		return "version"
	default:
		return "unknown"
	}
}

// Expire values with special meaning, any positive value is a lifetime in seconds
const (
	ExpireNone int32 = 0
	ExpireKeep int32 = -1
)

// --------------------------------------------------------------------------
// Get
// --------------------------------------------------------------------------

// GetRequest reads the value and version of a key
type GetRequest struct {
	N   uint8  `json:"n"`
	R   uint8  `json:"r"`
	W   uint8  `json:"w"`
	Key []byte `json:"key"`
}

// NewGetRequest creates a get request with default replication parameters
func NewGetRequest(key []byte) *GetRequest {
	return &GetRequest{N: DefaultN, R: DefaultR, W: DefaultW, Key: key}
}

func (m *GetRequest) MsgType() common.MessageType  { return common.MsgTGet }
func (m *GetRequest) NewResponse() common.Message { return &GetResponse{} }

func (m *GetRequest) AppendProto(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.N))
	b = appendVarint(b, 2, uint64(m.R))
	b = appendVarint(b, 3, uint64(m.W))
	return appendBytes(b, 4, m.Key)
}

func (m *GetRequest) UnmarshalProto(b []byte) error {
	*m = GetRequest{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return varintField(typ, b, &m.N)
		case 2:
			return varintField(typ, b, &m.R)
		case 3:
			return varintField(typ, b, &m.W)
		case 4:
			return bytesField(typ, b, &m.Key)
		}
		return 0
	})
}

// GetResponse answers a GetRequest. A missing key has version 0 and an empty value.
type GetResponse struct {
	Version int64  `json:"version"`
	Value   []byte `json:"value,omitempty"`
}

func (m *GetResponse) MsgType() common.MessageType { return common.MsgTGet }

func (m *GetResponse) AppendProto(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.Version))
	return appendBytes(b, 2, m.Value)
}

func (m *GetResponse) UnmarshalProto(b []byte) error {
	*m = GetResponse{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return varintField(typ, b, &m.Version)
		case 2:
			return bytesField(typ, b, &m.Value)
		}
		return 0
	})
}

// --------------------------------------------------------------------------
// Set
// --------------------------------------------------------------------------

// SetRequest writes a value, optionally guarded by a condition
type SetRequest struct {
	N         uint8     `json:"n"`
	R         uint8     `json:"r"`
	W         uint8     `json:"w"`
	Key       []byte    `json:"key"`
	Value     []byte    `json:"value,omitempty"`
	Condition Condition `json:"condition"`
	Version   int64     `json:"version,omitempty"`
	// Expire is the lifetime in seconds, ExpireNone clears it and ExpireKeep leaves it untouched
	Expire int32 `json:"expire,omitempty"`
}

// NewSetRequest creates an unconditional set request without expiry
func NewSetRequest(key, value []byte) *SetRequest {
	return &SetRequest{N: DefaultN, R: DefaultR, W: DefaultW, Key: key, Value: value, Condition: CondAlways}
}

// NewCompareAndSetRequest creates a set request that only applies if the stored version equals version
func NewCompareAndSetRequest(key, value []byte, version int64) *SetRequest {
	req := NewSetRequest(key, value)
	req.Condition = CondVersion
	req.Version = version
	return req
}

func (m *SetRequest) MsgType() common.MessageType  { return common.MsgTSet }
func (m *SetRequest) NewResponse() common.Message { return &SetResponse{} }

func (m *SetRequest) AppendProto(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.N))
	b = appendVarint(b, 2, uint64(m.R))
	b = appendVarint(b, 3, uint64(m.W))
	b = appendBytes(b, 4, m.Key)
	b = appendBytes(b, 5, m.Value)
	b = appendVarint(b, 6, uint64(m.Condition))
	b = appendVarint(b, 7, uint64(m.Version))
	return appendVarint(b, 8, uint64(int64(m.Expire)))
}

func (m *SetRequest) UnmarshalProto(b []byte) error {
	*m = SetRequest{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return varintField(typ, b, &m.N)
		case 2:
			return varintField(typ, b, &m.R)
		case 3:
			return varintField(typ, b, &m.W)
		case 4:
			return bytesField(typ, b, &m.Key)
		case 5:
			return bytesField(typ, b, &m.Value)
		case 6:
			return varintField(typ, b, &m.Condition)
		case 7:
			return varintField(typ, b, &m.Version)
		case 8:
			return varintField(typ, b, &m.Expire)
		}
		return 0
	})
}

// SetResponse answers a SetRequest. If the condition did not hold, Status is
// false and Version is the stored version, otherwise Version is the new version.
type SetResponse struct {
	Status  bool  `json:"status"`
	Version int64 `json:"version"`
}

func (m *SetResponse) MsgType() common.MessageType { return common.MsgTSet }

func (m *SetResponse) AppendProto(b []byte) []byte {
	b = appendBool(b, 1, m.Status)
	return appendVarint(b, 2, uint64(m.Version))
}

func (m *SetResponse) UnmarshalProto(b []byte) error {
	*m = SetResponse{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return boolField(typ, b, &m.Status)
		case 2:
			return varintField(typ, b, &m.Version)
		}
		return 0
	})
}

// --------------------------------------------------------------------------
// Listen
// --------------------------------------------------------------------------

// ListenRequest waits until the version of a key exceeds Version. The server
// answers with the TIMEOUT error code once TimeoutMs elapsed.
type ListenRequest struct {
	N         uint8  `json:"n"`
	W         uint8  `json:"w"`
	Version   int64  `json:"version"`
	TimeoutMs int32  `json:"timeoutMs"`
	Key       []byte `json:"key"`
}

// NewListenRequest creates a listen request with default replication parameters and timeout
func NewListenRequest(key []byte, version int64) *ListenRequest {
	return &ListenRequest{
		N:         DefaultN,
		W:         DefaultW,
		Version:   version,
		TimeoutMs: int32(DefaultListenTimeout / time.Millisecond),
		Key:       key,
	}
}

// Timeout returns the wait limit as a duration
func (m *ListenRequest) Timeout() time.Duration {
	return time.Duration(m.TimeoutMs) * time.Millisecond
}

// SetTimeout sets the wait limit, rounded down to milliseconds
func (m *ListenRequest) SetTimeout(d time.Duration) *ListenRequest {
	m.TimeoutMs = int32(d / time.Millisecond)
	return m
}

func (m *ListenRequest) MsgType() common.MessageType  { return common.MsgTListen }
func (m *ListenRequest) NewResponse() common.Message { return &ListenResponse{} }

func (m *ListenRequest) AppendProto(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.N))
	b = appendVarint(b, 2, uint64(m.W))
	b = appendVarint(b, 3, uint64(m.Version))
	b = appendVarint(b, 4, uint64(int64(m.TimeoutMs)))
	return appendBytes(b, 5, m.Key)
}

func (m *ListenRequest) UnmarshalProto(b []byte) error {
	*m = ListenRequest{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return varintField(typ, b, &m.N)
		case 2:
			return varintField(typ, b, &m.W)
		case 3:
			return varintField(typ, b, &m.Version)
		case 4:
			return varintField(typ, b, &m.TimeoutMs)
		case 5:
			return bytesField(typ, b, &m.Key)
		}
		return 0
	})
}

// ListenResponse carries the state of the key after its version moved past the awaited one
type ListenResponse struct {
	Version int64  `json:"version"`
	Value   []byte `json:"value,omitempty"`
}

func (m *ListenResponse) MsgType() common.MessageType { return common.MsgTListen }

func (m *ListenResponse) AppendProto(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.Version))
	return appendBytes(b, 2, m.Value)
}

func (m *ListenResponse) UnmarshalProto(b []byte) error {
	*m = ListenResponse{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return varintField(typ, b, &m.Version)
		case 2:
			return bytesField(typ, b, &m.Value)
		}
		return 0
	})
}

// --------------------------------------------------------------------------
// GetVersion
// --------------------------------------------------------------------------

// GetVersionRequest reads only the version of a key
type GetVersionRequest struct {
	N   uint8  `json:"n"`
	R   uint8  `json:"r"`
	W   uint8  `json:"w"`
	Key []byte `json:"key"`
}

// NewGetVersionRequest creates a version request with default replication parameters
func NewGetVersionRequest(key []byte) *GetVersionRequest {
	return &GetVersionRequest{N: DefaultN, R: DefaultR, W: DefaultW, Key: key}
}

func (m *GetVersionRequest) MsgType() common.MessageType  { return common.MsgTGetVersion }
func (m *GetVersionRequest) NewResponse() common.Message { return &GetVersionResponse{} }

func (m *GetVersionRequest) AppendProto(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.N))
	b = appendVarint(b, 2, uint64(m.R))
	b = appendVarint(b, 3, uint64(m.W))
	return appendBytes(b, 4, m.Key)
}

func (m *GetVersionRequest) UnmarshalProto(b []byte) error {
	*m = GetVersionRequest{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return varintField(typ, b, &m.N)
		case 2:
			return varintField(typ, b, &m.R)
		case 3:
			return varintField(typ, b, &m.W)
		case 4:
			return bytesField(typ, b, &m.Key)
		}
		return 0
	})
}

// GetVersionResponse answers a GetVersionRequest
type GetVersionResponse struct {
	Version int64 `json:"version"`
}

func (m *GetVersionResponse) MsgType() common.MessageType { return common.MsgTGetVersion }

func (m *GetVersionResponse) AppendProto(b []byte) []byte {
	return appendVarint(b, 1, uint64(m.Version))
}

func (m *GetVersionResponse) UnmarshalProto(b []byte) error {
	*m = GetVersionResponse{}
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num == 1 {
			return varintField(typ, b, &m.Version)
		}
		return 0
	})
}
