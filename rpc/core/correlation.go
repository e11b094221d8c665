package core

import "github.com/ValentinKolb/kvmsg/rpc/common"

// ResponseHandler receives the outcome of an outbound request. Exactly one of
// the methods is called, at most once.
type ResponseHandler interface {
	// HandleResult is called with the payload of a success response. The
	// payload is only valid during the call.
	HandleResult(id uint64, tag common.MessageType, payload []byte)
	// HandleError is called with the code of an error response
	HandleError(id uint64, code common.ErrorCode)
}

// ResponseFuncs adapts two functions to the ResponseHandler interface. A nil
// function ignores the outcome.
type ResponseFuncs struct {
	OnResult func(id uint64, tag common.MessageType, payload []byte)
	OnError  func(id uint64, code common.ErrorCode)
}

func (f ResponseFuncs) HandleResult(id uint64, tag common.MessageType, payload []byte) {
	if f.OnResult != nil {
		f.OnResult(id, tag, payload)
	}
}

func (f ResponseFuncs) HandleError(id uint64, code common.ErrorCode) {
	if f.OnError != nil {
		f.OnError(id, code)
	}
}

// correlationKey splits a 64 bit correlation id into its two halves
type correlationKey struct {
	hi, lo uint32
}

func keyOf(id uint64) correlationKey {
	return correlationKey{hi: uint32(id >> 32), lo: uint32(id)}
}

func (k correlationKey) id() uint64 {
	return uint64(k.hi)<<32 | uint64(k.lo)
}

// correlationTable maps the ids of sent, unresolved requests to their handlers
type correlationTable struct {
	entries map[correlationKey]ResponseHandler
}

func newCorrelationTable() *correlationTable {
	return &correlationTable{entries: make(map[correlationKey]ResponseHandler)}
}

func (t *correlationTable) put(id uint64, h ResponseHandler) {
	t.entries[keyOf(id)] = h
}

func (t *correlationTable) get(id uint64) (ResponseHandler, bool) {
	h, ok := t.entries[keyOf(id)]
	return h, ok
}

// take removes and returns the handler of id. Resolving always goes through
// take, so a handler can only be resolved once.
func (t *correlationTable) take(id uint64) (ResponseHandler, bool) {
	k := keyOf(id)
	h, ok := t.entries[k]
	if ok {
		delete(t.entries, k)
	}
	return h, ok
}

func (t *correlationTable) remove(id uint64) {
	delete(t.entries, keyOf(id))
}

func (t *correlationTable) len() int { return len(t.entries) }

func (t *correlationTable) isEmpty() bool { return len(t.entries) == 0 }

// ids returns all registered ids
func (t *correlationTable) ids() []uint64 {
	ids := make([]uint64, 0, len(t.entries))
	for k := range t.entries {
		ids = append(ids, k.id())
	}
	return ids
}
