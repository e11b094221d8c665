package server

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/kvmsg/lib/store"
	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/core"
	"github.com/ValentinKolb/kvmsg/rpc/messages"
)

// NewStoreServerAdapter creates the adapter that serves Get, Set, GetVersion
// and Listen requests from s
func NewStoreServerAdapter(s store.IVersionedStore) IRPCServerAdapter {
	return &storeServerAdapterImpl{
		store:     s,
		listeners: make(map[string]map[*core.InboundRequest]int64),
	}
}

// storeServerAdapterImpl keeps the parked listen requests per key, together
// with the version each of them waits to be exceeded
type storeServerAdapterImpl struct {
	store     store.IVersionedStore
	listeners map[string]map[*core.InboundRequest]int64
}

func (adapter *storeServerAdapterImpl) GetName() string { return "store" }

func (adapter *storeServerAdapterImpl) Register(ctx *core.Context) error {
	if adapter.store == nil {
		return fmt.Errorf("store adapter: store is nil")
	}
	handlers := []struct {
		tag common.MessageType
		fn  core.HandlerFunc
	}{
		{common.MsgTGet, adapter.handleGet},
		{common.MsgTSet, adapter.handleSet},
		{common.MsgTGetVersion, adapter.handleGetVersion},
		{common.MsgTListen, adapter.handleListen},
	}
	for _, h := range handlers {
		if err := ctx.Register(h.tag, h.fn); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

func (adapter *storeServerAdapterImpl) handleGet(req *core.InboundRequest) error {
	var get messages.GetRequest
	if err := req.Decode(&get); err != nil {
		return err
	}
	if len(get.Key) == 0 {
		return common.IllegalArgument("empty key")
	}

	value, version, err := adapter.store.Get(string(get.Key))
	if err != nil {
		return storeError(err)
	}
	return req.Respond(&messages.GetResponse{Version: version, Value: value})
}

func (adapter *storeServerAdapterImpl) handleSet(req *core.InboundRequest) error {
	var set messages.SetRequest
	if err := req.Decode(&set); err != nil {
		return err
	}
	if len(set.Key) == 0 {
		return common.IllegalArgument("empty key")
	}

	key := string(set.Key)
	res, err := adapter.store.Set(key, set.Value, store.Condition(set.Condition), set.Version, set.Expire)
	if err != nil {
		return storeError(err)
	}
	if err := req.Respond(&messages.SetResponse{Status: res.Applied, Version: res.Version}); err != nil {
		return err
	}
	if res.Applied {
		adapter.notify(key, res.Version, set.Value)
	}
	return nil
}

func (adapter *storeServerAdapterImpl) handleGetVersion(req *core.InboundRequest) error {
	var get messages.GetVersionRequest
	if err := req.Decode(&get); err != nil {
		return err
	}
	if len(get.Key) == 0 {
		return common.IllegalArgument("empty key")
	}

	version, err := adapter.store.GetVersion(string(get.Key))
	if err != nil {
		return storeError(err)
	}
	return req.Respond(&messages.GetVersionResponse{Version: version})
}

// handleListen answers right away if the key is past the awaited version.
// Otherwise the request is parked until a write moves the version past it, or
// until its timeout cancels it with TIMEOUT.
func (adapter *storeServerAdapterImpl) handleListen(req *core.InboundRequest) error {
	var listen messages.ListenRequest
	if err := req.Decode(&listen); err != nil {
		return err
	}
	if len(listen.Key) == 0 {
		return common.IllegalArgument("empty key")
	}

	key := string(listen.Key)
	value, version, err := adapter.store.Get(key)
	if err != nil {
		return storeError(err)
	}
	if version > listen.Version {
		return req.Respond(&messages.ListenResponse{Version: version, Value: value})
	}

	timeout := listen.Timeout()
	if timeout <= 0 {
		timeout = messages.DefaultListenTimeout
	}
	req.ExtendTimeout(timeout)
	adapter.park(key, req, listen.Version)
	req.Bind(core.ResourceFunc(func() { adapter.unpark(key, req) }))
	return nil
}

// --------------------------------------------------------------------------
// Listeners
// --------------------------------------------------------------------------

func (adapter *storeServerAdapterImpl) park(key string, req *core.InboundRequest, version int64) {
	waiting, ok := adapter.listeners[key]
	if !ok {
		waiting = make(map[*core.InboundRequest]int64)
		adapter.listeners[key] = waiting
	}
	waiting[req] = version
}

func (adapter *storeServerAdapterImpl) unpark(key string, req *core.InboundRequest) {
	waiting, ok := adapter.listeners[key]
	if !ok {
		return
	}
	delete(waiting, req)
	if len(waiting) == 0 {
		delete(adapter.listeners, key)
	}
}

// notify answers every listener of key that waits for a version below version
func (adapter *storeServerAdapterImpl) notify(key string, version int64, value []byte) {
	for req, awaited := range adapter.listeners[key] {
		if version <= awaited {
			continue
		}
		// answering unparks the request through its bound resource
		if err := req.Respond(&messages.ListenResponse{Version: version, Value: value}); err != nil {
			Logger.Warningf("Answering listener %s failed: %v", req, err)
		}
	}
}

// waiting returns the number of parked listen requests
func (adapter *storeServerAdapterImpl) waiting() int {
	n := 0
	for _, w := range adapter.listeners {
		n += len(w)
	}
	return n
}

// storeError maps store failures onto the error codes of the protocol
func storeError(err error) error {
	var storeErr *store.Error
	if errors.As(err, &storeErr) && storeErr.Code == store.RetCInvalidOperation {
		return common.IllegalArgument("%s", storeErr.Msg)
	}
	return err
}
