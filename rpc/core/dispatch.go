package core

import (
	"fmt"

	"github.com/ValentinKolb/kvmsg/lib/timer"
	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/frame"
)

// HandleFrame processes one received frame. Frames that cannot be decoded,
// requests without a handler and responses nobody waits for are dropped.
// The frame is only read during the call.
func (c *Context) HandleFrame(b []byte) {
	c.metrics.framesReceived.Inc()

	f, err := frame.Decode(b)
	if err != nil {
		c.metrics.framesMalformed.Inc()
		Logger.Debugf("Dropping frame of %d bytes: %v", len(b), err)
		return
	}

	switch f.Kind {
	case frame.KindRequest, frame.KindFireAndForget:
		c.handleRequest(&f)
	case frame.KindResponse:
		if h, ok := c.takePending(f.ID); ok {
			c.invokeResult(h, f.ID, f.Type, f.Payload)
		}
	case frame.KindError:
		if h, ok := c.takePending(f.ID); ok {
			c.invokeError(h, f.ID, f.Code)
		}
	}
}

// handleRequest puts a request into the pool and runs its handler. Requests
// are accepted while the context is closing, only outbound work stops.
func (c *Context) handleRequest(f *frame.Frame) {
	h, ok := c.handlers[f.Type]
	if !ok {
		c.metrics.framesUnknown.Inc()
		Logger.Debugf("Dropping request %d of type %s from %s: no handler", f.ID, f.Type, f.From)
		return
	}
	c.metrics.requestsReceived.Inc()

	req := &InboundRequest{
		ctx:          c,
		from:         f.From,
		id:           f.ID,
		tag:          f.Type,
		needResponse: f.Kind == frame.KindRequest,
		payload:      f.Payload,
		state:        RequestActive,
	}

	evictions := c.requests.Evictions()
	req.index = c.requests.Put(req)
	if c.requests.Evictions() != evictions {
		c.metrics.requestsEvicted.Inc()
	}

	req.timeout = c.timers.Run(c.config.RequestTimeout, "request", func(*timer.Timer) (bool, error) {
		req.Cancel()
		return true, nil
	})

	err := c.invokeHandler(h, req)
	req.release()
	if err == nil {
		return
	}

	c.metrics.requestsFailed.Inc()
	if req.Active() {
		Logger.Debugf("Handler of %s failed: %v", req, err)
		_ = req.FailWith(err)
	} else {
		Logger.Warningf("Handler of %s failed after answering: %v", req, err)
	}
}

// invokeHandler runs a handler, a panic becomes an UNEXPECTED_ERROR
func (c *Context) invokeHandler(h RequestHandler, req *InboundRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("Handler of %s panicked: %v", req, r)
			err = &common.ResultError{Code: common.CodeUnexpectedError, Err: fmt.Errorf("handler panic: %v", r)}
		}
	}()
	return h.Handle(req)
}

// --------------------------------------------------------------------------
// Outbound resolution
// --------------------------------------------------------------------------

// takePending removes the handler of id, a miss means the answer came too late
func (c *Context) takePending(id uint64) (ResponseHandler, bool) {
	h, ok := c.pending.take(id)
	if !ok {
		c.metrics.framesLate.Inc()
		Logger.Debugf("Dropping answer to request %d: nobody waits for it", id)
	}
	return h, ok
}

// resolveError fails the pending request id with code, if it is still pending
func (c *Context) resolveError(id uint64, code common.ErrorCode) {
	if h, ok := c.pending.take(id); ok {
		c.invokeError(h, id, code)
	}
}

func (c *Context) invokeResult(h ResponseHandler, id uint64, tag common.MessageType, payload []byte) {
	defer c.recoverCallback(id)
	h.HandleResult(id, tag, payload)
}

func (c *Context) invokeError(h ResponseHandler, id uint64, code common.ErrorCode) {
	defer c.recoverCallback(id)
	h.HandleError(id, code)
}

func (c *Context) recoverCallback(id uint64) {
	if r := recover(); r != nil {
		Logger.Errorf("Response handler of request %d panicked: %v", id, r)
	}
}
