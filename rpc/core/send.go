package core

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/frame"
	"github.com/ValentinKolb/kvmsg/rpc/transport"
)

// --------------------------------------------------------------------------
// Request API
// --------------------------------------------------------------------------

// SendRequest sends msg without expecting an answer. Delivery is best effort.
func (c *Context) SendRequest(to common.Address, msg common.Message) error {
	if c.State() == StateClosed {
		return ErrClosed
	}
	payload, err := c.serializer.Serialize(msg)
	if err != nil {
		return fmt.Errorf("core: serializing %s: %w", msg.MsgType(), err)
	}

	c.out.Reset()
	frame.EncodeRequest(c.out, false, 0, common.Address{}, msg.MsgType(), payload)
	if !c.offer(to, c.out.Bytes()) {
		Logger.Warningf("Dropping %s request to %s, channel stayed congested", msg.MsgType(), to)
	}
	return nil
}

// SendRequestHandler sends msg and registers h for the answer. h is resolved
// exactly once: by the answer, or with TIMEOUT if the frame could not be sent.
// Closing the returned resource unregisters h, a later answer is dropped.
//
// The handler is registered before the frame is sent. If sending fails under
// backpressure, the TIMEOUT is delivered through the task queue, never inline.
func (c *Context) SendRequestHandler(to common.Address, msg common.Message, h ResponseHandler) (Resource, error) {
	if c.State() == StateClosed {
		return nil, ErrClosed
	}
	payload, err := c.serializer.Serialize(msg)
	if err != nil {
		return nil, fmt.Errorf("core: serializing %s: %w", msg.MsgType(), err)
	}

	c.counter++
	id := c.counter
	c.pending.put(id, h)

	if !c.sendRequestFrame(to, c.self, id, msg.MsgType(), payload) {
		Logger.Warningf("Request %d to %s could not be sent, failing it with timeout", id, to)
		c.scheduleTimeout(id)
	}

	return ResourceFunc(func() { c.pending.remove(id) }), nil
}

// SendRequestFuture sends req and returns a future for its response. The
// future fails with common.ErrTimeout if no answer arrived within timeout; a
// timeout of zero or less waits forever.
func (c *Context) SendRequestFuture(to common.Address, req common.Request, timeout time.Duration) *Future {
	f := newFuture()
	var deadline Resource = noopResource

	registration, err := c.SendRequestHandler(to, req, ResponseFuncs{
		OnResult: func(id uint64, tag common.MessageType, payload []byte) {
			deadline.Close()
			resp, err := c.decodeResponse(req, tag, payload)
			if err != nil {
				f.fail(err)
				return
			}
			f.complete(resp)
		},
		OnError: func(id uint64, code common.ErrorCode) {
			deadline.Close()
			f.fail(common.NewCodeError(code))
		},
	})
	if err != nil {
		f.fail(err)
		return f
	}

	if timeout > 0 {
		deadline = c.SetTimeout(timeout, func() {
			registration.Close()
			f.fail(common.ErrTimeout)
		})
	}
	f.release = func() {
		registration.Close()
		deadline.Close()
	}
	return f
}

// decodeResponse allocates the response of req and decodes payload into it
func (c *Context) decodeResponse(req common.Request, tag common.MessageType, payload []byte) (common.Message, error) {
	if tag != req.MsgType() {
		return nil, &common.ResultError{
			Code: common.CodeUnexpectedError,
			Err:  fmt.Errorf("%w: got %s, want %s", common.ErrUnexpectedResponse, tag, req.MsgType()),
		}
	}
	resp := req.NewResponse()
	if err := c.serializer.Deserialize(payload, resp); err != nil {
		return nil, &common.ResultError{Code: common.CodeUnexpectedError, Err: err}
	}
	return resp, nil
}

// --------------------------------------------------------------------------
// Frame senders
// --------------------------------------------------------------------------

// sendRequestFrame sends a request that expects an answer at from. It returns
// false only if the frame could not be offered because of backpressure.
func (c *Context) sendRequestFrame(to, from common.Address, id uint64, tag common.MessageType, payload []byte) bool {
	c.out.Reset()
	frame.EncodeRequest(c.out, true, id, from, tag, payload)
	return c.offer(to, c.out.Bytes())
}

// sendResponse sends a success response, best effort
func (c *Context) sendResponse(to common.Address, id uint64, tag common.MessageType, payload []byte) {
	c.out.Reset()
	frame.EncodeResponse(c.out, id, tag, payload)
	if !c.offer(to, c.out.Bytes()) {
		Logger.Warningf("Dropping response %d to %s, channel stayed congested", id, to)
	}
}

// sendError sends an error response, best effort
func (c *Context) sendError(to common.Address, id uint64, code common.ErrorCode) {
	c.out.Reset()
	frame.EncodeError(c.out, id, code)
	if !c.offer(to, c.out.Bytes()) {
		Logger.Warningf("Dropping error %d (%s) to %s, channel stayed congested", id, code, to)
	}
}

// scheduleTimeout fails the pending request id with TIMEOUT on a later tick
func (c *Context) scheduleTimeout(id uint64) {
	if err := c.Schedule(func() { c.resolveError(id, common.CodeTimeout) }); err != nil {
		// the task queue is closed only together with the context
		c.resolveError(id, common.CodeTimeout)
	}
}

// --------------------------------------------------------------------------
// Send path
// --------------------------------------------------------------------------

// offer hands a frame to the publication of to and retries under
// backpressure, waiting with the send idle strategy, up to SendRetryMax
// times. A closed or unconnected channel counts as sent; the frame is lost
// like any datagram. The return value is false only when the retries ran out.
func (c *Context) offer(to common.Address, b []byte) bool {
	pub, err := c.publication(to)
	if err != nil {
		c.metrics.sendDropped.Inc()
		Logger.Warningf("No publication to %s: %v", to, err)
		return true
	}

	defer c.sendIdle.Reset()
	for retry := 0; ; retry++ {
		c.metrics.sendAttempts.Inc()
		switch res := pub.Offer(b); res {
		case transport.OfferBackpressure:
			if retry >= c.config.SendRetryMax {
				c.metrics.sendExhausted.Inc()
				return false
			}
			c.metrics.sendRetries.Inc()
			c.sendIdle.Idle()
		case transport.OfferAccepted:
			return true
		default:
			c.metrics.sendDropped.Inc()
			Logger.Debugf("Frame to %s dropped: %s", to, res)
			return true
		}
	}
}

// publication returns the cached publication for an address or opens one.
// Addresses on the local host use the IPC channel when there is one.
func (c *Context) publication(to common.Address) (transport.Publication, error) {
	if pub, ok := c.publications[to]; ok {
		return pub, nil
	}

	factory := c.channels.For(c.self, to)
	if factory == nil {
		return nil, fmt.Errorf("%w %s", ErrNoChannel, to)
	}
	pub, err := factory.Open(to)
	if err != nil {
		return nil, err
	}
	c.publications[to] = pub
	Logger.Debugf("Opened %s publication to %s", factory.GetName(), to)
	return pub, nil
}
