package core

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/kvmsg/lib/timer"
	"github.com/ValentinKolb/kvmsg/rpc/common"
)

// RequestHandler processes the inbound requests of one type tag.
//
// Handle runs on the control goroutine and must not block. It either answers
// the request before returning (Respond, Fail, Redirect, Complete) or keeps the
// request and answers it later from a timer, a task or a response callback. A
// returned error answers a still active request with the code of the error,
// see common.CodeOf.
type RequestHandler interface {
	Handle(req *InboundRequest) error
}

// HandlerFunc adapts a function to the RequestHandler interface
type HandlerFunc func(req *InboundRequest) error

func (f HandlerFunc) Handle(req *InboundRequest) error { return f(req) }

// InboundRequest is a received request. It occupies a slot of the request
// pool from reception until it is answered, redirected, completed or cancelled.
// Without an answer it is cancelled after RequestTimeout, and the requester
// receives TIMEOUT.
type InboundRequest struct {
	ctx          *Context
	from         common.Address
	id           uint64
	tag          common.MessageType
	needResponse bool
	payload      []byte
	released     bool

	index     int
	timeout   *timer.Timer
	state     RequestState
	resources ResourceList
}

// From returns the address the answer goes to
func (r *InboundRequest) From() common.Address { return r.from }

// ID returns the correlation id chosen by the requester
func (r *InboundRequest) ID() uint64 { return r.id }

// Type returns the type tag of the request
func (r *InboundRequest) Type() common.MessageType { return r.tag }

// NeedsResponse is false for fire-and-forget requests, answers to them are dropped
func (r *InboundRequest) NeedsResponse() bool { return r.needResponse }

// State returns the lifecycle state
func (r *InboundRequest) State() RequestState { return r.state }

// Active reports whether the request still waits for an answer
func (r *InboundRequest) Active() bool { return r.state == RequestActive }

// Payload returns the raw payload. It is only valid during Handle.
func (r *InboundRequest) Payload() []byte { return r.payload }

// Decode deserializes the payload into msg. It is only valid during Handle,
// and its errors map to CodeIllegalArgument.
func (r *InboundRequest) Decode(msg common.Message) error {
	if r.released {
		return common.IllegalArgument("payload of %s request %d is no longer available", r.tag, r.id)
	}
	if err := r.ctx.serializer.Deserialize(r.payload, msg); err != nil {
		return common.IllegalArgument("decoding %s request: %v", r.tag, err)
	}
	return nil
}

// Bind ties a resource to the request, it is closed when the request ends
func (r *InboundRequest) Bind(res Resource) {
	if !r.Active() {
		res.Close()
		return
	}
	r.resources.Add(res)
}

// ExtendTimeout restarts the request timeout with the duration d
func (r *InboundRequest) ExtendTimeout(d time.Duration) {
	if !r.Active() || r.timeout == nil {
		return
	}
	r.timeout.SetPeriod(d)
	r.timeout.Restart()
}

// --------------------------------------------------------------------------
// Answers
// --------------------------------------------------------------------------

// Respond sends msg as the success answer. If msg cannot be serialized the
// requester receives UNEXPECTED_ERROR instead.
func (r *InboundRequest) Respond(msg common.Message) error {
	if !r.Active() {
		return fmt.Errorf("%w: %s request %d is %s", ErrRequestDone, r.tag, r.id, r.state)
	}
	payload, err := r.ctx.serializer.Serialize(msg)
	if err != nil {
		r.Fail(common.CodeUnexpectedError)
		return fmt.Errorf("core: serializing %s response: %w", msg.MsgType(), err)
	}
	if r.needResponse {
		r.ctx.sendResponse(r.from, r.id, msg.MsgType(), payload)
	}
	r.finish(RequestResponseSent)
	return nil
}

// Fail answers with an error code
func (r *InboundRequest) Fail(code common.ErrorCode) error {
	if !r.Active() {
		return fmt.Errorf("%w: %s request %d is %s", ErrRequestDone, r.tag, r.id, r.state)
	}
	if r.needResponse {
		r.ctx.sendError(r.from, r.id, code)
	}
	r.finish(RequestErrorSent)
	return nil
}

// FailWith answers with the code err maps to
func (r *InboundRequest) FailWith(err error) error {
	return r.Fail(common.CodeOf(err))
}

// Complete ends the request without sending anything
func (r *InboundRequest) Complete() {
	if r.Active() {
		r.finish(RequestCompleted)
	}
}

// Redirect forwards the request to another endpoint as msg. The id and the
// sender stay the same, so the other endpoint answers the requester directly.
// If the frame cannot be sent the requester receives TIMEOUT.
func (r *InboundRequest) Redirect(to common.Address, msg common.Message) error {
	if !r.Active() {
		return fmt.Errorf("%w: %s request %d is %s", ErrRequestDone, r.tag, r.id, r.state)
	}
	if !r.needResponse {
		if err := r.ctx.SendRequest(to, msg); err != nil {
			return err
		}
		r.finish(RequestRedirected)
		return nil
	}

	payload, err := r.ctx.serializer.Serialize(msg)
	if err != nil {
		r.Fail(common.CodeUnexpectedError)
		return fmt.Errorf("core: serializing redirected %s: %w", msg.MsgType(), err)
	}
	if !r.ctx.sendRequestFrame(to, r.from, r.id, msg.MsgType(), payload) {
		Logger.Warningf("Redirect of request %d to %s failed, answering %s with timeout", r.id, to, r.from)
		r.ctx.sendError(r.from, r.id, common.CodeTimeout)
	}
	r.finish(RequestRedirected)
	return nil
}

// Cancel answers with TIMEOUT. The pool calls it when the request is evicted,
// the request timer when no answer was given in time.
func (r *InboundRequest) Cancel() {
	if !r.Active() {
		return
	}
	r.ctx.metrics.requestsCancelled.Inc()
	Logger.Debugf("Cancelling %s request %d from %s", r.tag, r.id, r.from)
	if r.needResponse {
		r.ctx.sendError(r.from, r.id, common.CodeTimeout)
	}
	r.finish(RequestCancelled)
}

// finish releases everything the request holds, including its pool slot
func (r *InboundRequest) finish(state RequestState) {
	r.state = state
	r.release()
	if r.timeout != nil {
		r.timeout.Stop()
	}
	r.resources.Close()
	r.ctx.requests.Complete(r.index, r)
}

// release drops the payload, which aliases a receive buffer
func (r *InboundRequest) release() {
	r.payload = nil
	r.released = true
}

func (r *InboundRequest) String() string {
	return fmt.Sprintf("%s request %d from %s (%s)", r.tag, r.id, r.from, r.state)
}
