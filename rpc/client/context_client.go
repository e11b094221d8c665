package client

import (
	"time"

	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/core"
)

// ContextClient sends requests to a set of servers through a messaging
// context. Every request and timer made through it is tracked, so Close
// cancels whatever is still outstanding.
//
// Thread-safety: none. A client belongs to the control goroutine of its context.
type ContextClient struct {
	ctx       *core.Context
	balancer  *EndpointBalancer
	resources core.ResourceList
}

// NewContextClient creates a client that balances over endpoints
func NewContextClient(ctx *core.Context, endpoints []common.Address) (*ContextClient, error) {
	balancer, err := NewEndpointBalancer(endpoints)
	if err != nil {
		return nil, err
	}
	return &ContextClient{ctx: ctx, balancer: balancer}, nil
}

// Request sends req to the next endpoint. The future fails with
// common.ErrTimeout when no answer arrived within timeout.
func (c *ContextClient) Request(req common.Request, timeout time.Duration) *core.Future {
	f := c.ctx.SendRequestFuture(c.balancer.Next(), req, timeout)
	id := c.resources.Add(f)
	f.OnComplete(func(common.Message, error) { c.resources.Remove(id) })
	return f
}

// RequestCallback sends req and calls exactly one of the callbacks with the outcome
func (c *ContextClient) RequestCallback(req common.Request, timeout time.Duration, ok func(common.Message), fail func(error)) {
	c.Request(req, timeout).OnComplete(func(msg common.Message, err error) {
		if err != nil {
			fail(err)
			return
		}
		ok(msg)
	})
}

// SetTimeout runs fn once after d, unless the client was closed before
func (c *ContextClient) SetTimeout(d time.Duration, fn func()) core.Resource {
	var id core.ResourceID
	timer := c.ctx.SetTimeout(d, func() {
		c.resources.Remove(id)
		fn()
	})
	id = c.resources.Add(timer)
	return timer
}

// Outstanding returns the number of requests and timers not finished yet
func (c *ContextClient) Outstanding() int { return c.resources.Len() }

// Close cancels every outstanding request and timer
func (c *ContextClient) Close() {
	c.resources.Close()
}
