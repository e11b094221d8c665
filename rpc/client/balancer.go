package client

import (
	"errors"

	"github.com/ValentinKolb/kvmsg/rpc/common"
)

// ErrNoEndpoints is returned when a balancer is created without addresses
var ErrNoEndpoints = errors.New("client: no endpoints")

// EndpointBalancer hands out a fixed list of endpoints in round robin order.
// It is not safe for concurrent use, it belongs to the control goroutine.
type EndpointBalancer struct {
	endpoints []common.Address
	cursor    int
}

// NewEndpointBalancer creates a balancer over endpoints, which must not be empty
func NewEndpointBalancer(endpoints []common.Address) (*EndpointBalancer, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	return &EndpointBalancer{endpoints: append([]common.Address(nil), endpoints...)}, nil
}

// Next returns the endpoint under the cursor and advances it
func (b *EndpointBalancer) Next() common.Address {
	a := b.endpoints[b.cursor]
	b.cursor = (b.cursor + 1) % len(b.endpoints)
	return a
}

// Endpoints returns a copy of the endpoint list
func (b *EndpointBalancer) Endpoints() []common.Address {
	return append([]common.Address(nil), b.endpoints...)
}
