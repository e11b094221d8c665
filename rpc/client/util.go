package client

import (
	"context"
	"time"

	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/core"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// invokeRPCRequest is a helper function used by the blocking clients to send requests
// with the default deadline of the store
func invokeRPCRequest[T common.Message](ctx context.Context, s *RPCStore, req common.Request) (T, error) {
	return invokeWithTimeout[T](ctx, s, req, s.timeout)
}

// invokeWithTimeout sends req from the control goroutine of the store. The
// calling goroutine waits for the answer and asserts its type.
func invokeWithTimeout[T common.Message](ctx context.Context, s *RPCStore, req common.Request, timeout time.Duration) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	futures := make(chan *core.Future, 1)

	if err := s.ctx.Schedule(func() {
		futures <- s.client.Request(req, timeout)
	}); err != nil {
		return zero, err
	}

	select {
	case f := <-futures:
		return core.Await[T](ctx, f)
	case <-s.done:
		return zero, core.ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
