package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/ValentinKolb/kvmsg/rpc/common"
)

// Future is the outcome of a request sent with SendRequestFuture. It is
// resolved exactly once on the control goroutine, and can be waited for from
// any goroutine.
//
// A future fails with common.ErrTimeout when its deadline passed, with a
// *common.CodeError when the peer answered with an error code and with a
// *common.ResultError when the answer could not be processed locally.
type Future struct {
	done chan struct{}

	mu        sync.Mutex
	resolved  bool
	value     common.Message
	err       error
	callbacks []func(common.Message, error)

	// release unregisters the request, owned by the control goroutine
	release func()
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Done is closed once the future is resolved
func (f *Future) Done() <-chan struct{} { return f.done }

// Result returns the outcome. Before the future is resolved both are nil.
func (f *Future) Result() (common.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Wait blocks until the future is resolved or ctx is done. Wait must not be
// called on the control goroutine, which is the one resolving the future.
func (f *Future) Wait(ctx context.Context) (common.Message, error) {
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OnComplete registers fn to run on resolution. If the future is resolved
// already fn runs immediately.
func (f *Future) OnComplete(fn func(common.Message, error)) {
	f.mu.Lock()
	if !f.resolved {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	value, err := f.value, f.err
	f.mu.Unlock()
	fn(value, err)
}

// Cancel gives up on the answer. The future fails with ErrCancelled unless it
// is resolved already. Cancel must be called on the control goroutine.
func (f *Future) Cancel() {
	if f.release != nil {
		f.release()
		f.release = nil
	}
	f.fail(ErrCancelled)
}

// Close cancels the future, so that it can be held as a Resource
func (f *Future) Close() { f.Cancel() }

// complete resolves the future with a value, later calls are ignored
func (f *Future) complete(value common.Message) bool {
	return f.resolve(value, nil)
}

// fail resolves the future with an error, later calls are ignored
func (f *Future) fail(err error) bool {
	return f.resolve(nil, err)
}

func (f *Future) resolve(value common.Message, err error) bool {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return false
	}
	f.resolved = true
	f.value, f.err = value, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, fn := range callbacks {
		fn(value, err)
	}
	return true
}

// Await waits for f and asserts the type of the response
func Await[T common.Message](ctx context.Context, f *Future) (T, error) {
	var zero T
	msg, err := f.Wait(ctx)
	if err != nil {
		return zero, err
	}
	typed, ok := msg.(T)
	if !ok {
		return zero, &common.ResultError{
			Code: common.CodeUnexpectedError,
			Err:  fmt.Errorf("%w: %T", common.ErrUnexpectedResponse, msg),
		}
	}
	return typed, nil
}
