/*
Package core implements the messaging context: the request/response engine
every client and server of kvmsg is built on.

A Context owns a local address, the channels to other endpoints (see package
transport), a serializer for payloads, the registered request handlers, the
table of outbound requests waiting for an answer, a pool of inbound requests
waiting to be answered, timers and a task queue.

Everything runs on one goroutine. The EventLoop calls Tick, which fires due
timers, runs scheduled tasks and polls the subscriptions. Handlers, response
callbacks and tasks must therefore never block; work that waits parks the
request and answers it later. Other goroutines talk to a context only through
Schedule, and read results through a Future.

Outbound:

	f := ctx.SendRequestFuture(peer, messages.NewGetRequest(key), time.Second)
	resp, err := core.Await[*messages.GetResponse](goCtx, f)

Inbound:

	ctx.RegisterFunc(common.MsgTGet, func(req *core.InboundRequest) error {
		var get messages.GetRequest
		if err := req.Decode(&get); err != nil {
			return err
		}
		return req.Respond(&messages.GetResponse{...})
	})

Every outbound request is resolved exactly once: by the answer, by an error
code, or with TIMEOUT. Every inbound request is answered exactly once: by the
handler, or with TIMEOUT when it is cancelled after RequestTimeout or evicted
from a full pool.
*/
package core
