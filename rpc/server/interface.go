package server

import (
	"github.com/ValentinKolb/kvmsg/rpc/core"
)

// IRPCServerAdapter is the interface for all RPC server adapters.
// An adapter translates the requests of one service into calls of the
// component behind it. Register installs its handlers on the context; the
// handlers run on the control goroutine of that context.
type IRPCServerAdapter interface {
	// Register installs the request handlers of the adapter
	Register(ctx *core.Context) error
	// GetName returns the name of the service, used for logging
	GetName() string
}
