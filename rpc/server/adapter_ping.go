package server

import (
	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/core"
	"github.com/ValentinKolb/kvmsg/rpc/messages"
)

// NewPingServerAdapter creates the adapter that echoes ping requests
func NewPingServerAdapter() IRPCServerAdapter {
	return &pingServerAdapterImpl{}
}

type pingServerAdapterImpl struct{}

func (adapter *pingServerAdapterImpl) GetName() string { return "ping" }

func (adapter *pingServerAdapterImpl) Register(ctx *core.Context) error {
	return ctx.RegisterFunc(common.MsgTPing, func(req *core.InboundRequest) error {
		var ping messages.PingRequest
		if err := req.Decode(&ping); err != nil {
			return err
		}
		return req.Respond(&messages.PingResponse{SentAt: ping.SentAt, Payload: ping.Payload})
	})
}
