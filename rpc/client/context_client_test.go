package client

import (
	"context"
	"testing"
	"time"

	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/core"
	"github.com/ValentinKolb/kvmsg/rpc/messages"
	"github.com/ValentinKolb/kvmsg/rpc/serializer"
	"github.com/ValentinKolb/kvmsg/rpc/transport/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type clientEnv struct {
	clock        *testClock
	server, self *core.Context
	client       *ContextClient
	serverAddr   common.Address
}

// newClientEnv creates a server context that echoes the key of a GetRequest
// and a client balancing over that single server
func newClientEnv(t *testing.T) *clientEnv {
	t.Helper()
	hub := memory.NewHub()
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	env := &clientEnv{clock: clock, serverAddr: common.MustAddress("10.0.0.1", 6000)}

	var err error
	env.server, err = core.New(env.serverAddr, common.ContextConfig{}, hub.Channels(),
		serializer.NewProtoSerializer(), core.WithClock(clock.Now))
	require.NoError(t, err)
	require.NoError(t, env.server.RegisterFunc(common.MsgTGet, func(req *core.InboundRequest) error {
		var get messages.GetRequest
		if err := req.Decode(&get); err != nil {
			return err
		}
		return req.Respond(&messages.GetResponse{Version: 1, Value: get.Key})
	}))

	env.self, err = core.New(common.MustAddress("10.0.0.2", 6000), common.ContextConfig{}, hub.Channels(),
		serializer.NewProtoSerializer(), core.WithClock(clock.Now))
	require.NoError(t, err)

	env.client, err = NewContextClient(env.self, []common.Address{env.serverAddr})
	require.NoError(t, err)
	return env
}

func (e *clientEnv) pump() {
	for round := 0; round < 100; round++ {
		if e.server.Tick(context.Background())+e.self.Tick(context.Background()) == 0 {
			return
		}
	}
}

func TestContextClientRequest(t *testing.T) {
	env := newClientEnv(t)

	f := env.client.Request(messages.NewGetRequest([]byte("k")), time.Second)
	assert.Equal(t, 1, env.client.Outstanding())
	env.pump()

	resp, err := core.Await[*messages.GetResponse](context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, []byte("k"), resp.Value)
	assert.Equal(t, 0, env.client.Outstanding())
}

func TestContextClientCallbacks(t *testing.T) {
	env := newClientEnv(t)

	var values [][]byte
	var failures []error
	ok := func(msg common.Message) { values = append(values, msg.(*messages.GetResponse).Value) }
	fail := func(err error) { failures = append(failures, err) }

	env.client.RequestCallback(messages.NewGetRequest([]byte("a")), time.Second, ok, fail)
	env.pump()
	require.Equal(t, [][]byte{[]byte("a")}, values)
	require.Empty(t, failures)

	// an unregistered type is dropped by the server, the request times out
	env.client.RequestCallback(messages.NewGetVersionRequest([]byte("b")), time.Second, ok, fail)
	env.pump()
	env.clock.Advance(2 * time.Second)
	env.pump()

	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], common.ErrTimeout)
	assert.Len(t, values, 1)
	assert.Equal(t, 0, env.client.Outstanding())
}

func TestContextClientSetTimeout(t *testing.T) {
	env := newClientEnv(t)

	fired := 0
	env.client.SetTimeout(10*time.Millisecond, func() { fired++ })
	assert.Equal(t, 1, env.client.Outstanding())

	env.clock.Advance(10 * time.Millisecond)
	env.pump()
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, env.client.Outstanding())
}

func TestContextClientClose(t *testing.T) {
	env := newClientEnv(t)

	fired := 0
	f := env.client.Request(messages.NewGetRequest([]byte("k")), time.Second)
	env.client.SetTimeout(10*time.Millisecond, func() { fired++ })
	require.Equal(t, 2, env.client.Outstanding())

	env.client.Close()
	assert.Equal(t, 0, env.client.Outstanding())
	assert.Equal(t, 0, env.self.PendingCount())

	env.clock.Advance(time.Second)
	env.pump()

	_, err := f.Result()
	assert.ErrorIs(t, err, core.ErrCancelled)
	assert.Equal(t, 0, fired)
}
