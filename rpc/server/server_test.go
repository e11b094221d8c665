package server

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ValentinKolb/kvmsg/lib/store/lstore"
	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/core"
	"github.com/ValentinKolb/kvmsg/rpc/messages"
	"github.com/ValentinKolb/kvmsg/rpc/serializer"
	"github.com/ValentinKolb/kvmsg/rpc/transport/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

type testEnv struct {
	t      *testing.T
	clock  *testClock
	server *RPCServer
	client *core.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	hub := memory.NewHub()
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	kv := lstore.NewLocalStore(&lstore.Options{Clock: clock.Now, GCInterval: -1})
	t.Cleanup(func() { _ = kv.Close() })

	srv, err := NewRPCServer(common.ServerConfig{Endpoint: "10.0.0.1:7000"}, hub.Channels(),
		serializer.NewProtoSerializer(), kv, core.WithClock(clock.Now))
	require.NoError(t, err)

	client, err := core.New(common.MustAddress("10.0.0.2", 7000), common.ContextConfig{}, hub.Channels(),
		serializer.NewProtoSerializer(), core.WithClock(clock.Now))
	require.NoError(t, err)

	return &testEnv{t: t, clock: clock, server: srv, client: client}
}

func (e *testEnv) pump() {
	for round := 0; round < 100; round++ {
		if e.server.Context().Tick(context.Background())+e.client.Tick(context.Background()) == 0 {
			return
		}
	}
}

// call sends req and returns the answer after pumping both contexts
func call[T common.Message](e *testEnv, req common.Request) (T, error) {
	f := e.client.SendRequestFuture(e.server.Address(), req, time.Second)
	e.pump()
	return core.Await[T](context.Background(), f)
}

func requireCode(t *testing.T, err error, code common.ErrorCode) {
	t.Helper()
	var codeErr *common.CodeError
	require.True(t, errors.As(err, &codeErr), "expected a CodeError, got %v", err)
	assert.Equal(t, code, codeErr.Code)
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestSetAndGet(t *testing.T) {
	env := newTestEnv(t)

	got, err := call[*messages.GetResponse](env, messages.NewGetRequest([]byte("k")))
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.Version)
	assert.Empty(t, got.Value)

	set, err := call[*messages.SetResponse](env, messages.NewSetRequest([]byte("k"), []byte("v1")))
	require.NoError(t, err)
	assert.True(t, set.Status)

	got, err = call[*messages.GetResponse](env, messages.NewGetRequest([]byte("k")))
	require.NoError(t, err)
	assert.Equal(t, set.Version, got.Version)
	assert.Equal(t, []byte("v1"), got.Value)

	version, err := call[*messages.GetVersionResponse](env, messages.NewGetVersionRequest([]byte("k")))
	require.NoError(t, err)
	assert.Equal(t, set.Version, version.Version)
}

func TestCompareAndSet(t *testing.T) {
	env := newTestEnv(t)

	first, err := call[*messages.SetResponse](env, messages.NewCompareAndSetRequest([]byte("k"), []byte("a"), 0))
	require.NoError(t, err)
	require.True(t, first.Status)

	stale, err := call[*messages.SetResponse](env, messages.NewCompareAndSetRequest([]byte("k"), []byte("b"), 0))
	require.NoError(t, err)
	assert.False(t, stale.Status)
	assert.Equal(t, first.Version, stale.Version)

	second, err := call[*messages.SetResponse](env, messages.NewCompareAndSetRequest([]byte("k"), []byte("b"), first.Version))
	require.NoError(t, err)
	assert.True(t, second.Status)
	assert.Greater(t, second.Version, first.Version)
}

func TestIllegalArguments(t *testing.T) {
	env := newTestEnv(t)

	_, err := call[*messages.GetResponse](env, messages.NewGetRequest(nil))
	requireCode(t, err, common.CodeIllegalArgument)

	bad := messages.NewSetRequest([]byte("k"), []byte("v"))
	bad.Condition = 9
	_, err = call[*messages.SetResponse](env, bad)
	requireCode(t, err, common.CodeIllegalArgument)

	assert.Equal(t, 0, env.server.Context().InflightCount())
}

func TestListenAnsweredBySet(t *testing.T) {
	env := newTestEnv(t)

	listen := env.client.SendRequestFuture(env.server.Address(), messages.NewListenRequest([]byte("k"), 0), 0)
	env.pump()
	assert.Equal(t, 1, env.server.Listeners())
	assert.Equal(t, 1, env.server.Context().InflightCount())

	set, err := call[*messages.SetResponse](env, messages.NewSetRequest([]byte("k"), []byte("new")))
	require.NoError(t, err)

	resp, err := core.Await[*messages.ListenResponse](context.Background(), listen)
	require.NoError(t, err)
	assert.Equal(t, set.Version, resp.Version)
	assert.Equal(t, []byte("new"), resp.Value)
	assert.Equal(t, 0, env.server.Listeners())
	assert.Equal(t, 0, env.server.Context().InflightCount())
}

func TestListenAnsweredImmediately(t *testing.T) {
	env := newTestEnv(t)

	set, err := call[*messages.SetResponse](env, messages.NewSetRequest([]byte("k"), []byte("v")))
	require.NoError(t, err)

	resp, err := call[*messages.ListenResponse](env, messages.NewListenRequest([]byte("k"), set.Version-1))
	require.NoError(t, err)
	assert.Equal(t, set.Version, resp.Version)
	assert.Equal(t, 0, env.server.Listeners())
}

func TestListenTimeout(t *testing.T) {
	env := newTestEnv(t)

	req := messages.NewListenRequest([]byte("k"), 0).SetTimeout(200 * time.Millisecond)
	listen := env.client.SendRequestFuture(env.server.Address(), req, 0)
	env.pump()
	require.Equal(t, 1, env.server.Listeners())

	env.clock.now = env.clock.now.Add(300 * time.Millisecond)
	env.pump()

	_, err := listen.Result()
	requireCode(t, err, common.CodeTimeout)
	assert.Equal(t, 0, env.server.Listeners())
	assert.Equal(t, 0, env.server.Context().InflightCount())
}

func TestPing(t *testing.T) {
	env := newTestEnv(t)

	sent := time.Now()
	resp, err := call[*messages.PingResponse](env, messages.NewPingRequest(sent, []byte("echo")))
	require.NoError(t, err)
	assert.Equal(t, sent.UnixNano(), resp.SentAt)
	assert.Equal(t, []byte("echo"), resp.Payload)
}

func TestMetricsHandler(t *testing.T) {
	env := newTestEnv(t)
	_, err := call[*messages.GetResponse](env, messages.NewGetRequest([]byte("k")))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	env.server.MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `kvmsg_requests_received_total{self="10.0.0.1:7000"} 1`)
	assert.Contains(t, body, "process_")
}

func TestServeStopsOnCancel(t *testing.T) {
	hub := memory.NewHub()
	kv := lstore.NewLocalStore(nil)
	srv, err := NewRPCServer(common.ServerConfig{Endpoint: "10.0.0.1:7001"}, hub.Channels(),
		serializer.NewProtoSerializer(), kv)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
	assert.Equal(t, core.StateClosed, srv.Context().State())
}
