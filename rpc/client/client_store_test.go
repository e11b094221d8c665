package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ValentinKolb/kvmsg/lib/store/lstore"
	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/core"
	"github.com/ValentinKolb/kvmsg/rpc/messages"
	"github.com/ValentinKolb/kvmsg/rpc/serializer"
	"github.com/ValentinKolb/kvmsg/rpc/server"
	"github.com/ValentinKolb/kvmsg/rpc/transport/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore serves a local store on the hub and returns a client of it.
// Both are stopped when the test ends.
func newTestStore(t *testing.T, port int) *RPCStore {
	t.Helper()
	hub := memory.NewHub()

	srv, err := server.NewRPCServer(common.ServerConfig{Endpoint: common.MustAddress("10.0.0.1", port).String()},
		hub.Channels(), serializer.NewProtoSerializer(), lstore.NewLocalStore(nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx) }()

	kv, err := NewRPCStore(common.ClientConfig{
		Address:   common.MustAddress("10.0.0.2", port).String(),
		Endpoints: []string{srv.Address().String()},
		Timeout:   2 * time.Second,
	}, hub.Channels(), serializer.NewProtoSerializer())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = kv.Close()
		cancel()
		select {
		case err := <-served:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return kv
}

func TestRPCStoreSetAndGet(t *testing.T) {
	kv := newTestStore(t, 7100)
	ctx := context.Background()

	value, version, err := kv.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Empty(t, value)
	assert.EqualValues(t, 0, version)

	v1, err := kv.Set(ctx, []byte("k"), []byte("v1"), messages.ExpireNone)
	require.NoError(t, err)
	assert.Greater(t, v1, int64(0))

	value, version, err = kv.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), value)
	assert.Equal(t, v1, version)

	got, err := kv.GetVersion(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, v1, got)
}

func TestRPCStoreCompareAndSet(t *testing.T) {
	kv := newTestStore(t, 7101)
	ctx := context.Background()

	applied, created, err := kv.CompareAndSet(ctx, []byte("k"), []byte("v1"), 0)
	require.NoError(t, err)
	require.True(t, applied)

	applied, current, err := kv.CompareAndSet(ctx, []byte("k"), []byte("v2"), 0)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, created, current)

	applied, updated, err := kv.CompareAndSet(ctx, []byte("k"), []byte("v2"), created)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Greater(t, updated, created)
}

func TestRPCStoreIllegalArgument(t *testing.T) {
	kv := newTestStore(t, 7102)

	_, err := kv.Set(context.Background(), nil, []byte("v"), messages.ExpireNone)
	var codeErr *common.CodeError
	require.True(t, errors.As(err, &codeErr), "expected a CodeError, got %v", err)
	assert.Equal(t, common.CodeIllegalArgument, codeErr.Code)
}

func TestRPCStoreListen(t *testing.T) {
	kv := newTestStore(t, 7103)
	ctx := context.Background()

	start, err := kv.Set(ctx, []byte("k"), []byte("v0"), messages.ExpireNone)
	require.NoError(t, err)

	type result struct {
		value   []byte
		version int64
		err     error
	}
	results := make(chan result, 1)
	go func() {
		value, version, err := kv.Listen(ctx, []byte("k"), start, 5*time.Second)
		results <- result{value, version, err}
	}()

	// the listen request may reach the server after the first write, so keep writing
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-results:
			require.NoError(t, r.err)
			assert.Equal(t, []byte("v1"), r.value)
			assert.Greater(t, r.version, start)
			return
		case <-ticker.C:
			_, err := kv.Set(ctx, []byte("k"), []byte("v1"), messages.ExpireNone)
			require.NoError(t, err)
		case <-deadline:
			t.Fatal("listen was not answered")
		}
	}
}

func TestRPCStoreListenTimeout(t *testing.T) {
	kv := newTestStore(t, 7104)

	_, _, err := kv.Listen(context.Background(), []byte("k"), 0, 50*time.Millisecond)
	var codeErr *common.CodeError
	require.True(t, errors.As(err, &codeErr), "expected a CodeError, got %v", err)
	assert.Equal(t, common.CodeTimeout, codeErr.Code)
}

func TestRPCStorePing(t *testing.T) {
	kv := newTestStore(t, 7105)

	rtt, err := kv.Ping(context.Background(), []byte("hello"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rtt, time.Duration(0))
}

func TestRPCStoreContextCancelled(t *testing.T) {
	kv := newTestStore(t, 7106)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := kv.Get(ctx, []byte("k"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRPCStoreClosed(t *testing.T) {
	kv := newTestStore(t, 7107)
	require.NoError(t, kv.Close())

	_, _, err := kv.Get(context.Background(), []byte("k"))
	assert.ErrorIs(t, err, core.ErrClosed)
}
