package tcp

import (
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndReceive(t *testing.T) {
	f := NewChannelFactory(DefaultConfig())
	defer f.Close()

	sub, err := f.Listen(common.MustAddress("127.0.0.1", 0))
	require.NoError(t, err)
	port := sub.(interface{ LocalAddr() net.Addr }).LocalAddr().(*net.TCPAddr).Port

	pub, err := f.Open(common.MustAddress("127.0.0.1", port))
	require.NoError(t, err)
	for _, frame := range []string{"one", "two", "three"} {
		require.Equal(t, transport.OfferAccepted, pub.Offer([]byte(frame)))
	}

	var got []string
	require.Eventually(t, func() bool {
		sub.Poll(func(frame []byte) { got = append(got, string(frame)) }, 16)
		return len(got) == 3
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestNotConnectedWithoutListener(t *testing.T) {
	// reserve a port and release it again so nobody listens there
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	f := NewChannelFactory(DefaultConfig())
	defer f.Close()

	pub, err := f.Open(common.MustAddress("127.0.0.1", port))
	require.NoError(t, err)
	assert.Equal(t, transport.OfferNotConnected, pub.Offer([]byte("nobody")))
}
