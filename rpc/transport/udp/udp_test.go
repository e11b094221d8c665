package udp

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
	f := NewChannelFactory()
	defer f.Close()

	sub, err := f.Listen(common.MustAddress("127.0.0.1", 0))
	require.NoError(t, err)
	port := sub.(interface{ LocalAddr() net.Addr }).LocalAddr().(*net.UDPAddr).Port

	pub, err := f.Open(common.MustAddress("127.0.0.1", port))
	require.NoError(t, err)
	assert.Equal(t, transport.OfferAccepted, pub.Offer([]byte("datagram")))

	var got string
	require.Eventually(t, func() bool {
		sub.Poll(func(frame []byte) { got = string(frame) }, 16)
		return got != ""
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, "datagram", got)
}

func TestCloseClosesEverything(t *testing.T) {
	f := NewChannelFactory()
	sub, err := f.Listen(common.MustAddress("127.0.0.1", 0))
	require.NoError(t, err)
	pub, err := f.Open(common.MustAddress("127.0.0.1", 9))
	require.NoError(t, err)

	require.NoError(t, f.Close())
	assert.Equal(t, transport.OfferClosed, pub.Offer([]byte("x")))
	assert.Equal(t, 0, sub.Poll(func([]byte) {}, 16))
}
