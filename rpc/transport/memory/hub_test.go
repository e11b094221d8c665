package memory

import (
	"testing"

	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverAndPoll(t *testing.T) {
	hub := NewHub()
	a := common.MustAddress("10.0.0.1", 1000)

	sub, err := hub.Network().Listen(a)
	require.NoError(t, err)
	pub, err := hub.Network().Open(a)
	require.NoError(t, err)

	frame := []byte("hello")
	assert.Equal(t, transport.OfferAccepted, pub.Offer(frame))
	frame[0] = 'j'

	var got string
	assert.Equal(t, 1, sub.Poll(func(b []byte) { got = string(b) }, 16))
	assert.Equal(t, "hello", got)
	assert.EqualValues(t, 1, hub.Delivered())
}

func TestNamespacesAreSeparate(t *testing.T) {
	hub := NewHub()
	a := common.MustAddress("10.0.0.1", 1000)

	_, err := hub.IPC().Listen(a)
	require.NoError(t, err)

	pub, _ := hub.Network().Open(a)
	assert.Equal(t, transport.OfferNotConnected, pub.Offer([]byte("x")))
}

func TestDuplicateListen(t *testing.T) {
	hub := NewHub()
	a := common.MustAddress("10.0.0.1", 1000)

	sub, err := hub.Network().Listen(a)
	require.NoError(t, err)
	_, err = hub.Network().Listen(a)
	assert.Error(t, err)

	require.NoError(t, sub.Close())
	_, err = hub.Network().Listen(a)
	assert.NoError(t, err, "address must be free after close")
}

func TestBackpressureWhenFull(t *testing.T) {
	hub := NewHub(WithInboxCapacity(1))
	a := common.MustAddress("10.0.0.1", 1000)
	sub, _ := hub.Network().Listen(a)
	pub, _ := hub.Network().Open(a)

	assert.Equal(t, transport.OfferAccepted, pub.Offer([]byte("1")))
	assert.Equal(t, transport.OfferBackpressure, pub.Offer([]byte("2")))

	sub.Poll(func([]byte) {}, 16)
	assert.Equal(t, transport.OfferAccepted, pub.Offer([]byte("3")))
}

func TestFilterDropsSilently(t *testing.T) {
	hub := NewHub()
	a := common.MustAddress("10.0.0.1", 1000)
	sub, _ := hub.Network().Listen(a)
	pub, _ := hub.Network().Open(a)

	hub.SetFilter(func(to common.Address, frame []byte) bool { return false })
	assert.Equal(t, transport.OfferAccepted, pub.Offer([]byte("lost")))
	assert.Equal(t, 0, sub.Poll(func([]byte) {}, 16))

	hub.SetFilter(nil)
	pub.Offer([]byte("kept"))
	assert.Equal(t, 1, sub.Poll(func([]byte) {}, 16))
}

func TestClosedPublication(t *testing.T) {
	hub := NewHub()
	pub, _ := hub.Network().Open(common.MustAddress("10.0.0.1", 1))
	require.NoError(t, pub.Close())
	assert.Equal(t, transport.OfferClosed, pub.Offer([]byte("x")))
}
