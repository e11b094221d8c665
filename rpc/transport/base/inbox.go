package base

import (
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/kvmsg/rpc/transport"
)

// DefaultInboxCapacity is the number of frames an inbox buffers before it drops
const DefaultInboxCapacity = 4096

// Inbox is a bounded frame queue. Any number of goroutines may push, a single
// goroutine polls. Frame buffers are recycled once the handler returned.
type Inbox struct {
	frames  chan []byte
	closed  atomic.Bool
	dropped atomic.Uint64
	bufs    sync.Pool
}

// NewInbox creates an inbox holding at most capacity frames
func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultInboxCapacity
	}
	return &Inbox{
		frames: make(chan []byte, capacity),
		bufs: sync.Pool{
			New: func() interface{} {
				return make([]byte, 0, 2048)
			},
		},
	}
}

// Buffer returns a buffer of length n, preferably a recycled one
func (i *Inbox) Buffer(n int) []byte {
	b := i.bufs.Get().([]byte)
	if cap(b) < n {
		return make([]byte, n)
	}
	return b[:n]
}

// PushCopy copies frame into a buffer and pushes it
func (i *Inbox) PushCopy(frame []byte) transport.OfferResult {
	b := i.Buffer(len(frame))
	copy(b, frame)
	res := i.Push(b)
	if res != transport.OfferAccepted {
		i.bufs.Put(b[:0])
	}
	return res
}

// Push enqueues a frame and takes ownership of it. A full inbox reports
// backpressure and counts the frame as dropped.
func (i *Inbox) Push(frame []byte) transport.OfferResult {
	if i.closed.Load() {
		return transport.OfferClosed
	}
	select {
	case i.frames <- frame:
		return transport.OfferAccepted
	default:
		i.dropped.Add(1)
		return transport.OfferBackpressure
	}
}

// Poll implements transport.Subscription
func (i *Inbox) Poll(handler transport.FrameHandler, max int) int {
	n := 0
	for n < max && !i.closed.Load() {
		select {
		case frame := <-i.frames:
			handler(frame)
			i.bufs.Put(frame[:0])
			n++
		default:
			return n
		}
	}
	return n
}

// Len returns the number of queued frames
func (i *Inbox) Len() int { return len(i.frames) }

// Dropped returns how many frames were rejected because the inbox was full
func (i *Inbox) Dropped() uint64 { return i.dropped.Load() }

// Close stops accepting and delivering frames. Queued frames are discarded.
func (i *Inbox) Close() {
	i.closed.Store(true)
}

// IsClosed reports whether Close was called
func (i *Inbox) IsClosed() bool { return i.closed.Load() }
