package base

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

// MaxStreamFrameSize is the largest frame accepted on a stream connection
const MaxStreamFrameSize = 16 * 1024 * 1024

// ErrPartialWrite is returned when a frame was only partially written to a
// stream. The stream is out of sync afterwards and must be closed.
var ErrPartialWrite = errors.New("transport: partial frame write")

// WriteFrame writes a frame to the connection with the format:
// - 4 bytes: data length (uint32, big endian)
// - N bytes: frame
func WriteFrame(conn net.Conn, frame []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(frame)))

	b := net.Buffers{header[:], frame}
	n, err := b.WriteTo(conn)
	if err != nil && n > 0 {
		return fmt.Errorf("%w after %d bytes: %v", ErrPartialWrite, n, err)
	}
	return err
}

// ReadFrame reads a frame from the connection using the provided buffer.
// If the buffer is too small, a larger one is allocated and returned.
func ReadFrame(r io.Reader, buf []byte) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return buf, err
	}

	contentLength := binary.BigEndian.Uint32(header[:])
	if contentLength > MaxStreamFrameSize {
		return buf, fmt.Errorf("transport: frame of %d bytes exceeds limit of %d", contentLength, MaxStreamFrameSize)
	}

	if cap(buf) < int(contentLength) {
		buf = make([]byte, contentLength)
	}
	buf = buf[:contentLength]

	if _, err := io.ReadFull(r, buf); err != nil {
		return buf, err
	}
	return buf, nil
}
