package prf

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
)

// maxPayloadSize bounds a single Message's payload. PRF payloads are P-HASH
// intermediates and never approach this size; it exists to stop a malformed
// or hostile peer from making the Follower allocate an unbounded buffer.
const maxPayloadSize = 1 << 20

// DecodeError marks a Recv failure caused by a peer sending bytes that do
// not parse as a Message (unknown tag, oversize length), as distinct from a
// transport-level read failure. Callers use errors.As to map this to
// ErrMalformed rather than ErrChannel.
type DecodeError struct {
	err error
}

func (e *DecodeError) Error() string { return e.err.Error() }
func (e *DecodeError) Unwrap() error { return e.err }

// Channel is the typed, ordered, full-duplex transport a PRFFollower uses to
// exchange Messages with the Leader. recv/send never interpret payloads;
// encoding is a private, deterministic, versioned contract between the two
// parties (see StreamChannel for the one this package implements).
type Channel interface {
	// Recv returns the next Message, or io.EOF if the peer closed the
	// stream without protocol violation (the caller decides whether EOF at
	// that point is expected or a ConnectionAborted failure).
	Recv(ctx context.Context) (Message, error)
	// Send enqueues m. A nil error only guarantees the bytes were handed
	// to the transport, not that the peer has read them.
	Send(ctx context.Context, m Message) error
}

// StreamChannel implements Channel by framing Messages over a reliable
// byte stream (TCP or an upgraded WebSocket connection) as:
//
//	tag:u8 length:u32(big-endian) payload:[length]byte
//
// framed atomically per Send call.
type StreamChannel struct {
	r *bufio.Reader
	w io.Writer
}

// NewStreamChannel wraps rw with PRFMessage framing. rw must already be a
// reliable, in-order, full-duplex byte pipe; StreamChannel adds no framing
// of its own beyond the tag/length prefix.
func NewStreamChannel(rw io.ReadWriter) *StreamChannel {
	return NewStreamChannelFromReader(bufio.NewReader(rw), rw)
}

// NewStreamChannelFromReader builds a StreamChannel from a reader that may
// already have buffered bytes read ahead of the PRF phase (for instance, a
// preceding key-exchange round sharing the same connection). Callers in
// that position must construct one bufio.Reader over the connection and
// pass it both to whatever reads the earlier round's frames and here;
// wrapping the raw connection a second time would silently drop whatever
// the first bufio.Reader had already buffered past that round's frames.
func NewStreamChannelFromReader(r *bufio.Reader, w io.Writer) *StreamChannel {
	return &StreamChannel{r: r, w: w}
}

func (c *StreamChannel) Recv(ctx context.Context) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}

	var header [5]byte
	if _, err := io.ReadFull(c.r, header[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Message{}, io.EOF
		}
		return Message{}, fmt.Errorf("prf: channel read: %w", err)
	}

	tag := Tag(header[0])
	length := binary.BigEndian.Uint32(header[1:])
	if length > maxPayloadSize {
		return Message{}, &DecodeError{fmt.Errorf("prf: channel read: payload of %d bytes exceeds maximum", length)}
	}
	if !tag.Valid() {
		return Message{}, &DecodeError{fmt.Errorf("prf: channel read: unknown tag %d", header[0])}
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		return Message{}, fmt.Errorf("prf: channel read: %w", err)
	}

	return Message{Tag: tag, Payload: payload}, nil
}

func (c *StreamChannel) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(m.Payload) > maxPayloadSize {
		return fmt.Errorf("prf: channel write: payload of %d bytes exceeds maximum", len(m.Payload))
	}

	buf := make([]byte, 5+len(m.Payload))
	buf[0] = byte(m.Tag)
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(m.Payload)))
	copy(buf[5:], m.Payload)

	if _, err := c.w.Write(buf); err != nil {
		return fmt.Errorf("prf: channel write: %w", err)
	}
	return nil
}
