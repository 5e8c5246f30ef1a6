// Package wire implements the length-prefixed framing described in spec.md
// §6: a 4-byte big-endian length prefix followed by that many payload bytes.
// A zero length is a valid terminator frame; the maximum uint32 value is
// reserved for "session closed by server". This is the out-of-core
// transport spec.md's core treats as "a bidirectional byte channel per
// client" — kept intentionally thin.
package wire

import (
	"encoding/binary"
	"io"

	ierrors "github.com/samkreter/rshd/internal/errors"
)

// SessionClosed is the sentinel length value meaning "server is closing this
// session"; it never carries a payload.
const SessionClosed uint32 = 0xFFFFFFFF

// maxFrameLen guards against a client-declared length large enough to
// be a protocol violation rather than real data (§7: "length larger than
// available data" is treated as a transport error).
const maxFrameLen = 16 << 20 // 16 MiB

// WriteFrame writes one frame: a 4-byte big-endian length prefix followed by
// payload. A nil or empty payload writes a zero-length terminator frame.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return ierrors.Wrap(err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return ierrors.Wrap(err)
	}
	return nil
}

// WriteClose writes the session-closed sentinel frame.
func WriteClose(w io.Writer) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], SessionClosed)
	if _, err := w.Write(lenBuf[:]); err != nil {
		return ierrors.Wrap(err)
	}
	return nil
}

// ReadFrame reads one frame from r. A clean disconnect before the length
// prefix returns io.EOF verbatim; the session-closed sentinel also returns
// io.EOF, and a length prefix cut short returns a wrapped io.EOF. Any other
// read failure, or a declared length beyond maxFrameLen, is a transport
// error per §7.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, ierrors.Wrap(io.EOF)
		}
		return nil, err
	}

	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == SessionClosed {
		return nil, io.EOF
	}
	if n == 0 {
		return []byte{}, nil
	}
	if n > maxFrameLen {
		return nil, ierrors.Wrap(ErrFrameTooLarge)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, ierrors.Wrap(err)
	}
	return buf, nil
}

// ErrFrameTooLarge indicates a frame declared a length past maxFrameLen,
// treated as a protocol violation (§7).
var ErrFrameTooLarge = frameTooLargeError{}

type frameTooLargeError struct{}

func (frameTooLargeError) Error() string { return "wire: frame exceeds maximum length" }

// Channel adapts an io.Writer (typically a net.Conn) to job.ClientChannel by
// framing every payload. A failed Send is sticky: once the underlying
// connection has gone bad, Channel stops attempting further writes so a
// disconnected client's Job can still run to natural completion without
// repeatedly hitting a dead socket (§5's cancellation semantics).
type Channel struct {
	w      io.Writer
	broken bool
}

// NewChannel wraps w as a framed client channel.
func NewChannel(w io.Writer) *Channel {
	return &Channel{w: w}
}

// Send writes one framed payload. Once a write fails, subsequent calls are
// no-ops that return a wrapped io.ErrClosedPipe.
func (c *Channel) Send(payload []byte) error {
	if c.broken {
		return ierrors.Wrap(io.ErrClosedPipe)
	}
	if err := WriteFrame(c.w, payload); err != nil {
		c.broken = true
		return err
	}
	return nil
}
