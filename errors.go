package sftpc

import (
	"errors"
	"fmt"

	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
)

// Transport errors.
var (
	// ErrTimeout is returned when an I/O deadline expires. Once latched,
	// Quit skips the graceful handle close and kills the subprocess.
	ErrTimeout = errors.New("sftp: transfer timeout")

	// ErrBrokenPipe is returned when a write fails with EPIPE. It latches;
	// every later operation fails fast with it until Quit.
	ErrBrokenPipe = errors.New("sftp: broken pipe")

	// ErrPipeClosed is returned when a read observes EOF.
	ErrPipeClosed = errors.New("sftp: pipe closed")

	// ErrConnReset is returned when the connection is reset by the peer.
	ErrConnReset = errors.New("sftp: connection reset")
)

// Engine errors.
var (
	// ErrTooManyOutstanding is returned by a waiter when the out-of-order
	// reply table is full and yet another mismatched reply arrives.
	ErrTooManyOutstanding = errors.New("sftp: too many outstanding replies")

	// ErrUnsupportedVersion is returned by the handshake for servers
	// older than protocol version 3.
	ErrUnsupportedVersion = errors.New("sftp: unsupported protocol version")

	// ErrUnsupportedExtension is returned by operations that require an
	// extension the server did not advertise.
	ErrUnsupportedExtension = errors.New("sftp: extension not supported by server")

	// ErrNoOpenHandle is returned by handle operations on a closed File or Dir.
	ErrNoOpenHandle = errors.New("sftp: no open handle")

	// ErrHandleInUse is returned when an operation would disturb a file
	// handle that still has pipelined reads queued.
	ErrHandleInUse = errors.New("sftp: handle busy with pipelined reads")

	// ErrDoSingleReads tells the caller to abandon pipelined reads and
	// fall back to one READ at a time: the remote file delivered a short
	// block before its final one, so it is shorter than expected or
	// being truncated underneath us.
	ErrDoSingleReads = errors.New("sftp: short block, fall back to single reads")

	// ErrBlocksizeTooSmall is returned by SetBlocksize when the server's
	// packet limit cannot even fit the framing overhead.
	ErrBlocksizeTooSmall = errors.New("sftp: server packet limit below framing overhead")
)

// OversizedFrameError is returned when the peer declares a frame longer
// than the absolute cap of MaxBlocksize.
type OversizedFrameError struct {
	Length uint32
}

func (e *OversizedFrameError) Error() string {
	return fmt.Sprintf("sftp: oversized frame: %d bytes", e.Length)
}

// UnexpectedReplyTypeError is returned when a reply decodes to a packet
// type the pending operation cannot accept.
type UnexpectedReplyTypeError struct {
	Want sshfx.PacketType
	Got  sshfx.PacketType
}

func (e *UnexpectedReplyTypeError) Error() string {
	return fmt.Sprintf("sftp: unexpected reply type: want %v, got %v", e.Want, e.Got)
}

// unexpectedReply builds an UnexpectedReplyTypeError from a raw reply.
func unexpectedReply(want sshfx.PacketType, raw *sshfx.RawPacket) error {
	return &UnexpectedReplyTypeError{Want: want, Got: raw.Type}
}
