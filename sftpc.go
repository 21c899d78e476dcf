// Package sftpc implements the client side of the SSH File Transfer Protocol,
// versions 3 through 6, as described in
// https://filezilla-project.org/specs/draft-ietf-secsh-filexfer-02.txt
// and draft-ietf-secsh-filexfer-13.
//
// A Session is driven over a pair of pipes connected to an externally
// spawned ssh subprocess (see the sshexec subpackage), or over any
// bidirectional byte stream for testing. The engine is single-threaded:
// one Session is owned by exactly one caller, and throughput comes from
// keeping multiple requests in flight on the wire, not from goroutines.
package sftpc

const (
	// ProtocolVersion is the highest protocol version offered in SSH_FXP_INIT.
	ProtocolVersion = 6

	// DefaultBlocksize is the read/write block size used when the caller
	// does not negotiate one via SetBlocksize.
	DefaultBlocksize = 16384

	// MaxBlocksize bounds both the negotiated block size and the frame
	// buffer; no frame longer than this is ever accepted.
	MaxBlocksize = 256 * 1024
)

const (
	// initialMaxFrame is the frame-length cap before the server advertises
	// its packet limit. Matches a 32 KiB data block plus framing slack.
	initialMaxFrame = 33792

	// frameOverhead is the worst-case framing cost of a WRITE:
	// length, type, request-id, handle string (256 max observed),
	// offset and the data length prefix.
	frameOverhead = 4 + 1 + 4 + 4 + 256 + 8 + 4

	// maxPendingWrites caps the write pipeline regardless of block size.
	maxPendingWrites = 48

	// maxPendingWriteBuffer caps the total bytes covered by outstanding
	// writes; the effective window is maxPendingWriteBuffer / blocksize.
	maxPendingWriteBuffer = 786432

	// readStepSize is both the initial read window and the growth step.
	readStepSize = 4

	// maxPendingReads caps the read pipeline window.
	maxPendingReads = 64

	// maxReplyBuffer caps the out-of-order reply table. A server-advertised
	// max-open-handles below this lowers the cap.
	maxReplyBuffer = 74
)

// DebugLevel selects how much protocol detail the session logs.
type DebugLevel int

const (
	DebugOff DebugLevel = iota
	DebugNormal
	DebugTrace
	DebugFullTrace
)
