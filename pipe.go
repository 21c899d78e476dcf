package sftpc

import (
	"errors"
	"io"
	"os"
	"reflect"
	"syscall"
	"time"
)

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// pipe is the duplex byte channel to the ssh subprocess. Reads and writes
// loop internally until complete; callers never see partial transfers.
// Each call is bounded by one timeout, enforced through deadlines
// when the underlying stream supports them (os.File pipes and net.Conn do).
type pipe struct {
	r io.Reader
	w io.Writer

	rd readDeadliner  // nil when r has no deadline support
	wd writeDeadliner // nil when w has no deadline support

	timeout time.Duration

	broken   bool // latched on EPIPE or EOF
	timedOut bool // latched on any expired deadline
}

func newPipe(r io.Reader, w io.Writer, timeout time.Duration) *pipe {
	p := &pipe{
		r:       r,
		w:       w,
		timeout: timeout,
	}

	p.rd, _ = r.(readDeadliner)
	p.wd, _ = w.(writeDeadliner)

	return p
}

// writeAll writes exactly len(b) bytes or fails with a terminal error.
func (p *pipe) writeAll(b []byte) error {
	if p.broken {
		return ErrBrokenPipe
	}

	if p.wd != nil && p.timeout > 0 {
		if err := p.wd.SetWriteDeadline(time.Now().Add(p.timeout)); err != nil {
			return err
		}
	}

	for len(b) > 0 {
		n, err := p.w.Write(b)
		if err != nil {
			return p.mapErr(err)
		}

		b = b[n:]
	}

	return nil
}

// readExact fills b completely or fails with a terminal error.
func (p *pipe) readExact(b []byte) error {
	if p.broken {
		return ErrBrokenPipe
	}

	if p.rd != nil && p.timeout > 0 {
		if err := p.rd.SetReadDeadline(time.Now().Add(p.timeout)); err != nil {
			return err
		}
	}

	if _, err := io.ReadFull(p.r, b); err != nil {
		return p.mapErr(err)
	}

	return nil
}

// mapErr folds platform errors into the transport sentinels,
// latching the broken and timed-out states.
func (p *pipe) mapErr(err error) error {
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		p.timedOut = true
		return ErrTimeout

	case errors.Is(err, syscall.EPIPE):
		p.broken = true
		return ErrBrokenPipe

	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		p.broken = true
		return ErrPipeClosed

	case errors.Is(err, syscall.ECONNRESET):
		p.broken = true
		return ErrConnReset
	}

	return err
}

// close closes whichever ends support closing.
func (p *pipe) close() error {
	var err error

	if c, ok := p.w.(io.Closer); ok {
		err = c.Close()
	}

	if c, ok := p.r.(io.Closer); ok && !sameStream(p.r, p.w) {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}

	return err
}

// sameStream reports whether r and w are the same underlying object,
// as with a net.Conn serving both directions. Values of non-comparable
// types are never the same object.
func sameStream(r, w any) bool {
	t := reflect.TypeOf(r)
	if t == nil || t != reflect.TypeOf(w) || !t.Comparable() {
		return false
	}

	return r == w
}
