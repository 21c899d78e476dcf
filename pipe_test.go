package sftpc

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oneByteWriter forces writeAll to loop.
type oneByteWriter struct {
	buf bytes.Buffer
}

func (w *oneByteWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b[:1])
}

func TestPipeWriteAllCompletesShortWrites(t *testing.T) {
	w := &oneByteWriter{}
	p := newPipe(bytes.NewReader(nil), w, 0)

	require.NoError(t, p.writeAll([]byte("hello pipes")))
	assert.Equal(t, "hello pipes", w.buf.String())
}

func TestPipeEOFMapsToPipeClosed(t *testing.T) {
	p := newPipe(bytes.NewReader([]byte("xy")), io.Discard, 0)

	// Partial data then EOF is still a closed pipe.
	err := p.readExact(make([]byte, 4))
	require.ErrorIs(t, err, ErrPipeClosed)
	assert.True(t, p.broken)

	// The latch makes later calls fail without touching the stream.
	assert.ErrorIs(t, p.writeAll([]byte("x")), ErrBrokenPipe)
	assert.ErrorIs(t, p.readExact(make([]byte, 1)), ErrBrokenPipe)
}

// funcStream is deliberately of a non-comparable kind.
type funcStream func()

func (f funcStream) Read(b []byte) (int, error)  { return 0, io.EOF }
func (f funcStream) Write(b []byte) (int, error) { return len(b), nil }
func (f funcStream) Close() error                { f(); return nil }

func TestPipeCloseHandlesNonComparableEnds(t *testing.T) {
	var rClosed, wClosed int

	p := newPipe(
		funcStream(func() { rClosed++ }),
		funcStream(func() { wClosed++ }),
		0,
	)

	require.NoError(t, p.close())
	assert.Equal(t, 1, rClosed)
	assert.Equal(t, 1, wClosed)
}

// countingConn is a duplex stream whose Close calls are counted.
type countingConn struct {
	closes int
}

func (c *countingConn) Read(b []byte) (int, error)  { return 0, io.EOF }
func (c *countingConn) Write(b []byte) (int, error) { return len(b), nil }
func (c *countingConn) Close() error                { c.closes++; return nil }

func TestPipeCloseSharedConnClosesOnce(t *testing.T) {
	conn := &countingConn{}
	p := newPipe(conn, conn, 0)

	require.NoError(t, p.close())
	assert.Equal(t, 1, conn.closes)
}

func TestPipeDeadlineMapsToTimeout(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	p := newPipe(client, client, 20*time.Millisecond)

	err := p.readExact(make([]byte, 1))
	require.ErrorIs(t, err, ErrTimeout)
	assert.True(t, p.timedOut)
	assert.False(t, p.broken)
}
