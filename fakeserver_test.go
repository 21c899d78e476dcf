package sftpc

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
)

// fakeServer speaks raw SFTP frames over one end of a net.Pipe. The
// reader and writer run on separate goroutines so replies can pile up
// while the client keeps sending, the way a real pipelined server does.
type fakeServer struct {
	t    *testing.T
	conn net.Conn

	version uint32
	exts    []sshfx.ExtensionPair

	// handle receives every request after the handshake.
	handle func(srv *fakeServer, typ sshfx.PacketType, id uint32, buf *sshfx.Buffer)

	out  chan []byte
	done chan struct{}
}

func newFakeServer(t *testing.T, conn net.Conn, version uint32, exts []sshfx.ExtensionPair,
	handle func(*fakeServer, sshfx.PacketType, uint32, *sshfx.Buffer)) *fakeServer {

	srv := &fakeServer{
		t:       t,
		conn:    conn,
		version: version,
		exts:    exts,
		handle:  handle,
		out:     make(chan []byte, 1024),
		done:    make(chan struct{}),
	}

	go srv.writeLoop()
	go srv.readLoop()

	return srv
}

func (srv *fakeServer) writeLoop() {
	for frame := range srv.out {
		if _, err := srv.conn.Write(frame); err != nil {
			return
		}
	}
}

func (srv *fakeServer) readLoop() {
	defer close(srv.done)

	// Handshake: INIT in, VERSION out.
	body, err := srv.readFrame()
	if err != nil {
		srv.t.Errorf("reading INIT: %v", err)
		return
	}

	if sshfx.PacketType(body[0]) != sshfx.PacketTypeInit {
		srv.t.Errorf("expected INIT, got %v", sshfx.PacketType(body[0]))
		return
	}

	exts := make([]*sshfx.ExtensionPair, len(srv.exts))
	for i := range srv.exts {
		exts[i] = &srv.exts[i]
	}

	srv.send(&sshfx.VersionPacket{Version: srv.version, Extensions: exts})

	for {
		body, err := srv.readFrame()
		if err != nil {
			return
		}

		buf := sshfx.NewBuffer(body[1:])

		id, err := buf.ConsumeUint32()
		if err != nil {
			srv.t.Errorf("request without id: %v", err)
			return
		}

		srv.handle(srv, sshfx.PacketType(body[0]), id, buf)
	}
}

func (srv *fakeServer) readFrame() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(srv.conn, lenBuf[:]); err != nil {
		return nil, err
	}

	body := make([]byte, binary.BigEndian.Uint32(lenBuf[:]))
	if _, err := io.ReadFull(srv.conn, body); err != nil {
		return nil, err
	}

	return body, nil
}

type marshalable interface {
	MarshalPacket() (header, payload []byte, err error)
}

func (srv *fakeServer) send(p marshalable) {
	data, err := sshfx.ComposePacket(p.MarshalPacket())
	if err != nil {
		srv.t.Errorf("marshaling reply: %v", err)
		return
	}

	srv.out <- data
}

func (srv *fakeServer) sendStatus(id uint32, code sshfx.Status) {
	srv.send(&sshfx.StatusPacket{RequestID: id, StatusCode: code})
}

func (srv *fakeServer) sendHandle(id uint32, handle string) {
	srv.send(&sshfx.HandlePacket{RequestID: id, Handle: handle})
}

func (srv *fakeServer) sendData(id uint32, data []byte) {
	srv.send(&sshfx.DataPacket{RequestID: id, Data: data})
}

func (srv *fakeServer) sendAttrs(id uint32, attrs sshfx.Attributes) {
	data, err := (&sshfx.AttrsPacket{RequestID: id, Attrs: attrs}).MarshalBinary(srv.version)
	if err != nil {
		srv.t.Errorf("marshaling ATTRS: %v", err)
		return
	}

	srv.out <- data
}

func (srv *fakeServer) sendName(id uint32, entries ...*sshfx.NameEntry) {
	data, err := (&sshfx.NamePacket{RequestID: id, Entries: entries}).MarshalBinary(srv.version)
	if err != nil {
		srv.t.Errorf("marshaling NAME: %v", err)
		return
	}

	srv.out <- data
}

func (srv *fakeServer) sendExtendedReply(id uint32, data []byte) {
	b := sshfx.NewMarshalBuffer(sshfx.PacketTypeExtendedReply, id, len(data))
	header, payload, err := b.Packet(data)
	if err != nil {
		srv.t.Errorf("marshaling EXTENDED_REPLY: %v", err)
		return
	}

	srv.out <- append(append([]byte{}, header...), payload...)
}

// dirAttrs returns directory attributes in the server's version layout.
func (srv *fakeServer) dirAttrs() sshfx.Attributes {
	if srv.version > 3 {
		return sshfx.Attributes{
			Flags:       sshfx.AttrPermissions,
			Type:        sshfx.FileTypeDirectory,
			Permissions: 0o755,
		}
	}

	return sshfx.Attributes{
		Flags:       sshfx.AttrPermissions,
		Permissions: sshfx.ModeDir | 0o755,
	}
}

// fileAttrs returns regular-file attributes with the given size.
func (srv *fakeServer) fileAttrs(size uint64) sshfx.Attributes {
	if srv.version > 3 {
		return sshfx.Attributes{
			Flags:       sshfx.AttrSize | sshfx.AttrPermissions,
			Type:        sshfx.FileTypeRegular,
			Size:        size,
			Permissions: 0o644,
		}
	}

	return sshfx.Attributes{
		Flags:       sshfx.AttrSize | sshfx.AttrPermissions,
		Size:        size,
		Permissions: sshfx.ModeRegular | 0o644,
	}
}

// newTestSession wires a Session to a fakeServer over a net.Pipe.
func newTestSession(t *testing.T, version uint32, exts []sshfx.ExtensionPair,
	handle func(*fakeServer, sshfx.PacketType, uint32, *sshfx.Buffer)) (*Session, *fakeServer) {

	t.Helper()

	clientConn, serverConn := net.Pipe()

	srv := newFakeServer(t, serverConn, version, exts, handle)

	s, err := NewSessionPipe(clientConn, clientConn, WithTimeout(5*time.Second))
	if err != nil {
		t.Fatal("handshake failed:", err)
	}

	t.Cleanup(func() {
		clientConn.Close()
		serverConn.Close()
	})

	return s, srv
}
