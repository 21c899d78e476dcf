package filexfer

import (
	"bytes"
	"errors"
	"testing"
)

func marshal(t *testing.T, p Packet) []byte {
	t.Helper()

	header, payload, err := p.MarshalPacket()
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	return append(append([]byte{}, header...), payload...)
}

func TestInitPacket(t *testing.T) {
	p := &InitPacket{
		Version: 6,
		Extensions: []*ExtensionPair{
			{Name: "foo", Data: "1"},
		},
	}

	data := marshal(t, p)

	want := []byte{
		0x00, 0x00, 0x00, 17,
		1,
		0x00, 0x00, 0x00, 6,
		0x00, 0x00, 0x00, 3, 'f', 'o', 'o',
		0x00, 0x00, 0x00, 1, '1',
	}

	if !bytes.Equal(data, want) {
		t.Fatalf("MarshalPacket() = %X, but wanted %X", data, want)
	}
}

func TestVersionPacket(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x00, 6,
		0x00, 0x00, 0x00, 3, 'b', 'a', 'r',
		0x00, 0x00, 0x00, 0,
	}

	var p VersionPacket
	if err := p.UnmarshalPacketBody(NewBuffer(data)); err != nil {
		t.Fatal("unexpected error:", err)
	}

	if p.Version != 6 {
		t.Errorf("Version = %d, but expected 6", p.Version)
	}

	if len(p.Extensions) != 1 || p.Extensions[0].Name != "bar" {
		t.Errorf("Extensions = %v", p.Extensions)
	}
}

func TestOpenPacket(t *testing.T) {
	p := &OpenPacket{
		RequestID: 7,
		Filename:  "/a",
		PFlags:    FlagWrite | FlagCreate | FlagTruncate,
	}

	data := marshal(t, p)

	want := []byte{
		0x00, 0x00, 0x00, 19,
		3,
		0x00, 0x00, 0x00, 7,
		0x00, 0x00, 0x00, 2, '/', 'a',
		0x00, 0x00, 0x00, 0x1A,
		0x00, 0x00, 0x00, 0x00,
	}

	if !bytes.Equal(data, want) {
		t.Fatalf("MarshalPacket() = %X, but wanted %X", data, want)
	}
}

func TestOpenV5Packet(t *testing.T) {
	p := &OpenV5Packet{
		RequestID:     7,
		Filename:      "/a",
		DesiredAccess: AceWriteData | AceWriteAttrs,
		Flags:         DispCreateTruncate,
	}

	data := marshal(t, p)

	want := []byte{
		0x00, 0x00, 0x00, 24,
		3,
		0x00, 0x00, 0x00, 7,
		0x00, 0x00, 0x00, 2, '/', 'a',
		0x00, 0x00, 0x01, 0x02,
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x00, 0x00,
	}

	if !bytes.Equal(data, want) {
		t.Fatalf("MarshalPacket() = %X, but wanted %X", data, want)
	}
}

func TestWritePacket(t *testing.T) {
	p := &WritePacket{
		RequestID: 3,
		Handle:    "h",
		Offset:    0x100,
		Data:      []byte{0xAA, 0xBB},
	}

	data := marshal(t, p)

	want := []byte{
		0x00, 0x00, 0x00, 24,
		6,
		0x00, 0x00, 0x00, 3,
		0x00, 0x00, 0x00, 1, 'h',
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00,
		0x00, 0x00, 0x00, 2,
		0xAA, 0xBB,
	}

	if !bytes.Equal(data, want) {
		t.Fatalf("MarshalPacket() = %X, but wanted %X", data, want)
	}
}

func TestSymlinkPacketTransposed(t *testing.T) {
	// openssh sends SSH_FXP_SYMLINK arguments reversed from the draft;
	// the marshaled order is targetpath first.
	p := &SymlinkPacket{
		RequestID:  9,
		LinkPath:   "link",
		TargetPath: "target",
	}

	data := marshal(t, p)

	want := []byte{
		0x00, 0x00, 0x00, 23,
		20,
		0x00, 0x00, 0x00, 9,
		0x00, 0x00, 0x00, 6, 't', 'a', 'r', 'g', 'e', 't',
		0x00, 0x00, 0x00, 4, 'l', 'i', 'n', 'k',
	}

	if !bytes.Equal(data, want) {
		t.Fatalf("MarshalPacket() = %X, but wanted %X", data, want)
	}
}

func TestStatusPacketV3Truncated(t *testing.T) {
	// Some v3 servers omit the error message and language tag entirely.
	data := []byte{
		0x00, 0x00, 0x00, 2,
	}

	var p StatusPacket
	if err := p.UnmarshalPacketBody(NewBuffer(data)); err != nil {
		t.Fatal("unexpected error:", err)
	}

	if p.StatusCode != StatusNoSuchFile {
		t.Errorf("StatusCode = %d, but expected %d", p.StatusCode, StatusNoSuchFile)
	}

	if !errors.Is(&p, StatusNoSuchFile) {
		t.Error("errors.Is(StatusNoSuchFile) = false, but expected true")
	}
}

func TestDataPacketV6EOF(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x00, 2, 0xCA, 0xFE,
		0x01,
	}

	var p DataPacket
	if err := p.UnmarshalPacketBody(NewBuffer(data)); err != nil {
		t.Fatal("unexpected error:", err)
	}

	if !bytes.Equal(p.Data, []byte{0xCA, 0xFE}) {
		t.Errorf("Data = %X", p.Data)
	}

	if !p.EOF {
		t.Error("EOF = false, but expected true")
	}
}

func TestNamePacketV3(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x00, 1,
		0x00, 0x00, 0x00, 3, 'f', 'o', 'o',
		0x00, 0x00, 0x00, 4, '-', 'r', 'w', '-',
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x20,
	}

	var p NamePacket
	if err := p.UnmarshalPacketBody(NewBuffer(data), 3); err != nil {
		t.Fatal("unexpected error:", err)
	}

	if len(p.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, but expected 1", len(p.Entries))
	}

	e := p.Entries[0]

	if e.Filename != "foo" {
		t.Errorf("Filename = %q", e.Filename)
	}

	if e.Longname != "-rw-" {
		t.Errorf("Longname = %q", e.Longname)
	}

	if e.Attrs.Flags&AttrSize == 0 || e.Attrs.Size != 0x20 {
		t.Errorf("Attrs.Size = %d, flags = %x", e.Attrs.Size, e.Attrs.Flags)
	}
}

func TestRawPacketRoundTrip(t *testing.T) {
	p := &RawPacket{
		Type:      PacketTypeStatus,
		RequestID: 13,
		Payload:   []byte{0x00, 0x00, 0x00, 0x00},
	}

	data := marshal(t, p)

	var q RawPacket
	if err := q.UnmarshalBinary(data[4:]); err != nil {
		t.Fatal("unexpected error:", err)
	}

	if q.Type != PacketTypeStatus || q.RequestID != 13 {
		t.Errorf("Type, RequestID = %v, %d", q.Type, q.RequestID)
	}

	if !bytes.Equal(q.Payload, p.Payload) {
		t.Errorf("Payload = %X", q.Payload)
	}
}
