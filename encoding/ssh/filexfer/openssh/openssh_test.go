package openssh

import (
	"bytes"
	"testing"

	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
)

func TestPOSIXRenameExtendedPacket(t *testing.T) {
	p := &POSIXRenameExtendedPacket{
		RequestID: 27,
		OldPath:   "/a",
		NewPath:   "/b",
	}

	header, payload, err := p.MarshalPacket()
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	data := append(header, payload...)

	want := []byte{
		0x00, 0x00, 0x00, 45,
		200,
		0x00, 0x00, 0x00, 27,
		0x00, 0x00, 0x00, 24, 'p', 'o', 's', 'i', 'x', '-', 'r', 'e', 'n', 'a', 'm', 'e', '@', 'o', 'p', 'e', 'n', 's', 's', 'h', '.', 'c', 'o', 'm',
		0x00, 0x00, 0x00, 2, '/', 'a',
		0x00, 0x00, 0x00, 2, '/', 'b',
	}

	if !bytes.Equal(data, want) {
		t.Fatalf("MarshalPacket() = %X, but wanted %X", data, want)
	}
}

func TestLimitsExtendedReply(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x04, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40,
	}

	var r LimitsExtendedReply
	if err := r.UnmarshalBinary(data); err != nil {
		t.Fatal("unexpected error:", err)
	}

	if r.MaxPacketLength != 0x40000 {
		t.Errorf("MaxPacketLength = %d", r.MaxPacketLength)
	}

	if r.MaxReadLength != 0x10000 {
		t.Errorf("MaxReadLength = %d", r.MaxReadLength)
	}

	if r.MaxWriteLength != 0x8000 {
		t.Errorf("MaxWriteLength = %d", r.MaxWriteLength)
	}

	if r.MaxOpenHandles != 0x40 {
		t.Errorf("MaxOpenHandles = %d", r.MaxOpenHandles)
	}
}

func TestStatVFSExtendedReply(t *testing.T) {
	var b sshfx.Buffer
	for i := uint64(1); i <= 11; i++ {
		b.AppendUint64(i)
	}

	var r StatVFSExtendedReply
	if err := r.UnmarshalBinary(b.Bytes()); err != nil {
		t.Fatal("unexpected error:", err)
	}

	if r.BlockSize != 1 || r.Blocks != 3 || r.BlocksAvail != 5 || r.MaxNameLength != 11 {
		t.Errorf("unexpected reply: %#v", r)
	}
}
