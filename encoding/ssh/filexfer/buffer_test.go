package filexfer

import (
	"bytes"
	"errors"
	"testing"
)

func TestBufferRoundTrip(t *testing.T) {
	var b Buffer

	b.AppendUint8(0x01)
	b.AppendBool(true)
	b.AppendUint16(0x0203)
	b.AppendUint32(0x04050607)
	b.AppendUint64(0x08090A0B0C0D0E0F)
	b.AppendInt64(-1)
	b.AppendString("foo")
	b.AppendByteSlice([]byte{0xFF, 0xFE})

	want := []byte{
		0x01,
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0x00, 0x00, 0x00, 0x03, 'f', 'o', 'o',
		0x00, 0x00, 0x00, 0x02, 0xFF, 0xFE,
	}

	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("Bytes() = %X, but wanted %X", b.Bytes(), want)
	}

	if v, err := b.ConsumeUint8(); err != nil || v != 0x01 {
		t.Errorf("ConsumeUint8() = %x, %v", v, err)
	}

	if v, err := b.ConsumeBool(); err != nil || v != true {
		t.Errorf("ConsumeBool() = %t, %v", v, err)
	}

	if v, err := b.ConsumeUint16(); err != nil || v != 0x0203 {
		t.Errorf("ConsumeUint16() = %x, %v", v, err)
	}

	if v, err := b.ConsumeUint32(); err != nil || v != 0x04050607 {
		t.Errorf("ConsumeUint32() = %x, %v", v, err)
	}

	if v, err := b.ConsumeUint64(); err != nil || v != 0x08090A0B0C0D0E0F {
		t.Errorf("ConsumeUint64() = %x, %v", v, err)
	}

	if v, err := b.ConsumeInt64(); err != nil || v != -1 {
		t.Errorf("ConsumeInt64() = %d, %v", v, err)
	}

	if v, err := b.ConsumeString(); err != nil || v != "foo" {
		t.Errorf("ConsumeString() = %q, %v", v, err)
	}

	if v, err := b.ConsumeByteSlice(); err != nil || !bytes.Equal(v, []byte{0xFF, 0xFE}) {
		t.Errorf("ConsumeByteSlice() = %X, %v", v, err)
	}

	if b.Len() != 0 {
		t.Errorf("Len() = %d, but expected 0", b.Len())
	}
}

func TestBufferShortPacket(t *testing.T) {
	b := NewBuffer([]byte{0x00, 0x00})

	if _, err := b.ConsumeUint32(); !errors.Is(err, ErrShortPacket) {
		t.Errorf("ConsumeUint32() = %v, but expected ErrShortPacket", err)
	}
}

func TestBufferOverlongString(t *testing.T) {
	// Declared length exceeds the remaining buffer.
	b := NewBuffer([]byte{0x00, 0x00, 0x00, 0x10, 'a', 'b'})

	if _, err := b.ConsumeByteSlice(); !errors.Is(err, ErrShortPacket) {
		t.Errorf("ConsumeByteSlice() = %v, but expected ErrShortPacket", err)
	}
}

func TestMarshalBufferLayout(t *testing.T) {
	b := NewMarshalBuffer(PacketTypeStat, 42, 0)
	b.AppendString("/foo")

	header, payload, err := b.Packet(nil)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if payload != nil {
		t.Errorf("unexpected payload: %X", payload)
	}

	want := []byte{
		0x00, 0x00, 0x00, 13,
		17,
		0x00, 0x00, 0x00, 42,
		0x00, 0x00, 0x00, 4, '/', 'f', 'o', 'o',
	}

	if !bytes.Equal(header, want) {
		t.Fatalf("Packet() = %X, but wanted %X", header, want)
	}
}
