package filexfer

import (
	"bytes"
	"reflect"
	"testing"
)

func TestAttributesV3(t *testing.T) {
	a := Attributes{
		Flags:       AttrSize | AttrUIDGID | AttrPermissions | AttrACModTime,
		Size:        0x123,
		UID:         1000,
		GID:         100,
		Permissions: 0x8000 | 0644,
		ATime:       0x1000,
		MTime:       0x2000,
	}

	var b Buffer
	a.MarshalInto(&b, 3)

	want := []byte{
		0x00, 0x00, 0x00, 0x0F,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x23,
		0x00, 0x00, 0x03, 0xE8,
		0x00, 0x00, 0x00, 0x64,
		0x00, 0x00, 0x81, 0xA4,
		0x00, 0x00, 0x10, 0x00,
		0x00, 0x00, 0x20, 0x00,
	}

	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("MarshalInto() = %X, but wanted %X", b.Bytes(), want)
	}

	if a.Len(3) != len(want) {
		t.Errorf("Len(3) = %d, but expected %d", a.Len(3), len(want))
	}

	var got Attributes
	if err := got.UnmarshalFrom(NewBuffer(want), 3); err != nil {
		t.Fatal("unexpected error:", err)
	}

	if !reflect.DeepEqual(got, a) {
		t.Errorf("UnmarshalFrom() = %#v, but wanted %#v", got, a)
	}

	if typ := got.FileType(3); typ != FileTypeRegular {
		t.Errorf("FileType(3) = %d, but expected %d", typ, FileTypeRegular)
	}
}

func TestAttributesV4(t *testing.T) {
	a := Attributes{
		Flags: AttrSize | AttrModifyTime,
		Type:  FileTypeRegular,
		Size:  0x10,
		MTime: 0x2000,
	}

	var b Buffer
	a.MarshalInto(&b, 4)

	want := []byte{
		0x00, 0x00, 0x00, 0x21,
		0x01,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x20, 0x00,
	}

	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("MarshalInto() = %X, but wanted %X", b.Bytes(), want)
	}

	if a.Len(4) != len(want) {
		t.Errorf("Len(4) = %d, but expected %d", a.Len(4), len(want))
	}

	var got Attributes
	if err := got.UnmarshalFrom(NewBuffer(want), 4); err != nil {
		t.Fatal("unexpected error:", err)
	}

	if !reflect.DeepEqual(got, a) {
		t.Errorf("UnmarshalFrom() = %#v, but wanted %#v", got, a)
	}
}

func TestAttributesV6Subseconds(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x01, 0xA0, // modifytime | subsecond-times | owner-group
		0x01,
		0x00, 0x00, 0x00, 0x04, 'u', 's', 'e', 'r',
		0x00, 0x00, 0x00, 0x03, 'g', 'r', 'p',
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x20, 0x00,
		0x3B, 0x9A, 0xC9, 0xFF,
	}

	var a Attributes
	if err := a.UnmarshalFrom(NewBuffer(data), 6); err != nil {
		t.Fatal("unexpected error:", err)
	}

	if a.Owner != "user" || a.Group != "grp" {
		t.Errorf("Owner, Group = %q, %q", a.Owner, a.Group)
	}

	if a.MTime != 0x2000 || a.MTimeNSec != 999999999 {
		t.Errorf("MTime = %d.%d", a.MTime, a.MTimeNSec)
	}
}

func TestAttributesDummy(t *testing.T) {
	var a Attributes

	var b Buffer
	a.MarshalInto(&b, 3)

	want := []byte{0x00, 0x00, 0x00, 0x00}

	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("MarshalInto() = %X, but wanted %X", b.Bytes(), want)
	}
}
