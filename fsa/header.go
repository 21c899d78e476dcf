package fsa

import (
	"encoding/binary"
)

// HeaderSize is the byte length of the file header, identical across
// layout versions.
const HeaderSize = 16

// Header is the typed form of the status-file header.
//
// On-disk layout:
//
//	offset  0  u32  record count
//	offset  4  u8   feature byte
//	offset  5  u8   ignore-first-errors (meaningful since version 3)
//	offset  6  u8   reserved
//	offset  7  u8   layout version
//	offset  8  u32  page size of the writing system
//	offset 12  4x   reserved
type Header struct {
	Records           uint32
	Feature           uint8
	IgnoreFirstErrors uint8
	Version           uint8
	PageSize          uint32
}

// MarshalBinary encodes h into its 16-byte on-disk form.
func (h *Header) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderSize)

	binary.LittleEndian.PutUint32(b[0:4], h.Records)
	b[4] = h.Feature
	b[5] = h.IgnoreFirstErrors
	b[7] = h.Version
	binary.LittleEndian.PutUint32(b[8:12], h.PageSize)

	return b, nil
}

// UnmarshalBinary decodes the on-disk header form into h.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return ErrEmptyFile
	}

	h.Records = binary.LittleEndian.Uint32(data[0:4])
	h.Feature = data[4]
	h.IgnoreFirstErrors = data[5]
	h.Version = data[7]
	h.PageSize = binary.LittleEndian.Uint32(data[8:12])

	return nil
}
