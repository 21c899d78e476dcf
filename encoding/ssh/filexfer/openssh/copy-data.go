package openssh

import (
	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
)

// CopyDataExtendedPacket defines the copy-data extended packet
// from draft-ietf-secsh-filexfer-extensions-00 section 7.
type CopyDataExtendedPacket struct {
	RequestID    uint32
	ReadHandle   string
	ReadOffset   uint64
	ReadLength   uint64
	WriteHandle  string
	WriteOffset  uint64
}

// Len returns the number of bytes the packet-specific data would marshal into.
func (ep *CopyDataExtendedPacket) Len() int {
	// string(read-from-handle) + uint64(read-from-offset) + uint64(read-data-length)
	// + string(write-to-handle) + uint64(write-to-offset)
	return 4 + len(ep.ReadHandle) + 8 + 8 + 4 + len(ep.WriteHandle) + 8
}

// MarshalInto encodes ep's packet-specific data onto the end of the given Buffer.
func (ep *CopyDataExtendedPacket) MarshalInto(buf *sshfx.Buffer) {
	buf.AppendString(ep.ReadHandle)
	buf.AppendUint64(ep.ReadOffset)
	buf.AppendUint64(ep.ReadLength)
	buf.AppendString(ep.WriteHandle)
	buf.AppendUint64(ep.WriteOffset)
}

// MarshalPacket returns ep as a two-part binary encoding of the full extended packet.
func (ep *CopyDataExtendedPacket) MarshalPacket() (header, payload []byte, err error) {
	p := &sshfx.ExtendedPacket{
		RequestID:       ep.RequestID,
		ExtendedRequest: ExtensionNameCopyData,

		Data: ep,
	}
	return p.MarshalPacket()
}
