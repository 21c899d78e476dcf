package openssh

import (
	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
)

// LSetstatExtendedPacket defines the lsetstat@openssh.com extended packet.
type LSetstatExtendedPacket struct {
	RequestID uint32
	Path      string
	Attrs     sshfx.Attributes
}

// Len returns the number of bytes the packet-specific data would marshal into.
func (ep *LSetstatExtendedPacket) Len() int {
	// string(path) + ATTRS(attrs); lsetstat is a v3-era extension, so v3 layout.
	return 4 + len(ep.Path) + ep.Attrs.Len(3)
}

// MarshalInto encodes ep's packet-specific data onto the end of the given Buffer.
func (ep *LSetstatExtendedPacket) MarshalInto(buf *sshfx.Buffer) {
	buf.AppendString(ep.Path)
	ep.Attrs.MarshalInto(buf, 3)
}

// MarshalPacket returns ep as a two-part binary encoding of the full extended packet.
func (ep *LSetstatExtendedPacket) MarshalPacket() (header, payload []byte, err error) {
	p := &sshfx.ExtendedPacket{
		RequestID:       ep.RequestID,
		ExtendedRequest: ExtensionNameLSetstat,

		Data: ep,
	}
	return p.MarshalPacket()
}
