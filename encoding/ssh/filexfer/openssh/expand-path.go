package openssh

import (
	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
)

// ExpandPathExtendedPacket defines the expand-path@openssh.com extended packet.
//
// The reply is an SSH_FXP_NAME packet carrying exactly one entry.
type ExpandPathExtendedPacket struct {
	RequestID uint32
	Path      string
}

// Len returns the number of bytes the packet-specific data would marshal into.
func (ep *ExpandPathExtendedPacket) Len() int {
	// string(path)
	return 4 + len(ep.Path)
}

// MarshalInto encodes ep's packet-specific data onto the end of the given Buffer.
func (ep *ExpandPathExtendedPacket) MarshalInto(buf *sshfx.Buffer) {
	buf.AppendString(ep.Path)
}

// MarshalPacket returns ep as a two-part binary encoding of the full extended packet.
func (ep *ExpandPathExtendedPacket) MarshalPacket() (header, payload []byte, err error) {
	p := &sshfx.ExtendedPacket{
		RequestID:       ep.RequestID,
		ExtendedRequest: ExtensionNameExpandPath,

		Data: ep,
	}
	return p.MarshalPacket()
}
