package openssh

import (
	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
)

// FSyncExtendedPacket defines the fsync@openssh.com extended packet.
type FSyncExtendedPacket struct {
	RequestID uint32
	Handle    string
}

// Len returns the number of bytes the packet-specific data would marshal into.
func (ep *FSyncExtendedPacket) Len() int {
	// string(handle)
	return 4 + len(ep.Handle)
}

// MarshalInto encodes ep's packet-specific data onto the end of the given Buffer.
func (ep *FSyncExtendedPacket) MarshalInto(buf *sshfx.Buffer) {
	buf.AppendString(ep.Handle)
}

// MarshalPacket returns ep as a two-part binary encoding of the full extended packet.
func (ep *FSyncExtendedPacket) MarshalPacket() (header, payload []byte, err error) {
	p := &sshfx.ExtendedPacket{
		RequestID:       ep.RequestID,
		ExtendedRequest: ExtensionNameFSync,

		Data: ep,
	}
	return p.MarshalPacket()
}

// UnmarshalFrom decodes the packet-specific data from buf into ep.
func (ep *FSyncExtendedPacket) UnmarshalFrom(buf *sshfx.Buffer) (err error) {
	if ep.Handle, err = buf.ConsumeString(); err != nil {
		return err
	}

	return nil
}
