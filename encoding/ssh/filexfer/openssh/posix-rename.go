package openssh

import (
	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
)

// POSIXRenameExtendedPacket defines the posix-rename@openssh.com extended packet.
type POSIXRenameExtendedPacket struct {
	RequestID uint32
	OldPath   string
	NewPath   string
}

// Len returns the number of bytes the packet-specific data would marshal into.
func (ep *POSIXRenameExtendedPacket) Len() int {
	// string(oldpath) + string(newpath)
	return 4 + len(ep.OldPath) + 4 + len(ep.NewPath)
}

// MarshalInto encodes ep's packet-specific data onto the end of the given Buffer.
func (ep *POSIXRenameExtendedPacket) MarshalInto(buf *sshfx.Buffer) {
	buf.AppendString(ep.OldPath)
	buf.AppendString(ep.NewPath)
}

// MarshalPacket returns ep as a two-part binary encoding of the full extended packet.
func (ep *POSIXRenameExtendedPacket) MarshalPacket() (header, payload []byte, err error) {
	p := &sshfx.ExtendedPacket{
		RequestID:       ep.RequestID,
		ExtendedRequest: ExtensionNamePOSIXRename,

		Data: ep,
	}
	return p.MarshalPacket()
}

// UnmarshalFrom decodes the packet-specific data from buf into ep.
func (ep *POSIXRenameExtendedPacket) UnmarshalFrom(buf *sshfx.Buffer) (err error) {
	if ep.OldPath, err = buf.ConsumeString(); err != nil {
		return err
	}

	if ep.NewPath, err = buf.ConsumeString(); err != nil {
		return err
	}

	return nil
}
