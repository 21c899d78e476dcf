package openssh

import (
	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
)

// StatVFSExtendedPacket defines the statvfs@openssh.com extended packet.
type StatVFSExtendedPacket struct {
	RequestID uint32
	Path      string
}

// Len returns the number of bytes the packet-specific data would marshal into.
func (ep *StatVFSExtendedPacket) Len() int {
	// string(path)
	return 4 + len(ep.Path)
}

// MarshalInto encodes ep's packet-specific data onto the end of the given Buffer.
func (ep *StatVFSExtendedPacket) MarshalInto(buf *sshfx.Buffer) {
	buf.AppendString(ep.Path)
}

// MarshalPacket returns ep as a two-part binary encoding of the full extended packet.
func (ep *StatVFSExtendedPacket) MarshalPacket() (header, payload []byte, err error) {
	p := &sshfx.ExtendedPacket{
		RequestID:       ep.RequestID,
		ExtendedRequest: ExtensionNameStatVFS,

		Data: ep,
	}
	return p.MarshalPacket()
}

// FStatVFSExtendedPacket defines the fstatvfs@openssh.com extended packet.
type FStatVFSExtendedPacket struct {
	RequestID uint32
	Handle    string
}

// Len returns the number of bytes the packet-specific data would marshal into.
func (ep *FStatVFSExtendedPacket) Len() int {
	// string(handle)
	return 4 + len(ep.Handle)
}

// MarshalInto encodes ep's packet-specific data onto the end of the given Buffer.
func (ep *FStatVFSExtendedPacket) MarshalInto(buf *sshfx.Buffer) {
	buf.AppendString(ep.Handle)
}

// MarshalPacket returns ep as a two-part binary encoding of the full extended packet.
func (ep *FStatVFSExtendedPacket) MarshalPacket() (header, payload []byte, err error) {
	p := &sshfx.ExtendedPacket{
		RequestID:       ep.RequestID,
		ExtendedRequest: ExtensionNameFStatVFS,

		Data: ep,
	}
	return p.MarshalPacket()
}

// StatVFSExtendedReply defines the reply to the statvfs@openssh.com
// and fstatvfs@openssh.com extended packets: eleven uint64 values.
type StatVFSExtendedReply struct {
	BlockSize     uint64 // f_bsize
	FragmentSize  uint64 // f_frsize
	Blocks        uint64 // f_blocks
	BlocksFree    uint64 // f_bfree
	BlocksAvail   uint64 // f_bavail
	Files         uint64 // f_files
	FilesFree     uint64 // f_ffree
	FilesAvail    uint64 // f_favail
	FilesystemID  uint64 // f_fsid
	MountFlags    uint64 // f_flag
	MaxNameLength uint64 // f_namemax
}

// Len returns the number of bytes the reply data would marshal into.
func (er *StatVFSExtendedReply) Len() int {
	return 11 * 8
}

// MarshalInto encodes er onto the end of the given Buffer.
func (er *StatVFSExtendedReply) MarshalInto(buf *sshfx.Buffer) {
	buf.AppendUint64(er.BlockSize)
	buf.AppendUint64(er.FragmentSize)
	buf.AppendUint64(er.Blocks)
	buf.AppendUint64(er.BlocksFree)
	buf.AppendUint64(er.BlocksAvail)
	buf.AppendUint64(er.Files)
	buf.AppendUint64(er.FilesFree)
	buf.AppendUint64(er.FilesAvail)
	buf.AppendUint64(er.FilesystemID)
	buf.AppendUint64(er.MountFlags)
	buf.AppendUint64(er.MaxNameLength)
}

// UnmarshalFrom decodes the reply data from buf into er.
func (er *StatVFSExtendedReply) UnmarshalFrom(buf *sshfx.Buffer) (err error) {
	for _, v := range []*uint64{
		&er.BlockSize, &er.FragmentSize, &er.Blocks, &er.BlocksFree, &er.BlocksAvail,
		&er.Files, &er.FilesFree, &er.FilesAvail,
		&er.FilesystemID, &er.MountFlags, &er.MaxNameLength,
	} {
		if *v, err = buf.ConsumeUint64(); err != nil {
			return err
		}
	}

	return nil
}

// UnmarshalBinary decodes the reply data of a statvfs@openssh.com extended reply into er.
func (er *StatVFSExtendedReply) UnmarshalBinary(data []byte) error {
	return er.UnmarshalFrom(sshfx.NewBuffer(data))
}
