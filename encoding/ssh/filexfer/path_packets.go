package filexfer

// SSH_FXF_RENAME_* flags, protocol version 6.
//
// Defined in: https://tools.ietf.org/html/draft-ietf-secsh-filexfer-13#section-8.3
const (
	RenameOverwrite = 1 << iota // SSH_FXP_RENAME_OVERWRITE
	RenameAtomic                // SSH_FXP_RENAME_ATOMIC
	RenameNative                // SSH_FXP_RENAME_NATIVE
)

// LStatPacket defines the SSH_FXP_LSTAT packet.
type LStatPacket struct {
	RequestID uint32
	Path      string

	// Flags is the requested attribute mask; marshaled for protocol version 6 only.
	Flags   uint32
	Version uint32
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *LStatPacket) MarshalPacket() (header, payload []byte, err error) {
	size := 4 + len(p.Path) // string(path)

	if p.Version >= 6 {
		size += 4 // uint32(flags)
	}

	b := NewMarshalBuffer(PacketTypeLStat, p.RequestID, size)

	b.AppendString(p.Path)

	if p.Version >= 6 {
		b.AppendUint32(p.Flags)
	}

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *LStatPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// StatPacket defines the SSH_FXP_STAT packet.
type StatPacket struct {
	RequestID uint32
	Path      string

	// Flags is the requested attribute mask; marshaled for protocol version 6 only.
	Flags   uint32
	Version uint32
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *StatPacket) MarshalPacket() (header, payload []byte, err error) {
	size := 4 + len(p.Path) // string(path)

	if p.Version >= 6 {
		size += 4 // uint32(flags)
	}

	b := NewMarshalBuffer(PacketTypeStat, p.RequestID, size)

	b.AppendString(p.Path)

	if p.Version >= 6 {
		b.AppendUint32(p.Flags)
	}

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *StatPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// SetstatPacket defines the SSH_FXP_SETSTAT packet.
type SetstatPacket struct {
	RequestID uint32
	Path      string
	Attrs     Attributes

	// Version selects the attribute wire layout; zero means version 3.
	Version uint32
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *SetstatPacket) MarshalPacket() (header, payload []byte, err error) {
	version := p.Version
	if version == 0 {
		version = 3
	}

	size := 4 + len(p.Path) + p.Attrs.Len(version) // string(path) + ATTRS(attrs)

	b := NewMarshalBuffer(PacketTypeSetstat, p.RequestID, size)

	b.AppendString(p.Path)

	p.Attrs.MarshalInto(b, version)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *SetstatPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// RemovePacket defines the SSH_FXP_REMOVE packet.
type RemovePacket struct {
	RequestID uint32
	Path      string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *RemovePacket) MarshalPacket() (header, payload []byte, err error) {
	size := 4 + len(p.Path) // string(path)

	b := NewMarshalBuffer(PacketTypeRemove, p.RequestID, size)

	b.AppendString(p.Path)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *RemovePacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// MkdirPacket defines the SSH_FXP_MKDIR packet.
type MkdirPacket struct {
	RequestID uint32
	Path      string
	Attrs     Attributes

	// Version selects the attribute wire layout; zero means version 3.
	Version uint32
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *MkdirPacket) MarshalPacket() (header, payload []byte, err error) {
	version := p.Version
	if version == 0 {
		version = 3
	}

	size := 4 + len(p.Path) + p.Attrs.Len(version) // string(path) + ATTRS(attrs)

	b := NewMarshalBuffer(PacketTypeMkdir, p.RequestID, size)

	b.AppendString(p.Path)

	p.Attrs.MarshalInto(b, version)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *MkdirPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// RmdirPacket defines the SSH_FXP_RMDIR packet.
type RmdirPacket struct {
	RequestID uint32
	Path      string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *RmdirPacket) MarshalPacket() (header, payload []byte, err error) {
	size := 4 + len(p.Path) // string(path)

	b := NewMarshalBuffer(PacketTypeRmdir, p.RequestID, size)

	b.AppendString(p.Path)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *RmdirPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// RealPathPacket defines the SSH_FXP_REALPATH packet.
type RealPathPacket struct {
	RequestID uint32
	Path      string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *RealPathPacket) MarshalPacket() (header, payload []byte, err error) {
	size := 4 + len(p.Path) // string(path)

	b := NewMarshalBuffer(PacketTypeRealPath, p.RequestID, size)

	b.AppendString(p.Path)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *RealPathPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// RenamePacket defines the SSH_FXP_RENAME packet.
type RenamePacket struct {
	RequestID uint32
	OldPath   string
	NewPath   string

	// Flags is the rename flag bitset; marshaled for protocol version 6 only.
	Flags   uint32
	Version uint32
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *RenamePacket) MarshalPacket() (header, payload []byte, err error) {
	// string(oldpath) + string(newpath)
	size := 4 + len(p.OldPath) + 4 + len(p.NewPath)

	if p.Version >= 6 {
		size += 4 // uint32(flags)
	}

	b := NewMarshalBuffer(PacketTypeRename, p.RequestID, size)

	b.AppendString(p.OldPath)
	b.AppendString(p.NewPath)

	if p.Version >= 6 {
		b.AppendUint32(p.Flags)
	}

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *RenamePacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// ReadLinkPacket defines the SSH_FXP_READLINK packet.
type ReadLinkPacket struct {
	RequestID uint32
	Path      string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *ReadLinkPacket) MarshalPacket() (header, payload []byte, err error) {
	size := 4 + len(p.Path) // string(path)

	b := NewMarshalBuffer(PacketTypeReadLink, p.RequestID, size)

	b.AppendString(p.Path)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *ReadLinkPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// SymlinkPacket defines the SSH_FXP_SYMLINK packet.
//
// The wire encoding deliberately matches the openssh sftp-server,
// which transposed the draft's linkpath and targetpath fields.
type SymlinkPacket struct {
	RequestID  uint32
	LinkPath   string
	TargetPath string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *SymlinkPacket) MarshalPacket() (header, payload []byte, err error) {
	// string(targetpath) + string(linkpath)
	size := 4 + len(p.TargetPath) + 4 + len(p.LinkPath)

	b := NewMarshalBuffer(PacketTypeSymlink, p.RequestID, size)

	// Arguments were inadvertently reversed in the openssh implementation.
	b.AppendString(p.TargetPath)
	b.AppendString(p.LinkPath)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *SymlinkPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// LinkPacket defines the SSH_FXP_LINK packet, protocol version 6.
type LinkPacket struct {
	RequestID uint32
	NewPath   string
	ExistPath string
	Symlink   bool
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *LinkPacket) MarshalPacket() (header, payload []byte, err error) {
	// string(new-link-path) + string(existing-path) + bool(sym-link)
	size := 4 + len(p.NewPath) + 4 + len(p.ExistPath) + 1

	b := NewMarshalBuffer(PacketTypeLink, p.RequestID, size)

	b.AppendString(p.NewPath)
	b.AppendString(p.ExistPath)
	b.AppendBool(p.Symlink)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *LinkPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}
