package filexfer

// SSH_FXF_* flags, protocol versions 3 and 4.
const (
	FlagRead      = 1 << iota // SSH_FXF_READ
	FlagWrite                 // SSH_FXF_WRITE
	FlagAppend                // SSH_FXF_APPEND
	FlagCreate                // SSH_FXF_CREAT
	FlagTruncate              // SSH_FXF_TRUNC
	FlagExclusive             // SSH_FXF_EXCL
)

// ACE4_* desired-access bits, protocol versions 5 and 6.
//
// Defined in: https://tools.ietf.org/html/draft-ietf-secsh-filexfer-13#section-8.1.1
const (
	AceReadData   = 0x00000001 // ACE4_READ_DATA
	AceWriteData  = 0x00000002 // ACE4_WRITE_DATA
	AceAppendData = 0x00000004 // ACE4_APPEND_DATA
	AceReadAttrs  = 0x00000080 // ACE4_READ_ATTRIBUTES
	AceWriteAttrs = 0x00000100 // ACE4_WRITE_ATTRIBUTES
)

// SSH_FXF_* access-disposition values and flags, protocol versions 5 and 6.
//
// Defined in: https://tools.ietf.org/html/draft-ietf-secsh-filexfer-13#section-8.1.1.3
const (
	DispCreateNew        = 0x00000000 // SSH_FXF_CREATE_NEW
	DispCreateTruncate   = 0x00000001 // SSH_FXF_CREATE_TRUNCATE
	DispOpenExisting     = 0x00000002 // SSH_FXF_OPEN_EXISTING
	DispOpenOrCreate     = 0x00000003 // SSH_FXF_OPEN_OR_CREATE
	DispTruncateExisting = 0x00000004 // SSH_FXF_TRUNCATE_EXISTING

	DispositionMask = 0x00000007 // SSH_FXF_ACCESS_DISPOSITION
)

// OpenPacket defines the SSH_FXP_OPEN packet for protocol versions 3 and 4.
type OpenPacket struct {
	RequestID uint32
	Filename  string
	PFlags    uint32
	Attrs     Attributes

	// Version selects the attribute wire layout; zero means version 3.
	Version uint32
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *OpenPacket) MarshalPacket() (header, payload []byte, err error) {
	version := p.Version
	if version == 0 {
		version = 3
	}

	// string(filename) + uint32(pflags) + ATTRS(attrs)
	size := 4 + len(p.Filename) + 4 + p.Attrs.Len(version)

	b := NewMarshalBuffer(PacketTypeOpen, p.RequestID, size)

	b.AppendString(p.Filename)
	b.AppendUint32(p.PFlags)

	p.Attrs.MarshalInto(b, version)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *OpenPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// OpenV5Packet defines the SSH_FXP_OPEN packet for protocol versions 5 and 6,
// which replaced the pflags bitset with an ACE4 desired-access mask plus disposition flags.
type OpenV5Packet struct {
	RequestID     uint32
	Filename      string
	DesiredAccess uint32
	Flags         uint32
	Attrs         Attributes

	// Version selects the attribute wire layout; zero means version 5.
	Version uint32
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *OpenV5Packet) MarshalPacket() (header, payload []byte, err error) {
	version := p.Version
	if version == 0 {
		version = 5
	}

	// string(filename) + uint32(desired-access) + uint32(flags) + ATTRS(attrs)
	size := 4 + len(p.Filename) + 4 + 4 + p.Attrs.Len(version)

	b := NewMarshalBuffer(PacketTypeOpen, p.RequestID, size)

	b.AppendString(p.Filename)
	b.AppendUint32(p.DesiredAccess)
	b.AppendUint32(p.Flags)

	p.Attrs.MarshalInto(b, version)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *OpenV5Packet) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// OpenDirPacket defines the SSH_FXP_OPENDIR packet.
type OpenDirPacket struct {
	RequestID uint32
	Path      string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *OpenDirPacket) MarshalPacket() (header, payload []byte, err error) {
	size := 4 + len(p.Path) // string(path)

	b := NewMarshalBuffer(PacketTypeOpenDir, p.RequestID, size)

	b.AppendString(p.Path)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *OpenDirPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}
