package filexfer

// ClosePacket defines the SSH_FXP_CLOSE packet.
type ClosePacket struct {
	RequestID uint32
	Handle    string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *ClosePacket) MarshalPacket() (header, payload []byte, err error) {
	size := 4 + len(p.Handle) // string(handle)

	b := NewMarshalBuffer(PacketTypeClose, p.RequestID, size)

	b.AppendString(p.Handle)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *ClosePacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// ReadPacket defines the SSH_FXP_READ packet.
type ReadPacket struct {
	RequestID uint32
	Handle    string
	Offset    uint64
	Len       uint32
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *ReadPacket) MarshalPacket() (header, payload []byte, err error) {
	// string(handle) + uint64(offset) + uint32(len)
	size := 4 + len(p.Handle) + 8 + 4

	b := NewMarshalBuffer(PacketTypeRead, p.RequestID, size)

	b.AppendString(p.Handle)
	b.AppendUint64(p.Offset)
	b.AppendUint32(p.Len)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *ReadPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// WritePacket defines the SSH_FXP_WRITE packet.
type WritePacket struct {
	RequestID uint32
	Handle    string
	Offset    uint64
	Data      []byte
}

// MarshalPacket returns p as a two-part binary encoding of p.
//
// The data is passed through as the payload, and is not copied.
func (p *WritePacket) MarshalPacket() (header, payload []byte, err error) {
	// string(handle) + uint64(offset) + uint32(len(data)); data content in payload
	size := 4 + len(p.Handle) + 8 + 4

	b := NewMarshalBuffer(PacketTypeWrite, p.RequestID, size)

	b.AppendString(p.Handle)
	b.AppendUint64(p.Offset)
	b.AppendUint32(uint32(len(p.Data)))

	return b.Packet(p.Data)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *WritePacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// FStatPacket defines the SSH_FXP_FSTAT packet.
type FStatPacket struct {
	RequestID uint32
	Handle    string

	// Flags is the requested attribute mask; marshaled for protocol version 6 only.
	Flags   uint32
	Version uint32
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *FStatPacket) MarshalPacket() (header, payload []byte, err error) {
	size := 4 + len(p.Handle) // string(handle)

	if p.Version >= 6 {
		size += 4 // uint32(flags)
	}

	b := NewMarshalBuffer(PacketTypeFStat, p.RequestID, size)

	b.AppendString(p.Handle)

	if p.Version >= 6 {
		b.AppendUint32(p.Flags)
	}

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *FStatPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// FSetstatPacket defines the SSH_FXP_FSETSTAT packet.
type FSetstatPacket struct {
	RequestID uint32
	Handle    string
	Attrs     Attributes

	// Version selects the attribute wire layout; zero means version 3.
	Version uint32
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *FSetstatPacket) MarshalPacket() (header, payload []byte, err error) {
	version := p.Version
	if version == 0 {
		version = 3
	}

	size := 4 + len(p.Handle) + p.Attrs.Len(version) // string(handle) + ATTRS(attrs)

	b := NewMarshalBuffer(PacketTypeFSetstat, p.RequestID, size)

	b.AppendString(p.Handle)

	p.Attrs.MarshalInto(b, version)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *FSetstatPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// ReadDirPacket defines the SSH_FXP_READDIR packet.
type ReadDirPacket struct {
	RequestID uint32
	Handle    string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *ReadDirPacket) MarshalPacket() (header, payload []byte, err error) {
	size := 4 + len(p.Handle) // string(handle)

	b := NewMarshalBuffer(PacketTypeReadDir, p.RequestID, size)

	b.AppendString(p.Handle)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *ReadDirPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}
