package filexfer

// StatusPacket defines the SSH_FXP_STATUS packet.
//
// Specified in https://tools.ietf.org/html/draft-ietf-secsh-filexfer-02#section-7
type StatusPacket struct {
	RequestID    uint32
	StatusCode   Status
	ErrorMessage string
	LanguageTag  string
}

// Error makes StatusPacket an error type.
func (p *StatusPacket) Error() string {
	if p.ErrorMessage == "" {
		return "sftp: " + p.StatusCode.String()
	}

	return "sftp: " + p.ErrorMessage + " (" + p.StatusCode.String() + ")"
}

// Is returns true if target is a Status code equal to p's status code.
func (p *StatusPacket) Is(target error) bool {
	if target, ok := target.(Status); ok {
		return target == p.StatusCode
	}
	return false
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *StatusPacket) MarshalPacket() (header, payload []byte, err error) {
	// uint32(error/status code) + string(error message) + string(language tag)
	size := 4 + 4 + len(p.ErrorMessage) + 4 + len(p.LanguageTag)

	b := NewMarshalBuffer(PacketTypeStatus, p.RequestID, size)

	b.AppendUint32(uint32(p.StatusCode))
	b.AppendString(p.ErrorMessage)
	b.AppendString(p.LanguageTag)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *StatusPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// UnmarshalPacketBody unmarshals the packet body from the given Buffer.
// It is assumed that the uint32(request-id) has already been consumed.
//
// Servers of protocol version 3 vintage have been observed to omit
// the message and language tag; both default to empty.
func (p *StatusPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	statusCode, err := buf.ConsumeUint32()
	if err != nil {
		return err
	}
	p.StatusCode = Status(statusCode)

	if buf.Len() == 0 {
		p.ErrorMessage, p.LanguageTag = "", ""
		return nil
	}

	if p.ErrorMessage, err = buf.ConsumeString(); err != nil {
		return err
	}

	if p.LanguageTag, err = buf.ConsumeString(); err != nil {
		return err
	}

	return nil
}

// HandlePacket defines the SSH_FXP_HANDLE packet.
type HandlePacket struct {
	RequestID uint32
	Handle    string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *HandlePacket) MarshalPacket() (header, payload []byte, err error) {
	size := 4 + len(p.Handle) // string(handle)

	b := NewMarshalBuffer(PacketTypeHandle, p.RequestID, size)

	b.AppendString(p.Handle)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *HandlePacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// UnmarshalPacketBody unmarshals the packet body from the given Buffer.
// It is assumed that the uint32(request-id) has already been consumed.
func (p *HandlePacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	if p.Handle, err = buf.ConsumeString(); err != nil {
		return err
	}

	return nil
}

// DataPacket defines the SSH_FXP_DATA packet.
type DataPacket struct {
	RequestID uint32
	Data      []byte

	// EOF mirrors the optional end-of-file marker of protocol version 6.
	EOF bool
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *DataPacket) MarshalPacket() (header, payload []byte, err error) {
	size := 4 // uint32(len(data)); data content in payload

	b := NewMarshalBuffer(PacketTypeData, p.RequestID, size)

	b.AppendUint32(uint32(len(p.Data)))

	return b.Packet(p.Data)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *DataPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// UnmarshalPacketBody unmarshals the packet body from the given Buffer.
// It is assumed that the uint32(request-id) has already been consumed.
func (p *DataPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	if p.Data, err = buf.ConsumeByteSlice(); err != nil {
		return err
	}

	if buf.Len() > 0 {
		if p.EOF, err = buf.ConsumeBool(); err != nil {
			return err
		}
	}

	return nil
}

// NamePacket defines the SSH_FXP_NAME packet.
type NamePacket struct {
	RequestID uint32
	Entries   []*NameEntry
}

// MarshalPacket returns p as a two-part binary encoding of p
// for the given protocol version.
func (p *NamePacket) MarshalPacket(version uint32) (header, payload []byte, err error) {
	size := 4 // uint32(count)

	for _, e := range p.Entries {
		size += e.Len(version)
	}

	b := NewMarshalBuffer(PacketTypeName, p.RequestID, size)

	b.AppendUint32(uint32(len(p.Entries)))

	for _, e := range p.Entries {
		e.MarshalInto(b, version)
	}

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p for the given protocol version.
func (p *NamePacket) MarshalBinary(version uint32) ([]byte, error) {
	return ComposePacket(p.MarshalPacket(version))
}

// UnmarshalPacketBody unmarshals the packet body from the given Buffer
// using the name-entry layout of the given protocol version.
// It is assumed that the uint32(request-id) has already been consumed.
func (p *NamePacket) UnmarshalPacketBody(buf *Buffer, version uint32) (err error) {
	count, err := buf.ConsumeUint32()
	if err != nil {
		return err
	}

	p.Entries = make([]*NameEntry, 0, count)

	for i := uint32(0); i < count; i++ {
		var e NameEntry
		if err := e.UnmarshalFrom(buf, version); err != nil {
			return err
		}

		p.Entries = append(p.Entries, &e)
	}

	return nil
}

// AttrsPacket defines the SSH_FXP_ATTRS packet.
type AttrsPacket struct {
	RequestID uint32
	Attrs     Attributes
}

// MarshalPacket returns p as a two-part binary encoding of p
// for the given protocol version.
func (p *AttrsPacket) MarshalPacket(version uint32) (header, payload []byte, err error) {
	size := p.Attrs.Len(version) // ATTRS(attrs)

	b := NewMarshalBuffer(PacketTypeAttrs, p.RequestID, size)

	p.Attrs.MarshalInto(b, version)

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p for the given protocol version.
func (p *AttrsPacket) MarshalBinary(version uint32) ([]byte, error) {
	return ComposePacket(p.MarshalPacket(version))
}

// UnmarshalPacketBody unmarshals the packet body from the given Buffer
// using the attribute layout of the given protocol version.
// It is assumed that the uint32(request-id) has already been consumed.
func (p *AttrsPacket) UnmarshalPacketBody(buf *Buffer, version uint32) (err error) {
	return p.Attrs.UnmarshalFrom(buf, version)
}
