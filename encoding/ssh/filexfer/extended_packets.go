package filexfer

// ExtendedData defines the behavior of the request-specific data of an SSH_FXP_EXTENDED packet.
type ExtendedData interface {
	Len() int
	MarshalInto(buf *Buffer)
}

// ExtendedPacket defines the SSH_FXP_EXTENDED packet.
type ExtendedPacket struct {
	RequestID       uint32
	ExtendedRequest string

	// Data is the request-specific data; it may be nil.
	Data ExtendedData
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *ExtendedPacket) MarshalPacket() (header, payload []byte, err error) {
	size := 4 + len(p.ExtendedRequest) // string(extended-request)

	if p.Data != nil {
		size += p.Data.Len()
	}

	b := NewMarshalBuffer(PacketTypeExtended, p.RequestID, size)

	b.AppendString(p.ExtendedRequest)

	if p.Data != nil {
		p.Data.MarshalInto(b)
	}

	return b.Packet(payload)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *ExtendedPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// ExtendedReplyPacket defines the SSH_FXP_EXTENDED_REPLY packet.
//
// The reply data is extension specific, and so is left as raw bytes
// for the caller to decode with the matching extension type.
type ExtendedReplyPacket struct {
	RequestID uint32
	Data      []byte
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *ExtendedReplyPacket) MarshalPacket() (header, payload []byte, err error) {
	b := NewMarshalBuffer(PacketTypeExtendedReply, p.RequestID, 0)

	return b.Packet(p.Data)
}

// MarshalBinary returns p as the binary encoding of p.
func (p *ExtendedReplyPacket) MarshalBinary() ([]byte, error) {
	return ComposePacket(p.MarshalPacket())
}

// UnmarshalPacketBody unmarshals the packet body from the given Buffer.
// It is assumed that the uint32(request-id) has already been consumed.
//
// NOTE: To avoid extra allocations, UnmarshalPacketBody aliases the underlying Buffer’s byte slice.
func (p *ExtendedReplyPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	p.Data = buf.Bytes()
	return nil
}
