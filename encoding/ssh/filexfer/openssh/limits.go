package openssh

import (
	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
)

// LimitsExtendedPacket defines the limits@openssh.com extended packet.
// It carries no packet-specific data.
type LimitsExtendedPacket struct {
	RequestID uint32
}

// MarshalPacket returns ep as a two-part binary encoding of the full extended packet.
func (ep *LimitsExtendedPacket) MarshalPacket() (header, payload []byte, err error) {
	p := &sshfx.ExtendedPacket{
		RequestID:       ep.RequestID,
		ExtendedRequest: ExtensionNameLimits,
	}
	return p.MarshalPacket()
}

// LimitsExtendedReply defines the limits@openssh.com extended reply:
// exactly four uint64 values in fixed order.
type LimitsExtendedReply struct {
	MaxPacketLength uint64
	MaxReadLength   uint64
	MaxWriteLength  uint64
	MaxOpenHandles  uint64
}

// Len returns the number of bytes the reply data would marshal into.
func (er *LimitsExtendedReply) Len() int {
	return 4 * 8
}

// MarshalInto encodes er onto the end of the given Buffer.
func (er *LimitsExtendedReply) MarshalInto(buf *sshfx.Buffer) {
	buf.AppendUint64(er.MaxPacketLength)
	buf.AppendUint64(er.MaxReadLength)
	buf.AppendUint64(er.MaxWriteLength)
	buf.AppendUint64(er.MaxOpenHandles)
}

// UnmarshalFrom decodes the reply data from buf into er.
func (er *LimitsExtendedReply) UnmarshalFrom(buf *sshfx.Buffer) (err error) {
	if er.MaxPacketLength, err = buf.ConsumeUint64(); err != nil {
		return err
	}

	if er.MaxReadLength, err = buf.ConsumeUint64(); err != nil {
		return err
	}

	if er.MaxWriteLength, err = buf.ConsumeUint64(); err != nil {
		return err
	}

	if er.MaxOpenHandles, err = buf.ConsumeUint64(); err != nil {
		return err
	}

	return nil
}

// UnmarshalBinary decodes the reply data of a limits@openssh.com extended reply into er.
func (er *LimitsExtendedReply) UnmarshalBinary(data []byte) error {
	return er.UnmarshalFrom(sshfx.NewBuffer(data))
}
