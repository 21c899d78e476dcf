package sftpc

import (
	"encoding/binary"

	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
)

// nextRequestID increments and returns the session request-id counter.
// Every request carries a unique id within the session; the counter is
// bumped before each send so id 0 is never on the wire.
func (s *Session) nextRequestID() uint32 {
	s.requestID++
	return s.requestID
}

// sendPacket marshals p and writes its frame to the pipe in program order.
func (s *Session) sendPacket(p sshfx.Packet) error {
	header, payload, err := p.MarshalPacket()
	if err != nil {
		return err
	}

	if err := s.pipe.writeAll(header); err != nil {
		return err
	}

	if len(payload) > 0 {
		return s.pipe.writeAll(payload)
	}

	return nil
}

// recvFrame reads one length-prefixed frame and returns its body
// (type byte onward). A declared length above the current cap grows the
// cap up to MaxBlocksize; anything beyond that is an oversized frame.
func (s *Session) recvFrame() ([]byte, error) {
	var lenBuf [4]byte
	if err := s.pipe.readExact(lenBuf[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(lenBuf[:])

	if length > s.maxFrame {
		if length > MaxBlocksize {
			return nil, &OversizedFrameError{Length: length}
		}

		s.maxFrame = length
	}

	if length == 0 {
		return nil, sshfx.ErrShortPacket
	}

	body := make([]byte, length)
	if err := s.pipe.readExact(body); err != nil {
		return nil, err
	}

	return body, nil
}

// recvPacket reads one frame and splits it into type, request id and payload.
func (s *Session) recvPacket() (*sshfx.RawPacket, error) {
	body, err := s.recvFrame()
	if err != nil {
		return nil, err
	}

	var raw sshfx.RawPacket
	if err := raw.UnmarshalBinary(body); err != nil {
		return nil, err
	}

	if s.debug >= DebugFullTrace {
		s.log.Trace().
			Stringer("type", raw.Type).
			Uint32("id", raw.RequestID).
			Int("len", len(raw.Payload)).
			Msg("reply")
	}

	return &raw, nil
}

// awaitReply returns the reply carrying the given request id.
//
// Replies for other ids are parked in the stored-reply table so that a
// later waiter finds them without further I/O. The table is bounded by
// the server's max-open-handles (capped at maxReplyBuffer); overflowing
// it fails the current waiter without evicting earlier replies.
func (s *Session) awaitReply(id uint32) (*sshfx.RawPacket, error) {
	if raw, ok := s.stored[id]; ok {
		delete(s.stored, id)
		return raw, nil
	}

	for {
		raw, err := s.recvPacket()
		if err != nil {
			return nil, err
		}

		if raw.RequestID == id {
			return raw, nil
		}

		if len(s.stored) >= s.maxStored {
			return nil, ErrTooManyOutstanding
		}

		s.stored[raw.RequestID] = raw
	}
}

// expectStatus awaits the reply for id and requires it to be a STATUS.
// SSH_FX_OK maps to nil; any other code is returned as the *StatusPacket,
// which satisfies errors.Is against the sshfx Status sentinels.
func (s *Session) expectStatus(id uint32) error {
	raw, err := s.awaitReply(id)
	if err != nil {
		return err
	}

	return s.statusFromRaw(raw)
}

func (s *Session) statusFromRaw(raw *sshfx.RawPacket) error {
	if raw.Type != sshfx.PacketTypeStatus {
		return unexpectedReply(sshfx.PacketTypeStatus, raw)
	}

	var status sshfx.StatusPacket
	if err := status.UnmarshalPacketBody(sshfx.NewBuffer(raw.Payload)); err != nil {
		return err
	}

	if status.StatusCode == sshfx.StatusOK {
		return nil
	}

	status.RequestID = raw.RequestID
	return &status
}

// expectHandle awaits a HANDLE reply. A STATUS reply is converted to an error.
func (s *Session) expectHandle(id uint32) (string, error) {
	raw, err := s.awaitReply(id)
	if err != nil {
		return "", err
	}

	switch raw.Type {
	case sshfx.PacketTypeHandle:
		var p sshfx.HandlePacket
		if err := p.UnmarshalPacketBody(sshfx.NewBuffer(raw.Payload)); err != nil {
			return "", err
		}
		return p.Handle, nil

	case sshfx.PacketTypeStatus:
		if err := s.statusFromRaw(raw); err != nil {
			return "", err
		}
		return "", unexpectedReply(sshfx.PacketTypeHandle, raw)

	default:
		return "", unexpectedReply(sshfx.PacketTypeHandle, raw)
	}
}

// expectAttrs awaits an ATTRS reply. A STATUS reply is converted to an error.
func (s *Session) expectAttrs(id uint32) (*sshfx.Attributes, error) {
	raw, err := s.awaitReply(id)
	if err != nil {
		return nil, err
	}

	switch raw.Type {
	case sshfx.PacketTypeAttrs:
		var p sshfx.AttrsPacket
		if err := p.UnmarshalPacketBody(sshfx.NewBuffer(raw.Payload), s.version); err != nil {
			return nil, err
		}
		return &p.Attrs, nil

	case sshfx.PacketTypeStatus:
		if err := s.statusFromRaw(raw); err != nil {
			return nil, err
		}
		return nil, unexpectedReply(sshfx.PacketTypeAttrs, raw)

	default:
		return nil, unexpectedReply(sshfx.PacketTypeAttrs, raw)
	}
}

// expectName awaits a NAME reply. A STATUS reply is converted to an error,
// including SSH_FX_EOF, which readdir callers check for.
func (s *Session) expectName(id uint32) ([]*sshfx.NameEntry, error) {
	raw, err := s.awaitReply(id)
	if err != nil {
		return nil, err
	}

	switch raw.Type {
	case sshfx.PacketTypeName:
		var p sshfx.NamePacket
		if err := p.UnmarshalPacketBody(sshfx.NewBuffer(raw.Payload), s.version); err != nil {
			return nil, err
		}
		return p.Entries, nil

	case sshfx.PacketTypeStatus:
		if err := s.statusFromRaw(raw); err != nil {
			return nil, err
		}
		return nil, unexpectedReply(sshfx.PacketTypeName, raw)

	default:
		return nil, unexpectedReply(sshfx.PacketTypeName, raw)
	}
}

// expectOneName awaits a NAME reply carrying exactly one entry.
func (s *Session) expectOneName(id uint32) (*sshfx.NameEntry, error) {
	entries, err := s.expectName(id)
	if err != nil {
		return nil, err
	}

	if len(entries) != 1 {
		return nil, sshfx.ErrShortPacket
	}

	return entries[0], nil
}

// expectExtendedReply awaits an EXTENDED_REPLY and returns its raw data.
func (s *Session) expectExtendedReply(id uint32) ([]byte, error) {
	raw, err := s.awaitReply(id)
	if err != nil {
		return nil, err
	}

	switch raw.Type {
	case sshfx.PacketTypeExtendedReply:
		return raw.Payload, nil

	case sshfx.PacketTypeStatus:
		if err := s.statusFromRaw(raw); err != nil {
			return nil, err
		}
		return nil, unexpectedReply(sshfx.PacketTypeExtendedReply, raw)

	default:
		return nil, unexpectedReply(sshfx.PacketTypeExtendedReply, raw)
	}
}
