package sftpc

import (
	"github.com/fdist/sftpc/encoding/ssh/filexfer/openssh"
)

// StatVFS returns filesystem statistics for the filesystem holding path.
// Requires the statvfs extension.
func (s *Session) StatVFS(path string) (*openssh.StatVFSExtendedReply, error) {
	if !s.exts.statVFS {
		return nil, ErrUnsupportedExtension
	}

	id := s.nextRequestID()

	p := &openssh.StatVFSExtendedPacket{RequestID: id, Path: s.resolve(path)}
	if err := s.sendPacket(p); err != nil {
		return nil, err
	}

	data, err := s.expectExtendedReply(id)
	if err != nil {
		return nil, err
	}

	var reply openssh.StatVFSExtendedReply
	if err := reply.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	return &reply, nil
}
