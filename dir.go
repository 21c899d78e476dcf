package sftpc

import (
	"io"

	"github.com/pkg/errors"

	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
)

// Dir is an open remote directory handle. Entries are pulled from the
// current READDIR batch one at a time; the next READDIR runs when the
// batch is exhausted. At most one Dir is open per Session.
type Dir struct {
	s *Session

	handle  string
	entries []*sshfx.NameEntry
}

// OpenDir opens path, or the working directory when path is empty.
// A still-open prior directory handle is closed first.
func (s *Session) OpenDir(path string) (*Dir, error) {
	if s.dir != nil {
		if err := s.dir.Close(); err != nil {
			return nil, err
		}
	}

	switch path {
	case "":
		if s.cwd != "" {
			path = s.cwd
		} else {
			path = "."
		}
	default:
		path = s.resolve(path)
	}

	id := s.nextRequestID()

	if err := s.sendPacket(&sshfx.OpenDirPacket{RequestID: id, Path: path}); err != nil {
		return nil, err
	}

	handle, err := s.expectHandle(id)
	if err != nil {
		return nil, err
	}

	d := &Dir{s: s, handle: handle}
	s.dir = d
	return d, nil
}

// ReadDir returns the next directory entry. io.EOF signals the end of
// the listing.
func (d *Dir) ReadDir() (*sshfx.NameEntry, error) {
	if d.handle == "" {
		return nil, ErrNoOpenHandle
	}

	if len(d.entries) == 0 {
		if err := d.refill(); err != nil {
			return nil, err
		}
	}

	entry := d.entries[0]
	d.entries = d.entries[1:]
	return entry, nil
}

func (d *Dir) refill() error {
	s := d.s
	id := s.nextRequestID()

	if err := s.sendPacket(&sshfx.ReadDirPacket{RequestID: id, Handle: d.handle}); err != nil {
		return err
	}

	entries, err := s.expectName(id)
	if err != nil {
		if errors.Is(err, sshfx.StatusEOF) {
			return io.EOF
		}
		return err
	}

	if len(entries) == 0 {
		return io.EOF
	}

	d.entries = entries
	return nil
}

// Close sends CLOSE and releases the directory handle. The handle is
// freed even on error; nothing goes on the wire over a dead pipe.
func (d *Dir) Close() error {
	if d.handle == "" {
		return ErrNoOpenHandle
	}

	s := d.s

	release := func() {
		d.handle = ""
		d.entries = nil
		if s.dir == d {
			s.dir = nil
		}
	}

	if s.pipe.timedOut || s.pipe.broken {
		release()
		return ErrBrokenPipe
	}

	id := s.nextRequestID()
	if err := s.sendPacket(&sshfx.ClosePacket{RequestID: id, Handle: d.handle}); err != nil {
		release()
		return err
	}

	err := s.expectStatus(id)
	release()
	return err
}

// ReadDirAll lists path in one call: open, drain, close.
func (s *Session) ReadDirAll(path string) ([]*sshfx.NameEntry, error) {
	d, err := s.OpenDir(path)
	if err != nil {
		return nil, err
	}

	var entries []*sshfx.NameEntry
	for {
		entry, err := d.ReadDir()
		if err == io.EOF {
			break
		}
		if err != nil {
			d.Close()
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, d.Close()
}
