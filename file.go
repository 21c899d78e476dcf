package sftpc

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
	"github.com/fdist/sftpc/encoding/ssh/filexfer/openssh"
)

// OpenOptions controls OpenFile.
type OpenOptions struct {
	// Read opens for sequential download, Write for upload. Exactly one
	// must be set.
	Read  bool
	Write bool

	// Offset is the starting file position. A write at offset zero
	// truncates; a nonzero offset appends to existing content.
	Offset uint64

	// Perm, when nonzero, is sent as the permission attribute on create.
	Perm uint32

	// CreateParents retries a failed open once after creating the
	// missing ancestor directories with DirMode.
	CreateParents bool
	DirMode       uint32

	// Blocksize overrides the session block size for this file.
	Blocksize uint32
}

// File is an open remote file handle with bounded write and read
// pipelines. At most one File is open per Session.
type File struct {
	s *Session

	handle string
	offset uint64

	blocksize uint32

	// Write pipeline. warmedUp is false until the first write reply has
	// validated the handle; the first write is synchronous.
	warmedUp         bool
	pendingWrites    []uint32 // FIFO ring of outstanding WRITE ids
	wHead, wTail     int
	wLen             int
	maxPendingWrites int

	// Read pipeline.
	readsTodo   int
	readsDone   int
	readsQueued int

	pendingReads []uint32 // FIFO ring of outstanding READ ids
	rHead, rTail int

	curMaxPendingReads int
	lowWaterMark       int
	growAt             int

	readOffset uint64 // next offset to dispatch a READ for
}

// OpenFile opens path with the given options. A still-open prior file is
// flushed and closed first. On pre-v5 servers a FAILURE, or on any
// server a NO_SUCH_FILE, combined with CreateParents and a slash in the
// path triggers one retry after creating the missing ancestors.
func (s *Session) OpenFile(path string, o OpenOptions) (*File, error) {
	if o.Read == o.Write {
		return nil, errors.New("sftp: open needs exactly one of read or write")
	}

	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return nil, err
		}
	}

	path = s.resolve(path)

	handle, err := s.open(path, o)
	if err != nil {
		retry := retryWithParents(err, path, o.CreateParents) ||
			(o.CreateParents && o.Write && s.version < 5 &&
				strings.ContainsRune(path, '/') && errors.Is(err, sshfx.StatusFailure))

		if !retry {
			return nil, err
		}

		if cerr := s.CreateDir(parentOf(path), o.DirMode, nil); cerr != nil {
			return nil, cerr
		}

		if handle, err = s.open(path, o); err != nil {
			return nil, err
		}
	}

	bs := o.Blocksize
	if bs == 0 {
		bs = s.blocksize
	}

	maxPW := maxPendingWriteBuffer / int(bs)
	if maxPW > maxPendingWrites {
		maxPW = maxPendingWrites
	}
	if maxPW < 1 {
		maxPW = 1
	}

	f := &File{
		s:                s,
		handle:           handle,
		offset:           o.Offset,
		blocksize:        bs,
		maxPendingWrites: maxPW,
		pendingWrites:    make([]uint32, maxPW),
		pendingReads:     make([]uint32, maxPendingReads),
	}

	s.file = f
	return f, nil
}

func (s *Session) open(path string, o OpenOptions) (string, error) {
	id := s.nextRequestID()

	var p sshfx.Packet

	if s.version >= 5 {
		v5 := &sshfx.OpenV5Packet{
			RequestID: id,
			Filename:  path,
			Version:   s.version,
		}

		if o.Read {
			v5.DesiredAccess = sshfx.AceReadData | sshfx.AceReadAttrs
			v5.Flags = sshfx.DispOpenExisting
		} else {
			v5.DesiredAccess = sshfx.AceWriteData | sshfx.AceWriteAttrs
			if o.Offset == 0 {
				v5.Flags = sshfx.DispCreateTruncate
			} else {
				v5.Flags = sshfx.DispOpenOrCreate
			}

			if o.Perm != 0 {
				v5.Attrs = sshfx.Attributes{
					Flags:       sshfx.AttrPermissions,
					Permissions: o.Perm & 0o7777,
				}
			}
		}

		p = v5
	} else {
		v3 := &sshfx.OpenPacket{
			RequestID: id,
			Filename:  path,
			Version:   s.version,
		}

		if o.Read {
			v3.PFlags = sshfx.FlagRead
		} else {
			v3.PFlags = sshfx.FlagWrite | sshfx.FlagCreate
			if o.Offset == 0 {
				v3.PFlags |= sshfx.FlagTruncate
			}

			if o.Perm != 0 {
				v3.Attrs = sshfx.Attributes{
					Flags:       sshfx.AttrPermissions,
					Permissions: o.Perm & 0o7777,
				}
			}
		}

		p = v3
	}

	if err := s.sendPacket(p); err != nil {
		return "", err
	}

	return s.expectHandle(id)
}

// Handle returns the opaque server handle, for diagnostics.
func (f *File) Handle() string { return f.handle }

// Blocksize returns the negotiated per-request block size.
func (f *File) Blocksize() uint32 { return f.blocksize }

// Offset returns the next read/write position. It counts bytes covered
// by still-outstanding pipelined writes.
func (f *File) Offset() uint64 { return f.offset }

// Write sends one block. The first write on a fresh handle completes
// synchronously to validate it; afterwards up to maxPendingWrites
// replies may be left outstanding. When the window is full, the oldest
// reply is drained before the next block is sent.
func (f *File) Write(b []byte) error {
	if f.handle == "" {
		return ErrNoOpenHandle
	}

	if f.readsQueued > 0 {
		return ErrHandleInUse
	}

	s := f.s

	if f.warmedUp && f.wLen == f.maxPendingWrites {
		if err := f.drainOneWrite(); err != nil {
			return err
		}
	}

	id := s.nextRequestID()

	p := &sshfx.WritePacket{
		RequestID: id,
		Handle:    f.handle,
		Offset:    f.offset,
		Data:      b,
	}

	if err := s.sendPacket(p); err != nil {
		return err
	}

	if !f.warmedUp {
		f.warmedUp = true

		// Offset advances only once the server acknowledges; a failed
		// warm-up write must leave the position untouched.
		if err := s.expectStatus(id); err != nil {
			return err
		}

		f.offset += uint64(len(b))
		return nil
	}

	f.offset += uint64(len(b))

	f.pendingWrites[f.wTail] = id
	f.wTail = (f.wTail + 1) % f.maxPendingWrites
	f.wLen++

	return nil
}

// drainOneWrite consumes the reply of the oldest outstanding write.
func (f *File) drainOneWrite() error {
	id := f.pendingWrites[f.wHead]
	f.wHead = (f.wHead + 1) % f.maxPendingWrites
	f.wLen--

	return f.s.expectStatus(id)
}

// Flush drains every outstanding write reply, reconciling replies that
// arrived out of order through the stored-reply table. It is idempotent:
// with nothing outstanding it performs no I/O.
func (f *File) Flush() error {
	var firstErr error

	for f.wLen > 0 {
		if err := f.drainOneWrite(); err != nil {
			if firstErr == nil {
				firstErr = err
			}

			if errors.Is(err, ErrTimeout) || errors.Is(err, ErrBrokenPipe) || errors.Is(err, ErrPipeClosed) {
				f.wLen, f.wHead, f.wTail = 0, 0, 0
				return firstErr
			}
		}
	}

	return firstErr
}

// Close flushes outstanding writes, discards queued reads, sends CLOSE
// and releases the handle. The handle is freed even on error; when the
// pipe has timed out or broken no CLOSE goes on the wire.
func (f *File) Close() error {
	if f.handle == "" {
		return ErrNoOpenHandle
	}

	s := f.s

	release := func() {
		f.handle = ""
		if s.file == f {
			s.file = nil
		}
	}

	if s.pipe.timedOut || s.pipe.broken {
		release()
		return ErrBrokenPipe
	}

	firstErr := f.Flush()

	if f.readsQueued > 0 {
		f.MultiReadDiscard(false)
	}

	id := s.nextRequestID()
	if err := s.sendPacket(&sshfx.ClosePacket{RequestID: id, Handle: f.handle}); err != nil {
		release()
		if firstErr == nil {
			firstErr = err
		}
		return firstErr
	}

	err := s.expectStatus(id)
	release()

	if firstErr != nil {
		return firstErr
	}
	return err
}

// FStat returns the attributes of the open file.
func (f *File) FStat() (*sshfx.Attributes, error) {
	if f.handle == "" {
		return nil, ErrNoOpenHandle
	}

	s := f.s
	id := s.nextRequestID()

	p := &sshfx.FStatPacket{RequestID: id, Handle: f.handle}
	if s.version >= 6 {
		p.Version = s.version
		p.Flags = statMask
	}

	if err := s.sendPacket(p); err != nil {
		return nil, err
	}

	return s.expectAttrs(id)
}

func (f *File) fsetstat(attrs sshfx.Attributes) error {
	if f.handle == "" {
		return ErrNoOpenHandle
	}

	s := f.s
	id := s.nextRequestID()

	p := &sshfx.FSetstatPacket{
		RequestID: id,
		Handle:    f.handle,
		Attrs:     attrs,
		Version:   s.version,
	}

	if err := s.sendPacket(p); err != nil {
		return err
	}

	return s.expectStatus(id)
}

// SetFileTime sets the times of the open file.
func (f *File) SetFileTime(mtime, atime int64) error {
	return f.fsetstat(f.s.timeAttrs(mtime, atime))
}

// Chmod sets the permission bits of the open file.
func (f *File) Chmod(mode uint32) error {
	return f.fsetstat(sshfx.Attributes{
		Flags:       sshfx.AttrPermissions,
		Permissions: mode & 0o7777,
	})
}

// Sync asks the server to fsync the open file. Requires the fsync extension.
func (f *File) Sync() error {
	if f.handle == "" {
		return ErrNoOpenHandle
	}

	s := f.s
	if !s.exts.fsync {
		return ErrUnsupportedExtension
	}

	id := s.nextRequestID()

	p := &openssh.FSyncExtendedPacket{RequestID: id, Handle: f.handle}
	if err := s.sendPacket(p); err != nil {
		return err
	}

	return s.expectStatus(id)
}

// Read issues one synchronous READ of up to len(b) bytes at the current
// offset. io.EOF signals end of file.
func (f *File) Read(b []byte) (int, error) {
	if f.handle == "" {
		return 0, ErrNoOpenHandle
	}

	want := uint32(len(b))
	if want > f.blocksize {
		want = f.blocksize
	}

	s := f.s
	id := s.nextRequestID()

	p := &sshfx.ReadPacket{
		RequestID: id,
		Handle:    f.handle,
		Offset:    f.offset,
		Len:       want,
	}

	if err := s.sendPacket(p); err != nil {
		return 0, err
	}

	data, _, err := f.catchData(id)
	if err != nil {
		return 0, err
	}

	n := copy(b, data)
	f.offset += uint64(n)

	return n, nil
}

// catchData awaits the reply for a READ and returns its data. io.EOF is
// returned for SSH_FX_EOF and for a v6 end-of-file marker.
func (f *File) catchData(id uint32) (data []byte, eof bool, err error) {
	s := f.s

	raw, err := s.awaitReply(id)
	if err != nil {
		return nil, false, err
	}

	switch raw.Type {
	case sshfx.PacketTypeData:
		var p sshfx.DataPacket
		if err := p.UnmarshalPacketBody(sshfx.NewBuffer(raw.Payload)); err != nil {
			return nil, false, err
		}
		return p.Data, p.EOF, nil

	case sshfx.PacketTypeStatus:
		if err := s.statusFromRaw(raw); err != nil {
			if errors.Is(err, sshfx.StatusEOF) {
				return nil, true, io.EOF
			}
			return nil, false, err
		}
		return nil, false, unexpectedReply(sshfx.PacketTypeData, raw)

	default:
		return nil, false, unexpectedReply(sshfx.PacketTypeData, raw)
	}
}

// MultiReadInit sizes the read pipeline for a sequential download of
// expectedSize bytes. The window starts at readStepSize requests and
// grows adaptively; the low-water mark is half the window.
func (f *File) MultiReadInit(expectedSize uint64) {
	bs := uint64(f.blocksize)

	f.readsTodo = int((expectedSize + bs - 1) / bs)
	f.readsDone = 0
	f.readsQueued = 0
	f.rHead, f.rTail = 0, 0
	f.readOffset = f.offset

	f.curMaxPendingReads = readStepSize
	if f.readsTodo < f.curMaxPendingReads {
		f.curMaxPendingReads = f.readsTodo
	}

	f.lowWaterMark = f.curMaxPendingReads / 2
	f.growAt = f.curMaxPendingReads
}

// MultiReadDispatch tops the read window up to its current maximum, but
// only once the queue has drained to the low-water mark. This is the
// latency-hiding trigger: refills overlap the caller's consumption.
func (f *File) MultiReadDispatch() error {
	if f.handle == "" {
		return ErrNoOpenHandle
	}

	if f.readsQueued > f.lowWaterMark {
		return nil
	}

	s := f.s

	for f.readsQueued < f.curMaxPendingReads &&
		f.readsDone+f.readsQueued < f.readsTodo {

		id := s.nextRequestID()

		p := &sshfx.ReadPacket{
			RequestID: id,
			Handle:    f.handle,
			Offset:    f.readOffset,
			Len:       f.blocksize,
		}

		if err := s.sendPacket(p); err != nil {
			return err
		}

		f.pendingReads[f.rTail] = id
		f.rTail = (f.rTail + 1) % len(f.pendingReads)
		f.readsQueued++
		f.readOffset += uint64(f.blocksize)
	}

	return nil
}

// MultiReadCatch consumes the next in-order read reply into b. A block
// shorter than blocksize before the final one returns ErrDoSingleReads:
// the remote file is shorter than expected or shrinking, and the caller
// must fall back to single reads. Window growth happens at each filled
// window boundary, by readStepSize up to maxPendingReads.
func (f *File) MultiReadCatch(b []byte) (int, error) {
	if f.handle == "" {
		return 0, ErrNoOpenHandle
	}

	if f.readsQueued == 0 {
		return 0, io.EOF
	}

	id := f.pendingReads[f.rHead]
	f.rHead = (f.rHead + 1) % len(f.pendingReads)
	f.readsQueued--

	data, eof, err := f.catchData(id)
	if err != nil {
		if err == io.EOF {
			f.readsDone++
			return 0, io.EOF
		}
		return 0, err
	}

	n := copy(b, data)
	f.offset += uint64(n)
	f.readsDone++

	if eof && f.readsDone < f.readsTodo {
		f.readsTodo = f.readsDone
	}

	if n < int(f.blocksize) && f.readsDone < f.readsTodo {
		return n, ErrDoSingleReads
	}

	f.growWindow()

	return n, nil
}

// growWindow widens the pipeline once per filled window.
func (f *File) growWindow() {
	if f.readsDone < f.growAt || f.curMaxPendingReads >= maxPendingReads {
		return
	}

	if f.readsDone+f.readsQueued >= f.readsTodo {
		return
	}

	f.curMaxPendingReads += readStepSize
	if f.curMaxPendingReads > maxPendingReads {
		f.curMaxPendingReads = maxPendingReads
	}

	f.lowWaterMark = f.curMaxPendingReads / 2
	f.growAt += readStepSize
}

// MultiReadEOF reports whether every expected block has been consumed.
func (f *File) MultiReadEOF() bool {
	return f.readsDone >= f.readsTodo
}

// MultiReadDiscard drains replies for every still-queued READ, for
// abort or early termination. With report set the count is logged.
func (f *File) MultiReadDiscard(report bool) {
	s := f.s

	discarded := 0
	for f.readsQueued > 0 {
		id := f.pendingReads[f.rHead]
		f.rHead = (f.rHead + 1) % len(f.pendingReads)
		f.readsQueued--

		if _, _, err := f.catchData(id); err != nil && err != io.EOF {
			break
		}

		discarded++
	}

	f.readsQueued = 0
	f.rHead, f.rTail = 0, 0

	if report && discarded > 0 {
		s.log.Debug().Int("discarded", discarded).Msg("dropped queued read replies")
	}
}

// StatVFS returns filesystem statistics for the open file.
// Requires the fstatvfs extension.
func (f *File) StatVFS() (*openssh.StatVFSExtendedReply, error) {
	if f.handle == "" {
		return nil, ErrNoOpenHandle
	}

	s := f.s
	if !s.exts.fstatVFS {
		return nil, ErrUnsupportedExtension
	}

	id := s.nextRequestID()

	p := &openssh.FStatVFSExtendedPacket{RequestID: id, Handle: f.handle}
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
