package sftpc

import (
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
	"github.com/fdist/sftpc/encoding/ssh/filexfer/openssh"
	"github.com/fdist/sftpc/sshexec"
)

// extensions records which optional server features were advertised.
type extensions struct {
	posixRename bool
	statVFS     bool
	fstatVFS    bool
	hardlink    bool
	fsync       bool
	lsetstat    bool
	limits      bool
	expandPath  bool
	copyData    bool

	unknown int
}

// Session is one SFTP connection: the pipe to the ssh subprocess, the
// negotiated protocol state, and at most one open file and one open
// directory handle. A Session is driven by exactly one caller; it is
// not safe for concurrent use.
type Session struct {
	pipe *pipe
	cmd  *sshexec.Cmd // nil when attached to a caller-supplied stream

	version uint32
	exts    extensions
	limits  openssh.LimitsExtendedReply
	sup2    *sshfx.Supported2

	cwd string // empty means server home

	requestID uint32
	maxFrame  uint32
	blocksize uint32

	stored    map[uint32]*sshfx.RawPacket
	maxStored int

	file *File
	dir  *Dir

	// Servers older than v4 may return REALPATH results for paths that
	// do not exist; when set, Cd double-checks with a STAT.
	dirNotExistWorkaround bool

	timeout time.Duration
	debug   DebugLevel
	log     zerolog.Logger
}

// Config carries the connection knobs for Connect.
type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	Fingerprint string // expected host key fingerprint, passed to ssh

	// SSHProtocol selects the ssh protocol major version; zero lets the
	// ssh binary decide. SSHOptions are passed through as -o options.
	SSHProtocol int
	SSHOptions  []string

	KeepAlive bool

	// Timeout bounds every pipe read and write. Zero means no deadline.
	Timeout time.Duration

	Blocksize uint32
	Debug     DebugLevel
	Logger    zerolog.Logger
}

// Option adjusts a Session before the handshake runs.
type Option func(*Session)

// WithTimeout bounds every pipe read and write by d.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithLogger attaches a structured logger to the session.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithDebug sets the protocol trace level.
func WithDebug(level DebugLevel) Option {
	return func(s *Session) { s.debug = level }
}

// WithBlocksize sets the initial read/write block size. It is clamped
// against the server packet limit after the handshake, like SetBlocksize.
func WithBlocksize(bs uint32) Option {
	return func(s *Session) { s.blocksize = bs }
}

// Connect spawns the ssh subprocess for cfg, attaches a Session to its
// pipes and performs the protocol handshake. The subprocess is owned by
// the Session and reaped by Quit.
func Connect(cfg Config) (*Session, error) {
	cmd, err := sshexec.Start(sshexec.Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		User:        cfg.User,
		Password:    cfg.Password,
		Fingerprint: cfg.Fingerprint,
		Protocol:    cfg.SSHProtocol,
		Options:     cfg.SSHOptions,
		KeepAlive:   cfg.KeepAlive,
		Debug:       cfg.Debug >= DebugTrace,
	})
	if err != nil {
		return nil, errors.Wrap(err, "spawning ssh")
	}

	opts := []Option{
		WithTimeout(cfg.Timeout),
		WithLogger(cfg.Logger),
		WithDebug(cfg.Debug),
	}
	if cfg.Blocksize != 0 {
		opts = append(opts, WithBlocksize(cfg.Blocksize))
	}

	s, err := NewSessionPipe(cmd.Stdout, cmd.Stdin, opts...)
	if err != nil {
		cmd.Close(0)
		return nil, err
	}

	s.cmd = cmd
	return s, nil
}

// NewSessionPipe attaches a Session to an already-established duplex
// stream and performs the INIT/VERSION handshake plus extension
// negotiation. r and w are typically the stdout and stdin pipes of an
// ssh subprocess, but any stream pair works.
func NewSessionPipe(r io.Reader, w io.Writer, opts ...Option) (*Session, error) {
	s := &Session{
		maxFrame:  initialMaxFrame,
		blocksize: DefaultBlocksize,
		maxStored: maxReplyBuffer,
		stored:    make(map[uint32]*sshfx.RawPacket),
		log:       zerolog.Nop(),
	}

	for _, o := range opts {
		o(s)
	}

	s.pipe = newPipe(r, w, s.timeout)
	s.log = s.log.With().Str("session", uuid.NewString()).Logger()

	if err := s.handshake(); err != nil {
		return nil, err
	}

	return s, nil
}

// handshake sends INIT, consumes VERSION, and walks the extension pairs.
func (s *Session) handshake() error {
	if err := s.sendPacket(&sshfx.InitPacket{Version: ProtocolVersion}); err != nil {
		return errors.Wrap(err, "sending INIT")
	}

	body, err := s.recvFrame()
	if err != nil {
		return errors.Wrap(err, "reading VERSION")
	}

	if len(body) < 1 {
		return sshfx.ErrShortPacket
	}

	if got := sshfx.PacketType(body[0]); got != sshfx.PacketTypeVersion {
		return &UnexpectedReplyTypeError{
			Want: sshfx.PacketTypeVersion,
			Got:  got,
		}
	}

	var version sshfx.VersionPacket
	if err := version.UnmarshalPacketBody(sshfx.NewBuffer(body[1:])); err != nil {
		return err
	}

	s.version = version.Version
	if s.version > ProtocolVersion {
		s.version = ProtocolVersion
	}
	if s.version < 3 {
		return errors.Wrapf(ErrUnsupportedVersion, "server offered version %d", version.Version)
	}

	s.dirNotExistWorkaround = s.version < 4

	for _, ext := range version.Extensions {
		s.recordExtension(ext)
	}

	if s.exts.limits {
		if err := s.fetchLimits(); err != nil {
			return errors.Wrap(err, "querying limits")
		}
	}

	if s.debug >= DebugNormal {
		s.log.Debug().
			Uint32("version", s.version).
			Int("unknown_extensions", s.exts.unknown).
			Uint64("max_packet_length", s.limits.MaxPacketLength).
			Msg("connected")
	}

	return nil
}

func (s *Session) recordExtension(ext *sshfx.ExtensionPair) {
	switch ext.Name {
	case openssh.ExtensionNamePOSIXRename:
		s.exts.posixRename = true
	case openssh.ExtensionNameStatVFS:
		s.exts.statVFS = true
	case openssh.ExtensionNameFStatVFS:
		s.exts.fstatVFS = true
	case openssh.ExtensionNameHardlink:
		s.exts.hardlink = true
	case openssh.ExtensionNameFSync:
		s.exts.fsync = true
	case openssh.ExtensionNameLSetstat:
		s.exts.lsetstat = true
	case openssh.ExtensionNameLimits:
		s.exts.limits = true
	case openssh.ExtensionNameExpandPath:
		s.exts.expandPath = true
	case openssh.ExtensionNameCopyData:
		s.exts.copyData = true

	case "supported2":
		var sup sshfx.Supported2
		if err := sup.UnmarshalBinary([]byte(ext.Data)); err == nil {
			s.sup2 = &sup
		}

	default:
		s.exts.unknown++
	}
}

// fetchLimits issues EXTENDED(limits) and applies the advertised caps:
// a sane max-open-handles lowers the reply-table bound, and a sane
// packet length grows the frame buffer.
func (s *Session) fetchLimits() error {
	id := s.nextRequestID()
	if err := s.sendPacket(&openssh.LimitsExtendedPacket{RequestID: id}); err != nil {
		return err
	}

	data, err := s.expectExtendedReply(id)
	if err != nil {
		return err
	}

	if err := s.limits.UnmarshalBinary(data); err != nil {
		return err
	}

	if h := s.limits.MaxOpenHandles; h > 0 && h < maxReplyBuffer {
		s.maxStored = int(h)
	}

	if l := s.limits.MaxPacketLength; l > 0 && l <= MaxBlocksize && uint32(l) > s.maxFrame {
		s.maxFrame = uint32(l)
	}

	return nil
}

// Version returns the negotiated protocol version.
func (s *Session) Version() uint32 { return s.version }

// Limits returns the server-advertised limits; all zero when the server
// does not support the limits extension.
func (s *Session) Limits() openssh.LimitsExtendedReply { return s.limits }

// HasPosixRename reports whether the server advertised posix-rename.
func (s *Session) HasPosixRename() bool { return s.exts.posixRename }

// HasHardlink reports whether the server advertised hardlink.
func (s *Session) HasHardlink() bool { return s.exts.hardlink }

// HasStatVFS reports whether the server advertised statvfs.
func (s *Session) HasStatVFS() bool { return s.exts.statVFS }

// SetBlocksize negotiates the read/write block size. When the server's
// packet limit is known and desired plus framing overhead exceeds it,
// the block size is lowered and the effective value returned; callers
// should compare it against what they asked for.
func (s *Session) SetBlocksize(desired uint32) (uint32, error) {
	if desired == 0 {
		desired = DefaultBlocksize
	}
	if desired > MaxBlocksize {
		desired = MaxBlocksize
	}

	if max := s.limits.MaxPacketLength; max > 0 {
		if max <= frameOverhead {
			return 0, ErrBlocksizeTooSmall
		}

		if uint64(desired)+frameOverhead > max {
			desired = uint32(max - frameOverhead)
		}
	}

	s.blocksize = desired
	return desired, nil
}

// resolve prepends the working directory to relative paths.
func (s *Session) resolve(p string) string {
	if s.cwd == "" || p == "." || strings.HasPrefix(p, "/") {
		return p
	}

	return s.cwd + "/" + p
}

// Pwd resolves "." on the server and records it as the working directory.
func (s *Session) Pwd() (string, error) {
	id := s.nextRequestID()
	if err := s.sendPacket(&sshfx.RealPathPacket{RequestID: id, Path: "."}); err != nil {
		return "", err
	}

	entry, err := s.expectOneName(id)
	if err != nil {
		return "", err
	}

	s.cwd = entry.Filename
	return s.cwd, nil
}

// Cd changes the working directory. With create set, a missing directory
// is created once (mode applied) and the change retried; components
// created along the way are appended to created, when non-nil.
//
// Servers older than protocol version 4 may resolve paths that do not
// exist, so for those the resolved path is verified with a STAT.
func (s *Session) Cd(dir string, create bool, mode uint32, created *[]string) error {
	dir = s.resolve(dir)

	resolved, err := s.realPath(dir)
	if err != nil {
		if create && errors.Is(err, sshfx.StatusNoSuchFile) {
			if cerr := s.CreateDir(dir, mode, created); cerr != nil {
				return cerr
			}

			if resolved, err = s.realPath(dir); err != nil {
				return err
			}
		} else {
			return err
		}
	}

	if s.dirNotExistWorkaround {
		if _, err := s.Stat(resolved); err != nil {
			if create && errors.Is(err, sshfx.StatusNoSuchFile) {
				if cerr := s.CreateDir(dir, mode, created); cerr != nil {
					return cerr
				}
			} else {
				return err
			}
		}
	}

	s.cwd = resolved
	return nil
}

func (s *Session) realPath(p string) (string, error) {
	id := s.nextRequestID()
	if err := s.sendPacket(&sshfx.RealPathPacket{RequestID: id, Path: p}); err != nil {
		return "", err
	}

	entry, err := s.expectOneName(id)
	if err != nil {
		return "", err
	}

	return entry.Filename, nil
}

// statMask is the attribute set requested from v6 servers.
const statMask = sshfx.AttrSize | sshfx.AttrPermissions | sshfx.AttrOwnerGroup |
	sshfx.AttrAccessTime | sshfx.AttrModifyTime

// Stat returns the attributes of the (cwd-relative) path.
func (s *Session) Stat(path string) (*sshfx.Attributes, error) {
	id := s.nextRequestID()

	p := &sshfx.StatPacket{RequestID: id, Path: s.resolve(path)}
	if s.version >= 6 {
		p.Version = s.version
		p.Flags = statMask
	}

	if err := s.sendPacket(p); err != nil {
		return nil, err
	}

	return s.expectAttrs(id)
}

// LStat is Stat without following a final symlink.
func (s *Session) LStat(path string) (*sshfx.Attributes, error) {
	id := s.nextRequestID()

	p := &sshfx.LStatPacket{RequestID: id, Path: s.resolve(path)}
	if s.version >= 6 {
		p.Version = s.version
		p.Flags = statMask
	}

	if err := s.sendPacket(p); err != nil {
		return nil, err
	}

	return s.expectAttrs(id)
}

// setstat issues SETSTAT on a path.
func (s *Session) setstat(path string, attrs sshfx.Attributes) error {
	id := s.nextRequestID()

	p := &sshfx.SetstatPacket{
		RequestID: id,
		Path:      s.resolve(path),
		Attrs:     attrs,
		Version:   s.version,
	}

	if err := s.sendPacket(p); err != nil {
		return err
	}

	return s.expectStatus(id)
}

// timeAttrs builds the version-correct attribute block for utimes.
func (s *Session) timeAttrs(mtime, atime int64) sshfx.Attributes {
	if s.version <= 3 {
		return sshfx.Attributes{
			Flags: sshfx.AttrACModTime,
			ATime: atime,
			MTime: mtime,
		}
	}

	return sshfx.Attributes{
		Flags: sshfx.AttrAccessTime | sshfx.AttrModifyTime,
		ATime: atime,
		MTime: mtime,
	}
}

// SetFileTime sets the modification and access times of path.
func (s *Session) SetFileTime(path string, mtime, atime int64) error {
	return s.setstat(path, s.timeAttrs(mtime, atime))
}

// Chmod sets the permission bits of path.
func (s *Session) Chmod(path string, mode uint32) error {
	return s.setstat(path, sshfx.Attributes{
		Flags:       sshfx.AttrPermissions,
		Permissions: mode & 0o7777,
	})
}

// LSetstat applies attrs to path without following a final symlink.
// Requires the lsetstat extension.
func (s *Session) LSetstat(path string, attrs sshfx.Attributes) error {
	if !s.exts.lsetstat {
		return ErrUnsupportedExtension
	}

	id := s.nextRequestID()

	p := &openssh.LSetstatExtendedPacket{
		RequestID: id,
		Path:      s.resolve(path),
		Attrs:     attrs,
	}

	if err := s.sendPacket(p); err != nil {
		return err
	}

	return s.expectStatus(id)
}

// Mkdir creates a directory. Servers are allowed to ignore the mode
// attribute on create, so a nonzero mode is re-applied with a chmod.
// A FAILURE status is reconciled against a concurrent creator: if the
// target already exists as a directory the call succeeds.
func (s *Session) Mkdir(path string, mode uint32) error {
	path = s.resolve(path)

	err := s.mkdir(path, mode)
	if err == nil {
		if mode != 0 {
			return s.Chmod(path, mode)
		}
		return nil
	}

	if errors.Is(err, sshfx.StatusFailure) {
		attrs, serr := s.Stat(path)
		if serr == nil && attrs.IsDir(s.version) {
			return nil
		}
	}

	return err
}

func (s *Session) mkdir(path string, mode uint32) error {
	id := s.nextRequestID()

	p := &sshfx.MkdirPacket{
		RequestID: id,
		Path:      path,
		Version:   s.version,
	}
	if mode != 0 {
		p.Attrs = sshfx.Attributes{
			Flags:       sshfx.AttrPermissions,
			Permissions: mode & 0o7777,
		}
	}

	if err := s.sendPacket(p); err != nil {
		return err
	}

	return s.expectStatus(id)
}

// Rmdir removes an empty directory.
func (s *Session) Rmdir(path string) error {
	id := s.nextRequestID()

	if err := s.sendPacket(&sshfx.RmdirPacket{RequestID: id, Path: s.resolve(path)}); err != nil {
		return err
	}

	return s.expectStatus(id)
}

// Delete removes a file.
func (s *Session) Delete(path string) error {
	id := s.nextRequestID()

	if err := s.sendPacket(&sshfx.RemovePacket{RequestID: id, Path: s.resolve(path)}); err != nil {
		return err
	}

	return s.expectStatus(id)
}

// CreateDir walks path component by component, creating every missing
// prefix with mode. Created components are appended to created, when
// non-nil. It stops at the first error.
func (s *Session) CreateDir(path string, mode uint32, created *[]string) error {
	path = s.resolve(path)

	var prefix string
	if strings.HasPrefix(path, "/") {
		prefix = "/"
	}

	for _, comp := range strings.Split(path, "/") {
		if comp == "" {
			continue
		}

		if prefix == "" || prefix == "/" {
			prefix += comp
		} else {
			prefix += "/" + comp
		}

		if _, err := s.Stat(prefix); err == nil {
			continue
		} else if !errors.Is(err, sshfx.StatusNoSuchFile) {
			return err
		}

		if err := s.Mkdir(prefix, mode); err != nil {
			return err
		}

		if created != nil {
			*created = append(*created, comp)
		}
	}

	return nil
}

// parentOf returns the directory part of p, or "" when p has none.
func parentOf(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i <= 0 {
		if i == 0 {
			return "/"
		}
		return ""
	}

	return p[:i]
}

// retryWithParents reports whether err and the target path qualify for
// the create-ancestors-and-retry fallback.
func retryWithParents(err error, path string, createParents bool) bool {
	return createParents &&
		strings.ContainsRune(path, '/') &&
		errors.Is(err, sshfx.StatusNoSuchFile)
}

// Rename moves from to to. On v3/v4 servers advertising posix-rename the
// extension is used so an existing target is replaced atomically. Two
// fallbacks apply, each retried once: a FAILURE on v<5 deletes the
// target first (overwrite is implicit there), and NO_SUCH_FILE with
// createParents set creates to's ancestors with dirMode.
func (s *Session) Rename(from, to string, createParents bool, dirMode uint32) error {
	from, to = s.resolve(from), s.resolve(to)

	err := s.rename(from, to)
	if err == nil {
		return nil
	}

	if s.version < 5 && errors.Is(err, sshfx.StatusFailure) {
		if derr := s.Delete(to); derr == nil {
			return s.rename(from, to)
		}
		return err
	}

	if retryWithParents(err, to, createParents) {
		if cerr := s.CreateDir(parentOf(to), dirMode, nil); cerr != nil {
			return cerr
		}
		return s.rename(from, to)
	}

	return err
}

func (s *Session) rename(from, to string) error {
	id := s.nextRequestID()

	var p sshfx.Packet
	switch {
	case s.version < 5 && s.exts.posixRename:
		p = &openssh.POSIXRenameExtendedPacket{
			RequestID: id,
			OldPath:   from,
			NewPath:   to,
		}

	case s.version >= 6:
		p = &sshfx.RenamePacket{
			RequestID: id,
			OldPath:   from,
			NewPath:   to,
			Version:   s.version,
			Flags:     sshfx.RenameOverwrite | sshfx.RenameAtomic,
		}

	default:
		p = &sshfx.RenamePacket{
			RequestID: id,
			OldPath:   from,
			NewPath:   to,
			Version:   s.version,
		}
	}

	if err := s.sendPacket(p); err != nil {
		return err
	}

	return s.expectStatus(id)
}

// Hardlink links to to from. It needs either a v6 server or the hardlink
// extension. The Rename fallbacks apply.
func (s *Session) Hardlink(from, to string, createParents bool, dirMode uint32) error {
	if s.version < 6 && !s.exts.hardlink {
		return ErrUnsupportedExtension
	}

	from, to = s.resolve(from), s.resolve(to)

	err := s.hardlink(from, to)
	if err == nil {
		return nil
	}

	if s.version < 5 && errors.Is(err, sshfx.StatusFailure) {
		if derr := s.Delete(to); derr == nil {
			return s.hardlink(from, to)
		}
		return err
	}

	if retryWithParents(err, to, createParents) {
		if cerr := s.CreateDir(parentOf(to), dirMode, nil); cerr != nil {
			return cerr
		}
		return s.hardlink(from, to)
	}

	return err
}

func (s *Session) hardlink(from, to string) error {
	id := s.nextRequestID()

	var p sshfx.Packet
	if s.version >= 6 {
		p = &sshfx.LinkPacket{
			RequestID: id,
			NewPath:   to,
			ExistPath: from,
		}
	} else {
		p = &openssh.HardlinkExtendedPacket{
			RequestID: id,
			OldPath:   from,
			NewPath:   to,
		}
	}

	if err := s.sendPacket(p); err != nil {
		return err
	}

	return s.expectStatus(id)
}

// Symlink creates symlink to pointing at from. The Rename fallbacks apply.
func (s *Session) Symlink(from, to string, createParents bool, dirMode uint32) error {
	from, to = s.resolve(from), s.resolve(to)

	err := s.symlink(from, to)
	if err == nil {
		return nil
	}

	if s.version < 5 && errors.Is(err, sshfx.StatusFailure) {
		if derr := s.Delete(to); derr == nil {
			return s.symlink(from, to)
		}
		return err
	}

	if retryWithParents(err, to, createParents) {
		if cerr := s.CreateDir(parentOf(to), dirMode, nil); cerr != nil {
			return cerr
		}
		return s.symlink(from, to)
	}

	return err
}

func (s *Session) symlink(target, link string) error {
	id := s.nextRequestID()

	var p sshfx.Packet
	if s.version >= 6 {
		p = &sshfx.LinkPacket{
			RequestID: id,
			NewPath:   link,
			ExistPath: target,
			Symlink:   true,
		}
	} else {
		p = &sshfx.SymlinkPacket{
			RequestID:  id,
			LinkPath:   link,
			TargetPath: target,
		}
	}

	if err := s.sendPacket(p); err != nil {
		return err
	}

	return s.expectStatus(id)
}

// ReadLink returns the target of the symlink at path.
func (s *Session) ReadLink(path string) (string, error) {
	id := s.nextRequestID()

	if err := s.sendPacket(&sshfx.ReadLinkPacket{RequestID: id, Path: s.resolve(path)}); err != nil {
		return "", err
	}

	entry, err := s.expectOneName(id)
	if err != nil {
		return "", err
	}

	return entry.Filename, nil
}

// ExpandPath asks the server to expand tilde and relative notation in
// path. Requires the expand-path extension.
func (s *Session) ExpandPath(path string) (string, error) {
	if !s.exts.expandPath {
		return "", ErrUnsupportedExtension
	}

	id := s.nextRequestID()

	p := &openssh.ExpandPathExtendedPacket{RequestID: id, Path: path}
	if err := s.sendPacket(p); err != nil {
		return "", err
	}

	entry, err := s.expectOneName(id)
	if err != nil {
		return "", err
	}

	return entry.Filename, nil
}

// closeHandle releases a raw server handle.
func (s *Session) closeHandle(handle string) error {
	id := s.nextRequestID()

	if err := s.sendPacket(&sshfx.ClosePacket{RequestID: id, Handle: handle}); err != nil {
		return err
	}

	return s.expectStatus(id)
}

// CopyData copies length bytes (zero means through end of file) from
// one remote file into another on the server, without moving the data
// through the client. Requires the copy-data extension.
func (s *Session) CopyData(from, to string, length uint64) error {
	if !s.exts.copyData {
		return ErrUnsupportedExtension
	}

	src, err := s.open(s.resolve(from), OpenOptions{Read: true})
	if err != nil {
		return err
	}
	defer s.closeHandle(src)

	dst, err := s.open(s.resolve(to), OpenOptions{Write: true})
	if err != nil {
		return err
	}
	defer s.closeHandle(dst)

	id := s.nextRequestID()

	p := &openssh.CopyDataExtendedPacket{
		RequestID:   id,
		ReadHandle:  src,
		ReadLength:  length,
		WriteHandle: dst,
	}

	if err := s.sendPacket(p); err != nil {
		return err
	}

	return s.expectStatus(id)
}

// Noop exercises the connection as a keepalive: a limits round-trip when
// the server supports it (the reply is discarded), otherwise STAT ".".
func (s *Session) Noop() error {
	if s.exts.limits {
		id := s.nextRequestID()
		if err := s.sendPacket(&openssh.LimitsExtendedPacket{RequestID: id}); err != nil {
			return err
		}

		_, err := s.expectExtendedReply(id)
		return err
	}

	_, err := s.Stat(".")
	return err
}

// Quit tears the session down: open handles are closed gracefully unless
// the pipe already timed out or broke, the pipe is closed, and the ssh
// subprocess is reaped with half the transfer timeout before SIGKILL.
func (s *Session) Quit() error {
	var firstErr error

	graceful := !s.pipe.timedOut && !s.pipe.broken

	if graceful {
		if s.file != nil {
			if err := s.file.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}

		if s.dir != nil {
			if err := s.dir.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	s.file, s.dir = nil, nil
	s.stored = nil

	if err := s.pipe.close(); err != nil && firstErr == nil {
		firstErr = err
	}

	if s.cmd != nil {
		grace := s.timeout / 2
		if !graceful {
			grace = 0
		}

		if err := s.cmd.Close(grace); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
