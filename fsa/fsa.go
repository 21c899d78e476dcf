// Package fsa reads, writes and migrates the fixed-layout status file
// that records per-host transfer state. The file is memory-mapped and
// shared between processes; its binary layout has evolved through five
// versions, and this package upgrades a file in place from any older
// version to a newer one along the supported migration paths.
//
// All on-disk integers are little-endian and the records are packed;
// every field is read and written through explicit offsets, never
// through struct casts.
package fsa

import (
	"errors"
	"fmt"
)

// Layout versions.
const (
	Version0 = 0
	Version1 = 1
	Version2 = 2
	Version3 = 3
	Version4 = 4

	// CurrentVersion is the layout written by this code base.
	CurrentVersion = Version4
)

// Field sizes shared by every layout version.
const (
	HostAliasLen    = 16
	RealHostnameLen = 64
	ErrorHistoryLen = 5
)

// GroupIdentifier marks a host alias that names a group rather than a
// real host. Since version 3 the real hostname of a group entry is the
// two-byte sentinel {GroupIdentifier, 0}.
const GroupIdentifier = 0x01

// Debug modes, version 2 and up. Version 0 and 1 store a plain bool.
const (
	NormalMode = 1
	DebugMode  = 2
)

// Protocol bits, versions 0 and 1: one combined bitset.
const (
	OldProtoFTP            = 0x0001
	OldProtoLOC            = 0x0002
	OldProtoSMTP           = 0x0004
	OldProtoMAP            = 0x0008
	OldProtoSCP            = 0x0010
	OldProtoWMO            = 0x0020
	OldProtoGetFTP         = 0x0100
	OldProtoSend           = 0x0200
	OldProtoRetrieve       = 0x0400
	OldProtoStatKeepalive  = 0x0800
	OldProtoSetIdleTime    = 0x1000
	OldProtoFTPPassiveMode = 0x2000
)

// Protocol bits, version 2 and up: the transfer-option bits moved into
// a separate options word, and the remaining bits were repacked.
const (
	ProtoFTP      = 0x0001
	ProtoLOC      = 0x0002
	ProtoSMTP     = 0x0004
	ProtoMAP      = 0x0008
	ProtoSCP      = 0x0010
	ProtoWMO      = 0x0020
	ProtoGetFTP   = 0x0040
	ProtoRetrieve = 0x0080
	ProtoSend     = 0x0100
)

// Protocol option bits, version 2 and up.
const (
	OptStatKeepalive  = 0x0001
	OptSetIdleTime    = 0x0002
	OptFTPPassiveMode = 0x0004
)

// Errors.
var (
	// ErrEmptyFile is returned when the status file has no content to migrate.
	ErrEmptyFile = errors.New("fsa: empty status file")

	// ErrRemapFailed is returned when resizing or remapping the backing
	// file fails; the file may be left at the old layout.
	ErrRemapFailed = errors.New("fsa: remap failed")
)

// UnsupportedMigrationError is returned for an (old, new) version pair
// outside the supported set; the file is left untouched.
type UnsupportedMigrationError struct {
	Old, New uint8
}

func (e *UnsupportedMigrationError) Error() string {
	return fmt.Sprintf("fsa: unsupported migration %d -> %d", e.Old, e.New)
}

// supportedMigrations enumerates every allowed (old, new) pair.
var supportedMigrations = map[[2]uint8]bool{
	{0, 1}: true,
	{0, 2}: true, {1, 2}: true,
	{0, 3}: true, {1, 3}: true, {2, 3}: true,
	{0, 4}: true, {1, 4}: true, {2, 4}: true, {3, 4}: true,
}

// MigrationSupported reports whether the (old, new) pair is on a
// supported migration path.
func MigrationSupported(old, new uint8) bool {
	return supportedMigrations[[2]uint8{old, new}]
}
