package sftpc

import (
	"os"
	"time"

	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
)

// fileInfo adapts protocol attributes to os.FileInfo.
type fileInfo struct {
	name    string
	attrs   *sshfx.Attributes
	version uint32
}

func (fi *fileInfo) Name() string { return fi.name }

func (fi *fileInfo) Size() int64 { return int64(fi.attrs.Size) }

func (fi *fileInfo) Mode() os.FileMode { return toFileMode(fi.attrs, fi.version) }

func (fi *fileInfo) ModTime() time.Time { return time.Unix(fi.attrs.MTime, int64(fi.attrs.MTimeNSec)) }

func (fi *fileInfo) IsDir() bool { return fi.attrs.IsDir(fi.version) }

// Sys returns the underlying *filexfer.Attributes.
func (fi *fileInfo) Sys() interface{} { return fi.attrs }

func toFileMode(a *sshfx.Attributes, version uint32) os.FileMode {
	mode := os.FileMode(a.Permissions & 0o777)

	switch a.FileType(version) {
	case sshfx.FileTypeDirectory:
		mode |= os.ModeDir
	case sshfx.FileTypeSymlink:
		mode |= os.ModeSymlink
	case sshfx.FileTypeSocket:
		mode |= os.ModeSocket
	case sshfx.FileTypeCharDevice:
		mode |= os.ModeDevice | os.ModeCharDevice
	case sshfx.FileTypeBlockDevice:
		mode |= os.ModeDevice
	case sshfx.FileTypeFIFO:
		mode |= os.ModeNamedPipe
	case sshfx.FileTypeSpecial, sshfx.FileTypeUnknown:
		mode |= os.ModeIrregular
	}

	return mode
}

// fileInfoFromEntry wraps a name-list entry as an os.FileInfo.
func fileInfoFromEntry(e *sshfx.NameEntry, version uint32) os.FileInfo {
	return &fileInfo{
		name:    e.Filename,
		attrs:   &e.Attrs,
		version: version,
	}
}
