package filexfer

// Attributes related flags for protocol version 3.
//
// Defined in: https://tools.ietf.org/html/draft-ietf-secsh-filexfer-02#section-5
const (
	AttrSize        = 1 << iota // SSH_FILEXFER_ATTR_SIZE
	AttrUIDGID                  // SSH_FILEXFER_ATTR_UIDGID (v3 only)
	AttrPermissions             // SSH_FILEXFER_ATTR_PERMISSIONS
	AttrACModTime               // SSH_FILEXFER_ACMODTIME (v3 only)

	AttrExtended = 1 << 31 // SSH_FILEXFER_ATTR_EXTENDED
)

// Attributes related flags for protocol versions 4 through 6.
// AttrAccessTime deliberately shares its bit with AttrACModTime.
//
// Defined in: https://tools.ietf.org/html/draft-ietf-secsh-filexfer-13#section-7.1
const (
	AttrAccessTime       = 0x00000008 // SSH_FILEXFER_ATTR_ACCESSTIME
	AttrCreateTime       = 0x00000010 // SSH_FILEXFER_ATTR_CREATETIME
	AttrModifyTime       = 0x00000020 // SSH_FILEXFER_ATTR_MODIFYTIME
	AttrACL              = 0x00000040 // SSH_FILEXFER_ATTR_ACL
	AttrOwnerGroup       = 0x00000080 // SSH_FILEXFER_ATTR_OWNERGROUP
	AttrSubsecondTimes   = 0x00000100 // SSH_FILEXFER_ATTR_SUBSECOND_TIMES
	AttrBits             = 0x00000200 // SSH_FILEXFER_ATTR_BITS (v5+)
	AttrAllocationSize   = 0x00000400 // SSH_FILEXFER_ATTR_ALLOCATION_SIZE (v6)
	AttrTextHint         = 0x00000800 // SSH_FILEXFER_ATTR_TEXT_HINT (v6)
	AttrMimeType         = 0x00001000 // SSH_FILEXFER_ATTR_MIME_TYPE (v6)
	AttrLinkCount        = 0x00002000 // SSH_FILEXFER_ATTR_LINK_COUNT (v6)
	AttrUntranslatedName = 0x00004000 // SSH_FILEXFER_ATTR_UNTRANSLATED_NAME (v6)
	AttrCTime            = 0x00008000 // SSH_FILEXFER_ATTR_CTIME (v6)
)

// File types carried in the type byte of v4+ attributes.
//
// Defined in: https://tools.ietf.org/html/draft-ietf-secsh-filexfer-13#section-7.2
const (
	FileTypeRegular      = uint8(iota + 1) // SSH_FILEXFER_TYPE_REGULAR
	FileTypeDirectory                      // SSH_FILEXFER_TYPE_DIRECTORY
	FileTypeSymlink                        // SSH_FILEXFER_TYPE_SYMLINK
	FileTypeSpecial                        // SSH_FILEXFER_TYPE_SPECIAL
	FileTypeUnknown                        // SSH_FILEXFER_TYPE_UNKNOWN
	FileTypeSocket                         // SSH_FILEXFER_TYPE_SOCKET (v5+)
	FileTypeCharDevice                     // SSH_FILEXFER_TYPE_CHAR_DEVICE (v5+)
	FileTypeBlockDevice                    // SSH_FILEXFER_TYPE_BLOCK_DEVICE (v5+)
	FileTypeFIFO                           // SSH_FILEXFER_TYPE_FIFO (v5+)
)

// POSIX mode bits used to infer the file type on protocol version 3.
const (
	ModeTypeMask = 0xF000 // S_IFMT
	ModeRegular  = 0x8000 // S_IFREG
	ModeDir      = 0x4000 // S_IFDIR
	ModeSymlink  = 0xA000 // S_IFLNK
	ModeSocket   = 0xC000 // S_IFSOCK
	ModeChar     = 0x2000 // S_IFCHR
	ModeBlock    = 0x6000 // S_IFBLK
	ModeFIFO     = 0x1000 // S_IFIFO
)

// Attributes defines the file attributes type defined across
// draft-ietf-secsh-filexfer-02 (v3) through draft-ietf-secsh-filexfer-13 (v6).
//
// The same structure carries both wire layouts;
// the negotiated protocol version passed to the marshaling methods selects the layout.
// Fields not named by Flags are undefined.
type Attributes struct {
	Flags uint32

	// Type byte, v4+ only. On v3 the type is inferred from Permissions.
	Type uint8

	// AttrSize
	Size uint64

	// AttrUIDGID (v3)
	UID uint32
	GID uint32

	// AttrOwnerGroup (v4+)
	Owner string
	Group string

	// AttrPermissions
	Permissions uint32

	// AttrACModTime (v3) / AttrAccessTime, AttrModifyTime, AttrCreateTime, AttrCTime (v4+)
	ATime      int64
	ATimeNSec  uint32
	CreateTime int64
	CreateNSec uint32
	MTime      int64
	MTimeNSec  uint32
	CTime      int64
	CTimeNSec  uint32

	// AttrExtended
	ExtendedAttributes []ExtendedAttribute
}

// FileType returns the file type of the attributes,
// inferring it from the permission bits when the negotiated version is 3.
func (a *Attributes) FileType(version uint32) uint8 {
	if version > 3 {
		return a.Type
	}

	if a.Flags&AttrPermissions == 0 {
		return FileTypeUnknown
	}

	switch a.Permissions & ModeTypeMask {
	case ModeRegular:
		return FileTypeRegular
	case ModeDir:
		return FileTypeDirectory
	case ModeSymlink:
		return FileTypeSymlink
	case ModeSocket:
		return FileTypeSocket
	case ModeChar:
		return FileTypeCharDevice
	case ModeBlock:
		return FileTypeBlockDevice
	case ModeFIFO:
		return FileTypeFIFO
	default:
		return FileTypeUnknown
	}
}

// IsDir reports whether the attributes describe a directory.
func (a *Attributes) IsDir(version uint32) bool {
	return a.FileType(version) == FileTypeDirectory
}

// Len returns the number of bytes a would marshal into for the given protocol version.
func (a *Attributes) Len(version uint32) int {
	if version > 3 {
		return a.lenV4()
	}

	length := 4

	if a.Flags&AttrSize != 0 {
		length += 8
	}

	if a.Flags&AttrUIDGID != 0 {
		length += 4 + 4
	}

	if a.Flags&AttrPermissions != 0 {
		length += 4
	}

	if a.Flags&AttrACModTime != 0 {
		length += 4 + 4
	}

	if a.Flags&AttrExtended != 0 {
		length += 4

		for _, ext := range a.ExtendedAttributes {
			length += ext.Len()
		}
	}

	return length
}

func (a *Attributes) lenV4() int {
	length := 4 + 1

	if a.Flags&AttrSize != 0 {
		length += 8
	}

	if a.Flags&AttrOwnerGroup != 0 {
		length += 4 + len(a.Owner) + 4 + len(a.Group)
	}

	if a.Flags&AttrPermissions != 0 {
		length += 4
	}

	for _, timeFlag := range [...]uint32{AttrAccessTime, AttrCreateTime, AttrModifyTime, AttrCTime} {
		if a.Flags&timeFlag != 0 {
			length += 8

			if a.Flags&AttrSubsecondTimes != 0 {
				length += 4
			}
		}
	}

	if a.Flags&AttrExtended != 0 {
		length += 4

		for _, ext := range a.ExtendedAttributes {
			length += ext.Len()
		}
	}

	return length
}

// MarshalInto marshals a onto the end of the given Buffer,
// using the wire layout of the given protocol version.
func (a *Attributes) MarshalInto(b *Buffer, version uint32) {
	if version > 3 {
		a.marshalIntoV4(b)
		return
	}

	b.AppendUint32(a.Flags)

	if a.Flags&AttrSize != 0 {
		b.AppendUint64(a.Size)
	}

	if a.Flags&AttrUIDGID != 0 {
		b.AppendUint32(a.UID)
		b.AppendUint32(a.GID)
	}

	if a.Flags&AttrPermissions != 0 {
		b.AppendUint32(a.Permissions)
	}

	if a.Flags&AttrACModTime != 0 {
		b.AppendUint32(uint32(a.ATime))
		b.AppendUint32(uint32(a.MTime))
	}

	if a.Flags&AttrExtended != 0 {
		b.AppendUint32(uint32(len(a.ExtendedAttributes)))

		for _, ext := range a.ExtendedAttributes {
			ext.MarshalInto(b)
		}
	}
}

func (a *Attributes) marshalIntoV4(b *Buffer) {
	b.AppendUint32(a.Flags)
	b.AppendUint8(a.Type)

	if a.Flags&AttrSize != 0 {
		b.AppendUint64(a.Size)
	}

	if a.Flags&AttrOwnerGroup != 0 {
		b.AppendString(a.Owner)
		b.AppendString(a.Group)
	}

	if a.Flags&AttrPermissions != 0 {
		b.AppendUint32(a.Permissions)
	}

	if a.Flags&AttrAccessTime != 0 {
		b.AppendInt64(a.ATime)

		if a.Flags&AttrSubsecondTimes != 0 {
			b.AppendUint32(a.ATimeNSec)
		}
	}

	if a.Flags&AttrCreateTime != 0 {
		b.AppendInt64(a.CreateTime)

		if a.Flags&AttrSubsecondTimes != 0 {
			b.AppendUint32(a.CreateNSec)
		}
	}

	if a.Flags&AttrModifyTime != 0 {
		b.AppendInt64(a.MTime)

		if a.Flags&AttrSubsecondTimes != 0 {
			b.AppendUint32(a.MTimeNSec)
		}
	}

	if a.Flags&AttrCTime != 0 {
		b.AppendInt64(a.CTime)

		if a.Flags&AttrSubsecondTimes != 0 {
			b.AppendUint32(a.CTimeNSec)
		}
	}

	if a.Flags&AttrExtended != 0 {
		b.AppendUint32(uint32(len(a.ExtendedAttributes)))

		for _, ext := range a.ExtendedAttributes {
			ext.MarshalInto(b)
		}
	}
}

// UnmarshalFrom unmarshals an Attributes from the given Buffer into a,
// using the wire layout of the given protocol version.
//
// NOTE: The values of fields not covered in the a.Flags are explicitly undefined.
func (a *Attributes) UnmarshalFrom(b *Buffer, version uint32) (err error) {
	if a.Flags, err = b.ConsumeUint32(); err != nil {
		return err
	}

	if version > 3 {
		return a.unmarshalFromV4(b)
	}

	// Short-circuit dummy attributes.
	if a.Flags == 0 {
		return nil
	}

	if a.Flags&AttrSize != 0 {
		if a.Size, err = b.ConsumeUint64(); err != nil {
			return err
		}
	}

	if a.Flags&AttrUIDGID != 0 {
		if a.UID, err = b.ConsumeUint32(); err != nil {
			return err
		}

		if a.GID, err = b.ConsumeUint32(); err != nil {
			return err
		}
	}

	if a.Flags&AttrPermissions != 0 {
		if a.Permissions, err = b.ConsumeUint32(); err != nil {
			return err
		}
	}

	if a.Flags&AttrACModTime != 0 {
		atime, err := b.ConsumeUint32()
		if err != nil {
			return err
		}

		mtime, err := b.ConsumeUint32()
		if err != nil {
			return err
		}

		a.ATime, a.MTime = int64(atime), int64(mtime)
	}

	if a.Flags&AttrExtended != 0 {
		count, err := b.ConsumeUint32()
		if err != nil {
			return err
		}

		a.ExtendedAttributes = make([]ExtendedAttribute, count)
		for i := range a.ExtendedAttributes {
			if err := a.ExtendedAttributes[i].UnmarshalFrom(b); err != nil {
				return err
			}
		}
	}

	return nil
}

func (a *Attributes) unmarshalFromV4(b *Buffer) (err error) {
	if a.Type, err = b.ConsumeUint8(); err != nil {
		return err
	}

	if a.Flags&AttrSize != 0 {
		if a.Size, err = b.ConsumeUint64(); err != nil {
			return err
		}
	}

	if a.Flags&AttrAllocationSize != 0 {
		// Parsed and discarded.
		if _, err = b.ConsumeUint64(); err != nil {
			return err
		}
	}

	if a.Flags&AttrOwnerGroup != 0 {
		if a.Owner, err = b.ConsumeString(); err != nil {
			return err
		}

		if a.Group, err = b.ConsumeString(); err != nil {
			return err
		}
	}

	if a.Flags&AttrPermissions != 0 {
		if a.Permissions, err = b.ConsumeUint32(); err != nil {
			return err
		}
	}

	if err = a.consumeTime(b, AttrAccessTime, &a.ATime, &a.ATimeNSec); err != nil {
		return err
	}

	if err = a.consumeTime(b, AttrCreateTime, &a.CreateTime, &a.CreateNSec); err != nil {
		return err
	}

	if err = a.consumeTime(b, AttrModifyTime, &a.MTime, &a.MTimeNSec); err != nil {
		return err
	}

	if err = a.consumeTime(b, AttrCTime, &a.CTime, &a.CTimeNSec); err != nil {
		return err
	}

	// The remaining v5/v6 fields are parsed so that trailing data stays aligned,
	// but the values are discarded.

	if a.Flags&AttrACL != 0 {
		if _, err = b.ConsumeByteSlice(); err != nil {
			return err
		}
	}

	if a.Flags&AttrBits != 0 {
		if _, err = b.ConsumeUint32(); err != nil { // attrib-bits
			return err
		}
	}

	if a.Flags&AttrTextHint != 0 {
		if _, err = b.ConsumeUint8(); err != nil {
			return err
		}
	}

	if a.Flags&AttrMimeType != 0 {
		if _, err = b.ConsumeString(); err != nil {
			return err
		}
	}

	if a.Flags&AttrLinkCount != 0 {
		if _, err = b.ConsumeUint32(); err != nil {
			return err
		}
	}

	if a.Flags&AttrUntranslatedName != 0 {
		if _, err = b.ConsumeString(); err != nil {
			return err
		}
	}

	if a.Flags&AttrExtended != 0 {
		count, err := b.ConsumeUint32()
		if err != nil {
			return err
		}

		a.ExtendedAttributes = make([]ExtendedAttribute, count)
		for i := range a.ExtendedAttributes {
			if err := a.ExtendedAttributes[i].UnmarshalFrom(b); err != nil {
				return err
			}
		}
	}

	return nil
}

func (a *Attributes) consumeTime(b *Buffer, flag uint32, sec *int64, nsec *uint32) (err error) {
	if a.Flags&flag == 0 {
		return nil
	}

	if *sec, err = b.ConsumeInt64(); err != nil {
		return err
	}

	if a.Flags&AttrSubsecondTimes != 0 {
		if *nsec, err = b.ConsumeUint32(); err != nil {
			return err
		}
	}

	return nil
}

// ExtendedAttribute defines the extended file attribute type defined in draft-ietf-secsh-filexfer-02
//
// Defined in: https://tools.ietf.org/html/draft-ietf-secsh-filexfer-02#section-5
type ExtendedAttribute struct {
	Type string
	Data string
}

// Len returns the number of bytes e would marshal into.
func (e *ExtendedAttribute) Len() int {
	return 4 + len(e.Type) + 4 + len(e.Data)
}

// MarshalInto marshals e onto the end of the given Buffer.
func (e *ExtendedAttribute) MarshalInto(b *Buffer) {
	b.AppendString(e.Type)
	b.AppendString(e.Data)
}

// UnmarshalFrom unmarshals an ExtendedAttribute from the given Buffer into e.
func (e *ExtendedAttribute) UnmarshalFrom(b *Buffer) (err error) {
	if e.Type, err = b.ConsumeString(); err != nil {
		return err
	}

	if e.Data, err = b.ConsumeString(); err != nil {
		return err
	}

	return nil
}

// NameEntry implements the SSH_FXP_NAME repeated data type.
//
// Protocol version 3 carries a longname field; versions 4 and up do not.
type NameEntry struct {
	Filename string
	Longname string
	Attrs    Attributes
}

// Len returns the number of bytes e would marshal into for the given protocol version.
func (e *NameEntry) Len(version uint32) int {
	length := 4 + len(e.Filename) + e.Attrs.Len(version)

	if version <= 3 {
		length += 4 + len(e.Longname)
	}

	return length
}

// MarshalInto marshals e onto the end of the given Buffer.
func (e *NameEntry) MarshalInto(b *Buffer, version uint32) {
	b.AppendString(e.Filename)

	if version <= 3 {
		b.AppendString(e.Longname)
	}

	e.Attrs.MarshalInto(b, version)
}

// UnmarshalFrom unmarshals a NameEntry from the given Buffer into e.
//
// NOTE: The values of fields not covered in the e.Attrs.Flags are explicitly undefined.
func (e *NameEntry) UnmarshalFrom(b *Buffer, version uint32) (err error) {
	if e.Filename, err = b.ConsumeString(); err != nil {
		return err
	}

	if version <= 3 {
		if e.Longname, err = b.ConsumeString(); err != nil {
			return err
		}
	}

	return e.Attrs.UnmarshalFrom(b, version)
}
