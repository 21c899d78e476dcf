package fsa

import (
	"encoding/binary"
)

// Record is the in-memory form of one per-host status record, wide
// enough for the current layout. Older layouts fill a subset; fields a
// layout lacks stay zero. For versions 0 and 1 Protocol carries the
// combined old bitset and DebugMode the old boolean.
type Record struct {
	HostAlias    [HostAliasLen]byte
	RealHostname [2][RealHostnameLen]byte

	HostID           uint32
	Protocol         uint32
	ProtocolOptions  uint32
	ProtocolOptions2 uint32

	DebugMode uint8

	HostStatus       uint32
	AllowedTransfers uint32
	MaxErrors        uint32
	RetryInterval    uint32
	TTL              uint32
	Blocksize        uint32

	TotalFileCounter uint32
	TotalFileSize    uint64
	BytesSent        uint64
	Connections      uint32

	LastConnection int64
	LastRetryTime  int64
	FirstErrorTime int64
	WarnTime       int64

	ErrorHistory [ErrorHistoryLen]byte

	StartEventHandle  uint64
	EndEventHandle    uint64
	TransferRateLimit uint64
}

// Per-version packed record sizes.
const (
	recordSizeV0 = 144 + 4 + 1 + 11*4       // 193
	recordSizeV1 = recordSizeV0 + 4         // 197, adds ttl
	recordSizeV2 = 144 + 12 + 1 + 28 + 36   // 221, split protocol, 64-bit counters
	recordSizeV3 = recordSizeV2 + 5 + 8     // 234, adds error history, first error time
	recordSizeV4 = recordSizeV3 + 8*4 + 4   // 270, adds event handles, warn time, options2, rate limit
)

// RecordSize returns the packed on-disk size of one record for version.
func RecordSize(version uint8) int {
	switch version {
	case Version0:
		return recordSizeV0
	case Version1:
		return recordSizeV1
	case Version2:
		return recordSizeV2
	case Version3:
		return recordSizeV3
	case Version4:
		return recordSizeV4
	default:
		return 0
	}
}

// cursor walks a packed little-endian record, for both decode and encode.
// The caller guarantees the slice covers a full record.
type cursor struct {
	b   []byte
	off int
}

func (c *cursor) bytes(n int) []byte {
	s := c.b[c.off : c.off+n]
	c.off += n
	return s
}

func (c *cursor) u8() uint8 { return c.bytes(1)[0] }

func (c *cursor) u32() uint32 { return binary.LittleEndian.Uint32(c.bytes(4)) }

func (c *cursor) u64() uint64 { return binary.LittleEndian.Uint64(c.bytes(8)) }

func (c *cursor) i32() int64 { return int64(int32(c.u32())) }

func (c *cursor) i64() int64 { return int64(c.u64()) }

func (c *cursor) putU8(v uint8) { c.bytes(1)[0] = v }

func (c *cursor) putU32(v uint32) { binary.LittleEndian.PutUint32(c.bytes(4), v) }

func (c *cursor) putU64(v uint64) { binary.LittleEndian.PutUint64(c.bytes(8), v) }

func (c *cursor) putI32(v int64) { c.putU32(uint32(int32(v))) }

func (c *cursor) putI64(v int64) { c.putU64(uint64(v)) }

func (c *cursor) putBytes(v []byte) { copy(c.bytes(len(v)), v) }

// decodeRecord reads one record in the given layout version from b.
func decodeRecord(version uint8, b []byte) Record {
	var r Record
	c := &cursor{b: b}

	copy(r.HostAlias[:], c.bytes(HostAliasLen))
	copy(r.RealHostname[0][:], c.bytes(RealHostnameLen))
	copy(r.RealHostname[1][:], c.bytes(RealHostnameLen))

	if version >= Version2 {
		r.HostID = c.u32()
		r.Protocol = c.u32()
		r.ProtocolOptions = c.u32()
	} else {
		r.Protocol = c.u32() // combined old bitset
	}

	r.DebugMode = c.u8()

	r.HostStatus = c.u32()
	r.AllowedTransfers = c.u32()
	r.MaxErrors = c.u32()
	r.RetryInterval = c.u32()

	if version >= Version1 {
		r.TTL = c.u32()
	}

	r.Blocksize = c.u32()
	r.TotalFileCounter = c.u32()

	if version >= Version2 {
		r.TotalFileSize = c.u64()
		r.BytesSent = c.u64()
		r.Connections = c.u32()
		r.LastConnection = c.i64()
		r.LastRetryTime = c.i64()
	} else {
		r.TotalFileSize = uint64(c.u32())
		r.BytesSent = uint64(c.u32())
		r.Connections = c.u32()
		r.LastConnection = c.i32()
		r.LastRetryTime = c.i32()
	}

	if version >= Version3 {
		copy(r.ErrorHistory[:], c.bytes(ErrorHistoryLen))
		r.FirstErrorTime = c.i64()
	}

	if version >= Version4 {
		r.WarnTime = c.i64()
		r.StartEventHandle = c.u64()
		r.EndEventHandle = c.u64()
		r.ProtocolOptions2 = c.u32()
		r.TransferRateLimit = c.u64()
	}

	return r
}

// encodeRecord writes r into b in the given layout version.
func encodeRecord(version uint8, r *Record, b []byte) {
	c := &cursor{b: b}

	c.putBytes(r.HostAlias[:])
	c.putBytes(r.RealHostname[0][:])
	c.putBytes(r.RealHostname[1][:])

	if version >= Version2 {
		c.putU32(r.HostID)
		c.putU32(r.Protocol)
		c.putU32(r.ProtocolOptions)
	} else {
		c.putU32(r.Protocol)
	}

	c.putU8(r.DebugMode)

	c.putU32(r.HostStatus)
	c.putU32(r.AllowedTransfers)
	c.putU32(r.MaxErrors)
	c.putU32(r.RetryInterval)

	if version >= Version1 {
		c.putU32(r.TTL)
	}

	c.putU32(r.Blocksize)
	c.putU32(r.TotalFileCounter)

	if version >= Version2 {
		c.putU64(r.TotalFileSize)
		c.putU64(r.BytesSent)
		c.putU32(r.Connections)
		c.putI64(r.LastConnection)
		c.putI64(r.LastRetryTime)
	} else {
		c.putU32(uint32(r.TotalFileSize))
		c.putU32(uint32(r.BytesSent))
		c.putU32(r.Connections)
		c.putI32(r.LastConnection)
		c.putI32(r.LastRetryTime)
	}

	if version >= Version3 {
		c.putBytes(r.ErrorHistory[:])
		c.putI64(r.FirstErrorTime)
	}

	if version >= Version4 {
		c.putI64(r.WarnTime)
		c.putU64(r.StartEventHandle)
		c.putU64(r.EndEventHandle)
		c.putU32(r.ProtocolOptions2)
		c.putU64(r.TransferRateLimit)
	}
}

// translate converts a record decoded from the old layout into the
// semantics of the new one. Fields the old layout lacks stay zero.
func translate(r Record, old, new uint8) Record {
	if old < Version2 && new >= Version2 {
		combined := r.Protocol

		r.Protocol = remapProtocol(combined)
		r.ProtocolOptions = remapOptions(combined)
		r.HostID = AliasChecksum(r.HostAlias[:])

		if r.DebugMode != 0 {
			r.DebugMode = DebugMode
		} else {
			r.DebugMode = NormalMode
		}
	}

	if new >= Version3 && r.RealHostname[0][0] == GroupIdentifier {
		var sentinel [RealHostnameLen]byte
		sentinel[0] = GroupIdentifier
		r.RealHostname[0] = sentinel
	}

	return r
}

// remapProtocol repacks the protocol bits from the combined old bitset.
func remapProtocol(old uint32) uint32 {
	// FTP through WMO keep their positions.
	p := old & (ProtoFTP | ProtoLOC | ProtoSMTP | ProtoMAP | ProtoSCP | ProtoWMO)

	if old&OldProtoGetFTP != 0 {
		p |= ProtoGetFTP
	}
	if old&OldProtoRetrieve != 0 {
		p |= ProtoRetrieve
	}
	if old&OldProtoSend != 0 {
		p |= ProtoSend
	}

	return p
}

// remapOptions extracts the transfer-option bits from the combined old bitset.
func remapOptions(old uint32) uint32 {
	var o uint32

	if old&OldProtoStatKeepalive != 0 {
		o |= OptStatKeepalive
	}
	if old&OldProtoSetIdleTime != 0 {
		o |= OptSetIdleTime
	}
	if old&OldProtoFTPPassiveMode != 0 {
		o |= OptFTPPassiveMode
	}

	return o
}
