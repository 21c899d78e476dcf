package fsa

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Records:           37,
		Feature:           0xA5,
		IgnoreFirstErrors: 1,
		Version:           Version3,
		PageSize:          4096,
	}

	b, err := h.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, HeaderSize)

	assert.Equal(t, byte(37), b[0])
	assert.Equal(t, byte(0xA5), b[4])
	assert.Equal(t, byte(1), b[5])
	assert.Equal(t, byte(Version3), b[7])
	assert.Equal(t, byte(0x10), b[9]) // 4096 little-endian

	var got Header
	require.NoError(t, got.UnmarshalBinary(b))
	assert.Equal(t, h, got)
}

func TestHeaderRejectsShortInput(t *testing.T) {
	var h Header
	assert.ErrorIs(t, h.UnmarshalBinary(make([]byte, HeaderSize-1)), ErrEmptyFile)
}

func TestRecordSizes(t *testing.T) {
	assert.Equal(t, 193, RecordSize(Version0))
	assert.Equal(t, 197, RecordSize(Version1))
	assert.Equal(t, 221, RecordSize(Version2))
	assert.Equal(t, 234, RecordSize(Version3))
	assert.Equal(t, 270, RecordSize(Version4))
	assert.Equal(t, 0, RecordSize(99))
}

func sampleRecord() Record {
	var r Record
	copy(r.HostAlias[:], "alpha")
	copy(r.RealHostname[0][:], "alpha.example.net")
	copy(r.RealHostname[1][:], "alpha-backup.example.net")

	r.HostID = 0xDEADBEEF
	r.Protocol = ProtoFTP | ProtoSend
	r.ProtocolOptions = OptFTPPassiveMode
	r.ProtocolOptions2 = 7
	r.DebugMode = NormalMode
	r.HostStatus = 3
	r.AllowedTransfers = 5
	r.MaxErrors = 10
	r.RetryInterval = 120
	r.TTL = 60
	r.Blocksize = 16384
	r.TotalFileCounter = 1000
	r.TotalFileSize = 1 << 40
	r.BytesSent = 1 << 41
	r.Connections = 99
	r.LastConnection = 1700000000
	r.LastRetryTime = 1700000100
	r.FirstErrorTime = 1700000200
	r.WarnTime = 3600
	copy(r.ErrorHistory[:], []byte{1, 2, 3, 4, 5})
	r.StartEventHandle = 11
	r.EndEventHandle = 12
	r.TransferRateLimit = 1 << 20

	return r
}

func TestRecordRoundTripAllVersions(t *testing.T) {
	for _, version := range []uint8{Version0, Version1, Version2, Version3, Version4} {
		r := sampleRecord()

		// Older layouts cannot carry everything; clear what they lack
		// so the round trip compares equal.
		if version < Version4 {
			r.WarnTime = 0
			r.StartEventHandle = 0
			r.EndEventHandle = 0
			r.ProtocolOptions2 = 0
			r.TransferRateLimit = 0
		}
		if version < Version3 {
			r.ErrorHistory = [ErrorHistoryLen]byte{}
			r.FirstErrorTime = 0
		}
		if version < Version2 {
			r.HostID = 0
			r.ProtocolOptions = 0
			r.TotalFileSize = uint64(uint32(r.TotalFileSize))
			r.BytesSent = uint64(uint32(r.BytesSent))
		}
		if version < Version1 {
			r.TTL = 0
		}

		b := make([]byte, RecordSize(version))
		encodeRecord(version, &r, b)

		got := decodeRecord(version, b)
		assert.Equal(t, r, got, "version %d", version)
	}
}

func TestTranslateSplitsCombinedBitset(t *testing.T) {
	var r Record
	copy(r.HostAlias[:], "oldhost")
	r.Protocol = OldProtoFTP | OldProtoSCP |
		OldProtoGetFTP | OldProtoSend | OldProtoRetrieve |
		OldProtoStatKeepalive | OldProtoFTPPassiveMode
	r.DebugMode = 1

	got := translate(r, Version1, Version4)

	assert.Equal(t, uint32(ProtoFTP|ProtoSCP|ProtoGetFTP|ProtoSend|ProtoRetrieve), got.Protocol)
	assert.Equal(t, uint32(OptStatKeepalive|OptFTPPassiveMode), got.ProtocolOptions)
	assert.Equal(t, AliasChecksum([]byte("oldhost")), got.HostID)
	assert.Equal(t, uint8(DebugMode), got.DebugMode)
}

func TestTranslateKeepsSplitBitsetIntact(t *testing.T) {
	var r Record
	r.Protocol = ProtoGetFTP | ProtoSend
	r.ProtocolOptions = OptSetIdleTime
	r.HostID = 42
	r.DebugMode = NormalMode

	got := translate(r, Version2, Version4)
	assert.Equal(t, r, got)
}

func TestTranslateRewritesGroupHostname(t *testing.T) {
	var r Record
	copy(r.HostAlias[:], "grp-mirrors")
	r.RealHostname[0][0] = GroupIdentifier
	copy(r.RealHostname[0][1:], "stale-text-from-v2")

	got := translate(r, Version2, Version3)

	var want [RealHostnameLen]byte
	want[0] = GroupIdentifier
	assert.Equal(t, want, got.RealHostname[0])
}

func TestAliasChecksumStopsAtNUL(t *testing.T) {
	var padded [HostAliasLen]byte
	copy(padded[:], "alpha")

	assert.Equal(t, AliasChecksum([]byte("alpha")), AliasChecksum(padded[:]))
	assert.NotEqual(t, AliasChecksum([]byte("alpha")), AliasChecksum([]byte("beta")))
}

// writeStatusFile lays down a file in the given version with the given
// records, the way a writer of that era would have.
func writeStatusFile(t *testing.T, path string, version uint8, feature uint8, records []Record) {
	t.Helper()

	hdr := Header{
		Records:  uint32(len(records)),
		Feature:  feature,
		Version:  version,
		PageSize: uint32(os.Getpagesize()),
	}

	hb, err := hdr.MarshalBinary()
	require.NoError(t, err)

	size := RecordSize(version)
	data := make([]byte, HeaderSize+len(records)*size)
	copy(data, hb)

	for i := range records {
		encodeRecord(version, &records[i], data[HeaderSize+i*size:])
	}

	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestMigrateV0ToV4(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.fsa")

	mk := func(alias string, proto uint32, debug uint8, fileSize uint32) Record {
		var r Record
		copy(r.HostAlias[:], alias)
		copy(r.RealHostname[0][:], alias+".example.net")
		r.Protocol = proto
		r.DebugMode = debug
		r.MaxErrors = 10
		r.TotalFileCounter = 500
		r.TotalFileSize = uint64(fileSize)
		r.BytesSent = 12345
		r.LastConnection = 1600000000
		return r
	}

	in := []Record{
		mk("alpha", OldProtoFTP|OldProtoSend|OldProtoFTPPassiveMode, 0, 0x8000_0000),
		mk("beta", OldProtoSCP|OldProtoRetrieve, 1, 4096),
		mk("gamma", OldProtoWMO|OldProtoGetFTP|OldProtoStatKeepalive, 0, 0),
	}

	writeStatusFile(t, path, Version0, 0x42, in)

	require.NoError(t, Migrate(path, Version4, zerolog.Nop()))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(HeaderSize+3*RecordSize(Version4)), fi.Size())

	hdr, out, err := ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, uint8(Version4), hdr.Version)
	assert.Equal(t, uint32(3), hdr.Records)
	assert.Equal(t, uint8(0x42), hdr.Feature)
	assert.Equal(t, uint8(0), hdr.IgnoreFirstErrors)
	require.Len(t, out, 3)

	alpha := out[0]
	assert.Equal(t, uint32(ProtoFTP|ProtoSend), alpha.Protocol)
	assert.Equal(t, uint32(OptFTPPassiveMode), alpha.ProtocolOptions)
	assert.Equal(t, uint32(0), alpha.ProtocolOptions2)
	assert.Equal(t, AliasChecksum([]byte("alpha")), alpha.HostID)
	assert.Equal(t, uint8(NormalMode), alpha.DebugMode)
	assert.Equal(t, uint64(0x0000_0000_8000_0000), alpha.TotalFileSize)
	assert.Equal(t, uint64(12345), alpha.BytesSent)
	assert.Equal(t, int64(1600000000), alpha.LastConnection)
	assert.Zero(t, alpha.TTL)
	assert.Zero(t, alpha.FirstErrorTime)
	assert.Zero(t, alpha.TransferRateLimit)

	beta := out[1]
	assert.Equal(t, uint32(ProtoSCP|ProtoRetrieve), beta.Protocol)
	assert.Equal(t, uint8(DebugMode), beta.DebugMode)

	gamma := out[2]
	assert.Equal(t, uint32(ProtoWMO|ProtoGetFTP), gamma.Protocol)
	assert.Equal(t, uint32(OptStatKeepalive), gamma.ProtocolOptions)
}

func TestMigrateKeepsIgnoreFirstErrorsFromV3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.fsa")

	var r Record
	copy(r.HostAlias[:], "solo")
	r.Protocol = ProtoFTP
	r.ProtocolOptions = OptSetIdleTime
	r.HostID = AliasChecksum([]byte("solo"))
	r.DebugMode = NormalMode

	hdr := Header{
		Records:           1,
		IgnoreFirstErrors: 1,
		Version:           Version3,
		PageSize:          uint32(os.Getpagesize()),
	}

	hb, err := hdr.MarshalBinary()
	require.NoError(t, err)

	data := make([]byte, HeaderSize+RecordSize(Version3))
	copy(data, hb)
	encodeRecord(Version3, &r, data[HeaderSize:])
	require.NoError(t, os.WriteFile(path, data, 0o644))

	require.NoError(t, Migrate(path, Version4, zerolog.Nop()))

	got, out, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), got.IgnoreFirstErrors)
	require.Len(t, out, 1)
	assert.Equal(t, uint32(ProtoFTP), out[0].Protocol)
	assert.Equal(t, uint32(OptSetIdleTime), out[0].ProtocolOptions)
}

func TestMigrateSameVersionIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.fsa")
	writeStatusFile(t, path, Version4, 0, []Record{sampleRecord()})

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, Migrate(path, Version4, zerolog.Nop()))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMigrateRejectsDowngrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.fsa")
	writeStatusFile(t, path, Version4, 0, nil)

	err := Migrate(path, Version2, zerolog.Nop())

	var umErr *UnsupportedMigrationError
	require.True(t, errors.As(err, &umErr))
	assert.Equal(t, uint8(Version4), umErr.Old)
	assert.Equal(t, uint8(Version2), umErr.New)
}

func TestMigrateEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.fsa")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	assert.ErrorIs(t, Migrate(path, Version4, zerolog.Nop()), ErrEmptyFile)
}

func TestMigrationSupportedPairs(t *testing.T) {
	assert.True(t, MigrationSupported(0, 4))
	assert.True(t, MigrationSupported(3, 4))
	assert.False(t, MigrationSupported(4, 3))
	assert.False(t, MigrationSupported(1, 1))
	assert.False(t, MigrationSupported(0, 5))
}
