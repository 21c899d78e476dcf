package fsa

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Migrate upgrades the status file at path in place to layout version
// newVersion. The old version is taken from the file header. A file
// already at newVersion is left alone. On an unsupported (old, new)
// pair the file is untouched and an *UnsupportedMigrationError is
// returned.
func Migrate(path string, newVersion uint8, log zerolog.Logger) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return errors.Wrap(err, "opening status file")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "stat status file")
	}

	if fi.Size() == 0 {
		return ErrEmptyFile
	}

	old, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return errors.Wrap(err, "mapping status file")
	}

	var hdr Header
	if err := hdr.UnmarshalBinary(old); err != nil {
		unix.Munmap(old)
		return err
	}

	oldVersion := hdr.Version

	if oldVersion == newVersion {
		unix.Munmap(old)
		return nil
	}

	if !MigrationSupported(oldVersion, newVersion) {
		unix.Munmap(old)
		return &UnsupportedMigrationError{Old: oldVersion, New: newVersion}
	}

	oldSize := RecordSize(oldVersion)
	newSize := RecordSize(newVersion)
	n := int(hdr.Records)

	if int64(HeaderSize+n*oldSize) > fi.Size() {
		unix.Munmap(old)
		return errors.Errorf("status file truncated: %d records need %d bytes, have %d",
			n, HeaderSize+n*oldSize, fi.Size())
	}

	// Translate into a private buffer first so the mapping can be
	// resized without overlapping reads and writes.
	buf := make([]byte, n*newSize)
	for i := 0; i < n; i++ {
		r := decodeRecord(oldVersion, old[HeaderSize+i*oldSize:])
		r = translate(r, oldVersion, newVersion)
		encodeRecord(newVersion, &r, buf[i*newSize:])
	}

	if err := unix.Munmap(old); err != nil {
		return errors.Wrap(err, "unmapping status file")
	}

	total := HeaderSize + len(buf)

	if err := unix.Ftruncate(int(f.Fd()), int64(total)); err != nil {
		return errors.Wrapf(ErrRemapFailed, "truncating to %d bytes: %v", total, err)
	}

	m, err := unix.Mmap(int(f.Fd()), 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return errors.Wrapf(ErrRemapFailed, "remapping: %v", err)
	}

	nh := Header{
		Records:  hdr.Records,
		Feature:  hdr.Feature,
		Version:  newVersion,
		PageSize: uint32(os.Getpagesize()),
	}

	// The ignore-first-errors flag only exists from version 3 on; a
	// value read from an older header is reserved garbage.
	if oldVersion >= Version3 {
		nh.IgnoreFirstErrors = hdr.IgnoreFirstErrors
	}

	hb, err := nh.MarshalBinary()
	if err != nil {
		unix.Munmap(m)
		return err
	}

	copy(m[:HeaderSize], hb)
	copy(m[HeaderSize:], buf)

	if err := unix.Msync(m, unix.MS_SYNC); err != nil {
		unix.Munmap(m)
		return errors.Wrap(err, "syncing status file")
	}

	if err := unix.Munmap(m); err != nil {
		return errors.Wrap(err, "unmapping status file")
	}

	log.Info().
		Str("path", path).
		Uint8("from", oldVersion).
		Uint8("to", newVersion).
		Uint32("records", hdr.Records).
		Msg("migrated status file")

	return nil
}

// ReadFile loads the header and all records of a status file. The
// whole file is read through the record codec, never cast.
func ReadFile(path string) (Header, []Record, error) {
	var hdr Header

	data, err := os.ReadFile(path)
	if err != nil {
		return hdr, nil, errors.Wrap(err, "reading status file")
	}

	if len(data) == 0 {
		return hdr, nil, ErrEmptyFile
	}

	if err := hdr.UnmarshalBinary(data); err != nil {
		return hdr, nil, err
	}

	size := RecordSize(hdr.Version)
	if size == 0 {
		return hdr, nil, errors.Errorf("unknown layout version %d", hdr.Version)
	}

	n := int(hdr.Records)
	if HeaderSize+n*size > len(data) {
		return hdr, nil, errors.Errorf("status file truncated: %d records need %d bytes, have %d",
			n, HeaderSize+n*size, len(data))
	}

	records := make([]Record, n)
	for i := 0; i < n; i++ {
		records[i] = decodeRecord(hdr.Version, data[HeaderSize+i*size:])
	}

	return hdr, records, nil
}
