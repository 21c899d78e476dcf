package fsa

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

// AliasChecksum derives the stable host id from an alias field. Only
// the bytes up to the first NUL take part, so a padded on-disk field
// and its string form hash the same.
func AliasChecksum(alias []byte) uint32 {
	if n := bytes.IndexByte(alias, 0); n >= 0 {
		alias = alias[:n]
	}

	return uint32(xxhash.Sum64(alias))
}
