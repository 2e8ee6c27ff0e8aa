package domain

import (
	"crypto/md5" //nolint:gosec // dedup key, not a security boundary
	"encoding/hex"
)

// ContentHash returns the deterministic digest of a document's extracted
// text. It is the document's primary key and dedup key: identical text,
// whatever the filename, yields the same hash.
func ContentHash(text string) string {
	sum := md5.Sum([]byte(text)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
