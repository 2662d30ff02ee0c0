// Package md5 provides MD5 fingerprinting for change detection.
//
// The digest is only used to answer "did this content change since the last
// sync," so a cryptographically broken algorithm is fine here and keeps the
// fingerprints compatible with records written by earlier versions of the
// pipeline.
package md5

import (
	"crypto/md5" //nolint:gosec // change detection, not integrity protection
	"encoding/hex"
)

// Hasher implements sync.Hasher using MD5.
type Hasher struct{}

// New returns an MD5 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a lowercase hex digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := md5.Sum(data) //nolint:gosec // see package comment
	return hex.EncodeToString(sum[:]), nil
}

// HashString hashes the UTF-8 bytes of s, so the same logical text always
// yields the same digest regardless of how it was assembled.
func (h *Hasher) HashString(s string) (string, error) {
	return h.Hash([]byte(s))
}
