package wal

import (
	"crypto/sha256"
	"encoding/hex"
)

const ChecksumSize = sha256.Size

// Checksum is the SHA-256 digest of a record payload.
type Checksum [ChecksumSize]byte

func (c Checksum) String() string {
	return hex.EncodeToString(c[:])
}

// ComputeChecksum returns the digest of data.
func ComputeChecksum(data []byte) Checksum {
	return sha256.Sum256(data)
}

// ValidateChecksum recomputes the digest of r.Data and compares it with
// r.Checksum.
func ValidateChecksum(r *Record) bool {
	return ComputeChecksum(r.Data) == r.Checksum
}
