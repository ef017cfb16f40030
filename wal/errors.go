package wal

import "errors"

// Decoding failures. Decode never checks the checksum, so these only
// describe the wire format.
var (
	ErrTruncated = errors.New("wal: truncated record")
	ErrMalformed = errors.New("wal: malformed record")
)

var (
	// ErrStoreUnavailable wraps any failure reported by the object store
	// on put or get, other than a missing key.
	ErrStoreUnavailable = errors.New("wal: store unavailable")
	ErrNotFound         = errors.New("wal: record not found")
	// ErrCorrupt wraps ErrTruncated or ErrMalformed for a stored object.
	ErrCorrupt = errors.New("wal: corrupt record")
	// ErrChecksumMismatch means the stored payload does not hash to its
	// stored checksum. It is evidence of data loss, not a transient state.
	ErrChecksumMismatch = errors.New("wal: checksum mismatch")
	ErrListUnavailable  = errors.New("wal: list unavailable")
)
