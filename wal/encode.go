package wal

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Encode lays a record out as stored:
//
//	[checksum:32][payload]
//
// The payload has no length prefix; it runs to the end of the object. The
// id is not part of the value, it is the object key.
func Encode(r *Record) []byte {
	buf := make([]byte, ChecksumSize+len(r.Data))
	copy(buf[:ChecksumSize], r.Checksum[:])
	copy(buf[ChecksumSize:], r.Data)
	return buf
}

// Decode rebuilds the record stored under key. It fails with ErrTruncated
// when b cannot hold a checksum and with ErrMalformed when key is not a
// canonical record id. The checksum is not validated.
func Decode(key string, b []byte) (*Record, error) {
	if len(b) < ChecksumSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrTruncated, len(b), ChecksumSize)
	}
	id, err := ParseKey(key)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:   id,
		Data: make([]byte, len(b)-ChecksumSize),
	}
	copy(rec.Checksum[:], b[:ChecksumSize])
	copy(rec.Data, b[ChecksumSize:])
	return rec, nil
}

// ParseKey parses an object key into a record id. Only the canonical
// upper-case 26 character form is accepted, since any other spelling
// would not sort with the rest of the log.
func ParseKey(key string) (ulid.ULID, error) {
	id, err := ulid.ParseStrict(key)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("%w: key %q: %w", ErrMalformed, key, err)
	}
	if id.String() != key {
		return ulid.ULID{}, fmt.Errorf("%w: key %q is not canonical", ErrMalformed, key)
	}
	return id, nil
}

func isRecordKey(key string) bool {
	_, err := ParseKey(key)
	return err == nil
}
