package wal

import (
	"bytes"

	"github.com/oklog/ulid/v2"

	"gulog/infra/sequence"
)

// IDSource hands out record ids.
type IDSource interface {
	Next() ulid.ULID
}

// Record is an immutable log entry. Records are only built by NewRecord
// (for writes) or Decode (for reads); callers must not modify Data.
type Record struct {
	ID       ulid.ULID
	Data     []byte
	Checksum Checksum
}

// NewRecord stamps data with a fresh id from the default sequencer and
// its checksum. data is copied.
func NewRecord(data []byte) *Record {
	return newRecord(sequence.Default(), data)
}

func newRecord(ids IDSource, data []byte) *Record {
	d := make([]byte, len(data))
	copy(d, data)
	return &Record{
		ID:       ids.Next(),
		Data:     d,
		Checksum: ComputeChecksum(d),
	}
}

// Key is the object key the record is stored under.
func (r *Record) Key() string {
	return r.ID.String()
}

func (r *Record) Valid() bool {
	return ValidateChecksum(r)
}

func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.ID == o.ID && r.Checksum == o.Checksum && bytes.Equal(r.Data, o.Data)
}
