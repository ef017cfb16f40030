// Package wal implements a write-ahead log stored in an object store that
// only offers whole-object PUT, GET and paginated LIST.
//
// Every record becomes one object. The object key is the record's ULID in
// canonical form, so a lexical listing of the keys is the log in creation
// order. The object value is the SHA-256 checksum of the payload followed by
// the payload itself. Reads re-validate the checksum before a record is
// returned.
//
// The log keeps no index: the position after a restart is recovered by
// scanning the key listing for the greatest key (see WAL.LastRecord).
package wal
