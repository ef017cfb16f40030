// Package pebblestore keeps log objects in an embedded pebble database.
// It serves local and offline runs where no object store is reachable.
package pebblestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"gulog/infra/objstore"
)

const defaultPageSize = 1000

type Config struct {
	Dir      string
	PageSize int
	// InMemory keeps the database on an in-memory filesystem.
	InMemory bool
}

type Store struct {
	db       *pebble.DB
	pageSize int
}

var _ objstore.Store = (*Store)(nil)

func Open(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		cfg.Dir = "./wal_data"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	opts := &pebble.Options{}
	if cfg.InMemory {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(cfg.Dir, opts)
	if err != nil {
		return nil, fmt.Errorf("pebblestore: open %s: %w", cfg.Dir, err)
	}
	return &Store{db: db, pageSize: cfg.PageSize}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Set([]byte(key), value, pebble.Sync)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	val, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", objstore.ErrNotFound, key)
		}
		return nil, err
	}
	defer closer.Close()

	return bytes.Clone(val), nil
}

// List returns keys in ascending order. The page token is the last key of
// the previous page.
func (s *Store) List(ctx context.Context, prefix, pageToken string) (objstore.Page, error) {
	if err := ctx.Err(); err != nil {
		return objstore.Page{}, err
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return objstore.Page{}, err
	}
	defer iter.Close()

	var page objstore.Page
	valid := iter.First()
	if pageToken != "" {
		// smallest key strictly greater than the token
		valid = iter.SeekGE(append([]byte(pageToken), 0))
	}
	for ; valid; valid = iter.Next() {
		if len(page.Keys) == s.pageSize {
			page.NextToken = page.Keys[len(page.Keys)-1]
			break
		}
		page.Keys = append(page.Keys, string(iter.Key()))
	}
	return page, iter.Error()
}

// upperBound is the smallest key greater than every key with the prefix,
// or nil when no such key exists.
func upperBound(prefix string) []byte {
	end := []byte(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
