// Package objstore defines the key-value capability the log is stored in:
// whole-object PUT and GET plus paginated key listing. Implementations
// live in the subpackages.
package objstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("objstore: key not found")

// Page is one slice of a key listing. An empty NextToken means the
// listing is complete.
type Page struct {
	Keys      []string
	NextToken string
}

// Store is safe for concurrent use. Keys are not guaranteed to come back
// from List in any particular order, neither within nor across pages.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix, pageToken string) (Page, error)
}
