package wal

import (
	"errors"

	"gulog/infra/objstore"
	"gulog/infra/sequence"
)

// Config defines configuration for a WAL instance.
type Config struct {
	Store objstore.Store
	// IDs defaults to the process-wide ULID sequencer.
	IDs IDSource
}

// WAL is safe for concurrent use. It holds no state besides the store
// client and the id source.
type WAL struct {
	store objstore.Store
	ids   IDSource
}

// New creates a new WAL instance from Config.
func New(cfg Config) (*WAL, error) {
	if cfg.Store == nil {
		return nil, errors.New("wal: store cannot be nil")
	}
	if cfg.IDs == nil {
		cfg.IDs = sequence.Default()
	}
	return &WAL{store: cfg.Store, ids: cfg.IDs}, nil
}
