package wal

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// ReplayFrom applies every record with an id greater than after, oldest
// first. A zero after replays the whole log. Each record is checksum
// validated before apply sees it; the first error stops the replay.
func (w *WAL) ReplayFrom(ctx context.Context, after ulid.ULID, apply func(*Record) error) error {
	keys, err := w.Keys(ctx)
	if err != nil {
		return fmt.Errorf("wal: replay: %w", err)
	}

	var start string
	if after != (ulid.ULID{}) {
		start = after.String()
	}
	for _, key := range keys {
		if key <= start {
			continue
		}
		rec, err := w.ReadKey(ctx, key)
		if err != nil {
			return fmt.Errorf("wal: replay %s: %w", key, err)
		}
		if err := apply(rec); err != nil {
			return fmt.Errorf("wal: replay apply %s: %w", key, err)
		}
	}
	return nil
}
