package wal

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// LastRecord returns the most recently appended record, or nil when the
// log is empty. It walks the whole key listing and keeps the greatest key
// itself, so stores that list out of order are handled. The result may
// already be stale when it returns if writers are still appending.
func (w *WAL) LastRecord(ctx context.Context) (*Record, error) {
	var last string
	err := w.scanKeys(ctx, func(key string) {
		if key > last {
			last = key
		}
	})
	if err != nil {
		return nil, err
	}
	if last == "" {
		return nil, nil
	}

	rec, err := w.ReadKey(ctx, last)
	if err != nil {
		return nil, fmt.Errorf("wal: recover %s: %w", last, err)
	}
	return rec, nil
}

// Keys returns every record key in ascending order.
func (w *WAL) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := w.scanKeys(ctx, func(key string) {
		keys = append(keys, key)
	}); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// scanKeys calls fn for every record key the store lists, page by page.
// Keys that are not record ids are skipped.
func (w *WAL) scanKeys(ctx context.Context, fn func(key string)) error {
	token := ""
	for pages := 1; ; pages++ {
		page, err := w.store.List(ctx, "", token)
		if err != nil {
			return fmt.Errorf("%w: page %d: %w", ErrListUnavailable, pages, err)
		}
		for _, key := range page.Keys {
			if !isRecordKey(key) {
				log.Printf("[wal] skipping non-record key %q", key)
				continue
			}
			fn(key)
		}
		if page.NextToken == "" {
			return nil
		}
		if page.NextToken == token {
			return fmt.Errorf("%w: page token %q did not advance", ErrListUnavailable, token)
		}
		token = page.NextToken
	}
}
