// Package memstore is an in-memory objstore.Store used by tests and local
// experiments. It can split listings into small pages and hand them back
// in a scrambled order to emulate stores without ordering guarantees.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gulog/infra/objstore"
)

// PageOrder controls the order in which List serves pages.
type PageOrder uint8

const (
	Ascending PageOrder = iota
	Descending
	Shuffled
)

type Config struct {
	PageSize int
	Order    PageOrder
	Seed     int64
}

type Store struct {
	mu    sync.RWMutex
	cfg   Config
	data  map[string][]byte
	rng   *rand.Rand
	fault map[string]error

	puts, gets, lists int
}

var _ objstore.Store = (*Store)(nil)

func New(cfg Config) *Store {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	return &Store{
		cfg:   cfg,
		data:  map[string][]byte{},
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		fault: map[string]error{},
	}
}

// Fail makes every subsequent call of op ("put", "get" or "list") return
// err. A nil err clears the fault.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fault, op)
		return
	}
	s.fault[op] = err
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if err := s.fault["put"]; err != nil {
		return err
	}
	s.data[key] = bytes.Clone(value)
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if err := s.fault["get"]; err != nil {
		return nil, err
	}
	v, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", objstore.ErrNotFound, key)
	}
	return bytes.Clone(v), nil
}

// List pages over a sorted snapshot of the matching keys. The page token
// is the index of the page to serve; the serving order of pages depends
// on Config.Order.
func (s *Store) List(ctx context.Context, prefix, pageToken string) (objstore.Page, error) {
	if err := ctx.Err(); err != nil {
		return objstore.Page{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if err := s.fault["list"]; err != nil {
		return objstore.Page{}, err
	}

	pages := s.pagesLocked(prefix)
	if len(pages) == 0 {
		return objstore.Page{}, nil
	}

	step := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 0 || n >= len(pages) {
			return objstore.Page{}, fmt.Errorf("memstore: invalid page token %q", pageToken)
		}
		step = n
	}

	idx := step
	switch s.cfg.Order {
	case Descending:
		idx = len(pages) - 1 - step
	case Shuffled:
		perm := rand.New(rand.NewSource(s.cfg.Seed)).Perm(len(pages))
		idx = perm[step]
	}

	keys := append([]string(nil), pages[idx]...)
	if s.cfg.Order == Shuffled {
		s.rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	}

	page := objstore.Page{Keys: keys}
	if step+1 < len(pages) {
		page.NextToken = strconv.Itoa(step + 1)
	}
	return page, nil
}

func (s *Store) pagesLocked(prefix string) [][]string {
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var pages [][]string
	for len(keys) > 0 {
		n := min(s.cfg.PageSize, len(keys))
		pages = append(pages, keys[:n])
		keys = keys[n:]
	}
	return pages
}

// Mutate rewrites the stored value of key in place, bypassing Put. It
// returns false when the key does not exist.
func (s *Store) Mutate(key string, fn func([]byte) []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return false
	}
	s.data[key] = fn(bytes.Clone(v))
	return true
}

// Len reports the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Calls reports how many times Put, Get and List were invoked.
func (s *Store) Calls() (puts, gets, lists int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts, s.gets, s.lists
}
