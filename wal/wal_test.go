package wal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gulog/infra/objstore/memstore"
	"gulog/infra/sequence"
)

// steppingIDs returns a sequencer whose clock advances one millisecond per
// id, so append order is key order.
func steppingIDs() *sequence.Sequencer {
	var mu sync.Mutex
	now := time.UnixMilli(1_700_000_000_000)
	return sequence.NewULID(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Millisecond)
		return now
	}, nil)
}

func newTestWAL(t *testing.T, cfg memstore.Config) (*WAL, *memstore.Store) {
	t.Helper()
	store := memstore.New(cfg)
	w, err := New(Config{Store: store, IDs: steppingIDs()})
	require.NoError(t, err)
	return w, store
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestWAL_AppendAndRead(t *testing.T) {
	w, store := newTestWAL(t, memstore.Config{})
	ctx := context.Background()

	id, err := w.Append(ctx, []byte("Hello, MinIO!"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	rec, err := w.Read(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, []byte("Hello, MinIO!"), rec.Data)
	assert.True(t, rec.Valid())
}

func TestWAL_AppendStoresEncodedRecordUnderID(t *testing.T) {
	w, store := newTestWAL(t, memstore.Config{})
	ctx := context.Background()

	rec, err := w.AppendRecord(ctx, []byte("payload"))
	require.NoError(t, err)

	raw, err := store.Get(ctx, rec.ID.String())
	require.NoError(t, err)
	assert.Equal(t, Encode(rec), raw)
}

func TestWAL_AppendEmptyPayload(t *testing.T) {
	w, _ := newTestWAL(t, memstore.Config{})
	ctx := context.Background()

	id, err := w.Append(ctx, nil)
	require.NoError(t, err)

	rec, err := w.Read(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, rec.Data)
	assert.True(t, rec.Valid())
}

func TestWAL_AppendStoreFailure(t *testing.T) {
	w, store := newTestWAL(t, memstore.Config{})
	boom := errors.New("connection refused")
	store.Fail("put", boom)

	_, err := w.Append(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, store.Len())

	puts, _, _ := store.Calls()
	assert.Equal(t, 1, puts, "append must not retry")
}

func TestWAL_ReadMissing(t *testing.T) {
	w, _ := newTestWAL(t, memstore.Config{})

	_, err := w.Read(context.Background(), ulid.Make())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrCorrupt)
	assert.NotErrorIs(t, err, ErrChecksumMismatch)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
}

func TestWAL_ReadStoreFailure(t *testing.T) {
	w, store := newTestWAL(t, memstore.Config{})
	ctx := context.Background()
	id, err := w.Append(ctx, []byte("x"))
	require.NoError(t, err)

	store.Fail("get", errors.New("503 slow down"))
	_, err = w.Read(ctx, id)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestWAL_ReadTruncatedObject(t *testing.T) {
	w, store := newTestWAL(t, memstore.Config{})
	ctx := context.Background()
	id, err := w.Append(ctx, []byte("payload"))
	require.NoError(t, err)

	require.True(t, store.Mutate(id.String(), func(b []byte) []byte { return b[:10] }))

	_, err = w.Read(ctx, id)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.ErrorIs(t, err, ErrTruncated)
	assert.NotErrorIs(t, err, ErrChecksumMismatch)
}

func TestWAL_ReadBitFlip(t *testing.T) {
	w, store := newTestWAL(t, memstore.Config{})
	ctx := context.Background()
	id, err := w.Append(ctx, []byte("payload"))
	require.NoError(t, err)

	require.True(t, store.Mutate(id.String(), func(b []byte) []byte {
		b[len(b)-1] ^= 0x01
		return b
	}))

	_, err = w.Read(ctx, id)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
	assert.NotErrorIs(t, err, ErrCorrupt)
}

func TestWAL_ReadKeyMalformed(t *testing.T) {
	w, store := newTestWAL(t, memstore.Config{})
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "notes.txt", make([]byte, 64)))

	_, err := w.ReadKey(ctx, "notes.txt")
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestWAL_ConcurrentAppends(t *testing.T) {
	w, err := New(Config{Store: memstore.New(memstore.Config{})})
	require.NoError(t, err)
	ctx := context.Background()

	const n = 64
	ids := make([]ulid.ULID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := w.Append(ctx, []byte(fmt.Sprintf("record-%d", i)))
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for i, id := range ids {
		rec, err := w.Read(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("record-%d", i), string(rec.Data))
	}
}
