package broadcaster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gulog/infra/kafka"
	"gulog/wal"
)

type fakeSource struct {
	rec *wal.Record
	err error
}

func (f *fakeSource) Last(context.Context) (*wal.Record, error) {
	return f.rec, f.err
}

func watermarkFor(rec *wal.Record) func([]byte) error {
	return func(val []byte) error {
		var e kafka.Event
		if err := json.Unmarshal(val, &e); err != nil {
			return err
		}
		if e.Type != kafka.EventWatermark || e.ID != rec.Key() || e.Checksum != rec.Checksum.String() {
			return fmt.Errorf("unexpected event %+v", e)
		}
		return nil
	}
}

func newMockProducer(t *testing.T) *mocks.SyncProducer {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	return mocks.NewSyncProducer(t, cfg)
}

func TestBroadcaster_SendsOnlyWhenWatermarkMoves(t *testing.T) {
	first := wal.NewRecord([]byte("one"))
	second := wal.NewRecord([]byte("two"))

	producer := newMockProducer(t)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(watermarkFor(first))
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(watermarkFor(second))

	src := &fakeSource{rec: first}
	b := NewWithProducer(src, producer, "gulog.watermark", 0)
	ctx := context.Background()

	require.NoError(t, b.broadcastOnce(ctx))
	require.NoError(t, b.broadcastOnce(ctx)) // unchanged: no send

	src.rec = second
	require.NoError(t, b.broadcastOnce(ctx))

	require.NoError(t, b.Close())
}

func TestBroadcaster_EmptyLogSendsNothing(t *testing.T) {
	producer := newMockProducer(t)
	b := NewWithProducer(&fakeSource{}, producer, "gulog.watermark", 0)

	require.NoError(t, b.broadcastOnce(context.Background()))
	require.NoError(t, b.Close())
}

func TestBroadcaster_RetriesAfterFailedSend(t *testing.T) {
	rec := wal.NewRecord([]byte("one"))
	boom := errors.New("not enough replicas")

	producer := newMockProducer(t)
	producer.ExpectSendMessageAndFail(boom)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(watermarkFor(rec))

	b := NewWithProducer(&fakeSource{rec: rec}, producer, "gulog.watermark", 0)
	ctx := context.Background()

	assert.ErrorIs(t, b.broadcastOnce(ctx), boom)
	require.NoError(t, b.broadcastOnce(ctx))
	require.NoError(t, b.Close())
}

func TestBroadcaster_SourceError(t *testing.T) {
	producer := newMockProducer(t)
	b := NewWithProducer(&fakeSource{err: wal.ErrListUnavailable}, producer, "gulog.watermark", 0)

	assert.ErrorIs(t, b.broadcastOnce(context.Background()), wal.ErrListUnavailable)
	require.NoError(t, b.Close())
}

// signalingSource reports every Last call and signals the first one.
type signalingSource struct {
	rec    *wal.Record
	calls  atomic.Int64
	called chan struct{}
}

func (s *signalingSource) Last(context.Context) (*wal.Record, error) {
	s.calls.Add(1)
	select {
	case s.called <- struct{}{}:
	default:
	}
	return s.rec, nil
}

func TestBroadcaster_CloseWaitsForLoop(t *testing.T) {
	rec := wal.NewRecord([]byte("one"))
	producer := newMockProducer(t)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(watermarkFor(rec))

	src := &signalingSource{rec: rec, called: make(chan struct{}, 1)}
	b := NewWithProducer(src, producer, "gulog.watermark", time.Millisecond)
	b.Start(context.Background())

	select {
	case <-src.called:
	case <-time.After(5 * time.Second):
		t.Fatal("loop never polled the source")
	}
	require.NoError(t, b.Close())

	after := src.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, src.calls.Load())

	require.NoError(t, b.Close())
}

func TestBroadcaster_CloseWithoutStart(t *testing.T) {
	producer := newMockProducer(t)
	b := NewWithProducer(&fakeSource{}, producer, "gulog.watermark", time.Millisecond)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}
