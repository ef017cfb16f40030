package service

import (
	"context"
	"log"

	"github.com/oklog/ulid/v2"

	"gulog/wal"
)

// Publisher announces durable records. Implemented by infra/kafka.Publisher.
type Publisher interface {
	Publish(ctx context.Context, rec *wal.Record) error
}

// LogService wires the WAL to the event stream.
type LogService struct {
	wal    *wal.WAL
	events Publisher
}

// NewLogService wires all dependencies. events may be nil.
func NewLogService(w *wal.WAL, events Publisher) *LogService {
	return &LogService{wal: w, events: events}
}

// Append makes data durable and then announces it. The record is durable
// once the WAL append returns, so a failed announcement is logged and
// does not fail the call.
func (s *LogService) Append(ctx context.Context, data []byte) (*wal.Record, error) {
	rec, err := s.wal.AppendRecord(ctx, data)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, rec); err != nil {
			log.Printf("[service] publish append event %s: %v", rec.ID, err)
		}
	}
	return rec, nil
}

func (s *LogService) Read(ctx context.Context, id ulid.ULID) (*wal.Record, error) {
	return s.wal.Read(ctx, id)
}

// Last returns the watermark: the newest record, or nil for an empty log.
func (s *LogService) Last(ctx context.Context) (*wal.Record, error) {
	return s.wal.LastRecord(ctx)
}

// Replay applies every record after the given id in log order.
func (s *LogService) Replay(ctx context.Context, after ulid.ULID, apply func(*wal.Record) error) error {
	return s.wal.ReplayFrom(ctx, after, apply)
}
