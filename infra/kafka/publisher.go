// Package kafka announces WAL records on a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/segmentio/kafka-go"

	"gulog/wal"
)

// Header keys set on every append event.
const (
	HeaderEventType = "gulog-event"
	HeaderChecksum  = "gulog-checksum"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes one append event per record, keyed by record id so
// all events for a record land on the same partition. Message time is the
// millisecond encoded in the id, not the wall clock at publish time.
type Publisher struct {
	writer messageWriter
	topic  string
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish blocks until the event is acknowledged by all in-sync replicas.
func (p *Publisher) Publish(ctx context.Context, rec *wal.Record) error {
	value, err := NewEvent(EventAppend, rec).Marshal()
	if err != nil {
		return fmt.Errorf("kafka: encode event %s: %w", rec.Key(), err)
	}

	msg := kafka.Message{
		Key:   []byte(rec.Key()),
		Value: value,
		Time:  ulid.Time(rec.ID.Time()),
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(EventAppend)},
			{Key: HeaderChecksum, Value: []byte(rec.Checksum.String())},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish %s to %s: %w", rec.Key(), p.topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
