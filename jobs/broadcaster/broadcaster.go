package broadcaster

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"gulog/infra/kafka"
	"gulog/wal"
)

// Source reports the current watermark of the log.
type Source interface {
	Last(ctx context.Context) (*wal.Record, error)
}

// Broadcaster periodically recovers the log watermark and publishes it
// whenever it moved since the last successful send.
type Broadcaster struct {
	source   Source
	producer sarama.SyncProducer
	topic    string
	interval time.Duration

	sent string

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// ------------------------------------------------
// CONSTRUCTOR
// ------------------------------------------------

func New(
	source Source,
	brokers []string,
	topic string,
	interval time.Duration,
) (*Broadcaster, error) {

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return NewWithProducer(source, producer, topic, interval), nil
}

func NewWithProducer(
	source Source,
	producer sarama.SyncProducer,
	topic string,
	interval time.Duration,
) *Broadcaster {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Broadcaster{
		source:   source,
		producer: producer,
		topic:    topic,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// ------------------------------------------------
// START LOOP
// ------------------------------------------------

// Start runs the loop until ctx is done or Close is called. It must be
// called at most once.
func (b *Broadcaster) Start(ctx context.Context) {
	log.Printf("[broadcaster] started topic=%s interval=%s", b.topic, b.interval)

	b.done = make(chan struct{})
	go func() {
		defer close(b.done)

		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case <-b.stop:
				return

			case <-ticker.C:
				if err := b.broadcastOnce(ctx); err != nil {
					log.Printf("[broadcaster] %v", err)
				}
			}
		}
	}()
}

// ------------------------------------------------
// BROADCAST
// ------------------------------------------------

// broadcastOnce sends the watermark if it changed. A failed send leaves
// the previous watermark in place so the next tick tries again.
func (b *Broadcaster) broadcastOnce(ctx context.Context) error {
	rec, err := b.source.Last(ctx)
	if err != nil {
		return err
	}
	if rec == nil || rec.Key() == b.sent {
		return nil
	}

	value, err := kafka.NewEvent(kafka.EventWatermark, rec).Marshal()
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: b.topic,
		Key:   sarama.StringEncoder(rec.Key()),
		Value: sarama.ByteEncoder(value),
	}
	if _, _, err := b.producer.SendMessage(msg); err != nil {
		return err
	}

	b.sent = rec.Key()
	return nil
}

// ------------------------------------------------
// SHUTDOWN
// ------------------------------------------------

// Close stops the loop, waits for an in-flight broadcast to finish and
// then closes the producer. Later calls return nil.
func (b *Broadcaster) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.stop)
		if b.done != nil {
			<-b.done
		}
		err = b.producer.Close()
		log.Printf("[broadcaster] stopped topic=%s", b.topic)
	})
	return err
}
