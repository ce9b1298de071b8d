package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/nerrad567/greenhouse-core/internal/infrastructure/config"
)

var (
	// ErrDisabled is returned by Connect when export is switched off.
	ErrDisabled = errors.New("kafka: export disabled")

	// ErrNotConnected is returned when exporting through a closed writer.
	ErrNotConnected = errors.New("kafka: writer not connected")
)

// messageWriter is the part of kafka-go's Writer we use.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer exports JSON documents to one topic.
//
// Thread Safety:
//   - Export is safe for concurrent use.
type Writer struct {
	w     messageWriter
	topic string
}

// Connect builds a writer for cfg. kafka-go connects lazily, so no broker
// is contacted until the first Export.
func Connect(cfg config.KafkaConfig) (*Writer, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}

	batch := time.Duration(cfg.BatchTimeout) * time.Millisecond
	if batch <= 0 {
		batch = 100 * time.Millisecond
	}

	return &Writer{
		w: &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
			BatchTimeout: batch,
		},
		topic: cfg.Topic,
	}, nil
}

// Topic returns the destination topic.
func (k *Writer) Topic() string {
	if k == nil {
		return ""
	}
	return k.topic
}

// Export encodes v as JSON and writes it under key.
func (k *Writer) Export(ctx context.Context, key string, v any) error {
	if k == nil || k.w == nil {
		return ErrNotConnected
	}
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kafka: encoding %s: %w", key, err)
	}
	msg := kafkago.Message{
		Key:   []byte(key),
		Value: body,
		Time:  time.Now().UTC(),
		Headers: []kafkago.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: writing %s to %s: %w", key, k.topic, err)
	}
	return nil
}

// Close flushes pending messages and releases the writer. Safe on nil.
func (k *Writer) Close() error {
	if k == nil || k.w == nil {
		return nil
	}
	err := k.w.Close()
	k.w = nil
	return err
}
