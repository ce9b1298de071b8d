package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/nerrad567/greenhouse-core/internal/infrastructure/config"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestConnect(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.KafkaConfig
		wantErr error
	}{
		{"disabled", config.KafkaConfig{Enabled: false}, ErrDisabled},
		{"no brokers", config.KafkaConfig{Enabled: true, Topic: "t"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Connect(tt.cfg)
			if err == nil {
				t.Fatal("Connect() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Connect() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	w, err := Connect(config.KafkaConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "greenhouse.reports"})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if w.Topic() != "greenhouse.reports" {
		t.Errorf("Topic() = %q", w.Topic())
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestWriter_Export(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{w: fw, topic: "reports"}

	doc := map[string]any{"date": "2026-10-01", "total_alerts": 2}
	if err := w.Export(context.Background(), "2026-10-01", doc); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(fw.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(fw.msgs))
	}
	msg := fw.msgs[0]
	if string(msg.Key) != "2026-10-01" {
		t.Errorf("Key = %q, want 2026-10-01", msg.Key)
	}
	var decoded map[string]any
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("Value is not JSON: %v", err)
	}
	if decoded["total_alerts"] != 2.0 {
		t.Errorf("total_alerts = %v, want 2", decoded["total_alerts"])
	}
}

func TestWriter_ExportErrors(t *testing.T) {
	errBroker := errors.New("broker unavailable")
	w := &Writer{w: &fakeWriter{err: errBroker}, topic: "reports"}
	if err := w.Export(context.Background(), "k", 1); !errors.Is(err, errBroker) {
		t.Errorf("Export() error = %v, want %v", err, errBroker)
	}

	if err := w.Export(context.Background(), "k", make(chan int)); err == nil {
		t.Error("Export(chan) error = nil, want encoding error")
	}

	var nilWriter *Writer
	if err := nilWriter.Export(context.Background(), "k", 1); !errors.Is(err, ErrNotConnected) {
		t.Errorf("nil Export() error = %v, want ErrNotConnected", err)
	}
}

func TestWriter_Close(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{w: fw}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !fw.closed {
		t.Error("underlying writer not closed")
	}
	if err := w.Export(context.Background(), "k", 1); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Export() after Close error = %v, want ErrNotConnected", err)
	}

	var nilWriter *Writer
	if err := nilWriter.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
}
