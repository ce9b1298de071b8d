package mqtt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/greenhouse-core/internal/infrastructure/config"
)

// fakeMessage implements pahomqtt.Message for handler tests.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

// recordingLogger captures log calls.
type recordingLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *recordingLogger) Info(string, ...any) {}
func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}
func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func newDisconnectedClient() *Client {
	return &Client{
		cfg:           config.MQTTConfig{QoS: 1},
		subscriptions: make(map[string]subscription),
	}
}

// =============================================================================
// Topics
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"SensorReading", topics.SensorReading("s-temp-1"), "greenhouse/sensor/s-temp-1/reading"},
		{"AllSensorReadings", topics.AllSensorReadings(), "greenhouse/sensor/+/reading"},
		{"ActuatorCommand", topics.ActuatorCommand("heater"), "greenhouse/command/heater"},
		{"ZoneAlert", topics.ZoneAlert("zone-a"), "greenhouse/alert/zone-a"},
		{"BusEvent", topics.BusEvent("ALERT_RAISED"), "greenhouse/bus/alert_raised"},
		{"DayReport", topics.DayReport("2025-09-01"), "greenhouse/report/2025-09-01"},
		{"SystemStatus", topics.SystemStatus(), "greenhouse/system/status"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestSensorIDFromTopic(t *testing.T) {
	tests := []struct {
		topic  string
		wantID string
		wantOK bool
	}{
		{"greenhouse/sensor/s1/reading", "s1", true},
		{Topics{}.SensorReading("s-soil-3"), "s-soil-3", true},
		{"greenhouse/sensor//reading", "", false},
		{"greenhouse/sensor/s1/state", "", false},
		{"other/sensor/s1/reading", "", false},
		{"greenhouse/sensor/s1", "", false},
	}

	for _, tt := range tests {
		id, ok := SensorIDFromTopic(tt.topic)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("SensorIDFromTopic(%q) = (%q, %v), want (%q, %v)", tt.topic, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

// =============================================================================
// Options
// =============================================================================

func TestBrokerURL(t *testing.T) {
	cfg := config.MQTTConfig{Broker: config.MQTTBrokerConfig{Host: "broker", Port: 8883}}
	if got := brokerURL(cfg); got != "tcp://broker:8883" {
		t.Errorf("brokerURL() = %q, want %q", got, "tcp://broker:8883")
	}

	cfg.Broker.TLS = true
	if got := brokerURL(cfg); got != "ssl://broker:8883" {
		t.Errorf("brokerURL() with TLS = %q, want %q", got, "ssl://broker:8883")
	}
}

func TestStatusPayload(t *testing.T) {
	payload := string(statusPayload("core-1", "offline", "graceful_shutdown"))

	for _, want := range []string{`"status":"offline"`, `"client_id":"core-1"`, `"reason":"graceful_shutdown"`, `"timestamp":`} {
		if !strings.Contains(payload, want) {
			t.Errorf("statusPayload() = %s, missing %s", payload, want)
		}
	}

	if strings.Contains(string(statusPayload("core-1", "online", "")), "reason") {
		t.Error("online payload should omit empty reason")
	}
}

// =============================================================================
// Validation on a disconnected client
// =============================================================================

func TestPublish_Validation(t *testing.T) {
	c := newDisconnectedClient()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "greenhouse/x", []byte("x"), 3, ErrInvalidQoS},
		{"payload too large", "greenhouse/x", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "greenhouse/x", []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublishJSON_EncodingError(t *testing.T) {
	c := newDisconnectedClient()
	err := c.PublishJSON("greenhouse/x", make(chan int), false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("PublishJSON() error = %v, want %v", err, ErrPublishFailed)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := newDisconnectedClient()
	noop := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 1, noop); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty) error = %v, want %v", err, ErrInvalidTopic)
	}
	if err := c.Subscribe("t", 5, noop); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 5) error = %v, want %v", err, ErrInvalidQoS)
	}
	if err := c.Subscribe("t", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want %v", err, ErrSubscribeFailed)
	}
	if err := c.Subscribe("t", 1, noop); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe(disconnected) error = %v, want %v", err, ErrNotConnected)
	}
	if c.HasSubscription("t") {
		t.Error("failed subscription should not be tracked")
	}
	if err := c.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(empty) error = %v, want %v", err, ErrInvalidTopic)
	}
}

func TestHealthCheck_Disconnected(t *testing.T) {
	c := newDisconnectedClient()

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want %v", err, ErrNotConnected)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) error = %v, want %v", err, context.Canceled)
	}
}

func TestClose_NilClient(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
	if err := newDisconnectedClient().Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v", err)
	}
}

// =============================================================================
// Handler wrapping
// =============================================================================

func TestWrapHandler_RecoversPanic(t *testing.T) {
	c := newDisconnectedClient()
	logger := &recordingLogger{}
	c.SetLogger(logger)

	wrapped := c.wrapHandler(func(string, []byte) error {
		panic("boom")
	})
	wrapped(nil, fakeMessage{topic: "greenhouse/sensor/s1/reading"})

	if len(logger.errors) != 1 {
		t.Errorf("logged errors = %d, want 1", len(logger.errors))
	}
}

func TestWrapHandler_LogsHandlerError(t *testing.T) {
	c := newDisconnectedClient()
	logger := &recordingLogger{}
	c.SetLogger(logger)

	var gotTopic string
	var gotPayload string
	wrapped := c.wrapHandler(func(topic string, payload []byte) error {
		gotTopic = topic
		gotPayload = string(payload)
		return errors.New("bad reading")
	})
	wrapped(nil, fakeMessage{topic: "greenhouse/sensor/s1/reading", payload: []byte(`{"value":21}`)})

	if gotTopic != "greenhouse/sensor/s1/reading" || gotPayload != `{"value":21}` {
		t.Errorf("handler got (%q, %q)", gotTopic, gotPayload)
	}
	if len(logger.warns) != 1 {
		t.Errorf("logged warnings = %d, want 1", len(logger.warns))
	}
}
