package influxdb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/greenhouse-core/internal/infrastructure/config"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/influxdb"
)

// testConfig returns a configuration for a local development InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "greenhouse-dev-token",
		Org:           "greenhouse",
		Bucket:        "telemetry",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

// connectOrSkip returns a live client or skips the test.
func connectOrSkip(t *testing.T) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Skip("InfluxDB not available, skipping integration test")
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	client, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want %v", err, influxdb.ErrDisabled)
	}
	if client != nil {
		t.Error("Connect() returned non-nil client when disabled")
	}
}

func TestNilClient_IsSafe(t *testing.T) {
	var client *influxdb.Client

	if client.IsConnected() {
		t.Error("nil client reports connected")
	}
	// None of these may panic.
	client.WriteReading("zone-a", "s1", "temp", 21.5, time.Now())
	client.WriteCommand("heater", "ON", "below_min", 15, time.Now())
	client.WriteZoneStats("zone-a", "temp", 15, 30, 22.5, 2, time.Now())
	client.WriteForecast("zone-a", []float64{40, 41}, time.Now())
	client.Flush()
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want %v", err, influxdb.ErrNotConnected)
	}
}

func TestHealthCheck(t *testing.T) {
	client := connectOrSkip(t)

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestWriteTelemetry(t *testing.T) {
	client := connectOrSkip(t)

	var writeErr error
	client.SetOnError(func(err error) { writeErr = err })

	now := time.Now()
	client.WriteReading("zone-a", "s-temp-1", "temp", 21.5, now)
	client.WriteCommand("heater", "ON", "below_min", 15, now)
	client.WriteZoneStats("zone-a", "temp", 15, 30, 22.5, 2, now)
	client.WriteForecast("zone-a", []float64{40.1, 40.5, 41}, now)
	client.Flush()

	if writeErr != nil {
		t.Errorf("async write error = %v", writeErr)
	}
}

func TestClose_StopsWrites(t *testing.T) {
	client := connectOrSkip(t)

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
	// Write after close is a silent no-op.
	client.WriteReading("zone-a", "s1", "temp", 20, time.Now())
}
