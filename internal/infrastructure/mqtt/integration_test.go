//go:build integration

package mqtt

import (
	"testing"
	"time"

	"github.com/nerrad567/greenhouse-core/internal/infrastructure/config"
)

// Integration tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//
//	go test -tags=integration -v ./internal/infrastructure/mqtt/...
func integrationConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: clientID,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestIntegration_ReadingRoundtrip(t *testing.T) {
	client, err := Connect(integrationConfig("greenhouse-it-roundtrip"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	received := make(chan string, 1)
	err = client.Subscribe(Topics{}.AllSensorReadings(), 1, func(topic string, payload []byte) error {
		id, _ := SensorIDFromTopic(topic)
		received <- id
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription(Topics{}.AllSensorReadings()) {
		t.Error("HasSubscription() = false after Subscribe")
	}

	if err := client.PublishJSON(Topics{}.SensorReading("s-it"), map[string]float64{"value": 21.5}, false); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}

	select {
	case id := <-received:
		if id != "s-it" {
			t.Errorf("received sensor id = %q, want %q", id, "s-it")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("message not received")
	}

	if err := client.Unsubscribe(Topics{}.AllSensorReadings()); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
}

func TestIntegration_ConnectRefused(t *testing.T) {
	cfg := integrationConfig("greenhouse-it-refused")
	cfg.Broker.Port = 19999

	if _, err := Connect(cfg); err == nil {
		t.Fatal("Connect() expected error for unreachable broker")
	}
}
