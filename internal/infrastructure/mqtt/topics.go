package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every greenhouse MQTT topic.
const TopicPrefix = "greenhouse"

// Topics provides builders for greenhouse MQTT topics.
// Using these helpers keeps topic naming consistent between the control
// loop, the report publisher and external field gateways.
//
//	topics := mqtt.Topics{}
//	topics.SensorReading("s-temp-1")
//	// Returns: "greenhouse/sensor/s-temp-1/reading"
type Topics struct{}

// =============================================================================
// Field Topics (gateways -> core)
// =============================================================================

// SensorReading returns the topic a field gateway publishes readings on.
//
// Example: greenhouse/sensor/s-temp-1/reading
func (Topics) SensorReading(sensorID string) string {
	return fmt.Sprintf("%s/sensor/%s/reading", TopicPrefix, sensorID)
}

// AllSensorReadings returns a pattern matching every sensor reading topic.
//
// Pattern: greenhouse/sensor/+/reading
func (Topics) AllSensorReadings() string {
	return fmt.Sprintf("%s/sensor/+/reading", TopicPrefix)
}

// =============================================================================
// Core Topics (core -> field and observers)
// =============================================================================

// ActuatorCommand returns the topic a command record for an actuator is sent on.
//
// Example: greenhouse/command/heater
func (Topics) ActuatorCommand(actuatorID string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, actuatorID)
}

// ZoneAlert returns the topic raised and cleared alerts for a zone go to.
//
// Example: greenhouse/alert/zone-a
func (Topics) ZoneAlert(zoneID string) string {
	return fmt.Sprintf("%s/alert/%s", TopicPrefix, zoneID)
}

// BusEvent returns the mirror topic for an event bus event name.
//
// Example: greenhouse/bus/actuate
func (Topics) BusEvent(name string) string {
	return fmt.Sprintf("%s/bus/%s", TopicPrefix, strings.ToLower(name))
}

// DayReport returns the retained topic for a simulated day summary.
//
// Example: greenhouse/report/2025-09-01
func (Topics) DayReport(day string) string {
	return fmt.Sprintf("%s/report/%s", TopicPrefix, day)
}

// SystemStatus returns the online/offline status topic.
//
// Example: greenhouse/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", TopicPrefix)
}

// SensorIDFromTopic extracts the sensor id from a reading topic.
// It returns false when the topic does not have the
// greenhouse/sensor/{id}/reading shape.
func SensorIDFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix || parts[1] != "sensor" || parts[3] != "reading" {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
