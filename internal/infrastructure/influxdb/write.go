package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the greenhouse core.
const (
	MeasurementReading  = "sensor_reading"
	MeasurementCommand  = "actuator_command"
	MeasurementStats    = "zone_stats"
	MeasurementForecast = "soil_forecast"
)

// WriteReading records one sensor observation at its own timestamp.
//
// Parameters:
//   - zoneID: Zone the sensor belongs to (may be empty)
//   - sensorID: Sensor identifier
//   - kind: Sensor kind (temp, hum_air, hum_soil, light, co2)
//   - value: Observed value
//   - ts: Observation time
func (c *Client) WriteReading(zoneID, sensorID, kind string, value float64, ts time.Time) {
	c.WritePointWithTime(MeasurementReading,
		map[string]string{"zone_id": zoneID, "sensor_id": sensorID, "kind": kind},
		map[string]interface{}{"value": value},
		ts,
	)
}

// WriteCommand records an emitted actuator command.
func (c *Client) WriteCommand(actuatorID, action, reason string, value float64, ts time.Time) {
	c.WritePointWithTime(MeasurementCommand,
		map[string]string{"actuator_id": actuatorID, "action": action},
		map[string]interface{}{"reason": reason, "value": value},
		ts,
	)
}

// WriteZoneStats records the per-kind aggregate of a simulated day.
func (c *Client) WriteZoneStats(zoneID, kind string, minV, maxV, avg float64, count int, day time.Time) {
	c.WritePointWithTime(MeasurementStats,
		map[string]string{"zone_id": zoneID, "kind": kind},
		map[string]interface{}{"min": minV, "max": maxV, "avg": avg, "count": count},
		day,
	)
}

// WriteForecast records a forecast series as one point per hourly step,
// starting at start.
func (c *Client) WriteForecast(zoneID string, values []float64, start time.Time) {
	for i, v := range values {
		c.WritePointWithTime(MeasurementForecast,
			map[string]string{"zone_id": zoneID},
			map[string]interface{}{"value": v, "step": i},
			start.Add(time.Duration(i)*time.Hour),
		)
	}
}

// WritePointWithTime writes a custom point with a specific timestamp.
// It is a no-op when the client is nil or disconnected.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
