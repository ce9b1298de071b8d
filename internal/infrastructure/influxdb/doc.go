// Package influxdb writes greenhouse telemetry to InfluxDB v2.
//
// Four measurements are produced:
//
//	sensor_reading    tags zone_id, sensor_id, kind      field value
//	actuator_command  tags actuator_id, action           fields reason, value
//	zone_stats        tags zone_id, kind                 fields min, max, avg, count
//	soil_forecast     tags zone_id                       fields value, step
//
// Writes are batched and non-blocking. Every write helper is a no-op on a
// nil or disconnected *Client, so components hold an optional client and
// call it unconditionally.
package influxdb
