package validation

import (
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
)

// Status is the verdict of ProcessReading.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusAlert   Status = "alert"
	StatusError   Status = "error"
)

// Outcome is the operator-facing result of processing one reading.
type Outcome struct {
	Status   Status                `json:"status"`
	SensorID string                `json:"sensor_id"`
	Param    greenhouse.SensorKind `json:"param,omitempty"`
	Value    *float64              `json:"value,omitempty"`
	Unit     string                `json:"unit,omitempty"`
	Code     string                `json:"code,omitempty"`
	Range    *greenhouse.Range     `json:"range,omitempty"`
	Min      *float64              `json:"min,omitempty"`
	Severity greenhouse.Severity   `json:"severity,omitempty"`
	Alert    *AlertDescriptor      `json:"alert,omitempty"`
	Message  string                `json:"message"`
	TS       time.Time             `json:"ts"`
}

// ProcessReading runs one reading through the checks:
//
//   - unknown sensor: error
//   - reading fails ValidateReading: warning carrying the violated band
//   - snapshot fails IssueAlertIfNeeded: alert, severity CRITICAL
//   - otherwise: ok
//
// The snapshot should already include this reading's value.
func ProcessReading(r greenhouse.Reading, sensors []greenhouse.Sensor, snapshot greenhouse.Snapshot, profile greenhouse.PlantProfile) Outcome {
	out := Outcome{SensorID: r.SensorID, Value: r.Value, TS: r.TS}

	sensor, ok := ResolveSensor(sensors, r.SensorID).Get()
	if !ok {
		out.Status = StatusError
		out.Code = CodeSensorNotFound
		out.Message = fmt.Sprintf("sensor %q not found", r.SensorID)
		return out
	}
	out.Param = sensor.Kind
	out.Unit = sensor.Unit

	if v := ValidateReading(r, sensors, profile); !v.IsOk() {
		out.Status = StatusWarning
		out.Message = "value outside the allowed range"
		var re *ReadingError
		if errors.As(v.Err(), &re) {
			out.Code = re.Code
			out.Range = re.Range
			out.Min = re.Min
			if re.Code == CodeNoValue {
				out.Message = "reading has no value"
			}
		}
		return out
	}

	if d, ok := IssueAlertIfNeeded(snapshot, profile).Get(); ok {
		out.Status = StatusAlert
		out.Severity = greenhouse.SeverityCritical
		out.Alert = &d
		out.Message = "threshold exceeded: " + d.Message
		return out
	}

	out.Status = StatusOK
	out.Message = "ok"
	return out
}
