package validation

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
)

// Reading error codes.
const (
	CodeNoValue        = "no_value"
	CodeSensorNotFound = "sensor_not_found"
	CodeOutOfRange     = "out_of_range"
	CodeTooLowLight    = "too_low_light"
)

// Sentinel errors matched by *ReadingError through errors.Is.
var (
	ErrNoValue        = errors.New("validation: reading has no value")
	ErrSensorNotFound = errors.New("validation: sensor not found")
	ErrOutOfRange     = errors.New("validation: value out of range")
	ErrTooLowLight    = errors.New("validation: light below minimum")
)

// ReadingError is the structured failure of ValidateReading.
// Range is set for out_of_range, Min for too_low_light.
type ReadingError struct {
	Code     string
	SensorID string
	Param    greenhouse.SensorKind
	Value    *float64
	Range    *greenhouse.Range
	Min      *float64
}

func (e *ReadingError) Error() string {
	switch e.Code {
	case CodeOutOfRange:
		return fmt.Sprintf("%s %v out of range (%s)", e.Param, *e.Value, e.Range)
	case CodeTooLowLight:
		return fmt.Sprintf("light %v below minimum %v", *e.Value, *e.Min)
	default:
		return fmt.Sprintf("%s: sensor %s", e.Code, e.SensorID)
	}
}

// Is matches the sentinel for the error code.
func (e *ReadingError) Is(target error) bool {
	switch e.Code {
	case CodeNoValue:
		return target == ErrNoValue
	case CodeSensorNotFound:
		return target == ErrSensorNotFound
	case CodeOutOfRange:
		return target == ErrOutOfRange
	case CodeTooLowLight:
		return target == ErrTooLowLight
	}
	return false
}

// MarshalJSON renders the error as {error, sensor_id, param, value, range|min}.
func (e *ReadingError) MarshalJSON() ([]byte, error) {
	type wire struct {
		Error    string                `json:"error"`
		SensorID string                `json:"sensor_id,omitempty"`
		Param    greenhouse.SensorKind `json:"param,omitempty"`
		Value    *float64              `json:"value,omitempty"`
		Range    *greenhouse.Range     `json:"range,omitempty"`
		Min      *float64              `json:"min,omitempty"`
	}
	return json.Marshal(wire{
		Error:    e.Code,
		SensorID: e.SensorID,
		Param:    e.Param,
		Value:    e.Value,
		Range:    e.Range,
		Min:      e.Min,
	})
}
