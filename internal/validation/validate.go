package validation

import (
	"fmt"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
	"github.com/nerrad567/greenhouse-core/internal/result"
)

// ResolveSensor looks up a sensor by id.
func ResolveSensor(sensors []greenhouse.Sensor, id string) result.Option[greenhouse.Sensor] {
	for _, s := range sensors {
		if s.ID == id {
			return result.Some(s)
		}
	}
	return result.None[greenhouse.Sensor]()
}

// ValidateReading checks a reading against the profile range for its
// sensor kind. Checks run in order: value present, sensor known, then the
// closed range (temp, hum_air, hum_soil, co2) or the light minimum.
// Failures carry a *ReadingError.
func ValidateReading(r greenhouse.Reading, sensors []greenhouse.Sensor, profile greenhouse.PlantProfile) result.Result[greenhouse.Reading] {
	if r.Value == nil {
		return result.Fail[greenhouse.Reading](&ReadingError{Code: CodeNoValue, SensorID: r.SensorID})
	}

	sensor, ok := ResolveSensor(sensors, r.SensorID).Get()
	if !ok {
		return result.Fail[greenhouse.Reading](&ReadingError{Code: CodeSensorNotFound, SensorID: r.SensorID})
	}

	v := *r.Value
	if rng, ok := profile.RangeFor(sensor.Kind); ok {
		if !rng.Contains(v) {
			return result.Fail[greenhouse.Reading](&ReadingError{
				Code:     CodeOutOfRange,
				SensorID: r.SensorID,
				Param:    sensor.Kind,
				Value:    greenhouse.FloatPtr(v),
				Range:    &rng,
			})
		}
	} else if sensor.Kind == greenhouse.KindLight && v < profile.LightMin {
		return result.Fail[greenhouse.Reading](&ReadingError{
			Code:     CodeTooLowLight,
			SensorID: r.SensorID,
			Param:    greenhouse.KindLight,
			Value:    greenhouse.FloatPtr(v),
			Min:      greenhouse.FloatPtr(profile.LightMin),
		})
	}

	return result.Ok(r)
}

// AlertDescriptor describes the parameter that tripped IssueAlertIfNeeded.
type AlertDescriptor struct {
	Param   greenhouse.SensorKind `json:"param"`
	Value   float64               `json:"value"`
	Range   *greenhouse.Range     `json:"range,omitempty"`
	Min     *float64              `json:"min,omitempty"`
	Message string                `json:"message"`
}

// Low reports whether the value is below the band rather than above it.
func (d AlertDescriptor) Low() bool {
	if d.Min != nil {
		return true
	}
	return d.Range != nil && d.Value < d.Range.Min
}

// IssueAlertIfNeeded scans the snapshot in greenhouse.AlertOrder and
// returns the first parameter outside the profile. Absent parameters are
// skipped. Only one descriptor is ever returned.
func IssueAlertIfNeeded(snapshot greenhouse.Snapshot, profile greenhouse.PlantProfile) result.Option[AlertDescriptor] {
	for _, param := range greenhouse.AlertOrder {
		v, ok := snapshot[param]
		if !ok {
			continue
		}
		if rng, ok := profile.RangeFor(param); ok {
			if !rng.Contains(v) {
				return result.Some(AlertDescriptor{
					Param:   param,
					Value:   v,
					Range:   &rng,
					Message: fmt.Sprintf("%s out of range (%s)", param, rng),
				})
			}
			continue
		}
		if param == greenhouse.KindLight && v < profile.LightMin {
			return result.Some(AlertDescriptor{
				Param:   param,
				Value:   v,
				Min:     greenhouse.FloatPtr(profile.LightMin),
				Message: fmt.Sprintf("insufficient light: %g < %g", v, profile.LightMin),
			})
		}
	}
	return result.None[AlertDescriptor]()
}
