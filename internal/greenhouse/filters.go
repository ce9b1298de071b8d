package greenhouse

import (
	"fmt"
	"sort"
	"time"
)

// Resolve joins a reading with the kind of its sensor.
func Resolve(r Reading, sensors []Sensor) (KindedReading, error) {
	if r.Value == nil {
		return KindedReading{}, fmt.Errorf("%w: %s", ErrNoValue, r.ID)
	}
	for _, s := range sensors {
		if s.ID == r.SensorID {
			return KindedReading{ID: r.ID, SensorID: r.SensorID, Kind: s.Kind, Value: *r.Value, TS: r.TS}, nil
		}
	}
	return KindedReading{}, fmt.Errorf("%w: %s", ErrUnknownSensor, r.SensorID)
}

// ResolveAll resolves every reading, stopping at the first failure.
func ResolveAll(readings []Reading, sensors []Sensor) ([]KindedReading, error) {
	out := make([]KindedReading, 0, len(readings))
	for _, r := range readings {
		kr, err := Resolve(r, sensors)
		if err != nil {
			return nil, err
		}
		out = append(out, kr)
	}
	return out, nil
}

// ByKind keeps the readings whose sensor has the given kind.
func ByKind(readings []Reading, sensors []Sensor, kind SensorKind) []Reading {
	ids := make(map[string]bool)
	for _, s := range sensors {
		if s.Kind == kind {
			ids[s.ID] = true
		}
	}
	return bySensorSet(readings, ids)
}

// ByZone keeps the readings whose sensor sits in zoneID or below it.
func ByZone(readings []Reading, sensors []Sensor, zones []Zone, zoneID string) []Reading {
	ids := make(map[string]bool)
	for _, s := range SensorsInZone(zones, sensors, zoneID) {
		ids[s.ID] = true
	}
	return bySensorSet(readings, ids)
}

// ByTimeRange keeps readings with start <= TS <= end.
func ByTimeRange(readings []Reading, start, end time.Time) []Reading {
	var out []Reading
	for _, r := range readings {
		if !r.TS.Before(start) && !r.TS.After(end) {
			out = append(out, r)
		}
	}
	return out
}

// OnDay keeps the readings that fall on the calendar day of day, sorted by
// timestamp.
func OnDay(readings []Reading, day time.Time) []Reading {
	key := FormatDay(day)
	var out []Reading
	for _, r := range readings {
		if FormatDay(r.TS) == key {
			out = append(out, r)
		}
	}
	SortByTime(out)
	return out
}

// SortByTime orders readings by timestamp, keeping input order for ties.
func SortByTime(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].TS.Before(readings[j].TS)
	})
}

func bySensorSet(readings []Reading, ids map[string]bool) []Reading {
	var out []Reading
	for _, r := range readings {
		if ids[r.SensorID] {
			out = append(out, r)
		}
	}
	return out
}
