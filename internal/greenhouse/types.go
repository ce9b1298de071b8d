package greenhouse

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Zone is a physical area. Zones nest (greenhouse > bed) through ParentID.
type Zone struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// Range is a closed interval [Min, Max]. It encodes to JSON as a
// two-element array.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies in the closed interval.
func (r Range) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

// Valid reports whether Min <= Max.
func (r Range) Valid() bool {
	return r.Min <= r.Max
}

// String renders the range as "min-max".
func (r Range) String() string {
	return fmt.Sprintf("%g-%g", r.Min, r.Max)
}

// MarshalJSON encodes the range as [min, max].
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Min, r.Max})
}

// UnmarshalJSON decodes a [min, max] array.
func (r *Range) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("range must be [min, max]: %w", err)
	}
	r.Min, r.Max = pair[0], pair[1]
	return nil
}

// Window is a daily time window in "HH:MM" form, both ends inclusive.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeeklySchedule maps a lower-case weekday ("mon".."sun") to its windows.
type WeeklySchedule map[string][]Window

// PlantProfile is the target environmental envelope for a crop.
type PlantProfile struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	TempRange    Range          `json:"temp_range"`
	HumAirRange  Range          `json:"hum_air_range"`
	HumSoilRange Range          `json:"hum_soil_range"`
	CO2Range     Range          `json:"co2_range"`
	LightMin     float64        `json:"light_min"`
	Schedule     WeeklySchedule `json:"schedule,omitempty"`
}

// RangeFor returns the closed range the profile sets for kind.
// Light has a minimum only and reports false, as do unknown kinds.
func (p PlantProfile) RangeFor(kind SensorKind) (Range, bool) {
	switch kind {
	case KindTemp:
		return p.TempRange, true
	case KindHumAir:
		return p.HumAirRange, true
	case KindHumSoil:
		return p.HumSoilRange, true
	case KindCO2:
		return p.CO2Range, true
	}
	return Range{}, false
}

// Bounds returns the band the controller keeps kind within. For light the
// band is [LightMin, +Inf).
func (p PlantProfile) Bounds(kind SensorKind) (Range, bool) {
	if kind == KindLight {
		return Range{Min: p.LightMin, Max: math.Inf(1)}, true
	}
	return p.RangeFor(kind)
}

// Sensor is a measuring device.
type Sensor struct {
	ID       string     `json:"id"`
	DeviceID string     `json:"device_id"`
	Kind     SensorKind `json:"kind"`
	Unit     string     `json:"unit"`
	ZoneID   *string    `json:"zone_id,omitempty"`
}

// Actuator is a controllable device.
type Actuator struct {
	ID       string       `json:"id"`
	DeviceID string       `json:"device_id"`
	Kind     ActuatorKind `json:"kind"`
}

// Reading is one sensor observation. Value is nil when the gateway
// reported the sample without a value.
type Reading struct {
	ID       string    `json:"id"`
	SensorID string    `json:"sensor_id"`
	TS       time.Time `json:"ts"`
	Value    *float64  `json:"value"`
}

// NewReading builds a Reading carrying value v.
func NewReading(id, sensorID string, ts time.Time, v float64) Reading {
	return Reading{ID: id, SensorID: sensorID, TS: ts, Value: &v}
}

// KindedReading is a reading joined with the kind of its sensor. It is
// built once upstream by Resolve and consumed by the controller.
type KindedReading struct {
	ID       string     `json:"id"`
	SensorID string     `json:"sensor_id"`
	Kind     SensorKind `json:"kind"`
	Value    float64    `json:"value"`
	TS       time.Time  `json:"ts"`
}

// RulePayload carries the parameters of a Rule. Which fields are required
// depends on the rule kind (see Rule.Validate).
type RulePayload struct {
	Param    SensorKind `json:"param"`
	Min      *float64   `json:"min,omitempty"`
	Max      *float64   `json:"max,omitempty"`
	Device   string     `json:"device,omitempty"`
	Cooldown *int       `json:"cooldown,omitempty"` // seconds
	Delta    float64    `json:"delta,omitempty"`
	MaxAge   int        `json:"max_age,omitempty"` // seconds
	Priority int        `json:"priority,omitempty"`
}

// Rule is a decision policy.
type Rule struct {
	ID      string      `json:"id"`
	Kind    RuleKind    `json:"kind"`
	Payload RulePayload `json:"payload"`
}

// CommandPayload explains why a command was emitted.
type CommandPayload struct {
	Reason string  `json:"reason"`
	Value  float64 `json:"value"`
}

// Command is one actuation instruction emitted by a controller decision.
type Command struct {
	ID         string         `json:"id"`
	ActuatorID string         `json:"actuator_id"`
	TS         time.Time      `json:"ts"`
	Action     Action         `json:"action"`
	Payload    CommandPayload `json:"payload"`
}

// Alert is a raised or cleared condition. Code and ZoneID identify the
// logical alert; a clear carries the same ID as its raise.
type Alert struct {
	ID       string    `json:"id"`
	ZoneID   *string   `json:"zone_id,omitempty"`
	SensorID *string   `json:"sensor_id,omitempty"`
	TS       time.Time `json:"ts"`
	Code     string    `json:"code"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// AlertID derives the logical alert id from code and zone.
func AlertID(code, zoneID string) string {
	return code + "@" + zoneID
}

// Event is a bus message. TS is ISO-8601 to the second and ID is derived
// from name and TS.
type Event struct {
	ID      string         `json:"id"`
	TS      string         `json:"ts"`
	Name    EventName      `json:"name"`
	Payload map[string]any `json:"payload"`
}

// Mode binds a zone to the plant profile it is currently run with.
type Mode struct {
	ID        string   `json:"id"`
	ZoneID    string   `json:"zone_id"`
	ProfileID string   `json:"profile_id"`
	Schedule  []Window `json:"schedule,omitempty"`
}

// Snapshot is the latest value per parameter for one zone.
type Snapshot map[SensorKind]float64

// KindStats summarises the readings of one kind.
type KindStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	Count int     `json:"count"`
}

// StrPtr returns a pointer to s. Handy for the optional id fields.
func StrPtr(s string) *string {
	return &s
}

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 {
	return &f
}
