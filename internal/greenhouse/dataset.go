package greenhouse

import (
	"errors"
	"fmt"
)

// Dataset is the full catalog the core works from: every entity produced
// by the seed loader or the catalog repository.
type Dataset struct {
	Zones     []Zone         `json:"zones"`
	Profiles  []PlantProfile `json:"profiles"`
	Sensors   []Sensor       `json:"sensors"`
	Actuators []Actuator     `json:"actuators"`
	Rules     []Rule         `json:"rules"`
	Modes     []Mode         `json:"modes"`
}

// Sensor returns the sensor with the given id.
func (d Dataset) Sensor(id string) (Sensor, bool) {
	for _, s := range d.Sensors {
		if s.ID == id {
			return s, true
		}
	}
	return Sensor{}, false
}

// Zone returns the zone with the given id.
func (d Dataset) Zone(id string) (Zone, bool) {
	for _, z := range d.Zones {
		if z.ID == id {
			return z, true
		}
	}
	return Zone{}, false
}

// Profile returns the profile with the given id.
func (d Dataset) Profile(id string) (PlantProfile, bool) {
	for _, p := range d.Profiles {
		if p.ID == id {
			return p, true
		}
	}
	return PlantProfile{}, false
}

// ModeForZone returns the mode bound directly to zoneID.
func (d Dataset) ModeForZone(zoneID string) (Mode, bool) {
	for _, m := range d.Modes {
		if m.ZoneID == zoneID {
			return m, true
		}
	}
	return Mode{}, false
}

// ProfileForZone resolves the profile a zone runs with: the mode bound to
// the zone, else the nearest ancestor with a mode, else the first profile
// in the catalog.
func (d Dataset) ProfileForZone(zoneID string) (PlantProfile, bool) {
	seen := make(map[string]bool)
	for id := zoneID; id != "" && !seen[id]; {
		seen[id] = true
		if m, ok := d.ModeForZone(id); ok {
			if p, ok := d.Profile(m.ProfileID); ok {
				return p, true
			}
		}
		z, ok := d.Zone(id)
		if !ok || z.ParentID == nil {
			break
		}
		id = *z.ParentID
	}

	if len(d.Profiles) == 0 {
		return PlantProfile{}, false
	}
	return d.Profiles[0], true
}

// Validate checks the catalog invariants: zone parents form a tree,
// profile ranges have min <= max, sensor and actuator kinds are
// enumerated, sensor zones exist, rule payloads suit their kind and modes
// reference existing zones and profiles. All violations are reported.
func (d Dataset) Validate() error {
	var errs []error

	if err := ValidateZoneTree(d.Zones); err != nil {
		errs = append(errs, err)
	}

	for _, p := range d.Profiles {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	zones := make(map[string]bool, len(d.Zones))
	for _, z := range d.Zones {
		zones[z.ID] = true
	}

	for _, s := range d.Sensors {
		if !s.Kind.Valid() {
			errs = append(errs, fmt.Errorf("%w: sensor %s has kind %q", ErrInvalidSensor, s.ID, s.Kind))
		}
		if s.ZoneID != nil && !zones[*s.ZoneID] {
			errs = append(errs, fmt.Errorf("%w: sensor %s references zone %q", ErrUnknownZone, s.ID, *s.ZoneID))
		}
	}

	for _, a := range d.Actuators {
		if !a.Kind.Valid() {
			errs = append(errs, fmt.Errorf("%w: actuator %s has kind %q", ErrInvalidActuator, a.ID, a.Kind))
		}
	}

	for _, r := range d.Rules {
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	for _, m := range d.Modes {
		if !zones[m.ZoneID] {
			errs = append(errs, fmt.Errorf("%w: mode %s references zone %q", ErrInvalidMode, m.ID, m.ZoneID))
		}
		if _, ok := d.Profile(m.ProfileID); !ok {
			errs = append(errs, fmt.Errorf("%w: mode %s references profile %q", ErrInvalidMode, m.ID, m.ProfileID))
		}
	}

	return errors.Join(errs...)
}

// Validate checks that every range of the profile has min <= max.
func (p PlantProfile) Validate() error {
	for _, kind := range []SensorKind{KindTemp, KindHumAir, KindHumSoil, KindCO2} {
		r, _ := p.RangeFor(kind)
		if !r.Valid() {
			return fmt.Errorf("%w: profile %s %s range %s has min > max", ErrInvalidProfile, p.ID, kind, r)
		}
	}
	return nil
}

// Validate checks that the payload carries what the rule kind needs.
func (r Rule) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: rule %s has kind %q", ErrInvalidRule, r.ID, r.Kind)
	}

	p := r.Payload
	if !p.Param.Valid() {
		return fmt.Errorf("%w: rule %s has param %q", ErrInvalidRule, r.ID, p.Param)
	}

	switch r.Kind {
	case RuleHysteresis, RuleRange:
		if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
			return fmt.Errorf("%w: rule %s has min > max", ErrInvalidRule, r.ID)
		}
		if p.Cooldown != nil && *p.Cooldown < 0 {
			return fmt.Errorf("%w: rule %s has negative cooldown", ErrInvalidRule, r.ID)
		}
	case RuleDelta:
		if p.Delta <= 0 {
			return fmt.Errorf("%w: delta rule %s needs a positive delta", ErrInvalidRule, r.ID)
		}
	case RuleStale:
		if p.MaxAge <= 0 {
			return fmt.Errorf("%w: stale rule %s needs a positive max_age", ErrInvalidRule, r.ID)
		}
	case RulePriority:
		if p.Priority <= 0 {
			return fmt.Errorf("%w: priority rule %s needs a positive priority", ErrInvalidRule, r.ID)
		}
	}
	return nil
}
