package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
)

// Seed is a parsed seed file: a catalog plus the readings to replay.
type Seed struct {
	Dataset  greenhouse.Dataset
	Readings []greenhouse.Reading
}

// Validate checks the dataset invariants and that every reading references
// a known sensor. All violations are reported, wrapped in ErrInvalidSeed.
func (s *Seed) Validate() error {
	var errs []error
	if err := s.Dataset.Validate(); err != nil {
		errs = append(errs, err)
	}

	for _, p := range s.Dataset.Profiles {
		for day, windows := range p.Schedule {
			if _, err := greenhouse.ExpandSchedule(windows); err != nil {
				errs = append(errs, fmt.Errorf("profile %s schedule %s: %w", p.ID, day, err))
			}
		}
	}
	for _, m := range s.Dataset.Modes {
		if _, err := greenhouse.ExpandSchedule(m.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("mode %s schedule: %w", m.ID, err))
		}
	}

	for _, r := range s.Readings {
		if _, ok := s.Dataset.Sensor(r.SensorID); !ok {
			errs = append(errs, fmt.Errorf("%w: reading %s references %q", greenhouse.ErrUnknownSensor, r.ID, r.SensorID))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	return nil
}

// seedFile is the on-disk layout. JSON is accepted too since it is a
// subset of YAML.
type seedFile struct {
	Zones     []seedZone     `yaml:"zones"`
	Profiles  []seedProfile  `yaml:"profiles"`
	Sensors   []seedSensor   `yaml:"sensors"`
	Actuators []seedActuator `yaml:"actuators"`
	Rules     []seedRule     `yaml:"rules"`
	Modes     []seedMode     `yaml:"modes"`
	Readings  []seedReading  `yaml:"readings"`
}

type seedZone struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	ParentID *string `yaml:"parent_id"`
}

type seedProfile struct {
	ID           string                `yaml:"id"`
	Name         string                `yaml:"name"`
	TempRange    []float64             `yaml:"temp_range"`
	HumAirRange  []float64             `yaml:"hum_air_range"`
	HumSoilRange []float64             `yaml:"hum_soil_range"`
	CO2Range     []float64             `yaml:"co2_range"`
	LightMin     float64               `yaml:"light_min"`
	Schedule     map[string][][]string `yaml:"schedule"`
}

type seedSensor struct {
	ID       string  `yaml:"id"`
	DeviceID string  `yaml:"device_id"`
	Kind     string  `yaml:"kind"`
	Unit     string  `yaml:"unit"`
	ZoneID   *string `yaml:"zone_id"`
}

type seedActuator struct {
	ID       string `yaml:"id"`
	DeviceID string `yaml:"device_id"`
	Kind     string `yaml:"kind"`
}

type seedRule struct {
	ID      string          `yaml:"id"`
	Kind    string          `yaml:"kind"`
	Payload seedRulePayload `yaml:"payload"`
}

type seedRulePayload struct {
	Param    string   `yaml:"param"`
	Min      *float64 `yaml:"min"`
	Max      *float64 `yaml:"max"`
	Device   string   `yaml:"device"`
	Cooldown *int     `yaml:"cooldown"`
	Delta    float64  `yaml:"delta"`
	MaxAge   int      `yaml:"max_age"`
	Priority int      `yaml:"priority"`
}

type seedMode struct {
	ID        string     `yaml:"id"`
	ZoneID    string     `yaml:"zone_id"`
	ProfileID string     `yaml:"profile_id"`
	Schedule  [][]string `yaml:"schedule"`
}

type seedReading struct {
	ID       string   `yaml:"id"`
	SensorID string   `yaml:"sensor_id"`
	TS       string   `yaml:"ts"`
	Value    *float64 `yaml:"value"`
}

// LoadSeed reads and parses a seed file.
//
// Parameters:
//   - path: YAML or JSON seed file
//
// Returns:
//   - *Seed: Parsed dataset and readings, not yet validated
//   - error: If the file cannot be read or a field is malformed
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from CLI flag or config
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed parses seed file contents. Readings without an id are given a
// random UUID.
func ParseSeed(data []byte) (*Seed, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parsing: %w", ErrInvalidSeed, err)
	}

	seed := &Seed{}
	ds := &seed.Dataset

	for _, z := range f.Zones {
		ds.Zones = append(ds.Zones, greenhouse.Zone{ID: z.ID, Name: z.Name, ParentID: z.ParentID})
	}

	for _, p := range f.Profiles {
		profile, err := p.toProfile()
		if err != nil {
			return nil, err
		}
		ds.Profiles = append(ds.Profiles, profile)
	}

	for _, s := range f.Sensors {
		ds.Sensors = append(ds.Sensors, greenhouse.Sensor{
			ID:       s.ID,
			DeviceID: s.DeviceID,
			Kind:     greenhouse.SensorKind(s.Kind),
			Unit:     s.Unit,
			ZoneID:   s.ZoneID,
		})
	}

	for _, a := range f.Actuators {
		ds.Actuators = append(ds.Actuators, greenhouse.Actuator{
			ID:       a.ID,
			DeviceID: a.DeviceID,
			Kind:     greenhouse.ActuatorKind(a.Kind),
		})
	}

	for _, r := range f.Rules {
		ds.Rules = append(ds.Rules, greenhouse.Rule{
			ID:   r.ID,
			Kind: greenhouse.RuleKind(r.Kind),
			Payload: greenhouse.RulePayload{
				Param:    greenhouse.SensorKind(r.Payload.Param),
				Min:      r.Payload.Min,
				Max:      r.Payload.Max,
				Device:   r.Payload.Device,
				Cooldown: r.Payload.Cooldown,
				Delta:    r.Payload.Delta,
				MaxAge:   r.Payload.MaxAge,
				Priority: r.Payload.Priority,
			},
		})
	}

	for _, m := range f.Modes {
		windows, err := toWindows(m.Schedule)
		if err != nil {
			return nil, fmt.Errorf("%w: mode %s: %w", ErrInvalidSeed, m.ID, err)
		}
		ds.Modes = append(ds.Modes, greenhouse.Mode{
			ID:        m.ID,
			ZoneID:    m.ZoneID,
			ProfileID: m.ProfileID,
			Schedule:  windows,
		})
	}

	for _, r := range f.Readings {
		ts, err := greenhouse.ParseTimestamp(r.TS)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", ErrInvalidSeed, r.ID, err)
		}
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}
		seed.Readings = append(seed.Readings, greenhouse.Reading{
			ID:       id,
			SensorID: r.SensorID,
			TS:       ts,
			Value:    r.Value,
		})
	}

	return seed, nil
}

func (p seedProfile) toProfile() (greenhouse.PlantProfile, error) {
	profile := greenhouse.PlantProfile{ID: p.ID, Name: p.Name, LightMin: p.LightMin}

	ranges := []struct {
		name string
		src  []float64
		dst  *greenhouse.Range
	}{
		{"temp_range", p.TempRange, &profile.TempRange},
		{"hum_air_range", p.HumAirRange, &profile.HumAirRange},
		{"hum_soil_range", p.HumSoilRange, &profile.HumSoilRange},
		{"co2_range", p.CO2Range, &profile.CO2Range},
	}
	for _, r := range ranges {
		if len(r.src) != 2 {
			return greenhouse.PlantProfile{}, fmt.Errorf("%w: profile %s %s must be [min, max], got %d values",
				ErrInvalidSeed, p.ID, r.name, len(r.src))
		}
		*r.dst = greenhouse.Range{Min: r.src[0], Max: r.src[1]}
	}

	if len(p.Schedule) > 0 {
		profile.Schedule = make(greenhouse.WeeklySchedule, len(p.Schedule))
		for day, pairs := range p.Schedule {
			windows, err := toWindows(pairs)
			if err != nil {
				return greenhouse.PlantProfile{}, fmt.Errorf("%w: profile %s schedule %s: %w", ErrInvalidSeed, p.ID, day, err)
			}
			profile.Schedule[day] = windows
		}
	}
	return profile, nil
}

// toWindows converts [["06:00", "18:00"], ...] pairs into windows.
func toWindows(pairs [][]string) ([]greenhouse.Window, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	windows := make([]greenhouse.Window, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: window must be [start, end], got %v", greenhouse.ErrInvalidSchedule, pair)
		}
		windows = append(windows, greenhouse.Window{Start: pair[0], End: pair[1]})
	}
	return windows, nil
}
