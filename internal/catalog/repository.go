package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
)

// timeLayout is the fixed-width UTC layout used for every stored timestamp.
// Lexical order of the stored strings equals chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Repository defines the interface for catalog persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// ListZones retrieves all zones ordered by id.
	ListZones(ctx context.Context) ([]greenhouse.Zone, error)

	// ListProfiles retrieves all plant profiles ordered by id.
	ListProfiles(ctx context.Context) ([]greenhouse.PlantProfile, error)

	// ListSensors retrieves all sensors ordered by id.
	ListSensors(ctx context.Context) ([]greenhouse.Sensor, error)

	// ListActuators retrieves all actuators ordered by id.
	ListActuators(ctx context.Context) ([]greenhouse.Actuator, error)

	// ListRules retrieves all rules ordered by id.
	ListRules(ctx context.Context) ([]greenhouse.Rule, error)

	// ListModes retrieves all modes ordered by id.
	ListModes(ctx context.Context) ([]greenhouse.Mode, error)

	// LoadDataset reads the whole catalog in one call.
	LoadDataset(ctx context.Context) (greenhouse.Dataset, error)

	// ImportSeed validates the seed and writes its dataset and readings in
	// one transaction. Existing rows with the same id are replaced.
	ImportSeed(ctx context.Context, seed *Seed) error

	// InsertReadings stores readings. A reading whose id already exists is
	// replaced.
	InsertReadings(ctx context.Context, readings []greenhouse.Reading) error

	// ReadingsBetween returns the readings with start <= ts <= end ordered
	// by timestamp.
	ReadingsBetween(ctx context.Context, start, end time.Time) ([]greenhouse.Reading, error)

	// RecordCommand appends an emitted command to the command history.
	RecordCommand(ctx context.Context, cmd greenhouse.Command) error

	// RecordAlert appends an alert raise or clear to the alert history.
	RecordAlert(ctx context.Context, transition string, alert greenhouse.Alert) error

	// RecentCommands returns up to limit commands, newest first.
	RecentCommands(ctx context.Context, limit int) ([]greenhouse.Command, error)

	// RecentAlerts returns up to limit alert history entries, newest first.
	RecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)

	// SaveReport stores the rendered report of a day, replacing any
	// previous report for the same day.
	SaveReport(ctx context.Context, day string, totalAlerts int, body []byte) error

	// GetReport returns the stored report body of a day.
	// Returns ErrReportNotFound if no report exists.
	GetReport(ctx context.Context, day string) ([]byte, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with the catalog
// migrations applied.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// execer is the subset of *sql.DB and *sql.Tx used by the insert helpers.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ListZones retrieves all zones ordered by id.
func (r *SQLiteRepository) ListZones(ctx context.Context) ([]greenhouse.Zone, error) {
	query := `
		SELECT id, name, parent_id
		FROM zones
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying zones: %w", err)
	}
	defer rows.Close()

	var zones []greenhouse.Zone
	for rows.Next() {
		var z greenhouse.Zone
		var parentID sql.NullString
		if err := rows.Scan(&z.ID, &z.Name, &parentID); err != nil {
			return nil, fmt.Errorf("scanning zone: %w", err)
		}
		z.ParentID = stringPtr(parentID)
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating zones: %w", err)
	}
	return zones, nil
}

// ListProfiles retrieves all plant profiles ordered by id.
func (r *SQLiteRepository) ListProfiles(ctx context.Context) ([]greenhouse.PlantProfile, error) {
	query := `
		SELECT id, name, temp_min, temp_max, hum_air_min, hum_air_max,
			hum_soil_min, hum_soil_max, co2_min, co2_max, light_min, schedule
		FROM profiles
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	var profiles []greenhouse.PlantProfile
	for rows.Next() {
		var p greenhouse.PlantProfile
		var schedule sql.NullString
		if err := rows.Scan(
			&p.ID, &p.Name,
			&p.TempRange.Min, &p.TempRange.Max,
			&p.HumAirRange.Min, &p.HumAirRange.Max,
			&p.HumSoilRange.Min, &p.HumSoilRange.Max,
			&p.CO2Range.Min, &p.CO2Range.Max,
			&p.LightMin, &schedule,
		); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		if schedule.Valid && schedule.String != "" {
			if err := json.Unmarshal([]byte(schedule.String), &p.Schedule); err != nil {
				return nil, fmt.Errorf("unmarshalling schedule of profile %s: %w", p.ID, err)
			}
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}
	return profiles, nil
}

// ListSensors retrieves all sensors ordered by id.
func (r *SQLiteRepository) ListSensors(ctx context.Context) ([]greenhouse.Sensor, error) {
	query := `
		SELECT id, device_id, kind, unit, zone_id
		FROM sensors
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying sensors: %w", err)
	}
	defer rows.Close()

	var sensors []greenhouse.Sensor
	for rows.Next() {
		var s greenhouse.Sensor
		var kind string
		var zoneID sql.NullString
		if err := rows.Scan(&s.ID, &s.DeviceID, &kind, &s.Unit, &zoneID); err != nil {
			return nil, fmt.Errorf("scanning sensor: %w", err)
		}
		s.Kind = greenhouse.SensorKind(kind)
		s.ZoneID = stringPtr(zoneID)
		sensors = append(sensors, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensors: %w", err)
	}
	return sensors, nil
}

// ListActuators retrieves all actuators ordered by id.
func (r *SQLiteRepository) ListActuators(ctx context.Context) ([]greenhouse.Actuator, error) {
	query := `
		SELECT id, device_id, kind
		FROM actuators
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying actuators: %w", err)
	}
	defer rows.Close()

	var actuators []greenhouse.Actuator
	for rows.Next() {
		var a greenhouse.Actuator
		var kind string
		if err := rows.Scan(&a.ID, &a.DeviceID, &kind); err != nil {
			return nil, fmt.Errorf("scanning actuator: %w", err)
		}
		a.Kind = greenhouse.ActuatorKind(kind)
		actuators = append(actuators, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actuators: %w", err)
	}
	return actuators, nil
}

// ListRules retrieves all rules ordered by id.
func (r *SQLiteRepository) ListRules(ctx context.Context) ([]greenhouse.Rule, error) {
	query := `
		SELECT id, kind, payload
		FROM rules
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	var rules []greenhouse.Rule
	for rows.Next() {
		var rule greenhouse.Rule
		var kind, payload string
		if err := rows.Scan(&rule.ID, &kind, &payload); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		rule.Kind = greenhouse.RuleKind(kind)
		if err := json.Unmarshal([]byte(payload), &rule.Payload); err != nil {
			return nil, fmt.Errorf("unmarshalling payload of rule %s: %w", rule.ID, err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules: %w", err)
	}
	return rules, nil
}

// ListModes retrieves all modes ordered by id.
func (r *SQLiteRepository) ListModes(ctx context.Context) ([]greenhouse.Mode, error) {
	query := `
		SELECT id, zone_id, profile_id, schedule
		FROM modes
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying modes: %w", err)
	}
	defer rows.Close()

	var modes []greenhouse.Mode
	for rows.Next() {
		var m greenhouse.Mode
		var schedule sql.NullString
		if err := rows.Scan(&m.ID, &m.ZoneID, &m.ProfileID, &schedule); err != nil {
			return nil, fmt.Errorf("scanning mode: %w", err)
		}
		if schedule.Valid && schedule.String != "" {
			if err := json.Unmarshal([]byte(schedule.String), &m.Schedule); err != nil {
				return nil, fmt.Errorf("unmarshalling schedule of mode %s: %w", m.ID, err)
			}
		}
		modes = append(modes, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating modes: %w", err)
	}
	return modes, nil
}

// LoadDataset reads the whole catalog.
func (r *SQLiteRepository) LoadDataset(ctx context.Context) (greenhouse.Dataset, error) {
	var ds greenhouse.Dataset
	var err error

	if ds.Zones, err = r.ListZones(ctx); err != nil {
		return greenhouse.Dataset{}, err
	}
	if ds.Profiles, err = r.ListProfiles(ctx); err != nil {
		return greenhouse.Dataset{}, err
	}
	if ds.Sensors, err = r.ListSensors(ctx); err != nil {
		return greenhouse.Dataset{}, err
	}
	if ds.Actuators, err = r.ListActuators(ctx); err != nil {
		return greenhouse.Dataset{}, err
	}
	if ds.Rules, err = r.ListRules(ctx); err != nil {
		return greenhouse.Dataset{}, err
	}
	if ds.Modes, err = r.ListModes(ctx); err != nil {
		return greenhouse.Dataset{}, err
	}
	return ds, nil
}

// ImportSeed validates the seed and writes it in one transaction. Nothing
// is written when validation fails.
func (r *SQLiteRepository) ImportSeed(ctx context.Context, seed *Seed) error {
	if seed == nil {
		return fmt.Errorf("%w: nil seed", ErrInvalidSeed)
	}
	if err := seed.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := importDataset(ctx, tx, seed.Dataset); err != nil {
		return err
	}
	if err := insertReadings(ctx, tx, seed.Readings); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}
	return nil
}

// importDataset upserts every entity, zones parents first.
func importDataset(ctx context.Context, ex execer, ds greenhouse.Dataset) error { //nolint:gocognit // one loop per table
	for _, z := range zonesParentFirst(ds.Zones) {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO zones (id, name, parent_id) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, parent_id = excluded.parent_id`,
			z.ID, z.Name, nullableString(z.ParentID))
		if err != nil {
			return fmt.Errorf("inserting zone %s: %w", z.ID, err)
		}
	}

	for _, p := range ds.Profiles {
		schedule, err := marshalNullable(p.Schedule, len(p.Schedule) == 0)
		if err != nil {
			return fmt.Errorf("marshalling schedule of profile %s: %w", p.ID, err)
		}
		_, err = ex.ExecContext(ctx, `
			INSERT INTO profiles (
				id, name, temp_min, temp_max, hum_air_min, hum_air_max,
				hum_soil_min, hum_soil_max, co2_min, co2_max, light_min, schedule
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				temp_min = excluded.temp_min, temp_max = excluded.temp_max,
				hum_air_min = excluded.hum_air_min, hum_air_max = excluded.hum_air_max,
				hum_soil_min = excluded.hum_soil_min, hum_soil_max = excluded.hum_soil_max,
				co2_min = excluded.co2_min, co2_max = excluded.co2_max,
				light_min = excluded.light_min, schedule = excluded.schedule`,
			p.ID, p.Name,
			p.TempRange.Min, p.TempRange.Max,
			p.HumAirRange.Min, p.HumAirRange.Max,
			p.HumSoilRange.Min, p.HumSoilRange.Max,
			p.CO2Range.Min, p.CO2Range.Max,
			p.LightMin, schedule)
		if err != nil {
			return fmt.Errorf("inserting profile %s: %w", p.ID, err)
		}
	}

	for _, s := range ds.Sensors {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO sensors (id, device_id, kind, unit, zone_id) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				device_id = excluded.device_id, kind = excluded.kind,
				unit = excluded.unit, zone_id = excluded.zone_id`,
			s.ID, s.DeviceID, string(s.Kind), s.Unit, nullableString(s.ZoneID))
		if err != nil {
			return fmt.Errorf("inserting sensor %s: %w", s.ID, err)
		}
	}

	for _, a := range ds.Actuators {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO actuators (id, device_id, kind) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET device_id = excluded.device_id, kind = excluded.kind`,
			a.ID, a.DeviceID, string(a.Kind))
		if err != nil {
			return fmt.Errorf("inserting actuator %s: %w", a.ID, err)
		}
	}

	for _, rule := range ds.Rules {
		payload, err := json.Marshal(rule.Payload)
		if err != nil {
			return fmt.Errorf("marshalling payload of rule %s: %w", rule.ID, err)
		}
		_, err = ex.ExecContext(ctx, `
			INSERT INTO rules (id, kind, payload) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET kind = excluded.kind, payload = excluded.payload`,
			rule.ID, string(rule.Kind), string(payload))
		if err != nil {
			return fmt.Errorf("inserting rule %s: %w", rule.ID, err)
		}
	}

	for _, m := range ds.Modes {
		schedule, err := marshalNullable(m.Schedule, len(m.Schedule) == 0)
		if err != nil {
			return fmt.Errorf("marshalling schedule of mode %s: %w", m.ID, err)
		}
		_, err = ex.ExecContext(ctx, `
			INSERT INTO modes (id, zone_id, profile_id, schedule) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				zone_id = excluded.zone_id, profile_id = excluded.profile_id,
				schedule = excluded.schedule`,
			m.ID, m.ZoneID, m.ProfileID, schedule)
		if err != nil {
			return fmt.Errorf("inserting mode %s: %w", m.ID, err)
		}
	}

	return nil
}

// InsertReadings stores readings in one transaction.
func (r *SQLiteRepository) InsertReadings(ctx context.Context, readings []greenhouse.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := insertReadings(ctx, tx, readings); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing readings: %w", err)
	}
	return nil
}

func insertReadings(ctx context.Context, ex execer, readings []greenhouse.Reading) error {
	for _, rd := range readings {
		var value sql.NullFloat64
		if rd.Value != nil {
			value = sql.NullFloat64{Float64: *rd.Value, Valid: true}
		}
		_, err := ex.ExecContext(ctx, `
			INSERT INTO readings (id, sensor_id, ts, value) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				sensor_id = excluded.sensor_id, ts = excluded.ts, value = excluded.value`,
			rd.ID, rd.SensorID, formatTime(rd.TS), value)
		if err != nil {
			return fmt.Errorf("inserting reading %s: %w", rd.ID, err)
		}
	}
	return nil
}

// ReadingsBetween returns the readings with start <= ts <= end.
func (r *SQLiteRepository) ReadingsBetween(ctx context.Context, start, end time.Time) ([]greenhouse.Reading, error) {
	query := `
		SELECT id, sensor_id, ts, value
		FROM readings
		WHERE ts >= ? AND ts <= ?
		ORDER BY ts, id`

	rows, err := r.db.QueryContext(ctx, query, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	var readings []greenhouse.Reading
	for rows.Next() {
		var rd greenhouse.Reading
		var ts string
		var value sql.NullFloat64
		if err := rows.Scan(&rd.ID, &rd.SensorID, &ts, &value); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		if rd.TS, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parsing ts of reading %s: %w", rd.ID, err)
		}
		if value.Valid {
			rd.Value = greenhouse.FloatPtr(value.Float64)
		}
		readings = append(readings, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}
	return readings, nil
}

// zonesParentFirst orders zones so every parent precedes its children.
// The tree has already been validated.
func zonesParentFirst(zones []greenhouse.Zone) []greenhouse.Zone {
	byID := make(map[string]greenhouse.Zone, len(zones))
	for _, z := range zones {
		byID[z.ID] = z
	}

	ordered := make([]greenhouse.Zone, 0, len(zones))
	for _, z := range zones {
		if z.ParentID != nil {
			continue
		}
		for _, id := range greenhouse.Descendants(zones, z.ID) {
			ordered = append(ordered, byID[id])
		}
	}
	return ordered
}

// stringPtr converts a nullable column into an optional string.
func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return greenhouse.StrPtr(ns.String)
}

// nullableString returns a sql.NullString for optional string pointers.
func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// marshalNullable JSON-encodes v, or returns NULL when empty is true.
func marshalNullable(v any, empty bool) (sql.NullString, error) {
	if empty {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, errors.Join(greenhouse.ErrInvalidTimestamp, err)
	}
	return t, nil
}
