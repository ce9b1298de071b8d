package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/config"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/database"
	"github.com/nerrad567/greenhouse-core/migrations"
)

// setupTestRepo opens an in-memory catalog with the schema applied.
func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Path: database.MemoryPath, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

// testSeed builds a small valid seed: one greenhouse with one bed.
func testSeed() *Seed {
	ts := time.Date(2026, 10, 1, 6, 0, 0, 0, time.UTC)
	return &Seed{
		Dataset: greenhouse.Dataset{
			// Child listed before parent on purpose.
			Zones: []greenhouse.Zone{
				{ID: "bed_a", Name: "Bed A", ParentID: greenhouse.StrPtr("gh1")},
				{ID: "gh1", Name: "Greenhouse 1"},
			},
			Profiles: []greenhouse.PlantProfile{{
				ID:           "tomato",
				Name:         "Tomato",
				TempRange:    greenhouse.Range{Min: 18, Max: 25},
				HumAirRange:  greenhouse.Range{Min: 50, Max: 70},
				HumSoilRange: greenhouse.Range{Min: 30, Max: 60},
				CO2Range:     greenhouse.Range{Min: 400, Max: 800},
				LightMin:     200,
				Schedule: greenhouse.WeeklySchedule{
					"mon": {{Start: "06:00", End: "20:00"}},
				},
			}},
			Sensors: []greenhouse.Sensor{
				{ID: "s_temp", DeviceID: "dev_a", Kind: greenhouse.KindTemp, Unit: "C", ZoneID: greenhouse.StrPtr("bed_a")},
				{ID: "s_soil", DeviceID: "dev_a", Kind: greenhouse.KindHumSoil, Unit: "%"},
			},
			Actuators: []greenhouse.Actuator{
				{ID: "heater", DeviceID: "dev_heat", Kind: greenhouse.ActuatorHeater},
			},
			Rules: []greenhouse.Rule{{
				ID:   "r_temp",
				Kind: greenhouse.RuleHysteresis,
				Payload: greenhouse.RulePayload{
					Param:  greenhouse.KindTemp,
					Min:    greenhouse.FloatPtr(18),
					Max:    greenhouse.FloatPtr(25),
					Device: "heater",
				},
			}},
			Modes: []greenhouse.Mode{{
				ID:        "m1",
				ZoneID:    "bed_a",
				ProfileID: "tomato",
				Schedule:  []greenhouse.Window{{Start: "06:00", End: "20:00"}},
			}},
		},
		Readings: []greenhouse.Reading{
			greenhouse.NewReading("r1", "s_temp", ts, 16.5),
			greenhouse.NewReading("r2", "s_temp", ts.Add(3*time.Hour), 21),
			{ID: "r3", SensorID: "s_soil", TS: ts.Add(24 * time.Hour)},
		},
	}
}

// ============================================================================
// ImportSeed / LoadDataset
// ============================================================================

func TestImportSeed_RoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.ImportSeed(ctx, testSeed()); err != nil {
		t.Fatalf("ImportSeed() error = %v", err)
	}

	ds, err := repo.LoadDataset(ctx)
	if err != nil {
		t.Fatalf("LoadDataset() error = %v", err)
	}

	if len(ds.Zones) != 2 {
		t.Fatalf("len(Zones) = %d, want 2", len(ds.Zones))
	}
	bed, ok := ds.Zone("bed_a")
	if !ok || bed.ParentID == nil || *bed.ParentID != "gh1" {
		t.Errorf("Zone(bed_a) = %+v, want parent gh1", bed)
	}

	p, ok := ds.Profile("tomato")
	if !ok {
		t.Fatal("Profile(tomato) not found")
	}
	if p.TempRange != (greenhouse.Range{Min: 18, Max: 25}) {
		t.Errorf("TempRange = %v, want 18-25", p.TempRange)
	}
	if p.LightMin != 200 {
		t.Errorf("LightMin = %v, want 200", p.LightMin)
	}
	if got := p.Schedule["mon"]; len(got) != 1 || got[0].End != "20:00" {
		t.Errorf("Schedule[mon] = %v, want one window ending 20:00", got)
	}

	soil, ok := ds.Sensor("s_soil")
	if !ok {
		t.Fatal("Sensor(s_soil) not found")
	}
	if soil.ZoneID != nil {
		t.Errorf("s_soil ZoneID = %v, want nil", *soil.ZoneID)
	}

	if len(ds.Rules) != 1 || ds.Rules[0].Payload.Device != "heater" || *ds.Rules[0].Payload.Max != 25 {
		t.Errorf("Rules = %+v, want r_temp with device heater max 25", ds.Rules)
	}
	if len(ds.Modes) != 1 || len(ds.Modes[0].Schedule) != 1 {
		t.Errorf("Modes = %+v, want m1 with one window", ds.Modes)
	}
	if len(ds.Actuators) != 1 || ds.Actuators[0].Kind != greenhouse.ActuatorHeater {
		t.Errorf("Actuators = %+v, want heater", ds.Actuators)
	}
}

func TestImportSeed_Idempotent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	seed := testSeed()
	if err := repo.ImportSeed(ctx, seed); err != nil {
		t.Fatalf("first ImportSeed() error = %v", err)
	}
	seed.Dataset.Zones[1].Name = "Renamed"
	if err := repo.ImportSeed(ctx, seed); err != nil {
		t.Fatalf("second ImportSeed() error = %v", err)
	}

	zones, err := repo.ListZones(ctx)
	if err != nil {
		t.Fatalf("ListZones() error = %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("len(zones) = %d, want 2", len(zones))
	}
	if zones[1].ID != "gh1" || zones[1].Name != "Renamed" {
		t.Errorf("zones[1] = %+v, want gh1 renamed", zones[1])
	}
}

func TestImportSeed_InvalidWritesNothing(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Seed)
		wantErr error
	}{
		{
			name:    "profile min above max",
			mutate:  func(s *Seed) { s.Dataset.Profiles[0].TempRange = greenhouse.Range{Min: 30, Max: 20} },
			wantErr: greenhouse.ErrInvalidProfile,
		},
		{
			name: "zone cycle",
			mutate: func(s *Seed) {
				s.Dataset.Zones[1].ParentID = greenhouse.StrPtr("bed_a")
			},
			wantErr: greenhouse.ErrZoneCycle,
		},
		{
			name: "reading of unknown sensor",
			mutate: func(s *Seed) {
				s.Readings = append(s.Readings, greenhouse.NewReading("rx", "ghost", time.Now(), 1))
			},
			wantErr: greenhouse.ErrUnknownSensor,
		},
		{
			name:    "bad mode window",
			mutate:  func(s *Seed) { s.Dataset.Modes[0].Schedule[0].End = "25:99" },
			wantErr: greenhouse.ErrInvalidSchedule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := setupTestRepo(t)
			ctx := context.Background()

			seed := testSeed()
			tt.mutate(seed)

			err := repo.ImportSeed(ctx, seed)
			if !errors.Is(err, ErrInvalidSeed) {
				t.Errorf("ImportSeed() error = %v, want ErrInvalidSeed", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ImportSeed() error = %v, want %v", err, tt.wantErr)
			}

			zones, err := repo.ListZones(ctx)
			if err != nil {
				t.Fatalf("ListZones() error = %v", err)
			}
			if len(zones) != 0 {
				t.Errorf("len(zones) = %d after failed import, want 0", len(zones))
			}
		})
	}
}

func TestImportSeed_Nil(t *testing.T) {
	repo := setupTestRepo(t)
	if err := repo.ImportSeed(context.Background(), nil); !errors.Is(err, ErrInvalidSeed) {
		t.Errorf("ImportSeed(nil) error = %v, want ErrInvalidSeed", err)
	}
}

// ============================================================================
// Readings
// ============================================================================

func TestReadingsBetween(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.ImportSeed(ctx, testSeed()); err != nil {
		t.Fatalf("ImportSeed() error = %v", err)
	}

	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	got, err := repo.ReadingsBetween(ctx, day, day.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		t.Fatalf("ReadingsBetween() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(readings) = %d, want 2", len(got))
	}
	if got[0].ID != "r1" || got[1].ID != "r2" {
		t.Errorf("readings = [%s %s], want [r1 r2]", got[0].ID, got[1].ID)
	}
	if got[0].Value == nil || *got[0].Value != 16.5 {
		t.Errorf("r1 value = %v, want 16.5", got[0].Value)
	}
	if !got[1].TS.Equal(day.Add(9 * time.Hour)) {
		t.Errorf("r2 ts = %v, want 09:00", got[1].TS)
	}

	// Inclusive end and nil value.
	next := day.Add(24 * time.Hour)
	got, err = repo.ReadingsBetween(ctx, next, next)
	if err != nil {
		t.Fatalf("ReadingsBetween() error = %v", err)
	}
	if len(got) != 1 || got[0].Value != nil {
		t.Errorf("readings = %+v, want r3 without value", got)
	}
}

func TestInsertReadings(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.ImportSeed(ctx, testSeed()); err != nil {
		t.Fatalf("ImportSeed() error = %v", err)
	}

	if err := repo.InsertReadings(ctx, nil); err != nil {
		t.Errorf("InsertReadings(nil) error = %v", err)
	}

	// Zone offset is normalised to UTC on the way in.
	loc := time.FixedZone("UTC+2", 2*3600)
	ts := time.Date(2026, 10, 3, 12, 0, 0, 0, loc)
	if err := repo.InsertReadings(ctx, []greenhouse.Reading{greenhouse.NewReading("r9", "s_temp", ts, 22)}); err != nil {
		t.Fatalf("InsertReadings() error = %v", err)
	}

	got, err := repo.ReadingsBetween(ctx, ts, ts)
	if err != nil {
		t.Fatalf("ReadingsBetween() error = %v", err)
	}
	if len(got) != 1 || !got[0].TS.Equal(ts) {
		t.Errorf("readings = %+v, want r9 at %v", got, ts)
	}

	err = repo.InsertReadings(ctx, []greenhouse.Reading{greenhouse.NewReading("r10", "ghost", ts, 1)})
	if err == nil {
		t.Error("InsertReadings() with unknown sensor expected foreign key error, got nil")
	}
}

// ============================================================================
// History
// ============================================================================

func TestRecordCommand(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	ts := time.Date(2026, 10, 1, 6, 0, 0, 0, time.UTC)

	for i, action := range []greenhouse.Action{greenhouse.ActionOn, greenhouse.ActionOff} {
		cmd := greenhouse.Command{
			ID:         "temp_" + string(action),
			ActuatorID: "heater",
			TS:         ts.Add(time.Duration(i) * time.Minute),
			Action:     action,
			Payload:    greenhouse.CommandPayload{Reason: "temp<18", Value: 16.5},
		}
		if err := repo.RecordCommand(ctx, cmd); err != nil {
			t.Fatalf("RecordCommand() error = %v", err)
		}
	}

	got, err := repo.RecentCommands(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCommands() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(commands) = %d, want 2", len(got))
	}
	if got[0].Action != greenhouse.ActionOff {
		t.Errorf("newest action = %s, want OFF", got[0].Action)
	}
	if got[1].Payload.Reason != "temp<18" || got[1].Payload.Value != 16.5 {
		t.Errorf("payload = %+v, want temp<18 16.5", got[1].Payload)
	}

	got, err = repo.RecentCommands(ctx, 1)
	if err != nil {
		t.Fatalf("RecentCommands() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len(commands) = %d with limit 1, want 1", len(got))
	}
}

func TestRecordAlert(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	alert := greenhouse.Alert{
		ID:       greenhouse.AlertID("TEMP_HIGH", "bed_a"),
		ZoneID:   greenhouse.StrPtr("bed_a"),
		TS:       time.Date(2026, 10, 1, 13, 0, 0, 0, time.UTC),
		Code:     "TEMP_HIGH",
		Severity: greenhouse.SeverityWarning,
		Message:  "temp out of range (18-25)",
	}

	if err := repo.RecordAlert(ctx, TransitionRaised, alert); err != nil {
		t.Fatalf("RecordAlert(raised) error = %v", err)
	}
	alert.Severity = greenhouse.SeverityInfo
	if err := repo.RecordAlert(ctx, TransitionCleared, alert); err != nil {
		t.Fatalf("RecordAlert(cleared) error = %v", err)
	}
	if err := repo.RecordAlert(ctx, "ignored", alert); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("RecordAlert(ignored) error = %v, want ErrInvalidTransition", err)
	}

	got, err := repo.RecentAlerts(ctx, 10)
	if err != nil {
		t.Fatalf("RecentAlerts() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(alerts) = %d, want 2", len(got))
	}
	if got[0].Transition != TransitionCleared || got[1].Transition != TransitionRaised {
		t.Errorf("transitions = [%s %s], want [cleared raised]", got[0].Transition, got[1].Transition)
	}
	if got[1].Alert.ID != "TEMP_HIGH@bed_a" {
		t.Errorf("alert id = %q, want TEMP_HIGH@bed_a", got[1].Alert.ID)
	}
	if got[1].Alert.SensorID != nil {
		t.Errorf("sensor id = %v, want nil", *got[1].Alert.SensorID)
	}
}

// ============================================================================
// Reports
// ============================================================================

func TestReports(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetReport(ctx, "2026-10-01"); !errors.Is(err, ErrReportNotFound) {
		t.Errorf("GetReport() error = %v, want ErrReportNotFound", err)
	}

	if err := repo.SaveReport(ctx, "2026-10-01", 1, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	if err := repo.SaveReport(ctx, "2026-10-01", 3, []byte(`{"v":2}`)); err != nil {
		t.Fatalf("SaveReport() overwrite error = %v", err)
	}

	body, err := repo.GetReport(ctx, "2026-10-01")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if string(body) != `{"v":2}` {
		t.Errorf("GetReport() = %s, want {\"v\":2}", body)
	}
}

func TestZonesParentFirst(t *testing.T) {
	zones := []greenhouse.Zone{
		{ID: "leaf", ParentID: greenhouse.StrPtr("mid")},
		{ID: "mid", ParentID: greenhouse.StrPtr("root")},
		{ID: "root"},
	}

	got := zonesParentFirst(zones)
	want := []string{"root", "mid", "leaf"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}
