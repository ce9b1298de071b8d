package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nerrad567/greenhouse-core/internal/forecast"
	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
)

var day = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

func at(h int) time.Time {
	return day.Add(time.Duration(h) * time.Hour)
}

func testProfile() greenhouse.PlantProfile {
	return greenhouse.PlantProfile{
		ID:           "tomato",
		Name:         "Tomato",
		TempRange:    greenhouse.Range{Min: 18, Max: 25},
		HumAirRange:  greenhouse.Range{Min: 50, Max: 70},
		HumSoilRange: greenhouse.Range{Min: 30, Max: 60},
		CO2Range:     greenhouse.Range{Min: 400, Max: 1000},
		LightMin:     200,
	}
}

func testDataset() greenhouse.Dataset {
	return greenhouse.Dataset{
		Zones: []greenhouse.Zone{
			{ID: "z1", Name: "Bed 1"},
			{ID: "z2", Name: "Bed 2"},
		},
		Profiles: []greenhouse.PlantProfile{testProfile()},
		Sensors: []greenhouse.Sensor{
			{ID: "t1", Kind: greenhouse.KindTemp, Unit: "C", ZoneID: greenhouse.StrPtr("z1")},
			{ID: "s1", Kind: greenhouse.KindHumSoil, Unit: "%", ZoneID: greenhouse.StrPtr("z1")},
			{ID: "t2", Kind: greenhouse.KindTemp, Unit: "C", ZoneID: greenhouse.StrPtr("z2")},
		},
	}
}

// ============================================================================
// SimulateDay
// ============================================================================

func TestSimulateDay_EndToEnd(t *testing.T) {
	ds := testDataset()
	readings := []greenhouse.Reading{
		greenhouse.NewReading("r1", "t1", at(0), 15),
		greenhouse.NewReading("r2", "t1", at(1), 30),
	}

	report, err := New(nil).SimulateDay(context.Background(), day, readings, ds)
	if err != nil {
		t.Fatalf("SimulateDay() error = %v", err)
	}

	if report.Date != "2026-10-01" {
		t.Errorf("Date = %q, want 2026-10-01", report.Date)
	}
	z, ok := report.Zones["z1"]
	if !ok {
		t.Fatalf("Zones = %v, want z1", report.Zones)
	}
	// Both readings fail validation; that is a warning, not an alert.
	if len(z.Alerts) != 0 {
		t.Errorf("len(Alerts) = %d, want 0", len(z.Alerts))
	}
	if z.Warnings != 2 {
		t.Errorf("Warnings = %d, want 2", z.Warnings)
	}
	if z.Profile != "Tomato" {
		t.Errorf("Profile = %q, want Tomato", z.Profile)
	}
	want := greenhouse.KindStats{Min: 15, Max: 30, Avg: 22.5, Count: 2}
	if z.Stats[greenhouse.KindTemp] != want {
		t.Errorf("Stats[temp] = %+v, want %+v", z.Stats[greenhouse.KindTemp], want)
	}
	if len(z.Controller) != 0 {
		t.Errorf("Controller = %+v, want none for in-band average", z.Controller)
	}
	if len(z.Forecast) != 0 {
		t.Errorf("Forecast = %v, want empty without soil readings", z.Forecast)
	}

	s := report.Summary
	if s.TotalAlerts != 0 || s.ZonesOK != 1 || s.ZonesAlert != 0 {
		t.Errorf("Summary = %+v, want 0 alerts, 1 ok zone", s)
	}
	if s.OutOfRangePercent != 100 {
		t.Errorf("OutOfRangePercent = %v, want 100", s.OutOfRangePercent)
	}
}

func TestSimulateDay_SnapshotAlerts(t *testing.T) {
	ds := testDataset()
	readings := []greenhouse.Reading{
		greenhouse.NewReading("r1", "s1", at(0), 10), // warning, leaves soil low in the snapshot
		greenhouse.NewReading("r2", "t1", at(1), 21), // valid, but the zone is in alert
		greenhouse.NewReading("r3", "t2", at(1), 21),
	}

	report, err := New(nil).SimulateDay(context.Background(), day, readings, ds)
	if err != nil {
		t.Fatalf("SimulateDay() error = %v", err)
	}

	if n := len(report.Zones["z1"].Alerts); n != 1 {
		t.Errorf("z1 alerts = %d, want 1", n)
	}
	if n := len(report.Zones["z2"].Alerts); n != 0 {
		t.Errorf("z2 alerts = %d, want 0", n)
	}

	s := report.Summary
	if s.TotalAlerts != 1 || s.ZonesOK != 1 || s.ZonesAlert != 1 {
		t.Errorf("Summary = %+v, want 1 alert, 1 ok, 1 alert zone", s)
	}

	// Averaged soil of 10 asks for the pump.
	cmds := report.Zones["z1"].Controller
	if len(cmds) != 1 || cmds[0].ActuatorID != "pump" || cmds[0].Action != greenhouse.ActionOn {
		t.Errorf("z1 Controller = %+v, want pump ON", cmds)
	}
}

func TestSimulateDay_SummaryInvariants(t *testing.T) {
	ds := testDataset()
	var readings []greenhouse.Reading
	for h := 0; h < 24; h++ {
		readings = append(readings,
			greenhouse.NewReading(fmt.Sprintf("t1-%d", h), "t1", at(h), float64(10+h)),
			greenhouse.NewReading(fmt.Sprintf("s1-%d", h), "s1", at(h), float64(20+h*2)),
			greenhouse.NewReading(fmt.Sprintf("t2-%d", h), "t2", at(h), 21),
		)
	}

	report, err := New(nil).SimulateDay(context.Background(), day, readings, ds)
	if err != nil {
		t.Fatalf("SimulateDay() error = %v", err)
	}

	total := 0
	for _, z := range report.Zones {
		total += len(z.Alerts)
	}
	s := report.Summary
	if s.TotalAlerts != total {
		t.Errorf("TotalAlerts = %d, want sum of zone alerts %d", s.TotalAlerts, total)
	}
	if s.ZonesOK+s.ZonesAlert != len(report.Zones) {
		t.Errorf("ZonesOK+ZonesAlert = %d, want %d", s.ZonesOK+s.ZonesAlert, len(report.Zones))
	}
	if s.Readings != len(readings) {
		t.Errorf("Readings = %d, want %d", s.Readings, len(readings))
	}
}

func TestSimulateDay_UnknownSensor(t *testing.T) {
	readings := []greenhouse.Reading{
		greenhouse.NewReading("r1", "t1", at(0), 20),
		greenhouse.NewReading("r2", "ghost", at(1), 20),
	}
	_, err := New(nil).SimulateDay(context.Background(), day, readings, testDataset())
	if !errors.Is(err, greenhouse.ErrUnknownSensor) {
		t.Errorf("SimulateDay() error = %v, want ErrUnknownSensor", err)
	}
}

func TestSimulateDay_NoProfile(t *testing.T) {
	ds := testDataset()
	ds.Profiles = nil
	readings := []greenhouse.Reading{greenhouse.NewReading("r1", "t1", at(0), 20)}

	if _, err := New(nil).SimulateDay(context.Background(), day, readings, ds); !errors.Is(err, ErrNoProfile) {
		t.Errorf("SimulateDay() error = %v, want ErrNoProfile", err)
	}
}

func TestSimulateDay_Empty(t *testing.T) {
	report, err := New(nil).SimulateDay(context.Background(), day, nil, testDataset())
	if err != nil {
		t.Fatalf("SimulateDay() error = %v", err)
	}
	if len(report.Zones) != 0 || report.Summary != (Summary{}) {
		t.Errorf("report = %+v, want empty", report)
	}
}

func TestSimulateDay_UnassignedSensor(t *testing.T) {
	ds := testDataset()
	ds.Sensors = append(ds.Sensors, greenhouse.Sensor{ID: "loose", Kind: greenhouse.KindCO2})
	readings := []greenhouse.Reading{greenhouse.NewReading("r1", "loose", at(0), 600)}

	report, err := New(nil).SimulateDay(context.Background(), day, readings, ds)
	if err != nil {
		t.Fatalf("SimulateDay() error = %v", err)
	}
	if _, ok := report.Zones[UnassignedZone]; !ok {
		t.Errorf("Zones = %v, want %q", report.Zones, UnassignedZone)
	}
}

func TestSimulateDay_ForecastUsesLast24(t *testing.T) {
	ds := testDataset()
	var readings []greenhouse.Reading
	var points []forecast.Point
	for i := 0; i < 30; i++ {
		ts := day.Add(time.Duration(i) * 30 * time.Minute)
		v := 40 + float64(i%5)
		// Feed newest first to check ordering.
		readings = append([]greenhouse.Reading{greenhouse.NewReading(fmt.Sprintf("s%d", i), "s1", ts, v)}, readings...)
		points = append(points, forecast.Point{TS: ts, Value: v})
	}

	engine := forecast.NewEngine()
	report, err := New(engine, WithForecastWindow(12)).SimulateDay(context.Background(), day, readings, ds)
	if err != nil {
		t.Fatalf("SimulateDay() error = %v", err)
	}

	got := report.Zones["z1"].Forecast
	want := forecast.Compute(points[6:], 12)
	if len(got) != 12 {
		t.Fatalf("len(Forecast) = %d, want 12", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Forecast[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// The same day again is served from the cache.
	if _, err := New(engine, WithForecastWindow(12)).SimulateDay(context.Background(), day, readings, ds); err != nil {
		t.Fatalf("SimulateDay() error = %v", err)
	}
	if st := engine.Stats(); st.Hits != 1 || st.Entries != 1 {
		t.Errorf("engine Stats() = %+v, want 1 hit, 1 entry", st)
	}
}

func TestSimulateDay_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	readings := []greenhouse.Reading{greenhouse.NewReading("r1", "t1", at(0), 20)}
	if _, err := New(nil).SimulateDay(ctx, day, readings, testDataset()); !errors.Is(err, context.Canceled) {
		t.Errorf("SimulateDay() error = %v, want context.Canceled", err)
	}
}

type recordingObserver struct {
	days int
}

func (o *recordingObserver) DaySimulated(time.Duration, Summary) { o.days++ }

func TestSimulateDay_Observer(t *testing.T) {
	obs := &recordingObserver{}
	o := New(nil, WithObserver(obs), WithConcurrency(1))
	if _, err := o.SimulateDay(context.Background(), day, nil, testDataset()); err != nil {
		t.Fatalf("SimulateDay() error = %v", err)
	}
	if obs.days != 1 {
		t.Errorf("observer saw %d days, want 1", obs.days)
	}
}

// ============================================================================
// SimulateWeek
// ============================================================================

func TestSimulateWeek(t *testing.T) {
	ds := testDataset()
	readings := []greenhouse.Reading{
		// Day 1: z1 alert (soil low, then valid temp), z2 ok.
		greenhouse.NewReading("d1-s", "s1", at(1), 10),
		greenhouse.NewReading("d1-t", "t1", at(2), 21),
		greenhouse.NewReading("d1-t2", "t2", at(2), 21),
		// Day 2: z2 only, ok.
		greenhouse.NewReading("d2-t2", "t2", at(26), 20),
		// Day 4: outside the simulated range.
		greenhouse.NewReading("d4-t2", "t2", at(75), 20),
	}

	week, err := New(nil).SimulateWeek(context.Background(), greenhouse.Days(day, 3), readings, ds)
	if err != nil {
		t.Fatalf("SimulateWeek() error = %v", err)
	}
	if len(week.PerDay) != 3 {
		t.Fatalf("len(PerDay) = %d, want 3", len(week.PerDay))
	}

	wantDates := []string{"2026-10-01", "2026-10-02", "2026-10-03"}
	for i, d := range week.PerDay {
		if d.Date != wantDates[i] {
			t.Errorf("PerDay[%d].Date = %q, want %q", i, d.Date, wantDates[i])
		}
	}

	s := week.Summary
	if s.TotalAlerts != 1 || s.ZonesOK != 2 || s.ZonesAlert != 1 {
		t.Errorf("Summary = %+v, want 1 alert, 2 ok, 1 alert zone", s)
	}
	if s.Readings != 4 {
		t.Errorf("Readings = %d, want 4", s.Readings)
	}

	sum := 0
	for _, d := range week.PerDay {
		sum += d.Summary.TotalAlerts
	}
	if sum != s.TotalAlerts {
		t.Errorf("sum of daily alerts = %d, want %d", sum, s.TotalAlerts)
	}
}

func TestSimulateWeek_PropagatesErrors(t *testing.T) {
	readings := []greenhouse.Reading{greenhouse.NewReading("r", "ghost", at(30), 1)}
	if _, err := New(nil).SimulateWeek(context.Background(), greenhouse.Days(day, 2), readings, testDataset()); !errors.Is(err, greenhouse.ErrUnknownSensor) {
		t.Errorf("SimulateWeek() error = %v, want ErrUnknownSensor", err)
	}
}

// ============================================================================
// Publisher
// ============================================================================

type fakeStore struct {
	day    string
	alerts int
	body   []byte
}

func (f *fakeStore) SaveReport(_ context.Context, day string, totalAlerts int, body []byte) error {
	f.day, f.alerts, f.body = day, totalAlerts, body
	return nil
}

type fakeMessages struct {
	topics []string
	err    error
}

func (f *fakeMessages) PublishJSON(topic string, _ any, _ bool) error {
	f.topics = append(f.topics, topic)
	return f.err
}

type fakeExporter struct {
	keys []string
}

func (f *fakeExporter) Export(_ context.Context, key string, _ any) error {
	f.keys = append(f.keys, key)
	return nil
}

type fakeTelemetry struct {
	stats     int
	forecasts int
}

func (f *fakeTelemetry) WriteZoneStats(string, string, float64, float64, float64, int, time.Time) {
	f.stats++
}

func (f *fakeTelemetry) WriteForecast(string, []float64, time.Time) {
	f.forecasts++
}

func TestPublisher_PublishDay(t *testing.T) {
	ds := testDataset()
	readings := []greenhouse.Reading{
		greenhouse.NewReading("r1", "s1", at(0), 45),
		greenhouse.NewReading("r2", "t1", at(1), 21),
	}
	report, err := New(nil).SimulateDay(context.Background(), day, readings, ds)
	if err != nil {
		t.Fatalf("SimulateDay() error = %v", err)
	}

	store := &fakeStore{}
	msgs := &fakeMessages{}
	exp := &fakeExporter{}
	tel := &fakeTelemetry{}
	p := &Publisher{Store: store, Messages: msgs, Exporter: exp, Telemetry: tel}

	if err := p.PublishDay(context.Background(), report); err != nil {
		t.Fatalf("PublishDay() error = %v", err)
	}

	if store.day != "2026-10-01" {
		t.Errorf("stored day = %q", store.day)
	}
	var decoded DayReport
	if err := json.Unmarshal(store.body, &decoded); err != nil {
		t.Fatalf("stored body is not a report: %v", err)
	}
	if len(decoded.Zones) != 1 {
		t.Errorf("stored zones = %d, want 1", len(decoded.Zones))
	}
	if len(msgs.topics) != 1 || msgs.topics[0] != "greenhouse/report/2026-10-01" {
		t.Errorf("published topics = %v", msgs.topics)
	}
	if len(exp.keys) != 1 || exp.keys[0] != "2026-10-01" {
		t.Errorf("exported keys = %v", exp.keys)
	}
	if tel.stats != 2 || tel.forecasts != 1 {
		t.Errorf("telemetry stats/forecasts = %d/%d, want 2/1", tel.stats, tel.forecasts)
	}
}

func TestPublisher_JoinsErrors(t *testing.T) {
	errMQTT := errors.New("broker down")
	exp := &fakeExporter{}
	p := &Publisher{Messages: &fakeMessages{err: errMQTT}, Exporter: exp}

	err := p.PublishDay(context.Background(), DayReport{Date: "2026-10-01"})
	if !errors.Is(err, errMQTT) {
		t.Errorf("PublishDay() error = %v, want %v", err, errMQTT)
	}
	if len(exp.keys) != 1 {
		t.Error("exporter skipped after an earlier sink failed")
	}
}

func TestPublisher_NoSinks(t *testing.T) {
	if err := (&Publisher{}).PublishDay(context.Background(), DayReport{}); err != nil {
		t.Errorf("PublishDay() error = %v, want nil", err)
	}
}

// ============================================================================
// Forecast
// ============================================================================

func TestOrchestrator_Forecast(t *testing.T) {
	ds := testDataset()
	ds.Sensors = append(ds.Sensors, greenhouse.Sensor{ID: "s2", Kind: greenhouse.KindHumSoil, ZoneID: greenhouse.StrPtr("z2")})

	readings := []greenhouse.Reading{
		greenhouse.NewReading("r2", "s1", at(2), 44),
		greenhouse.NewReading("r1", "s1", at(1), 40),
		greenhouse.NewReading("rx", "s2", at(1), 90),
		greenhouse.NewReading("rt", "t1", at(1), 21),
		greenhouse.NewReading("rg", "ghost", at(1), 1),
	}
	o := New(forecast.NewEngine())

	got, err := o.Forecast("2026-10-01", "z1", readings, ds, 3)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	want := forecast.Compute([]forecast.Point{{TS: at(1), Value: 40}, {TS: at(2), Value: 44}}, 3)
	if len(got) != len(want) {
		t.Fatalf("len(Forecast) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Forecast[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	got, err = o.Forecast("2026-10-01", "z1", readings, ds, 0)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if len(got) != DefaultForecastWindow {
		t.Errorf("len(Forecast) with default window = %d, want %d", len(got), DefaultForecastWindow)
	}

	got, err = o.Forecast("2026-10-01", "nowhere", readings, ds, 3)
	if err != nil || len(got) != 0 {
		t.Errorf("Forecast(nowhere) = %v, %v, want empty", got, err)
	}

	ds.Profiles = nil
	if _, err := o.Forecast("2026-10-01", "z1", readings, ds, 3); !errors.Is(err, ErrNoProfile) {
		t.Errorf("Forecast() error = %v, want ErrNoProfile", err)
	}
}
