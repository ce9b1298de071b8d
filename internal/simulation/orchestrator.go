package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/greenhouse-core/internal/controller"
	"github.com/nerrad567/greenhouse-core/internal/forecast"
	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
	"github.com/nerrad567/greenhouse-core/internal/validation"
)

// Defaults for the per-zone forecast.
const (
	DefaultForecastWindow = 24
	ForecastHistory       = 24
)

// UnassignedZone collects readings from sensors that belong to no zone.
const UnassignedZone = "unassigned"

// ErrNoProfile is returned when a zone has readings but the catalog has no
// profile to judge them by.
var ErrNoProfile = errors.New("simulation: no plant profile for zone")

// Logger is the logging interface used by the orchestrator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Observer is told how long each simulated day took.
type Observer interface {
	DaySimulated(d time.Duration, s Summary)
}

// Orchestrator runs day and week simulations.
//
// Thread Safety:
//   - Safe for concurrent use; it holds no per-run state.
type Orchestrator struct {
	engine      *forecast.Engine
	window      int
	concurrency int
	logger      Logger
	observer    Observer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithForecastWindow sets the number of forecast steps per zone.
func WithForecastWindow(n int) Option {
	return func(o *Orchestrator) {
		o.window = n
	}
}

// WithConcurrency caps the number of zones simulated at once. 0 or less
// means no cap.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		o.concurrency = n
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(l Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers an observer for day timings.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		o.observer = obs
	}
}

// New creates an orchestrator. A nil engine gets a private one.
func New(engine *forecast.Engine, opts ...Option) *Orchestrator {
	if engine == nil {
		engine = forecast.NewEngine()
	}
	o := &Orchestrator{
		engine: engine,
		window: DefaultForecastWindow,
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SimulateDay builds the report for one day.
//
// Parameters:
//   - ctx: Cancels outstanding zone work
//   - day: The day being reported; only its date is used
//   - readings: The readings to simulate, used as given
//   - ds: Catalog the readings are judged against
//
// Returns:
//   - DayReport: Per-zone results and summary
//   - error: greenhouse.ErrUnknownSensor when a reading's sensor does not
//     resolve, ErrNoProfile when a zone has no profile
func (o *Orchestrator) SimulateDay(ctx context.Context, day time.Time, readings []greenhouse.Reading, ds greenhouse.Dataset) (DayReport, error) {
	start := time.Now()
	date := greenhouse.FormatDay(day)

	parts, err := partition(readings, ds.Sensors)
	if err != nil {
		return DayReport{}, fmt.Errorf("simulating %s: %w", date, err)
	}

	var (
		mu    sync.Mutex
		zones = make(map[string]ZoneReport, len(parts))
	)

	g, gctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}
	for zoneID, zoneReadings := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			zr, err := o.simulateZone(date, zoneID, zoneReadings, ds)
			if err != nil {
				return err
			}
			mu.Lock()
			zones[zoneID] = zr
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DayReport{}, fmt.Errorf("simulating %s: %w", date, err)
	}

	report := DayReport{Date: date, Zones: zones, Summary: summarize(zones)}

	elapsed := time.Since(start)
	o.logger.Debug("day simulated",
		"date", date,
		"zones", len(zones),
		"alerts", report.Summary.TotalAlerts,
		"duration", elapsed,
	)
	if o.observer != nil {
		o.observer.DaySimulated(elapsed, report.Summary)
	}
	return report, nil
}

// SimulateWeek simulates each day in order over the readings that fall on
// it and sums the daily summaries. Days without readings still appear,
// with an empty zone map.
func (o *Orchestrator) SimulateWeek(ctx context.Context, days []time.Time, readings []greenhouse.Reading, ds greenhouse.Dataset) (WeekReport, error) {
	week := WeekReport{PerDay: make([]DayReport, 0, len(days))}
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return WeekReport{}, err
		}
		report, err := o.SimulateDay(ctx, day, greenhouse.OnDay(readings, day), ds)
		if err != nil {
			return WeekReport{}, err
		}
		week.PerDay = append(week.PerDay, report)
		week.Summary = week.Summary.add(report.Summary)
	}

	o.logger.Info("week simulated",
		"days", len(days),
		"alerts", week.Summary.TotalAlerts,
	)
	return week, nil
}

// partition groups readings by the zone of their sensor. Every reading
// must resolve to a sensor; none are dropped.
func partition(readings []greenhouse.Reading, sensors []greenhouse.Sensor) (map[string][]greenhouse.Reading, error) {
	zoneOf := make(map[string]string, len(sensors))
	for _, s := range sensors {
		zone := UnassignedZone
		if s.ZoneID != nil {
			zone = *s.ZoneID
		}
		zoneOf[s.ID] = zone
	}

	parts := make(map[string][]greenhouse.Reading)
	for _, r := range readings {
		zone, ok := zoneOf[r.SensorID]
		if !ok {
			return nil, fmt.Errorf("reading %s references sensor %q: %w", r.ID, r.SensorID, greenhouse.ErrUnknownSensor)
		}
		parts[zone] = append(parts[zone], r)
	}
	return parts, nil
}

// simulateZone computes one zone report. It reads only its arguments and
// the shared forecast engine.
func (o *Orchestrator) simulateZone(date, zoneID string, readings []greenhouse.Reading, ds greenhouse.Dataset) (ZoneReport, error) {
	profile, ok := ds.ProfileForZone(zoneID)
	if !ok {
		return ZoneReport{}, fmt.Errorf("zone %s: %w", zoneID, ErrNoProfile)
	}

	ordered := make([]greenhouse.Reading, len(readings))
	copy(ordered, readings)
	greenhouse.SortByTime(ordered)

	stats := greenhouse.StatsByKind(ordered, ds.Sensors)

	zr := ZoneReport{
		ZoneID:     zoneID,
		Profile:    profile.Name,
		ProfileID:  profile.ID,
		Stats:      stats,
		Alerts:     []validation.Outcome{},
		Readings:   len(ordered),
		Controller: []greenhouse.Command{},
		Forecast:   []float64{},
	}

	snapshot := make(greenhouse.Snapshot)
	for _, r := range ordered {
		sensor, _ := validation.ResolveSensor(ds.Sensors, r.SensorID).Get()
		if r.Value != nil {
			snapshot[sensor.Kind] = *r.Value
		}

		out := validation.ProcessReading(r, ds.Sensors, snapshot, profile)
		switch out.Status {
		case validation.StatusAlert:
			zr.Alerts = append(zr.Alerts, out)
		case validation.StatusWarning:
			zr.Warnings++
		}
	}

	if soil := soilHistory(ordered, ds.Sensors); len(soil) > 0 {
		zr.Forecast = o.engine.Forecast(forecastKey(zoneID, date, profile.ID), soil, o.window)
	}

	if len(ordered) > 0 {
		last := ordered[len(ordered)-1].TS
		zr.Controller = append(zr.Controller, controller.SnapshotCommands(profile, ds.Rules, greenhouse.AverageSnapshot(stats), last)...)
	}
	return zr, nil
}

// Forecast predicts soil humidity for one zone from readings, which may
// span several zones; only sensors bound directly to zoneID are used. A
// window of zero or less uses the orchestrator's window.
//
// Returns:
//   - []float64: The forecast, empty when the zone has no soil readings
//   - error: ErrNoProfile when the catalog has no profile for the zone
func (o *Orchestrator) Forecast(date, zoneID string, readings []greenhouse.Reading, ds greenhouse.Dataset, window int) ([]float64, error) {
	profile, ok := ds.ProfileForZone(zoneID)
	if !ok {
		return nil, fmt.Errorf("zone %s: %w", zoneID, ErrNoProfile)
	}
	if window <= 0 {
		window = o.window
	}

	var own []greenhouse.Reading
	for _, r := range readings {
		s, ok := ds.Sensor(r.SensorID)
		if !ok {
			continue
		}
		zone := UnassignedZone
		if s.ZoneID != nil {
			zone = *s.ZoneID
		}
		if zone == zoneID {
			own = append(own, r)
		}
	}
	greenhouse.SortByTime(own)

	soil := soilHistory(own, ds.Sensors)
	if len(soil) == 0 {
		return []float64{}, nil
	}
	return o.engine.Forecast(forecastKey(zoneID, date, profile.ID), soil, window), nil
}

// soilHistory returns the last ForecastHistory soil humidity values of
// time-ordered readings.
func soilHistory(ordered []greenhouse.Reading, sensors []greenhouse.Sensor) []forecast.Point {
	var soil []forecast.Point
	for _, r := range ordered {
		if r.Value == nil {
			continue
		}
		sensor, ok := validation.ResolveSensor(sensors, r.SensorID).Get()
		if ok && sensor.Kind == greenhouse.KindHumSoil {
			soil = append(soil, forecast.Point{TS: r.TS, Value: *r.Value})
		}
	}
	if len(soil) > ForecastHistory {
		soil = soil[len(soil)-ForecastHistory:]
	}
	return soil
}

func forecastKey(zoneID, date, profileID string) string {
	return fmt.Sprintf("%s|%s|soil|%s", zoneID, date, profileID)
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
