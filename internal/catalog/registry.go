package catalog

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
)

// Logger is the logging interface used by the registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry holds an in-memory snapshot of the catalog so the control loop
// and the API can read it without touching the database per request.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Returned datasets are copies; callers may modify them.
type Registry struct {
	repo   Repository
	logger Logger

	cacheMu sync.RWMutex
	cache   greenhouse.Dataset
	loaded  bool
}

// NewRegistry creates a registry backed by repo. Call RefreshCache before
// the first read.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads the whole dataset from the repository.
func (r *Registry) RefreshCache(ctx context.Context) error {
	ds, err := r.repo.LoadDataset(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	r.cacheMu.Lock()
	r.cache = cloneDataset(ds)
	r.loaded = true
	r.cacheMu.Unlock()

	r.logger.Info("catalog cache refreshed",
		"zones", len(ds.Zones),
		"profiles", len(ds.Profiles),
		"sensors", len(ds.Sensors),
		"rules", len(ds.Rules),
	)
	return nil
}

// Set replaces the cached dataset without touching the repository. Used by
// one-shot runs that load a seed file straight into memory.
func (r *Registry) Set(ds greenhouse.Dataset) {
	r.cacheMu.Lock()
	r.cache = cloneDataset(ds)
	r.loaded = true
	r.cacheMu.Unlock()
}

// Loaded reports whether the cache has been filled.
func (r *Registry) Loaded() bool {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return r.loaded
}

// Dataset returns a copy of the cached catalog.
func (r *Registry) Dataset() greenhouse.Dataset {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return cloneDataset(r.cache)
}

// Sensor looks up a sensor in the cache.
func (r *Registry) Sensor(id string) (greenhouse.Sensor, bool) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return r.cache.Sensor(id)
}

// Zones returns a copy of the cached zones.
func (r *Registry) Zones() []greenhouse.Zone {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return slices.Clone(r.cache.Zones)
}

// ProfileForZone resolves the profile a zone runs with.
func (r *Registry) ProfileForZone(zoneID string) (greenhouse.PlantProfile, bool) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	p, ok := r.cache.ProfileForZone(zoneID)
	if ok {
		p.Schedule = cloneSchedule(p.Schedule)
	}
	return p, ok
}

func cloneDataset(ds greenhouse.Dataset) greenhouse.Dataset {
	out := greenhouse.Dataset{
		Zones:     slices.Clone(ds.Zones),
		Profiles:  slices.Clone(ds.Profiles),
		Sensors:   slices.Clone(ds.Sensors),
		Actuators: slices.Clone(ds.Actuators),
		Rules:     slices.Clone(ds.Rules),
		Modes:     slices.Clone(ds.Modes),
	}
	for i := range out.Profiles {
		out.Profiles[i].Schedule = cloneSchedule(out.Profiles[i].Schedule)
	}
	for i := range out.Modes {
		out.Modes[i].Schedule = slices.Clone(out.Modes[i].Schedule)
	}
	return out
}

func cloneSchedule(s greenhouse.WeeklySchedule) greenhouse.WeeklySchedule {
	if s == nil {
		return nil
	}
	out := maps.Clone(s)
	for day, windows := range out {
		out[day] = slices.Clone(windows)
	}
	return out
}
