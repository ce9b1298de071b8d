package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/greenhouse-core/internal/catalog"
	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
	"github.com/nerrad567/greenhouse-core/internal/simulation"
)

// Query limits.
const (
	defaultWeekDays  = 7
	maxWeekDays      = 31
	maxForecastSteps = 168
)

// handleDayReport simulates one day from the stored readings. Nothing is
// persisted or published.
func (s *Server) handleDayReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.simulateDay(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleRunDayReport simulates one day and hands the report to the
// configured sinks (catalog, MQTT, Kafka, InfluxDB).
func (s *Server) handleRunDayReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.simulateDay(w, r)
	if !ok {
		return
	}

	if s.publisher != nil {
		if err := s.publisher.PublishDay(r.Context(), report); err != nil {
			s.logger.Error("publishing day report", "date", report.Date, "error", err)
			writeInternalError(w, "report computed but not fully published")
			return
		}
	}

	s.logger.Info("day report published", "date", report.Date, "total_alerts", report.Summary.TotalAlerts)
	writeJSON(w, http.StatusCreated, report)
}

// simulateDay parses ?date= and runs the orchestrator. It writes the
// error response itself and reports whether the caller should continue.
func (s *Server) simulateDay(w http.ResponseWriter, r *http.Request) (simulation.DayReport, bool) {
	day, err := greenhouse.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeBadRequest(w, "date must be YYYY-MM-DD")
		return simulation.DayReport{}, false
	}

	readings, err := s.readingsFor(r.Context(), day, 1)
	if err != nil {
		s.logger.Error("loading readings", "date", greenhouse.FormatDay(day), "error", err)
		writeInternalError(w, "failed to load readings")
		return simulation.DayReport{}, false
	}

	report, err := s.orchestrator.SimulateDay(r.Context(), day, readings, s.catalog.Dataset())
	if err != nil {
		s.writeSimulationError(w, err)
		return simulation.DayReport{}, false
	}
	return report, true
}

// handleWeekReport simulates ?days= consecutive days starting at ?from=.
func (s *Server) handleWeekReport(w http.ResponseWriter, r *http.Request) {
	from, err := greenhouse.ParseDay(r.URL.Query().Get("from"))
	if err != nil {
		writeBadRequest(w, "from must be YYYY-MM-DD")
		return
	}
	days, err := queryInt(r, "days", defaultWeekDays, 1, maxWeekDays)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	readings, err := s.readingsFor(r.Context(), from, days)
	if err != nil {
		s.logger.Error("loading readings", "from", greenhouse.FormatDay(from), "error", err)
		writeInternalError(w, "failed to load readings")
		return
	}

	report, err := s.orchestrator.SimulateWeek(r.Context(), greenhouse.Days(from, days), readings, s.catalog.Dataset())
	if err != nil {
		s.writeSimulationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleStoredReport returns a report saved by an earlier run.
func (s *Server) handleStoredReport(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := greenhouse.ParseDay(date); err != nil {
		writeBadRequest(w, "date must be YYYY-MM-DD")
		return
	}

	body, err := s.repo.GetReport(r.Context(), date)
	if errors.Is(err, catalog.ErrReportNotFound) {
		writeNotFound(w, "no report stored for "+date)
		return
	}
	if err != nil {
		s.logger.Error("loading stored report", "date", date, "error", err)
		writeInternalError(w, "failed to load report")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(body)
}

// handleForecast projects soil humidity for a zone from the readings of
// ?date= (default today).
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	zoneID := chi.URLParam(r, "zone")

	day := s.now().UTC()
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := greenhouse.ParseDay(v)
		if err != nil {
			writeBadRequest(w, "date must be YYYY-MM-DD")
			return
		}
		day = d
	}
	window, err := queryInt(r, "window", s.forecastWindow, 1, maxForecastSteps)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	ds := s.catalog.Dataset()
	if _, ok := ds.Zone(zoneID); !ok && zoneID != simulation.UnassignedZone {
		writeNotFound(w, "zone not found")
		return
	}

	readings, err := s.readingsFor(r.Context(), day, 1)
	if err != nil {
		s.logger.Error("loading readings", "zone", zoneID, "error", err)
		writeInternalError(w, "failed to load readings")
		return
	}

	date := greenhouse.FormatDay(day)
	values, err := s.orchestrator.Forecast(date, zoneID, readings, ds, window)
	if err != nil {
		s.writeSimulationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"zone_id": zoneID,
		"date":    date,
		"window":  window,
		"values":  values,
	})
}

// readingsFor loads the stored readings of n days starting at day.
func (s *Server) readingsFor(ctx context.Context, day time.Time, n int) ([]greenhouse.Reading, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, n).Add(-time.Nanosecond)
	return s.repo.ReadingsBetween(ctx, start, end)
}

// writeSimulationError maps orchestrator errors to responses.
func (s *Server) writeSimulationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, greenhouse.ErrUnknownSensor), errors.Is(err, simulation.ErrNoProfile):
		writeValidationError(w, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeUnavailable(w, "request cancelled")
	default:
		s.logger.Error("simulation failed", "error", err)
		writeInternalError(w, "simulation failed")
	}
}

// queryInt reads an integer query parameter in [lo, hi], returning def
// when it is absent.
func queryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", name, lo, hi)
	}
	return n, nil
}
