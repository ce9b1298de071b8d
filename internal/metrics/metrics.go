// Package metrics exposes Prometheus collectors for the control loop and
// the reporting path.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
	"github.com/nerrad567/greenhouse-core/internal/simulation"
)

const namespace = "greenhouse"

// Metrics holds every collector. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	busPublishes       *prometheus.CounterVec
	busFailures        *prometheus.CounterVec
	commands           *prometheus.CounterVec
	alertTransitions   *prometheus.CounterVec
	readings           *prometheus.CounterVec
	forecastHits       prometheus.Counter
	forecastMisses     prometheus.Counter
	simulationDuration prometheus.Histogram
	simulationAlerts   prometheus.Gauge
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. Pass
// prometheus.NewRegistry() in tests to avoid clashes on the default
// registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		busPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_publishes_total",
			Help:      "Events published on the bus, by event name.",
		}, []string{"event"}),
		busFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_publish_failures_total",
			Help:      "Bus publishes abandoned because a handler failed, by event name.",
		}, []string{"event"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Actuator commands emitted by the controller.",
		}, []string{"actuator", "action"}),
		alertTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_transitions_total",
			Help:      "Alerts raised or cleared, by code and transition.",
		}, []string{"code", "transition"}),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_total",
			Help:      "Readings processed by the control loop, by outcome status.",
		}, []string{"status"}),
		forecastHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_cache_hits_total",
			Help:      "Forecasts served from the cache.",
		}),
		forecastMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_cache_misses_total",
			Help:      "Forecasts computed.",
		}),
		simulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_day_duration_seconds",
			Help:      "Time taken to simulate one day.",
			Buckets:   prometheus.DefBuckets,
		}),
		simulationAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulation_last_day_alerts",
			Help:      "Total alerts of the most recently simulated day.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.busPublishes,
		m.busFailures,
		m.commands,
		m.alertTransitions,
		m.readings,
		m.forecastHits,
		m.forecastMisses,
		m.simulationDuration,
		m.simulationAlerts,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// BusPublished counts a successful publish.
func (m *Metrics) BusPublished(ev greenhouse.Event) {
	if m == nil {
		return
	}
	m.busPublishes.WithLabelValues(string(ev.Name)).Inc()
}

// BusFailed counts an abandoned publish.
func (m *Metrics) BusFailed(name greenhouse.EventName) {
	if m == nil {
		return
	}
	m.busFailures.WithLabelValues(string(name)).Inc()
}

// CommandEmitted counts a controller command.
func (m *Metrics) CommandEmitted(cmd greenhouse.Command) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(cmd.ActuatorID, string(cmd.Action)).Inc()
}

// AlertTransition counts an alert raise or clear.
func (m *Metrics) AlertTransition(code, transition string) {
	if m == nil {
		return
	}
	m.alertTransitions.WithLabelValues(code, transition).Inc()
}

// ReadingProcessed counts a reading by outcome status.
func (m *Metrics) ReadingProcessed(status string) {
	if m == nil {
		return
	}
	m.readings.WithLabelValues(status).Inc()
}

// ForecastLookup implements forecast.CacheObserver.
func (m *Metrics) ForecastLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.forecastHits.Inc()
	} else {
		m.forecastMisses.Inc()
	}
}

// DaySimulated implements simulation.Observer.
func (m *Metrics) DaySimulated(d time.Duration, s simulation.Summary) {
	if m == nil {
		return
	}
	m.simulationDuration.Observe(d.Seconds())
	m.simulationAlerts.Set(float64(s.TotalAlerts))
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}
