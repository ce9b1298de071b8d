package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/mqtt"
)

// ReportStore persists rendered day reports.
type ReportStore interface {
	SaveReport(ctx context.Context, day string, totalAlerts int, body []byte) error
}

// MessagePublisher publishes JSON messages (MQTT).
type MessagePublisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// Exporter ships a keyed JSON document to an external log (Kafka).
type Exporter interface {
	Export(ctx context.Context, key string, v any) error
}

// TelemetryWriter records report figures as time series (InfluxDB).
type TelemetryWriter interface {
	WriteZoneStats(zoneID, kind string, minV, maxV, avg float64, count int, day time.Time)
	WriteForecast(zoneID string, values []float64, start time.Time)
}

// Publisher fans a finished day report out to the configured sinks.
// Every sink is optional; nil sinks are skipped.
type Publisher struct {
	Store     ReportStore
	Messages  MessagePublisher
	Exporter  Exporter
	Telemetry TelemetryWriter
}

// PublishDay sends report to every configured sink. All sinks are tried;
// their failures are joined.
func (p *Publisher) PublishDay(ctx context.Context, report DayReport) error {
	var errs []error

	if p.Store != nil {
		body, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("encoding report %s: %w", report.Date, err)
		}
		if err := p.Store.SaveReport(ctx, report.Date, report.Summary.TotalAlerts, body); err != nil {
			errs = append(errs, fmt.Errorf("saving report: %w", err))
		}
	}

	if p.Messages != nil {
		if err := p.Messages.PublishJSON(mqtt.Topics{}.DayReport(report.Date), report.Summary, true); err != nil {
			errs = append(errs, fmt.Errorf("publishing report summary: %w", err))
		}
	}

	if p.Exporter != nil {
		if err := p.Exporter.Export(ctx, report.Date, report); err != nil {
			errs = append(errs, fmt.Errorf("exporting report: %w", err))
		}
	}

	if p.Telemetry != nil {
		day, err := greenhouse.ParseDay(report.Date)
		if err != nil {
			errs = append(errs, err)
		} else {
			for zoneID, z := range report.Zones {
				for kind, st := range z.Stats {
					p.Telemetry.WriteZoneStats(zoneID, string(kind), st.Min, st.Max, st.Avg, st.Count, day)
				}
				if len(z.Forecast) > 0 {
					p.Telemetry.WriteForecast(zoneID, z.Forecast, day.AddDate(0, 0, 1))
				}
			}
		}
	}

	return errors.Join(errs...)
}
