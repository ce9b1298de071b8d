package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
)

// Alert history transitions.
const (
	TransitionRaised  = "raised"
	TransitionCleared = "cleared"
)

// AlertRecord is one row of the alert history.
type AlertRecord struct {
	Transition string           `json:"transition"`
	Alert      greenhouse.Alert `json:"alert"`
}

// RecordCommand appends an emitted command to the command history.
func (r *SQLiteRepository) RecordCommand(ctx context.Context, cmd greenhouse.Command) error {
	query := `
		INSERT INTO command_history (command_id, actuator_id, ts, action, reason, value)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		cmd.ID, cmd.ActuatorID, formatTime(cmd.TS), string(cmd.Action),
		cmd.Payload.Reason, cmd.Payload.Value)
	if err != nil {
		return fmt.Errorf("recording command %s: %w", cmd.ID, err)
	}
	return nil
}

// RecordAlert appends an alert raise or clear to the alert history.
// Returns ErrInvalidTransition for anything but "raised" or "cleared".
func (r *SQLiteRepository) RecordAlert(ctx context.Context, transition string, alert greenhouse.Alert) error {
	if transition != TransitionRaised && transition != TransitionCleared {
		return fmt.Errorf("%w: %q", ErrInvalidTransition, transition)
	}

	query := `
		INSERT INTO alert_history (alert_id, zone_id, sensor_id, ts, code, severity, message, transition)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		alert.ID, nullableString(alert.ZoneID), nullableString(alert.SensorID),
		formatTime(alert.TS), alert.Code, string(alert.Severity), alert.Message, transition)
	if err != nil {
		return fmt.Errorf("recording alert %s: %w", alert.ID, err)
	}
	return nil
}

// RecentCommands returns up to limit commands, newest first.
func (r *SQLiteRepository) RecentCommands(ctx context.Context, limit int) ([]greenhouse.Command, error) {
	query := `
		SELECT command_id, actuator_id, ts, action, reason, value
		FROM command_history
		ORDER BY seq DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying command history: %w", err)
	}
	defer rows.Close()

	var commands []greenhouse.Command
	for rows.Next() {
		var cmd greenhouse.Command
		var ts, action string
		var value sql.NullFloat64
		if err := rows.Scan(&cmd.ID, &cmd.ActuatorID, &ts, &action, &cmd.Payload.Reason, &value); err != nil {
			return nil, fmt.Errorf("scanning command: %w", err)
		}
		if cmd.TS, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parsing ts of command %s: %w", cmd.ID, err)
		}
		cmd.Action = greenhouse.Action(action)
		cmd.Payload.Value = value.Float64
		commands = append(commands, cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating command history: %w", err)
	}
	return commands, nil
}

// RecentAlerts returns up to limit alert history entries, newest first.
func (r *SQLiteRepository) RecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	query := `
		SELECT alert_id, zone_id, sensor_id, ts, code, severity, message, transition
		FROM alert_history
		ORDER BY seq DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying alert history: %w", err)
	}
	defer rows.Close()

	var records []AlertRecord
	for rows.Next() {
		var rec AlertRecord
		var zoneID, sensorID sql.NullString
		var ts, severity string
		if err := rows.Scan(
			&rec.Alert.ID, &zoneID, &sensorID, &ts,
			&rec.Alert.Code, &severity, &rec.Alert.Message, &rec.Transition,
		); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		if rec.Alert.TS, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parsing ts of alert %s: %w", rec.Alert.ID, err)
		}
		rec.Alert.ZoneID = stringPtr(zoneID)
		rec.Alert.SensorID = stringPtr(sensorID)
		rec.Alert.Severity = greenhouse.Severity(severity)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alert history: %w", err)
	}
	return records, nil
}

// SaveReport stores the rendered report of a day, replacing any previous
// report for the same day.
func (r *SQLiteRepository) SaveReport(ctx context.Context, day string, totalAlerts int, body []byte) error {
	query := `
		INSERT INTO day_reports (day, total_alerts, body, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			total_alerts = excluded.total_alerts,
			body = excluded.body,
			created_at = excluded.created_at`

	_, err := r.db.ExecContext(ctx, query, day, totalAlerts, string(body), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("saving report %s: %w", day, err)
	}
	return nil
}

// GetReport returns the stored report body of a day.
func (r *SQLiteRepository) GetReport(ctx context.Context, day string) ([]byte, error) {
	query := `
		SELECT body
		FROM day_reports
		WHERE day = ?`

	var body string
	if err := r.db.QueryRowContext(ctx, query, day).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("querying report %s: %w", day, err)
	}
	return []byte(body), nil
}
