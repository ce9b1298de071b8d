package bus

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
)

// Builtins returns the built-in handler for each built-in topic.
func Builtins() map[greenhouse.EventName]Handler {
	return map[greenhouse.EventName]Handler{
		greenhouse.EventReading:      HandleReading,
		greenhouse.EventAlertRaised:  HandleAlertRaised,
		greenhouse.EventAlertCleared: HandleAlertCleared,
		greenhouse.EventActuate:      HandleActuate,
		greenhouse.EventModeTick:     HandleModeTick,
	}
}

// HandleReading appends {sensor, value, ts} to readings.
func HandleReading(ev greenhouse.Event, s *Store) (*Store, error) {
	sensor, err := stringField(ev.Payload, "sensor")
	if err != nil {
		return nil, err
	}
	value, err := numberField(ev.Payload, "value")
	if err != nil {
		return nil, err
	}
	return s.WithReading(ReadingEntry{Sensor: sensor, Value: value, TS: ev.TS}), nil
}

// HandleAlertRaised sets alerts[id] = {msg, ts}, replacing any previous
// entry with the same id.
func HandleAlertRaised(ev greenhouse.Event, s *Store) (*Store, error) {
	id, err := stringField(ev.Payload, "id")
	if err != nil {
		return nil, err
	}
	msg, _ := ev.Payload["msg"].(string)
	return s.WithAlert(id, AlertEntry{Msg: msg, TS: ev.TS}), nil
}

// HandleAlertCleared removes alerts[id]. Unknown ids are a no-op.
func HandleAlertCleared(ev greenhouse.Event, s *Store) (*Store, error) {
	id, err := stringField(ev.Payload, "id")
	if err != nil {
		return nil, err
	}
	return s.WithoutAlert(id), nil
}

// HandleActuate appends {ts, device, action} to commands.
func HandleActuate(ev greenhouse.Event, s *Store) (*Store, error) {
	device, err := stringField(ev.Payload, "device")
	if err != nil {
		return nil, err
	}
	action, err := stringField(ev.Payload, "action")
	if err != nil {
		return nil, err
	}
	return s.WithCommand(CommandEntry{TS: ev.TS, Device: device, Action: action}), nil
}

// HandleModeTick replaces mode with {mode, ts}.
func HandleModeTick(ev greenhouse.Event, s *Store) (*Store, error) {
	mode, err := stringField(ev.Payload, "mode")
	if err != nil {
		return nil, err
	}
	return s.WithMode(ModeEntry{Mode: mode, TS: ev.TS}), nil
}

func stringField(p map[string]any, key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidPayload, key)
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case greenhouse.Action:
		return string(s), nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return "", fmt.Errorf("%w: %q is %T, want string", ErrInvalidPayload, key, v)
}

func numberField(p map[string]any, key string) (float64, error) {
	v, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrInvalidPayload, key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidPayload, key, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q is %T, want number", ErrInvalidPayload, key, v)
}

// ReadingPayload builds a READING payload.
func ReadingPayload(sensorID string, value float64) map[string]any {
	return map[string]any{"sensor": sensorID, "value": value}
}

// AlertRaisedPayload builds an ALERT_RAISED payload.
func AlertRaisedPayload(id, msg string) map[string]any {
	return map[string]any{"id": id, "msg": msg}
}

// AlertClearedPayload builds an ALERT_CLEARED payload.
func AlertClearedPayload(id string) map[string]any {
	return map[string]any{"id": id}
}

// ActuatePayload builds an ACTUATE payload from a command.
func ActuatePayload(cmd greenhouse.Command) map[string]any {
	return map[string]any{
		"device": cmd.ActuatorID,
		"action": string(cmd.Action),
		"reason": cmd.Payload.Reason,
		"value":  cmd.Payload.Value,
		"id":     cmd.ID,
	}
}

// ModeTickPayload builds a MODE_TICK payload.
func ModeTickPayload(mode string) map[string]any {
	return map[string]any{"mode": mode}
}
