package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
)

// Transition says whether an alert was raised or cleared.
type Transition string

const (
	TransitionRaised  Transition = "raised"
	TransitionCleared Transition = "cleared"
)

// AlertTransition is one change emitted by AlertTracker.
type AlertTransition struct {
	Transition Transition       `json:"transition"`
	Alert      greenhouse.Alert `json:"alert"`
}

// AlertTracker follows one zone and remembers which alerts are active.
// A parameter above its band raises {PARAM}_HIGH, below raises {PARAM}_LOW;
// when the value returns inside the band the same alert id is cleared.
//
// Thread Safety:
//   - Not safe for concurrent use. Owners serialise calls per zone.
type AlertTracker struct {
	zoneID  string
	profile greenhouse.PlantProfile
	active  map[string]greenhouse.Alert // keyed by alert id
}

// NewAlertTracker creates a tracker for one zone.
func NewAlertTracker(zoneID string, profile greenhouse.PlantProfile) *AlertTracker {
	return &AlertTracker{
		zoneID:  zoneID,
		profile: profile,
		active:  make(map[string]greenhouse.Alert),
	}
}

// SetProfile swaps the profile checked against. Active alerts are kept and
// re-evaluated on the next Evaluate.
func (t *AlertTracker) SetProfile(profile greenhouse.PlantProfile) {
	t.profile = profile
}

// Evaluate compares the snapshot with the profile and returns the raises
// and clears since the previous call, in greenhouse.AlertOrder.
func (t *AlertTracker) Evaluate(snapshot greenhouse.Snapshot, ts time.Time) []AlertTransition {
	var out []AlertTransition
	for _, param := range greenhouse.AlertOrder {
		v, ok := snapshot[param]
		if !ok {
			continue
		}
		band, ok := t.profile.Bounds(param)
		if !ok {
			continue
		}

		highCode, lowCode := alertCode(param, "HIGH"), alertCode(param, "LOW")
		high := greenhouse.AlertID(highCode, t.zoneID)
		low := greenhouse.AlertID(lowCode, t.zoneID)

		var want, code string
		switch {
		case v > band.Max:
			want, code = high, highCode
		case v < band.Min:
			want, code = low, lowCode
		}

		for _, id := range []string{high, low} {
			if prev, ok := t.active[id]; ok && id != want {
				delete(t.active, id)
				cleared := prev
				cleared.TS = ts
				cleared.Severity = greenhouse.SeverityInfo
				cleared.Message = fmt.Sprintf("%s back within %s", param, band)
				out = append(out, AlertTransition{Transition: TransitionCleared, Alert: cleared})
			}
		}

		if want == "" {
			continue
		}
		if _, ok := t.active[want]; ok {
			continue
		}
		a := greenhouse.Alert{
			ID:       want,
			ZoneID:   greenhouse.StrPtr(t.zoneID),
			TS:       ts,
			Code:     code,
			Severity: greenhouse.SeverityWarning,
			Message:  fmt.Sprintf("%s %g outside %s", param, v, band),
		}
		t.active[want] = a
		out = append(out, AlertTransition{Transition: TransitionRaised, Alert: a})
	}
	return out
}

// Active returns the alerts currently raised, in no particular order.
func (t *AlertTracker) Active() []greenhouse.Alert {
	out := make([]greenhouse.Alert, 0, len(t.active))
	for _, a := range t.active {
		out = append(out, a)
	}
	return out
}

func alertCode(param greenhouse.SensorKind, side string) string {
	return strings.ToUpper(string(param)) + "_" + side
}
