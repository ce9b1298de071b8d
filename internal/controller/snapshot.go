package controller

import (
	"time"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
)

// SnapshotCommands decides the commands one snapshot calls for, without
// memory: ON for every controlled parameter below its band, OFF for every
// one above. Parameters are visited in greenhouse.AllSensorKinds order and
// rules in catalog order. Parameters without a controlling rule use the
// profile band and the default device.
func SnapshotCommands(profile greenhouse.PlantProfile, rules []greenhouse.Rule, snapshot greenhouse.Snapshot, ts time.Time) []greenhouse.Command {
	c := New(nil, profile, rules)

	var out []greenhouse.Command
	for _, kind := range greenhouse.AllSensorKinds() {
		v, ok := snapshot[kind]
		if !ok {
			continue
		}

		matched := false
		for _, rule := range c.rules {
			if rule.Payload.Param != kind {
				continue
			}
			matched = true
			if cmd, ok := c.decide(rule, v, ts); ok {
				out = append(out, cmd)
			}
		}
		if !matched {
			rule := greenhouse.Rule{Kind: greenhouse.RuleRange, Payload: greenhouse.RulePayload{Param: kind}}
			if cmd, ok := c.decide(rule, v, ts); ok {
				out = append(out, cmd)
			}
		}
	}
	return out
}

func (c *Controller) decide(rule greenhouse.Rule, v float64, ts time.Time) (greenhouse.Command, bool) {
	band, ok := c.bounds(rule)
	if !ok {
		return greenhouse.Command{}, false
	}

	var action greenhouse.Action
	var reason string
	switch {
	case v < band.Min:
		action, reason = greenhouse.ActionOn, "below_min"
	case v > band.Max:
		action, reason = greenhouse.ActionOff, "above_max"
	default:
		return greenhouse.Command{}, false
	}

	return greenhouse.Command{
		ID:         CommandID(rule.Payload.Param, action, ts),
		ActuatorID: c.device(rule),
		TS:         ts,
		Action:     action,
		Payload:    greenhouse.CommandPayload{Reason: reason, Value: v},
	}, true
}
