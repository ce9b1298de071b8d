package controller

import (
	"context"
	"testing"
	"time"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
)

var t0 = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

func testProfile() greenhouse.PlantProfile {
	return greenhouse.PlantProfile{
		ID:           "tomato",
		TempRange:    greenhouse.Range{Min: 18, Max: 25},
		HumAirRange:  greenhouse.Range{Min: 50, Max: 70},
		HumSoilRange: greenhouse.Range{Min: 30, Max: 60},
		CO2Range:     greenhouse.Range{Min: 400, Max: 1000},
		LightMin:     200,
	}
}

func tempRule(cooldown *int) greenhouse.Rule {
	return greenhouse.Rule{
		ID:   "temp-hyst",
		Kind: greenhouse.RuleHysteresis,
		Payload: greenhouse.RulePayload{
			Param:    greenhouse.KindTemp,
			Min:      greenhouse.FloatPtr(18),
			Max:      greenhouse.FloatPtr(25),
			Cooldown: cooldown,
		},
	}
}

func intPtr(v int) *int { return &v }

func temp(offset time.Duration, v float64) greenhouse.KindedReading {
	return greenhouse.KindedReading{
		ID:       "r",
		SensorID: "t1",
		Kind:     greenhouse.KindTemp,
		Value:    v,
		TS:       t0.Add(offset),
	}
}

func collect(c *Controller) []greenhouse.Command {
	var out []greenhouse.Command
	for cmd := range c.All() {
		out = append(out, cmd)
	}
	return out
}

// ============================================================================
// Hysteresis
// ============================================================================

func TestController_NoRepeatedOn(t *testing.T) {
	readings := []greenhouse.KindedReading{
		temp(0, 15),
		temp(10*time.Minute, 15),
		temp(20*time.Minute, 14),
		temp(30*time.Minute, 16),
	}
	cmds := collect(New(FromSlice(readings), testProfile(), []greenhouse.Rule{tempRule(nil)}))

	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1: %+v", len(cmds), cmds)
	}
	cmd := cmds[0]
	if cmd.Action != greenhouse.ActionOn {
		t.Errorf("Action = %q, want ON", cmd.Action)
	}
	if cmd.Payload.Reason != "below_min" || cmd.Payload.Value != 15 {
		t.Errorf("Payload = %+v, want below_min 15", cmd.Payload)
	}
	if cmd.ID != "temp_on_2026-10-01 08:00" {
		t.Errorf("ID = %q, want %q", cmd.ID, "temp_on_2026-10-01 08:00")
	}
	if cmd.ActuatorID != "heater" {
		t.Errorf("ActuatorID = %q, want heater", cmd.ActuatorID)
	}
}

func TestController_InBandNoCommand(t *testing.T) {
	readings := []greenhouse.KindedReading{temp(0, 18), temp(time.Hour, 21), temp(2*time.Hour, 25)}
	if cmds := collect(New(FromSlice(readings), testProfile(), []greenhouse.Rule{tempRule(nil)})); len(cmds) != 0 {
		t.Errorf("got %+v, want no commands", cmds)
	}
}

func TestController_OnThenOff(t *testing.T) {
	readings := []greenhouse.KindedReading{
		temp(0, 15),
		temp(time.Hour, 21),
		temp(2*time.Hour, 30),
		temp(3*time.Hour, 31),
		temp(4*time.Hour, 10),
	}
	cmds := collect(New(FromSlice(readings), testProfile(), []greenhouse.Rule{tempRule(nil)}))

	want := []struct {
		action greenhouse.Action
		reason string
	}{
		{greenhouse.ActionOn, "below_min"},
		{greenhouse.ActionOff, "above_max"},
		{greenhouse.ActionOn, "below_min"},
	}
	if len(cmds) != len(want) {
		t.Fatalf("got %d commands, want %d: %+v", len(cmds), len(want), cmds)
	}
	for i, w := range want {
		if cmds[i].Action != w.action || cmds[i].Payload.Reason != w.reason {
			t.Errorf("cmds[%d] = %s/%s, want %s/%s", i, cmds[i].Action, cmds[i].Payload.Reason, w.action, w.reason)
		}
	}
}

// ============================================================================
// Cooldown
// ============================================================================

func TestController_Cooldown(t *testing.T) {
	tests := []struct {
		name     string
		cooldown *int
		gap      time.Duration
		want     int
	}{
		{"default cooldown suppresses", nil, 2 * time.Minute, 1},
		{"default cooldown elapsed", nil, 5 * time.Minute, 2},
		{"rule cooldown suppresses", intPtr(600), 9 * time.Minute, 1},
		{"rule cooldown elapsed", intPtr(600), 10 * time.Minute, 2},
		{"zero cooldown", intPtr(0), time.Second, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readings := []greenhouse.KindedReading{temp(0, 15), temp(tt.gap, 30)}
			cmds := collect(New(FromSlice(readings), testProfile(), []greenhouse.Rule{tempRule(tt.cooldown)}))
			if len(cmds) != tt.want {
				t.Errorf("got %d commands, want %d", len(cmds), tt.want)
			}
		})
	}
}

func TestController_WithDefaultCooldown(t *testing.T) {
	readings := []greenhouse.KindedReading{temp(0, 15), temp(2*time.Minute, 30)}
	c := New(FromSlice(readings), testProfile(), []greenhouse.Rule{tempRule(nil)}, WithDefaultCooldown(time.Minute))
	if cmds := collect(c); len(cmds) != 2 {
		t.Errorf("got %d commands, want 2", len(cmds))
	}
}

// ============================================================================
// Rules
// ============================================================================

func TestController_RuleSelection(t *testing.T) {
	rules := []greenhouse.Rule{
		{ID: "stale", Kind: greenhouse.RuleStale, Payload: greenhouse.RulePayload{Param: greenhouse.KindTemp, MaxAge: 60}},
		{ID: "soil", Kind: greenhouse.RuleRange, Payload: greenhouse.RulePayload{Param: greenhouse.KindHumSoil, Device: "pump-2"}},
	}
	readings := []greenhouse.KindedReading{
		temp(0, 5),
		{ID: "r2", SensorID: "s1", Kind: greenhouse.KindHumSoil, Value: 10, TS: t0},
	}
	cmds := collect(New(FromSlice(readings), testProfile(), rules))

	if len(cmds) != 1 {
		t.Fatalf("got %+v, want one soil command", cmds)
	}
	if cmds[0].ActuatorID != "pump-2" {
		t.Errorf("ActuatorID = %q, want pump-2", cmds[0].ActuatorID)
	}
	if cmds[0].ID != "hum_soil_on_2026-10-01 08:00" {
		t.Errorf("ID = %q", cmds[0].ID)
	}
}

func TestController_ProfileBoundsFallback(t *testing.T) {
	rule := greenhouse.Rule{ID: "light", Kind: greenhouse.RuleHysteresis, Payload: greenhouse.RulePayload{Param: greenhouse.KindLight}}
	readings := []greenhouse.KindedReading{
		{Kind: greenhouse.KindLight, Value: 50, TS: t0},
		{Kind: greenhouse.KindLight, Value: 1e6, TS: t0.Add(time.Hour)},
	}
	cmds := collect(New(FromSlice(readings), testProfile(), []greenhouse.Rule{rule}))
	if len(cmds) != 1 || cmds[0].Action != greenhouse.ActionOn || cmds[0].ActuatorID != "lamp" {
		t.Errorf("got %+v, want single lamp ON", cmds)
	}
}

func TestController_TwoRulesShareState(t *testing.T) {
	second := tempRule(nil)
	second.ID = "temp-backup"
	second.Payload.Device = "heater-2"

	cmds := collect(New(FromSlice([]greenhouse.KindedReading{temp(0, 10)}), testProfile(),
		[]greenhouse.Rule{tempRule(nil), second}))
	if len(cmds) != 1 {
		t.Errorf("got %d commands, want 1 (second rule sees updated state)", len(cmds))
	}
}

// ============================================================================
// Stream contract
// ============================================================================

type countingSource struct {
	readings []greenhouse.KindedReading
	pulled   int
}

func (s *countingSource) Next() (greenhouse.KindedReading, bool) {
	if s.pulled >= len(s.readings) {
		return greenhouse.KindedReading{}, false
	}
	r := s.readings[s.pulled]
	s.pulled++
	return r, true
}

func TestController_Lazy(t *testing.T) {
	src := &countingSource{readings: []greenhouse.KindedReading{
		temp(0, 15),
		temp(time.Hour, 20),
		temp(2*time.Hour, 30),
		temp(3*time.Hour, 20),
	}}
	c := New(src, testProfile(), []greenhouse.Rule{tempRule(nil)})

	if _, ok := c.Next(); !ok {
		t.Fatal("Next() = false, want first command")
	}
	if src.pulled != 1 {
		t.Errorf("pulled %d readings for first command, want 1", src.pulled)
	}

	if _, ok := c.Next(); !ok {
		t.Fatal("Next() = false, want second command")
	}
	if src.pulled != 3 {
		t.Errorf("pulled %d readings for second command, want 3", src.pulled)
	}
}

func TestController_OneShot(t *testing.T) {
	c := New(FromSlice([]greenhouse.KindedReading{temp(0, 15)}), testProfile(), []greenhouse.Rule{tempRule(nil)})

	if n := len(collect(c)); n != 1 {
		t.Fatalf("first pass got %d commands, want 1", n)
	}
	if n := len(collect(c)); n != 0 {
		t.Errorf("second pass got %d commands, want 0", n)
	}
	if _, ok := c.Next(); ok {
		t.Error("Next() after exhaustion = true, want false")
	}
}

func TestController_EarlyBreak(t *testing.T) {
	readings := []greenhouse.KindedReading{temp(0, 15), temp(time.Hour, 30), temp(2*time.Hour, 10)}
	c := New(FromSlice(readings), testProfile(), []greenhouse.Rule{tempRule(nil)})

	for range c.All() {
		break
	}
	if rest := collect(c); len(rest) != 2 {
		t.Errorf("after break got %d commands, want 2", len(rest))
	}
}

func TestFromChannel(t *testing.T) {
	ch := make(chan greenhouse.KindedReading, 2)
	ch <- temp(0, 15)
	ch <- temp(time.Hour, 30)
	close(ch)

	cmds := collect(New(FromChannel(context.Background(), ch), testProfile(), []greenhouse.Rule{tempRule(nil)}))
	if len(cmds) != 2 {
		t.Errorf("got %d commands, want 2", len(cmds))
	}
}

func TestFromChannel_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := FromChannel(ctx, make(chan greenhouse.KindedReading))
	if _, ok := src.Next(); ok {
		t.Error("Next() on cancelled source = true, want false")
	}
}

func TestFromChannel_DrainsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan greenhouse.KindedReading, 2)
	ch <- temp(0, 15)
	ch <- temp(time.Hour, 30)
	cancel()

	cmds := collect(New(FromChannel(ctx, ch), testProfile(), []greenhouse.Rule{tempRule(nil)}))
	if len(cmds) != 2 {
		t.Errorf("got %d commands after cancel, want 2", len(cmds))
	}
}

// ============================================================================
// SnapshotCommands
// ============================================================================

func TestSnapshotCommands(t *testing.T) {
	rules := []greenhouse.Rule{tempRule(nil)}
	snap := greenhouse.Snapshot{
		greenhouse.KindTemp:    15,
		greenhouse.KindHumSoil: 80,
		greenhouse.KindCO2:     600,
		greenhouse.KindLight:   100,
	}

	cmds := SnapshotCommands(testProfile(), rules, snap, t0)

	want := []struct {
		actuator string
		action   greenhouse.Action
	}{
		{"heater", greenhouse.ActionOn},
		{"pump", greenhouse.ActionOff},
		{"lamp", greenhouse.ActionOn},
	}
	if len(cmds) != len(want) {
		t.Fatalf("got %d commands, want %d: %+v", len(cmds), len(want), cmds)
	}
	for i, w := range want {
		if cmds[i].ActuatorID != w.actuator || cmds[i].Action != w.action {
			t.Errorf("cmds[%d] = %s %s, want %s %s", i, cmds[i].ActuatorID, cmds[i].Action, w.actuator, w.action)
		}
	}
}

func TestSnapshotCommands_Empty(t *testing.T) {
	if cmds := SnapshotCommands(testProfile(), nil, greenhouse.Snapshot{}, t0); len(cmds) != 0 {
		t.Errorf("got %+v, want none", cmds)
	}
}
