package controller

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
)

// DefaultCooldown applies when a rule sets no cooldown.
const DefaultCooldown = 300 * time.Second

// Logger is the logging interface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// paramState is the hysteresis memory for one controlled parameter.
type paramState struct {
	last     greenhouse.Action // "" until the first transition
	lastTime time.Time
}

// Controller turns a stream of readings into a stream of commands.
type Controller struct {
	src      ReadingSource
	profile  greenhouse.PlantProfile
	rules    []greenhouse.Rule
	cooldown time.Duration
	devices  map[greenhouse.SensorKind]string
	logger   Logger

	state   map[greenhouse.SensorKind]*paramState
	pending []greenhouse.Command
	done    bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithDefaultCooldown sets the cooldown for rules that do not name one.
func WithDefaultCooldown(d time.Duration) Option {
	return func(c *Controller) {
		c.cooldown = d
	}
}

// WithDevices overrides the parameter to actuator mapping used when a rule
// names no device.
func WithDevices(devices map[greenhouse.SensorKind]string) Option {
	return func(c *Controller) {
		c.devices = devices
	}
}

// WithLogger sets the logger for transition debugging.
func WithLogger(l Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a controller pulling from src. Only rules whose kind drives
// the controller (hysteresis, range) are kept.
func New(src ReadingSource, profile greenhouse.PlantProfile, rules []greenhouse.Rule, opts ...Option) *Controller {
	c := &Controller{
		src:      src,
		profile:  profile,
		cooldown: DefaultCooldown,
		devices:  greenhouse.DefaultDevices,
		logger:   noopLogger{},
		state:    make(map[greenhouse.SensorKind]*paramState),
	}
	for _, r := range rules {
		if r.Kind.Controls() {
			c.rules = append(c.rules, r)
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Next returns the next command, pulling as many readings as needed.
// It returns false once the source is exhausted and every command derived
// from it has been returned.
func (c *Controller) Next() (greenhouse.Command, bool) {
	for len(c.pending) == 0 {
		if c.done {
			return greenhouse.Command{}, false
		}
		r, ok := c.src.Next()
		if !ok {
			c.done = true
			return greenhouse.Command{}, false
		}
		c.pending = c.step(r)
	}
	cmd := c.pending[0]
	c.pending = c.pending[1:]
	return cmd, true
}

// All returns the remaining commands as a single-use sequence. Ranging
// over it a second time yields nothing.
func (c *Controller) All() iter.Seq[greenhouse.Command] {
	return func(yield func(greenhouse.Command) bool) {
		for {
			cmd, ok := c.Next()
			if !ok || !yield(cmd) {
				return
			}
		}
	}
}

// step applies every matching rule to one reading. State is updated after
// each transition, so a second rule on the same parameter sees it.
func (c *Controller) step(r greenhouse.KindedReading) []greenhouse.Command {
	var out []greenhouse.Command
	for _, rule := range c.rules {
		if rule.Payload.Param != r.Kind {
			continue
		}

		st := c.state[r.Kind]
		if st == nil {
			st = &paramState{}
			c.state[r.Kind] = st
		}

		if st.last != "" && r.TS.Sub(st.lastTime) < c.cooldownFor(rule) {
			continue
		}

		cmd, ok := c.decide(rule, r.Value, r.TS)
		if !ok || cmd.Action == st.last {
			continue
		}

		st.last = cmd.Action
		st.lastTime = r.TS

		c.logger.Debug("hysteresis transition",
			"param", r.Kind,
			"action", cmd.Action,
			"reason", cmd.Payload.Reason,
			"value", r.Value,
		)
		out = append(out, cmd)
	}
	return out
}

func (c *Controller) cooldownFor(rule greenhouse.Rule) time.Duration {
	if rule.Payload.Cooldown != nil {
		return time.Duration(*rule.Payload.Cooldown) * time.Second
	}
	return c.cooldown
}

// bounds takes min and max from the rule, falling back to the profile.
func (c *Controller) bounds(rule greenhouse.Rule) (greenhouse.Range, bool) {
	band, ok := c.profile.Bounds(rule.Payload.Param)
	if !ok {
		return greenhouse.Range{}, false
	}
	if rule.Payload.Min != nil {
		band.Min = *rule.Payload.Min
	}
	if rule.Payload.Max != nil {
		band.Max = *rule.Payload.Max
	}
	return band, true
}

func (c *Controller) device(rule greenhouse.Rule) string {
	if rule.Payload.Device != "" {
		return rule.Payload.Device
	}
	if d, ok := c.devices[rule.Payload.Param]; ok {
		return d
	}
	return string(rule.Payload.Param)
}

// CommandID builds the deterministic command id {param}_{action}_{ts}.
func CommandID(param greenhouse.SensorKind, action greenhouse.Action, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%s", param, strings.ToLower(string(action)), greenhouse.FormatMinute(ts))
}
