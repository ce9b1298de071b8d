package control

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/greenhouse-core/internal/bus"
	"github.com/nerrad567/greenhouse-core/internal/controller"
	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/greenhouse-core/internal/simulation"
	"github.com/nerrad567/greenhouse-core/internal/validation"
)

const (
	// DefaultTickInterval is the MODE_TICK period when none is configured.
	DefaultTickInterval = time.Minute

	// zoneQueueSize bounds the readings waiting for a zone controller.
	zoneQueueSize = 64
)

// Catalog provides the dataset the service works from.
type Catalog interface {
	Dataset() greenhouse.Dataset
}

// MQTTClient is the subset of the MQTT client the service needs.
type MQTTClient interface {
	PublishJSON(topic string, v any, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Telemetry writes time-series points (InfluxDB).
type Telemetry interface {
	WriteReading(zoneID, sensorID, kind string, value float64, ts time.Time)
	WriteCommand(actuatorID, action, reason string, value float64, ts time.Time)
}

// History persists readings, commands and alert transitions.
type History interface {
	InsertReadings(ctx context.Context, readings []greenhouse.Reading) error
	RecordCommand(ctx context.Context, cmd greenhouse.Command) error
	RecordAlert(ctx context.Context, transition string, alert greenhouse.Alert) error
}

// Metrics records control loop counters.
type Metrics interface {
	ReadingProcessed(status string)
	CommandEmitted(cmd greenhouse.Command)
	AlertTransition(code, transition string)
}

// Logger is the logging interface used by the service.
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

type noopMetrics struct{}

func (noopMetrics) ReadingProcessed(string)           {}
func (noopMetrics) CommandEmitted(greenhouse.Command) {}
func (noopMetrics) AlertTransition(string, string)    {}

// zone is the live state of one zone: the running snapshot, the alert
// tracker and the queue feeding its controller goroutine.
type zone struct {
	id string

	mu       sync.Mutex
	snapshot greenhouse.Snapshot
	tracker  *validation.AlertTracker
	queue    chan greenhouse.KindedReading
}

// Service is the online control loop.
//
// Every reading is published on the bus, written to telemetry and history,
// checked against the zone profile and fed to the zone's long-lived
// hysteresis controller. Emitted commands are published as ACTUATE and sent
// to the actuator's MQTT topic. Alert raises and clears are tracked per
// zone over the running snapshot.
//
// Thread Safety:
//   - HandleReading, Tick and the accessors are safe for concurrent use.
//   - Readings of one zone are applied, and their alert transitions
//     published, in call order.
type Service struct {
	bus       *bus.Bus
	catalog   Catalog
	mqtt      MQTTClient
	telemetry Telemetry
	history   History
	metrics   Metrics
	logger    Logger

	qos          byte
	cooldown     time.Duration
	tickInterval time.Duration
	now          func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	zones map[string]*zone
}

// Option configures a Service.
type Option func(*Service)

// WithMQTT sets the MQTT client for ingest, commands and alerts.
func WithMQTT(c MQTTClient, qos byte) Option {
	return func(s *Service) {
		s.mqtt = c
		s.qos = qos
	}
}

// WithTelemetry sets the time-series writer.
func WithTelemetry(t Telemetry) Option {
	return func(s *Service) {
		s.telemetry = t
	}
}

// WithHistory sets the history store.
func WithHistory(h History) Option {
	return func(s *Service) {
		s.history = h
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultCooldown sets the cooldown for rules that do not name one.
func WithDefaultCooldown(d time.Duration) Option {
	return func(s *Service) {
		s.cooldown = d
	}
}

// WithTickInterval sets the MODE_TICK period.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithClock overrides the clock used for mode ticks and for readings that
// arrive without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a control service.
//
// Parameters:
//   - b: Event bus the service publishes READING, ACTUATE, ALERT_* and MODE_TICK on
//   - catalog: Source of the dataset (normally a *catalog.Registry)
//   - opts: Optional sinks and tuning
func New(b *bus.Bus, catalog Catalog, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		bus:          b,
		catalog:      catalog,
		metrics:      noopMetrics{},
		logger:       noopLogger{},
		qos:          1,
		cooldown:     controller.DefaultCooldown,
		tickInterval: DefaultTickInterval,
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
		zones:        make(map[string]*zone),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleReading runs one reading through the control loop.
//
// Parameters:
//   - ctx: Context for history writes and for waiting on a full zone queue
//   - r: The reading; an empty ID is replaced with a random UUID
//
// Returns:
//   - validation.Outcome: The verdict for the reading (status error for an
//     unknown sensor)
//   - error: ErrClosed after Close, ErrNoProfile when the catalog has no
//     profile, a bus error, or ctx.Err()
func (s *Service) HandleReading(ctx context.Context, r greenhouse.Reading) (validation.Outcome, error) { //nolint:gocognit // one pass over every sink
	if s.ctx.Err() != nil {
		return validation.Outcome{}, ErrClosed
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.TS.IsZero() {
		r.TS = s.now().UTC()
	}

	ds := s.catalog.Dataset()
	sensor, ok := ds.Sensor(r.SensorID)
	if !ok {
		out := validation.ProcessReading(r, ds.Sensors, nil, greenhouse.PlantProfile{})
		s.metrics.ReadingProcessed(string(out.Status))
		s.logger.Warn("reading from unknown sensor", "sensor", r.SensorID, "id", r.ID)
		return out, nil
	}

	zoneID := simulation.UnassignedZone
	if sensor.ZoneID != nil {
		zoneID = *sensor.ZoneID
	}
	profile, ok := ds.ProfileForZone(zoneID)
	if !ok {
		return validation.Outcome{}, fmt.Errorf("zone %s: %w", zoneID, ErrNoProfile)
	}

	if r.Value != nil {
		if _, err := s.bus.Publish(greenhouse.EventReading, bus.ReadingPayload(r.SensorID, *r.Value)); err != nil {
			return validation.Outcome{}, fmt.Errorf("publishing reading: %w", err)
		}
		if s.telemetry != nil {
			s.telemetry.WriteReading(zoneID, r.SensorID, string(sensor.Kind), *r.Value, r.TS)
		}
	}
	if s.history != nil {
		if err := s.history.InsertReadings(ctx, []greenhouse.Reading{r}); err != nil {
			s.logger.Warn("failed to store reading", "id", r.ID, "error", err)
		}
	}

	z, err := s.zone(zoneID, profile, ds.Rules)
	if err != nil {
		return validation.Outcome{}, err
	}

	// Alert transitions are published before the zone lock is released so
	// the bus sees raises and clears in the order the tracker computed them.
	z.mu.Lock()
	defer z.mu.Unlock()

	if r.Value != nil {
		z.snapshot[sensor.Kind] = *r.Value
	}
	out := validation.ProcessReading(r, ds.Sensors, maps.Clone(z.snapshot), profile)
	z.tracker.SetProfile(profile)
	for _, tr := range z.tracker.Evaluate(z.snapshot, r.TS) {
		s.publishTransition(ctx, zoneID, tr)
	}

	if r.Value != nil {
		kinded := greenhouse.KindedReading{ID: r.ID, SensorID: r.SensorID, Kind: sensor.Kind, Value: *r.Value, TS: r.TS}
		select {
		case z.queue <- kinded:
		case <-ctx.Done():
			return out, ctx.Err()
		case <-s.ctx.Done():
			return out, ErrClosed
		}
	}

	s.metrics.ReadingProcessed(string(out.Status))
	s.logger.Debug("reading processed",
		"sensor", r.SensorID,
		"zone", zoneID,
		"status", out.Status,
	)
	return out, nil
}

// publishTransition sends one alert raise or clear to every sink.
func (s *Service) publishTransition(ctx context.Context, zoneID string, tr validation.AlertTransition) {
	name := greenhouse.EventAlertRaised
	payload := bus.AlertRaisedPayload(tr.Alert.ID, tr.Alert.Message)
	if tr.Transition == validation.TransitionCleared {
		name = greenhouse.EventAlertCleared
		payload = bus.AlertClearedPayload(tr.Alert.ID)
	}

	if _, err := s.bus.Publish(name, payload); err != nil {
		s.logger.Error("failed to publish alert", "alert", tr.Alert.ID, "error", err)
	}
	if s.mqtt != nil {
		if err := s.mqtt.PublishJSON(mqtt.Topics{}.ZoneAlert(zoneID), tr, false); err != nil {
			s.logger.Warn("failed to send alert over MQTT", "alert", tr.Alert.ID, "error", err)
		}
	}
	if s.history != nil {
		if err := s.history.RecordAlert(ctx, string(tr.Transition), tr.Alert); err != nil {
			s.logger.Warn("failed to record alert", "alert", tr.Alert.ID, "error", err)
		}
	}
	s.metrics.AlertTransition(tr.Alert.Code, string(tr.Transition))
	s.logger.Info("alert "+string(tr.Transition), "alert", tr.Alert.ID, "zone", zoneID)
}

// zone returns the live state of zoneID, starting its controller on first
// use.
func (s *Service) zone(zoneID string, profile greenhouse.PlantProfile, rules []greenhouse.Rule) (*zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return nil, ErrClosed
	}
	if z, ok := s.zones[zoneID]; ok {
		return z, nil
	}

	z := &zone{
		id:       zoneID,
		snapshot: make(greenhouse.Snapshot),
		tracker:  validation.NewAlertTracker(zoneID, profile),
		queue:    make(chan greenhouse.KindedReading, zoneQueueSize),
	}
	ctrl := controller.New(controller.FromChannel(s.ctx, z.queue), profile, rules,
		controller.WithDefaultCooldown(s.cooldown),
		controller.WithLogger(s.logger),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for cmd := range ctrl.All() {
			s.dispatch(zoneID, cmd)
		}
	}()

	s.zones[zoneID] = z
	s.logger.Info("zone controller started", "zone", zoneID, "profile", profile.ID)
	return z, nil
}

// dispatch sends one emitted command to every sink.
func (s *Service) dispatch(zoneID string, cmd greenhouse.Command) {
	if _, err := s.bus.Publish(greenhouse.EventActuate, bus.ActuatePayload(cmd)); err != nil {
		s.logger.Error("failed to publish command", "command", cmd.ID, "error", err)
	}
	if s.mqtt != nil {
		if err := s.mqtt.PublishJSON(mqtt.Topics{}.ActuatorCommand(cmd.ActuatorID), cmd, false); err != nil {
			s.logger.Warn("failed to send command over MQTT", "command", cmd.ID, "error", err)
		}
	}
	if s.telemetry != nil {
		s.telemetry.WriteCommand(cmd.ActuatorID, string(cmd.Action), cmd.Payload.Reason, cmd.Payload.Value, cmd.TS)
	}
	if s.history != nil {
		if err := s.history.RecordCommand(context.WithoutCancel(s.ctx), cmd); err != nil {
			s.logger.Warn("failed to record command", "command", cmd.ID, "error", err)
		}
	}
	s.metrics.CommandEmitted(cmd)
	s.logger.Info("command emitted",
		"zone", zoneID,
		"actuator", cmd.ActuatorID,
		"action", cmd.Action,
		"reason", cmd.Payload.Reason,
	)
}

// Tick publishes MODE_TICK for every mode whose schedule covers now. A
// mode without a schedule is always active.
//
// Returns:
//   - []string: IDs of the modes ticked, in catalog order
func (s *Service) Tick(now time.Time) []string {
	var ticked []string
	for _, m := range s.catalog.Dataset().Modes {
		if len(m.Schedule) > 0 && !greenhouse.Active(m.Schedule, now) {
			continue
		}
		payload := bus.ModeTickPayload(m.ID)
		payload["zone"] = m.ZoneID
		payload["profile"] = m.ProfileID
		if _, err := s.bus.Publish(greenhouse.EventModeTick, payload); err != nil {
			s.logger.Error("failed to publish mode tick", "mode", m.ID, "error", err)
			continue
		}
		ticked = append(ticked, m.ID)
	}
	return ticked
}

// Run subscribes to sensor readings over MQTT (when configured) and ticks
// modes until ctx is cancelled, then closes the service.
func (s *Service) Run(ctx context.Context) error {
	topic := mqtt.Topics{}.AllSensorReadings()
	if s.mqtt != nil {
		if err := s.mqtt.Subscribe(topic, s.qos, s.handleMessage); err != nil {
			return fmt.Errorf("subscribing to readings: %w", err)
		}
		s.logger.Info("subscribed to sensor readings", "topic", topic)
	}

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.mqtt != nil {
				if err := s.mqtt.Unsubscribe(topic); err != nil {
					s.logger.Warn("failed to unsubscribe", "topic", topic, "error", err)
				}
			}
			s.Close()
			return nil
		case <-ticker.C:
			s.Tick(s.now())
		}
	}
}

// readingMessage is the JSON body a field gateway publishes.
type readingMessage struct {
	ID    string   `json:"id"`
	TS    string   `json:"ts"`
	Value *float64 `json:"value"`
}

// handleMessage decodes a reading published on greenhouse/sensor/{id}/reading.
func (s *Service) handleMessage(topic string, payload []byte) error {
	r, err := s.decodeReading(topic, payload)
	if err != nil {
		return err
	}
	_, err = s.HandleReading(s.ctx, r)
	return err
}

func (s *Service) decodeReading(topic string, payload []byte) (greenhouse.Reading, error) {
	sensorID, ok := mqtt.SensorIDFromTopic(topic)
	if !ok {
		return greenhouse.Reading{}, fmt.Errorf("%w: topic %q", ErrInvalidMessage, topic)
	}

	var msg readingMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return greenhouse.Reading{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	r := greenhouse.Reading{ID: msg.ID, SensorID: sensorID, Value: msg.Value}
	if msg.TS != "" {
		ts, err := greenhouse.ParseTimestamp(msg.TS)
		if err != nil {
			return greenhouse.Reading{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
		}
		r.TS = ts
	}
	return r, nil
}

// Snapshot returns a copy of the running snapshot of a zone.
func (s *Service) Snapshot(zoneID string) (greenhouse.Snapshot, bool) {
	s.mu.Lock()
	z, ok := s.zones[zoneID]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	z.mu.Lock()
	defer z.mu.Unlock()
	return maps.Clone(z.snapshot), true
}

// ActiveAlerts returns the alerts currently raised in a zone.
func (s *Service) ActiveAlerts(zoneID string) []greenhouse.Alert {
	s.mu.Lock()
	z, ok := s.zones[zoneID]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	z.mu.Lock()
	defer z.mu.Unlock()
	return z.tracker.Active()
}

// Close stops every zone controller and waits for in-flight commands to be
// dispatched. HandleReading returns ErrClosed afterwards.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}
