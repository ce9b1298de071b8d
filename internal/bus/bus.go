package bus

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
)

// Handler derives a new store from an event and the current store.
// It must not modify the store it receives.
type Handler func(ev greenhouse.Event, s *Store) (*Store, error)

// Observer is notified after a successful publish with the event and the
// store it produced.
type Observer func(ev greenhouse.Event, s *Store)

// Logger is the logging interface used by the bus.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Bus dispatches events to handlers and owns the store.
//
// Thread Safety:
//   - Publish, Subscribe, Observe and Store are safe for concurrent use.
//   - Publishes never interleave; handlers run one at a time.
type Bus struct {
	mu        sync.Mutex
	handlers  map[greenhouse.EventName][]Handler
	observers []Observer
	store     *Store
	clock     func() time.Time
	logger    Logger
}

// Option configures a Bus.
type Option func(*busOptions)

type busOptions struct {
	clock      func() time.Time
	logger     Logger
	maxEntries int
}

// WithClock sets the clock used to timestamp events.
func WithClock(clock func() time.Time) Option {
	return func(o *busOptions) {
		o.clock = clock
	}
}

// WithLogger sets the bus logger.
func WithLogger(l Logger) Option {
	return func(o *busOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxEntries caps the readings and commands lists of the store,
// dropping the oldest entry first. The default of 0 keeps every entry.
func WithMaxEntries(n int) Option {
	return func(o *busOptions) {
		o.maxEntries = n
	}
}

// New creates a bus with no handlers and an empty store.
func New(opts ...Option) *Bus {
	o := busOptions{
		clock:  time.Now,
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Bus{
		handlers: make(map[greenhouse.EventName][]Handler),
		store:    NewStore(o.maxEntries),
		clock:    o.clock,
		logger:   o.logger,
	}
}

// NewWithBuiltins creates a bus with the built-in handler registered on
// each built-in topic.
func NewWithBuiltins(opts ...Option) *Bus {
	b := New(opts...)
	for name, h := range Builtins() {
		b.handlers[name] = append(b.handlers[name], h)
	}
	return b
}

// Subscribe appends h to the handlers of topic name.
func (b *Bus) Subscribe(name greenhouse.EventName, h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
	return nil
}

// Observe registers an observer for every successful publish.
func (b *Bus) Observe(o Observer) {
	if o == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

// Store returns the current store. The returned store is never modified
// by the bus.
func (b *Bus) Store() *Store {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store
}

// Publish builds an event and runs the topic handlers over the store.
//
// Parameters:
//   - name: Topic to publish on
//   - payload: Event payload; handlers read their fields from it
//
// Returns:
//   - greenhouse.Event: The published event
//   - error: ErrInvalidHandlerResult or the handler's own error; the store
//     is left unchanged in both cases
func (b *Bus) Publish(name greenhouse.EventName, payload map[string]any) (greenhouse.Event, error) {
	ev, store, observers, err := b.apply(name, payload)
	if err != nil {
		return ev, err
	}

	b.logger.Debug("event published", "event", name, "id", ev.ID)
	for _, o := range observers {
		o(ev, store)
	}
	return ev, nil
}

// apply runs the handlers of name under the bus lock and swaps in the new
// store only when every handler succeeded.
func (b *Bus) apply(name greenhouse.EventName, payload map[string]any) (greenhouse.Event, *Store, []Observer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ev := NewEvent(name, b.clock(), payload)

	current := b.store
	for i, h := range b.handlers[name] {
		next, err := h(ev, current)
		if err != nil {
			b.logger.Warn("bus handler failed", "event", name, "handler", i, "error", err)
			return ev, nil, nil, fmt.Errorf("handling %s (handler %d): %w", name, i, err)
		}
		if next == nil {
			return ev, nil, nil, fmt.Errorf("handling %s (handler %d): %w", name, i, ErrInvalidHandlerResult)
		}
		current = next
	}
	b.store = current
	return ev, current, b.observers, nil
}

// NewEvent builds an event stamped at ts (truncated to the second) with
// id lower(name)_ts.
func NewEvent(name greenhouse.EventName, ts time.Time, payload map[string]any) greenhouse.Event {
	stamp := ts.Format(greenhouse.EventLayout)
	if payload == nil {
		payload = map[string]any{}
	}
	return greenhouse.Event{
		ID:      strings.ToLower(string(name)) + "_" + stamp,
		TS:      stamp,
		Name:    name,
		Payload: payload,
	}
}
