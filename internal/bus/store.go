package bus

import (
	"maps"
	"slices"
)

// ReadingEntry is one READING recorded in the store.
type ReadingEntry struct {
	Sensor string  `json:"sensor"`
	Value  float64 `json:"value"`
	TS     string  `json:"ts"`
}

// AlertEntry is one active alert.
type AlertEntry struct {
	Msg string `json:"msg"`
	TS  string `json:"ts"`
}

// CommandEntry is one ACTUATE recorded in the store.
type CommandEntry struct {
	TS     string `json:"ts"`
	Device string `json:"device"`
	Action string `json:"action"`
}

// ModeEntry is the latest MODE_TICK.
type ModeEntry struct {
	Mode string `json:"mode"`
	TS   string `json:"ts"`
}

// Store is the bus state. A Store is immutable once published; derive
// new stores with the With* helpers.
type Store struct {
	Readings []ReadingEntry        `json:"readings"`
	Alerts   map[string]AlertEntry `json:"alerts"`
	Commands []CommandEntry        `json:"commands"`
	Mode     *ModeEntry            `json:"mode"`
	Extra    map[string]any        `json:"extra,omitempty"`

	maxEntries int
}

// NewStore returns an empty store. maxEntries caps the readings and
// commands lists (oldest dropped first); 0 means no cap.
func NewStore(maxEntries int) *Store {
	return &Store{
		Readings:   []ReadingEntry{},
		Alerts:     map[string]AlertEntry{},
		Commands:   []CommandEntry{},
		maxEntries: maxEntries,
	}
}

// Clone returns a shallow copy with its own slices and maps.
func (s *Store) Clone() *Store {
	c := *s
	c.Readings = slices.Clone(s.Readings)
	c.Commands = slices.Clone(s.Commands)
	c.Alerts = maps.Clone(s.Alerts)
	if c.Alerts == nil {
		c.Alerts = map[string]AlertEntry{}
	}
	if s.Extra != nil {
		c.Extra = maps.Clone(s.Extra)
	}
	if s.Mode != nil {
		m := *s.Mode
		c.Mode = &m
	}
	return &c
}

// WithReading returns a copy with e appended to Readings.
func (s *Store) WithReading(e ReadingEntry) *Store {
	c := *s
	c.Readings = appendCapped(s.Readings, e, s.maxEntries)
	return &c
}

// WithCommand returns a copy with e appended to Commands.
func (s *Store) WithCommand(e CommandEntry) *Store {
	c := *s
	c.Commands = appendCapped(s.Commands, e, s.maxEntries)
	return &c
}

// WithAlert returns a copy with alerts[id] set to e.
func (s *Store) WithAlert(id string, e AlertEntry) *Store {
	c := *s
	c.Alerts = maps.Clone(s.Alerts)
	if c.Alerts == nil {
		c.Alerts = map[string]AlertEntry{}
	}
	c.Alerts[id] = e
	return &c
}

// WithoutAlert returns a copy without alerts[id]. When id is absent the
// store itself is returned.
func (s *Store) WithoutAlert(id string) *Store {
	if _, ok := s.Alerts[id]; !ok {
		return s
	}
	c := *s
	c.Alerts = maps.Clone(s.Alerts)
	delete(c.Alerts, id)
	return &c
}

// WithMode returns a copy with Mode set to e.
func (s *Store) WithMode(e ModeEntry) *Store {
	c := *s
	c.Mode = &e
	return &c
}

// WithExtra returns a copy with Extra[key] set to v. Custom handlers keep
// their own topic state here.
func (s *Store) WithExtra(key string, v any) *Store {
	c := *s
	c.Extra = maps.Clone(s.Extra)
	if c.Extra == nil {
		c.Extra = map[string]any{}
	}
	c.Extra[key] = v
	return &c
}

// appendCapped appends into a fresh backing array so the source slice,
// which may belong to a published store, is never written.
func appendCapped[E any](src []E, e E, max int) []E {
	start := 0
	if max > 0 && len(src) >= max {
		start = len(src) - max + 1
	}
	out := make([]E, 0, len(src)-start+1)
	out = append(out, src[start:]...)
	return append(out, e)
}
