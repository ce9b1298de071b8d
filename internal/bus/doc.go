// Package bus is the in-process event bus of the online control path.
//
// Topics are event names. Each topic has an ordered list of handlers of
// the form func(Event, *Store) (*Store, error). Publishing an event runs
// the handlers in registration order, each receiving the store returned by
// the previous one. When every handler succeeds the last store becomes
// current; when any handler fails, or returns a nil store, the publish is
// abandoned and the previous store stays current.
//
// Handlers must treat their input store as read-only and return a new
// one. The Store helpers (Clone, WithReading, WithAlert, ...) do the
// copying, so a store handed out by Bus.Store is never changed afterwards.
//
// Publishes are serialised: the bus has a single writer at a time.
// Observers run after the bus lock is released, in registration order.
//
// Built-in handlers (NewWithBuiltins):
//
//	READING        append {sensor, value, ts} to readings
//	ALERT_RAISED   set alerts[id] = {msg, ts}
//	ALERT_CLEARED  delete alerts[id] if present
//	ACTUATE        append {ts, device, action} to commands
//	MODE_TICK      set mode = {mode, ts}
package bus
