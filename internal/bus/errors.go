package bus

import "errors"

var (
	// ErrInvalidHandlerResult is returned when a handler returns a nil store.
	// It points at a defect in the handler, not at bad data.
	ErrInvalidHandlerResult = errors.New("bus: handler returned an invalid store")

	// ErrInvalidPayload is returned by built-in handlers when a payload field
	// is missing or has the wrong type.
	ErrInvalidPayload = errors.New("bus: invalid event payload")

	// ErrNilHandler is returned when subscribing a nil handler.
	ErrNilHandler = errors.New("bus: nil handler")
)
