package control

import "errors"

// Domain errors for the control package.
var (
	// ErrClosed is returned by HandleReading after Close.
	ErrClosed = errors.New("control: service closed")

	// ErrNoProfile is returned when the catalog has no plant profile to
	// run a zone with.
	ErrNoProfile = errors.New("control: no plant profile for zone")

	// ErrInvalidMessage is returned for an MQTT reading that cannot be decoded.
	ErrInvalidMessage = errors.New("control: invalid reading message")
)
