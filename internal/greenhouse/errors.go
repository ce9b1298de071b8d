package greenhouse

import "errors"

// Domain errors for the greenhouse package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, greenhouse.ErrUnknownSensor) {
//	    // reading references a sensor missing from the catalog
//	}
var (
	// ErrUnknownSensor is returned when a reading's sensor id does not resolve.
	ErrUnknownSensor = errors.New("greenhouse: unknown sensor")

	// ErrNoValue is returned when a reading carries no value.
	ErrNoValue = errors.New("greenhouse: reading has no value")

	// ErrUnknownZone is returned when a zone id does not resolve.
	ErrUnknownZone = errors.New("greenhouse: unknown zone")

	// ErrZoneCycle is returned when zone parents do not form a tree.
	ErrZoneCycle = errors.New("greenhouse: zone hierarchy contains a cycle")

	// ErrInvalidProfile is returned when a profile range has min > max.
	ErrInvalidProfile = errors.New("greenhouse: invalid plant profile")

	// ErrInvalidSensor is returned when a sensor kind is not enumerated.
	ErrInvalidSensor = errors.New("greenhouse: invalid sensor")

	// ErrInvalidActuator is returned when an actuator kind is not enumerated.
	ErrInvalidActuator = errors.New("greenhouse: invalid actuator")

	// ErrInvalidRule is returned when a rule payload lacks fields its kind requires.
	ErrInvalidRule = errors.New("greenhouse: invalid rule")

	// ErrInvalidMode is returned when a mode references a missing zone or profile.
	ErrInvalidMode = errors.New("greenhouse: invalid mode")

	// ErrInvalidTimestamp is returned when a timestamp matches no accepted layout.
	ErrInvalidTimestamp = errors.New("greenhouse: invalid timestamp")

	// ErrInvalidSchedule is returned when a schedule window is malformed.
	ErrInvalidSchedule = errors.New("greenhouse: invalid schedule window")
)
