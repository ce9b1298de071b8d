package catalog

import "errors"

// Domain errors for the catalog package.
var (
	// ErrReportNotFound is returned when no report is stored for a day.
	ErrReportNotFound = errors.New("catalog: report not found")

	// ErrInvalidSeed is returned when a seed file cannot be turned into a
	// valid dataset.
	ErrInvalidSeed = errors.New("catalog: invalid seed")

	// ErrInvalidTransition is returned when an alert transition is neither
	// "raised" nor "cleared".
	ErrInvalidTransition = errors.New("catalog: invalid alert transition")
)
