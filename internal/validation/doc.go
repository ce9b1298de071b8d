// Package validation checks readings and zone snapshots against a plant
// profile.
//
// Every check returns an inspectable outcome instead of failing:
//
//   - ResolveSensor: Option over the catalog sensor
//   - ValidateReading: Result whose failure is a *ReadingError
//   - IssueAlertIfNeeded: Option over the first out-of-band parameter
//   - ProcessReading: the combined Outcome shown to operators
//
// AlertTracker adds memory on top of IssueAlertIfNeeded: it turns a stream
// of snapshots for one zone into raise and clear Alert records.
package validation
