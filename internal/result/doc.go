// Package result provides the two outcome containers used across the core
// instead of panics or bare sentinel values.
//
// Option holds a value or nothing; Result holds a value or an error.
// Neither container panics when inspected and neither hides its empty or
// failed state: callers check IsSome / IsOk before using the value, or
// fall back with GetOr.
//
// Transform helpers (MapOption, BindOption, Map, Bind) are free functions
// because Go methods cannot introduce new type parameters.
//
// Usage:
//
//	sensor := result.MapOption(lookup(id), func(s greenhouse.Sensor) string { return s.Unit })
//	unit := sensor.GetOr("?")
package result
