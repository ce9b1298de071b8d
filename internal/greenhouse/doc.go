// Package greenhouse defines the domain entities of the greenhouse core:
// zones, plant profiles, sensors, actuators, readings, rules, commands,
// alerts, bus events and modes.
//
// Entities are plain values. Nothing in the core mutates one in place; new
// entities are derived instead. The package also carries the small pure
// helpers every other package needs: zone tree walks, reading filters,
// per-kind statistics and schedule expansion.
package greenhouse
