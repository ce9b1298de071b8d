// Package simulation replays a day (or a run of days) of readings through
// the core and folds the results into a report.
//
// SimulateDay partitions the readings by the zone of their sensor and runs
// each zone concurrently:
//
//   - per-kind statistics (min, max, avg, count)
//   - every reading through validation.ProcessReading against a running
//     zone snapshot; outcomes with status "alert" are the zone's alerts
//   - a soil humidity forecast over the last 24 hum_soil readings
//   - the snapshot command set for the averaged snapshot
//
// The per-zone results are merged into a map keyed by zone id, so the
// report does not depend on which zone finished first. The summary counts
// total alerts and zones with and without alerts.
//
// SimulateWeek runs SimulateDay once per day, in order, over that day's
// readings and sums the daily summaries.
package simulation
