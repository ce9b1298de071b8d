package greenhouse

// Stats computes min/max/avg/count over the valued readings of one kind.
// It reports false when no reading matches.
func Stats(readings []Reading, sensors []Sensor, kind SensorKind) (KindStats, bool) {
	var st KindStats
	var sum float64
	for _, r := range ByKind(readings, sensors, kind) {
		if r.Value == nil {
			continue
		}
		v := *r.Value
		if st.Count == 0 || v < st.Min {
			st.Min = v
		}
		if st.Count == 0 || v > st.Max {
			st.Max = v
		}
		sum += v
		st.Count++
	}
	if st.Count == 0 {
		return KindStats{}, false
	}
	st.Avg = sum / float64(st.Count)
	return st, true
}

// StatsByKind computes Stats for every kind that has readings.
func StatsByKind(readings []Reading, sensors []Sensor) map[SensorKind]KindStats {
	out := make(map[SensorKind]KindStats)
	for _, kind := range AllSensorKinds() {
		if st, ok := Stats(readings, sensors, kind); ok {
			out[kind] = st
		}
	}
	return out
}

// AverageSnapshot builds a snapshot from the per-kind averages.
func AverageSnapshot(stats map[SensorKind]KindStats) Snapshot {
	snap := make(Snapshot, len(stats))
	for kind, st := range stats {
		snap[kind] = st.Avg
	}
	return snap
}
