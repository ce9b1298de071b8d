package forecast

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Model constants.
const (
	Alpha         = 0.8
	DiurnalAmp    = 2.0
	DiurnalPeriod = 24
	MinValue      = 0.0
	MaxValue      = 100.0
)

// Point is one observation of the forecast series.
type Point struct {
	TS    time.Time `json:"ts"`
	Value float64   `json:"value"`
}

// Compute returns window forecast values for points. It returns an empty
// slice when points is empty or window is not positive. points is not
// modified.
func Compute(points []Point, window int) []float64 {
	if len(points) == 0 || window <= 0 {
		return []float64{}
	}

	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TS.Before(sorted[j].TS)
	})

	smoothed := make([]float64, len(sorted))
	smoothed[0] = sorted[0].Value
	for i := 1; i < len(sorted); i++ {
		smoothed[i] = Alpha*sorted[i].Value + (1-Alpha)*smoothed[i-1]
	}

	intercept, slope := trend(smoothed)

	n := float64(len(smoothed))
	out := make([]float64, window)
	for h := 0; h < window; h++ {
		v := intercept + slope*(n+float64(h))
		v += DiurnalAmp * math.Sin(2*math.Pi*float64(h)/DiurnalPeriod)
		out[h] = round2(clamp(v, MinValue, MaxValue))
	}
	return out
}

// trend fits y = intercept + slope*x over x = 0..len(y)-1. A single point
// gives a flat line through it.
func trend(y []float64) (intercept, slope float64) {
	if len(y) == 1 {
		return y[0], 0
	}
	x := make([]float64, len(y))
	for i := range x {
		x[i] = float64(i)
	}
	return stat.LinearRegression(x, y, nil, false)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// round2 rounds half to even at two decimals.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
