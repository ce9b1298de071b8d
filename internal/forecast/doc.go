// Package forecast projects a short soil-humidity series forward.
//
// The model is deliberately small:
//
//  1. sort the points by time
//  2. exponential smoothing, alpha 0.8
//  3. least-squares line through the smoothed series against its index
//  4. extrapolate the line for window steps past the last index
//  5. add a diurnal term 2*sin(2*pi*h/24) for step h
//  6. clip to [0, 100] and round to two decimals
//
// Compute is the pure function. Engine wraps it with a cache keyed by the
// caller's key, a digest of the points and the window. The cache is never
// evicted, so its size grows with the number of distinct inputs seen.
package forecast
