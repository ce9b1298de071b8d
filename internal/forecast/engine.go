package forecast

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Stats reports cache effectiveness.
type Stats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// CacheObserver is told about every cache lookup. The metrics package
// implements it.
type CacheObserver interface {
	ForecastLookup(hit bool)
}

// Engine memoises Compute.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Concurrent calls with the
//     same cache key compute once.
type Engine struct {
	mu       sync.RWMutex
	cache    map[string][]float64
	hits     uint64
	misses   uint64
	group    singleflight.Group
	observer CacheObserver
}

// NewEngine creates an engine with an empty cache.
func NewEngine() *Engine {
	return &Engine{cache: make(map[string][]float64)}
}

// SetObserver registers an observer for cache lookups.
func (e *Engine) SetObserver(o CacheObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observer = o
}

// Forecast returns Compute(points, window), served from the cache when
// the same key, points and window were seen before. The returned slice
// belongs to the caller.
func (e *Engine) Forecast(key string, points []Point, window int) []float64 {
	if len(points) == 0 || window <= 0 {
		return []float64{}
	}

	ck := CacheKey(key, points, window)

	e.mu.Lock()
	cached, ok := e.cache[ck]
	if ok {
		e.hits++
	} else {
		e.misses++
	}
	observer := e.observer
	e.mu.Unlock()

	if observer != nil {
		observer.ForecastLookup(ok)
	}
	if ok {
		return clone(cached)
	}

	v, _, _ := e.group.Do(ck, func() (any, error) {
		e.mu.RLock()
		existing, found := e.cache[ck]
		e.mu.RUnlock()
		if found {
			return existing, nil
		}

		out := Compute(points, window)

		e.mu.Lock()
		e.cache[ck] = out
		e.mu.Unlock()
		return out, nil
	})
	return clone(v.([]float64))
}

// Len returns the number of cached forecasts.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// Stats returns a snapshot of the cache counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{Entries: len(e.cache), Hits: e.hits, Misses: e.misses}
}

// Reset drops every cached forecast and zeroes the counters.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string][]float64)
	e.hits, e.misses = 0, 0
}

// CacheKey builds key|digest|window, where digest is a SHA-1 over the
// time-ordered (unix nanos, value bits) pairs. Input order does not change
// the key, matching Compute which sorts first.
func CacheKey(key string, points []Point, window int) string {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TS.Before(sorted[j].TS)
	})

	h := sha1.New()
	var buf [16]byte
	for _, p := range sorted {
		binary.BigEndian.PutUint64(buf[:8], uint64(p.TS.UnixNano()))
		binary.BigEndian.PutUint64(buf[8:], math.Float64bits(p.Value))
		h.Write(buf[:])
	}
	return key + "|" + hex.EncodeToString(h.Sum(nil)) + "|" + strconv.Itoa(window)
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
