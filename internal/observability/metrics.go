package observability

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Latencies are recorded in microseconds between 1µs and 10 minutes with
// three significant figures.
const (
	minLatencyMicros = 1
	maxLatencyMicros = int64(10 * time.Minute / time.Microsecond)
	sigFigs          = 3
)

// QueryMetrics collects per-entry query latency, failures and cache hits
type QueryMetrics struct {
	mu         sync.Mutex
	histograms map[string]*hdrhistogram.Histogram
	failures   map[string]int64
	cacheHits  map[string]int64
}

// EntryStats is a point-in-time summary for one entry
type EntryStats struct {
	Entry     string        `json:"entry"`
	Count     int64         `json:"count"`
	Failures  int64         `json:"failures"`
	CacheHits int64         `json:"cache_hits"`
	Mean      time.Duration `json:"mean"`
	P50       time.Duration `json:"p50"`
	P95       time.Duration `json:"p95"`
	P99       time.Duration `json:"p99"`
	Max       time.Duration `json:"max"`
}

// NewQueryMetrics creates an empty collector
func NewQueryMetrics() *QueryMetrics {
	return &QueryMetrics{
		histograms: make(map[string]*hdrhistogram.Histogram),
		failures:   make(map[string]int64),
		cacheHits:  make(map[string]int64),
	}
}

// Record adds one evaluation of entry. Failed evaluations still count
// towards latency.
func (m *QueryMetrics) Record(entry string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.histograms[entry]
	if !ok {
		h = hdrhistogram.New(minLatencyMicros, maxLatencyMicros, sigFigs)
		m.histograms[entry] = h
	}

	micros := elapsed.Microseconds()
	if micros < minLatencyMicros {
		micros = minLatencyMicros
	}
	if micros > maxLatencyMicros {
		micros = maxLatencyMicros
	}
	_ = h.RecordValue(micros)

	if err != nil {
		m.failures[entry]++
	}
}

// RecordCacheHit counts an entry served from the result cache
func (m *QueryMetrics) RecordCacheHit(entry string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits[entry]++
}

// Snapshot returns stats for every entry seen so far, ordered by name
func (m *QueryMetrics) Snapshot() []EntryStats {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make(map[string]bool)
	for name := range m.histograms {
		names[name] = true
	}
	for name := range m.cacheHits {
		names[name] = true
	}

	stats := make([]EntryStats, 0, len(names))
	for name := range names {
		s := EntryStats{
			Entry:     name,
			Failures:  m.failures[name],
			CacheHits: m.cacheHits[name],
		}
		if h, ok := m.histograms[name]; ok {
			s.Count = h.TotalCount()
			s.Mean = time.Duration(h.Mean()) * time.Microsecond
			s.P50 = time.Duration(h.ValueAtQuantile(50)) * time.Microsecond
			s.P95 = time.Duration(h.ValueAtQuantile(95)) * time.Microsecond
			s.P99 = time.Duration(h.ValueAtQuantile(99)) * time.Microsecond
			s.Max = time.Duration(h.Max()) * time.Microsecond
		}
		stats = append(stats, s)
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Entry < stats[j].Entry })
	return stats
}
