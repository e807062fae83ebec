package pipeline

import (
	"sync"
	"time"
)

// Metrics keeps rolling performance averages across queries
type Metrics struct {
	mu           sync.Mutex
	queries      int
	errors       int
	totalElapsed time.Duration
	totalAcc     float64
}

// NewMetrics creates a zeroed metrics collector
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Record adds one completed query to the running averages
func (m *Metrics) Record(elapsed time.Duration, accuracy float64, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries++
	if failed {
		m.errors++
		return
	}
	m.totalElapsed += elapsed
	m.totalAcc += accuracy
}

// MetricsSnapshot is a point-in-time view of the collector
type MetricsSnapshot struct {
	Queries     int           `json:"queries"`
	Errors      int           `json:"errors"`
	AvgElapsed  time.Duration `json:"avg_elapsed"`
	AvgAccuracy float64       `json:"avg_accuracy"`
}

// Snapshot returns current totals and averages. Averages cover
// successful queries only.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{Queries: m.queries, Errors: m.errors}
	if ok := m.queries - m.errors; ok > 0 {
		snap.AvgElapsed = m.totalElapsed / time.Duration(ok)
		snap.AvgAccuracy = m.totalAcc / float64(ok)
	}
	return snap
}
