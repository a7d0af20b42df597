package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// metricsFileName is the aggregate metrics file under the cache root.
const metricsFileName = ".cache-metadata"

// Metrics are the running cache counters. Loaded from disk on startup (or
// recomputed by scanning sidecars), updated on every mutation, flushed
// periodically and on Close.
type Metrics struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
	TotalBytes int64 `json:"total_bytes"`
	EntryCount int   `json:"entry_count"`
}

// Metrics returns a snapshot of the current counters.
func (s *Store) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// RecordHit increments the hit counter. Counted by the orchestrator rather
// than Get, because a validated lookup can still turn into a miss.
func (s *Store) RecordHit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.Hits++
}

// RecordMiss increments the miss counter.
func (s *Store) RecordMiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.Misses++
}

func (s *Store) metricsPath() string {
	return filepath.Join(s.opts.Dir, metricsFileName)
}

// loadMetrics restores counters from the metrics file, falling back to a
// sidecar scan when the file is absent or corrupt.
func (s *Store) loadMetrics() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.metricsPath())
	if err == nil {
		var m Metrics
		if err := json.Unmarshal(data, &m); err == nil {
			s.metrics = m
			return
		}
		s.log.Warnw("Cache metrics file corrupt, recomputing from sidecars",
			"file", s.metricsPath())
	}

	s.recomputeMetricsLocked()
}

// recomputeMetricsLocked rebuilds entry count and total size by scanning
// sidecar records. Hit/miss/eviction history is lost. Caller holds s.mu.
func (s *Store) recomputeMetricsLocked() {
	s.metrics = Metrics{}

	sidecars, err := s.scanSidecarsLocked()
	if err != nil {
		s.log.Warnw("Cache metrics recompute failed", "error", err)
		return
	}
	for _, sc := range sidecars {
		s.metrics.EntryCount++
		s.metrics.TotalBytes += sc.Size
	}
}

// flushMetricsLocked persists the counters. Caller holds s.mu.
func (s *Store) flushMetricsLocked() error {
	data, err := json.Marshal(s.metrics)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.metricsPath(), data)
}
