package pipeline

import (
	"github.com/stackforge/typesync/cache"
)

// SyncResult is the externally visible outcome of one sync cycle. It is
// constructed fresh per call and never persisted.
type SyncResult struct {
	// FilesGenerated is the number of artifacts written this cycle; zero on
	// a cache hit
	FilesGenerated int
	// FromCache reports whether the cycle was satisfied by the cache
	FromCache bool
	// Artifacts lists the artifact records, cached or freshly generated
	Artifacts []cache.Result
	// Breakdown is the per-phase timing report; nil unless monitoring is
	// enabled
	Breakdown *Breakdown
}

// Breakdown is the per-phase timing of one cycle, in milliseconds.
type Breakdown struct {
	ExtractionMs int64 `json:"extraction_ms"`
	CacheMs      int64 `json:"cache_ms"`
	GenerationMs int64 `json:"generation_ms"`
	TotalMs      int64 `json:"total_ms"`
}

// Paths returns the artifact paths in order.
func (r *SyncResult) Paths() []string {
	paths := make([]string, 0, len(r.Artifacts))
	for _, a := range r.Artifacts {
		paths = append(paths, a.Path)
	}
	return paths
}
