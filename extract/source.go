// Package extract obtains the interface-description document from a running
// backend. The transport is behind the Source interface; the pipeline only
// cares about getting a parsed document and knowing where it came from.
package extract

import (
	"context"
	"time"

	"github.com/stackforge/typesync/schema"
)

// Origin identifies where an extracted document came from.
type Origin string

const (
	// OriginLive means the document was fetched from the running backend
	OriginLive Origin = "live"
	// OriginFallback means the last persisted snapshot was used
	OriginFallback Origin = "fallback"
)

// Options bounds one extraction.
type Options struct {
	// Timeout bounds a single attempt
	Timeout time.Duration
	// Retries is the number of additional attempts after the first failure
	Retries int
	// HealthCheckPath is probed before fetching; empty disables the probe
	HealthCheckPath string
	// OutputPath receives the schema snapshot on success; empty disables it
	OutputPath string
}

// Outcome is the result of one extraction.
type Outcome struct {
	Doc    schema.Document
	Origin Origin
	// ExtractionTime is the total time spent extracting
	ExtractionTime time.Duration
	// ServerStartupTime is how long the health probe waited, when probing
	ServerStartupTime time.Duration
}

// Source produces a schema document on demand.
type Source interface {
	Extract(ctx context.Context, opts Options) (*Outcome, error)
}
