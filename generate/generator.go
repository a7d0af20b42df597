// Package generate defines the generator contract and the built-in
// generators that turn an extracted schema into frontend artifacts.
//
// Generators are plain values satisfying the Generator interface, registered
// explicitly on a Registry owned by the orchestrator. There is no global
// registry and no runtime capability probing: the contract is satisfied at
// compile time or not at all.
package generate

import (
	"context"

	"github.com/stackforge/typesync/schema"
)

// Group orders generators by dependency. All generators of one group
// complete before the next group starts; generators within a group have no
// ordering guarantee relative to each other.
type Group int

const (
	// GroupTypes produces type declarations. Runs first, because later
	// groups reference the generated type names.
	GroupTypes Group = iota
	// GroupClient produces API client code.
	GroupClient
	// GroupHooks produces framework bindings on top of the client.
	GroupHooks
)

// Groups lists all groups in dependency order.
var Groups = []Group{GroupTypes, GroupClient, GroupHooks}

func (g Group) String() string {
	switch g {
	case GroupTypes:
		return "types"
	case GroupClient:
		return "client"
	case GroupHooks:
		return "hooks"
	default:
		return "unknown"
	}
}

// Options is passed to every generator invocation.
type Options struct {
	// OutDir is the directory artifacts are written into
	OutDir string
	// APIBaseURL is baked into generated clients as the default base URL
	APIBaseURL string
	// Extra carries generator-specific settings
	Extra map[string]string
}

// Result describes one artifact produced by a generator. Checksum and
// SizeBytes are optional; the orchestrator computes them from the written
// file when empty.
type Result struct {
	Path      string
	Checksum  string
	SizeBytes int64
}

// Generator is a pluggable artifact producer.
type Generator interface {
	// ID identifies the generator; also the config gate name for built-ins
	ID() string
	// Group places the generator in the dependency order
	Group() Group
	// Generate writes the artifact for the given schema document
	Generate(ctx context.Context, doc schema.Document, opts Options) (Result, error)
}
