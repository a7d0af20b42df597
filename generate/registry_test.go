package generate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackforge/typesync/schema"
)

type stubGenerator struct {
	id    string
	group Group
}

func (s *stubGenerator) ID() string   { return s.id }
func (s *stubGenerator) Group() Group { return s.group }
func (s *stubGenerator) Generate(ctx context.Context, doc schema.Document, opts Options) (Result, error) {
	return Result{Path: s.id + ".out"}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubGenerator{id: "alpha", group: GroupTypes})

	g, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", g.ID())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryReplace(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubGenerator{id: "types", group: GroupTypes})
	replacement := &stubGenerator{id: "types", group: GroupClient}
	r.Register(replacement)

	g, ok := r.Get("types")
	require.True(t, ok)
	assert.Equal(t, GroupClient, g.Group(), "registering the same ID replaces the generator")
	assert.Len(t, r.List(), 1)
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubGenerator{id: "zeta", group: GroupHooks})
	r.Register(&stubGenerator{id: "alpha", group: GroupTypes})
	r.Register(&stubGenerator{id: "mid", group: GroupClient})

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.List())
}

func TestRegistryByGroup(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubGenerator{id: "b-types", group: GroupTypes})
	r.Register(&stubGenerator{id: "a-types", group: GroupTypes})
	r.Register(&stubGenerator{id: "client", group: GroupClient})

	types := r.ByGroup(GroupTypes)
	require.Len(t, types, 2)
	assert.Equal(t, "a-types", types[0].ID(), "groups are sorted by ID")
	assert.Equal(t, "b-types", types[1].ID())

	assert.Len(t, r.ByGroup(GroupClient), 1)
	assert.Empty(t, r.ByGroup(GroupHooks))
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubGenerator{id: "gone", group: GroupTypes})

	require.NoError(t, r.Remove("gone"))
	_, ok := r.Get("gone")
	assert.False(t, ok)

	assert.Error(t, r.Remove("gone"))
}

func TestBuiltinRegistry(t *testing.T) {
	r := NewBuiltinRegistry()
	assert.Equal(t, []string{"client", "hooks", "types"}, r.List())

	// Dependency order: types before client before hooks.
	assert.Equal(t, "types", r.ByGroup(GroupTypes)[0].ID())
	assert.Equal(t, "client", r.ByGroup(GroupClient)[0].ID())
	assert.Equal(t, "hooks", r.ByGroup(GroupHooks)[0].ID())
}
