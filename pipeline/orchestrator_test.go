package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stackforge/typesync/config"
	"github.com/stackforge/typesync/errors"
	"github.com/stackforge/typesync/extract"
	"github.com/stackforge/typesync/generate"
	"github.com/stackforge/typesync/schema"
)

const orchestratorSchema = `{
	"openapi": "3.0.0",
	"info": {"title": "Orders API", "version": "1.0.0"},
	"paths": {
		"/orders": {
			"get": {"operationId": "listOrders"},
			"post": {"operationId": "createOrder", "requestBody": {"content": {}}}
		},
		"/orders/{id}": {
			"get": {"operationId": "getOrder"}
		}
	},
	"components": {
		"schemas": {
			"Order": {
				"type": "object",
				"required": ["id"],
				"properties": {
					"id": {"type": "integer"},
					"total": {"type": "number"}
				}
			}
		}
	}
}`

// stubSource serves a fixed document, counting extractions.
type stubSource struct {
	raw   string
	err   error
	calls atomic.Int32
}

func (s *stubSource) Extract(ctx context.Context, opts extract.Options) (*extract.Outcome, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	doc, err := schema.ParseDocument([]byte(s.raw))
	if err != nil {
		return nil, err
	}
	if opts.OutputPath != "" {
		os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755)
		os.WriteFile(opts.OutputPath, []byte(s.raw), 0o644)
	}
	return &extract.Outcome{Doc: doc, Origin: extract.OriginLive}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		Backend: config.BackendConfig{
			BaseURL:      "http://localhost:8000",
			SchemaPath:   "/openapi.json",
			SnapshotPath: filepath.Join(root, "snapshot", "schema.json"),
			Retries:      0,
		},
		Output: config.OutputConfig{Dir: filepath.Join(root, "generated")},
		Cache: config.CacheConfig{
			Dir:          filepath.Join(root, "cache"),
			MaxSizeBytes: 10 << 20,
			TTLHours:     1,
			Compression:  true,
		},
		Generators: config.GeneratorsConfig{
			Types:       true,
			Client:      true,
			Hooks:       true,
			Concurrency: 2,
			Incremental: true,
		},
	}
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, src extract.Source) *Orchestrator {
	t.Helper()
	o, err := New(cfg, src, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { o.Close() })
	return o
}

func TestSyncOnceGeneratesThenHitsCache(t *testing.T) {
	cfg := testConfig(t)
	src := &stubSource{raw: orchestratorSchema}
	o := newTestOrchestrator(t, cfg, src)

	first, err := o.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, 3, first.FilesGenerated)

	for _, name := range []string{"types.ts", "client.ts", "hooks.ts"} {
		data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, name))
		require.NoError(t, err, name)
		assert.NotEmpty(t, data)
	}

	// Unchanged schema, intact artifacts: second cycle is a cache hit.
	second, err := o.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Zero(t, second.FilesGenerated)
	assert.Len(t, second.Artifacts, 3)

	m := o.Cache().Metrics()
	assert.Equal(t, int64(1), m.Hits)
	assert.Equal(t, int64(1), m.Misses)
}

func TestEndToEndMinimalSchema(t *testing.T) {
	cfg := testConfig(t)
	src := &stubSource{raw: `{
		"openapi": "3.0.0",
		"info": {"title": "T", "version": "1.0.0"},
		"paths": {"/health": {"get": {"operationId": "getHealth", "responses": {"200": {"description": "OK"}}}}}
	}`}
	o := newTestOrchestrator(t, cfg, src)

	first, err := o.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.GreaterOrEqual(t, first.FilesGenerated, 1)

	second, err := o.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Zero(t, second.FilesGenerated)
}

func TestSyncOnceRegeneratesWhenArtifactRemoved(t *testing.T) {
	cfg := testConfig(t)
	o := newTestOrchestrator(t, cfg, &stubSource{raw: orchestratorSchema})

	_, err := o.SyncOnce(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(cfg.Output.Dir, "client.ts")))

	res, err := o.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "client.ts"))
}

func TestSyncOnceRegeneratesWhenArtifactModified(t *testing.T) {
	cfg := testConfig(t)
	o := newTestOrchestrator(t, cfg, &stubSource{raw: orchestratorSchema})

	_, err := o.SyncOnce(context.Background())
	require.NoError(t, err)

	path := filepath.Join(cfg.Output.Dir, "types.ts")
	require.NoError(t, os.WriteFile(path, []byte("// tampered\n"), 0o644))

	res, err := o.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, res.FromCache)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "tampered")
}

func TestSyncOnceIncrementalDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Generators.Incremental = false
	o := newTestOrchestrator(t, cfg, &stubSource{raw: orchestratorSchema})

	_, err := o.SyncOnce(context.Background())
	require.NoError(t, err)

	res, err := o.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, 3, res.FilesGenerated)
}

func TestSyncOnceSchemaChangeRegenerates(t *testing.T) {
	cfg := testConfig(t)
	src := &stubSource{raw: orchestratorSchema}
	o := newTestOrchestrator(t, cfg, src)

	_, err := o.SyncOnce(context.Background())
	require.NoError(t, err)

	src.raw = `{
		"openapi": "3.0.0",
		"info": {"title": "Orders API", "version": "1.1.0"},
		"paths": {"/orders": {"get": {"operationId": "listOrders"}}},
		"components": {"schemas": {"Order": {"type": "object", "properties": {"id": {"type": "integer"}}}}}
	}`

	res, err := o.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, res.FromCache)
}

func TestSyncOnceFallsBackToSnapshot(t *testing.T) {
	cfg := testConfig(t)

	// A previous successful cycle left a snapshot behind.
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Backend.SnapshotPath), 0o755))
	require.NoError(t, os.WriteFile(cfg.Backend.SnapshotPath, []byte(orchestratorSchema), 0o644))

	src := &stubSource{err: errors.ErrExtractionFailed}
	o := newTestOrchestrator(t, cfg, src)

	res, err := o.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.FilesGenerated)
}

func TestSyncOnceFailsWithoutSnapshot(t *testing.T) {
	cfg := testConfig(t)
	o := newTestOrchestrator(t, cfg, &stubSource{err: errors.ErrExtractionFailed})

	_, err := o.SyncOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsExtractionError(err))
}

type failingGenerator struct{}

func (failingGenerator) ID() string            { return "broken" }
func (failingGenerator) Group() generate.Group { return generate.GroupTypes }
func (failingGenerator) Generate(ctx context.Context, doc schema.Document, opts generate.Options) (generate.Result, error) {
	return generate.Result{}, errors.New("boom")
}

func TestGeneratorFailureAbortsCycle(t *testing.T) {
	cfg := testConfig(t)
	o := newTestOrchestrator(t, cfg, &stubSource{raw: orchestratorSchema})
	o.Registry().Register(failingGenerator{})

	_, err := o.SyncOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrGeneratorFailed))
	assert.Contains(t, err.Error(), "broken")

	// No entry cached for a failed cycle.
	assert.Equal(t, 0, o.Cache().Metrics().EntryCount)
}

func TestGeneratorGating(t *testing.T) {
	cfg := testConfig(t)
	cfg.Generators.Hooks = false
	o := newTestOrchestrator(t, cfg, &stubSource{raw: orchestratorSchema})

	res, err := o.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.FilesGenerated)
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, "hooks.ts"))
}

func TestBreakdownOnlyWhenMonitoringEnabled(t *testing.T) {
	cfg := testConfig(t)
	o := newTestOrchestrator(t, cfg, &stubSource{raw: orchestratorSchema})

	res, err := o.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Breakdown)

	cfg2 := testConfig(t)
	cfg2.Monitoring.Enabled = true
	o2 := newTestOrchestrator(t, cfg2, &stubSource{raw: orchestratorSchema})

	res2, err := o2.SyncOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res2.Breakdown)
	assert.GreaterOrEqual(t, res2.Breakdown.TotalMs, int64(0))
}

func TestArtifactRecordsCarryChecksums(t *testing.T) {
	cfg := testConfig(t)
	o := newTestOrchestrator(t, cfg, &stubSource{raw: orchestratorSchema})

	res, err := o.SyncOnce(context.Background())
	require.NoError(t, err)

	for _, a := range res.Artifacts {
		assert.NotEmpty(t, a.Checksum, a.Path)
		assert.Positive(t, a.SizeBytes, a.Path)
		assert.NotEmpty(t, a.GeneratorID, a.Path)

		sum, err := FileChecksum(a.Path)
		require.NoError(t, err)
		assert.Equal(t, a.Checksum, sum)
	}
}

func TestCacheEntrySurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	src := &stubSource{raw: orchestratorSchema}

	o, err := New(cfg, src, zap.NewNop().Sugar())
	require.NoError(t, err)
	_, err = o.SyncOnce(context.Background())
	require.NoError(t, err)
	require.NoError(t, o.Close())

	// A fresh orchestrator over the same cache dir hits on the same schema.
	o2 := newTestOrchestrator(t, cfg, src)
	res, err := o2.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, res.FromCache)
}

func TestChecksumIndexRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx", ".file-checksums")

	idx := loadChecksumIndex(path)
	idx.Set("/out/types.ts", "abc")
	require.NoError(t, idx.Save())

	reloaded := loadChecksumIndex(path)
	sum, ok := reloaded.Get("/out/types.ts")
	assert.True(t, ok)
	assert.Equal(t, "abc", sum)
}

func TestChecksumIndexCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".file-checksums")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	idx := loadChecksumIndex(path)
	_, ok := idx.Get("anything")
	assert.False(t, ok)
}

func TestFileChecksumMissing(t *testing.T) {
	_, err := FileChecksum(filepath.Join(t.TempDir(), "missing.ts"))
	assert.Error(t, err)
}
