// Package pipeline drives the type-synchronization cycle:
// extract → hash → cache lookup → diff/validate → generate → persist.
//
// One cycle is a state machine:
//
//	Idle → Extracting → CacheLookup → {CacheValid → Done}
//	                                | {CacheInvalid → Generating → Persisting → Done}
//
// with a fatal-error exit from any state. Anything that prevents producing
// a correct artifact set propagates to the caller as a failed cycle;
// anything that only affects caching efficiency is absorbed with a warning.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stackforge/typesync/cache"
	"github.com/stackforge/typesync/config"
	"github.com/stackforge/typesync/errors"
	"github.com/stackforge/typesync/extract"
	"github.com/stackforge/typesync/generate"
	"github.com/stackforge/typesync/schema"
)

// checksumIndexFileName lives next to the cache entries.
const checksumIndexFileName = ".file-checksums"

// Orchestrator owns one sync pipeline: the cache, the generator registry,
// and the checksum index.
//
// SyncOnce has no internal re-entrancy guard; only the watcher imposes
// single-flight semantics. Callers driving concurrent cycles manually must
// provide their own mutual exclusion.
type Orchestrator struct {
	cfg      *config.Config
	source   extract.Source
	store    *cache.Store
	registry *generate.Registry
	index    *checksumIndex
	log      *zap.SugaredLogger

	inFlight atomic.Int32
}

// New initializes an orchestrator: creates the output directory, opens the
// generation cache, loads the checksum index when incremental mode is
// enabled, and pre-registers the built-in generators.
func New(cfg *config.Config, source extract.Source, log *zap.SugaredLogger) (*Orchestrator, error) {
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", cfg.Output.Dir)
	}

	store, err := cache.Open(cache.Options{
		Dir:             cfg.Cache.Dir,
		MaxSizeBytes:    cfg.Cache.MaxSizeBytes,
		TTL:             time.Duration(cfg.Cache.TTLHours) * time.Hour,
		Compression:     cfg.Cache.Compression,
		CleanupInterval: time.Duration(cfg.Cache.CleanupIntervalMinutes) * time.Minute,
	}, log)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg:      cfg,
		source:   source,
		store:    store,
		registry: generate.NewBuiltinRegistry(),
		log:      log,
	}

	if cfg.Generators.Incremental {
		o.index = loadChecksumIndex(filepath.Join(cfg.Cache.Dir, checksumIndexFileName))
	}

	return o, nil
}

// Close releases the cache's background resources.
func (o *Orchestrator) Close() error {
	return o.store.Close()
}

// Registry exposes the generator registry so callers can add or replace
// generators before syncing.
func (o *Orchestrator) Registry() *generate.Registry {
	return o.registry
}

// Cache exposes the generation cache for the CLI's cache subcommands.
func (o *Orchestrator) Cache() *cache.Store {
	return o.store
}

// SyncOnce runs one synchronization cycle.
func (o *Orchestrator) SyncOnce(ctx context.Context) (*SyncResult, error) {
	if n := o.inFlight.Add(1); n > 1 {
		o.log.Warnw("Overlapping sync cycles on one orchestrator; callers must serialize",
			"in_flight", n)
	}
	defer o.inFlight.Add(-1)

	cycleID := uuid.NewString()[:8]
	totalStart := time.Now()

	// Extracting
	extractStart := time.Now()
	outcome, err := o.extractWithFallback(ctx)
	if err != nil {
		return nil, err
	}
	extractElapsed := time.Since(extractStart)

	o.log.Debugw("Schema extracted",
		"cycle", cycleID,
		"origin", string(outcome.Origin),
		"title", outcome.Doc.Title(),
		"elapsed", extractElapsed)

	fp, err := schema.Hash(outcome.Doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fingerprint schema")
	}

	// CacheLookup
	cacheStart := time.Now()
	if entry, ok := o.lookup(fp, outcome.Doc); ok {
		o.store.RecordHit()
		o.log.Infow("Generated artifacts are current",
			"cycle", cycleID,
			"fingerprint", string(fp),
			"files", len(entry.Results))

		res := &SyncResult{
			FromCache: true,
			Artifacts: entry.Results,
		}
		if o.cfg.Monitoring.Enabled {
			res.Breakdown = &Breakdown{
				ExtractionMs: extractElapsed.Milliseconds(),
				CacheMs:      time.Since(cacheStart).Milliseconds(),
				TotalMs:      time.Since(totalStart).Milliseconds(),
			}
		}
		return res, nil
	}
	o.store.RecordMiss()
	cacheElapsed := time.Since(cacheStart)

	// Generating
	genStart := time.Now()
	results, err := o.runGenerators(ctx, outcome.Doc)
	if err != nil {
		return nil, err
	}
	genElapsed := time.Since(genStart)

	// Persisting. Cache write failures trade consistency for availability:
	// the computed result is still returned.
	entry := &cache.Entry{
		Schema:  outcome.Doc,
		Results: results,
		Metadata: cache.EntryMetadata{
			GenerationTimeMs: genElapsed.Milliseconds(),
			FileCount:        len(results),
			TotalBytes:       totalArtifactBytes(results),
		},
	}
	if err := o.store.Set(fp, entry); err != nil {
		o.log.Warnw("Failed to persist cache entry; continuing",
			"cycle", cycleID,
			"fingerprint", string(fp),
			"error", err)
	}

	if o.index != nil {
		for _, r := range results {
			o.index.Set(r.Path, r.Checksum)
		}
		if err := o.index.Save(); err != nil {
			o.log.Warnw("Failed to persist checksum index", "error", err)
		}
	}

	o.log.Infow("Sync cycle generated artifacts",
		"cycle", cycleID,
		"fingerprint", string(fp),
		"files", len(results),
		"elapsed", time.Since(totalStart))

	res := &SyncResult{
		FilesGenerated: len(results),
		FromCache:      false,
		Artifacts:      results,
	}
	if o.cfg.Monitoring.Enabled {
		res.Breakdown = &Breakdown{
			ExtractionMs: extractElapsed.Milliseconds(),
			CacheMs:      cacheElapsed.Milliseconds(),
			GenerationMs: genElapsed.Milliseconds(),
			TotalMs:      time.Since(totalStart).Milliseconds(),
		}
	}
	return res, nil
}

// extractWithFallback extracts the schema, falling back to the last
// persisted snapshot when the live source fails.
func (o *Orchestrator) extractWithFallback(ctx context.Context) (*extract.Outcome, error) {
	outcome, err := o.source.Extract(ctx, extract.Options{
		Timeout:         time.Duration(o.cfg.Backend.TimeoutSeconds) * time.Second,
		Retries:         o.cfg.Backend.Retries,
		HealthCheckPath: o.cfg.Backend.HealthCheckPath,
		OutputPath:      o.cfg.Backend.SnapshotPath,
	})
	if err == nil {
		return outcome, nil
	}

	doc, snapErr := extract.LoadSnapshot(o.cfg.Backend.SnapshotPath)
	if snapErr != nil {
		return nil, errors.Wrap(errors.WithSecondary(err, snapErr),
			"extraction failed and no usable schema snapshot exists")
	}

	o.log.Warnw("Live extraction failed, using last schema snapshot",
		"snapshot", o.cfg.Backend.SnapshotPath,
		"error", err)
	return &extract.Outcome{Doc: doc, Origin: extract.OriginFallback}, nil
}

// lookup accepts a cache hit only when the differ reports no change versus
// the cached schema, incremental generation is enabled, and every cached
// artifact still exists on disk with a matching checksum.
func (o *Orchestrator) lookup(fp schema.Fingerprint, doc schema.Document) (*cache.Entry, bool) {
	if !o.cfg.Generators.Incremental {
		return nil, false
	}

	entry, ok := o.store.Get(fp)
	if !ok {
		return nil, false
	}

	if schema.HasChanges(entry.Schema, doc) {
		// Fingerprint collision or normalization drift; regenerate.
		o.log.Debugw("Cached schema differs despite matching fingerprint",
			"fingerprint", string(fp))
		return nil, false
	}

	if err := o.validateArtifacts(entry); err != nil {
		o.log.Infow("Cached artifacts invalid, regenerating",
			"fingerprint", string(fp),
			"reason", err)
		return nil, false
	}

	return entry, true
}

// validateArtifacts checks that every artifact of a cached entry exists
// unmodified on disk. The checksum index is refreshed along the way so it
// stays truthful even when cycles are satisfied from cache.
func (o *Orchestrator) validateArtifacts(entry *cache.Entry) error {
	indexDirty := false
	for _, r := range entry.Results {
		sum, err := FileChecksum(r.Path)
		if err != nil {
			return errors.Wrapf(errors.ErrValidationFailed, "artifact missing: %s", r.Path)
		}
		if sum != r.Checksum {
			return errors.Wrapf(errors.ErrValidationFailed, "artifact modified: %s", r.Path)
		}
		if o.index != nil {
			if recorded, ok := o.index.Get(r.Path); !ok || recorded != sum {
				o.index.Set(r.Path, sum)
				indexDirty = true
			}
		}
	}
	if indexDirty {
		if err := o.index.Save(); err != nil {
			o.log.Warnw("Failed to persist checksum index", "error", err)
		}
	}
	return nil
}

// runGenerators executes the enabled generators group by dependency group.
// Groups are jointly awaited; within a group, invocations run concurrently
// up to the configured limit. The first failure aborts the cycle.
func (o *Orchestrator) runGenerators(ctx context.Context, doc schema.Document) ([]cache.Result, error) {
	opts := generate.Options{
		OutDir:     o.cfg.Output.Dir,
		APIBaseURL: o.cfg.Backend.BaseURL,
	}

	limit := o.cfg.Generators.Concurrency
	if limit < 1 {
		limit = 1
	}

	var all []cache.Result
	for _, group := range generate.Groups {
		generators := o.enabledGenerators(group)
		if len(generators) == 0 {
			continue
		}

		results, err := o.runGroup(ctx, generators, doc, opts, limit)
		if err != nil {
			return nil, err
		}
		all = append(all, results...)
	}
	return all, nil
}

// runGroup runs one dependency group with a bounded semaphore and waits for
// all of its generators before returning.
func (o *Orchestrator) runGroup(ctx context.Context, generators []generate.Generator, doc schema.Document, opts generate.Options, limit int) ([]cache.Result, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  []cache.Result
		firstErr error
	)
	sem := make(chan struct{}, limit)

	for _, g := range generators {
		wg.Add(1)
		sem <- struct{}{}
		go func(g generate.Generator) {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			res, err := g.Generate(ctx, doc, opts)
			elapsed := time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = errors.WrapGeneratorFailure(err, g.ID())
				}
				return
			}

			record, err := o.finalizeResult(g.ID(), res, elapsed)
			if err != nil {
				if firstErr == nil {
					firstErr = errors.WrapGeneratorFailure(err, g.ID())
				}
				return
			}
			results = append(results, record)
		}(g)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// finalizeResult fills in checksum and size when the generator did not
// supply them.
func (o *Orchestrator) finalizeResult(generatorID string, res generate.Result, elapsed time.Duration) (cache.Result, error) {
	checksum := res.Checksum
	if checksum == "" {
		var err error
		checksum, err = FileChecksum(res.Path)
		if err != nil {
			return cache.Result{}, err
		}
	}

	size := res.SizeBytes
	if size == 0 {
		if info, err := os.Stat(res.Path); err == nil {
			size = info.Size()
		}
	}

	return cache.Result{
		Path:        res.Path,
		Checksum:    checksum,
		SizeBytes:   size,
		GeneratorID: generatorID,
		ElapsedMs:   elapsed.Milliseconds(),
	}, nil
}

// enabledGenerators applies the per-category config gates. Unknown
// (caller-registered) generators are always enabled.
func (o *Orchestrator) enabledGenerators(group generate.Group) []generate.Generator {
	var out []generate.Generator
	for _, g := range o.registry.ByGroup(group) {
		if o.cfg.GeneratorEnabled(g.ID()) {
			out = append(out, g)
		}
	}
	return out
}

func totalArtifactBytes(results []cache.Result) int64 {
	var total int64
	for _, r := range results {
		total += r.SizeBytes
	}
	return total
}
