// Package cache implements the generation cache: a compressed, size-bounded,
// TTL-bounded key/value store keyed by schema fingerprint.
//
// Storage layout under the cache root:
//
//	<fingerprint>.json[.gz]  entry file (optionally gzip-compressed)
//	<fingerprint>.meta       sidecar {timestamp, size, compressed, fingerprint}
//	.cache-metadata          aggregate metrics
//
// The cache assumes a single owner process. No file locking is performed;
// corruption from concurrent external writers degrades to a cache miss.
package cache

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/stackforge/typesync/errors"
	"github.com/stackforge/typesync/schema"
)

// FormatVersion is stamped into every entry. Entries whose major version
// differs from the current one are treated as corrupt and self-healed away.
const FormatVersion = "1.0.0"

// evictionTargetRatio is the fill level eviction trims the cache down to.
const evictionTargetRatio = 0.8

// formatConstraint accepts any entry written by the same major format.
var formatConstraint = mustConstraint("^1")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Entry is the persisted record of one successful generation cycle. Written
// once, read-only afterward; overwritten wholesale on change.
type Entry struct {
	Fingerprint   schema.Fingerprint `json:"fingerprint"`
	Schema        schema.Document    `json:"schema"`
	Results       []Result           `json:"results"`
	CreatedAt     time.Time          `json:"created_at"`
	FormatVersion string             `json:"format_version"`
	Metadata      EntryMetadata      `json:"metadata"`
}

// Result records one artifact produced by one generator invocation.
type Result struct {
	Path        string `json:"path"`
	Checksum    string `json:"checksum"`
	SizeBytes   int64  `json:"size_bytes"`
	GeneratorID string `json:"generator_id"`
	ElapsedMs   int64  `json:"elapsed_ms"`
}

// EntryMetadata carries aggregate bookkeeping for one entry.
type EntryMetadata struct {
	GenerationTimeMs int64 `json:"generation_time_ms"`
	FileCount        int   `json:"file_count"`
	TotalBytes       int64 `json:"total_bytes"`
}

// sidecar is the small per-entry metadata record used for eviction and TTL
// decisions without parsing the (possibly compressed) entry itself.
type sidecar struct {
	Timestamp   time.Time `json:"timestamp"`
	Size        int64     `json:"size"`
	Compressed  bool      `json:"compressed"`
	Fingerprint string    `json:"fingerprint"`
}

// Options configures a Store.
type Options struct {
	// Dir is the cache root directory
	Dir string
	// MaxSizeBytes bounds total tracked entry size; 0 disables eviction
	MaxSizeBytes int64
	// TTL expires entries by age; 0 disables TTL cleanup
	TTL time.Duration
	// Compression gzips entry files on write
	Compression bool
	// CleanupInterval drives the background TTL sweep; 0 disables the timer
	CleanupInterval time.Duration
}

// Store is the generation cache. All operations are safe for concurrent use
// within one process.
type Store struct {
	opts Options
	log  *zap.SugaredLogger

	mu      sync.Mutex
	metrics Metrics

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Open initializes the cache directory, loads persisted metrics (or
// recomputes them by scanning sidecars), and starts the background cleanup
// timer when configured.
func Open(opts Options, log *zap.SugaredLogger) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("cache directory not configured")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create cache directory %s", opts.Dir)
	}

	s := &Store{
		opts: opts,
		log:  log,
		done: make(chan struct{}),
	}
	s.loadMetrics()

	if opts.CleanupInterval > 0 {
		s.wg.Add(1)
		go s.cleanupLoop()
	}

	return s, nil
}

// Close cancels the background cleanup timer and flushes metrics.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushMetricsLocked()
}

// cleanupLoop runs TTL cleanup and metrics flushes until Close.
func (s *Store) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if removed, err := s.Cleanup(); err != nil {
				s.log.Warnw("Cache cleanup failed", "error", err)
			} else if removed > 0 {
				s.log.Infow("Cache cleanup removed expired entries", "removed", removed)
			}
			s.mu.Lock()
			if err := s.flushMetricsLocked(); err != nil {
				s.log.Warnw("Cache metrics flush failed", "error", err)
			}
			s.mu.Unlock()
		}
	}
}

// Get reads the entry for a fingerprint. Any read or parse failure is
// treated as a miss: the corrupt files are deleted, a warning is logged, and
// absent is returned. Get never returns an error for corruption.
func (s *Store) Get(fp schema.Fingerprint) (*Entry, bool) {
	sc, scErr := s.readSidecar(fp)

	data, compressed, err := s.readEntryFile(fp, sc, scErr == nil)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false
		}
		s.healCorruption(fp, "failed to read cache entry", err)
		return nil, false
	}

	if compressed {
		data, err = gunzip(data)
		if err != nil {
			s.healCorruption(fp, "failed to decompress cache entry", err)
			return nil, false
		}
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.healCorruption(fp, "failed to parse cache entry", err)
		return nil, false
	}

	if !formatCompatible(entry.FormatVersion) {
		s.healCorruption(fp, "incompatible cache entry format version",
			errors.Newf("entry format %q, want %s", entry.FormatVersion, formatConstraint))
		return nil, false
	}

	return &entry, true
}

// Set persists an entry under its fingerprint: stamps creation time and
// format version, serializes, optionally compresses, writes entry plus
// sidecar, updates metrics, and evicts old entries if over budget.
func (s *Store) Set(fp schema.Fingerprint, entry *Entry) error {
	entry.Fingerprint = fp
	entry.CreatedAt = time.Now()
	entry.FormatVersion = FormatVersion

	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(errors.WithSecondary(errors.ErrCacheWriteFailed, err), "failed to serialize cache entry")
	}

	if s.opts.Compression {
		data, err = gzipBytes(data)
		if err != nil {
			return errors.Wrap(errors.WithSecondary(errors.ErrCacheWriteFailed, err), "failed to compress cache entry")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// An overwrite replaces the old entry wholesale; drop its old size from
	// the running totals first.
	if old, err := s.readSidecar(fp); err == nil {
		s.removeEntryFilesLocked(fp, old)
	}

	if err := writeFileAtomic(s.entryPath(fp, s.opts.Compression), data); err != nil {
		return errors.Wrap(errors.WithSecondary(errors.ErrCacheWriteFailed, err), "failed to write cache entry")
	}

	sc := sidecar{
		Timestamp:   entry.CreatedAt,
		Size:        int64(len(data)),
		Compressed:  s.opts.Compression,
		Fingerprint: string(fp),
	}
	scData, err := json.Marshal(sc)
	if err != nil {
		return errors.Wrap(errors.WithSecondary(errors.ErrCacheWriteFailed, err), "failed to serialize sidecar")
	}
	if err := writeFileAtomic(s.sidecarPath(fp), scData); err != nil {
		return errors.Wrap(errors.WithSecondary(errors.ErrCacheWriteFailed, err), "failed to write sidecar")
	}

	s.metrics.EntryCount++
	s.metrics.TotalBytes += sc.Size

	if s.opts.MaxSizeBytes > 0 && s.metrics.TotalBytes > s.opts.MaxSizeBytes {
		s.evictOldEntriesLocked()
	}

	if err := s.flushMetricsLocked(); err != nil {
		s.log.Warnw("Cache metrics flush failed after set", "error", err)
	}
	return nil
}

// Remove deletes an entry and its sidecar, decrementing metrics.
func (s *Store) Remove(fp schema.Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, err := s.readSidecar(fp)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		// Sidecar unreadable: still remove whatever entry files exist.
		sc = sidecar{}
	}
	s.removeEntryFilesLocked(fp, sc)
	return nil
}

// Clear deletes and recreates the cache root and resets metrics to zero.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.opts.Dir); err != nil {
		return errors.Wrapf(err, "failed to remove cache directory %s", s.opts.Dir)
	}
	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to recreate cache directory %s", s.opts.Dir)
	}

	s.metrics = Metrics{}
	return s.flushMetricsLocked()
}

// Cleanup removes entries older than the configured TTL, independent of
// size pressure. Returns the number of entries removed.
func (s *Store) Cleanup() (int, error) {
	if s.opts.TTL <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sidecars, err := s.scanSidecarsLocked()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-s.opts.TTL)
	removed := 0
	for _, sc := range sidecars {
		if sc.Timestamp.Before(cutoff) {
			s.removeEntryFilesLocked(schema.Fingerprint(sc.Fingerprint), sc)
			removed++
		}
	}
	return removed, nil
}

// evictOldEntriesLocked removes the oldest entries until the total tracked
// size falls to 80% of the configured maximum. Each eviction increments the
// eviction counter. Caller holds s.mu.
func (s *Store) evictOldEntriesLocked() {
	sidecars, err := s.scanSidecarsLocked()
	if err != nil {
		s.log.Warnw("Cache eviction scan failed", "error", err)
		return
	}

	sort.Slice(sidecars, func(i, j int) bool {
		return sidecars[i].Timestamp.Before(sidecars[j].Timestamp)
	})

	target := int64(float64(s.opts.MaxSizeBytes) * evictionTargetRatio)
	for _, sc := range sidecars {
		if s.metrics.TotalBytes <= target {
			break
		}
		s.removeEntryFilesLocked(schema.Fingerprint(sc.Fingerprint), sc)
		s.metrics.Evictions++
		s.log.Debugw("Evicted cache entry",
			"fingerprint", sc.Fingerprint,
			"size", sc.Size,
			"created_at", sc.Timestamp)
	}
}

// healCorruption deletes a corrupt entry so that the next cycle regenerates
// it, and adjusts running metrics.
func (s *Store) healCorruption(fp schema.Fingerprint, msg string, err error) {
	s.log.Warnw(msg+", treating as cache miss",
		"fingerprint", string(fp),
		"error", err)

	s.mu.Lock()
	defer s.mu.Unlock()

	sc, scErr := s.readSidecar(fp)
	if scErr != nil {
		sc = sidecar{}
	}
	s.removeEntryFilesLocked(fp, sc)
}

// removeEntryFilesLocked deletes entry + sidecar files and decrements
// metrics. Tolerates already-missing files. Caller holds s.mu.
func (s *Store) removeEntryFilesLocked(fp schema.Fingerprint, sc sidecar) {
	removedAny := false
	for _, path := range []string{
		s.entryPath(fp, true),
		s.entryPath(fp, false),
	} {
		if err := os.Remove(path); err == nil {
			removedAny = true
		}
	}
	os.Remove(s.sidecarPath(fp))

	if removedAny && s.metrics.EntryCount > 0 {
		s.metrics.EntryCount--
		s.metrics.TotalBytes -= sc.Size
		if s.metrics.TotalBytes < 0 {
			s.metrics.TotalBytes = 0
		}
	}
}

// readEntryFile locates and reads the entry file for a fingerprint. The
// sidecar's compressed flag picks the path when available; otherwise both
// candidates are tried.
func (s *Store) readEntryFile(fp schema.Fingerprint, sc sidecar, haveSidecar bool) ([]byte, bool, error) {
	if haveSidecar {
		data, err := os.ReadFile(s.entryPath(fp, sc.Compressed))
		if err != nil {
			return nil, false, errors.Wrap(err, "entry file unreadable")
		}
		return data, sc.Compressed, nil
	}

	if data, err := os.ReadFile(s.entryPath(fp, true)); err == nil {
		return data, true, nil
	}
	data, err := os.ReadFile(s.entryPath(fp, false))
	if err != nil {
		return nil, false, errors.Wrap(err, "entry file unreadable")
	}
	return data, false, nil
}

func (s *Store) readSidecar(fp schema.Fingerprint) (sidecar, error) {
	data, err := os.ReadFile(s.sidecarPath(fp))
	if err != nil {
		return sidecar{}, errors.Wrap(err, "sidecar unreadable")
	}
	var sc sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return sidecar{}, errors.Wrap(err, "sidecar unparsable")
	}
	return sc, nil
}

// scanSidecarsLocked reads every .meta record under the cache root.
// Unparsable sidecars are skipped with a warning.
func (s *Store) scanSidecarsLocked() ([]sidecar, error) {
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan cache directory %s", s.opts.Dir)
	}

	var sidecars []sidecar
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".meta") {
			continue
		}
		fp := strings.TrimSuffix(de.Name(), ".meta")
		sc, err := s.readSidecar(schema.Fingerprint(fp))
		if err != nil {
			s.log.Warnw("Skipping unreadable sidecar", "file", de.Name(), "error", err)
			continue
		}
		sidecars = append(sidecars, sc)
	}
	return sidecars, nil
}

func (s *Store) entryPath(fp schema.Fingerprint, compressed bool) string {
	name := string(fp) + ".json"
	if compressed {
		name += ".gz"
	}
	return filepath.Join(s.opts.Dir, name)
}

func (s *Store) sidecarPath(fp schema.Fingerprint) string {
	return filepath.Join(s.opts.Dir, string(fp)+".meta")
}

func formatCompatible(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return formatConstraint.Check(v)
}

// writeFileAtomic writes via a temp file and rename so that readers never
// observe a partially written entry.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
