package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/stackforge/typesync/errors"
)

// checksumIndex maps generated file paths to their last-known content
// checksums. It validates that a cache hit's files still exist unmodified
// on disk. Persisted alongside the cache, loaded at orchestrator startup.
type checksumIndex struct {
	path string

	mu sync.Mutex
	m  map[string]string
}

// loadChecksumIndex reads the index file; a missing file yields an empty
// index, a corrupt one is discarded.
func loadChecksumIndex(path string) *checksumIndex {
	idx := &checksumIndex{
		path: path,
		m:    make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return idx
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return idx
	}
	idx.m = m
	return idx
}

// Get returns the recorded checksum for a path.
func (idx *checksumIndex) Get(path string) (string, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	sum, ok := idx.m[path]
	return sum, ok
}

// Set records a checksum for a path.
func (idx *checksumIndex) Set(path, checksum string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.m[path] = checksum
}

// Save persists the index.
func (idx *checksumIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	data, err := json.Marshal(idx.m)
	if err != nil {
		return errors.Wrap(err, "failed to serialize checksum index")
	}
	if err := os.MkdirAll(filepath.Dir(idx.path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create checksum index directory")
	}
	tmp := idx.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write checksum index")
	}
	if err := os.Rename(tmp, idx.path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "failed to replace checksum index")
	}
	return nil
}

// FileChecksum computes the hex SHA-256 of a file's content.
func FileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "failed to hash %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
