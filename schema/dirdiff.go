package schema

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/stackforge/typesync/errors"
)

// DirDiff is the result of comparing two directories of generated output.
// It is a regression-testing aid for generator idempotence, not part of the
// sync hot path.
type DirDiff struct {
	// MissingInB lists relative paths present in A but absent from B
	MissingInB []string
	// Different lists files present in both directories with differing content
	Different []FileDiff
}

// FileDiff describes one file whose content differs between directories.
type FileDiff struct {
	Path string
	// FirstDiffLine is the 1-based line number of the first differing line
	FirstDiffLine int
	// LinesA and LinesB are the line counts of each side
	LinesA int
	LinesB int
}

// Clean reports whether the two directories matched.
func (d *DirDiff) Clean() bool {
	return len(d.MissingInB) == 0 && len(d.Different) == 0
}

// CompareDirectories walks dirA and compares every regular file against the
// file at the same relative path under dirB, line by line.
func CompareDirectories(dirA, dirB string) (*DirDiff, error) {
	diff := &DirDiff{}

	err := filepath.Walk(dirA, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dirA, path)
		if err != nil {
			return err
		}

		contentA, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", path)
		}

		contentB, err := os.ReadFile(filepath.Join(dirB, rel))
		if err != nil {
			if os.IsNotExist(err) {
				diff.MissingInB = append(diff.MissingInB, rel)
				return nil
			}
			return errors.Wrapf(err, "failed to read %s", filepath.Join(dirB, rel))
		}

		if fd, differs := compareLines(rel, contentA, contentB); differs {
			diff.Different = append(diff.Different, fd)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compare %s against %s", dirA, dirB)
	}

	return diff, nil
}

// compareLines finds the first differing line between two file contents.
func compareLines(rel string, a, b []byte) (FileDiff, bool) {
	linesA := strings.Split(string(a), "\n")
	linesB := strings.Split(string(b), "\n")

	fd := FileDiff{Path: rel, LinesA: len(linesA), LinesB: len(linesB)}

	limit := len(linesA)
	if len(linesB) < limit {
		limit = len(linesB)
	}
	for i := 0; i < limit; i++ {
		if linesA[i] != linesB[i] {
			fd.FirstDiffLine = i + 1
			return fd, true
		}
	}
	if len(linesA) != len(linesB) {
		fd.FirstDiffLine = limit + 1
		return fd, true
	}
	return FileDiff{}, false
}
