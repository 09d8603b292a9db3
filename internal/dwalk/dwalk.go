// dwalk walks the scan roots and groups files by size. Only files whose
// size is shared with at least one other file are handed on for hashing.
package dwalk

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/jdefrancesco/dskDupes/internal/config"
	"github.com/jdefrancesco/dskDupes/internal/dfs"
	"github.com/jdefrancesco/dskDupes/internal/dsklog"

	"github.com/spf13/afero"
)

// Candidate is a file whose size collides with another file. Index is the
// discovery order across the whole walk.
type Candidate struct {
	Index int
	File  *dfs.Dfile
}

// CandidateSet maps path to size for every file that needs hashing, and
// remembers the order the files were discovered in.
type CandidateSet struct {
	ordered []Candidate
	sizes   map[string]int64
	// Number of regular files seen during the walk.
	scanned int
}

func newCandidateSet() *CandidateSet {
	return &CandidateSet{sizes: make(map[string]int64)}
}

// Len returns the number of candidates.
func (c *CandidateSet) Len() int { return len(c.ordered) }

// Scanned returns how many regular files the walk looked at.
func (c *CandidateSet) Scanned() int { return c.scanned }

// Size returns the size recorded for path and whether it is a candidate.
func (c *CandidateSet) Size(path string) (int64, bool) {
	sz, ok := c.sizes[path]
	return sz, ok
}

// Candidates returns the candidates in discovery order.
func (c *CandidateSet) Candidates() []Candidate { return c.ordered }

// DWalk is the size indexer. It walks roots one after another, in lexical
// order within each root.
type DWalk struct {
	fs  afero.Fs
	cfg config.Config

	// errs collects failures when cfg.ContinueOnError is set.
	errs []error
}

// NewDWalker returns a walker reading through fs.
func NewDWalker(fs afero.Fs, cfg config.Config) *DWalk {
	return &DWalk{fs: fs, cfg: cfg}
}

// Errors returns the failures skipped under ContinueOnError.
func (d *DWalk) Errors() []error { return d.errs }

// Run walks every root and returns the Candidate Set. Unless
// ContinueOnError is set, the first walk or stat failure aborts the scan.
func (d *DWalk) Run(ctx context.Context, roots []string) (*CandidateSet, error) {
	d.errs = nil

	// Size index: size -> discovered files of that size, in order.
	bySize := make(map[int64][]*dfs.Dfile)
	var order []*dfs.Dfile
	// Roots may repeat or nest; a path is indexed once.
	seen := make(map[string]struct{})

	// Our own log is being written while we walk.
	var logPath string
	if d.cfg.LogFile != "" {
		if abs, err := filepath.Abs(d.cfg.LogFile); err == nil {
			logPath = abs
		}
	}

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, dfs.NewPathError("abs", root, err)
		}
		dsklog.Dlogger.Infof("In %s top directory", abs)

		err = afero.Walk(d.fs, abs, func(path string, info fs.FileInfo, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				return d.fail(dfs.NewPathError("walk", path, err))
			}

			name := info.Name()
			if d.cfg.SkipHidden && path != abs && strings.HasPrefix(name, ".") {
				dsklog.Dlogger.Debugf("Skipping hidden entry: %s", path)
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if info.IsDir() {
				dsklog.Dlogger.Debugf("Looking in %s directory", path)
				return nil
			}

			// Skip non-regular files (symlinks, sockets, pipes, device files, etc.)
			if !info.Mode().IsRegular() {
				dsklog.Dlogger.Debugf("Skipping non-regular file: %s (mode: %s)", path, info.Mode())
				return nil
			}

			if _, ok := seen[path]; ok {
				dsklog.Dlogger.Debugf("Already indexed %s. Skipping", path)
				return nil
			}
			seen[path] = struct{}{}

			if path == logPath {
				dsklog.Dlogger.Debugf("Skipping log file %s", path)
				return nil
			}

			if !d.wanted(path, info.Size()) {
				return nil
			}

			dFile, err := dfs.NewDfile(path, info.Size())
			if err != nil {
				return d.fail(err)
			}
			bySize[info.Size()] = append(bySize[info.Size()], dFile)
			order = append(order, dFile)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	set := newCandidateSet()
	set.scanned = len(order)
	for _, dFile := range order {
		if len(bySize[dFile.FileSize()]) < 2 {
			continue
		}
		set.ordered = append(set.ordered, Candidate{Index: len(set.ordered), File: dFile})
		set.sizes[dFile.FileName()] = dFile.FileSize()
	}

	dsklog.Dlogger.Debugf("There are %d files with duplicate sizes", set.Len())
	dsklog.Dlogger.Debugf("There are %d files that have unique sizes", set.scanned-set.Len())
	return set, nil
}

// wanted applies the size filters from the config.
func (d *DWalk) wanted(path string, size int64) bool {
	fileSize := uint64(max(size, 0)) // #nosec G115
	switch {
	case d.cfg.SkipEmpty && fileSize == 0:
		dsklog.Dlogger.Debugf("File %s is empty. Skipping", path)
		return false
	case d.cfg.MinFileSize > 0 && fileSize < uint64(d.cfg.MinFileSize):
		dsklog.Dlogger.Debugf("File %s smaller than minimum. Skipping", path)
		return false
	case d.cfg.MaxFileSize > 0 && fileSize > uint64(d.cfg.MaxFileSize):
		dsklog.Dlogger.Debugf("File %s larger than maximum. Skipping", path)
		return false
	}
	return true
}

// fail either aborts the walk with err or records it and carries on.
func (d *DWalk) fail(err error) error {
	if !d.cfg.ContinueOnError {
		return err
	}
	dsklog.Dlogger.Errorf("Skipping after error: %v", err)
	d.errs = append(d.errs, err)
	return nil
}
