// Implement our primary data structure Dmap.
//
// Dmap is the Duplicate Set: every file that is a content-identical repeat
// of an earlier file, keyed by path, in the order the duplicates were found.
// The first file of each group is the original and is never in the map.
//
// Files are compared by (digest, size). Hashing runs on a bounded pool of
// workers; results are folded into the digest index in discovery order so
// the lowest-indexed file always wins as the original.
package dmap

import (
	"context"

	"github.com/jdefrancesco/dskDupes/internal/config"
	"github.com/jdefrancesco/dskDupes/internal/dfs"
	"github.com/jdefrancesco/dskDupes/internal/dsklog"
	"github.com/jdefrancesco/dskDupes/internal/dwalk"

	"golang.org/x/sync/errgroup"
)

// Duplicate is one entry of the Duplicate Set.
type Duplicate struct {
	Path string
	Key  dfs.Key
	// Original is the first-seen file with the same key.
	Original string
}

// Dmap structure will hold our file duplication data.
// It is the primary data structure that will house the results
// that will eventually be returned to the user.
type Dmap struct {
	ordered []Duplicate
	byPath  map[string]int
	// Number of distinct (digest, size) keys seen while hashing.
	uniqueCount int
}

// NewDmap returns a new, empty Dmap.
func NewDmap() *Dmap {
	return &Dmap{byPath: make(map[string]int)}
}

// add records path as a duplicate of original. A file is never recorded
// as a duplicate of itself.
func (d *Dmap) add(path string, key dfs.Key, original string) {
	if path == original {
		return
	}
	if _, ok := d.byPath[path]; ok {
		return
	}
	d.byPath[path] = len(d.ordered)
	d.ordered = append(d.ordered, Duplicate{Path: path, Key: key, Original: original})
}

// Len returns the number of duplicates.
func (d *Dmap) Len() int { return len(d.ordered) }

// UniqueCount returns how many hashed candidates turned out to be
// originals.
func (d *Dmap) UniqueCount() int { return d.uniqueCount }

// Get returns the entry for path.
func (d *Dmap) Get(path string) (Duplicate, bool) {
	i, ok := d.byPath[path]
	if !ok {
		return Duplicate{}, false
	}
	return d.ordered[i], true
}

// Contains reports whether path is a duplicate.
func (d *Dmap) Contains(path string) bool {
	_, ok := d.byPath[path]
	return ok
}

// Duplicates returns the entries in first-duplicate-encountered order.
func (d *Dmap) Duplicates() []Duplicate { return d.ordered }

// Paths returns the duplicate paths in order.
func (d *Dmap) Paths() []string {
	out := make([]string, len(d.ordered))
	for i, dup := range d.ordered {
		out[i] = dup.Path
	}
	return out
}

// Group is an original together with all of its duplicates.
type Group struct {
	Original   string
	Key        dfs.Key
	Duplicates []string
}

// Groups collects the duplicates by original, ordered by the position of
// each group's first duplicate.
func (d *Dmap) Groups() []Group {
	idx := make(map[string]int)
	var groups []Group
	for _, dup := range d.ordered {
		i, ok := idx[dup.Original]
		if !ok {
			i = len(groups)
			idx[dup.Original] = i
			groups = append(groups, Group{Original: dup.Original, Key: dup.Key})
		}
		groups[i].Duplicates = append(groups[i].Duplicates, dup.Path)
	}
	return groups
}

// ReclaimableBytes is the space freed by removing every duplicate.
func (d *Dmap) ReclaimableBytes() uint64 {
	var total uint64
	for _, dup := range d.ordered {
		total += uint64(max(dup.Key.Size, 0)) // #nosec G115
	}
	return total
}

// Grouper is the hash pass. It turns a Candidate Set into a Dmap.
type Grouper struct {
	hasher          *dfs.Hasher
	workers         int
	continueOnError bool

	errs []error
}

// NewGrouper returns a Grouper hashing with hasher on cfg.Workers
// goroutines.
func NewGrouper(hasher *dfs.Hasher, cfg config.Config) *Grouper {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Grouper{
		hasher:          hasher,
		workers:         workers,
		continueOnError: cfg.ContinueOnError,
	}
}

// Errors returns the per-file failures skipped under ContinueOnError.
func (g *Grouper) Errors() []error { return g.errs }

// Run hashes every candidate and returns the Duplicate Set. Unless
// ContinueOnError is set the first hashing failure cancels the remaining
// work and is returned.
func (g *Grouper) Run(ctx context.Context, candidates *dwalk.CandidateSet) (*Dmap, error) {
	g.errs = nil
	cands := candidates.Candidates()
	// Per-candidate failures, indexed by discovery order.
	failures := make([]error, len(cands))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, c := range cands {
		eg.Go(func() error {
			err := g.hasher.HashDfile(egCtx, c.File)
			failures[i] = err
			if err != nil && !g.continueOnError {
				return err
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Digest index: (digest, size) -> first-seen path.
	seen := make(map[dfs.Key]string)
	dMap := NewDmap()
	for i, c := range cands {
		if err := failures[i]; err != nil {
			dsklog.Dlogger.Errorf("Skipping after error: %v", err)
			g.errs = append(g.errs, err)
			continue
		}
		key := c.File.Key()
		if original, ok := seen[key]; ok {
			dMap.add(c.File.FileName(), key, original)
			dsklog.Dlogger.Infof("%s is a duplicate of %s", c.File.FileName(), original)
			continue
		}
		seen[key] = c.File.FileName()
		dMap.uniqueCount++
	}

	dsklog.Dlogger.Infof("Same size file dupe count: %d", dMap.Len())
	dsklog.Dlogger.Infof("Same size unique count: %d", dMap.uniqueCount)
	return dMap, nil
}
