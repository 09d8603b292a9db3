// Package dactions holds what we do with a Duplicate Set once we have it:
// delete the duplicates or list them.
package dactions

import (
	"errors"
	"fmt"
	"io"

	"github.com/jdefrancesco/dskDupes/internal/dfs"
	"github.com/jdefrancesco/dskDupes/internal/dmap"
	"github.com/jdefrancesco/dskDupes/internal/dsklog"
)

// Remover deletes a single path. afero.Fs satisfies it.
type Remover interface {
	Remove(name string) error
}

// DeleteResult reports what Delete did.
type DeleteResult struct {
	Deleted []string
	Freed   uint64
	// Failures skipped when continuing past errors.
	Errors []error
}

// Delete removes every path in the Duplicate Set, writing one line per
// deleted path and a closing count to w. Only paths taken from dMap are
// ever removed, so originals always survive. Unless continueOnError is
// set, the first failure stops the run.
func Delete(w io.Writer, rm Remover, dMap *dmap.Dmap, continueOnError bool) (DeleteResult, error) {
	dsklog.Dlogger.Info("Deleting duplicate files now")

	var res DeleteResult
	for _, dup := range dMap.Duplicates() {
		if err := rm.Remove(dup.Path); err != nil {
			err = dfs.NewPathError("remove", dup.Path, err)
			if !continueOnError {
				fmt.Fprintf(w, "a total of %d files were deleted\n", len(res.Deleted))
				return res, err
			}
			dsklog.Dlogger.Errorf("Skipping after error: %v", err)
			res.Errors = append(res.Errors, err)
			continue
		}

		dsklog.Dlogger.Infof("Deleted %s (duplicate of %s)", dup.Path, dup.Original)
		fmt.Fprintf(w, "deleting: %s\n", dup.Path)
		res.Deleted = append(res.Deleted, dup.Path)
		res.Freed += uint64(max(dup.Key.Size, 0)) // #nosec G115
	}

	fmt.Fprintf(w, "a total of %d files were deleted\n", len(res.Deleted))
	return res, errors.Join(res.Errors...)
}

// List writes one line per duplicate with its size and path, followed by
// the duplicate count. It never touches the filesystem.
func List(w io.Writer, dMap *dmap.Dmap) (int, error) {
	count := 0
	for _, dup := range dMap.Duplicates() {
		if _, err := fmt.Fprintf(w, "size: %d - path: %s\n", dup.Key.Size, dup.Path); err != nil {
			return count, fmt.Errorf("write listing: %w", err)
		}
		count++
	}
	if _, err := fmt.Fprintf(w, "dupe count: %d\n", count); err != nil {
		return count, fmt.Errorf("write listing: %w", err)
	}
	return count, nil
}
