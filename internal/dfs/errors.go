package dfs

import (
	"errors"
	"fmt"
)

// ErrUnknownHash is returned when a hash algorithm name is not recognised.
var ErrUnknownHash = errors.New("unknown hash algorithm")

// PathError records the operation and path that failed during a scan,
// hash or delete.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// NewPathError wraps err unless it already is a *PathError.
func NewPathError(op, path string, err error) error {
	var pe *PathError
	if errors.As(err, &pe) {
		return err
	}
	return &PathError{Op: op, Path: path, Err: err}
}
