//go:build unix

package dmap

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// openFileSecure opens fileName relative to dirPath and refuses to follow a
// symlink planted at the final component.
func openFileSecure(absPath, dirPath, fileName string) (*os.File, error) {
	if cleaned := filepath.Clean(fileName); cleaned == "." || cleaned == ".." || cleaned != fileName {
		return nil, fmt.Errorf("invalid output filename %q", fileName)
	}

	// #nosec G304 -- dirPath comes from a cleaned absolute path
	dir, err := os.Open(dirPath)
	if err != nil {
		return nil, fmt.Errorf("open directory %s: %w", dirPath, err)
	}
	defer dir.Close()

	flags := unix.O_WRONLY | unix.O_CREAT | unix.O_TRUNC | unix.O_CLOEXEC | unix.O_NOFOLLOW
	fd, err := unix.Openat(int(dir.Fd()), fileName, flags, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open output file %s: %w", absPath, err)
	}

	return os.NewFile(uintptr(fd), absPath), nil
}
