//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly && !windows

package dfs

import "errors"

func detectFilesystem(string) (string, error) {
	return "", errors.New("filesystem detection not supported on this OS")
}
