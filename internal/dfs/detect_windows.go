//go:build windows

package dfs

import (
	"path/filepath"

	"golang.org/x/sys/windows"
)

func detectFilesystem(path string) (string, error) {
	full, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	p, err := windows.UTF16PtrFromString(full)
	if err != nil {
		return "", err
	}

	// GetVolumeInformation wants the volume root, not an arbitrary directory.
	volPath := make([]uint16, windows.MAX_PATH)
	if err := windows.GetVolumePathName(p, &volPath[0], uint32(len(volPath))); err != nil {
		return "", err
	}

	fsName := make([]uint16, windows.MAX_PATH)
	var serial, maxCompLen, flags uint32
	err = windows.GetVolumeInformation(
		&volPath[0],
		nil, 0,
		&serial,
		&maxCompLen,
		&flags,
		&fsName[0],
		uint32(len(fsName)),
	)
	if err != nil {
		return "", err
	}

	return windows.UTF16ToString(fsName), nil
}
