//go:build darwin || freebsd || openbsd || netbsd || dragonfly

package dfs

import (
	"syscall"
)

// fsTypeName trims the NUL padded Fstypename array.
func fsTypeName(arr []int8) string {
	buf := make([]byte, 0, len(arr))
	for _, c := range arr {
		if c == 0 {
			break
		}
		buf = append(buf, byte(c))
	}
	if len(buf) == 0 {
		return "unknown"
	}
	return string(buf)
}

func detectFilesystem(path string) (string, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return "", err
	}
	return fsTypeName(stat.Fstypename[:]), nil
}
