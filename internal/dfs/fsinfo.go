// Utility functions and types for querying information about
// the file systems we scan.
package dfs

import (
	"fmt"

	sigar "github.com/cloudfoundry/gosigar"
)

// RootInfo describes the filesystem a scan root lives on.
type RootInfo struct {
	Root   string
	FSType string
	// Sizes are in bytes.
	Total uint64
	Used  uint64
	Avail uint64
}

// DescribeRoot gathers filesystem type and usage for root. Failure to
// detect the type is not an error; usage failure is.
func DescribeRoot(root string) (RootInfo, error) {
	info := RootInfo{Root: root, FSType: "unknown"}

	if fsType, err := detectFilesystem(root); err == nil {
		info.FSType = fsType
	}

	usage := sigar.FileSystemUsage{}
	if err := usage.Get(root); err != nil {
		return info, NewPathError("statfs", root, err)
	}

	// sigar reports KiB.
	info.Total = usage.Total * 1024
	info.Used = usage.Used * 1024
	info.Avail = usage.Avail * 1024
	return info, nil
}

func (r RootInfo) String() string {
	return fmt.Sprintf("%s on %s: %s total, %s used, %s available",
		r.Root, r.FSType,
		sigar.FormatSize(r.Total), sigar.FormatSize(r.Used), sigar.FormatSize(r.Avail))
}
