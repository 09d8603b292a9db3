//go:build linux

package dfs

import (
	"fmt"
	"syscall"
)

// Statfs magic numbers for the filesystems we are likely to scan.
var linuxFSMagic = map[int64]string{
	0xEF53:     "ext2/ext3/ext4",
	0x9123683E: "btrfs",
	0x58465342: "xfs",
	0x5346544e: "ntfs",
	0x01021994: "tmpfs",
	0x73717368: "squashfs",
	0x2fc12fc1: "zfs",
	0x62656572: "f2fs",
	0x794c7630: "overlayfs",
	0x6969:     "nfs",
	0xFF534D42: "cifs",
	0x65735546: "fuse",
	0x858458f6: "ramfs",
}

func detectFilesystem(path string) (string, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return "", err
	}

	magic := int64(stat.Type) // #nosec G115 -- int32 on some arches
	if name, ok := linuxFSMagic[magic]; ok {
		return name, nil
	}
	return fmt.Sprintf("unknown (magic=0x%x)", magic), nil
}
