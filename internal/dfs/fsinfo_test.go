package dfs

import (
	"strings"
	"testing"
)

func TestDescribeRoot(t *testing.T) {
	dir := t.TempDir()

	info, err := DescribeRoot(dir)
	if err != nil {
		t.Skipf("filesystem usage unavailable: %v", err)
	}
	if info.Root != dir {
		t.Errorf("Root = %q, want %q", info.Root, dir)
	}
	if info.FSType == "" {
		t.Error("FSType should never be empty")
	}
	if info.Total == 0 {
		t.Error("expected non-zero total size")
	}
	if !strings.HasPrefix(info.String(), dir+" on ") {
		t.Errorf("unexpected String(): %q", info.String())
	}
}
