// This package contains benchmark related logic/tests.
package bench

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jdefrancesco/dskDupes/internal/config"
	"github.com/jdefrancesco/dskDupes/internal/dfs"
	"github.com/jdefrancesco/dskDupes/internal/dmap"
	"github.com/jdefrancesco/dskDupes/internal/dsklog"
	"github.com/jdefrancesco/dskDupes/internal/dwalk"

	"github.com/spf13/afero"
)

func TestMain(m *testing.M) {
	// Use /dev/null to avoid creating log files during benchmarks
	dsklog.InitializeDlogger(os.DevNull)
	os.Exit(m.Run())
}

// makeTree writes n pairs of duplicate files plus n unique-size files.
func makeTree(b *testing.B, n int) string {
	b.Helper()
	dir := b.TempDir()
	for i := range n {
		sub := filepath.Join(dir, "subdir", fmt.Sprintf("level%d", i%4))
		if err := os.MkdirAll(sub, 0o755); err != nil {
			b.Fatal(err)
		}
		data := []byte(fmt.Sprintf("duplicate payload %06d", i))
		for _, name := range []string{"dup1_%d.txt", "dup2_%d.txt"} {
			if err := os.WriteFile(filepath.Join(sub, fmt.Sprintf(name, i)), data, 0o644); err != nil {
				b.Fatal(err)
			}
		}
		unique := make([]byte, 1024+i)
		if err := os.WriteFile(filepath.Join(sub, fmt.Sprintf("unique_%d.bin", i)), unique, 0o644); err != nil {
			b.Fatal(err)
		}
	}
	return dir
}

// BenchmarkHasherChunkSize shows how the chunk size affects throughput on
// a 10 MiB file. The digest is the same for every size.
func BenchmarkHasherChunkSize(b *testing.B) {
	path := filepath.Join(b.TempDir(), "benchfile")
	if err := os.WriteFile(path, make([]byte, 10<<20), 0o644); err != nil {
		b.Fatal(err)
	}

	for _, chunk := range []int{4 << 10, 64 << 10, 1 << 20} {
		for _, algo := range dfs.SupportedHashAlgorithms() {
			b.Run(fmt.Sprintf("%s/%dKiB", algo, chunk>>10), func(b *testing.B) {
				h, err := dfs.NewHasher(afero.NewOsFs(), algo, chunk)
				if err != nil {
					b.Fatal(err)
				}
				b.SetBytes(10 << 20)
				for b.Loop() {
					if _, err := h.Sum(context.Background(), path); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

// BenchmarkDWalkRun benchmarks the size indexing pass on its own.
func BenchmarkDWalkRun(b *testing.B) {
	dir := makeTree(b, 100)
	walker := dwalk.NewDWalker(afero.NewOsFs(), config.Config{})

	for b.Loop() {
		if _, err := walker.Run(context.Background(), []string{dir}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPipeline runs both passes with different worker counts.
func BenchmarkPipeline(b *testing.B) {
	dir := makeTree(b, 100)
	fs := afero.NewOsFs()

	for _, workers := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			cfg := config.Config{HashAlgorithm: dfs.HashSHA256, Workers: workers}
			for b.Loop() {
				cands, err := dwalk.NewDWalker(fs, cfg).Run(context.Background(), []string{dir})
				if err != nil {
					b.Fatal(err)
				}
				hasher, _ := dfs.NewHasher(fs, cfg.HashAlgorithm, 0)
				dMap, err := dmap.NewGrouper(hasher, cfg).Run(context.Background(), cands)
				if err != nil {
					b.Fatal(err)
				}
				if dMap.Len() != 100 {
					b.Fatalf("expected 100 duplicates, got %d", dMap.Len())
				}
			}
		})
	}
}
