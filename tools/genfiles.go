//go:build tools
// +build tools

// genfiles lays out a tree with known duplicates for trying dskDupes by
// hand: go run -tags tools ./tools/genfiles.go DIR [GROUPS]
package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

var sizes = []int{
	1024,        // 1KiB
	1024 * 1024, // 1MiB
	5*1024*1024 + 17,
}

// Copies written per duplicate group; the first is the original.
const copies = 3

func randBytes(size int) ([]byte, error) {
	b := make([]byte, size)
	_, err := rand.Read(b)
	return b, err
}

func createFiles(dir string, groups int) (int, error) {
	written := 0
	for i := 0; i < groups; i++ {
		data, err := randBytes(sizes[i%len(sizes)])
		if err != nil {
			return written, err
		}
		for c := 0; c < copies; c++ {
			sub := filepath.Join(dir, fmt.Sprintf("copy_%d", c))
			if err := os.MkdirAll(sub, 0o755); err != nil {
				return written, err
			}
			path := filepath.Join(sub, fmt.Sprintf("group_%d.dat", i))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return written, err
			}
			written++
		}

		// Same size, different bytes: must be hashed but is not a duplicate.
		decoy, err := randBytes(len(data))
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("decoy_%d.dat", i)), decoy, 0o644); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: genfiles DIR [GROUPS]")
		os.Exit(2)
	}
	dir := os.Args[1]
	groups := 10
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n < 1 {
			fmt.Fprintln(os.Stderr, "GROUPS must be a positive integer")
			os.Exit(2)
		}
		groups = n
	}

	n, err := createFiles(dir, groups)
	if err != nil {
		fmt.Fprintln(os.Stderr, "genfiles:", err)
		os.Exit(1)
	}
	fmt.Printf("Created %d files in %s; expect %d duplicates\n", n, dir, groups*(copies-1))
}
