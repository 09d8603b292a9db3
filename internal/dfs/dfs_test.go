package dfs

import (
	"bytes"
	"context"
	"crypto/sha1" // #nosec G505
	"crypto/sha256"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jdefrancesco/dskDupes/internal/dsklog"
	"github.com/spf13/afero"
	"lukechampine.com/blake3"
)

// Need to initialize logger
func TestMain(m *testing.M) {
	dsklog.InitializeDlogger(os.DevNull)
	os.Exit(m.Run())
}

// multiChunk returns data spanning several chunks with a ragged tail.
func multiChunk(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i*7 + i/251)
	}
	return data
}

func TestNewDfile(t *testing.T) {
	if _, err := NewDfile("", 10); err == nil {
		t.Fatal("expected error for empty file name")
	}

	d, err := NewDfile("some/relative/file.bin", 42)
	if err != nil {
		t.Fatalf("NewDfile failed: %v", err)
	}
	if !filepath.IsAbs(d.FileName()) {
		t.Errorf("expected absolute path, got %q", d.FileName())
	}
	if d.FileSize() != 42 {
		t.Errorf("FileSize = %d", d.FileSize())
	}
	if _, ok := d.Digest(); ok {
		t.Error("digest should not be computed yet")
	}
}

// The digest must not depend on the chunk size, and must match the
// one-shot reference implementation.
func TestSumIndependentOfChunkSize(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := multiChunk(3*4096 + 123)
	if err := afero.WriteFile(fs, "/data.bin", data, 0o644); err != nil {
		t.Fatal(err)
	}

	want256 := sha256.Sum256(data)
	want1 := sha1.Sum(data) // #nosec G401
	wantB3 := blake3.Sum256(data)

	tests := []struct {
		algo HashAlgorithm
		want []byte
	}{
		{HashSHA256, want256[:]},
		{HashSHA1, want1[:]},
		{HashBLAKE3, wantB3[:]},
	}

	for _, tc := range tests {
		for _, chunk := range []int{1, 7, 1024, 4096, 1 << 20} {
			h, err := NewHasher(fs, tc.algo, chunk)
			if err != nil {
				t.Fatalf("NewHasher(%s): %v", tc.algo, err)
			}
			got, err := h.Sum(context.Background(), "/data.bin")
			if err != nil {
				t.Fatalf("Sum(%s, chunk=%d): %v", tc.algo, chunk, err)
			}
			if !bytes.Equal([]byte(got), tc.want) {
				t.Errorf("%s chunk=%d: digest %s mismatches reference", tc.algo, chunk, got.Hex())
			}
		}
	}
}

func TestSumOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.bin")
	data := multiChunk(10_000)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := NewHasher(afero.NewOsFs(), HashSHA256, 512)
	if err != nil {
		t.Fatal(err)
	}
	got, err := h.Sum(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	want := sha256.Sum256(data)
	if got != Digest(want[:]) {
		t.Errorf("digest mismatch: %s", got.Hex())
	}
}

func TestEmptyFileDigest(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/empty", nil, 0o644); err != nil {
		t.Fatal(err)
	}
	h, _ := NewHasher(fs, HashSHA256, 0)
	got, err := h.Sum(context.Background(), "/empty")
	if err != nil {
		t.Fatal(err)
	}
	if got.Hex() != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("unexpected empty digest %s", got.Hex())
	}
	if h.ChunkSize() != DefaultChunkSize {
		t.Errorf("ChunkSize = %d, want default", h.ChunkSize())
	}
}

func TestSumMissingFile(t *testing.T) {
	h, _ := NewHasher(afero.NewMemMapFs(), HashSHA256, 0)
	_, err := h.Sum(context.Background(), "/nope")

	var pe *PathError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PathError, got %v", err)
	}
	if pe.Op != "open" || pe.Path != "/nope" {
		t.Errorf("unexpected PathError %+v", pe)
	}
}

var errDisk = errors.New("disk on fire")

// flakyFs returns files whose reads fail after the first chunk.
type flakyFs struct{ afero.Fs }

func (f flakyFs) Open(name string) (afero.File, error) {
	file, err := f.Fs.Open(name)
	if err != nil {
		return nil, err
	}
	return &flakyFile{File: file}, nil
}

type flakyFile struct {
	afero.File
	reads int
}

func (f *flakyFile) Read(p []byte) (int, error) {
	f.reads++
	if f.reads > 1 {
		return 0, errDisk
	}
	return f.File.Read(p)
}

func TestSumReadFailureIsFatal(t *testing.T) {
	mem := afero.NewMemMapFs()
	if err := afero.WriteFile(mem, "/big", multiChunk(4096), 0o644); err != nil {
		t.Fatal(err)
	}

	h, _ := NewHasher(flakyFs{mem}, HashSHA256, 1024)
	sum, err := h.Sum(context.Background(), "/big")
	if !errors.Is(err, errDisk) {
		t.Fatalf("expected errDisk, got %v", err)
	}
	if sum != "" {
		t.Errorf("partial digest leaked: %s", sum.Hex())
	}

	var pe *PathError
	if !errors.As(err, &pe) || pe.Op != "read" {
		t.Errorf("expected read PathError, got %v", err)
	}
}

func TestSumCancelled(t *testing.T) {
	mem := afero.NewMemMapFs()
	_ = afero.WriteFile(mem, "/f", []byte("data"), 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h, _ := NewHasher(mem, HashSHA256, 0)
	if _, err := h.Sum(ctx, "/f"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHashDfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("xxxxxxxxxx"), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := NewDfile(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	h, _ := NewHasher(afero.NewOsFs(), HashSHA256, 4)
	if err := h.HashDfile(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	sum, ok := d.Digest()
	if !ok {
		t.Fatal("digest not recorded")
	}
	want := sha256.Sum256([]byte("xxxxxxxxxx"))
	if d.Key() != (Key{Digest: Digest(want[:]), Size: 10}) {
		t.Errorf("unexpected key for %s", sum.Hex())
	}
}

// A file that grew after the walk is keyed on the bytes actually hashed,
// not the size the walk saw.
func TestHashDfileUsesHashedSize(t *testing.T) {
	mem := afero.NewMemMapFs()
	content := []byte("grown since the walk")
	if err := afero.WriteFile(mem, "/g", content, 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := NewDfile("/g", 3)
	if err != nil {
		t.Fatal(err)
	}
	h, _ := NewHasher(mem, HashSHA256, 4)
	if err := h.HashDfile(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	want := sha256.Sum256(content)
	if got := d.Key(); got != (Key{Digest: Digest(want[:]), Size: int64(len(content))}) {
		t.Errorf("Key = {%s, %d}, want size %d", got.Digest.Hex(), got.Size, len(content))
	}

	// A second call keeps the first result.
	_ = afero.WriteFile(mem, "/g", []byte("x"), 0o644)
	if err := h.HashDfile(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	if d.FileSize() != int64(len(content)) {
		t.Errorf("digest recomputed, size now %d", d.FileSize())
	}
}

func TestCustomHashFunc(t *testing.T) {
	mem := afero.NewMemMapFs()
	_ = afero.WriteFile(mem, "/f", []byte("abc"), 0o644)

	h := NewHasherFunc(mem, hashStub{}.newHash, 2)
	got, err := h.Sum(context.Background(), "/f")
	if err != nil {
		t.Fatal(err)
	}
	if got != "abc" {
		t.Errorf("got %q, want the identity digest", string(got))
	}
}

func TestParseHashAlgorithm(t *testing.T) {
	good := map[string]HashAlgorithm{
		"sha1":    HashSHA1,
		"SHA-256": HashSHA256,
		"sha512":  HashSHA512,
		"blake3":  HashBLAKE3,
	}
	for in, want := range good {
		got, err := ParseHashAlgorithm(in)
		if err != nil || got != want {
			t.Errorf("ParseHashAlgorithm(%q) = %q, %v", in, got, err)
		}
	}

	if _, err := ParseHashAlgorithm("md5"); !errors.Is(err, ErrUnknownHash) {
		t.Errorf("expected ErrUnknownHash, got %v", err)
	}
	if _, err := NewHasher(afero.NewMemMapFs(), "crc32", 0); !errors.Is(err, ErrUnknownHash) {
		t.Errorf("expected ErrUnknownHash from NewHasher, got %v", err)
	}
}

func TestPathErrorWrapping(t *testing.T) {
	inner := &PathError{Op: "read", Path: "/a", Err: io.ErrUnexpectedEOF}
	if got := NewPathError("hash", "/a", inner); got != error(inner) {
		t.Errorf("existing PathError should not be rewrapped: %v", got)
	}
	err := NewPathError("remove", "/b", os.ErrPermission)
	if err.Error() != "remove /b: permission denied" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Error("PathError should unwrap to the cause")
	}
}

func FuzzSumChunkSize(f *testing.F) {
	f.Add([]byte("hello world"), 3)
	f.Add([]byte{}, 1)
	f.Add(multiChunk(5000), 999)

	f.Fuzz(func(t *testing.T, data []byte, chunk int) {
		if chunk <= 0 || chunk > 1<<16 {
			return
		}
		mem := afero.NewMemMapFs()
		if err := afero.WriteFile(mem, "/fuzz", data, 0o644); err != nil {
			t.Fatal(err)
		}
		h, _ := NewHasher(mem, HashSHA256, chunk)
		got, err := h.Sum(context.Background(), "/fuzz")
		if err != nil {
			t.Fatal(err)
		}
		want := sha256.Sum256(data)
		if got != Digest(want[:]) {
			t.Errorf("chunk=%d digest mismatch", chunk)
		}
	})
}
