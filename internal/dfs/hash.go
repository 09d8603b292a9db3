package dfs

import (
	"context"
	"crypto/sha1" // #nosec G505 -- content equality, not security
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"strings"
	"sync"

	"github.com/jdefrancesco/dskDupes/internal/dsklog"

	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"
	"lukechampine.com/blake3"
)

// For now this will be our max open-file descriptor limit. This value
// is used by the hashing semaphore.
const OpenFileDescLimMax = 2048

// DefaultChunkSize matches the 1 MiB buffers we have always hashed with.
const DefaultChunkSize = 1 << 20

// HashAlgorithm names a digest used when hashing file contents.
type HashAlgorithm string

const (
	HashSHA1   HashAlgorithm = "sha1"
	HashSHA256 HashAlgorithm = "sha256"
	HashSHA512 HashAlgorithm = "sha512"
	HashBLAKE3 HashAlgorithm = "blake3"
)

// SupportedHashAlgorithms lists the accepted --hash values.
func SupportedHashAlgorithms() []HashAlgorithm {
	return []HashAlgorithm{HashSHA1, HashSHA256, HashSHA512, HashBLAKE3}
}

// ParseHashAlgorithm accepts the names above, case insensitively, with or
// without a dash (sha-256).
func ParseHashAlgorithm(name string) (HashAlgorithm, error) {
	n := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", ""))
	for _, algo := range SupportedHashAlgorithms() {
		if string(algo) == n {
			return algo, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownHash, name)
}

// New returns a fresh accumulator for the algorithm.
func (a HashAlgorithm) New() (hash.Hash, error) {
	switch a {
	case HashSHA1:
		return sha1.New(), nil // #nosec G401
	case HashSHA256, "":
		return sha256.New(), nil
	case HashSHA512:
		return sha512.New(), nil
	case HashBLAKE3:
		return blake3.New(32, nil), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHash, string(a))
	}
}

// Hasher streams files through a hash accumulator in fixed-size chunks. It
// is safe for concurrent use.
type Hasher struct {
	fs        afero.Fs
	newHash   func() hash.Hash
	chunkSize int

	// Limits how many files we hold open at once.
	sema *semaphore.Weighted
	// Chunk buffers are reused between files to go easy on the GC.
	bufPool sync.Pool
}

// NewHasher returns a Hasher reading through fs. A chunkSize <= 0 selects
// DefaultChunkSize.
func NewHasher(fs afero.Fs, algo HashAlgorithm, chunkSize int) (*Hasher, error) {
	if _, err := algo.New(); err != nil {
		return nil, err
	}
	return NewHasherFunc(fs, func() hash.Hash {
		h, _ := algo.New()
		return h
	}, chunkSize), nil
}

// NewHasherFunc is like NewHasher but takes the accumulator constructor
// directly, which lets tests plug in any hash.Hash.
func NewHasherFunc(fs afero.Fs, newHash func() hash.Hash, chunkSize int) *Hasher {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	h := &Hasher{
		fs:        fs,
		newHash:   newHash,
		chunkSize: chunkSize,
		sema:      semaphore.NewWeighted(OpenFileDescLimMax),
	}
	h.bufPool.New = func() any {
		buf := make([]byte, h.chunkSize)
		return &buf
	}
	return h
}

// ChunkSize reports the read size used per chunk.
func (h *Hasher) ChunkSize() int { return h.chunkSize }

// Sum hashes the file at path. A read failure part way through is returned
// as a *PathError and no digest is produced.
func (h *Hasher) Sum(ctx context.Context, path string) (Digest, error) {
	sum, _, err := h.sum(ctx, path)
	return sum, err
}

// HashDfile computes and stores the digest of d if it has not been hashed.
// The size of d becomes the number of bytes actually read, so a file that
// changed since the walk is keyed on what was hashed.
func (h *Hasher) HashDfile(ctx context.Context, d *Dfile) error {
	if _, ok := d.Digest(); ok {
		return nil
	}
	sum, n, err := h.sum(ctx, d.FileName())
	if err != nil {
		return err
	}
	if n != d.FileSize() {
		dsklog.Dlogger.Warnf("%s changed size since the walk (%d -> %d bytes)", d.FileName(), d.FileSize(), n)
	}
	d.setDigest(sum, n)
	return nil
}

func (h *Hasher) sum(ctx context.Context, path string) (Digest, int64, error) {
	if err := h.sema.Acquire(ctx, 1); err != nil {
		return "", 0, err
	}
	defer h.sema.Release(1)

	f, err := h.fs.Open(path)
	if err != nil {
		return "", 0, NewPathError("open", path, err)
	}
	defer f.Close()

	bufPtr := h.bufPool.Get().(*[]byte)
	defer h.bufPool.Put(bufPtr)

	acc := h.newHash()
	n, err := copyChunks(ctx, acc, f, *bufPtr)
	if err != nil {
		return "", 0, NewPathError("read", path, err)
	}
	return Digest(acc.Sum(nil)), n, nil
}

// copyChunks feeds r into w one buffer at a time, checking ctx between
// chunks. It returns the number of bytes copied.
func copyChunks(ctx context.Context, w io.Writer, r io.Reader, buf []byte) (int64, error) {
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}
