package dfs

import (
	"encoding/hex"
	"errors"
	"path/filepath"
)

// Digest holds the raw bytes of a content hash. It is a string so it can be
// used directly as a map key.
type Digest string

// Hex returns the digest as lowercase hex for display purposes.
func (d Digest) Hex() string { return hex.EncodeToString([]byte(d)) }

// Key is what two files must share to be considered identical. Size is
// carried along so a change of hash function can never merge files of
// different lengths.
type Key struct {
	Digest Digest
	Size   int64
}

// Dfile structure will describe a given file. We
// only care about the few file properties that will
// allow us to detect a duplicate.
type Dfile struct {
	fileName string
	fileSize int64
	digest   Digest
	hashed   bool
}

// NewDfile creates a new Dfile. The name is made absolute; the digest is
// computed later by Hasher.
func NewDfile(fName string, fSize int64) (*Dfile, error) {
	if fName == "" {
		return nil, errors.New("file name needs to be specified")
	}

	fullFileName, err := filepath.Abs(fName)
	if err != nil {
		return nil, NewPathError("abs", fName, err)
	}

	return &Dfile{
		fileName: fullFileName,
		fileSize: fSize,
	}, nil
}

// FileName will return the name of the file currently described by the dfile
func (d *Dfile) FileName() string { return d.fileName }

// FileSize will return the size of the file described by dfile object.
// Once hashed it is the number of bytes that went into the digest.
func (d *Dfile) FileSize() int64 { return d.fileSize }

// Digest returns the content digest and whether it has been computed.
func (d *Dfile) Digest() (Digest, bool) { return d.digest, d.hashed }

// Key returns the (digest, size) comparison key. It is only meaningful
// once the file has been hashed.
func (d *Dfile) Key() Key { return Key{Digest: d.digest, Size: d.fileSize} }

// setDigest records the digest and the byte count it covers. Later calls
// are ignored.
func (d *Dfile) setDigest(sum Digest, size int64) {
	if d.hashed {
		return
	}
	d.digest = sum
	d.fileSize = size
	d.hashed = true
}
