/*
Package file computes content digests of the files written into a package.
*/
package file

import (
	"crypto"
	"fmt"
	"hash"
	"io"
	"strings"

	// register the hash implementations reachable through crypto.Hash
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
)

// DefaultHashes are computed for every entry unless configured otherwise.
var DefaultHashes = []crypto.Hash{crypto.SHA256}

type Digest struct {
	Algorithm string `json:"algorithm" yaml:"algorithm"`
	Value     string `json:"value" yaml:"value"`
}

// Digester hashes everything written to it with each configured algorithm.
type Digester struct {
	hashes  []crypto.Hash
	hashers []hash.Hash
	writer  io.Writer
	size    int64
}

func NewDigester(hashes []crypto.Hash) *Digester {
	d := &Digester{hashes: hashes}
	writers := make([]io.Writer, len(hashes))
	for idx, hashObj := range hashes {
		h := hashObj.New()
		d.hashers = append(d.hashers, h)
		writers[idx] = h
	}
	d.writer = io.MultiWriter(writers...)
	return d
}

func (d *Digester) Write(p []byte) (int, error) {
	n, err := d.writer.Write(p)
	d.size += int64(n)
	return n, err
}

// Size is the number of bytes hashed so far.
func (d *Digester) Size() int64 {
	return d.size
}

// Digests returns one digest per configured algorithm. Nothing is reported
// for empty content.
func (d *Digester) Digests() []Digest {
	if d.size == 0 {
		return make([]Digest, 0)
	}

	result := make([]Digest, len(d.hashers))
	for idx, hasher := range d.hashers {
		result[idx] = Digest{
			Algorithm: DigestAlgorithmName(d.hashes[idx]),
			Value:     fmt.Sprintf("%+x", hasher.Sum(nil)),
		}
	}
	return result
}

// DigestsFromReader drains reader and returns its digests.
func DigestsFromReader(reader io.Reader, hashes []crypto.Hash) ([]Digest, error) {
	d := NewDigester(hashes)
	if _, err := io.Copy(d, reader); err != nil {
		return nil, err
	}
	return d.Digests(), nil
}

func DigestAlgorithmName(hash crypto.Hash) string {
	return CleanDigestAlgorithmName(hash.String())
}

func CleanDigestAlgorithmName(name string) string {
	lower := strings.ToLower(name)
	return strings.ReplaceAll(lower, "-", "")
}

// ParseHash resolves an algorithm name such as "sha256" or "SHA-1".
func ParseHash(name string) (crypto.Hash, error) {
	want := CleanDigestAlgorithmName(name)
	for _, h := range []crypto.Hash{crypto.SHA1, crypto.SHA224, crypto.SHA256, crypto.SHA384, crypto.SHA512} {
		if DigestAlgorithmName(h) == want {
			return h, nil
		}
	}
	return 0, fmt.Errorf("unsupported digest algorithm %q", name)
}
