package oxt

import (
	"archive/zip"
	"crypto"
	"time"

	"github.com/spf13/afero"
)

type Option func(*Package)

// WithFs reads sources from and writes the archive to fs instead of the host
// filesystem.
func WithFs(fs afero.Fs) Option {
	return func(p *Package) {
		p.fs = fs
	}
}

// WithModTime stamps every entry with t instead of the source's modification
// time, making the archive bytes depend only on the inputs.
func WithModTime(t time.Time) Option {
	return func(p *Package) {
		p.modTime = t.UTC()
	}
}

// WithStore writes entries uncompressed.
func WithStore() Option {
	return func(p *Package) {
		p.method = zip.Store
	}
}

// WithDigests selects the digests reported for every written entry.
func WithDigests(hashes ...crypto.Hash) Option {
	return func(p *Package) {
		p.hashes = hashes
	}
}
