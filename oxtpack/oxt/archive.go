package oxt

import (
	"fmt"
	"path/filepath"

	"github.com/lovewebshell/oxtpack/internal/file"
	"github.com/lovewebshell/oxtpack/internal/log"
	"github.com/lovewebshell/oxtpack/oxtpack/filter"
)

// AddArchive imports the members of an existing archive whose paths are
// selected by rules, under the same (normalized) paths. Zip-format files are
// recognised by content; tar-family archives by extension. Member contents
// are held in memory until Close.
func (p *Package) AddArchive(archive string, rules filter.Rules) error {
	if p.closed {
		return fmt.Errorf("add archive %q: %w", archive, ErrAlreadyClosed)
	}

	abs, info, err := p.readableSource(archive)
	if err != nil {
		return invalidPath("add archive", archive, err)
	}
	if info.IsDir() {
		return invalidPath("add archive", abs, fmt.Errorf("%w: expected an archive, found a directory", ErrInvalidPath))
	}

	selectFn := func(name string) bool {
		normalized, err := file.NormalizePath(name)
		return err == nil && rules.Match(normalized)
	}

	members, err := file.ReadArchive(p.fs, abs, selectFn)
	if err != nil {
		return invalidPath("add archive", abs, err)
	}

	for _, m := range members {
		name, err := file.NormalizePath(m.Name)
		if err != nil {
			return invalidPath("add archive", m.Name, err)
		}
		data := m.Data
		if data == nil {
			data = []byte{}
		}
		p.register(Entry{
			Path:    name,
			Source:  abs + ":" + filepath.ToSlash(m.Name),
			Kind:    Content,
			data:    data,
			mode:    m.Mode,
			modTime: m.ModTime,
		})
	}

	log.Debugf("imported %d members from %q", len(members), abs)
	return nil
}
