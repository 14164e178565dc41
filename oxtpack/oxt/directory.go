package oxt

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/lovewebshell/oxtpack/internal/file"
	"github.com/lovewebshell/oxtpack/internal/log"
	"github.com/lovewebshell/oxtpack/oxtpack/filter"
)

// addTree registers the files below root, in lexical walk order, as
// prefix/<root-relative path>. Symbolic links to regular files are followed;
// links to directories are not descended into.
func (p *Package) addTree(prefix, root string, rules filter.Rules, kind Kind) error {
	root, info, err := p.readableSource(root)
	if err != nil {
		return invalidPath("walk", root, err)
	}
	if !info.IsDir() {
		return invalidPath("walk", root, fmt.Errorf("%w: not a directory", ErrInvalidPath))
	}

	log.Debugf("indexing directory=%q includes=%q excludes=%q", root, rules.Includes(), rules.Excludes())

	return afero.Walk(p.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return invalidPath("walk", path, err)
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return invalidPath("walk", path, err)
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rules.Prunes(rel) {
				log.Debugf("skipping excluded directory %q", rel)
				return filepath.SkipDir
			}
			return nil
		}

		if !p.isRegularFile(path, info) {
			log.Debugf("skipping non-regular file %q", rel)
			return nil
		}
		if !rules.Match(rel) {
			log.Debugf("skipping filtered file %q", rel)
			return nil
		}

		name, err := file.JoinPath(prefix, rel)
		if err != nil {
			return invalidPath("walk", path, err)
		}
		p.register(Entry{
			Path:   name,
			Source: path,
			Kind:   kind,
		})
		return nil
	})
}

func (p *Package) isRegularFile(path string, info os.FileInfo) bool {
	if info.Mode()&os.ModeSymlink == 0 {
		return info.Mode().IsRegular()
	}
	target, err := p.fs.Stat(path)
	return err == nil && target.Mode().IsRegular()
}
