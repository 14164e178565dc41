// Package oxt assembles extension packages: zip archives carrying a
// META-INF/manifest.xml descriptor.
//
// A Package is bound to its output path when created, collects entries through
// the Add methods, and is written exactly once by Close:
//
// 	pkg := oxt.New("dist/hello.oxt")
// 	rules, _ := filter.New(nil, []string{"**/CVS", "README"})
// 	if err := pkg.AddDirectory("src", rules); err != nil { ... }
// 	if err := pkg.AddOtherFile("LICENSE", "LICENSE"); err != nil { ... }
// 	if err := pkg.Close(); err != nil { ... }
//
// If no entry occupies META-INF/manifest.xml at Close, a manifest listing every
// content entry is generated. The manifest is always the last zip entry.
//
// A Package is not safe for concurrent use.
package oxt

import (
	"archive/zip"
	"crypto"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/lovewebshell/oxtpack/internal/file"
	"github.com/lovewebshell/oxtpack/internal/log"
	digest "github.com/lovewebshell/oxtpack/oxtpack/file"
	"github.com/lovewebshell/oxtpack/oxtpack/filter"
	"github.com/lovewebshell/oxtpack/oxtpack/inspect"
	"github.com/lovewebshell/oxtpack/oxtpack/manifest"
)

type Package struct {
	target  string
	fs      afero.Fs
	modTime time.Time
	method  uint16
	hashes  []crypto.Hash

	entries *registry
	closed  bool
	report  *Report
}

// New returns an empty package that will be written to target on Close.
// Nothing is touched on disk until then.
func New(target string, opts ...Option) *Package {
	p := &Package{
		target:  target,
		fs:      afero.NewOsFs(),
		method:  zip.Deflate,
		hashes:  digest.DefaultHashes,
		entries: newRegistry(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if abs, err := filepath.Abs(target); err == nil {
		p.target = abs
	}
	return p
}

// Target is the absolute path of the output archive.
func (p *Package) Target() string {
	return p.target
}

func (p *Package) Closed() bool {
	return p.closed
}

// AddContent registers source under archivePath, replacing any entry already
// registered there. A directory source adds its whole tree beneath
// archivePath.
func (p *Package) AddContent(archivePath, source string) error {
	return p.add("add content", archivePath, source, Content, "")
}

// AddOtherFile is AddContent for package metadata such as licenses or
// registration descriptors. Such files are archived but not listed in a
// generated manifest.
func (p *Package) AddOtherFile(archivePath, source string) error {
	return p.add("add other file", archivePath, source, Other, "")
}

// AddComponentFile registers a UNO component implemented in language
// ("Java", "Python", "native"). platform may be empty.
func (p *Package) AddComponentFile(archivePath, source, language, platform string) error {
	return p.add("add component", archivePath, source, Content, manifest.ComponentType(language, platform))
}

// AddTypeLibraryFile registers a UNO type library of the given type ("RDB",
// "Java").
func (p *Package) AddTypeLibraryFile(archivePath, source, libType string) error {
	return p.add("add type library", archivePath, source, Content, manifest.TypeLibraryType(libType))
}

// AddPackageDescription registers a localized package description text.
func (p *Package) AddPackageDescription(archivePath, source, locale string) error {
	return p.add("add package description", archivePath, source, Content, manifest.PackageDescriptionType(locale))
}

// AddDirectory walks root and registers every regular file whose
// root-relative path is selected by rules, under that same relative path.
// Directories excluded by rules are not descended into.
func (p *Package) AddDirectory(root string, rules filter.Rules) error {
	if p.closed {
		return fmt.Errorf("add directory %q: %w", root, ErrAlreadyClosed)
	}
	return p.addTree("", root, rules, Content)
}

// AddDirectoryAt is AddDirectory with every archive path placed beneath
// prefix.
func (p *Package) AddDirectoryAt(prefix, root string, rules filter.Rules) error {
	if p.closed {
		return fmt.Errorf("add directory %q: %w", root, ErrAlreadyClosed)
	}
	if prefix != "" {
		if _, err := file.NormalizePath(prefix); err != nil {
			return invalidPath("add directory", prefix, err)
		}
	}
	return p.addTree(prefix, root, rules, Content)
}

func (p *Package) add(op, archivePath, source string, kind Kind, mediaType string) error {
	if p.closed {
		return fmt.Errorf("%s %q: %w", op, archivePath, ErrAlreadyClosed)
	}

	name, err := file.NormalizePath(archivePath)
	if err != nil {
		return invalidPath(op, archivePath, err)
	}

	source, info, err := p.readableSource(source)
	if err != nil {
		return invalidPath(op, source, err)
	}

	if info.IsDir() {
		if mediaType != "" {
			return invalidPath(op, source, fmt.Errorf("%w: expected a file, found a directory", ErrInvalidPath))
		}
		return p.addTree(name, source, filter.All, kind)
	}

	p.register(Entry{
		Path:      name,
		Source:    source,
		Kind:      kind,
		MediaType: mediaType,
	})
	return nil
}

func (p *Package) register(e Entry) {
	previous, replaced := p.entries.put(e)
	if replaced {
		log.Debugf("replacing entry %q: source %q -> %q", e.Path, previous.Source, e.Source)
		return
	}
	log.Debugf("adding %s entry %q from %q", e.Kind, e.Path, e.Source)
}

// readableSource resolves source to an absolute path and proves it can be
// opened. Only regular files and directories qualify.
func (p *Package) readableSource(source string) (string, os.FileInfo, error) {
	if source == "" {
		return source, nil, fmt.Errorf("%w: empty source path", ErrInvalidPath)
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return source, nil, err
	}

	f, err := p.fs.Open(abs)
	if err != nil {
		return abs, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return abs, nil, err
	}
	if !info.Mode().IsRegular() && !info.IsDir() {
		return abs, nil, fmt.Errorf("%w: %s is not a regular file", ErrInvalidPath, abs)
	}
	return abs, info, nil
}

// ContainedFiles returns the source of every registered entry in insertion
// order. The generated manifest is not included.
func (p *Package) ContainedFiles() []string {
	var files []string
	for _, e := range p.entries.all() {
		if e.Kind != Generated {
			files = append(files, e.Source)
		}
	}
	return files
}

// ContainedNames returns the archive path of every registered entry in
// insertion order. The generated manifest is not included.
func (p *Package) ContainedNames() []string {
	var names []string
	for _, e := range p.entries.all() {
		if e.Kind != Generated {
			names = append(names, e.Path)
		}
	}
	return names
}

// Len is the number of registrations, including the generated manifest once
// the package is closed.
func (p *Package) Len() int {
	return p.entries.len()
}

// Entries returns a snapshot of every registration, including the generated
// manifest once the package is closed.
func (p *Package) Entries() []Entry {
	return p.entries.all()
}

// Entry looks up the registration at archivePath, normalized the way the Add
// methods normalize it.
func (p *Package) Entry(archivePath string) (Entry, bool) {
	name, err := file.NormalizePath(archivePath)
	if err != nil {
		return Entry{}, false
	}
	return p.entries.get(name)
}

// HasRegistrationHandlerInside reports whether the jar at path on the host
// filesystem contains the runtime registration marker class.
func HasRegistrationHandlerInside(path string) bool {
	return inspect.HasRegistrationHandler(afero.NewOsFs(), path)
}
