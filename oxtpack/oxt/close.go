package oxt

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/lovewebshell/oxtpack/internal/log"
	digest "github.com/lovewebshell/oxtpack/oxtpack/file"
	"github.com/lovewebshell/oxtpack/oxtpack/inspect"
	"github.com/lovewebshell/oxtpack/oxtpack/manifest"
)

const (
	archivePermissions   = 0o644
	directoryPermissions = 0o755
	manifestMediaType    = "text/xml"
)

// zipEpoch stamps a generated manifest when nothing was written before it.
var zipEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Close finalizes the package: it generates the manifest when none was
// registered, writes the archive, and makes the package read-only. The
// manifest is always written last. Close may only be called once; later calls
// return ErrAlreadyClosed and leave the archive alone. On failure the partial
// archive is removed and the package is still closed.
func (p *Package) Close() error {
	if p.closed {
		return fmt.Errorf("close %q: %w", p.target, ErrAlreadyClosed)
	}
	p.closed = true

	manifestSource := ManifestSupplied
	if _, ok := p.entries.get(manifest.Path); !ok {
		data, err := p.buildManifest()
		if err != nil {
			return err
		}
		p.register(Entry{
			Path:      manifest.Path,
			Kind:      Generated,
			MediaType: manifestMediaType,
			data:      data,
		})
		manifestSource = ManifestGenerated
	}

	report, err := p.write()
	if err != nil {
		return err
	}
	report.Manifest = manifestSource
	p.report = report

	log.Infof("wrote package %q with %d entries (%s manifest)", p.target, len(report.Entries), manifestSource)
	return nil
}

func (p *Package) buildManifest() ([]byte, error) {
	var candidates []manifest.Entry
	for _, e := range p.entries.all() {
		if e.Kind != Content {
			continue
		}
		candidates = append(candidates, manifest.Entry{Path: e.Path, MediaType: e.MediaType})
	}

	doc := manifest.NewBuilder(manifest.InspectorFunc(p.requiresRegistration)).Build(candidates)
	data, err := doc.Bytes()
	if err != nil {
		return nil, writeFailure("build manifest", manifest.Path, err)
	}
	return data, nil
}

func (p *Package) requiresRegistration(archivePath string) bool {
	e, ok := p.entries.get(archivePath)
	if !ok {
		return false
	}
	if e.inMemory() {
		return inspect.HasRegistrationHandlerReader(bytes.NewReader(e.data), int64(len(e.data)))
	}
	return inspect.HasRegistrationHandler(p.fs, e.Source)
}

// writeOrder is every entry in insertion order with the manifest moved to
// the end.
func (p *Package) writeOrder() []Entry {
	var ordered []Entry
	var manifestEntry *Entry
	for _, e := range p.entries.all() {
		if e.Path == manifest.Path {
			e := e
			manifestEntry = &e
			continue
		}
		ordered = append(ordered, e)
	}
	if manifestEntry != nil {
		ordered = append(ordered, *manifestEntry)
	}
	return ordered
}

func (p *Package) write() (*Report, error) {
	if err := p.fs.MkdirAll(filepath.Dir(p.target), directoryPermissions); err != nil {
		return nil, writeFailure("create", p.target, err)
	}

	out, err := p.fs.OpenFile(p.target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, archivePermissions)
	if err != nil {
		return nil, writeFailure("create", p.target, err)
	}

	report := &Report{Output: p.target}
	zipWriter := zip.NewWriter(out)

	var (
		errs   error
		newest time.Time
	)
	for _, e := range p.writeOrder() {
		if e.Kind == Generated && e.modTime.IsZero() {
			e.modTime = newest
			if newest.IsZero() {
				e.modTime = zipEpoch
			}
		}
		reportEntry, modified, err := p.writeEntry(zipWriter, e)
		if err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		if modified.After(newest) {
			newest = modified
		}
		report.Entries = append(report.Entries, reportEntry)
	}

	if err := zipWriter.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := out.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}

	if errs != nil {
		if err := p.fs.Remove(p.target); err != nil {
			log.Warnf("unable to remove partial archive %q: %+v", p.target, err)
		}
		return nil, writeFailure("write", p.target, errs)
	}
	return report, nil
}

// writeEntry copies one entry into the archive and returns its report line
// and the modification time recorded for it.
func (p *Package) writeEntry(zipWriter *zip.Writer, e Entry) (ReportEntry, time.Time, error) {
	var (
		src     io.Reader
		mode    = e.mode
		modTime = e.modTime
	)

	if e.inMemory() {
		src = bytes.NewReader(e.data)
	} else {
		f, err := p.fs.Open(e.Source)
		if err != nil {
			return ReportEntry{}, time.Time{}, invalidPath("read", e.Source, err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return ReportEntry{}, time.Time{}, invalidPath("read", e.Source, err)
		}
		src, mode, modTime = f, info.Mode(), info.ModTime()
	}

	if !p.modTime.IsZero() {
		modTime = p.modTime
	}
	if modTime.IsZero() {
		modTime = time.Now()
	}
	if mode.Perm() == 0 {
		mode = archivePermissions
	}

	header := &zip.FileHeader{
		Name:     e.Path,
		Method:   p.method,
		Modified: modTime,
	}
	header.SetMode(mode.Perm())

	w, err := zipWriter.CreateHeader(header)
	if err != nil {
		return ReportEntry{}, time.Time{}, fmt.Errorf("unable to create zip entry %q: %w", e.Path, err)
	}

	digester := digest.NewDigester(p.hashes)
	if _, err := io.Copy(io.MultiWriter(w, digester), src); err != nil {
		return ReportEntry{}, time.Time{}, fmt.Errorf("unable to write zip entry %q: %w", e.Path, err)
	}

	return ReportEntry{
		Path:      e.Path,
		Source:    e.Source,
		Kind:      e.Kind,
		MediaType: p.mediaType(e),
		Size:      digester.Size(),
		Digests:   digester.Digests(),
	}, modTime, nil
}

func (p *Package) mediaType(e Entry) string {
	switch {
	case e.MediaType != "":
		return e.MediaType
	case e.Path == manifest.Path:
		return manifestMediaType
	default:
		return manifest.Classify(e.Path)
	}
}
