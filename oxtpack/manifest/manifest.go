/*
Package manifest classifies package entries and reads and writes the
META-INF/manifest.xml descriptor of an extension package.
*/
package manifest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/scylladb/go-set/strset"

	"github.com/lovewebshell/oxtpack/internal"
	"github.com/lovewebshell/oxtpack/internal/log"
)

const (
	// Path is the reserved archive path of the manifest.
	Path = MetaInfDir + "/manifest.xml"
	// MetaInfDir holds package metadata; nothing below it is listed.
	MetaInfDir = "META-INF"

	Namespace = "http://openoffice.org/2001/manifest"

	doctype = `<!DOCTYPE manifest:manifest PUBLIC "-//OpenOffice.org//DTD Manifest 1.0//EN" "Manifest.dtd">`
)

type Document struct {
	XMLName xml.Name    `xml:"manifest:manifest"`
	Xmlns   string      `xml:"xmlns:manifest,attr"`
	Entries []FileEntry `xml:"manifest:file-entry"`
}

type FileEntry struct {
	FullPath  string `xml:"manifest:full-path,attr"`
	MediaType string `xml:"manifest:media-type,attr"`
	// RequiresRegistration is only set for Java component jars.
	RequiresRegistration *bool `xml:"manifest:requires-registration,attr,omitempty"`
}

// Bytes serializes the document with its XML declaration and doctype.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) WriteTo(w io.Writer) (int64, error) {
	body, err := xml.MarshalIndent(d, "", " ")
	if err != nil {
		return 0, fmt.Errorf("unable to encode manifest: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(doctype + "\n")
	buf.Write(body)
	buf.WriteString("\n")

	return buf.WriteTo(w)
}

// Lookup returns the record for an archive path.
func (d *Document) Lookup(fullPath string) (FileEntry, bool) {
	for _, e := range d.Entries {
		if e.FullPath == fullPath {
			return e, true
		}
	}
	return FileEntry{}, false
}

type parsedDocument struct {
	Entries []struct {
		FullPath             string `xml:"full-path,attr"`
		MediaType            string `xml:"media-type,attr"`
		RequiresRegistration *bool  `xml:"requires-registration,attr"`
	} `xml:"file-entry"`
}

// Parse reads a manifest document. Records are matched by local name so any
// namespace prefix is accepted.
func Parse(r io.Reader) (*Document, error) {
	var parsed parsedDocument
	if err := xml.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("unable to parse manifest: %w", err)
	}

	doc := newDocument()
	for _, e := range parsed.Entries {
		doc.Entries = append(doc.Entries, FileEntry{
			FullPath:             e.FullPath,
			MediaType:            e.MediaType,
			RequiresRegistration: e.RequiresRegistration,
		})
	}
	return doc, nil
}

func newDocument() *Document {
	return &Document{Xmlns: Namespace}
}

// IsReserved reports whether an archive path is the manifest itself or lives
// under META-INF/.
func IsReserved(archivePath string) bool {
	return archivePath == Path || internal.HasAnyOfPrefixes(archivePath, MetaInfDir+"/")
}

// Entry is one candidate record handed to the Builder.
type Entry struct {
	Path string
	// MediaType declares the type and overrides the classifier when set.
	MediaType string
}

type Classifier interface {
	Classify(archivePath string) string
}

// Inspector decides whether the jar registered at an archive path needs
// runtime registration.
type Inspector interface {
	RequiresRegistration(archivePath string) bool
}

type InspectorFunc func(archivePath string) bool

func (f InspectorFunc) RequiresRegistration(archivePath string) bool {
	return f(archivePath)
}

// Builder synthesizes a manifest from an ordered entry list.
type Builder struct {
	Classifier Classifier
	Inspector  Inspector
}

func NewBuilder(inspector Inspector) Builder {
	return Builder{
		Classifier: DefaultClassifier,
		Inspector:  inspector,
	}
}

// Build lists every entry once, in the order given, skipping reserved paths.
// A jar whose type was classified rather than declared is left out when the
// Inspector finds the registration marker inside it. Declared Java components
// are always listed with their registration flag.
func (b Builder) Build(entries []Entry) *Document {
	classifier := b.Classifier
	if classifier == nil {
		classifier = DefaultClassifier
	}

	doc := newDocument()
	seen := strset.New()

	for _, e := range entries {
		if IsReserved(e.Path) || seen.Has(e.Path) {
			continue
		}
		seen.Add(e.Path)

		record := FileEntry{
			FullPath:  e.Path,
			MediaType: e.MediaType,
		}
		if record.MediaType == "" {
			record.MediaType = classifier.Classify(e.Path)
		}

		if IsJavaComponent(record.MediaType) {
			required := b.Inspector != nil && b.Inspector.RequiresRegistration(e.Path)
			if required && e.MediaType == "" {
				log.Debugf("leaving %q out of the manifest: it carries its own registration handler", e.Path)
				continue
			}
			record.RequiresRegistration = &required
		}

		log.Debugf("manifest entry path=%q media-type=%q", record.FullPath, record.MediaType)
		doc.Entries = append(doc.Entries, record)
	}

	return doc
}

func (e FileEntry) String() string {
	var sb strings.Builder
	sb.WriteString(e.FullPath)
	sb.WriteString(" (")
	sb.WriteString(e.MediaType)
	if e.RequiresRegistration != nil && *e.RequiresRegistration {
		sb.WriteString(", requires registration")
	}
	sb.WriteString(")")
	return sb.String()
}
