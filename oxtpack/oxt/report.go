package oxt

import (
	digest "github.com/lovewebshell/oxtpack/oxtpack/file"
)

// ManifestSource tells whether the written manifest came from the caller or
// was generated.
type ManifestSource string

const (
	ManifestSupplied  ManifestSource = "supplied"
	ManifestGenerated ManifestSource = "generated"
)

// Report describes what Close wrote, in archive order.
type Report struct {
	Output   string         `json:"output" yaml:"output"`
	Manifest ManifestSource `json:"manifest" yaml:"manifest"`
	Entries  []ReportEntry  `json:"entries" yaml:"entries"`
}

type ReportEntry struct {
	Path      string          `json:"path" yaml:"path"`
	Source    string          `json:"source,omitempty" yaml:"source,omitempty"`
	Kind      Kind            `json:"kind" yaml:"kind"`
	MediaType string          `json:"mediaType" yaml:"mediaType"`
	Size      int64           `json:"size" yaml:"size"`
	Digests   []digest.Digest `json:"digests,omitempty" yaml:"digests,omitempty"`
}

// Report is nil until Close succeeds.
func (p *Package) Report() *Report {
	return p.report
}

// TotalSize is the uncompressed size of every written entry.
func (r *Report) TotalSize() int64 {
	var total int64
	for _, e := range r.Entries {
		total += e.Size
	}
	return total
}
