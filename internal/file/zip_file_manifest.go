package file

import (
	"archive/zip"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/scylladb/go-set/strset"
)

// ZipFileManifest indexes the member names of a zip archive without reading
// any member contents.
type ZipFileManifest map[string]os.FileInfo

func NewZipFileManifest(zipReader *zip.Reader) ZipFileManifest {
	manifest := make(ZipFileManifest)
	for _, file := range zipReader.File {
		manifest.Add(file.Name, file.FileInfo())
	}
	return manifest
}

func (z ZipFileManifest) Add(entry string, info os.FileInfo) {
	z[entry] = info
}

// GlobMatch returns the sorted member names matching any of the patterns.
// Member names are matched with a leading "/", so patterns are written as
// absolute ("/META-INF/MANIFEST.MF", "**/*.class").
func (z ZipFileManifest) GlobMatch(patterns ...string) []string {
	uniqueMatches := strset.New()

	for _, pattern := range patterns {
		for entry := range z {
			if GlobMatch(pattern, normalizeZipEntryName(entry)) {
				uniqueMatches.Add(entry)
			}
		}
	}

	results := uniqueMatches.List()
	sort.Strings(results)

	return results
}

// GlobMatch reports whether name matches the doublestar pattern. Malformed
// patterns match nothing.
func GlobMatch(pattern, name string) bool {
	matches, err := doublestar.Match(pattern, name)
	return err == nil && matches
}

func normalizeZipEntryName(entry string) string {
	if !strings.HasPrefix(entry, "/") {
		return "/" + entry
	}

	return entry
}
