/*
Package filter selects files by include/exclude glob rules.

Patterns use doublestar syntax and are matched against slash-separated paths
relative to the directory being scanned:

	*        any run of characters within one path segment
	**       zero or more whole path segments
	name     a literal segment

A path is selected when it matches at least one include pattern (or there are
no include patterns) and no exclude pattern. Exclusion always wins.
*/
package filter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
)

// DefaultExcludes are version-control and desktop litter callers commonly
// want to keep out of a package. They are never applied implicitly.
var DefaultExcludes = []string{
	"**/CVS",
	"**/.svn",
	"**/.git",
	"**/.gitignore",
	"**/.DS_Store",
}

type Rules struct {
	includes []string
	excludes []string
}

// All selects every path.
var All = Rules{}

// New validates the patterns and returns the rule set. Every malformed
// pattern is reported, not just the first.
func New(includes, excludes []string) (Rules, error) {
	var errs error

	clean := func(kind string, patterns []string) []string {
		var out []string
		for _, p := range patterns {
			p = filepath.ToSlash(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			if !doublestar.ValidatePattern(p) {
				errs = multierror.Append(errs, fmt.Errorf("invalid %s pattern %q", kind, p))
				continue
			}
			out = append(out, p)
		}
		return out
	}

	r := Rules{
		includes: clean("include", includes),
		excludes: clean("exclude", excludes),
	}
	if errs != nil {
		return Rules{}, errs
	}
	return r, nil
}

// MustNew is New for patterns known at compile time.
func MustNew(includes, excludes []string) Rules {
	r, err := New(includes, excludes)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Rules) Includes() []string {
	return append([]string(nil), r.includes...)
}

func (r Rules) Excludes() []string {
	return append([]string(nil), r.excludes...)
}

// Match reports whether the relative path is selected.
func (r Rules) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	if r.Excluded(rel) {
		return false
	}
	if len(r.includes) == 0 {
		return true
	}
	return matchesAny(r.includes, rel)
}

// Excluded reports whether any exclude pattern matches the relative path.
func (r Rules) Excluded(rel string) bool {
	return matchesAny(r.excludes, filepath.ToSlash(rel))
}

// Prunes reports whether a directory is excluded as a whole, in which case a
// walk should not descend into it.
func (r Rules) Prunes(relDir string) bool {
	return r.Excluded(relDir)
}

func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		// patterns are validated up front, so the error is always nil
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
