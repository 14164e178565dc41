package file

import (
	"errors"
	"fmt"
	"strings"
)

// ArchiveSeparator is the only separator used inside archive entry names.
const ArchiveSeparator = "/"

var ErrInvalidPath = errors.New("invalid path")

// NormalizePath canonicalizes a candidate archive entry path. Runs of '/' or
// '\' collapse to a single '/', empty and "." segments are dropped, and the
// result never starts with a separator. A path that normalizes to nothing or
// climbs out of the archive root with ".." is rejected.
func NormalizePath(raw string) (string, error) {
	segments := strings.FieldsFunc(raw, isSeparator)

	kept := segments[:0]
	for _, s := range segments {
		switch s {
		case ".":
			continue
		case "..":
			return "", fmt.Errorf("%w: %q escapes the archive root", ErrInvalidPath, raw)
		}
		kept = append(kept, s)
	}

	if len(kept) == 0 {
		return "", fmt.Errorf("%w: %q is empty after normalization", ErrInvalidPath, raw)
	}
	return strings.Join(kept, ArchiveSeparator), nil
}

// JoinPath joins archive path fragments and normalizes the result.
func JoinPath(elem ...string) (string, error) {
	return NormalizePath(strings.Join(elem, ArchiveSeparator))
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}
