package oxt

import (
	"fmt"
	"os"
	"time"
)

// Kind tells how an entry came to be in the package.
type Kind int

const (
	// Content entries are listed in a synthesized manifest.
	Content Kind = iota
	// Other entries (licenses, descriptors) are written but not listed.
	Other
	// Generated marks the synthesized manifest.
	Generated
)

var kindNames = map[Kind]string{
	Content:   "content",
	Other:     "other",
	Generated: "generated",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Entry is one registration inside a package.
type Entry struct {
	// Path is the normalized archive path, unique within the package.
	Path string
	// Source is the absolute filesystem path of the bytes, or
	// "<archive>:<member>" for members imported from another archive. It is
	// empty for the generated manifest.
	Source string
	Kind   Kind
	// MediaType overrides classification when set.
	MediaType string

	data    []byte
	mode    os.FileMode
	modTime time.Time
}

func (e Entry) inMemory() bool {
	return e.data != nil
}
