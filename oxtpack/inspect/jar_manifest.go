package inspect

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/lovewebshell/oxtpack/internal/file"
	"github.com/lovewebshell/oxtpack/internal/log"
)

const jarManifestGlob = "/META-INF/MANIFEST.MF"

// JarManifest holds the main attributes and the named sections of a jar's
// META-INF/MANIFEST.MF.
type JarManifest struct {
	Main          map[string]string            `json:"main,omitempty" yaml:"main,omitempty"`
	NamedSections map[string]map[string]string `json:"namedSections,omitempty" yaml:"namedSections,omitempty"`
}

// RegistrationClassName is the class a Java component jar names as its
// registration entry point, if any.
func (m JarManifest) RegistrationClassName() string {
	return m.Main["RegistrationClassName"]
}

// ReadJarManifest extracts and parses the manifest of the jar at path. A jar
// without a manifest yields an empty JarManifest.
func ReadJarManifest(fs afero.Fs, path string) (*JarManifest, error) {
	zipReader, err := file.OpenZip(fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveRead, err)
	}
	manifest := file.NewZipFileManifest(zipReader.Reader)
	if err := zipReader.Close(); err != nil {
		log.Warnf("unable to close jar (%s): %+v", path, err)
	}

	matches := manifest.GlobMatch(jarManifestGlob)
	switch {
	case len(matches) == 0:
		return &JarManifest{}, nil
	case len(matches) > 1:
		return nil, fmt.Errorf("found multiple manifests in the jar: %+v", matches)
	}

	contents, err := file.ContentsFromZip(fs, path, matches...)
	if err != nil {
		return nil, fmt.Errorf("unable to extract jar manifest (%s): %w", path, err)
	}

	return parseJarManifest(path, strings.NewReader(contents[matches[0]]))
}

// parseJarManifest reads the main attributes and the named sections of a jar
// manifest. A continuation line starts with one space that is not part of the
// value. Sections after the main one without a Name attribute are dropped.
func parseJarManifest(path string, reader io.Reader) (*JarManifest, error) {
	var (
		result  JarManifest
		current map[string]string
		key     string
		inMain  = true
	)

	endSection := func() {
		defer func() { current, key = nil, "" }()
		if current == nil {
			return
		}
		if inMain {
			result.Main, inMain = current, false
			return
		}
		name, ok := current["Name"]
		if !ok {
			log.Warnf("jar manifest %q: dropping a section without a name", path)
			return
		}
		delete(current, "Name")
		if result.NamedSections == nil {
			result.NamedSections = make(map[string]map[string]string)
		}
		result.NamedSections[name] = current
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		switch {
		case line == "":
			endSection()
		case line[0] == ' ':
			if key == "" {
				log.Warnf("jar manifest %q: continuation without an attribute: %q", path, line)
				continue
			}
			current[key] += line[1:]
		default:
			name, value, ok := strings.Cut(line, ":")
			name = strings.TrimSpace(name)
			if !ok || name == "" {
				log.Warnf("jar manifest %q: malformed attribute: %q", path, line)
				key = ""
				continue
			}
			if current == nil {
				current = make(map[string]string)
			}
			current[name] = strings.TrimPrefix(value, " ")
			key = name
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("unable to read jar manifest: %w", err)
	}
	endSection()

	return &result, nil
}
