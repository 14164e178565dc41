/*
Package inspect examines jar files without loading any classes from them.

The registration marker is detected purely from the archive's central
directory: no member is decompressed. A file that is not a readable zip is
simply reported as not carrying the marker.
*/
package inspect

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/lovewebshell/oxtpack/internal/file"
	"github.com/lovewebshell/oxtpack/internal/log"
)

// RegistrationHandlerClass is the class file whose presence means the jar
// must be registered with the runtime before its components can be used.
const RegistrationHandlerClass = "RegistrationHandler.class"

var registrationHandlerGlob = "/**/" + RegistrationHandlerClass

// ErrArchiveRead is what inspection failures wrap. It never leaves this
// package through HasRegistrationHandler.
var ErrArchiveRead = errors.New("unable to read archive")

// HasRegistrationHandler reports whether the archive at path contains the
// registration marker class.
func HasRegistrationHandler(fs afero.Fs, path string) bool {
	zipReader, err := file.OpenZip(fs, path)
	if err != nil {
		log.Debugf("not inspecting %q for %s: %v", path, RegistrationHandlerClass, fmt.Errorf("%w: %v", ErrArchiveRead, err))
		return false
	}
	defer func() {
		if err := zipReader.Close(); err != nil {
			log.Warnf("unable to close inspected archive (%s): %+v", path, err)
		}
	}()

	return hasMarker(file.NewZipFileManifest(zipReader.Reader))
}

// HasRegistrationHandlerReader is HasRegistrationHandler for in-memory bytes.
func HasRegistrationHandlerReader(r io.ReaderAt, size int64) bool {
	zipReader, err := file.NewZipReader(r, size)
	if err != nil {
		log.Debugf("not inspecting archive for %s: %v", RegistrationHandlerClass, fmt.Errorf("%w: %v", ErrArchiveRead, err))
		return false
	}
	return hasMarker(file.NewZipFileManifest(zipReader))
}

func hasMarker(manifest file.ZipFileManifest) bool {
	return len(manifest.GlobMatch(registrationHandlerGlob)) > 0
}
