package file

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/spf13/afero"

	"github.com/lovewebshell/oxtpack/internal/log"
)

type zipTraversalRequest map[string]struct{}

func newZipTraverseRequest(paths ...string) zipTraversalRequest {
	results := make(zipTraversalRequest)
	for _, p := range paths {
		results[p] = struct{}{}
	}
	return results
}

// TraverseFilesInZip calls visitor for every member of the archive at
// archivePath, or only for the named members when paths are given.
func TraverseFilesInZip(fs afero.Fs, archivePath string, visitor func(*zip.File) error, paths ...string) error {
	zipReader, err := OpenZip(fs, archivePath)
	if err != nil {
		return fmt.Errorf("unable to open zip archive (%s): %w", archivePath, err)
	}
	defer func() {
		if err := zipReader.Close(); err != nil {
			log.Errorf("unable to close zip archive (%s): %+v", archivePath, err)
		}
	}()

	return TraverseZipReader(zipReader.Reader, visitor, paths...)
}

// TraverseZipReader is TraverseFilesInZip over an already opened archive.
func TraverseZipReader(zipReader *zip.Reader, visitor func(*zip.File) error, paths ...string) error {
	request := newZipTraverseRequest(paths...)

	for _, file := range zipReader.File {
		if len(paths) > 0 {
			if _, ok := request[file.Name]; !ok {
				continue
			}
		}

		if err := visitor(file); err != nil {
			return err
		}
	}
	return nil
}

// ContentsFromZip returns the contents of the named members keyed by member name.
func ContentsFromZip(fs afero.Fs, archivePath string, paths ...string) (map[string]string, error) {
	results := make(map[string]string)

	if len(paths) == 0 {
		return results, nil
	}

	visitor := func(file *zip.File) error {
		contents, err := ReadZipMember(file)
		if err != nil {
			return fmt.Errorf("unable to read file=%q from zip=%q: %w", file.Name, archivePath, err)
		}
		results[file.Name] = string(contents)
		return nil
	}

	return results, TraverseFilesInZip(fs, archivePath, visitor, paths...)
}

// ReadZipMember reads one regular member fully into memory.
func ReadZipMember(file *zip.File) ([]byte, error) {
	if file.FileInfo().IsDir() {
		return nil, fmt.Errorf("unable to read directories, only files: %s", file.Name)
	}

	zippedFile, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := zippedFile.Close(); err != nil {
			log.Errorf("unable to close zip member=%q: %+v", file.Name, err)
		}
	}()

	var buffer bytes.Buffer
	if err := safeCopy(&buffer, zippedFile); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
