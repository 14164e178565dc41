package file

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mholt/archiver/v3"
	"github.com/spf13/afero"

	"github.com/lovewebshell/oxtpack/internal/log"
)

// ArchiveMember is one regular file read out of an existing archive.
type ArchiveMember struct {
	Name    string
	Mode    os.FileMode
	ModTime time.Time
	Data    []byte
}

// ReadArchive reads the regular members of the archive at path that satisfy
// selectFn, in archive order. Zip-format files (.zip, .jar, .oxt, ...) are
// recognised by content; anything else is dispatched by file extension to
// the matching archiver reader (tar, tar.gz, tar.bz2, tar.xz, ...).
func ReadArchive(fs afero.Fs, path string, selectFn func(name string) bool) ([]ArchiveMember, error) {
	if zipReader, err := OpenZip(fs, path); err == nil {
		defer func() {
			if err := zipReader.Close(); err != nil {
				log.Errorf("unable to close zip archive (%s): %+v", path, err)
			}
		}()
		return readZipMembers(zipReader.Reader, path, selectFn)
	}

	return readArchiverMembers(fs, path, selectFn)
}

func readZipMembers(zipReader *zip.Reader, path string, selectFn func(string) bool) ([]ArchiveMember, error) {
	var members []ArchiveMember

	visitor := func(file *zip.File) error {
		if file.FileInfo().IsDir() || !selectFn(file.Name) {
			return nil
		}
		data, err := ReadZipMember(file)
		if err != nil {
			return fmt.Errorf("unable to read file=%q from zip=%q: %w", file.Name, path, err)
		}
		members = append(members, ArchiveMember{
			Name:    file.Name,
			Mode:    file.Mode(),
			ModTime: file.Modified,
			Data:    data,
		})
		return nil
	}

	return members, TraverseZipReader(zipReader, visitor)
}

func readArchiverMembers(fs afero.Fs, path string, selectFn func(string) bool) (members []ArchiveMember, err error) {
	format, err := archiver.ByExtension(path)
	if err != nil {
		return nil, fmt.Errorf("unable to determine archive format of %q: %w", path, err)
	}
	reader, ok := format.(archiver.Reader)
	if !ok {
		return nil, fmt.Errorf("format of %q cannot be read as an archive", path)
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	if err := reader.Open(f, fi.Size()); err != nil {
		return nil, fmt.Errorf("unable to open archive %q: %w", path, err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for {
		member, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read archive %q: %w", path, err)
		}

		name := memberName(member)
		if member.IsDir() || !member.Mode().IsRegular() || !selectFn(name) {
			member.Close()
			continue
		}

		var buffer bytes.Buffer
		copyErr := safeCopy(&buffer, member)
		member.Close()
		if copyErr != nil {
			return nil, fmt.Errorf("unable to copy source=%q for archive=%q: %w", name, path, copyErr)
		}

		members = append(members, ArchiveMember{
			Name:    name,
			Mode:    member.Mode(),
			ModTime: member.ModTime(),
			Data:    buffer.Bytes(),
		})
	}

	return members, nil
}

// memberName recovers the full member path; archiver's File.Name() is only
// the base name.
func memberName(f archiver.File) string {
	switch h := f.Header.(type) {
	case *tar.Header:
		return h.Name
	case zip.FileHeader:
		return h.Name
	case *zip.FileHeader:
		return h.Name
	default:
		return f.Name()
	}
}
