package oxt

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/lovewebshell/oxtpack/oxtpack/manifest"
)

// writeTree creates every file below root; keys are slash-separated.
func writeTree(t *testing.T, fs afero.Fs, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(body), 0o644))
	}
}

func jarBytes(t *testing.T, members ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range members {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte("\xca\xfe\xba\xbe"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func tarGzBytes(t *testing.T, files map[string]string, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, name := range order {
		body := files[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(body)),
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

type zipMember struct {
	Name string
	Body string
}

func readArchive(t *testing.T, fs afero.Fs, path string) (*zip.Reader, []zipMember) {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var members []zipMember
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		var body bytes.Buffer
		_, err = body.ReadFrom(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		members = append(members, zipMember{Name: f.Name, Body: body.String()})
	}
	return zr, members
}

func memberNames(members []zipMember) []string {
	var names []string
	for _, m := range members {
		names = append(names, m.Name)
	}
	return names
}

func readManifest(t *testing.T, members []zipMember) *manifest.Document {
	t.Helper()
	last := members[len(members)-1]
	require.Equal(t, manifest.Path, last.Name, "the manifest must be the last entry")

	doc, err := manifest.Parse(bytes.NewReader([]byte(last.Body)))
	require.NoError(t, err)
	return doc
}

func mediaTypes(doc *manifest.Document) map[string]string {
	types := make(map[string]string, len(doc.Entries))
	for _, e := range doc.Entries {
		types[e.FullPath] = e.MediaType
	}
	return types
}
