package cli

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	digest "github.com/lovewebshell/oxtpack/oxtpack/file"
	"github.com/lovewebshell/oxtpack/oxtpack/manifest"
	"github.com/lovewebshell/oxtpack/oxtpack/oxt"
)

func writeTestFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func writeTestJar(t *testing.T, path string, members map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range members {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	writeTestFile(t, path, buf.String())
}

// builtReport mirrors oxt.Report with the entry kind kept as its text form.
type builtReport struct {
	Output   string             `json:"output"`
	Manifest oxt.ManifestSource `json:"manifest"`
	Entries  []struct {
		Path    string          `json:"path"`
		Kind    string          `json:"kind"`
		Digests []digest.Digest `json:"digests"`
	} `json:"entries"`
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2024-01-01"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--quiet"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func sourceDir(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeTestFile(t, filepath.Join(src, "README"), "read me")
	writeTestFile(t, filepath.Join(src, "CVS", "Root"), "cvs")
	writeTestFile(t, filepath.Join(src, "config", "Addon.xcu"), "<a/>")
	writeTestFile(t, filepath.Join(src, "description.xml"), "<description/>")
	writeTestJar(t, filepath.Join(src, "lib", "main.jar"), map[string]string{
		"META-INF/MANIFEST.MF":                  "Manifest-Version: 1.0\nRegistrationClassName: org.example.Reg\n",
		"org/example/RegistrationHandler.class": "x",
	})
	writeTestFile(t, filepath.Join(dir, "LICENSE"), "MIT")
	return dir, src
}

func TestBuildCommand(t *testing.T) {
	dir, src := sourceDir(t)
	output := filepath.Join(dir, "dist", "hello.oxt")

	out, err := run(t, "build",
		"-o", output,
		"--default-excludes",
		"--exclude", "README",
		"--other-file", "LICENSE="+filepath.Join(dir, "LICENSE"),
		"--source-date-epoch", "1700000000",
		"--report", "json",
		src,
	)
	require.NoError(t, err, out)

	var report builtReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, output, report.Output)
	assert.Equal(t, oxt.ManifestGenerated, report.Manifest)

	var names []string
	for _, e := range report.Entries {
		names = append(names, e.Path)
	}
	assert.Equal(t, []string{"config/Addon.xcu", "description.xml", "lib/main.jar", "LICENSE", manifest.Path}, names)
	assert.Equal(t, oxt.Other.String(), report.Entries[3].Kind)
	require.Len(t, report.Entries[0].Digests, 1)
	assert.Equal(t, "sha256", report.Entries[0].Digests[0].Algorithm)

	inspected, err := run(t, "inspect", output, "--report", "yaml")
	require.NoError(t, err, inspected)

	var result inspection
	require.NoError(t, yaml.Unmarshal([]byte(inspected), &result))
	assert.Equal(t, 5, result.Entries)
	assert.False(t, result.RegistrationHandler)
	require.Len(t, result.Digests, 1)
	assert.Equal(t, "sha256", result.Digests[0].Algorithm)
	assert.Len(t, result.Digests[0].Value, 64)

	// main.jar carries its own registration handler, so it is archived but
	// not listed
	require.Len(t, result.Manifest, 2)
	assert.Equal(t, "config/Addon.xcu", result.Manifest[0].FullPath)
	assert.Equal(t, "description.xml", result.Manifest[1].FullPath)
}

func TestBuildCommand_table(t *testing.T) {
	dir, src := sourceDir(t)
	output := filepath.Join(dir, "hello.oxt")

	out, err := run(t, "build", "-o", output, "-e", "CVS", src)
	require.NoError(t, err, out)

	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "config/Addon.xcu")
	assert.Contains(t, out, "README")
	assert.Contains(t, out, "generated manifest")
	assert.NotContains(t, out, "CVS/Root")
}

func TestBuildCommand_configFile(t *testing.T) {
	dir, _ := sourceDir(t)
	config := filepath.Join(dir, ".oxtpack.yaml")
	writeTestFile(t, config, `output: from-config.oxt
sources:
  - dir: src
    excludes: ["CVS", "README"]
report: json
`)

	out, err := run(t, "build", "--config", config, "-o", filepath.Join(dir, "from-flag.oxt"))
	require.NoError(t, err, out)

	var report builtReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, filepath.Join(dir, "from-flag.oxt"), report.Output)
	assert.Len(t, report.Entries, 4)
}

func TestBuildCommand_errors(t *testing.T) {
	dir, src := sourceDir(t)

	_, err := run(t, "build", src)
	assert.ErrorContains(t, err, "no output path")

	_, err = run(t, "build", "-o", filepath.Join(dir, "x.oxt"), "--file", "missing-separator", src)
	assert.ErrorContains(t, err, "ARCHIVE_PATH=SOURCE")

	_, err = run(t, "build", "-o", filepath.Join(dir, "x.oxt"), "--report", "xml", src)
	assert.Error(t, err)

	_, err = run(t, "build", "-o", filepath.Join(dir, "x.oxt"), filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, oxt.ErrInvalidPath)
}

func TestInspectCommand_jar(t *testing.T) {
	_, src := sourceDir(t)

	out, err := run(t, "inspect", filepath.Join(src, "lib", "main.jar"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "registration handler: true")
	assert.Contains(t, out, "registration class: org.example.Reg")
	assert.Contains(t, out, "no manifest")

	_, err = run(t, "inspect", filepath.Join(src, "README"))
	assert.Error(t, err)
}

func TestInspectArchive(t *testing.T) {
	fs := afero.NewMemMapFs()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create(manifest.Path)
	require.NoError(t, err)
	_, err = f.Write([]byte(`<manifest:manifest xmlns:manifest="http://openoffice.org/2001/manifest"><manifest:file-entry manifest:full-path="a.xcu" manifest:media-type="application/vnd.sun.star.configuration-data"/></manifest:manifest>`))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, afero.WriteFile(fs, "/p.oxt", buf.Bytes(), 0o644))

	result, err := inspectArchive(fs, "/p.oxt")
	require.NoError(t, err)
	assert.Equal(t, []manifestEntry{{FullPath: "a.xcu", MediaType: manifest.ConfigurationData}}, result.Manifest)

	var table bytes.Buffer
	require.NoError(t, writeInspection(&table, result, "table"))
	assert.Contains(t, table.String(), "sha256: ")
	assert.Contains(t, table.String(), "FULL PATH")
	assert.Contains(t, table.String(), "a.xcu")

	assert.Error(t, writeInspection(&table, result, "xml"))
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3")
	assert.Contains(t, out, "abc123")
}

func TestParseMappings(t *testing.T) {
	files, err := parseMappings("--file", []string{"a/b.txt=/src/b.txt", "c=d=e"})
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Equal(t, "a/b.txt", files[0].Path)
	assert.Equal(t, "d=e", files[1].Source)

	for _, bad := range []string{"nothing", "=source", "path="} {
		_, err := parseMappings("--file", []string{bad})
		assert.Error(t, err, bad)
	}
}
