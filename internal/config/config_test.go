package config

import (
	"crypto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovewebshell/oxtpack/oxtpack"
)

const fullConfig = `
output: dist/hello.oxt
default-excludes: true
store: true
sources:
  - dir: src
    excludes: ["CVS", "**/CVS", "README"]
  - dir: /abs/images
    prefix: icons
    includes: ["*.png"]
files:
  - path: description.xml
    source: meta/description.xml
components:
  - path: bin/libcomp.so
    source: build/libcomp.so
    language: native
    platform: linux_x86_64
other-files:
  - path: LICENSE
    source: /abs/LICENSE
archives:
  - path: vendor/base.tar.gz
    includes: ["**/*.xcu"]
digests: [sha1, SHA-256]
report: json
log:
  level: debug
  structured: true
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".oxtpack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, fullConfig)
	dir := filepath.Dir(path)

	app, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, path, app.ConfigPath)
	assert.Equal(t, "dist/hello.oxt", app.Output)
	assert.True(t, app.DefaultExcludes)
	assert.True(t, app.Store)
	assert.Equal(t, "json", app.Report)

	expectedSources := []Source{
		{Dir: filepath.Join(dir, "src"), Excludes: []string{"CVS", "**/CVS", "README"}},
		{Dir: "/abs/images", Prefix: "icons", Includes: []string{"*.png"}},
	}
	for _, d := range deep.Equal(expectedSources, app.Sources) {
		t.Errorf("sources diff: %s", d)
	}

	assert.Equal(t, []File{{Path: "description.xml", Source: filepath.Join(dir, "meta", "description.xml")}}, app.Files)
	assert.Equal(t, []File{{Path: "LICENSE", Source: "/abs/LICENSE"}}, app.OtherFiles)
	assert.Equal(t, []Component{{
		Path:     "bin/libcomp.so",
		Source:   filepath.Join(dir, "build", "libcomp.so"),
		Language: "native",
		Platform: "linux_x86_64",
	}}, app.Components)
	assert.Equal(t, []Archive{{Path: filepath.Join(dir, "vendor", "base.tar.gz"), Includes: []string{"**/*.xcu"}}}, app.Archives)

	hashes, err := app.Hashes()
	require.NoError(t, err)
	assert.Equal(t, []crypto.Hash{crypto.SHA1, crypto.SHA256}, hashes)

	cfg := app.LoggerConfig()
	assert.Equal(t, logrus.DebugLevel, cfg.Level)
	assert.True(t, cfg.Structured)
	assert.True(t, cfg.EnableConsole)
	assert.False(t, cfg.EnableFile)
}

func TestLoad_defaults(t *testing.T) {
	t.Setenv("SOURCE_DATE_EPOCH", "")
	path := writeConfig(t, "output: out.oxt\n")

	app, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "table", app.Report)
	assert.Equal(t, []string{"sha256"}, app.Digests)
	assert.Equal(t, "warn", app.Log.Level)
	assert.False(t, app.DefaultExcludes)
	assert.True(t, app.ModTime().IsZero())
	assert.Empty(t, app.Sources)
}

func TestLoad_environment(t *testing.T) {
	t.Setenv("SOURCE_DATE_EPOCH", "1700000000")
	t.Setenv("OXTPACK_REPORT", "yaml")
	t.Setenv("OXTPACK_LOG_LEVEL", "info")

	app, err := Load(New(), writeConfig(t, "output: out.oxt\nreport: json\n"))
	require.NoError(t, err)

	assert.Equal(t, "yaml", app.Report)
	assert.Equal(t, "info", app.Log.Level)
	assert.Equal(t, int64(1700000000), app.SourceDateEpoch)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), app.ModTime())
}

func TestLoad_missingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_invalidValues(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{name: "report format", config: "report: xml\n"},
		{name: "digest", config: "digests: [md5]\n"},
		{name: "log level", config: "log:\n  level: loud\n"},
		{name: "negative epoch", config: "source-date-epoch: -5\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Load(New(), writeConfig(t, test.config))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestApplication_Plan(t *testing.T) {
	app, err := Load(New(), writeConfig(t, fullConfig))
	require.NoError(t, err)
	dir := filepath.Dir(app.ConfigPath)

	plan, err := app.Plan()
	require.NoError(t, err)

	assert.Equal(t, "dist/hello.oxt", plan.Output)
	assert.True(t, plan.DefaultExcludes)
	assert.True(t, plan.Store)
	assert.Equal(t, []crypto.Hash{crypto.SHA1, crypto.SHA256}, plan.Digests)
	require.Len(t, plan.Directories, 2)
	assert.Equal(t, oxtpack.Directory{Path: "/abs/images", Prefix: "icons", Includes: []string{"*.png"}}, plan.Directories[1])
	assert.Equal(t, []oxtpack.Component{{
		Path:     "bin/libcomp.so",
		Source:   filepath.Join(dir, "build", "libcomp.so"),
		Language: "native",
		Platform: "linux_x86_64",
	}}, plan.Components)
	assert.Equal(t, []oxtpack.File{{Path: "LICENSE", Source: "/abs/LICENSE"}}, plan.OtherFiles)
	assert.Len(t, plan.Archives, 1)
}
