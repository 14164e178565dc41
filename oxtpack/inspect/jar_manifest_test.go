package inspect

import (
	"strings"
	"testing"

	"github.com/go-test/deep"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJarManifest(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected JarManifest
	}{
		{
			name:     "empty",
			input:    "",
			expected: JarManifest{},
		},
		{
			name: "main section only",
			input: "Manifest-Version: 1.0\r\n" +
				"RegistrationClassName: org.example.comp.RegistrationHandler\r\n" +
				"Created-By: 17.0.2 (Eclipse Adoptium)\r\n",
			expected: JarManifest{
				Main: map[string]string{
					"Manifest-Version":      "1.0",
					"RegistrationClassName": "org.example.comp.RegistrationHandler",
					"Created-By":            "17.0.2 (Eclipse Adoptium)",
				},
			},
		},
		{
			name: "continuation lines and named sections",
			input: "Manifest-Version: 1.0\n" +
				"Class-Path: lib/one.jar\n" +
				"  lib/two.jar\n" +
				"RegistrationClassName: org.example.comp.Registr\n" +
				" ationHandler\n" +
				"\n" +
				"Name: org/example/comp/\n" +
				"Specification-Title: comp\n" +
				"\n" +
				"Implementation-Vendor: nobody\n",
			expected: JarManifest{
				Main: map[string]string{
					"Manifest-Version":      "1.0",
					"Class-Path":            "lib/one.jar lib/two.jar",
					"RegistrationClassName": "org.example.comp.RegistrationHandler",
				},
				NamedSections: map[string]map[string]string{
					"org/example/comp/": {"Specification-Title": "comp"},
				},
			},
		},
		{
			name: "malformed lines are skipped",
			input: "Manifest-Version: 1.0\n" +
				"no separator here\n" +
				" dangling\n" +
				": no name\n" +
				"Created-By: hand\n",
			expected: JarManifest{
				Main: map[string]string{
					"Manifest-Version": "1.0",
					"Created-By":       "hand",
				},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			actual, err := parseJarManifest("test.jar", strings.NewReader(test.input))
			require.NoError(t, err)
			for _, d := range deep.Equal(&test.expected, actual) {
				t.Errorf("diff: %+v", d)
			}
		})
	}
}

func TestReadJarManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/comp.jar", jarBytes(t, map[string]string{
		"META-INF/MANIFEST.MF":  "Manifest-Version: 1.0\nRegistrationClassName: org.example.Reg\n",
		"org/example/Reg.class": "x",
	}), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/bare.jar", jarBytes(t, map[string]string{
		"org/example/Reg.class": "x",
	}), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/broken.jar", []byte("nope"), 0o644))

	m, err := ReadJarManifest(fs, "/comp.jar")
	require.NoError(t, err)
	assert.Equal(t, "org.example.Reg", m.RegistrationClassName())

	m, err = ReadJarManifest(fs, "/bare.jar")
	require.NoError(t, err)
	assert.Empty(t, m.RegistrationClassName())

	_, err = ReadJarManifest(fs, "/broken.jar")
	assert.ErrorIs(t, err, ErrArchiveRead)
}
