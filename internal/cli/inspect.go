package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/lovewebshell/oxtpack/internal/file"
	digest "github.com/lovewebshell/oxtpack/oxtpack/file"
	"github.com/lovewebshell/oxtpack/oxtpack/inspect"
	"github.com/lovewebshell/oxtpack/oxtpack/manifest"
)

// inspection is what the inspect command learns about one archive.
type inspection struct {
	Path                  string          `json:"path" yaml:"path"`
	Entries               int             `json:"entries" yaml:"entries"`
	Digests               []digest.Digest `json:"digests,omitempty" yaml:"digests,omitempty"`
	RegistrationHandler   bool            `json:"registrationHandler" yaml:"registrationHandler"`
	RegistrationClassName string          `json:"registrationClassName,omitempty" yaml:"registrationClassName,omitempty"`
	Manifest              []manifestEntry `json:"manifest,omitempty" yaml:"manifest,omitempty"`
}

type manifestEntry struct {
	FullPath             string `json:"fullPath" yaml:"fullPath"`
	MediaType            string `json:"mediaType" yaml:"mediaType"`
	RequiresRegistration *bool  `json:"requiresRegistration,omitempty" yaml:"requiresRegistration,omitempty"`
}

func newInspectCommand(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect ARCHIVE",
		Short: "Show the manifest and registration marker of a package or jar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := root.load(); err != nil {
				return err
			}
			result, err := inspectArchive(afero.NewOsFs(), args[0])
			if err != nil {
				return err
			}
			return writeInspection(cmd.OutOrStdout(), result, format)
		},
	}

	cmd.Flags().StringVarP(&format, "report", "r", "table", "report format: table, json or yaml")
	return cmd
}

func inspectArchive(fs afero.Fs, path string) (*inspection, error) {
	zipReader, err := file.OpenZip(fs, path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %q as a zip archive: %w", path, err)
	}
	entries := file.NewZipFileManifest(zipReader.Reader)
	if err := zipReader.Close(); err != nil {
		return nil, err
	}

	digests, err := archiveDigests(fs, path)
	if err != nil {
		return nil, err
	}

	result := &inspection{
		Path:                path,
		Entries:             len(entries),
		Digests:             digests,
		RegistrationHandler: inspect.HasRegistrationHandler(fs, path),
	}

	jarManifest, err := inspect.ReadJarManifest(fs, path)
	if err != nil {
		return nil, err
	}
	result.RegistrationClassName = jarManifest.RegistrationClassName()

	if _, ok := entries[manifest.Path]; !ok {
		return result, nil
	}
	contents, err := file.ContentsFromZip(fs, path, manifest.Path)
	if err != nil {
		return nil, err
	}
	doc, err := manifest.Parse(strings.NewReader(contents[manifest.Path]))
	if err != nil {
		return nil, err
	}
	for _, e := range doc.Entries {
		result.Manifest = append(result.Manifest, manifestEntry{
			FullPath:             e.FullPath,
			MediaType:            e.MediaType,
			RequiresRegistration: e.RequiresRegistration,
		})
	}
	return result, nil
}

func archiveDigests(fs afero.Fs, path string) ([]digest.Digest, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	digests, err := digest.DigestsFromReader(f, digest.DefaultHashes)
	if err != nil {
		return nil, fmt.Errorf("unable to digest %q: %w", path, err)
	}
	return digests, nil
}

func writeInspection(w io.Writer, result *inspection, format string) error {
	switch format {
	case "json":
		return writeJSON(w, result)
	case "yaml":
		return writeYAML(w, result)
	case "table":
	default:
		return fmt.Errorf("unknown report format %q", format)
	}

	fmt.Fprintf(w, "%s: %d entries\n", result.Path, result.Entries)
	for _, d := range result.Digests {
		fmt.Fprintf(w, "%s: %s\n", d.Algorithm, d.Value)
	}
	fmt.Fprintf(w, "registration handler: %t\n", result.RegistrationHandler)
	if result.RegistrationClassName != "" {
		fmt.Fprintf(w, "registration class: %s\n", result.RegistrationClassName)
	}
	if len(result.Manifest) == 0 {
		_, err := fmt.Fprintln(w, "no manifest")
		return err
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FULL PATH\tMEDIA TYPE\tNOTES")
	for _, e := range result.Manifest {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.FullPath, e.MediaType, joinNonEmpty(", ", registrationLabel(e.RequiresRegistration)))
	}
	return tw.Flush()
}
