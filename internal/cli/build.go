package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lovewebshell/oxtpack/internal/config"
	"github.com/lovewebshell/oxtpack/oxtpack"
)

type buildOptions struct {
	dirs       []string
	includes   []string
	excludes   []string
	prefix     string
	files      []string
	otherFiles []string
	archives   []string
}

func newBuildCommand(root *rootOptions) *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build [DIR...]",
		Short: "Build a package",
		Long: `Build a package from directories, individual files and existing archives.

Directories given as arguments or with --dir are added with the --include and
--exclude patterns, which are matched against paths relative to each
directory. Files are given as ARCHIVE_PATH=SOURCE.`,
		Example: `  oxtpack build -o dist/hello.oxt src --exclude '**/CVS' --exclude README
  oxtpack build -o dist/hello.oxt --dir src --other-file LICENSE=LICENSE --report json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := root.load()
			if err != nil {
				return err
			}
			if err := opts.apply(app, args); err != nil {
				return err
			}
			if app.Output == "" {
				return fmt.Errorf("no output path: pass --output or set output in the config file")
			}

			plan, err := app.Plan()
			if err != nil {
				return err
			}
			report, err := oxtpack.Build(plan)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), report, app.Report)
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "path of the package to write")
	flags.StringSliceVarP(&opts.dirs, "dir", "d", nil, "directory to add (repeatable)")
	flags.StringSliceVarP(&opts.includes, "include", "i", nil, "include pattern for --dir directories (repeatable)")
	flags.StringSliceVarP(&opts.excludes, "exclude", "e", nil, "exclude pattern for --dir directories (repeatable)")
	flags.StringVar(&opts.prefix, "prefix", "", "archive directory to place --dir contents under")
	flags.StringArrayVarP(&opts.files, "file", "f", nil, "file to add as ARCHIVE_PATH=SOURCE (repeatable)")
	flags.StringArrayVar(&opts.otherFiles, "other-file", nil, "metadata file to add as ARCHIVE_PATH=SOURCE, not listed in the manifest (repeatable)")
	flags.StringArrayVar(&opts.archives, "archive", nil, "existing zip, jar or tar archive whose members are added (repeatable)")
	flags.Bool("default-excludes", false, "also exclude version-control and desktop files (CVS, .svn, .git, .DS_Store)")
	flags.Bool("store", false, "store entries without compression")
	flags.Int64("source-date-epoch", 0, "fixed entry timestamp in seconds since the epoch, for reproducible packages")
	flags.StringSlice("digest", nil, "digest algorithms to report (default sha256)")
	flags.StringP("report", "r", "table", "report format: table, json or yaml")

	for key, flag := range map[string]string{
		"output":            "output",
		"default-excludes":  "default-excludes",
		"store":             "store",
		"source-date-epoch": "source-date-epoch",
		"digests":           "digest",
		"report":            "report",
	} {
		_ = root.viper.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

// apply appends the command-line inputs to the configured ones.
func (o *buildOptions) apply(app *config.Application, args []string) error {
	for _, dir := range append(append([]string(nil), args...), o.dirs...) {
		app.Sources = append(app.Sources, config.Source{
			Dir:      dir,
			Prefix:   o.prefix,
			Includes: o.includes,
			Excludes: o.excludes,
		})
	}

	files, err := parseMappings("--file", o.files)
	if err != nil {
		return err
	}
	app.Files = append(app.Files, files...)

	otherFiles, err := parseMappings("--other-file", o.otherFiles)
	if err != nil {
		return err
	}
	app.OtherFiles = append(app.OtherFiles, otherFiles...)

	for _, a := range o.archives {
		app.Archives = append(app.Archives, config.Archive{Path: a})
	}
	return nil
}

func parseMappings(flag string, values []string) ([]config.File, error) {
	var files []config.File
	for _, value := range values {
		archivePath, source, ok := strings.Cut(value, "=")
		if !ok || archivePath == "" || source == "" {
			return nil, fmt.Errorf("%s %q: expected ARCHIVE_PATH=SOURCE", flag, value)
		}
		files = append(files, config.File{Path: archivePath, Source: source})
	}
	return files, nil
}
