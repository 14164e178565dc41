package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/gookit/color"
	"gopkg.in/yaml.v3"

	"github.com/lovewebshell/oxtpack/internal"
	"github.com/lovewebshell/oxtpack/oxtpack/oxt"
)

const maxSourceWidth = 48

// writeReport renders what Close wrote in the requested format.
func writeReport(w io.Writer, report *oxt.Report, format string) error {
	switch format {
	case "json":
		return writeJSON(w, report)
	case "yaml":
		return writeYAML(w, report)
	default:
		return writeReportTable(w, report)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeReportTable(w io.Writer, report *oxt.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tKIND\tMEDIA TYPE\tSIZE\tSOURCE")
	for _, e := range report.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Path,
			e.Kind,
			e.MediaType,
			humanize.Bytes(uint64(e.Size)),
			internal.TruncateMiddleEllipsis(e.Source, maxSourceWidth),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s %s (%s in %d entries, %s manifest)\n",
		color.Green.Sprint("wrote"),
		color.Bold.Sprint(report.Output),
		humanize.Bytes(uint64(report.TotalSize())),
		len(report.Entries),
		report.Manifest,
	)
	return err
}

func registrationLabel(required *bool) string {
	switch {
	case required == nil:
		return ""
	case *required:
		return color.Yellow.Sprint("requires registration")
	default:
		return "no registration"
	}
}

func joinNonEmpty(sep string, values ...string) string {
	var kept []string
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, sep)
}
