/*
Package oxtpack builds extension packages from a declarative Plan and lets
callers install the logger used by every oxtpack package.
*/
package oxtpack

import (
	"crypto"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/lovewebshell/oxtpack/internal/log"
	"github.com/lovewebshell/oxtpack/oxtpack/filter"
	"github.com/lovewebshell/oxtpack/oxtpack/logger"
	"github.com/lovewebshell/oxtpack/oxtpack/oxt"
)

// Plan describes one package. Entries are registered in this order:
// directories, files, components, archives, other files. Later
// registrations of the same archive path win.
type Plan struct {
	Output          string
	Directories     []Directory
	Files           []File
	Components      []Component
	Archives        []Archive
	OtherFiles      []File
	DefaultExcludes bool
	Store           bool
	ModTime         time.Time
	Digests         []crypto.Hash
	Fs              afero.Fs
}

type Directory struct {
	Path     string
	Prefix   string
	Includes []string
	Excludes []string
}

type File struct {
	Path   string
	Source string
}

type Component struct {
	Path     string
	Source   string
	Language string
	Platform string
}

type Archive struct {
	Path     string
	Includes []string
	Excludes []string
}

// Build assembles and writes the package described by plan.
func Build(plan Plan) (*oxt.Report, error) {
	if plan.Output == "" {
		return nil, fmt.Errorf("no output path given")
	}

	pkg := oxt.New(plan.Output, plan.options()...)
	if err := plan.register(pkg); err != nil {
		return nil, err
	}

	if err := pkg.Close(); err != nil {
		return nil, err
	}
	return pkg.Report(), nil
}

func (plan Plan) options() []oxt.Option {
	var opts []oxt.Option
	if plan.Fs != nil {
		opts = append(opts, oxt.WithFs(plan.Fs))
	}
	if !plan.ModTime.IsZero() {
		opts = append(opts, oxt.WithModTime(plan.ModTime))
	}
	if plan.Store {
		opts = append(opts, oxt.WithStore())
	}
	if len(plan.Digests) > 0 {
		opts = append(opts, oxt.WithDigests(plan.Digests...))
	}
	return opts
}

func (plan Plan) rules(includes, excludes []string) (filter.Rules, error) {
	if plan.DefaultExcludes {
		excludes = append(append([]string(nil), filter.DefaultExcludes...), excludes...)
	}
	return filter.New(includes, excludes)
}

func (plan Plan) register(pkg *oxt.Package) error {
	var errs error

	for _, d := range plan.Directories {
		rules, err := plan.rules(d.Includes, d.Excludes)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("directory %q: %w", d.Path, err))
			continue
		}
		if err := pkg.AddDirectoryAt(d.Prefix, d.Path, rules); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	for _, f := range plan.Files {
		if err := pkg.AddContent(f.Path, f.Source); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	for _, c := range plan.Components {
		if err := pkg.AddComponentFile(c.Path, c.Source, c.Language, c.Platform); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	for _, a := range plan.Archives {
		rules, err := plan.rules(a.Includes, a.Excludes)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("archive %q: %w", a.Path, err))
			continue
		}
		if err := pkg.AddArchive(a.Path, rules); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	for _, f := range plan.OtherFiles {
		if err := pkg.AddOtherFile(f.Path, f.Source); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	return errs
}

// SetLogger installs the logger used by every oxtpack package.
func SetLogger(logger logger.Logger) {
	log.Log = logger
}
