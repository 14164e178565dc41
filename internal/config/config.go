package config

import (
	"crypto"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/lovewebshell/oxtpack/internal/logger"
	"github.com/lovewebshell/oxtpack/oxtpack"
	digest "github.com/lovewebshell/oxtpack/oxtpack/file"
)

const (
	appName    = "oxtpack"
	fileName   = "." + appName
	fileType   = "yaml"
	envPrefix  = "OXTPACK"
	epochEnv   = "SOURCE_DATE_EPOCH"
	defaultLog = "warn"
)

// ReportFormats are the accepted values of the report key.
var ReportFormats = []string{"table", "json", "yaml"}

var ErrInvalidConfig = errors.New("invalid configuration")

// Application is the full configuration of one oxtpack run.
type Application struct {
	ConfigPath      string      `mapstructure:"-"`
	Output          string      `mapstructure:"output"`
	Sources         []Source    `mapstructure:"sources"`
	Files           []File      `mapstructure:"files"`
	Components      []Component `mapstructure:"components"`
	OtherFiles      []File      `mapstructure:"other-files"`
	Archives        []Archive   `mapstructure:"archives"`
	DefaultExcludes bool        `mapstructure:"default-excludes"`
	Store           bool        `mapstructure:"store"`
	SourceDateEpoch int64       `mapstructure:"source-date-epoch"`
	Digests         []string    `mapstructure:"digests"`
	Report          string      `mapstructure:"report"`
	Log             Logging     `mapstructure:"log"`
}

type Source struct {
	Dir      string   `mapstructure:"dir"`
	Prefix   string   `mapstructure:"prefix"`
	Includes []string `mapstructure:"includes"`
	Excludes []string `mapstructure:"excludes"`
}

type File struct {
	Path   string `mapstructure:"path"`
	Source string `mapstructure:"source"`
}

type Component struct {
	Path     string `mapstructure:"path"`
	Source   string `mapstructure:"source"`
	Language string `mapstructure:"language"`
	Platform string `mapstructure:"platform"`
}

type Archive struct {
	Path     string   `mapstructure:"path"`
	Includes []string `mapstructure:"includes"`
	Excludes []string `mapstructure:"excludes"`
}

type Logging struct {
	Level      string `mapstructure:"level"`
	Structured bool   `mapstructure:"structured"`
	File       string `mapstructure:"file"`
	Quiet      bool   `mapstructure:"quiet"`
}

// New returns a viper instance with defaults and environment bindings set.
// Flags may be bound to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("output", "")
	v.SetDefault("default-excludes", false)
	v.SetDefault("store", false)
	v.SetDefault("source-date-epoch", 0)
	v.SetDefault("digests", []string{"sha256"})
	v.SetDefault("report", "table")
	v.SetDefault("log.level", defaultLog)
	v.SetDefault("log.structured", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.quiet", false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// the reproducible-builds convention is honoured without a prefix
	_ = v.BindEnv("source-date-epoch", envPrefix+"_SOURCE_DATE_EPOCH", epochEnv)

	return v
}

// Load reads the config file, explicit or discovered, and decodes the merged
// settings. A missing discovered file is not an error; a missing explicit one
// is.
func Load(v *viper.Viper, configPath string) (*Application, error) {
	v.SetConfigType(fileType)

	if configPath != "" {
		expanded, err := homedir.Expand(configPath)
		if err != nil {
			return nil, fmt.Errorf("unable to expand config path %q: %w", configPath, err)
		}
		v.SetConfigFile(expanded)
	} else {
		v.SetConfigName(fileName)
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config: %w", err)
		}
	}

	app := &Application{ConfigPath: v.ConfigFileUsed()}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           app,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	app.resolvePaths()
	return app, app.Validate()
}

// resolvePaths makes source paths from a config file relative to that file.
func (a *Application) resolvePaths() {
	if a.ConfigPath == "" {
		return
	}
	base := filepath.Dir(a.ConfigPath)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		if expanded, err := homedir.Expand(p); err == nil && expanded != p {
			return expanded
		}
		return filepath.Join(base, p)
	}

	for i := range a.Sources {
		a.Sources[i].Dir = resolve(a.Sources[i].Dir)
	}
	for i := range a.Files {
		a.Files[i].Source = resolve(a.Files[i].Source)
	}
	for i := range a.Components {
		a.Components[i].Source = resolve(a.Components[i].Source)
	}
	for i := range a.OtherFiles {
		a.OtherFiles[i].Source = resolve(a.OtherFiles[i].Source)
	}
	for i := range a.Archives {
		a.Archives[i].Path = resolve(a.Archives[i].Path)
	}
}

// Validate checks the values that cannot be checked by decoding alone.
func (a *Application) Validate() error {
	if !isReportFormat(a.Report) {
		return fmt.Errorf("%w: unknown report format %q (want one of %s)", ErrInvalidConfig, a.Report, strings.Join(ReportFormats, ", "))
	}
	if _, err := a.Hashes(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := logrus.ParseLevel(a.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if a.SourceDateEpoch < 0 {
		return fmt.Errorf("%w: negative source-date-epoch %d", ErrInvalidConfig, a.SourceDateEpoch)
	}
	return nil
}

func isReportFormat(format string) bool {
	for _, f := range ReportFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (a *Application) Hashes() ([]crypto.Hash, error) {
	var hashes []crypto.Hash
	for _, name := range a.Digests {
		h, err := digest.ParseHash(name)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, nil
}

// ModTime is the fixed entry timestamp, zero when source-date-epoch is unset.
func (a *Application) ModTime() time.Time {
	if a.SourceDateEpoch == 0 {
		return time.Time{}
	}
	return time.Unix(a.SourceDateEpoch, 0).UTC()
}

// Plan translates the configuration into a build plan.
func (a *Application) Plan() (oxtpack.Plan, error) {
	hashes, err := a.Hashes()
	if err != nil {
		return oxtpack.Plan{}, err
	}

	plan := oxtpack.Plan{
		Output:          a.Output,
		DefaultExcludes: a.DefaultExcludes,
		Store:           a.Store,
		ModTime:         a.ModTime(),
		Digests:         hashes,
	}
	for _, s := range a.Sources {
		plan.Directories = append(plan.Directories, oxtpack.Directory{
			Path:     s.Dir,
			Prefix:   s.Prefix,
			Includes: s.Includes,
			Excludes: s.Excludes,
		})
	}
	for _, f := range a.Files {
		plan.Files = append(plan.Files, oxtpack.File{Path: f.Path, Source: f.Source})
	}
	for _, c := range a.Components {
		plan.Components = append(plan.Components, oxtpack.Component(c))
	}
	for _, f := range a.OtherFiles {
		plan.OtherFiles = append(plan.OtherFiles, oxtpack.File{Path: f.Path, Source: f.Source})
	}
	for _, ar := range a.Archives {
		plan.Archives = append(plan.Archives, oxtpack.Archive(ar))
	}
	return plan, nil
}

// LoggerConfig maps the log settings onto the logrus logger. Quiet disables
// console output.
func (a *Application) LoggerConfig() logger.LogrusConfig {
	level, err := logrus.ParseLevel(a.Log.Level)
	if err != nil {
		level = logrus.WarnLevel
	}
	return logger.LogrusConfig{
		EnableConsole: !a.Log.Quiet,
		EnableFile:    a.Log.File != "",
		Structured:    a.Log.Structured,
		Level:         level,
		FileLocation:  a.Log.File,
	}
}
