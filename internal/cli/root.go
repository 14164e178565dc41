package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lovewebshell/oxtpack/internal/config"
	"github.com/lovewebshell/oxtpack/internal/logger"
	"github.com/lovewebshell/oxtpack/oxtpack"
)

// BuildInfo is injected via ldflags at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type rootOptions struct {
	configPath string
	viper      *viper.Viper
}

// Execute runs the oxtpack command line.
func Execute(info BuildInfo) error {
	return NewRootCommand(info).Execute()
}

func NewRootCommand(info BuildInfo) *cobra.Command {
	opts := &rootOptions{viper: config.New()}

	cmd := &cobra.Command{
		Use:   "oxtpack",
		Short: "Assemble office extension packages",
		Long: `oxtpack builds .oxt extension packages: zip archives whose META-INF/manifest.xml
lists every packaged file with its media type. A manifest is generated unless
the package already carries one.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default is ./.oxtpack.yaml or ~/.oxtpack.yaml)")
	flags.String("log-level", "warn", "log level (error, warn, info, debug, trace)")
	flags.Bool("log-structured", false, "emit JSON log lines")
	flags.String("log-file", "", "also write logs to this file")
	flags.BoolP("quiet", "q", false, "suppress console logging")

	_ = opts.viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = opts.viper.BindPFlag("log.structured", flags.Lookup("log-structured"))
	_ = opts.viper.BindPFlag("log.file", flags.Lookup("log-file"))
	_ = opts.viper.BindPFlag("log.quiet", flags.Lookup("quiet"))

	cmd.AddCommand(
		newBuildCommand(opts),
		newInspectCommand(opts),
		newVersionCommand(info),
	)
	return cmd
}

// load reads the configuration and installs the configured logger.
func (o *rootOptions) load() (*config.Application, error) {
	app, err := config.Load(o.viper, o.configPath)
	if err != nil {
		return nil, err
	}

	l, err := logger.NewLogrusLogger(app.LoggerConfig())
	if err != nil {
		return nil, err
	}
	oxtpack.SetLogger(l)
	return app, nil
}
