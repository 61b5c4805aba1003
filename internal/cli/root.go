// Package cli implements the gameshelf command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/gameshelf/internal/config"
	"github.com/mesh-intelligence/gameshelf/internal/logger"
	"github.com/mesh-intelligence/gameshelf/internal/metrics"
	"github.com/mesh-intelligence/gameshelf/internal/paths"
	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
}

// app is the state PersistentPreRunE resolves for every subcommand.
type app struct {
	flags     rootFlags
	configDir string
	cfg       *config.Config
	layout    paths.Layout
	log       *logger.Logger
	metrics   *metrics.Metrics

	// started is set once a subcommand begins running; errors returned
	// before that are argument or flag problems.
	started bool
}

// NewRootCmd creates the top-level "gameshelf" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "gameshelf",
		Short: "Track when each board game in your collection was last played",
		Long: `gameshelf downloads your BoardGameGeek collection and play history,
keeps a category for every game you own, and reports the games in each
category ordered from least to most recently played.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.finish()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/gameshelf)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/userdata)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &userError{err: err}
	})

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newFetchCmd(a))
	root.AddCommand(newProcessCmd(a))
	root.AddCommand(newReportCmd(a))
	root.AddCommand(newCategoriesCmd(a))
	root.AddCommand(newHistoryCmd(a))

	return root
}

// setup loads configuration and builds the logger and metrics.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.started = true
	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	a.configDir = configDir

	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	a.layout = paths.NewLayout(dataDir)

	log, err := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "gameshelf",
	})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	a.log = log.With(zap.String("command", cmd.CommandPath()))
	a.metrics = metrics.New()
	return nil
}

// finish runs after a successful subcommand.
func (a *app) finish() error {
	if a.log == nil {
		return nil
	}
	defer func() { _ = a.log.Sync() }()

	a.metrics.MarkSuccess()
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.log.Error("writing metrics failed", err)
	}
	return nil
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitSuccess
	}
	if a.log != nil {
		a.log.Debug("command failed", zap.Error(err))
	}
	fmt.Fprintln(stderr, "gameshelf:", err)
	if !a.started {
		return exitUserError
	}
	return exitCode(err)
}

// userError marks failures caused by how the command was invoked.
type userError struct {
	err error
}

func (e *userError) Error() string { return e.err.Error() }
func (e *userError) Unwrap() error { return e.err }

func userErrorf(format string, args ...any) error {
	return &userError{err: fmt.Errorf(format, args...)}
}

// exitCode maps err to exitUserError or exitSysError.
func exitCode(err error) int {
	var ue *userError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ue),
		errors.Is(err, types.ErrConfigInvalid),
		errors.Is(err, types.ErrNotFound):
		return exitUserError
	default:
		return exitSysError
	}
}

// noArgs and exactArgs report argument mistakes as user errors.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return &userError{err: err}
	}
	return nil
}

func exactArgs(n int) cobra.PositionalArgs {
	check := cobra.ExactArgs(n)
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &userError{err: err}
		}
		return nil
	}
}
