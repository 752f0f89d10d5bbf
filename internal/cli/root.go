// Package cli implements the agentenv command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmora/agentenv"
	"github.com/dmora/agentenv/internal/config"
	"github.com/dmora/agentenv/internal/logger"
)

// Version is set via ldflags at build time
var Version = "dev"

// globalFlags back the persistent flags. Only flags the user changed reach
// the settings flag layer.
type globalFlags struct {
	configFile string
	binary     string
	logLevel   string
	logFormat  string
	dotenv     []string
}

// NewRootCmd creates the root command for the 'agentenv' CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(agentenv.CurrentSnapshot)
}

// newRootCmd takes the ambient snapshot source so tests can run commands
// against a fixed environment.
func newRootCmd(ambient func() agentenv.Snapshot) *cobra.Command {
	var gf globalFlags

	rootCmd := &cobra.Command{
		Use:     "agentenv",
		Short:   "Inspect and apply the agent CLI subprocess environment",
		Version: Version,
		Long: `agentenv builds the environment an agent CLI subprocess is launched with.

Commands:
  env [flags]                  Print the built environment
  resolve <KEY> [--default D]  Resolve one value (overrides, ambient, default)
  run [flags] -- BIN ARGS...   Run a command under the built environment

Settings are layered: defaults, settings file (--config or AGENTENV_CONFIG),
AGENTENV_* variables, then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, &gf, ambient())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = a.log.WithContext(ctx)
			cmd.SetContext(context.WithValue(ctx, appKey, a))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&gf.configFile, "config", "", "settings file (YAML)")
	pf.StringVar(&gf.binary, "binary", "", "agent CLI binary (default \"claude\")")
	pf.StringVar(&gf.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&gf.logFormat, "log-format", "", "log format: console or json")
	pf.StringSliceVar(&gf.dotenv, "dotenv", nil, "dotenv file layered over the ambient environment (repeatable)")

	rootCmd.AddCommand(
		newEnvCmd(),
		newResolveCmd(),
		newRunCmd(),
	)
	return rootCmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context; the agent runs in its own process group and does not receive
// terminal signals directly, so run stops it on cancellation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// flagSettings returns the settings layer for the persistent flags the user
// set explicitly.
func flagSettings(cmd *cobra.Command, gf *globalFlags) *config.Settings {
	s := &config.Settings{}
	flags := cmd.Flags()
	if flags.Changed("config") {
		s.File = gf.configFile
	}
	if flags.Changed("binary") {
		s.Binary = gf.binary
	}
	if flags.Changed("log-level") {
		s.LogLevel = gf.logLevel
	}
	if flags.Changed("log-format") {
		s.LogFormat = gf.logFormat
	}
	if flags.Changed("dotenv") {
		s.Dotenv = gf.dotenv
	}
	return s
}

func loadApp(cmd *cobra.Command, gf *globalFlags, ambient agentenv.Snapshot) (*app, error) {
	settings, err := config.Load(ambient, flagSettings(cmd, gf))
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if len(settings.Dotenv) > 0 {
		dotenv, err := agentenv.LoadDotenvSnapshot(settings.Dotenv...)
		if err != nil {
			return nil, err
		}
		ambient = ambient.Overlay(dotenv)
	}

	log := logger.New(logger.Options{
		Role:    "cli",
		Level:   settings.LogLevel,
		Console: settings.LogFormat == config.LogFormatConsole,
		Output:  cmd.ErrOrStderr(),
	})
	log.Debug().
		Str("settings_file", settings.File).
		Int("ambient_vars", ambient.Len()).
		Msg("settings loaded")

	return &app{settings: settings, ambient: ambient, log: log}, nil
}
