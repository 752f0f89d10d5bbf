package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmora/agentenv"
	"github.com/dmora/agentenv/internal/config"
	"github.com/dmora/agentenv/internal/logger"
)

type contextKey string

const appKey contextKey = "app"

// app is the per-invocation state built by the root command.
type app struct {
	settings *config.Settings
	ambient  agentenv.Snapshot
	log      *logger.Logger
}

func getApp(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey).(*app)
	if !ok || a == nil {
		return nil, errors.New("internal error: settings not initialized")
	}
	return a, nil
}

// configFlags are the per-command flags that shape an agentenv.Config.
type configFlags struct {
	isolated        bool
	apiKey          string
	baseURL         string
	env             []string
	passthrough     []string
	maxOutputTokens int
	closeTimeout    string
}

func addConfigFlags(cmd *cobra.Command, cf *configFlags) {
	f := cmd.Flags()
	f.BoolVar(&cf.isolated, "isolated", false, "start from the passthrough allow-list instead of the full ambient environment")
	f.StringVar(&cf.apiKey, "api-key", "", "credential for the subprocess (empty blanks the ambient one)")
	f.StringVar(&cf.baseURL, "base-url", "", "endpoint override for the subprocess")
	f.StringArrayVarP(&cf.env, "env", "e", nil, "environment override KEY=VALUE (repeatable, applied last)")
	f.StringSliceVar(&cf.passthrough, "passthrough", nil, "extra variable kept in isolated mode (repeatable)")
	f.IntVar(&cf.maxOutputTokens, "max-output-tokens", 0, "advisory output token limit")
	f.StringVar(&cf.closeTimeout, "close-timeout", "", "stream close timeout in milliseconds")
}

// buildConfig layers the command flags the user set over the settings.
func buildConfig(cmd *cobra.Command, a *app, cf *configFlags) (*agentenv.Config, error) {
	opts := a.settings.ConfigOptions()
	flags := cmd.Flags()

	if flags.Changed("isolated") {
		opts = append(opts, agentenv.WithIsolated(cf.isolated))
	}
	if flags.Changed("api-key") {
		opts = append(opts, agentenv.WithAPIKey(cf.apiKey))
	}
	if flags.Changed("base-url") {
		opts = append(opts, agentenv.WithBaseURL(cf.baseURL))
	}
	if flags.Changed("passthrough") {
		opts = append(opts, agentenv.WithPassthrough(cf.passthrough...))
	}
	if flags.Changed("max-output-tokens") {
		opts = append(opts, agentenv.WithMaxOutputTokens(cf.maxOutputTokens))
	}
	if flags.Changed("close-timeout") {
		d, err := agentenv.ParseCloseTimeout(cf.closeTimeout)
		if err != nil {
			return nil, err
		}
		opts = append(opts, agentenv.WithCloseTimeout(d))
	}

	overrides, err := parseEnvPairs(cf.env)
	if err != nil {
		return nil, err
	}
	opts = append(opts, agentenv.WithEnv(overrides))

	cfg := agentenv.NewConfig(opts...)
	if err := agentenv.ValidateEnv(cfg.Env()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseEnvPairs parses KEY=VALUE pairs. The value may be empty or contain
// '='; the key may not be empty.
func parseEnvPairs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --env %q: want KEY=VALUE", pair)
		}
		out[k] = v
	}
	return out, nil
}
