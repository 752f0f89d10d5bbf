package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmora/agentenv"
)

func newResolveCmd() *cobra.Command {
	var (
		def string
		env []string
	)

	cmd := &cobra.Command{
		Use:   "resolve <KEY>",
		Short: "Resolve one configuration value",
		Long: `Resolve KEY through per-instance overrides (settings env and --env),
then the ambient environment, then --default.

An override set to the empty string wins over the ambient value.`,
		Example: `  agentenv resolve CLAUDE_CODE_STREAM_CLOSE_TIMEOUT --default 60000`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			overrides, err := parseEnvPairs(env)
			if err != nil {
				return err
			}
			cfg := agentenv.NewConfig(agentenv.WithEnv(a.settings.Env), agentenv.WithEnv(overrides))

			value := agentenv.Resolve(args[0], cfg.Env(), a.ambient, def)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}

	cmd.Flags().StringVar(&def, "default", "", "value used when KEY is set nowhere")
	cmd.Flags().StringArrayVarP(&env, "env", "e", nil, "override KEY=VALUE (repeatable)")
	return cmd
}
