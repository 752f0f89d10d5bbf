package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dmora/agentenv"
)

const redacted = "********"

// secretMarkers flag variable names whose values are redacted unless
// --show-secrets is set.
var secretMarkers = []string{"API_KEY", "TOKEN", "SECRET", "PASSWORD", "CREDENTIAL"}

func newEnvCmd() *cobra.Command {
	var (
		cf          configFlags
		asJSON      bool
		showSecrets bool
	)

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the built subprocess environment",
		Long: `Print the environment an agent CLI subprocess would be started with.

Credential values are redacted unless --show-secrets is set.`,
		Example: `  agentenv env --isolated --api-key sk-test
  agentenv env -e CLAUDE_CODE_STREAM_CLOSE_TIMEOUT=30000 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			cfg, err := buildConfig(cmd, a, &cf)
			if err != nil {
				return err
			}

			env := agentenv.BuildEnv(cfg, a.ambient)
			if asJSON {
				return writeEnvJSON(cmd.OutOrStdout(), cfg, env, showSecrets)
			}
			return writeEnvText(cmd.OutOrStdout(), env, showSecrets)
		},
	}

	addConfigFlags(cmd, &cf)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print credential values in clear text")
	return cmd
}

func isSecret(key string) bool {
	upper := strings.ToUpper(key)
	for _, marker := range secretMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

func displayValue(key, value string, showSecrets bool) string {
	if showSecrets || value == "" || !isSecret(key) {
		return value
	}
	return redacted
}

func writeEnvText(w io.Writer, env *agentenv.Environment, showSecrets bool) error {
	for _, k := range env.Keys() {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, displayValue(k, env.Get(k), showSecrets)); err != nil {
			return err
		}
	}
	return nil
}

// writeEnvJSON prints {"isolated":..., "binary":..., "env":{...}} with keys
// in sorted order.
func writeEnvJSON(w io.Writer, cfg *agentenv.Config, env *agentenv.Environment, showSecrets bool) error {
	doc := []byte(`{}`)
	var err error
	if doc, err = sjson.SetBytes(doc, "isolated", cfg.Isolated()); err != nil {
		return err
	}
	if doc, err = sjson.SetBytes(doc, "binary", cfg.Binary()); err != nil {
		return err
	}
	if doc, err = sjson.SetRawBytes(doc, "env", []byte(`{}`)); err != nil {
		return err
	}
	for _, k := range env.Keys() {
		doc, err = sjson.SetBytes(doc, "env."+escapePath(k), displayValue(k, env.Get(k), showSecrets))
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
	}
	_, err = w.Write(pretty.Pretty(doc))
	return err
}

// escapePath escapes the characters sjson treats as path syntax.
func escapePath(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', ':', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
