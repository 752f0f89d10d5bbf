package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dmora/agentenv"
	"github.com/dmora/agentenv/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if code, ok := agentenv.ExitCode(err); ok && code > 0 {
			os.Exit(code)
		}
		if !errors.Is(err, agentenv.ErrTerminated) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
