package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmora/agentenv"
	"github.com/dmora/agentenv/internal/logger"
	"github.com/dmora/agentenv/transport"
)

func newRunCmd() *cobra.Command {
	var cf configFlags

	cmd := &cobra.Command{
		Use:   "run [flags] -- <BIN> [ARGS...]",
		Short: "Run a command under the built environment",
		Long: `Start BIN under the environment 'agentenv env' prints, forward stdin to it
line by line and its stdout back. At end of input the stream is closed
gracefully, bounded by the resolved close timeout; a timeout escalates to
SIGTERM and then SIGKILL.

Without BIN the configured agent binary is started.`,
		Example: `  agentenv run --isolated -- claude -p --input-format stream-json --output-format stream-json
  echo hello | agentenv run -- cat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			cfg, err := buildConfig(cmd, a, &cf)
			if err != nil {
				return err
			}

			var opts []transport.Option
			if len(args) > 0 {
				cfg = cfg.With(agentenv.WithBinary(args[0]))
				opts = append(opts, transport.WithArgs(args[1:]...))
			}
			ctx := cmd.Context()
			log := logger.FromContext(ctx).Named("run")
			opts = append(opts,
				transport.WithLogger(log.Logger),
				transport.WithGracePeriod(a.settings.GracePeriod),
			)

			p, err := transport.Start(ctx, cfg, a.ambient, opts...)
			if err != nil {
				return err
			}
			log.Debug().Str("process_id", p.ID()).Int("pid", p.PID()).Msg("started")
			return pump(ctx, p, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	addConfigFlags(cmd, &cf)
	return cmd
}

// pump forwards in to the process and its output to out, then closes the
// process once input ends or the process exits.
func pump(ctx context.Context, p *transport.Process, in io.Reader, out io.Writer) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		w := bufio.NewWriter(out)
		defer w.Flush()
		for line := range p.Lines() {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
			if len(p.Lines()) == 0 {
				if err := w.Flush(); err != nil {
					return err
				}
			}
		}
		return nil
	})

	g.Go(func() error {
		if err := forwardInput(gctx, p, in); err != nil {
			_ = p.Stop(context.Background())
			return err
		}
		// A timed out close escalates to Stop; Err reports ErrTerminated.
		_, err := p.Close(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return p.Err()
}

// forwardInput sends lines from in until EOF or until the process ends.
// The reader runs in its own goroutine because a terminal read cannot be
// interrupted.
func forwardInput(ctx context.Context, p *transport.Process, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 4096), 1<<20)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-p.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("read stdin: %w", err)
					}
				default:
				}
				return nil
			}
			if err := p.Send(ctx, line); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// The process stopped reading; let Close collect its exit.
				return nil
			}
		case <-p.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
