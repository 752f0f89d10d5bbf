//go:build !windows

package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dmora/agentenv"
	"github.com/dmora/agentenv/internal/errfmt"
)

// Start validates cfg, resolves its binary, and spawns it under an
// environment built from cfg and ambient. The version check runs first
// unless CLAUDE_AGENT_SDK_SKIP_VERSION_CHECK resolves non-empty; its
// failures are logged and never fail Start.
//
// ctx bounds the version check only. Subprocess lifetime is controlled via
// Process.Close and Process.Stop.
func Start(ctx context.Context, cfg *agentenv.Config, ambient agentenv.Snapshot, opts ...Option) (*Process, error) {
	o := resolveOptions(opts...)
	cfg = cfg.Clone()

	if err := agentenv.ValidateEnv(cfg.Env()); err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	if _, _, err := agentenv.ResolveMaxOutputTokens(cfg, ambient); err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	if err := validateDir(o.Dir); err != nil {
		return nil, err
	}

	binary, err := exec.LookPath(cfg.Binary())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", agentenv.ErrUnavailable, cfg.Binary(), err)
	}

	env := agentenv.BuildEnv(cfg, ambient)
	id := uuid.NewString()
	logger := o.Logger.With().Str("process_id", id).Logger()

	if agentenv.SkipVersionCheck(cfg, ambient) {
		logger.Debug().Msg("version check skipped")
	} else {
		checkVersion(ctx, binary, env.Environ(), logger)
	}

	cmd, pipes, err := spawnCmd(binary, o.Args, o.Dir, env.Environ())
	if err != nil {
		return nil, fmt.Errorf("transport: start: %w", err)
	}
	logger.Debug().
		Str("binary", binary).
		Int("pid", cmd.Process.Pid).
		Bool("isolated", cfg.Isolated()).
		Msg("process started")

	p := newProcess(id, cfg, ambient, env, o, logger, cmd, pipes)
	return p, nil
}

func checkVersion(ctx context.Context, binary string, env []string, logger zerolog.Logger) {
	v, err := CheckVersion(ctx, binary, env)
	switch {
	case errors.Is(err, ErrUnsupportedVersion):
		logger.Warn().
			Stringer("version", v).
			Str("minimum", MinimumCLIVersion).
			Msg("agent CLI is older than the minimum supported version")
	case err != nil:
		logger.Warn().Err(err).Msg("could not determine agent CLI version")
	default:
		logger.Debug().Stringer("version", v).Msg("agent CLI version")
	}
}

func validateDir(dir string) error {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("transport: dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("transport: dir is not a directory: %s", dir)
	}
	return nil
}

// pipes holds the parent ends of the subprocess stdio. The stdout and
// stderr read ends are owned here rather than by exec.Cmd, so cmd.Wait
// never closes them under a reader that is still draining.
type pipes struct {
	stdin  io.WriteCloser
	stdout *os.File
	stderr *os.File
}

func (pp pipes) closeReaders() {
	_ = pp.stdout.Close()
	_ = pp.stderr.Close()
}

// spawnCmd builds, configures, and starts an exec.Cmd in its own process
// group. env is always non-nil so the subprocess never inherits the parent
// environment.
func spawnCmd(binary string, args []string, dir string, env []string) (*exec.Cmd, pipes, error) {
	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	cmd.Env = env
	if cmd.Env == nil {
		cmd.Env = []string{}
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var p pipes
	var err error
	if p.stdin, err = cmd.StdinPipe(); err != nil {
		return nil, pipes{}, fmt.Errorf("stdin pipe: %w", err)
	}
	stdoutW, stderrW, err := p.openOutputs()
	if err != nil {
		_ = p.stdin.Close()
		return nil, pipes{}, err
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	err = cmd.Start()
	// The child holds its own copies of the write ends.
	_ = stdoutW.Close()
	_ = stderrW.Close()
	if err != nil {
		_ = p.stdin.Close()
		p.closeReaders()
		return nil, pipes{}, err
	}
	return cmd, p, nil
}

// openOutputs creates the stdout and stderr pipes, keeping the read ends
// and returning the write ends for the child.
func (p *pipes) openOutputs() (stdoutW, stderrW *os.File, err error) {
	if p.stdout, stdoutW, err = os.Pipe(); err != nil {
		return nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if p.stderr, stderrW, err = os.Pipe(); err != nil {
		_ = p.stdout.Close()
		_ = stdoutW.Close()
		return nil, nil, fmt.Errorf("stderr pipe: %w", err)
	}
	return stdoutW, stderrW, nil
}

// signalGroup sends sig to the subprocess's process group, reaching any
// descendants that stayed in it. A group that no longer exists is not an
// error.
func signalGroup(pid int, sig syscall.Signal) error {
	err := syscall.Kill(-pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}

// Process is a running agent CLI subprocess. It implements agentenv.Stream.
type Process struct {
	id     string
	env    *agentenv.Environment
	opts   Options
	logger zerolog.Logger
	cmd    *exec.Cmd

	mu          sync.Mutex
	stdin       io.WriteCloser
	inputClosed bool

	lines      chan string
	stderrTail *errfmt.Tail
	cancelRead context.CancelFunc
	shutdown   *agentenv.ShutdownController

	stopCh chan struct{} // closed when Stop begins

	done    chan struct{} // closed exactly once by finish()
	termErr error         // set by finish(), read after done closes

	stopping   atomic.Bool
	stopOnce   sync.Once
	finishOnce sync.Once
}

var _ agentenv.Stream = (*Process)(nil)

func newProcess(
	id string,
	cfg *agentenv.Config,
	ambient agentenv.Snapshot,
	env *agentenv.Environment,
	opts Options,
	logger zerolog.Logger,
	cmd *exec.Cmd,
	pp pipes,
) *Process {
	readCtx, cancelRead := context.WithCancel(context.Background())

	p := &Process{
		id:         id,
		env:        env,
		opts:       opts,
		logger:     logger,
		cmd:        cmd,
		stdin:      pp.stdin,
		lines:      make(chan string, opts.OutputBuffer),
		stderrTail: errfmt.NewTail(stderrTailLines, errfmt.MaxLen),
		cancelRead: cancelRead,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}

	var shutdownOpts []agentenv.ShutdownOption
	if opts.CloseTimeout != nil {
		shutdownOpts = append(shutdownOpts, agentenv.WithTimeout(*opts.CloseTimeout))
	}
	shutdownOpts = append(shutdownOpts, agentenv.WithLogger(logger))
	p.shutdown = agentenv.NewShutdownController(p, cfg, ambient, shutdownOpts...)

	g, gctx := errgroup.WithContext(readCtx)
	g.Go(func() error { return p.scanStdout(gctx, pp.stdout) })
	g.Go(func() error { return p.scanStderr(pp.stderr) })
	go p.waitLoop(g, pp)
	return p
}

// ID returns the identifier attached to this process's log entries.
func (p *Process) ID() string { return p.id }

// PID returns the operating system process ID.
func (p *Process) PID() int { return p.cmd.Process.Pid }

// Environment returns the environment the subprocess was started with.
func (p *Process) Environment() *agentenv.Environment { return p.env }

// Lines returns stdout lines without their trailing newline. The channel
// is closed when the subprocess ends.
func (p *Process) Lines() <-chan string { return p.lines }

// Done is closed when the subprocess has exited and its output is drained.
func (p *Process) Done() <-chan struct{} { return p.done }

// Send writes line to the subprocess stdin, appending a newline when
// missing. Returns agentenv.ErrTerminated after input is closed or the
// subprocess has ended.
func (p *Process) Send(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.stopping.Load() {
		return agentenv.ErrTerminated
	}
	select {
	case <-p.done:
		return agentenv.ErrTerminated
	default:
	}

	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}

	p.mu.Lock()
	stdin, closed := p.stdin, p.inputClosed
	p.mu.Unlock()
	if closed {
		return agentenv.ErrTerminated
	}
	if _, err := io.WriteString(stdin, line); err != nil {
		return fmt.Errorf("transport: write stdin: %w", err)
	}
	return nil
}

// CloseInput closes the subprocess stdin. Later calls return nil.
func (p *Process) CloseInput() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inputClosed {
		return nil
	}
	p.inputClosed = true
	if err := p.stdin.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("transport: close stdin: %w", err)
	}
	return nil
}

// Close ends the session gracefully: it signals end-of-input and waits up
// to the resolved stream close timeout for the subprocess to exit. A
// timeout or a canceled ctx escalates to Stop. Safe to call multiple
// times; later calls report the first outcome.
func (p *Process) Close(ctx context.Context) (agentenv.CloseOutcome, error) {
	outcome, err := p.shutdown.Close(ctx)
	switch outcome {
	case agentenv.OutcomeTimedOut, agentenv.OutcomeCanceled:
		p.logger.Debug().Stringer("outcome", outcome).Msg("escalating to stop")
		_ = p.Stop(ctx) // termination is reported by Err
	}
	return outcome, err
}

// Stop terminates the subprocess. Safe to call multiple times.
// Blocks until the subprocess has exited and Lines is closed.
func (p *Process) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.stopping.Store(true)
		close(p.stopCh)
		_ = p.CloseInput() // Best-effort: pipe may already be closed.

		// Unblock the stdout reader if stuck on channel send.
		p.cancelRead()

		pid := p.cmd.Process.Pid
		_ = signalGroup(pid, syscall.SIGTERM)

		timer := time.NewTimer(p.opts.GracePeriod)
		defer timer.Stop()

		select {
		case <-p.done:
		case <-timer.C:
			p.logger.Debug().Dur("grace_period", p.opts.GracePeriod).Msg("grace period elapsed, killing")
			_ = signalGroup(pid, syscall.SIGKILL)
		case <-ctx.Done():
			_ = signalGroup(pid, syscall.SIGKILL)
		}
	})

	<-p.done
	return p.termErr
}

// Wait blocks until the subprocess ends.
func (p *Process) Wait() error {
	<-p.done
	return p.termErr
}

// Err returns the terminal error, or nil if still running.
func (p *Process) Err() error {
	select {
	case <-p.done:
		return p.termErr
	default:
		return nil
	}
}

// finish sets the terminal error and closes lines+done.
// Called exactly once via sync.Once.
func (p *Process) finish(err error) {
	p.finishOnce.Do(func() {
		p.termErr = err
		close(p.lines)
		close(p.done)
	})
}

// waitLoop reaps the subprocess, then gives the readers until the grace
// period elapses (or Stop begins) to reach EOF. Descendants that inherited
// the output pipes can hold them open past the exit, so the read ends are
// closed before collecting the readers.
func (p *Process) waitLoop(g *errgroup.Group, pp pipes) {
	readDone := make(chan error, 1)
	go func() { readDone <- g.Wait() }()

	waitErr := p.cmd.Wait()

	var readErr error
	drained := false
	drain := time.NewTimer(p.opts.GracePeriod)
	select {
	case readErr = <-readDone:
		drained = true
	case <-drain.C:
		p.logger.Warn().Msg("output pipes still open after exit, closing")
	case <-p.stopCh:
	}
	drain.Stop()

	pp.closeReaders()
	if !drained {
		readErr = <-readDone
	}
	p.cancelRead()

	switch {
	case readErr != nil:
		waitErr = readErr
	default:
		waitErr = wrapExitError(waitErr, p.stderrTail.String())
	}
	if p.stopping.Load() {
		waitErr = agentenv.ErrTerminated
	}

	p.logger.Debug().Err(waitErr).Msg("process exited")
	p.finish(waitErr)
}

// scanStdout pumps stdout lines into the lines channel.
func (p *Process) scanStdout(ctx context.Context, stdout io.Reader) error {
	scanner := bufio.NewScanner(stdout)
	initCap := min(4096, p.opts.ScannerBuffer)
	scanner.Buffer(make([]byte, 0, initCap), p.opts.ScannerBuffer)

	for scanner.Scan() {
		select {
		case p.lines <- scanner.Text():
		case <-ctx.Done():
			return nil
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		_ = signalGroup(p.cmd.Process.Pid, syscall.SIGKILL)
		return fmt.Errorf("transport: scanner: %w", err)
	}
	return nil
}

// scanStderr forwards stderr lines to the logger. It reads until EOF or
// until waitLoop closes the pipe, so the subprocess never blocks on a full
// stderr pipe.
func (p *Process) scanStderr(stderr io.Reader) error {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 4096), p.opts.ScannerBuffer)
	for scanner.Scan() {
		line := scanner.Text()
		p.stderrTail.Add(line)
		p.logger.Debug().Str("stderr", errfmt.Sanitize(line)).Msg("agent stderr")
	}
	// Oversized stderr lines are dropped; drain the rest.
	_, _ = io.Copy(io.Discard, stderr)
	return nil
}

// wrapExitError converts a non-zero *exec.ExitError to *agentenv.ExitError
// carrying the captured stderr tail. nil and code 0 map to nil; other
// errors pass through unchanged.
func wrapExitError(err error, stderr string) error {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return err
	}
	code := ee.ExitCode()
	if code == 0 {
		return nil
	}
	return &agentenv.ExitError{Code: code, Err: err, Stderr: stderr}
}
