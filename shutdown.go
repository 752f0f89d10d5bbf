package agentenv

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

//go:generate mockgen -source=shutdown.go -destination=internal/mock/stream_mock.go -package=mock

// Stream is the bidirectional session a ShutdownController closes.
// Transports implement it on top of the subprocess pipes.
type Stream interface {
	// CloseInput signals end-of-input to the subprocess.
	CloseInput() error

	// Done is closed when the session has completed.
	Done() <-chan struct{}
}

// CloseState is the lifecycle state of a ShutdownController.
type CloseState int

const (
	// StateOpen means no close has started.
	StateOpen CloseState = iota
	// StateClosing means end-of-input was signaled and the controller is
	// waiting for completion or the timeout.
	StateClosing
	// StateTimedOut is entered when the timeout elapses before completion.
	// It is always followed by StateClosed.
	StateTimedOut
	// StateClosed is terminal.
	StateClosed
)

func (s CloseState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateTimedOut:
		return "timed_out"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CloseOutcome is how a close sequence ended.
type CloseOutcome int

const (
	// OutcomePending is returned when no sequence result is available:
	// the timeout could not be resolved, or the caller stopped waiting on
	// a sequence started by another caller.
	OutcomePending CloseOutcome = iota
	// OutcomeClosed means the stream completed within the timeout.
	OutcomeClosed
	// OutcomeTimedOut means the timeout elapsed first. It is not an error;
	// callers decide whether to escalate.
	OutcomeTimedOut
	// OutcomeCanceled means the caller's context ended the wait early.
	OutcomeCanceled
)

func (o CloseOutcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeClosed:
		return "closed"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ShutdownOptions holds resolved configuration for a ShutdownController.
type ShutdownOptions struct {
	// Timeout is the per-call close timeout. Nil defers to the Config and
	// the environment.
	Timeout *time.Duration

	// Logger receives close lifecycle events. Defaults to a no-op logger.
	Logger zerolog.Logger
}

// ShutdownOption configures a ShutdownController at construction time.
type ShutdownOption func(*ShutdownOptions)

// WithTimeout sets the per-call close timeout, which takes precedence over
// Config.CloseTimeout and CLAUDE_CODE_STREAM_CLOSE_TIMEOUT.
// Negative values are ignored.
func WithTimeout(d time.Duration) ShutdownOption {
	return func(o *ShutdownOptions) {
		if d >= 0 {
			o.Timeout = &d
		}
	}
}

// WithLogger sets the logger for close lifecycle events.
func WithLogger(l zerolog.Logger) ShutdownOption {
	return func(o *ShutdownOptions) {
		o.Logger = l
	}
}

func resolveShutdownOptions(opts ...ShutdownOption) ShutdownOptions {
	o := ShutdownOptions{Logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// ShutdownController drives a bounded graceful close of one Stream:
// OPEN → CLOSING → CLOSED, or OPEN → CLOSING → TIMED_OUT → CLOSED.
//
// Exactly one close sequence runs per controller. Concurrent and repeated
// Close calls do not signal end-of-input again or start another timer;
// they wait for the running sequence and report its result.
type ShutdownController struct {
	stream  Stream
	cfg     *Config
	ambient Source
	opts    ShutdownOptions

	mu      sync.Mutex
	state   CloseState
	timeout time.Duration
	outcome CloseOutcome
	err     error
	done    chan struct{} // closed when the sequence finishes
}

// NewShutdownController creates a controller for stream. cfg and ambient
// feed timeout resolution when the close begins; cfg may be nil and
// ambient may be nil.
func NewShutdownController(stream Stream, cfg *Config, ambient Source, opts ...ShutdownOption) *ShutdownController {
	return &ShutdownController{
		stream:  stream,
		cfg:     cfg.Clone(),
		ambient: ambient,
		opts:    resolveShutdownOptions(opts...),
		done:    make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (c *ShutdownController) State() CloseState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Timeout returns the timeout resolved for the close sequence, or zero if
// no sequence has started.
func (c *ShutdownController) Timeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeout
}

// Done is closed when the close sequence has finished.
func (c *ShutdownController) Done() <-chan struct{} {
	return c.done
}

// Close signals end-of-input and waits for the stream to complete, up to
// the resolved timeout. The timeout is resolved once, when the sequence
// starts, and is not re-read during the wait.
//
// Canceling ctx ends the wait early with OutcomeCanceled and ctx.Err().
// A timeout is reported as OutcomeTimedOut with a nil error.
// An unparsable timeout returns *InvalidConfigValueError and leaves the
// controller open with nothing signaled.
func (c *ShutdownController) Close(ctx context.Context) (CloseOutcome, error) {
	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		return c.awaitSequence(ctx)
	}
	timeout, err := ResolveCloseTimeout(c.opts.Timeout, c.cfg, c.ambient)
	if err != nil {
		c.mu.Unlock()
		return OutcomePending, err
	}
	c.state = StateClosing
	c.timeout = timeout
	c.mu.Unlock()

	outcome, err := c.run(ctx, timeout)

	c.mu.Lock()
	c.state = StateClosed
	c.outcome = outcome
	c.err = err
	c.mu.Unlock()
	close(c.done)

	c.opts.Logger.Debug().
		Stringer("outcome", outcome).
		Dur("timeout", timeout).
		Msg("stream close finished")
	return outcome, err
}

// awaitSequence waits for a sequence started by another Close call.
func (c *ShutdownController) awaitSequence(ctx context.Context) (CloseOutcome, error) {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.outcome, c.err
	case <-ctx.Done():
		return OutcomePending, ctx.Err()
	}
}

// run signals end-of-input and races stream completion against the timer
// and ctx. Completion wins ties.
func (c *ShutdownController) run(ctx context.Context, timeout time.Duration) (CloseOutcome, error) {
	if err := c.stream.CloseInput(); err != nil {
		// Best-effort: the pipe may already be closed by a finished session.
		c.opts.Logger.Debug().Err(err).Msg("close input")
	}

	if c.completed() {
		return OutcomeClosed, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-c.stream.Done():
		return OutcomeClosed, nil
	case <-timer.C:
		if c.completed() {
			return OutcomeClosed, nil
		}
		c.mu.Lock()
		c.state = StateTimedOut
		c.mu.Unlock()
		c.opts.Logger.Warn().Dur("timeout", timeout).Msg("stream close timed out")
		return OutcomeTimedOut, nil
	case <-ctx.Done():
		if c.completed() {
			return OutcomeClosed, nil
		}
		return OutcomeCanceled, ctx.Err()
	}
}

func (c *ShutdownController) completed() bool {
	select {
	case <-c.stream.Done():
		return true
	default:
		return false
	}
}
