package atcmd

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/orblink/internal/logging"
)

// Stream is the byte stream connected to the modem.
//
// Read must return promptly with whatever is available, possibly nothing.
// ResetInput discards bytes already received but not yet read.
type Stream interface {
	io.ReadWriter
	ResetInput() error
}

// Config holds the timing policy of an Executor.
type Config struct {
	// PollInterval is the sleep between empty reads while waiting for a sentinel.
	// Default: 10ms
	PollInterval time.Duration

	// CollectInterval is the sleep between empty reads while collecting socket data.
	// Default: 50ms
	CollectInterval time.Duration

	// BackoffBase is the delay after the first failed attempt.
	// Default: 150ms
	BackoffBase time.Duration

	// BackoffCap bounds the delay between attempts.
	// Default: 800ms
	BackoffCap time.Duration

	// ReadBufferSize is the size of a single read from the stream.
	// Default: 1024
	ReadBufferSize int
}

// DefaultConfig returns a Config with the standard ESP-AT timing.
func DefaultConfig() Config {
	return Config{
		PollInterval:    10 * time.Millisecond,
		CollectInterval: 50 * time.Millisecond,
		BackoffBase:     150 * time.Millisecond,
		BackoffCap:      800 * time.Millisecond,
		ReadBufferSize:  1024,
	}
}

// Result is the outcome of Execute.
type Result struct {
	// Command is the command text that was sent
	Command string
	// OK is true when the final parsed status was OK, or when the
	// command's Accept predicate matched a capture without ERROR
	OK bool
	// Raw is the capture of the last attempt
	Raw string
	// Response is the parse of Raw
	Response *Response
	// Attempts is the number of transmissions made
	Attempts int
	// Duration covers all attempts including backoff
	Duration time.Duration
	// Err describes the last failure; nil when OK
	Err error
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock replaces the system clock.
func WithClock(clock Clock) Option {
	return func(e *Executor) {
		e.clock = clock
	}
}

// WithRecorder records every exchange to r.
func WithRecorder(r *Recorder) Option {
	return func(e *Executor) {
		e.recorder = r
	}
}

// Executor issues commands over a Stream and waits for their sentinels.
//
// It is the only reader and writer of the stream. Every exchange holds mu,
// so at most one command is ever in flight.
type Executor struct {
	stream   Stream
	config   Config
	logger   *zap.Logger
	clock    Clock
	recorder *Recorder

	mu  sync.Mutex
	buf []byte
}

// NewExecutor creates an Executor that owns stream for its lifetime.
// A nil stream is the one unrecoverable construction error.
func NewExecutor(stream Stream, config Config, logger *zap.Logger, opts ...Option) (*Executor, error) {
	if stream == nil {
		return nil, ErrNoStream
	}
	defaults := DefaultConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.CollectInterval <= 0 {
		config.CollectInterval = defaults.CollectInterval
	}
	if config.BackoffBase <= 0 {
		config.BackoffBase = defaults.BackoffBase
	}
	if config.BackoffCap <= 0 {
		config.BackoffCap = defaults.BackoffCap
	}
	if config.ReadBufferSize <= 0 {
		config.ReadBufferSize = defaults.ReadBufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Executor{
		stream: stream,
		config: config,
		logger: logger,
		clock:  SystemClock{},
		buf:    make([]byte, config.ReadBufferSize),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Backoff returns the delay inserted after failed attempt number attempt (1-based).
func (e *Executor) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := e.config.BackoffBase
	for i := 1; i < attempt && delay < e.config.BackoffCap; i++ {
		delay *= 2
	}
	return min(delay, e.config.BackoffCap)
}

// Run executes text with the given timeout and the derived attempt count.
func (e *Executor) Run(text string, timeout time.Duration) *Result {
	return e.Execute(NewCommand(text, timeout))
}

// Execute sends cmd and waits for its terminal sentinel, retrying with
// backoff while attempts remain. It never returns a Go error: failure is
// reported through Result.OK, Result.Raw and Result.Err.
func (e *Executor) Execute(cmd Command) *Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.clock.Now()
	attempts := cmd.MaxAttempts()
	display := Redact(cmd.Text)
	result := &Result{Command: display}

	for attempt := 1; attempt <= attempts; attempt++ {
		attemptStart := e.clock.Now()
		result.Attempts = attempt

		raw, err := e.exchange(cmd)
		result.Raw = raw
		result.Response = Parse(raw, cmd.Text)

		switch {
		case err != nil:
			result.Err = &WriteError{Command: display, Err: err}
		case result.Response.OK():
			result.Err = nil
		case result.Response.Status == StatusError:
			result.Err = &RejectedError{Command: display, Lines: result.Response.Intermediate}
		case cmd.accepts(result.Response):
			result.Err = nil
		default:
			result.Err = &TimeoutError{Command: display, Timeout: cmd.timeout(), Partial: redactCapture(raw, cmd.Text)}
		}
		result.OK = result.Err == nil

		e.record(cmd.Text, attempt, result, e.clock.Now().Sub(attemptStart))

		if result.OK {
			result.Duration = e.clock.Now().Sub(start)
			e.logger.Debug("command succeeded",
				zap.String("command", display),
				zap.Int("attempt", attempt),
				zap.Duration("duration", result.Duration),
			)
			return result
		}

		e.logger.Warn("command attempt failed",
			zap.String("command", display),
			zap.Int("attempt", attempt),
			zap.Int("attempts", attempts),
			zap.Error(result.Err),
		)
		e.logger.Debug("failed command response", logging.RawFields(redactCapture(raw, cmd.Text))...)

		if attempt < attempts {
			e.clock.Sleep(e.Backoff(attempt))
		}
	}

	result.Duration = e.clock.Now().Sub(start)
	return result
}

// WriteRaw writes data to the stream without a terminator. It is used for
// socket payloads after the modem has acknowledged a size announcement.
func (e *Executor) WriteRaw(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger.Debug("writing raw payload", logging.RawFields(string(data))...)
	_, err := e.stream.Write(data)
	return err
}

// Collect accumulates inbound bytes until done reports true or wait elapses,
// and returns whatever was accumulated.
func (e *Executor) Collect(wait time.Duration, done func([]byte) bool) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.poll(wait, e.config.CollectInterval, done)
}

// Pause sleeps on the executor's clock.
func (e *Executor) Pause(d time.Duration) {
	e.clock.Sleep(d)
}

// exchange performs one attempt: flush stale input, write, capture.
func (e *Executor) exchange(cmd Command) (string, error) {
	if err := e.stream.ResetInput(); err != nil {
		e.logger.Debug("failed to reset input buffer", zap.Error(err))
	}

	if _, err := e.stream.Write([]byte(cmd.Text + Terminator)); err != nil {
		return "", err
	}

	done := sentinelSeen
	if cmd.Accept != nil {
		done = func(capture []byte) bool {
			return sentinelSeen(capture) || cmd.accepts(Parse(Decode(capture), cmd.Text))
		}
	}

	capture := e.poll(cmd.timeout(), e.config.PollInterval, done)
	return Decode(capture), nil
}

// poll reads until done(capture) or the deadline. Empty or failed reads
// sleep for interval; reads that return data are followed immediately by
// another read.
func (e *Executor) poll(wait, interval time.Duration, done func([]byte) bool) []byte {
	deadline := e.clock.Now().Add(wait)
	var capture []byte

	for e.clock.Now().Before(deadline) {
		n, err := e.stream.Read(e.buf)
		if n > 0 {
			capture = append(capture, e.buf[:n]...)
			if done(capture) {
				break
			}
			continue
		}
		if err != nil && err != io.EOF {
			e.logger.Debug("stream read failed", zap.Error(err))
		}
		e.clock.Sleep(interval)
	}

	return capture
}

func (e *Executor) record(command string, attempt int, result *Result, d time.Duration) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(Exchange{
		Timestamp: e.clock.Now(),
		Command:   Redact(command),
		Attempt:   attempt,
		Status:    string(result.Response.Status),
		OK:        result.OK,
		Duration:  d,
		Raw:       redactCapture(result.Raw, command),
	}); err != nil {
		e.logger.Warn("failed to record exchange", zap.String("command", Redact(command)), zap.Error(err))
	}
}

var (
	sentinelOK    = []byte(Terminator + string(StatusOK) + Terminator)
	sentinelError = []byte(Terminator + string(StatusError) + Terminator)
)

// sentinelSeen reports whether capture contains a terminal status line.
func sentinelSeen(capture []byte) bool {
	return bytes.Contains(capture, sentinelOK) ||
		bytes.Contains(capture, sentinelError) ||
		bytes.HasPrefix(capture, sentinelOK[len(Terminator):]) ||
		bytes.HasPrefix(capture, sentinelError[len(Terminator):])
}

// Decode converts modem output to text, dropping invalid UTF-8 sequences.
func Decode(capture []byte) string {
	return strings.ToValidUTF8(string(capture), "")
}
