package socket

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/orblink/internal/atcmd"
	"github.com/muurk/orblink/internal/logging"
)

const (
	connectLine = "CONNECT"
	sendPrompt  = ">"
)

var (
	// ErrBusy is returned by Open when a socket is already open or opening.
	ErrBusy = errors.New("socket: session already in use")

	// ErrNotOpen is returned by Send when no socket is open.
	ErrNotOpen = errors.New("socket: session not open")
)

// ResponseTimeoutError reports that no socket data arrived within the wait.
type ResponseTimeoutError struct {
	Wait time.Duration
}

func (e *ResponseTimeoutError) Error() string {
	return fmt.Sprintf("no socket data received within %s", e.Wait)
}

// IsResponseTimeout reports whether err is (or wraps) a *ResponseTimeoutError.
func IsResponseTimeout(err error) bool {
	var rte *ResponseTimeoutError
	return errors.As(err, &rte)
}

// State is the lifecycle state of the modem-side socket.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config holds socket timing.
type Config struct {
	// OpenTimeout is used by Open when the caller passes no timeout.
	// Default: 5s
	OpenTimeout time.Duration

	// SendTimeout bounds the wait for the send prompt.
	// Default: 2s
	SendTimeout time.Duration

	// CloseTimeout bounds the single close attempt.
	// Default: 2s
	CloseTimeout time.Duration

	// PayloadDelay separates the send prompt from the payload write.
	// Default: 100ms
	PayloadDelay time.Duration
}

// DefaultConfig returns the standard socket timing.
func DefaultConfig() Config {
	return Config{
		OpenTimeout:  5 * time.Second,
		SendTimeout:  atcmd.DefaultTimeout,
		CloseTimeout: 2 * time.Second,
		PayloadDelay: 100 * time.Millisecond,
	}
}

// Session is the single TCP connection held by the modem.
//
// The modem supports one socket, so a Session is either Closed, Opening or
// Open. A failed Open leaves the session Opening because the modem side may
// still hold a half-open connection; Close tears it down either way.
type Session struct {
	exec   *atcmd.Executor
	config Config
	logger *zap.Logger

	mu    sync.Mutex
	state State
	host  string
	port  int
}

// NewSession returns a closed Session.
func NewSession(exec *atcmd.Executor, config Config, logger *zap.Logger) *Session {
	defaults := DefaultConfig()
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = defaults.OpenTimeout
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = defaults.SendTimeout
	}
	if config.CloseTimeout <= 0 {
		config.CloseTimeout = defaults.CloseTimeout
	}
	if config.PayloadDelay <= 0 {
		config.PayloadDelay = defaults.PayloadDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{exec: exec, config: config, logger: logger}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open connects to host:port. It makes exactly one attempt.
func (s *Session) Open(host string, port int, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateClosed {
		return ErrBusy
	}
	if timeout <= 0 {
		timeout = s.config.OpenTimeout
	}

	s.state = StateOpening
	s.host, s.port = host, port

	cmd := atcmd.NewCommand(atcmd.OpenCommand(host, port), timeout).Single()
	result := s.exec.Execute(cmd)
	if !result.OK && !connectSeen(result.Response) {
		s.logger.Warn("socket open failed",
			zap.String("host", host),
			zap.Int("port", port),
			zap.Error(result.Err),
		)
		return fmt.Errorf("failed to open %s:%d: %w", host, port, result.Err)
	}

	s.state = StateOpen
	s.logger.Debug("socket opened", zap.String("host", host), zap.Int("port", port))
	return nil
}

// Send announces len(data) bytes, waits for the modem to accept them and
// writes the payload.
func (s *Session) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		return ErrNotOpen
	}

	// The modem enters data mode with the prompt, so the wait must end
	// there: a repeated announce would be sent as payload.
	cmd := atcmd.NewCommand(atcmd.SendCommand(len(data)), s.config.SendTimeout).Until(promptSeen)
	result := s.exec.Execute(cmd)
	if !result.OK {
		return fmt.Errorf("modem refused %d byte send: %w", len(data), result.Err)
	}

	s.exec.Pause(s.config.PayloadDelay)
	if err := s.exec.WriteRaw(data); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	s.logger.Debug("payload sent", zap.Int("bytes", len(data)))
	return nil
}

// AwaitResponse collects inbound socket data until both a data marker and
// the close marker have been seen, or wait elapses. Whatever arrived is
// returned; only a complete absence of data is an error.
func (s *Session) AwaitResponse(wait time.Duration) ([]byte, error) {
	data := s.exec.Collect(wait, transferComplete)
	if len(data) == 0 {
		return nil, &ResponseTimeoutError{Wait: wait}
	}
	if !transferComplete(data) {
		s.logger.Debug("socket response incomplete at deadline", logging.RawFields(string(data))...)
	}
	return data, nil
}

// Close tears down the socket. From Opening or Open it sends the close
// command exactly once and ignores its outcome; from Closed it does nothing.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return
	}

	cmd := atcmd.NewCommand(atcmd.CmdClose, s.config.CloseTimeout).Single()
	if result := s.exec.Execute(cmd); !result.OK {
		s.logger.Warn("socket close failed",
			zap.String("host", s.host),
			zap.Int("port", s.port),
			zap.Error(result.Err),
		)
	}
	s.state = StateClosed
}

// connectSeen reports whether the modem confirmed the connection, either as
// CONNECT or as <link id>,CONNECT.
func connectSeen(resp *atcmd.Response) bool {
	for _, line := range resp.Intermediate {
		line = strings.TrimSpace(line)
		if line == connectLine || strings.HasSuffix(line, ","+connectLine) {
			return true
		}
	}
	return false
}

func promptSeen(resp *atcmd.Response) bool {
	return resp.HasLine(sendPrompt)
}

func transferComplete(data []byte) bool {
	return bytes.Contains(data, []byte(atcmd.DataMarker)) && bytes.Contains(data, []byte(atcmd.ClosedMarker))
}
