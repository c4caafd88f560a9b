package atcmd

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeoutError reports that no terminal sentinel arrived before the deadline.
type TimeoutError struct {
	// Command is the command text that timed out
	Command string
	// Timeout is the per-attempt wait that was exceeded
	Timeout time.Duration
	// Partial is whatever was captured before the deadline
	Partial string
}

func (e *TimeoutError) Error() string {
	if e.Partial == "" {
		return fmt.Sprintf("command %q timed out after %s with no response", e.Command, e.Timeout)
	}
	return fmt.Sprintf("command %q timed out after %s (partial response: %q)", e.Command, e.Timeout, e.Partial)
}

// RejectedError reports that the modem answered with the ERROR sentinel.
type RejectedError struct {
	// Command is the rejected command text
	Command string
	// Lines are the intermediate lines sent before the sentinel (e.g. "FAIL")
	Lines []string
}

func (e *RejectedError) Error() string {
	if len(e.Lines) == 0 {
		return fmt.Sprintf("command %q rejected by modem", e.Command)
	}
	return fmt.Sprintf("command %q rejected by modem: %s", e.Command, strings.Join(e.Lines, "; "))
}

// WriteError reports that the command could not be written to the stream.
type WriteError struct {
	Command string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write command %q: %v", e.Command, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is (or wraps) a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsRejected reports whether err is (or wraps) a *RejectedError.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// ErrNoStream is returned when an Executor is constructed without a stream.
var ErrNoStream = errors.New("atcmd: no byte stream")
