package httpclient

import (
	"errors"
	"fmt"
)

// Stage identifies the step of a request that failed.
type Stage int

const (
	// StageConnect is opening the socket
	StageConnect Stage = iota
	// StageSend is announcing and writing the request bytes
	StageSend
	// StageReceive is waiting for the response
	StageReceive
)

// String returns a human-readable name for the stage
func (s Stage) String() string {
	switch s {
	case StageConnect:
		return "connect"
	case StageSend:
		return "send"
	case StageReceive:
		return "receive"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// StageError reports a failure at one step of a request.
type StageError struct {
	Stage Stage  // Step that failed
	Host  string // Target host
	Err   error  // Underlying error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("http %s to %s failed: %v", e.Stage, e.Host, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *StageError) Unwrap() error {
	return e.Err
}

// MalformedStatusError reports a non-empty response without a parsable
// HTTP status line.
type MalformedStatusError struct {
	Raw string
}

func (e *MalformedStatusError) Error() string {
	const limit = 64
	raw := e.Raw
	if len(raw) > limit {
		raw = raw[:limit] + "..."
	}
	return fmt.Sprintf("no HTTP status line in response: %q", raw)
}

// FailedStage returns the stage at which err occurred, if it is a StageError.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return 0, false
}
