package atcmd

import (
	"fmt"
	"strings"
	"time"
)

// Terminator ends every line written to and read from the modem.
const Terminator = "\r\n"

// Command vocabulary understood by ESP-AT firmware. Tokens are case-sensitive.
const (
	CmdProbe           = "AT"
	CmdFirmwareVersion = "AT+GMR"
	CmdModePrefix      = "AT+CWMODE"
	CmdStationMode     = CmdModePrefix + "=1"
	CmdJoinPrefix      = "AT+CWJAP"
	CmdStatus          = "AT+CIPSTATUS?"
	CmdSingleConn      = "AT+CIPMUX=0"
	CmdOpenPrefix      = "AT+CIPSTART"
	CmdSendPrefix      = "AT+CIPSEND"
	CmdClose           = "AT+CIPCLOSE"
	CmdLocalAddress    = "AT+CIFSR"
)

const (
	// DefaultTimeout applies when a Command leaves Timeout unset.
	DefaultTimeout = 2 * time.Second

	// RetryAttempts is the derived attempt count for retryable commands.
	RetryAttempts = 3
)

// retryablePrefixes lists commands that are read-only or idempotent at the
// protocol level. The bare probe is matched exactly, see Retryable.
var retryablePrefixes = []string{
	CmdModePrefix,
	CmdJoinPrefix,
	CmdOpenPrefix,
	CmdSendPrefix,
}

// Command is a single line sent to the modem.
type Command struct {
	// Text is the command line without the trailing terminator.
	Text string

	// Timeout bounds the wait for a terminal sentinel on each attempt.
	// Default: DefaultTimeout
	Timeout time.Duration

	// Attempts overrides the derived attempt count when positive.
	Attempts int

	// Accept, when set, ends the wait as soon as it reports true for the
	// capture so far. An accepted capture succeeds without an OK line; an
	// ERROR line still rejects it.
	Accept func(*Response) bool
}

// NewCommand returns a Command with the derived attempt count.
func NewCommand(text string, timeout time.Duration) Command {
	return Command{Text: text, Timeout: timeout}
}

// Single returns a copy of c restricted to one attempt.
func (c Command) Single() Command {
	c.Attempts = 1
	return c
}

// Until returns a copy of c that also completes when accept reports true.
func (c Command) Until(accept func(*Response) bool) Command {
	c.Accept = accept
	return c
}

// MaxAttempts returns the number of transmissions Execute may make for c.
func (c Command) MaxAttempts() int {
	if c.Attempts > 0 {
		return c.Attempts
	}
	if Retryable(c.Text) {
		return RetryAttempts
	}
	return 1
}

func (c Command) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c Command) accepts(resp *Response) bool {
	return c.Accept != nil && resp.Status != StatusError && c.Accept(resp)
}

// String returns the command text.
func (c Command) String() string {
	return c.Text
}

// Retryable reports whether text is on the retry allow-list.
func Retryable(text string) bool {
	if text == CmdProbe {
		return true
	}
	for _, prefix := range retryablePrefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

// Quote escapes s for use as a quoted ESP-AT argument.
// The firmware treats backslash, double quote and comma as special.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '"', ',':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}

// JoinCommand builds the join-network command for ssid and password.
func JoinCommand(ssid, password string) string {
	return fmt.Sprintf("%s=%s,%s", CmdJoinPrefix, Quote(ssid), Quote(password))
}

// OpenCommand builds the socket-open command for a TCP connection.
func OpenCommand(host string, port int) string {
	return fmt.Sprintf("%s=%s,%s,%d", CmdOpenPrefix, Quote("TCP"), Quote(host), port)
}

// SendCommand builds the size-announce command for n payload bytes.
func SendCommand(n int) string {
	return fmt.Sprintf("%s=%d", CmdSendPrefix, n)
}

// Redact hides the password argument of a join command so that the text
// can be logged or recorded. Other commands are returned unchanged.
func Redact(text string) string {
	prefix := CmdJoinPrefix + "="
	if !strings.HasPrefix(text, prefix) {
		return text
	}
	args := text[len(prefix):]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case '\\':
			i++
		case ',':
			return prefix + args[:i] + `,"***"`
		}
	}
	return text
}

// redactCapture applies Redact to every echo of text inside raw.
func redactCapture(raw, text string) string {
	display := Redact(text)
	if display == text {
		return raw
	}
	return strings.ReplaceAll(raw, text, display)
}
