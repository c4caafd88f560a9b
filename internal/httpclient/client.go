package httpclient

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/orblink/internal/atcmd"
	"github.com/muurk/orblink/internal/socket"
)

// Bodies returned alongside a zero status code.
const (
	BodyConnectFailed = "Connection failed"
	BodySendFailed    = "Send failed"
	BodyTimeout       = "HTTP timeout"
)

const (
	statusLinePrefix = "HTTP/1."
	blankLine        = "\r\n\r\n"
)

// Config holds request timing.
type Config struct {
	// OpenTimeout bounds the socket open.
	// Default: 5s
	OpenTimeout time.Duration

	// GetWait bounds the wait for a GET response.
	// Default: 10s
	GetWait time.Duration

	// PostWait bounds the wait for a POST response.
	// Default: 15s
	PostWait time.Duration
}

// DefaultConfig returns the standard request timing.
func DefaultConfig() Config {
	return Config{
		OpenTimeout: 5 * time.Second,
		GetWait:     10 * time.Second,
		PostWait:    15 * time.Second,
	}
}

// Response is the outcome of a request. StatusCode 0 means no usable
// response was obtained; Body then describes why.
type Response struct {
	StatusCode int
	Body       string

	// Raw is the decoded socket traffic, empty when nothing arrived.
	Raw string
}

// Client performs one request at a time over a socket Session.
type Client struct {
	session *socket.Session
	config  Config
	logger  *zap.Logger
}

// NewClient returns a Client using session for every request.
func NewClient(session *socket.Session, config Config, logger *zap.Logger) *Client {
	defaults := DefaultConfig()
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = defaults.OpenTimeout
	}
	if config.GetWait <= 0 {
		config.GetWait = defaults.GetWait
	}
	if config.PostWait <= 0 {
		config.PostWait = defaults.PostWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{session: session, config: config, logger: logger}
}

// Get fetches rawURL.
func (c *Client) Get(rawURL string, headers ...Header) (*Response, error) {
	target, err := c.target(rawURL)
	if err != nil {
		return &Response{Body: BodyConnectFailed}, err
	}
	return c.Do(&Request{Method: "GET", Target: target, Headers: headers}, c.config.GetWait)
}

// Post sends body to rawURL. An empty contentType means application/octet-stream.
func (c *Client) Post(rawURL string, body []byte, contentType string, headers ...Header) (*Response, error) {
	target, err := c.target(rawURL)
	if err != nil {
		return &Response{Body: BodyConnectFailed}, err
	}
	req := &Request{
		Method:      "POST",
		Target:      target,
		Headers:     headers,
		ContentType: contentType,
		Body:        body,
	}
	return c.Do(req, c.config.PostWait)
}

// Do opens the socket, sends req as a single payload, waits up to wait for
// the response and always closes the socket before returning. The returned
// Response is never nil.
func (c *Client) Do(req *Request, wait time.Duration) (*Response, error) {
	host := req.Target.Host
	logger := c.logger.With(
		zap.String("method", req.Method),
		zap.String("host", host),
		zap.String("path", req.Target.Path),
	)

	if err := c.session.Open(host, req.Target.Port, c.config.OpenTimeout); err != nil {
		if !errors.Is(err, socket.ErrBusy) {
			c.session.Close()
		}
		logger.Warn("http connect failed", zap.Error(err))
		return &Response{Body: BodyConnectFailed}, &StageError{Stage: StageConnect, Host: host, Err: err}
	}
	defer c.session.Close()

	payload := req.Bytes()
	if err := c.session.Send(payload); err != nil {
		logger.Warn("http send failed", zap.Int("bytes", len(payload)), zap.Error(err))
		return &Response{Body: BodySendFailed}, &StageError{Stage: StageSend, Host: host, Err: err}
	}

	data, err := c.session.AwaitResponse(wait)
	if err != nil {
		logger.Warn("http response timed out", zap.Duration("wait", wait))
		return &Response{Body: BodyTimeout}, &StageError{Stage: StageReceive, Host: host, Err: err}
	}

	text := atcmd.Decode(data)
	message := text
	if strings.Contains(text, atcmd.DataMarker) {
		message = atcmd.ExtractPayload(text)
	}

	code, body, ok := parseMessage(message)
	if !ok {
		logger.Warn("http response has no status line", zap.Int("bytes", len(data)))
		return &Response{Body: text, Raw: text}, &MalformedStatusError{Raw: text}
	}

	logger.Debug("http response received", zap.Int("status", code), zap.Int("body_bytes", len(body)))
	return &Response{StatusCode: code, Body: body, Raw: text}, nil
}

func (c *Client) target(rawURL string) (Target, error) {
	target, err := ParseURL(rawURL)
	if err != nil {
		return Target{}, err
	}
	if target.Secure {
		c.logger.Warn("https requested but the modem session has no TLS; sending plaintext",
			zap.String("host", target.Host),
			zap.Int("port", target.Port),
		)
	}
	return target, nil
}

// parseMessage finds the first line starting with HTTP/1. and returns its
// status code and the text after the following blank line.
func parseMessage(text string) (int, string, bool) {
	start := statusLineIndex(text)
	if start < 0 {
		return 0, "", false
	}
	message := text[start:]

	line, _, _ := strings.Cut(message, "\n")
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, "", false
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil || code <= 0 {
		return 0, "", false
	}

	_, body, _ := strings.Cut(message, blankLine)
	return code, body, true
}

// statusLineIndex returns the offset of the first line beginning with the
// status line prefix, or -1.
func statusLineIndex(text string) int {
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], statusLinePrefix)
		if i < 0 {
			return -1
		}
		i += offset
		if i == 0 || text[i-1] == '\n' {
			return i
		}
		offset = i + len(statusLinePrefix)
	}
	return -1
}
