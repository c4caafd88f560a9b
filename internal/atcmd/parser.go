package atcmd

import (
	"strconv"
	"strings"
)

// Status is the terminal sentinel of a response.
type Status string

const (
	StatusNone  Status = ""
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// Framing tokens seen in modem output.
const (
	// DataMarker precedes socket payload: +IPD,<len>:<bytes> or +IPD,<id>,<len>:<bytes>
	DataMarker = "+IPD,"

	// ClosedMarker is emitted by the modem when the remote end closes the socket.
	ClosedMarker = "CLOSED"

	headerBodySeparator = "\r\n\r\n"
	httpToken           = "HTTP/"
)

// Response is the structured form of a raw modem capture.
type Response struct {
	// Echo is the command text reflected by the modem. Only valid when Echoed is set.
	Echo   string
	Echoed bool

	// Intermediate holds every line that is neither the echo nor the status
	// line, in the order received.
	Intermediate []string

	// Status is the last full-line OK/ERROR sentinel, or StatusNone.
	Status Status

	// Payload is socket data extracted from the capture (may be empty).
	Payload string

	// Raw is the complete capture, kept for diagnostics.
	Raw string
}

// OK reports whether the response ended with the OK sentinel.
func (r *Response) OK() bool {
	return r.Status == StatusOK
}

// HasLine reports whether any intermediate line, trimmed, equals line.
func (r *Response) HasLine(line string) bool {
	for _, l := range r.Intermediate {
		if strings.TrimSpace(l) == line {
			return true
		}
	}
	return false
}

// LineWithPrefix returns the first intermediate line starting with prefix.
func (r *Response) LineWithPrefix(prefix string) (string, bool) {
	for _, l := range r.Intermediate {
		if strings.HasPrefix(l, prefix) {
			return l, true
		}
	}
	return "", false
}

// Parse splits a raw capture into echo, intermediate lines, status and
// payload. command may be empty when no echo is expected.
func Parse(text, command string) *Response {
	lines := splitLines(text)
	resp := &Response{
		Intermediate: make([]string, 0, len(lines)),
		Raw:          text,
		Payload:      ExtractPayload(text),
	}

	echoIndex := -1
	if want := strings.TrimSpace(command); want != "" {
		for i, line := range lines {
			if strings.TrimSpace(line) == want {
				echoIndex = i
				resp.Echo = command
				resp.Echoed = true
				break
			}
		}
	}

	statusIndex := -1
	// The true sentinel is the last exact-line token; earlier lines may
	// contain OK or ERROR inside longer diagnostics.
	for i := len(lines) - 1; i >= 0 && statusIndex < 0; i-- {
		if s := Status(strings.TrimSpace(lines[i])); s == StatusOK || s == StatusError {
			statusIndex = i
			resp.Status = s
		}
	}

	for i, line := range lines {
		if i == echoIndex || i == statusIndex {
			continue
		}
		resp.Intermediate = append(resp.Intermediate, line)
	}

	return resp
}

// splitLines returns the non-blank lines of text with line terminators removed.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ExtractPayload returns the socket payload carried in text.
//
// When +IPD framing is present every framed segment is concatenated in order.
// A segment whose length field is not a number runs to the next line
// terminator instead. Without framing, a bare HTTP message yields everything
// after its first blank line. Anything else yields "".
func ExtractPayload(text string) string {
	if strings.Contains(text, DataMarker) {
		return extractFramed(text)
	}
	if strings.Contains(text, headerBodySeparator) && strings.Contains(text, httpToken) {
		_, body, _ := strings.Cut(text, headerBodySeparator)
		return body
	}
	return ""
}

func extractFramed(text string) string {
	var b strings.Builder
	cursor := 0
	for cursor < len(text) {
		start := strings.Index(text[cursor:], DataMarker)
		if start < 0 {
			break
		}
		start += cursor

		colon := strings.IndexByte(text[start:], ':')
		if colon < 0 {
			break
		}
		colon += start

		header := text[start+len(DataMarker) : colon]
		lengthField := header
		if i := strings.LastIndexByte(header, ','); i >= 0 {
			lengthField = header[i+1:]
		}
		payloadStart := colon + 1

		n, err := strconv.Atoi(strings.TrimSpace(lengthField))
		if err == nil && n >= 0 {
			end := min(payloadStart+n, len(text))
			b.WriteString(text[payloadStart:end])
			cursor = end
			continue
		}

		// Malformed or truncated length: take the rest of the line.
		next := strings.Index(text[payloadStart:], Terminator)
		if next < 0 {
			b.WriteString(text[payloadStart:])
			break
		}
		b.WriteString(text[payloadStart : payloadStart+next])
		cursor = payloadStart + next + len(Terminator)
	}
	return b.String()
}
