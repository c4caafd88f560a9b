package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultPort is the only port used unless the URL names another.
	DefaultPort = 80

	// DefaultContentType is sent with POST bodies when the caller gives none.
	DefaultContentType = "application/octet-stream"

	schemeHTTP  = "http://"
	schemeHTTPS = "https://"
	protocol    = "HTTP/1.1"
	crlf        = "\r\n"
)

// Header is one request header. Headers are kept in caller order.
type Header struct {
	Name  string
	Value string
}

// String formats h as a header line without terminator.
func (h Header) String() string {
	return h.Name + ": " + h.Value
}

// ParseHeader parses "Name: Value".
func ParseHeader(s string) (Header, error) {
	name, value, ok := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Header{}, fmt.Errorf("invalid header %q (want \"Name: Value\")", s)
	}
	if strings.ContainsAny(name, " \t\r\n") || strings.ContainsAny(value, "\r\n") {
		return Header{}, fmt.Errorf("invalid header %q", s)
	}
	return Header{Name: name, Value: strings.TrimSpace(value)}, nil
}

// Target is the destination parsed from a URL.
type Target struct {
	Host string
	Port int
	Path string

	// Secure is set when the URL asked for https. The request still goes
	// out in plaintext because the modem session has no TLS.
	Secure bool
}

// Authority returns the Host header value, including a non-default port.
func (t Target) Authority() string {
	if t.Port == DefaultPort {
		return t.Host
	}
	return t.Host + ":" + strconv.Itoa(t.Port)
}

// ParseURL strips the scheme and splits host from path at the first slash.
// A URL without a path gets "/".
func ParseURL(raw string) (Target, error) {
	t := Target{Port: DefaultPort}

	rest := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(rest, schemeHTTP):
		rest = rest[len(schemeHTTP):]
	case strings.HasPrefix(rest, schemeHTTPS):
		rest = rest[len(schemeHTTPS):]
		t.Secure = true
	}

	host, path, found := strings.Cut(rest, "/")
	t.Path = "/" + path
	if !found {
		t.Path = "/"
	}

	if h, p, ok := strings.Cut(host, ":"); ok {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return Target{}, fmt.Errorf("invalid port in %q", raw)
		}
		host, t.Port = h, port
	}
	if host == "" {
		return Target{}, errors.New("missing host in URL " + strconv.Quote(raw))
	}
	t.Host = host
	return t, nil
}

// Request is an HTTP/1.1 request to be written over the socket.
type Request struct {
	Method      string
	Target      Target
	Headers     []Header
	ContentType string
	Body        []byte
}

// hasBody reports whether the request carries entity headers.
func (r *Request) hasBody() bool {
	return r.Method == "POST" || len(r.Body) > 0
}

// Bytes renders the complete request: request line, Host, entity headers,
// Connection: close, caller headers, blank line, body.
func (r *Request) Bytes() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s %s%s", r.Method, r.Target.Path, protocol, crlf)
	b.WriteString(Header{"Host", r.Target.Authority()}.String() + crlf)
	if r.hasBody() {
		contentType := r.ContentType
		if contentType == "" {
			contentType = DefaultContentType
		}
		b.WriteString(Header{"Content-Type", contentType}.String() + crlf)
		b.WriteString(Header{"Content-Length", strconv.Itoa(len(r.Body))}.String() + crlf)
	}
	b.WriteString(Header{"Connection", "close"}.String() + crlf)
	for _, h := range r.Headers {
		b.WriteString(h.String() + crlf)
	}
	b.WriteString(crlf)
	b.Write(r.Body)
	return b.Bytes()
}
