package modemtest

import (
	"strconv"
	"strings"
	"sync"
)

// Modem is a scripted fake of an ESP-AT modem that satisfies atcmd.Stream.
//
// Replies are queued per command. Each transmission of a command consumes
// the next reply; the last reply repeats. A command with no script gets
// no reply at all, which looks like a timeout to the caller.
type Modem struct {
	mu sync.Mutex

	exact    map[string][]string
	prefixes []prefixScript
	payload  []string

	pending  []byte
	line     []byte
	expect   int
	commands []string
	payloads []string
	resets   int

	// MaxRead limits the bytes returned by a single Read. Zero means unlimited.
	MaxRead int

	// WriteErr, when set, is returned by every Write.
	WriteErr error
}

type prefixScript struct {
	prefix  string
	replies []string
}

// NewModem returns a Modem with an empty script.
func NewModem() *Modem {
	return &Modem{exact: make(map[string][]string)}
}

// On queues replies for an exact command line.
func (m *Modem) On(command string, replies ...string) *Modem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exact[command] = append(m.exact[command], replies...)
	return m
}

// OnPrefix queues replies for any command line starting with prefix.
// Exact scripts take precedence.
func (m *Modem) OnPrefix(prefix string, replies ...string) *Modem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefixes = append(m.prefixes, prefixScript{prefix: prefix, replies: replies})
	return m
}

// OnPayload queues replies delivered after a socket payload has been
// received in full.
func (m *Modem) OnPayload(replies ...string) *Modem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = append(m.payload, replies...)
	return m
}

// Inject makes data readable immediately, as if the modem sent it unprompted.
func (m *Modem) Inject(data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, data...)
}

// Read returns buffered reply bytes, or zero bytes when nothing is pending.
func (m *Modem) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.pending)
	if m.MaxRead > 0 && n > m.MaxRead {
		n = m.MaxRead
	}
	n = copy(p, m.pending[:n])
	m.pending = m.pending[n:]
	return n, nil
}

// Write consumes command lines and payload bytes.
func (m *Modem) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return 0, m.WriteErr
	}

	for _, b := range p {
		if m.expect > 0 {
			m.line = append(m.line, b)
			m.expect--
			if m.expect == 0 {
				m.payloads = append(m.payloads, string(m.line))
				m.line = m.line[:0]
				m.pending = append(m.pending, next(&m.payload)...)
			}
			continue
		}

		m.line = append(m.line, b)
		if !strings.HasSuffix(string(m.line), "\r\n") {
			continue
		}
		command := strings.TrimSuffix(string(m.line), "\r\n")
		m.line = m.line[:0]
		m.receive(command)
	}
	return len(p), nil
}

// ResetInput discards pending reply bytes.
func (m *Modem) ResetInput() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	m.resets++
	return nil
}

// Commands returns every command line received, in order.
func (m *Modem) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

// Count returns how many times command was received.
func (m *Modem) Count(command string) int {
	n := 0
	for _, c := range m.Commands() {
		if c == command {
			n++
		}
	}
	return n
}

// Payloads returns every socket payload received, in order.
func (m *Modem) Payloads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.payloads...)
}

// Resets returns how many times ResetInput was called.
func (m *Modem) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

func (m *Modem) receive(command string) {
	m.commands = append(m.commands, command)

	var reply string
	if queue, ok := m.exact[command]; ok {
		reply = next(&queue)
		m.exact[command] = queue
	} else {
		for i := range m.prefixes {
			if strings.HasPrefix(command, m.prefixes[i].prefix) {
				reply = next(&m.prefixes[i].replies)
				break
			}
		}
	}
	m.pending = append(m.pending, reply...)

	// A send prompt switches the modem into payload mode for n bytes.
	if size, ok := strings.CutPrefix(command, "AT+CIPSEND="); ok && strings.Contains(reply, ">") {
		if n, err := strconv.Atoi(size); err == nil && n > 0 {
			m.expect = n
		}
	}
}

// next pops the head of queue, leaving the final element in place.
func next(queue *[]string) string {
	q := *queue
	if len(q) == 0 {
		return ""
	}
	head := q[0]
	if len(q) > 1 {
		*queue = q[1:]
	}
	return head
}

// OK builds an echoed reply to command ending with the OK sentinel.
func OK(command string, lines ...string) string {
	return reply(command, "OK", lines)
}

// Error builds an echoed reply to command ending with the ERROR sentinel.
func Error(command string, lines ...string) string {
	return reply(command, "ERROR", lines)
}

func reply(command, status string, lines []string) string {
	var b strings.Builder
	b.WriteString(command + "\r\n")
	for _, l := range lines {
		b.WriteString(l + "\r\n")
	}
	b.WriteString("\r\n" + status + "\r\n")
	return b.String()
}

// IPD frames data as a single-connection socket delivery.
func IPD(data string) string {
	return "\r\n+IPD," + strconv.Itoa(len(data)) + ":" + data
}
