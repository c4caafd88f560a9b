package atcmd

import (
	"testing"
	"time"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"AT", true},
		{"AT+CWMODE=1", true},
		{`AT+CWJAP="home","pw"`, true},
		{`AT+CIPSTART="TCP","example.com",80`, true},
		{"AT+CIPSEND=42", true},
		{"AT+CIPCLOSE", false},
		{"AT+CIPSTATUS?", false},
		{"AT+GMR", false},
		{"AT+CIFSR", false},
		{"AT+RST", false},
		{"at", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Retryable(tt.text); got != tt.want {
				t.Errorf("Retryable(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestCommandAttemptsAndTimeout(t *testing.T) {
	if got := NewCommand(CmdProbe, 0).MaxAttempts(); got != RetryAttempts {
		t.Errorf("probe attempts = %d, want %d", got, RetryAttempts)
	}
	if got := NewCommand(CmdClose, 0).MaxAttempts(); got != 1 {
		t.Errorf("close attempts = %d, want 1", got)
	}
	if got := NewCommand(OpenCommand("h", 80), 0).Single().MaxAttempts(); got != 1 {
		t.Errorf("single open attempts = %d, want 1", got)
	}
	if got := NewCommand(CmdProbe, 0).timeout(); got != DefaultTimeout {
		t.Errorf("default timeout = %s, want %s", got, DefaultTimeout)
	}
	if got := NewCommand(CmdProbe, 5*time.Second).timeout(); got != 5*time.Second {
		t.Errorf("timeout = %s, want 5s", got)
	}
}

func TestCommandBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"join", JoinCommand("home", "secret"), `AT+CWJAP="home","secret"`},
		{"join escapes", JoinCommand(`a"b`, `c,d\e`), `AT+CWJAP="a\"b","c\,d\\e"`},
		{"open", OpenCommand("example.com", 80), `AT+CIPSTART="TCP","example.com",80`},
		{"send", SendCommand(128), "AT+CIPSEND=128"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`AT+CWJAP="home","secret"`, `AT+CWJAP="home","***"`},
		{`AT+CWJAP="a\,b","secret"`, `AT+CWJAP="a\,b","***"`},
		{"AT+CWJAP?", "AT+CWJAP?"},
		{"AT+CIPSEND=4", "AT+CIPSEND=4"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Redact(tt.in); got != tt.want {
				t.Errorf("Redact(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	raw := JoinCommand("home", "secret") + "\r\nFAIL\r\n"
	if got := redactCapture(raw, JoinCommand("home", "secret")); got != `AT+CWJAP="home","***"`+"\r\nFAIL\r\n" {
		t.Errorf("redactCapture() = %q", got)
	}
}
