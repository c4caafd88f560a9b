package atcmd

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseLastExactLineStatusWins(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Status
	}{
		{
			name: "OK inside other words",
			raw:  "TOKEN OKAY\r\nBROKEN\r\n\r\nOK\r\n",
			want: StatusOK,
		},
		{
			name: "ERROR mention before OK",
			raw:  "last ERROR cleared\r\nERRORS: 0\r\n\r\nOK\r\n",
			want: StatusOK,
		},
		{
			name: "earlier OK line then ERROR",
			raw:  "OK\r\nbusy p...\r\n\r\nERROR\r\n",
			want: StatusError,
		},
		{
			name: "padded sentinel",
			raw:  "AT\r\n  OK  \r\n",
			want: StatusOK,
		},
		{
			name: "no sentinel",
			raw:  "AT\r\nbusy p...\r\n",
			want: StatusNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.raw, "").Status; got != tt.want {
				t.Errorf("Parse(%q).Status = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseEchoIntermediateAndOK(t *testing.T) {
	raw := "AT+CWMODE=1\r\n\r\nno change\r\n\r\nOK\r\n"
	resp := Parse(raw, "AT+CWMODE=1")

	if !resp.Echoed || resp.Echo != "AT+CWMODE=1" {
		t.Errorf("echo = %q (echoed %v), want AT+CWMODE=1", resp.Echo, resp.Echoed)
	}
	if resp.Status != StatusOK {
		t.Errorf("status = %q, want OK", resp.Status)
	}
	if !reflect.DeepEqual(resp.Intermediate, []string{"no change"}) {
		t.Errorf("intermediate = %q, want [no change]", resp.Intermediate)
	}
	if resp.Payload != "" {
		t.Errorf("payload = %q, want empty", resp.Payload)
	}
	if resp.Raw != raw {
		t.Error("raw capture not preserved")
	}
}

func TestParseErrorKeepsDetails(t *testing.T) {
	cmd := `AT+CWJAP="bad","pw"`
	resp := Parse(cmd+"\r\n\r\nWIFI DISCONNECT\r\nFAIL\r\n\r\nERROR\r\n", cmd)

	if resp.Status != StatusError {
		t.Errorf("status = %q, want ERROR", resp.Status)
	}
	for _, want := range []string{"WIFI DISCONNECT", "FAIL"} {
		if !resp.HasLine(want) {
			t.Errorf("intermediate %q missing %q", resp.Intermediate, want)
		}
	}
	if resp.OK() {
		t.Error("OK() should be false for ERROR status")
	}
}

func TestParseEcho(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		resp := Parse("\r\nOK\r\n", "AT")
		if resp.Echoed {
			t.Errorf("echo should be absent, got %q", resp.Echo)
		}
	})

	t.Run("matched once", func(t *testing.T) {
		resp := Parse("AT\r\nAT\r\n\r\nOK\r\n", "AT")
		if !resp.Echoed {
			t.Fatal("echo should be present")
		}
		if !reflect.DeepEqual(resp.Intermediate, []string{"AT"}) {
			t.Errorf("intermediate = %q, want second AT kept", resp.Intermediate)
		}
	})

	t.Run("substring is not an echo", func(t *testing.T) {
		resp := Parse("AT+GMR\r\n\r\nOK\r\n", "AT")
		if resp.Echoed {
			t.Error("AT+GMR should not match command AT")
		}
		if !reflect.DeepEqual(resp.Intermediate, []string{"AT+GMR"}) {
			t.Errorf("intermediate = %q", resp.Intermediate)
		}
	})

	t.Run("no command", func(t *testing.T) {
		resp := Parse("AT\r\n\r\nOK\r\n", "")
		if resp.Echoed {
			t.Error("echo should be absent when no command is given")
		}
	})
}

func TestParseIntermediateKeepsOrderAndDuplicates(t *testing.T) {
	resp := Parse("AT+CIFSR\r\n+CIFSR:STAIP,\"10.0.0.7\"\r\nbusy\r\nbusy\r\n\r\nOK\r\n", "AT+CIFSR")
	want := []string{`+CIFSR:STAIP,"10.0.0.7"`, "busy", "busy"}
	if !reflect.DeepEqual(resp.Intermediate, want) {
		t.Errorf("intermediate = %q, want %q", resp.Intermediate, want)
	}
	line, ok := resp.LineWithPrefix("+CIFSR:STAIP")
	if !ok || line != want[0] {
		t.Errorf("LineWithPrefix = %q, %v", line, ok)
	}
}

func TestParseExtractsFramedPayload(t *testing.T) {
	raw := "Recv 47 bytes\r\n" +
		"+IPD,43:HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello\r\n" +
		"CLOSED\r\n"
	resp := Parse(raw, "")

	if !strings.HasPrefix(resp.Payload, "HTTP/1.1 200 OK") {
		t.Errorf("payload = %q, want HTTP/1.1 200 OK prefix", resp.Payload)
	}
	if !strings.Contains(resp.Payload, "hello") {
		t.Errorf("payload = %q, want hello", resp.Payload)
	}
	if strings.Contains(resp.Payload, "CLOSED") {
		t.Errorf("payload = %q, must stop at the framed length", resp.Payload)
	}
}

func TestParseBareHTTP(t *testing.T) {
	t.Run("headers only", func(t *testing.T) {
		resp := Parse("HTTP/1.1 204 No Content\r\nDate: today\r\n\r\n", "")
		if resp.Payload != "" {
			t.Errorf("payload = %q, want empty", resp.Payload)
		}
		if resp.Status != StatusNone {
			t.Errorf("status = %q, want none", resp.Status)
		}
	})

	t.Run("with body", func(t *testing.T) {
		resp := Parse("HTTP/1.0 200 OK\r\nServer: x\r\n\r\nbody\r\n\r\nmore", "")
		if resp.Payload != "body\r\n\r\nmore" {
			t.Errorf("payload = %q", resp.Payload)
		}
	})

	t.Run("no separator", func(t *testing.T) {
		resp := Parse("HTTP/1.1 200 OK\r\nServer: x\r\n", "")
		if resp.Payload != "" || resp.Status != StatusNone {
			t.Errorf("payload = %q status = %q, want both empty", resp.Payload, resp.Status)
		}
	})
}

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"none", "AT\r\n\r\nOK\r\n", ""},
		{"single frame", "+IPD,5:hello", "hello"},
		{"link id", "+IPD,0,5:hello\r\n", "hello"},
		{"two frames", "+IPD,3:abc\r\n+IPD,2:de\r\nCLOSED\r\n", "abcde"},
		{"frame holds CRLF", "+IPD,8:a\r\n\r\nbcd", "a\r\n\r\nbcd"},
		{"truncated frame", "+IPD,10:abc", "abc"},
		{"zero length", "+IPD,0:\r\n+IPD,2:ok", "ok"},
		{"non numeric length", "+IPD,xx:partial line\r\nrest", "partial line"},
		{"negative length", "+IPD,-4:data\r\n", "data"},
		{"non numeric to end", "+IPD,?:tail", "tail"},
		{"marker without colon", "+IPD,5", ""},
		{"framing beats HTTP", "noise\r\n\r\nHTTP/1.1\r\n+IPD,2:hi", "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPayload(tt.text); got != tt.want {
				t.Errorf("ExtractPayload(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
