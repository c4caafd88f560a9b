package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/muurk/orblink/internal/atcmd"
)

func TestHeaderListKeepsOrder(t *testing.T) {
	var h headerList
	for _, v := range []string{"Accept: text/plain", "X-Trace: 1", "Accept: */*"} {
		if err := h.Set(v); err != nil {
			t.Fatalf("Set(%q) error = %v", v, err)
		}
	}

	if len(h) != 3 {
		t.Fatalf("len = %d, want 3", len(h))
	}
	if h[2].Name != "Accept" || h[2].Value != "*/*" {
		t.Errorf("h[2] = %+v", h[2])
	}
	if got := h.String(); got != "Accept: text/plain, X-Trace: 1, Accept: */*" {
		t.Errorf("String() = %q", got)
	}
	if h.Type() != "header" {
		t.Errorf("Type() = %q", h.Type())
	}
}

func TestHeaderListRejectsMalformed(t *testing.T) {
	var h headerList
	if err := h.Set("no colon here"); err == nil {
		t.Error("Set() error = nil, want error")
	}
	if len(h) != 0 {
		t.Errorf("malformed header was appended: %v", h)
	}
}

func TestReachable(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{0, false},
		{199, false},
		{200, true},
		{301, true},
		{404, true},
		{499, true},
		{500, false},
		{503, false},
	}
	for _, tt := range tests {
		if got := reachable(tt.code); got != tt.want {
			t.Errorf("reachable(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestLastRaw(t *testing.T) {
	timeout := &atcmd.TimeoutError{Command: "AT", Partial: "AT\r\nbusy"}
	if got := lastRaw(fmt.Errorf("probe: %w", timeout)); got != "AT\r\nbusy" {
		t.Errorf("lastRaw(timeout) = %q", got)
	}

	rejected := &atcmd.RejectedError{Command: "AT+CWJAP", Lines: []string{"+CWJAP:1", "FAIL"}}
	if got := lastRaw(rejected); got != "+CWJAP:1\nFAIL" {
		t.Errorf("lastRaw(rejected) = %q", got)
	}

	if got := lastRaw(errors.New("other")); got != "" {
		t.Errorf("lastRaw(other) = %q", got)
	}
}

func TestStatusName(t *testing.T) {
	if statusName(atcmd.StatusNone) != "none" || statusName(atcmd.StatusOK) != "OK" {
		t.Error("statusName() mismatch")
	}
}
