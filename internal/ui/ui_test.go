package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestHeaderRendersParamsInKeyOrder(t *testing.T) {
	out := NewHeader("Join Network", "orblink connect", map[string]string{
		"SSID": "home",
		"Port": "/dev/ttyUSB0",
	}).SetWidth(80).Render()

	if !strings.Contains(out, "JOIN NETWORK") {
		t.Errorf("title missing from header:\n%s", out)
	}
	port := strings.Index(out, "Port:")
	ssid := strings.Index(out, "SSID:")
	if port < 0 || ssid < 0 || port > ssid {
		t.Errorf("params not sorted (Port at %d, SSID at %d):\n%s", port, ssid, out)
	}
}

func TestResultRender(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
	}{
		{
			name:   "success",
			result: NewSuccessResult("Connected", map[string]string{"IP": "10.0.0.2"}),
			want:   []string{"SUCCESS", "Connected", "IP:", "10.0.0.2"},
		},
		{
			name:   "failure",
			result: NewFailureResult("Join failed", errors.New("rejected"), []string{"Check the password"}),
			want:   []string{"FAILED", "Error: rejected", "Troubleshooting:", "Check the password"},
		},
		{
			name:   "warning",
			result: NewWarningResult("Plain HTTP", nil),
			want:   []string{"WARNING", "Plain HTTP"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.result.SetWidth(80).Render()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("Render() missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestProgressPercent(t *testing.T) {
	p := NewProgress([]string{"Probe", "Mode", "Join", "Verify"})

	p.UpdateStep(1, StepRunning, "")
	if p.Current != 1 || p.Percent != 0 {
		t.Fatalf("after start: Current = %d, Percent = %v", p.Current, p.Percent)
	}
	p.UpdateStep(1, StepComplete, "")
	p.UpdateStep(2, StepSkipped, "already set")
	if p.Percent != 0.5 {
		t.Errorf("Percent = %v, want 0.5", p.Percent)
	}
	p.UpdateStep(3, StepFailed, "")
	if p.Percent != 0.5 {
		t.Errorf("failed step changed Percent to %v", p.Percent)
	}

	// Out of range is ignored
	p.UpdateStep(9, StepComplete, "")

	line := p.RenderStep(p.Steps[1])
	if !strings.Contains(line, "[2/4]") || !strings.Contains(line, "(already set)") {
		t.Errorf("RenderStep() = %q", line)
	}
}

func TestRunnerSuccessAndFailure(t *testing.T) {
	var buf bytes.Buffer
	runner := NewRunner(RunnerConfig{
		Title:     "Join Network",
		Command:   "orblink connect",
		StepNames: []string{"Probe modem", "Join"},
		Output:    &buf,
	}).SetWidth(80)

	err := runner.Run(func(onStep StepCallback) (map[string]string, error) {
		onStep(1, StepRunning, "")
		onStep(1, StepComplete, "")
		onStep(2, StepRunning, "")
		onStep(2, StepComplete, "")
		return map[string]string{"IP": "192.168.4.2"}, nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, want := range []string{"JOIN NETWORK", "Probe modem", "Join Network complete", "192.168.4.2", "Duration:"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	failure := errors.New("no sentinel")
	runner = NewRunner(RunnerConfig{
		Title:           "Probe",
		StepNames:       []string{"Probe modem"},
		Troubleshooting: []string{"Check the baud rate"},
		Verbose:         true,
		Output:          &buf,
	}).SetWidth(80)
	runner.SetRawOutput("AT\r\nbusy p...\r\n")

	err = runner.Run(func(onStep StepCallback) (map[string]string, error) {
		onStep(1, StepFailed, "")
		return nil, failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("Run() error = %v, want %v", err, failure)
	}
	for _, want := range []string{"Probe failed", "no sentinel", "Check the baud rate", "Modem Output", "busy p...␍"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestRawOutputLines(t *testing.T) {
	out := NewRawOutput("AT\r\n\x01OK\r\n")
	lines := out.Lines()
	want := []string{"AT␍", `\x01OK␍`}
	if len(lines) != len(want) {
		t.Fatalf("Lines() = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Lines()[%d] = %q, want %q", i, lines[i], want[i])
		}
	}

	limited := NewRawOutput("a\nb\nc\nd").SetMaxLines(2).Lines()
	if len(limited) != 3 || limited[0] != "... 2 lines omitted" || limited[2] != "d" {
		t.Errorf("SetMaxLines(2).Lines() = %q", limited)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input      string
		defaultYes bool
		want       bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"", true, true},
		{"maybe\n", false, false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got := Confirm(strings.NewReader(tt.input), &out, "Save?", tt.defaultYes)
		if got != tt.want {
			t.Errorf("Confirm(%q, default %v) = %v, want %v", tt.input, tt.defaultYes, got, tt.want)
		}
	}
}

func TestSpinRunsWorkWithoutTerminal(t *testing.T) {
	if IsInteractive() {
		t.Skip("stdout is a terminal")
	}
	want := errors.New("done")
	if err := Spin(&bytes.Buffer{}, "waiting", func() error { return want }); !errors.Is(err, want) {
		t.Errorf("Spin() error = %v, want %v", err, want)
	}
}
