package ui

import (
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig describes a multi-step command for Runner.
type RunnerConfig struct {
	Title           string            // e.g., "Join Network"
	Command         string            // e.g., "orblink connect"
	Params          map[string]string // Shown in the header
	StepNames       []string          // One entry per step
	Troubleshooting []string          // Tips shown when the operation fails
	Verbose         bool              // Show the last modem capture after the result
	Output          io.Writer         // Default: os.Stdout
}

// Operation is the work driven by a Runner. It reports progress through
// onStep and returns details for the result box.
type Operation func(onStep StepCallback) (map[string]string, error)

// Runner orchestrates the header, progress and result flow of a command.
type Runner struct {
	config   RunnerConfig
	header   *Header
	progress *Progress
	output   io.Writer
	raw      string
	width    int
}

// NewRunner creates a new runner
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := GetTerminalWidth()

	return &Runner{
		config:   config,
		header:   NewHeader(config.Title, config.Command, config.Params).SetWidth(width),
		progress: NewProgress(config.StepNames).SetWidth(width),
		output:   config.Output,
		width:    width,
	}
}

// SetWidth overrides the detected terminal width
func (r *Runner) SetWidth(width int) *Runner {
	r.width = width
	r.header.SetWidth(width)
	r.progress.SetWidth(width)
	return r
}

// SetRawOutput stores modem output for verbose display
func (r *Runner) SetRawOutput(raw string) {
	r.raw = raw
}

// Progress returns the step tracker
func (r *Runner) Progress() *Progress {
	return r.progress
}

// Run prints the header, executes operation and prints its result.
func (r *Runner) Run(operation Operation) error {
	start := time.Now()

	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)

	details, err := operation(r.onStep)
	duration := time.Since(start)

	_, _ = fmt.Fprintln(r.output)
	var result *Result
	if err != nil {
		result = NewFailureResult(r.config.Title+" failed", err, r.config.Troubleshooting)
	} else {
		result = NewSuccessResult(r.config.Title+" complete", details)
	}
	result.AddDetail("Duration", duration.Round(time.Millisecond).String())
	result.SetWidth(r.width)
	_, _ = fmt.Fprintln(r.output, result.Render())

	if r.config.Verbose && r.raw != "" {
		_, _ = fmt.Fprintln(r.output)
		_, _ = fmt.Fprintln(r.output, NewRawOutput(r.raw).SetWidth(r.width).Render())
	}

	return err
}

func (r *Runner) onStep(stepNumber int, status StepStatus, message string) {
	if stepNumber < 1 || stepNumber > len(r.progress.Steps) {
		return
	}
	r.progress.UpdateStep(stepNumber, status, message)

	line := r.progress.RenderStep(r.progress.Steps[stepNumber-1])
	if status == StepRunning {
		// Overwritten when the step finishes
		_, _ = fmt.Fprint(r.output, line+"\r")
		return
	}
	_, _ = fmt.Fprintln(r.output, line)
}
