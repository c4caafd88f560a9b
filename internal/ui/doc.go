// Package ui renders terminal output for the orblink CLI.
//
// Components follow a "run once and exit" pattern rather than an
// interactive TUI:
//
//   - Header: command banner with sorted parameters
//   - Progress: progress bar and step list
//   - Result: success, failure or warning box with details
//   - RawOutput: verbatim modem output with control bytes made visible
//   - Spin: a Bubble Tea spinner shown during long waits
//
// Runner ties Header, Progress and Result together for multi-step
// commands such as "orblink connect":
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Join Network",
//	    Command:   "orblink connect",
//	    StepNames: []string{"Probe modem", "Station mode", "Join"},
//	})
//
//	err := runner.Run(func(onStep ui.StepCallback) (map[string]string, error) {
//	    onStep(1, ui.StepRunning, "")
//	    // ... do work ...
//	    onStep(1, ui.StepComplete, "")
//	    return map[string]string{"IP": ip}, nil
//	})
//
// Logging goes to stderr through zap, warnings and errors only unless
// ORBLINK_LOG_LEVEL or --log-level says otherwise, so it stays apart from
// this output.
package ui
