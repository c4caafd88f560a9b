package ui

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrInterrupted is returned by Spin when the user pressed ctrl+c.
var ErrInterrupted = errors.New("interrupted")

type workDoneMsg struct{ err error }

// spinnerModel shows a spinner while work runs in the background and
// exits when it returns.
type spinnerModel struct {
	spinner spinner.Model
	label   string
	work    func() error
	err     error
	done    bool
}

func newSpinnerModel(label string, work func() error) spinnerModel {
	return spinnerModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(SpinnerStyle),
		),
		label: label,
		work:  work,
	}
}

// Init implements tea.Model
func (m spinnerModel) Init() tea.Cmd {
	work := m.work
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return workDoneMsg{err: work()}
	})
}

// Update implements tea.Model
func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done = true
			m.err = ErrInterrupted
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("  %s %s\n", m.spinner.View(), StepRunningStyle.Render(m.label))
}

// Spin runs work while showing label next to a spinner on out. Without a
// terminal the work simply runs.
func Spin(out io.Writer, label string, work func() error) error {
	if !IsInteractive() {
		return work()
	}

	final, err := tea.NewProgram(newSpinnerModel(label, work), tea.WithOutput(out)).Run()
	if err != nil {
		return fmt.Errorf("spinner: %w", err)
	}
	return final.(spinnerModel).err
}
