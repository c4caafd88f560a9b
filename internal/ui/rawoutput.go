package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RawOutput is a box showing modem output verbatim, with control
// characters made visible.
type RawOutput struct {
	Title    string
	Content  string
	Width    int
	MaxLines int // 0 = unlimited
}

// NewRawOutput creates a box for content
func NewRawOutput(content string) *RawOutput {
	return &RawOutput{
		Title:   "Modem Output",
		Content: content,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (o *RawOutput) SetWidth(width int) *RawOutput {
	o.Width = width
	return o
}

// SetTitle sets a custom title for the box
func (o *RawOutput) SetTitle(title string) *RawOutput {
	o.Title = title
	return o
}

// SetMaxLines limits the number of lines displayed, keeping the tail
func (o *RawOutput) SetMaxLines(limit int) *RawOutput {
	o.MaxLines = limit
	return o
}

// Lines returns the content split on line feeds with carriage returns
// shown as ␍ and other control bytes escaped.
func (o *RawOutput) Lines() []string {
	lines := strings.Split(strings.TrimRight(o.Content, "\n"), "\n")
	for i, line := range lines {
		lines[i] = visible(line)
	}
	if o.MaxLines > 0 && len(lines) > o.MaxLines {
		skipped := len(lines) - o.MaxLines
		lines = append([]string{fmt.Sprintf("... %d lines omitted", skipped)}, lines[skipped:]...)
	}
	return lines
}

// Render returns the styled box
func (o *RawOutput) Render() string {
	width := clampWidth(o.Width)
	content := RawTitleStyle.Render(o.Title) + "\n" + RawContentStyle.Render(strings.Join(o.Lines(), "\n"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(width - 4).
		Padding(0, 1).
		Render(content)
}

// String implements fmt.Stringer
func (o *RawOutput) String() string {
	return o.Render()
}

func visible(line string) string {
	var b strings.Builder
	for _, r := range line {
		switch {
		case r == '\r':
			b.WriteString("␍")
		case r == '\t':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, "\\x%02x", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
