package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm asks a yes/no question and reads the answer from in. An empty
// answer or a read error selects defaultYes.
func Confirm(in io.Reader, out io.Writer, question string, defaultYes bool) bool {
	choices := "[y/N]"
	if defaultYes {
		choices = "[Y/n]"
	}

	promptStyle := lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true)
	_, _ = fmt.Fprint(out, promptStyle.Render(question+" "+choices+": "))

	input, err := bufio.NewReader(in).ReadString('\n')
	input = strings.ToLower(strings.TrimSpace(input))
	if err != nil && input == "" {
		_, _ = fmt.Fprintln(out)
		return defaultYes
	}

	switch input {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return defaultYes
	}
}
