package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultAction = "WROTE"

var actionBadge = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#F1F1F1")).
	Background(lipgloss.Color("#6C50FF")).
	Bold(true).
	Padding(0, 1).
	MarginRight(1)

// Confirmation renders an uppercase action badge followed by content.
func Confirmation(action, content string) string {
	if action == "" {
		action = defaultAction
	}
	badge := actionBadge.Render(strings.ToUpper(action))
	return lipgloss.JoinHorizontal(lipgloss.Center, badge, content)
}

// PrintConfirmation writes Confirmation(action, content) and a newline to w.
func PrintConfirmation(w io.Writer, action, content string) {
	fmt.Fprintln(w, Confirmation(action, content))
}
