// Package present holds terminal presentation helpers shared by the CLI and
// the UI: TTY detection, lipgloss styles and markdown rendering.
package present

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

func isTerminal(f *os.File) func() bool {
	return sync.OnceValue(func() bool {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	})
}

var (
	isInputTTY  = isTerminal(os.Stdin)
	isOutputTTY = isTerminal(os.Stdout)
)

// IsInputTTY reports whether stdin is a terminal.
func IsInputTTY() bool { return isInputTTY() }

// IsOutputTTY reports whether stdout is a terminal. Answers are rendered as
// markdown only when it is.
func IsOutputTTY() bool { return isOutputTTY() }

var stdoutRenderer = sync.OnceValue(lipgloss.DefaultRenderer)

// StdoutRenderer returns the lipgloss renderer bound to stdout.
func StdoutRenderer() *lipgloss.Renderer { return stdoutRenderer() }

var stdoutStyles = sync.OnceValue(func() Styles {
	return MakeStyles(StdoutRenderer())
})

// StdoutStyles returns styles bound to stdout.
func StdoutStyles() Styles { return stdoutStyles() }

var stderrRenderer = sync.OnceValue(func() *lipgloss.Renderer {
	return lipgloss.NewRenderer(os.Stderr, termenv.WithColorCache(true))
})

// StderrRenderer returns a lipgloss renderer bound to stderr.
func StderrRenderer() *lipgloss.Renderer { return stderrRenderer() }

var stderrStyles = sync.OnceValue(func() Styles {
	return MakeStyles(StderrRenderer())
})

// StderrStyles returns styles bound to stderr, used for errors and warnings.
func StderrStyles() Styles { return stderrStyles() }
