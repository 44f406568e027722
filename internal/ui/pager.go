package ui

import (
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/dotcommander/awsknow/internal/present"
)

// pager shows a report in a scrollable viewport.
type pager struct {
	styles  present.Styles
	content string
	body    string
	vp      viewport.Model
	ready   bool
	notice  string
	again   bool
	copy    func(string) error
}

func newPager(s present.Styles, content, body string) *pager {
	return &pager{
		styles:  s,
		content: content,
		body:    body,
		copy:    copyToClipboard,
	}
}

func copyToClipboard(s string) error {
	termenv.Copy(s)
	return clipboard.WriteAll(s)
}

// Init implements tea.Model.
func (p *pager) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (p *pager) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := max(msg.Height-lipgloss.Height(p.footer()), 1)
		if !p.ready {
			p.vp = viewport.New(msg.Width, height)
			p.vp.SetContent(p.content)
			p.ready = true
		} else {
			p.vp.Width, p.vp.Height = msg.Width, height
		}
		return p, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return p, tea.Quit
		case "n":
			p.again = true
			return p, tea.Quit
		case "c":
			if err := p.copy(p.body); err != nil {
				p.notice = p.styles.Failure.Render("copy failed: " + err.Error())
			} else {
				p.notice = present.Confirmation("copied", "response body")
			}
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.vp, cmd = p.vp.Update(msg)
	return p, cmd
}

// View implements tea.Model.
func (p *pager) View() string {
	if !p.ready {
		return ""
	}
	return p.vp.View() + "\n" + p.footer()
}

func (p *pager) footer() string {
	help := p.styles.Muted.Render("↑/↓ scroll • c copy body • n new request • q quit")
	if p.notice != "" {
		return p.notice + "  " + help
	}
	return help
}
