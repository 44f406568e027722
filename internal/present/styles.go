package present

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles shared by the CLI and the UI.
type Styles struct {
	AppName      lipgloss.Style
	CliArgs      lipgloss.Style
	Comment      lipgloss.Style
	ErrorHeader  lipgloss.Style
	ErrorDetails lipgloss.Style
	ErrPadding   lipgloss.Style
	Flag         lipgloss.Style
	FlagComma    lipgloss.Style
	FlagDesc     lipgloss.Style
	InlineCode   lipgloss.Style
	Link         lipgloss.Style
	Pipe         lipgloss.Style
	Quote        lipgloss.Style
	ShortID      lipgloss.Style
	Timeago      lipgloss.Style

	Section lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Failure lipgloss.Style
	Code    lipgloss.Style
	Muted   lipgloss.Style
}

// MakeStyles builds Styles bound to r.
func MakeStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		AppName:      r.NewStyle().Bold(true),
		CliArgs:      r.NewStyle().Foreground(lipgloss.Color("#585858")),
		Comment:      r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#757575", Dark: "#757575"}),
		ErrorHeader:  r.NewStyle().Foreground(lipgloss.Color("#F1F1F1")).Background(lipgloss.Color("#FF5F87")).Bold(true).Padding(0, 1).SetString("ERROR"),
		ErrorDetails: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#757575", Dark: "#757575"}),
		ErrPadding:   r.NewStyle().Padding(0, 1),
		Flag:         r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00B594", Dark: "#3EEFCF"}).Bold(true),
		FlagComma:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5DD6C0", Dark: "#427C72"}).SetString(","),
		FlagDesc:     r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5B5B5B", Dark: "#B2B2B2"}),
		InlineCode:   r.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Background(lipgloss.Color("#3A3A3A")).Padding(0, 1),
		Link:         r.NewStyle().Foreground(lipgloss.Color("#00AF87")).Underline(true),
		Pipe:         r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8470FF", Dark: "#745CFF"}),
		Quote:        r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF71D0", Dark: "#FF78D2"}),
		ShortID:      r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF9900", Dark: "#FFB454"}),
		Timeago:      r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#999", Dark: "#555"}),

		Section: r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#6C50FF", Dark: "#A08CFF"}),
		Success: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00B594", Dark: "#3EEFCF"}).Bold(true),
		Warning: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#C77C00", Dark: "#FFB454"}).Bold(true),
		Failure: r.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true),
		Code:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#3A3A3A", Dark: "#D0D0D0"}).PaddingLeft(2),
		Muted:   r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#999", Dark: "#555"}),
	}
}
