package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/dotcommander/awsknow/internal/client"
	"github.com/dotcommander/awsknow/internal/errs"
	"github.com/dotcommander/awsknow/internal/present"
)

// maxProbeBody caps how much of a probed root document is shown.
const maxProbeBody = 500

// Report renders the outcome of in as plain sections: the request line, the
// curl equivalent with its payload, a status line, the body and the headers.
func Report(s present.Styles, in Input, resp *client.Response) string {
	var b strings.Builder
	req := resp.Request

	fmt.Fprintf(&b, "%s %s\n\n", s.AppName.Render(req.Method), req.URL)

	section(&b, s, "Request")
	b.WriteString(indent(req.Curl()))
	if req.Payload != nil {
		payload, _ := json.MarshalIndent(req.Payload, "", "  ")
		b.WriteString(indent(string(payload)))
	}
	b.WriteString("\n")

	b.WriteString(statusLine(s, in.Action, resp))
	b.WriteString("\n\n")

	section(&b, s, "Response")
	body := resp.PrettyBody()
	if in.Action == ActionProbeRoot {
		body = truncate(body, maxProbeBody)
	}
	if strings.TrimSpace(body) == "" {
		body = s.Muted.Render("(empty body)")
	}
	b.WriteString(indent(body))
	b.WriteString("\n")

	section(&b, s, "Headers")
	for _, line := range resp.HeaderLines() {
		b.WriteString(indent(line))
	}
	return b.String()
}

// ErrorReport renders a failed request.
func ErrorReport(s present.Styles, in Input, err error) string {
	reason := "Request failed."
	var e errs.Error
	if errors.As(err, &e) && e.ReasonText() != "" {
		reason = e.ReasonText()
	}
	var b strings.Builder
	b.WriteString(s.Failure.Render("✗ " + reason))
	b.WriteString("\n")
	if in.BaseURL != "" {
		b.WriteString(indent(s.Muted.Render(in.Action.String() + " " + in.BaseURL)))
	}
	b.WriteString(indent(s.ErrorDetails.Render(err.Error())))
	return b.String()
}

func statusLine(s present.Styles, action Action, resp *client.Response) string {
	if action != ActionSend {
		line := s.Section.Render(fmt.Sprintf("%s %s → %d", resp.Request.Method, resp.Request.URL, resp.Status))
		if action == ActionProbeDocs && resp.Status == http.StatusOK {
			line += "\n" + s.Success.Render("✓ API documentation is available. Open it in a browser.")
		}
		return line
	}
	switch resp.Status {
	case http.StatusOK:
		return s.Success.Render(fmt.Sprintf("✓ Status %d", resp.Status))
	case http.StatusNotFound:
		return s.Failure.Render("✗ 404 Not Found: endpoint not found, try a different path.")
	default:
		return s.Warning.Render(fmt.Sprintf("! Status %d", resp.Status))
	}
}

func section(b *strings.Builder, s present.Styles, title string) {
	b.WriteString(s.Section.Render(title))
	b.WriteString("\n")
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "  " + l
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

// plainStyles renders without colors, for golden files and non-TTY output.
func plainStyles() present.Styles {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return present.MakeStyles(r)
}
