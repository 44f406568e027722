package ui

import (
	"strings"

	timeago "github.com/caarlos0/timea.go"
	"github.com/charmbracelet/huh"

	"github.com/dotcommander/awsknow/internal/client"
	"github.com/dotcommander/awsknow/internal/errs"
)

func newForm(in *Input, last State, theme *huh.Theme) *huh.Form {
	urlHelp := "Include the scheme, for example http://127.0.0.1:8000."
	if !last.LastUsed.IsZero() {
		urlHelp += " Last used " + timeago.Of(last.LastUsed) + "."
	}

	endpoints := make([]huh.Option[string], 0, len(Endpoints))
	for _, e := range Endpoints {
		endpoints = append(endpoints, huh.NewOption(e, e))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Base URL").
				Description(urlHelp).
				Placeholder("http://your-api-endpoint.com").
				Validate(validateBaseURL).
				Value(&in.BaseURL),
			huh.NewSelect[string]().
				Title("Endpoint").
				Options(endpoints...).
				Value(&in.Endpoint),
			huh.NewText().
				Title("Question").
				Description("Sent as the prompt field of the JSON body.").
				Lines(4).
				Validate(validatePrompt).
				Value(&in.Prompt),
			huh.NewSelect[Action]().
				Title("Action").
				Options(
					huh.NewOption("Send request", ActionSend),
					huh.NewOption("Probe root path (GET /)", ActionProbeRoot),
					huh.NewOption("Probe /docs (GET /docs)", ActionProbeDocs),
				).
				Value(&in.Action),
		),
	).WithTheme(theme)
}

func validateBaseURL(s string) error {
	_, err := client.ParseBaseURL(s)
	return err
}

func validatePrompt(s string) error {
	if strings.TrimSpace(s) == "" {
		return errs.UserErrorf("Please enter a question.")
	}
	return nil
}

// Theme maps a theme name to a huh theme.
func Theme(name string) *huh.Theme {
	switch name {
	case "dracula":
		return huh.ThemeDracula()
	case "catppuccin":
		return huh.ThemeCatppuccin()
	case "base16":
		return huh.ThemeBase16()
	default:
		return huh.ThemeCharm()
	}
}
