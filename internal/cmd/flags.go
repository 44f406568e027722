package cmd

import (
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/duration"
	flag "github.com/spf13/pflag"

	"github.com/dotcommander/awsknow/internal/config"
	"github.com/dotcommander/awsknow/internal/present"
)

func newFlagParseError(err error) flagParseError {
	var reason, name string
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "flag needs an argument:"):
		reason = "Flag %s needs an argument."
		fields := strings.Fields(msg)
		name = fields[len(fields)-1]
	case strings.HasPrefix(msg, "unknown flag:"):
		reason = "Flag %s is missing."
		name = strings.TrimPrefix(msg, "unknown flag: ")
	case strings.HasPrefix(msg, "unknown shorthand flag:"):
		reason = "Short flag %s is missing."
		if parts := shorthandRE.FindStringSubmatch(msg); len(parts) > 1 {
			name = parts[1]
		}
	case strings.HasPrefix(msg, "invalid argument"):
		reason = "Flag %s have an invalid argument."
		if parts := invalidArgRE.FindStringSubmatch(msg); len(parts) > 1 {
			name = parts[1]
		}
	default:
		reason = msg
	}
	return flagParseError{err: err, reason: reason, flag: name}
}

var (
	shorthandRE  = regexp.MustCompile(`unknown shorthand flag: '.*' in (-\w)`)
	invalidArgRE = regexp.MustCompile(`invalid argument ".*" for "(.*)" flag: .*`)
)

type flagParseError struct {
	err    error
	reason string
	flag   string
}

func (f flagParseError) Error() string {
	return f.err.Error()
}

func (f flagParseError) ReasonFormat() string {
	return f.reason
}

func (f flagParseError) Flag() string {
	return f.flag
}

// durationFlag accepts the usual Go durations plus days and weeks ("7d").
type durationFlag time.Duration

func newDurationFlag(val time.Duration, p *time.Duration) *durationFlag {
	*p = val
	return (*durationFlag)(p)
}

func (d *durationFlag) Set(s string) error {
	v, err := duration.Parse(s)
	*d = durationFlag(v)
	//nolint: wrapcheck
	return err
}

func (d *durationFlag) String() string {
	return time.Duration(*d).String()
}

func (*durationFlag) Type() string {
	return "duration"
}

// help renders the description of a setting for a flag.
func help(key string) string {
	return present.StdoutStyles().FlagDesc.Render(config.Help[key])
}

// addModelFlags registers the flags shared by the commands that build a
// model and its toolset.
func addModelFlags(flags *flag.FlagSet, cfg *config.Config) {
	flags.StringVar(&cfg.Model.Provider, "provider", cfg.Model.Provider, help("model.provider"))
	flags.StringVarP(&cfg.Model.ID, "model", "m", cfg.Model.ID, help("model.id"))
	flags.StringVar(&cfg.Model.Region, "region", cfg.Model.Region, help("model.region"))
	flags.StringVar(&cfg.Model.BaseURL, "base-url", cfg.Model.BaseURL, help("model.base-url"))
	flags.StringVarP(&cfg.HTTPProxy, "http-proxy", "x", cfg.HTTPProxy, help("http-proxy"))
	flags.StringVar(&cfg.SystemPrompt, "system-prompt", cfg.SystemPrompt, help("system-prompt"))
	flags.IntVar(&cfg.MaxSteps, "max-steps", cfg.MaxSteps, help("max-steps"))
	flags.Int64Var(&cfg.MaxTokens, "max-tokens", cfg.MaxTokens, help("max-tokens"))
	flags.Float64Var(&cfg.Temperature, "temp", cfg.Temperature, help("temp"))
	flags.StringArrayVar(&cfg.MCPDisable, "mcp-disable", cfg.MCPDisable, help("mcp-disable"))
	flags.Var(newDurationFlag(cfg.MCPTimeout, &cfg.MCPTimeout), "mcp-timeout", help("mcp-timeout"))
	flags.BoolVar(&cfg.MCPNoInheritEnv, "mcp-no-inherit-env", cfg.MCPNoInheritEnv, help("mcp-no-inherit-env"))
}
