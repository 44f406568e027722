// Package cmd wires the awsknow command line.
package cmd

import (
	glamour "github.com/charmbracelet/glamour/styles"
	"github.com/spf13/cobra"

	"github.com/dotcommander/awsknow/internal/config"
	"github.com/dotcommander/awsknow/internal/credentials"
	"github.com/dotcommander/awsknow/internal/log"
	"github.com/dotcommander/awsknow/internal/mcp"
)

type runtime struct {
	build  BuildInfo
	cfg    config.Config
	cfgErr error

	// creds overrides the credential provider picked from the model settings.
	creds credentials.Provider
}

// NewRootCmd constructs the Cobra root command.
func NewRootCmd(build BuildInfo, cfg config.Config, cfgErr error) *cobra.Command {
	// XXX: unset error styles in Glamour dark and light styles.
	glamour.DarkStyleConfig.CodeBlock.Chroma.Error.BackgroundColor = new(string)
	glamour.LightStyleConfig.CodeBlock.Chroma.Error.BackgroundColor = new(string)

	rt := &runtime{build: normalizeBuildInfo(build), cfg: cfg, cfgErr: cfgErr}
	mcp.ClientVersion = rt.build.Version

	rootCmd := &cobra.Command{
		Use:           "awsknow",
		Short:         "AWS answers from a hosted model and MCP knowledge tools.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example:       randomExample(),
		PersistentPreRun: func(*cobra.Command, []string) {
			log.SetLevel(rt.cfg.LogLevel)
		},
	}

	rootCmd.SetUsageFunc(usageFunc)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newFlagParseError(err)
	})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.Version = rt.build.Version
	rootCmd.SetVersionTemplate(versionTemplate(rt.build))

	pflags := rootCmd.PersistentFlags()
	pflags.StringVar(&rt.cfg.LogLevel, "log-level", rt.cfg.LogLevel, help("log-level"))
	pflags.BoolVar(&memprofile, "memprofile", false, "Write memory profiles to CWD")
	_ = pflags.MarkHidden("memprofile")

	rootCmd.AddCommand(
		newServeCmd(rt),
		newAskCmd(rt),
		newUICmd(rt),
		newToolsCmd(rt),
		newHistoryCmd(rt),
		newConfigCmd(rt),
		newManCmd(rootCmd),
	)

	// Enable completion now that we have subcommands.
	rootCmd.InitDefaultCompletionCmd()

	return rootCmd
}
