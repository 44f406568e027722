package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/awsknow/internal/config"
	"github.com/dotcommander/awsknow/internal/errs"
	"github.com/dotcommander/awsknow/internal/present"
)

func newConfigCmd(rt *runtime) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Allow opening settings even when config parsing failed.
			return editSettings(cmd.ErrOrStderr(), rt.cfg.SettingsPath)
		},
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default settings file if there is none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return initSettings(cmd.ErrOrStderr(), rt.cfg.SettingsPath)
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Open settings in $EDITOR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return editSettings(cmd.ErrOrStderr(), rt.cfg.SettingsPath)
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset settings to defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Allow reset even when config parsing failed.
			return resetSettings(cmd.ErrOrStderr(), rt.cfg.SettingsPath)
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:       "path [config|state]",
		Short:     "Print the settings file and UI state directory",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"config", "state"},
		RunE: func(cmd *cobra.Command, args []string) error {
			printPaths(cmd.OutOrStdout(), rt.cfg, args)
			return nil
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			return showSettings(cmd.OutOrStdout(), rt.cfg)
		},
	})

	return configCmd
}

func initSettings(w io.Writer, path string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintln(w, "Config file already exists:", path)
		return nil
	}
	if err := config.WriteConfigFile(path); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	present.PrintConfirmation(w, "wrote", path)
	return nil
}

func editSettings(w io.Writer, path string) error {
	if err := config.WriteConfigFile(path); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	c, err := editor.Cmd("awsknow", path)
	if err != nil {
		return errs.Wrap(err, "Could not edit your settings file.")
	}
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return errs.Wrap(err, fmt.Sprintf(
			"Missing %s.",
			present.StderrStyles().InlineCode.Render("$EDITOR"),
		))
	}

	fmt.Fprintln(w, "Wrote config file to:", path)
	return nil
}

func resetSettings(w io.Writer, path string) error {
	bts, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(err, "Couldn't read config file.")
	}
	if err := os.WriteFile(path+".bak", bts, 0o600); err != nil {
		return errs.Wrap(err, "Couldn't backup config file.")
	}
	if err := os.Remove(path); err != nil {
		return errs.Wrap(err, "Couldn't remove config file.")
	}
	if err := config.WriteConfigFile(path); err != nil {
		return errs.Wrap(err, "Couldn't write new config file.")
	}

	s := present.StderrStyles()
	fmt.Fprintln(w, "\nSettings restored to defaults!")
	fmt.Fprintf(w,
		"\n  %s %s\n\n",
		s.Comment.Render("Your old settings have been saved to:"),
		s.Link.Render(path+".bak"),
	)
	return nil
}

func printPaths(w io.Writer, cfg config.Config, args []string) {
	if len(args) > 0 {
		switch args[0] {
		case "config":
			fmt.Fprintln(w, cfg.SettingsPath)
			return
		case "state":
			fmt.Fprintln(w, cfg.UI.StatePath)
			return
		}
	}

	fmt.Fprintf(w, "Configuration: %s\n", cfg.SettingsPath)
	fmt.Fprintf(w, "%*sState: %s\n", 8, " ", cfg.UI.StatePath) //nolint:mnd
	if cfg.DotEnvPath != "" {
		fmt.Fprintf(w, "%*s.env: %s\n", 9, " ", filepath.Clean(cfg.DotEnvPath)) //nolint:mnd
	}
}

// showSettings prints the settings with secrets masked.
func showSettings(w io.Writer, cfg config.Config) error {
	settings := cfg.Settings
	if settings.Model.APIKey != "" {
		settings.Model.APIKey = secretMask
	}
	servers := make(map[string]config.MCPServerConfig, len(settings.MCPServers))
	for name, srv := range settings.MCPServers {
		servers[name] = maskServer(srv)
	}
	settings.MCPServers = servers
	bts, err := yaml.Marshal(settings)
	if err != nil {
		return errs.Wrap(err, "Could not render settings.")
	}
	_, err = w.Write(bts)
	return err
}

const secretMask = "********"

// maskServer hides header values and the values of KEY=value env entries.
func maskServer(srv config.MCPServerConfig) config.MCPServerConfig {
	if len(srv.Headers) > 0 {
		headers := make(map[string]string, len(srv.Headers))
		for k := range srv.Headers {
			headers[k] = secretMask
		}
		srv.Headers = headers
	}
	if len(srv.Env) > 0 {
		env := make([]string, len(srv.Env))
		for i, kv := range srv.Env {
			key, _, _ := strings.Cut(kv, "=")
			env[i] = key + "=" + secretMask
		}
		srv.Env = env
	}
	return srv
}
