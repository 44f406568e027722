package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	xstrings "github.com/charmbracelet/x/exp/strings"
	mmcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/dotcommander/awsknow/internal/config"
	"github.com/dotcommander/awsknow/internal/mcp"
	"github.com/dotcommander/awsknow/internal/present"
)

func newToolsCmd(rt *runtime) *cobra.Command {
	var serversOnly bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools of the configured MCP servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			if serversOnly {
				listServers(cmd.OutOrStdout(), rt.cfg)
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), rt.cfg.MCPTimeout)
			defer cancel()
			return listTools(ctx, cmd.OutOrStdout(), rt.cfg, mcp.NewService(rt.cfg))
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&serversOnly, "servers", false, "List the configured servers instead of their tools")
	flags.StringArrayVar(&rt.cfg.MCPDisable, "mcp-disable", rt.cfg.MCPDisable, help("mcp-disable"))
	flags.Var(newDurationFlag(rt.cfg.MCPTimeout, &rt.cfg.MCPTimeout), "mcp-timeout", help("mcp-timeout"))
	return cmd
}

func listServers(w io.Writer, cfg config.Config) {
	s := present.StdoutStyles()
	names := slices.Sorted(maps.Keys(cfg.MCPServers))
	for _, name := range names {
		line := name + s.Timeago.Render(" ("+transportName(cfg.MCPServers[name])+")")
		if cfg.IsEnabled(name) {
			line += s.Comment.Render(" enabled")
		}
		if name == cfg.ToolSource {
			line += s.Success.Render(" tool source")
		}
		fmt.Fprintln(w, line)
	}
}

func transportName(srv config.MCPServerConfig) string {
	if srv.Type == "" {
		return "stdio"
	}
	return srv.Type
}

type toolLister interface {
	Tools(ctx context.Context) (map[string][]mmcp.Tool, error)
}

func listTools(ctx context.Context, w io.Writer, cfg config.Config, svc toolLister) error {
	servers, err := svc.Tools(ctx)
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}
	s := present.StdoutStyles()

	var empty []string
	for _, sname := range slices.Sorted(maps.Keys(servers)) {
		tools := servers[sname]
		if len(tools) == 0 {
			empty = append(empty, sname)
			continue
		}
		slices.SortFunc(tools, func(a, b mmcp.Tool) int { return strings.Compare(a.Name, b.Name) })
		for _, tool := range tools {
			fmt.Fprint(w, s.Timeago.Render(sname+" > "))
			fmt.Fprintln(w, tool.Name)
		}
	}
	if len(empty) > 0 {
		fmt.Fprintln(w, s.Comment.Render("No tools offered by "+xstrings.EnglishJoin(empty, true)+"."))
	}
	if len(servers) == 0 && len(cfg.MCPServers) > 0 {
		fmt.Fprintln(w, s.Comment.Render("Every MCP server is disabled."))
	}
	return nil
}
