package mcp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/awsknow/internal/config"
	"github.com/dotcommander/awsknow/internal/errs"
)

type opener func(ctx context.Context, name string, server config.MCPServerConfig) (Source, error)

// Service lists the tools of every enabled configured server.
type Service struct {
	cfg  config.Config
	open opener
}

// NewService creates a new MCP service.
func NewService(cfg config.Config) *Service {
	return &Service{
		cfg: cfg,
		open: func(ctx context.Context, name string, server config.MCPServerConfig) (Source, error) {
			return Open(ctx, name, server,
				WithInheritEnv(!cfg.MCPNoInheritEnv),
				WithHTTPTimeout(cfg.MCPTimeout),
			)
		},
	}
}

// Tools returns tools grouped by server name.
func (s *Service) Tools(ctx context.Context) (map[string][]mcp.Tool, error) {
	var mu sync.Mutex
	var wg errgroup.Group
	result := map[string][]mcp.Tool{}
	for sname, server := range s.cfg.EnabledServers() {
		wg.Go(func() error {
			serverTools, err := s.toolsFor(ctx, sname, server)
			if errors.Is(err, context.DeadlineExceeded) {
				return errs.Wrap(
					fmt.Errorf("timeout while listing tools for %q - make sure the configuration is correct and the server is reachable", sname),
					"Could not list tools",
				)
			}
			if err != nil {
				return errs.Wrap(err, "Could not list tools")
			}
			mu.Lock()
			result[sname] = append(result[sname], serverTools...)
			mu.Unlock()
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, fmt.Errorf("mcp tools: %w", err)
	}
	return result, nil
}

func (s *Service) toolsFor(ctx context.Context, name string, server config.MCPServerConfig) ([]mcp.Tool, error) {
	src, err := s.open(ctx, name, server)
	if err != nil {
		return nil, fmt.Errorf("could not setup %s: %w", name, err)
	}
	defer src.Close() //nolint:errcheck

	tools, err := src.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not setup %s: %w", name, err)
	}
	return tools, nil
}
