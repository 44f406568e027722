package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	mmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/awsknow/internal/agent"
	"github.com/dotcommander/awsknow/internal/client"
	"github.com/dotcommander/awsknow/internal/config"
	"github.com/dotcommander/awsknow/internal/credentials"
	"github.com/dotcommander/awsknow/internal/errs"
	"github.com/dotcommander/awsknow/internal/mcp"
	"github.com/dotcommander/awsknow/internal/server"
	"github.com/dotcommander/awsknow/internal/storage"
	"github.com/dotcommander/awsknow/internal/ui"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.SettingsPath = filepath.Join(dir, "awsknow.yml")
	cfg.UI.StatePath = filepath.Join(dir, "state")
	return cfg
}

func execute(t *testing.T, cfg config.Config, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd(BuildInfo{Version: "1.2.3"}, cfg, nil)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommands(t *testing.T) {
	root := NewRootCmd(BuildInfo{Version: "1.2.3"}, config.Default(), nil)
	for _, name := range []string{"serve", "ask", "ui", "tools", "history", "config", "man"} {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		require.Equal(t, name, c.Name())
	}
	require.Equal(t, "1.2.3", root.Version)
	require.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}

func TestUsage(t *testing.T) {
	out, _, err := execute(t, testConfig(t), "--help")
	require.NoError(t, err)
	require.Contains(t, out, "Usage:")
	require.Contains(t, out, "serve")
	require.Contains(t, out, "Ask one question without a server")
	require.NotContains(t, out, "man ")
}

func TestConfigError(t *testing.T) {
	cfgErr := errs.Wrap(errors.New("yaml: line 1"), "Could not parse settings file.")
	root := NewRootCmd(BuildInfo{}, config.Default(), cfgErr)
	root.SetArgs([]string{"tools", "--servers"})
	root.SetOut(&bytes.Buffer{})
	require.ErrorIs(t, root.Execute(), cfgErr)
}

func TestHandleError(t *testing.T) {
	var b bytes.Buffer
	handleError(&b, errs.Wrap(errors.New("connection refused"), "Could not reach the tool endpoint."))
	require.Contains(t, b.String(), "Could not reach the tool endpoint.")
	require.Contains(t, b.String(), "connection refused")
	require.NotContains(t, b.String(), "config show")

	b.Reset()
	handleError(&b, errs.Init(errors.New("connection refused"), "Could not reach the url tool endpoint."))
	require.Contains(t, b.String(), "Could not reach the url tool endpoint.")
	require.Contains(t, b.String(), "awsknow config show")

	b.Reset()
	handleError(&b, newFlagParseError(errors.New("unknown flag: --nope")))
	require.Contains(t, b.String(), "awsknow -h")
	require.Contains(t, b.String(), "--nope")
}

func TestConfigCmd(t *testing.T) {
	cfg := testConfig(t)

	t.Run("path", func(t *testing.T) {
		out, _, err := execute(t, cfg, "config", "path", "state")
		require.NoError(t, err)
		require.Equal(t, cfg.UI.StatePath+"\n", out)

		out, _, err = execute(t, cfg, "config", "path")
		require.NoError(t, err)
		require.Contains(t, out, "Configuration: "+cfg.SettingsPath)
	})

	t.Run("init", func(t *testing.T) {
		_, _, err := execute(t, cfg, "config", "init")
		require.NoError(t, err)
		bts, err := os.ReadFile(cfg.SettingsPath)
		require.NoError(t, err)
		require.Contains(t, string(bts), "on-startup-error")

		_, errOut, err := execute(t, cfg, "config", "init")
		require.NoError(t, err)
		require.Contains(t, errOut, "already exists")
	})

	t.Run("reset", func(t *testing.T) {
		require.NoError(t, os.WriteFile(cfg.SettingsPath, []byte("addr: :9000\n"), 0o600))
		_, _, err := execute(t, cfg, "config", "reset")
		require.NoError(t, err)
		bak, err := os.ReadFile(cfg.SettingsPath + ".bak")
		require.NoError(t, err)
		require.Equal(t, "addr: :9000\n", string(bak))
	})

	t.Run("show masks secrets", func(t *testing.T) {
		cfg := cfg
		cfg.Model.APIKey = "sk-secret"
		cfg.MCPServers = map[string]config.MCPServerConfig{
			"private-docs": {
				Type:    "http",
				URL:     "https://docs.example.com/mcp",
				Headers: map[string]string{"Authorization": "Bearer tok-secret"},
			},
			"local-docs": {
				Type:    "stdio",
				Command: "uvx",
				Env:     []string{"FASTMCP_LOG_LEVEL=ERROR", "DOCS_TOKEN=env-secret"},
			},
		}
		out, _, err := execute(t, cfg, "config", "show")
		require.NoError(t, err)
		require.Contains(t, out, "on-startup-error: abort")
		require.Contains(t, out, "private-docs")
		require.Contains(t, out, "Authorization")
		require.Contains(t, out, "DOCS_TOKEN=")
		for _, secret := range []string{"sk-secret", "tok-secret", "env-secret"} {
			require.NotContains(t, out, secret)
		}
		require.Equal(t, "Bearer tok-secret", cfg.MCPServers["private-docs"].Headers["Authorization"])
	})
}

func TestToolsServers(t *testing.T) {
	out, _, err := execute(t, testConfig(t), "tools", "--servers")
	require.NoError(t, err)
	require.Contains(t, out, "aws-docs (stdio) enabled")
	require.Contains(t, out, "aws-knowledge (http) enabled tool source")

	out, _, err = execute(t, testConfig(t), "tools", "--servers", "--mcp-disable", "aws-docs")
	require.NoError(t, err)
	require.Contains(t, out, "aws-docs (stdio)\n")
}

type fakeLister map[string][]mmcp.Tool

func (f fakeLister) Tools(context.Context) (map[string][]mmcp.Tool, error) { return f, nil }

func TestListTools(t *testing.T) {
	var b bytes.Buffer
	err := listTools(context.Background(), &b, config.Default(), fakeLister{
		"aws-knowledge": {{Name: "search_documentation"}, {Name: "read_documentation"}},
		"aws-docs":      nil,
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"aws-knowledge > read_documentation",
		"aws-knowledge > search_documentation",
		"No tools offered by aws-docs.",
	}, strings.Split(strings.TrimSpace(b.String()), "\n"))
}

func TestResolveToolSource(t *testing.T) {
	cfg := config.Default()

	for name, tc := range map[string]struct {
		flags  toolFlags
		source string
		server config.MCPServerConfig
	}{
		"configured": {
			source: config.KnowledgeServer,
			server: cfg.MCPServers[config.KnowledgeServer],
		},
		"stdio transport": {
			flags:  toolFlags{transport: "stdio"},
			source: config.DocsServer,
			server: cfg.MCPServers[config.DocsServer],
		},
		"http transport": {
			flags:  toolFlags{transport: "http"},
			source: config.KnowledgeServer,
			server: cfg.MCPServers[config.KnowledgeServer],
		},
		"named server": {
			flags:  toolFlags{server: config.DocsServer},
			source: config.DocsServer,
			server: cfg.MCPServers[config.DocsServer],
		},
		"command": {
			flags:  toolFlags{command: `uvx "awslabs.aws-documentation-mcp-server@latest" --verbose`},
			source: "command",
			server: config.MCPServerConfig{
				Type:    "stdio",
				Command: "uvx",
				Args:    []string{"awslabs.aws-documentation-mcp-server@latest", "--verbose"},
			},
		},
		"url": {
			flags:  toolFlags{url: "https://knowledge-mcp.global.api.aws"},
			source: "url",
			server: config.MCPServerConfig{Type: "http", URL: "https://knowledge-mcp.global.api.aws"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			src, err := resolveToolSource(cfg, tc.flags)
			require.NoError(t, err)
			require.Equal(t, tc.source, src.name)
			require.Equal(t, tc.server, src.server)
		})
	}

	t.Run("no tools", func(t *testing.T) {
		src, err := resolveToolSource(cfg, toolFlags{noTools: true})
		require.NoError(t, err)
		require.True(t, src.none())
	})

	t.Run("disabled tool source", func(t *testing.T) {
		cfg := config.Default()
		cfg.MCPDisable = []string{"*"}
		src, err := resolveToolSource(cfg, toolFlags{})
		require.NoError(t, err)
		require.True(t, src.none())

		_, err = resolveToolSource(cfg, toolFlags{transport: "stdio"})
		require.Error(t, err)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := resolveToolSource(cfg, toolFlags{server: "nope"})
		require.ErrorContains(t, err, `unknown MCP server "nope"`)
		_, err = resolveToolSource(cfg, toolFlags{transport: "carrier-pigeon"})
		require.Error(t, err)
		_, err = resolveToolSource(cfg, toolFlags{command: `uvx "unterminated`})
		require.Error(t, err)
	})
}

func TestAskPrompt(t *testing.T) {
	prompt, err := askPrompt(nil, nil)
	require.NoError(t, err)
	require.Equal(t, defaultAskPrompt, prompt)

	prompt, err = askPrompt(strings.NewReader("  \n"), nil)
	require.NoError(t, err)
	require.Equal(t, defaultAskPrompt, prompt)

	prompt, err = askPrompt(strings.NewReader(""), []string{"What", "is", "Amazon", "S3?"})
	require.NoError(t, err)
	require.Equal(t, "What is Amazon S3?", prompt)

	prompt, err = askPrompt(strings.NewReader("bucket policy:\n{}\n"), []string{"Explain this"})
	require.NoError(t, err)
	require.Equal(t, "Explain this\n\nbucket policy:\n{}", prompt)
}

// newKnowledgeServer serves one search tool over streamable HTTP and counts
// tool listings. The tool answers after delay.
func newKnowledgeServer(t *testing.T, lists *atomic.Int32, delay time.Duration) string {
	t.Helper()
	hooks := &mcpserver.Hooks{}
	hooks.AddBeforeListTools(func(context.Context, any, *mmcp.ListToolsRequest) {
		lists.Add(1)
	})
	s := mcpserver.NewMCPServer("aws-knowledge-test", "1.0.0",
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithHooks(hooks),
	)
	s.AddTool(
		mmcp.NewTool("search_documentation", mmcp.WithDescription("Search AWS documentation")),
		func(ctx context.Context, _ mmcp.CallToolRequest) (*mmcp.CallToolResult, error) {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return mmcp.NewToolResultText("Amazon S3 is an object storage service."), nil
		},
	)
	ts := mcpserver.NewTestStreamableHTTPServer(s)
	t.Cleanup(ts.Close)
	return ts.URL + "/mcp"
}

func testRuntime(t *testing.T) *runtime {
	t.Helper()
	cfg := testConfig(t)
	cfg.Model = config.Model{Provider: "anthropic", ID: "claude-sonnet-4-5"}
	cfg.MCPTimeout = 2 * time.Second
	return &runtime{
		build: BuildInfo{Version: "1.2.3"},
		cfg:   cfg,
		creds: credentials.Static{Source: "test", APIKey: "sk-ant-test"},
	}
}

func get(t *testing.T, url string) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp.StatusCode
}

func TestStartupModelFailure(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	rt := testRuntime(t)
	rt.creds = nil
	src := toolSource{name: "url", server: config.MCPServerConfig{Type: "http", URL: "http://127.0.0.1:1/mcp"}}
	ctx := context.Background()

	t.Run("abort", func(t *testing.T) {
		_, err := rt.startup(ctx, src, config.StartupAbort)
		require.Error(t, err)
		require.Equal(t, errs.KindInit, errs.KindOf(err))
	})

	t.Run("continue", func(t *testing.T) {
		boot, err := rt.startup(ctx, src, config.StartupContinue)
		require.NoError(t, err)
		require.Nil(t, boot.model)
		require.True(t, boot.toolset.Empty())
		require.Nil(t, boot.agents())
		require.NoError(t, boot.Close())

		srv := httptest.NewServer(rt.newServer(boot).Handler())
		t.Cleanup(srv.Close)
		require.Equal(t, http.StatusServiceUnavailable, get(t, srv.URL+"/health"))

		resp, err := http.Post(srv.URL+"/knowledge", "application/json", strings.NewReader(`{"prompt":"What is Amazon S3?"}`))
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestStartupToolFailure(t *testing.T) {
	rt := testRuntime(t)
	src := toolSource{name: "url", server: config.MCPServerConfig{Type: "http", URL: "http://127.0.0.1:1/mcp"}}
	ctx := context.Background()

	t.Run("abort", func(t *testing.T) {
		_, err := rt.startup(ctx, src, config.StartupAbort)
		require.Error(t, err)
		require.Equal(t, errs.KindInit, errs.KindOf(err))
		var e errs.Error
		require.True(t, errors.As(err, &e))
		require.Equal(t, "Could not reach the url tool endpoint.", e.Reason)
	})

	t.Run("continue", func(t *testing.T) {
		boot, err := rt.startup(ctx, src, config.StartupContinue)
		require.NoError(t, err)
		require.NotNil(t, boot.model)
		require.Nil(t, boot.session)
		require.True(t, boot.toolset.Empty())
		require.NotNil(t, boot.agents())
		require.NoError(t, boot.Close())

		srv := httptest.NewServer(rt.newServer(boot).Handler())
		t.Cleanup(srv.Close)
		require.Equal(t, http.StatusOK, get(t, srv.URL+"/health"))
	})
}

func TestStartupSharesToolset(t *testing.T) {
	rt := testRuntime(t)
	var lists atomic.Int32
	src := toolSource{name: "url", server: config.MCPServerConfig{Type: "http", URL: newKnowledgeServer(t, &lists, 0)}}

	boot, err := rt.startup(context.Background(), src, config.StartupAbort)
	require.NoError(t, err)
	t.Cleanup(func() { _ = boot.Close() })

	require.NotNil(t, boot.model)
	require.Equal(t, []string{"search_documentation"}, boot.toolset.Names())
	require.EqualValues(t, 1, lists.Load())

	agents := boot.agents()
	require.NotNil(t, agents)
	first, ok := agents().(*agent.Agent)
	require.True(t, ok)
	second, ok := agents().(*agent.Agent)
	require.True(t, ok)
	require.NotSame(t, first, second)

	for _, a := range []*agent.Agent{first, second} {
		require.Same(t, boot.session, a.Tools().Caller)
		require.Same(t, &boot.toolset.Tools[0], &a.Tools().Tools[0])
	}
	require.EqualValues(t, 1, lists.Load())
}

func TestStartupToolCallsOutliveMCPTimeout(t *testing.T) {
	rt := testRuntime(t)
	rt.cfg.MCPTimeout = 300 * time.Millisecond
	var lists atomic.Int32
	src := toolSource{name: "url", server: config.MCPServerConfig{Type: "http", URL: newKnowledgeServer(t, &lists, 700*time.Millisecond)}}

	boot, err := rt.startup(context.Background(), src, config.StartupAbort)
	require.NoError(t, err)
	t.Cleanup(func() { _ = boot.Close() })

	out, err := boot.toolset.Caller.CallTool(context.Background(), "search_documentation", nil)
	require.NoError(t, err)
	require.Equal(t, "Amazon S3 is an object storage service.", out)
}

func TestServeRejectsUnknownPolicy(t *testing.T) {
	_, _, err := execute(t, testConfig(t), "serve", "--on-startup-error", "shrug")
	require.Error(t, err)
	var e errs.Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, "Invalid startup policy.", e.Reason)
}

func TestNewServerInfo(t *testing.T) {
	cfg := testConfig(t)
	rt := &runtime{build: BuildInfo{Version: "1.2.3"}, cfg: cfg}
	boot := &bootstrap{cfg: cfg, toolset: mcp.Toolset{Tools: []mmcp.Tool{{Name: "search_documentation"}}}}

	srv := httptest.NewServer(rt.newServer(boot).Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var info server.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	require.Equal(t, "awsknow", info.Service)
	require.Equal(t, "1.2.3", info.Version)
	require.Equal(t, "Amazon Bedrock", info.PoweredBy)
	require.Equal(t, []string{"search_documentation"}, info.Tools)
}

func TestHistoryCmd(t *testing.T) {
	cfg := testConfig(t)

	store, err := ui.OpenStore(cfg.UI.StatePath)
	require.NoError(t, err)
	recorded, err := store.Record(
		ui.Input{BaseURL: "http://127.0.0.1:8000", Endpoint: "/knowledge", Prompt: "What is Amazon S3?", Action: ui.ActionSend},
		&client.Response{
			Request: client.Request{Method: http.MethodPost, URL: "http://127.0.0.1:8000/knowledge"},
			Status:  http.StatusOK,
			Body:    []byte("Amazon S3 is an object storage service."),
		},
	)
	require.NoError(t, err)
	old, err := store.History().Record(storage.Entry{
		Method: http.MethodGet,
		URL:    "http://127.0.0.1:8000/docs",
		Status: http.StatusOK,
		At:     time.Now().Add(-72 * time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	short := storage.ShortID(recorded.ID)

	t.Run("list", func(t *testing.T) {
		out, _, err := execute(t, cfg, "history", "list", "--raw")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 2)
		require.Contains(t, lines[0], short)
		require.Contains(t, lines[0], "What is Amazon S3?")
		require.Contains(t, lines[1], "GET http://127.0.0.1:8000/docs")
	})

	t.Run("show", func(t *testing.T) {
		out, _, err := execute(t, cfg, "history", "show", short)
		require.NoError(t, err)
		require.Contains(t, out, "POST http://127.0.0.1:8000/knowledge")
		require.Contains(t, out, "> What is Amazon S3?")
		require.Contains(t, out, "Amazon S3 is an object storage service.")

		last, _, err := execute(t, cfg, "history", "show", "--last")
		require.NoError(t, err)
		require.Contains(t, last, short)
		require.Contains(t, last, "Amazon S3 is an object storage service.")

		_, _, err = execute(t, cfg, "history", "show", "zzzz")
		require.ErrorIs(t, err, storage.ErrNoMatches)
	})

	t.Run("prune", func(t *testing.T) {
		_, _, err := execute(t, cfg, "history", "prune")
		require.Error(t, err)

		_, errOut, err := execute(t, cfg, "history", "prune", "--older-than", "1d", "--yes")
		require.NoError(t, err)
		require.Contains(t, errOut, "1 requests")

		_, _, err = execute(t, cfg, "history", "show", storage.ShortID(old.ID))
		require.ErrorIs(t, err, storage.ErrNoMatches)
	})

	t.Run("delete", func(t *testing.T) {
		_, _, err := execute(t, cfg, "history", "delete", short)
		require.NoError(t, err)

		_, errOut, err := execute(t, cfg, "history", "list", "--raw")
		require.NoError(t, err)
		require.Contains(t, errOut, "No requests recorded.")
	})
}
