// Package mcp connects to Model Context Protocol servers and exposes their
// tools to the agent.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dotcommander/awsknow/internal/config"
)

// ClientName and ClientVersion identify awsknow during the MCP handshake.
var (
	ClientName    = "awsknow"
	ClientVersion = "dev"
)

// Source is a tool endpoint.
type Source interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, args []byte) (string, error)
	Close() error
}

// Caller invokes a tool by name with JSON arguments.
type Caller interface {
	CallTool(ctx context.Context, name string, args []byte) (string, error)
}

// Toolset is the snapshot of tools fetched once from a source, plus the
// caller used to invoke them.
type Toolset struct {
	Tools  []mcp.Tool
	Caller Caller
}

// Empty reports whether the toolset offers no tools.
func (t Toolset) Empty() bool {
	return len(t.Tools) == 0 || t.Caller == nil
}

// Names returns the tool names in listing order.
func (t Toolset) Names() []string {
	names := make([]string, 0, len(t.Tools))
	for _, tool := range t.Tools {
		names = append(names, tool.Name)
	}
	return names
}

// Session is a long-lived MCP client session.
type Session struct {
	name string
	cli  *client.Client

	closeOnce sync.Once
	closeErr  error
}

var _ Source = &Session{}

type options struct {
	inheritEnv  bool
	httpTimeout time.Duration
	initTimeout time.Duration
}

// Option configures Open.
type Option func(*options)

// WithInheritEnv controls whether stdio servers inherit the process
// environment. Enabled by default.
func WithInheritEnv(inherit bool) Option {
	return func(o *options) { o.inheritEnv = inherit }
}

// WithHTTPTimeout bounds every HTTP request of the http transport, tool
// calls included. Only short-lived sessions should set it.
func WithHTTPTimeout(d time.Duration) Option {
	return func(o *options) { o.httpTimeout = d }
}

// WithInitTimeout bounds the MCP handshake. The transport itself stays bound
// to the context given to Open.
func WithInitTimeout(d time.Duration) Option {
	return func(o *options) { o.initTimeout = d }
}

// Open connects to server and completes the MCP handshake.
func Open(ctx context.Context, name string, server config.MCPServerConfig, opts ...Option) (*Session, error) {
	o := options{inheritEnv: true}
	for _, opt := range opts {
		opt(&o)
	}

	cli, err := newClient(name, server, o)
	if err != nil {
		return nil, err
	}
	return attach(ctx, name, cli, o.initTimeout)
}

// Attach starts and initializes an existing client.
func Attach(ctx context.Context, name string, cli *client.Client) (*Session, error) {
	return attach(ctx, name, cli, 0)
}

func attach(ctx context.Context, name string, cli *client.Client, initTimeout time.Duration) (*Session, error) {
	if err := cli.Start(ctx); err != nil {
		cli.Close() //nolint:errcheck,gosec
		return nil, fmt.Errorf("failed to start MCP client %q: %w", name, err)
	}

	initCtx := ctx
	if initTimeout > 0 {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, initTimeout)
		defer cancel()
	}

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: ClientName, Version: ClientVersion}
	if _, err := cli.Initialize(initCtx, req); err != nil {
		cli.Close() //nolint:errcheck,gosec
		return nil, fmt.Errorf("failed to initialize MCP client %q: %w", name, err)
	}
	return &Session{name: name, cli: cli}, nil
}

func newClient(name string, server config.MCPServerConfig, o options) (*client.Client, error) {
	var cli *client.Client
	var err error

	switch server.Type {
	case "", "stdio":
		if server.Command == "" {
			return nil, fmt.Errorf("mcp server %q: stdio transport needs a command", name)
		}
		env := server.Env
		if o.inheritEnv {
			env = append(os.Environ(), server.Env...)
		}
		cli, err = client.NewStdioMCPClient(server.Command, env, server.Args...)
	case "sse":
		if server.URL == "" {
			return nil, fmt.Errorf("mcp server %q: sse transport needs a url", name)
		}
		var sseOpts []transport.ClientOption
		if len(server.Headers) > 0 {
			sseOpts = append(sseOpts, transport.WithHeaders(server.Headers))
		}
		cli, err = client.NewSSEMCPClient(server.URL, sseOpts...)
	case "http":
		if server.URL == "" {
			return nil, fmt.Errorf("mcp server %q: http transport needs a url", name)
		}
		var httpOpts []transport.StreamableHTTPCOption
		if len(server.Headers) > 0 {
			httpOpts = append(httpOpts, transport.WithHTTPHeaders(server.Headers))
		}
		if o.httpTimeout > 0 {
			httpOpts = append(httpOpts, transport.WithHTTPTimeout(o.httpTimeout))
		}
		cli, err = client.NewStreamableHttpClient(server.URL, httpOpts...)
	default:
		return nil, fmt.Errorf("unsupported MCP server type: %q, supported types are: stdio, sse, http", server.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client %q: %w", name, err)
	}
	return cli, nil
}

// Name returns the configured server name.
func (s *Session) Name() string { return s.name }

// ListTools lists the tools offered by the server.
func (s *Session) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	result, err := s.cli.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp: list tools of %s: %w", s.name, err)
	}
	return result.Tools, nil
}

// Toolset lists the tools once and returns the snapshot bound to s.
func (s *Session) Toolset(ctx context.Context) (Toolset, error) {
	tools, err := s.ListTools(ctx)
	if err != nil {
		return Toolset{}, err
	}
	return Toolset{Tools: tools, Caller: s}, nil
}

// CallTool invokes a tool. Text content is concatenated; error results are
// returned as errors.
func (s *Session) CallTool(ctx context.Context, name string, data []byte) (string, error) {
	var args map[string]any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &args); err != nil {
			return "", fmt.Errorf("mcp: %w: %s", err, string(data))
		}
	}

	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args
	result, err := s.cli.CallTool(ctx, request)
	if err != nil {
		return "", fmt.Errorf("mcp: %w", err)
	}

	var sb strings.Builder
	for _, content := range result.Content {
		switch content := content.(type) {
		case mcp.TextContent:
			sb.WriteString(content.Text)
		default:
			sb.WriteString("[Non-text content]")
		}
	}

	if result.IsError {
		return "", errors.New(sb.String())
	}
	return sb.String(), nil
}

// Close ends the session. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.cli.Close()
	})
	return s.closeErr
}
