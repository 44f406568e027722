package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/caarlos0/go-shellwords"

	"github.com/dotcommander/awsknow/internal/agent"
	"github.com/dotcommander/awsknow/internal/config"
	"github.com/dotcommander/awsknow/internal/credentials"
	"github.com/dotcommander/awsknow/internal/errs"
	"github.com/dotcommander/awsknow/internal/log"
	"github.com/dotcommander/awsknow/internal/mcp"
	"github.com/dotcommander/awsknow/internal/model"
	"github.com/dotcommander/awsknow/internal/server"
)

// toolSource names the MCP server whose tools are offered to the model.
// The zero value means no tools.
type toolSource struct {
	name   string
	server config.MCPServerConfig
}

func (s toolSource) none() bool { return s.name == "" }

// toolFlags are the ad-hoc tool source overrides of ask.
type toolFlags struct {
	transport string
	server    string
	command   string
	url       string
	noTools   bool
}

// resolveToolSource picks the tool source: explicit flags first, then the
// configured tool-source.
func resolveToolSource(cfg config.Config, f toolFlags) (toolSource, error) {
	switch {
	case f.noTools:
		return toolSource{}, nil
	case f.command != "":
		args, err := shellwords.Parse(f.command)
		if err != nil {
			return toolSource{}, errs.Wrap(err, "Could not parse the MCP server command.")
		}
		if len(args) == 0 {
			return toolSource{}, errs.Wrap(errs.UserErrorf("empty command"), "Could not parse the MCP server command.")
		}
		return toolSource{name: "command", server: config.MCPServerConfig{
			Type:    "stdio",
			Command: args[0],
			Args:    args[1:],
		}}, nil
	case f.url != "":
		return toolSource{name: "url", server: config.MCPServerConfig{Type: "http", URL: f.url}}, nil
	case f.server != "":
		srv, ok := cfg.MCPServers[f.server]
		if !ok {
			return toolSource{}, errs.Wrapf(fmt.Errorf("unknown MCP server %q", f.server), "No MCP server named %s.", f.server)
		}
		return toolSource{name: f.server, server: srv}, nil
	case f.transport != "":
		if f.transport != "stdio" && f.transport != "http" && f.transport != "sse" {
			return toolSource{}, errs.Wrapf(fmt.Errorf("unsupported transport %q", f.transport), "Transport must be stdio, http or sse.")
		}
		name, srv, ok := cfg.ServerForTransport(f.transport)
		if !ok {
			return toolSource{}, errs.Wrapf(fmt.Errorf("no enabled %s MCP server", f.transport), "No MCP server uses the %s transport.", f.transport)
		}
		return toolSource{name: name, server: srv}, nil
	}
	return configuredToolSource(cfg), nil
}

// configuredToolSource returns the tool-source setting, unless it is empty
// or disabled.
func configuredToolSource(cfg config.Config) toolSource {
	if cfg.ToolSource == "" || !cfg.IsEnabled(cfg.ToolSource) {
		return toolSource{}
	}
	srv, ok := cfg.MCPServers[cfg.ToolSource]
	if !ok {
		return toolSource{}
	}
	return toolSource{name: cfg.ToolSource, server: srv}
}

// bootstrap is what serve and ask build before answering: the model handle,
// the tool session with its toolset and the resolved system prompt.
// model is nil and toolset empty when their initialization failed under the
// continue policy.
type bootstrap struct {
	cfg     config.Config
	model   *model.Handle
	session *mcp.Session
	toolset mcp.Toolset
	system  string
}

// startup acquires credentials, builds the model handle and opens the tool
// session. Failures are logged; policy decides whether they abort.
func (rt *runtime) startup(ctx context.Context, src toolSource, policy string) (*bootstrap, error) {
	var hc *http.Client
	if rt.cfg.HTTPProxy != "" {
		var err error
		if hc, err = model.ProxyClient(rt.cfg.HTTPProxy); err != nil {
			return nil, errs.Init(err, "Could not use the HTTP proxy.")
		}
	}
	system, err := config.LoadSystemPrompt(ctx, rt.cfg.SystemPrompt, hc)
	if err != nil {
		return nil, errs.Init(err, "Could not load the system prompt.")
	}
	b := &bootstrap{cfg: rt.cfg, system: system}

	b.model, err = rt.openModel(ctx)
	if err != nil {
		if abort := startupFailed(policy, "model", err); abort {
			return nil, err
		}
	}

	if src.none() {
		log.Infof("tools disabled")
		return b, nil
	}
	b.session, b.toolset, err = rt.openTools(ctx, src)
	if err != nil {
		if abort := startupFailed(policy, "tools", err); abort {
			return nil, errors.Join(err, b.Close())
		}
	}
	return b, nil
}

func startupFailed(policy, step string, err error) (abort bool) {
	reason := err.Error()
	var e errs.Error
	if errors.As(err, &e) && e.Reason != "" {
		reason = e.Reason + " " + reason
	}
	if policy == config.StartupContinue {
		log.Errorf("startup: %s: %s (continuing)", step, reason)
		return false
	}
	log.Errorf("startup: %s: %s", step, reason)
	return true
}

func (rt *runtime) openModel(ctx context.Context) (*model.Handle, error) {
	provider := rt.creds
	if provider == nil {
		provider = credentials.For(rt.cfg.Model)
	}
	creds, err := provider.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}
	h, err := model.New(ctx, model.Config{
		Provider:  rt.cfg.Model.Provider,
		ID:        rt.cfg.Model.ID,
		Region:    rt.cfg.Model.Region,
		BaseURL:   rt.cfg.Model.BaseURL,
		HTTPProxy: rt.cfg.HTTPProxy,
	}, creds)
	if err != nil {
		return nil, err
	}
	log.Infof("model %s ready (region %s, credentials from %s)", h, h.Region, creds.Source)
	return h, nil
}

func (rt *runtime) openTools(ctx context.Context, src toolSource) (*mcp.Session, mcp.Toolset, error) {
	sess, err := mcp.Open(ctx, src.name, src.server,
		mcp.WithInheritEnv(!rt.cfg.MCPNoInheritEnv),
		mcp.WithInitTimeout(rt.cfg.MCPTimeout),
	)
	if err != nil {
		return nil, mcp.Toolset{}, errs.Init(err, fmt.Sprintf("Could not reach the %s tool endpoint.", src.name))
	}

	listCtx, cancel := context.WithTimeout(ctx, rt.cfg.MCPTimeout)
	defer cancel()
	toolset, err := sess.Toolset(listCtx)
	if err != nil {
		_ = sess.Close()
		return nil, mcp.Toolset{}, errs.Init(err, fmt.Sprintf("Could not list the tools of %s.", src.name))
	}
	log.Infof("%d tools from %s", len(toolset.Tools), src.name)
	return sess, toolset, nil
}

// Close closes the tool session, if any.
func (b *bootstrap) Close() error {
	if b.session == nil {
		return nil
	}
	return b.session.Close()
}

// newAgent builds the per-request agent around the shared model and
// toolset.
func (b *bootstrap) newAgent() *agent.Agent {
	return agent.New(b.model, b.toolset, b.system,
		agent.WithMaxSteps(b.cfg.MaxSteps),
		agent.WithMaxTokens(b.cfg.MaxTokens),
		agent.WithTemperature(b.cfg.Temperature),
	)
}

// agents returns the factory handed to the HTTP runtime, or nil when the
// model failed to initialize.
func (b *bootstrap) agents() server.AgentFactory {
	if b.model == nil {
		return nil
	}
	return func() server.Agent { return b.newAgent() }
}

func (b *bootstrap) modelName() string {
	if b.model == nil {
		return ""
	}
	return b.model.String()
}
