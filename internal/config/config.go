package config

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"text/template"
	"time"

	_ "embed"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/awsknow/internal/errs"
)

//go:embed config_template.yml
var configTemplate string

// Startup policies for init failures.
const (
	StartupAbort    = "abort"
	StartupContinue = "continue"
)

// Default model coordinates.
const (
	DefaultProvider = "bedrock"
	DefaultRegion   = "us-west-2"
	DefaultModelID  = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"
)

// Names of the built-in tool servers.
const (
	KnowledgeServer = "aws-knowledge"
	DocsServer      = "aws-docs"
)

const defaultSystemPrompt = `You are an AWS expert. Use the tools of the AWS knowledge MCP server to look up
up-to-date AWS documentation before answering. Answer politely and precisely, include the relevant
documentation URLs, and never give vague answers.`

// Model holds the coordinates of the language model.
type Model struct {
	Provider  string `yaml:"provider" env:"PROVIDER"`
	ID        string `yaml:"id" env:"ID"`
	Region    string `yaml:"region" env:"REGION"`
	BaseURL   string `yaml:"base-url" env:"BASE_URL"`
	APIKey    string `yaml:"api-key" env:"API_KEY"`
	APIKeyEnv string `yaml:"api-key-env" env:"API_KEY_ENV"`
	APIKeyCmd string `yaml:"api-key-cmd" env:"API_KEY_CMD"`
}

// UI holds settings of the companion terminal UI.
type UI struct {
	BaseURL        string        `yaml:"base-url" env:"BASE_URL"`
	Endpoint       string        `yaml:"endpoint" env:"ENDPOINT"`
	RequestTimeout time.Duration `yaml:"request-timeout" env:"REQUEST_TIMEOUT"`
	ProbeTimeout   time.Duration `yaml:"probe-timeout" env:"PROBE_TIMEOUT"`
	Theme          string        `yaml:"theme" env:"THEME"`
	StatePath      string        `yaml:"state-path" env:"STATE_PATH"`
}

// Settings holds persisted configuration loaded from the YAML settings file
// and environment variables.
type Settings struct {
	Addr              string        `yaml:"addr" env:"ADDR"`
	LogLevel          string        `yaml:"log-level" env:"LOG_LEVEL"`
	OnStartupError    string        `yaml:"on-startup-error" env:"ON_STARTUP_ERROR"`
	CORSOrigins       []string      `yaml:"cors-origins" env:"CORS_ORIGINS"`
	ShutdownTimeout   time.Duration `yaml:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT"`
	ReadHeaderTimeout time.Duration `yaml:"read-header-timeout" env:"READ_HEADER_TIMEOUT"`

	Model        Model   `yaml:"model" envPrefix:"MODEL_"`
	HTTPProxy    string  `yaml:"http-proxy" env:"HTTP_PROXY"`
	SystemPrompt string  `yaml:"system-prompt" env:"SYSTEM_PROMPT"`
	MaxSteps     int     `yaml:"max-steps" env:"MAX_STEPS"`
	MaxTokens    int64   `yaml:"max-tokens" env:"MAX_TOKENS"`
	Temperature  float64 `yaml:"temp" env:"TEMP"`

	ToolSource      string                     `yaml:"tool-source" env:"TOOL_SOURCE"`
	MCPServers      map[string]MCPServerConfig `yaml:"mcp-servers"`
	MCPDisable      []string                   `yaml:"mcp-disable" env:"MCP_DISABLE"`
	MCPTimeout      time.Duration              `yaml:"mcp-timeout" env:"MCP_TIMEOUT"`
	MCPNoInheritEnv bool                       `yaml:"mcp-no-inherit-env" env:"MCP_NO_INHERIT_ENV"`

	UI UI `yaml:"ui" envPrefix:"UI_"`
}

// Runtime holds CLI/runtime-only options that should not be loaded from the
// settings file.
type Runtime struct {
	SettingsPath string
	DotEnvPath   string
}

// Config is the application configuration (settings + runtime-only options).
//
// Settings fields are promoted for ergonomic access, but runtime fields are
// explicitly excluded from YAML/env parsing.
type Config struct {
	Settings `yaml:",inline"`
	Runtime  `yaml:"-" env:"-"`
}

// MCPServerConfig holds configuration for an MCP server.
type MCPServerConfig struct {
	Type    string            `yaml:"type"`
	Command string            `yaml:"command"`
	Env     []string          `yaml:"env"`
	Args    []string          `yaml:"args"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// awsEnv carries the unprefixed variables shared with the AWS tooling.
type awsEnv struct {
	Region  string `env:"AWS_REGION"`
	ModelID string `env:"BEDROCK_MODEL_ID"`
}

// DefaultSettingsPath returns ~/.config/awsknow/awsknow.yml.
func DefaultSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errs.Error{Err: err, Reason: "Could not determine home directory."}
	}
	return filepath.Join(home, ".config", "awsknow", "awsknow.yml"), nil
}

// Load reads the optional .env and settings files, overlays the environment
// and validates the result.
//
// A missing settings file is not an error; defaults apply.
func Load(settingsPath string) (Config, error) {
	c := Default()

	dotenv := ".env"
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, errs.Error{Err: err, Reason: "Could not parse .env file."}
	} else if err == nil {
		c.DotEnvPath = dotenv
	}

	if settingsPath == "" {
		settingsPath = os.Getenv("AWSKNOW_CONFIG")
	}
	if settingsPath == "" {
		sp, err := DefaultSettingsPath()
		if err != nil {
			return c, err
		}
		settingsPath = sp
	}
	c.SettingsPath = settingsPath

	content, err := os.ReadFile(settingsPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, errs.Error{Err: err, Reason: "Could not read settings file."}
	default:
		if err := yaml.Unmarshal(content, &c); err != nil {
			return c, errs.Error{Err: err, Reason: "Could not parse settings file."}
		}
	}

	if err := env.ParseWithOptions(&c, env.Options{Prefix: "AWSKNOW_"}); err != nil {
		return c, errs.Error{Err: err, Reason: "Could not parse environment into settings."}
	}

	var aws awsEnv
	if err := env.Parse(&aws); err != nil {
		return c, errs.Error{Err: err, Reason: "Could not parse AWS environment."}
	}
	if aws.Region != "" {
		c.Model.Region = aws.Region
	}
	if aws.ModelID != "" {
		c.Model.ID = aws.ModelID
	}

	c.fillDefaults()
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// fillDefaults restores defaults for values explicitly blanked by the
// settings file or environment.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.OnStartupError == "" {
		c.OnStartupError = def.OnStartupError
	}
	if c.Model.Provider == "" {
		c.Model.Provider = def.Model.Provider
	}
	if c.Model.Region == "" {
		c.Model.Region = def.Model.Region
	}
	if c.Model.ID == "" && c.Model.Provider == DefaultProvider {
		c.Model.ID = def.Model.ID
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = def.MaxSteps
	}
	if c.MCPTimeout <= 0 {
		c.MCPTimeout = def.MCPTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	if c.ReadHeaderTimeout <= 0 {
		c.ReadHeaderTimeout = def.ReadHeaderTimeout
	}
	if c.UI.RequestTimeout <= 0 {
		c.UI.RequestTimeout = def.UI.RequestTimeout
	}
	if c.UI.ProbeTimeout <= 0 {
		c.UI.ProbeTimeout = def.UI.ProbeTimeout
	}
	if c.UI.BaseURL == "" {
		c.UI.BaseURL = def.UI.BaseURL
	}
	if c.UI.Endpoint == "" {
		c.UI.Endpoint = def.UI.Endpoint
	}
	if c.UI.StatePath == "" && c.SettingsPath != "" {
		c.UI.StatePath = filepath.Join(filepath.Dir(c.SettingsPath), "state")
	}
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.OnStartupError {
	case StartupAbort, StartupContinue:
	default:
		return errs.Error{
			Err:    fmt.Errorf("on-startup-error must be %q or %q, got %q", StartupAbort, StartupContinue, c.OnStartupError),
			Reason: "Invalid startup policy.",
		}
	}
	if c.ToolSource != "" {
		if _, ok := c.MCPServers[c.ToolSource]; !ok {
			return errs.Error{
				Err:    fmt.Errorf("tool-source %q is not a configured MCP server", c.ToolSource),
				Reason: "Invalid tool source.",
			}
		}
	}
	return nil
}

// IsEnabled reports whether the named MCP server is enabled.
func (c Config) IsEnabled(name string) bool {
	return !slices.Contains(c.MCPDisable, "*") &&
		!slices.Contains(c.MCPDisable, name)
}

// EnabledServers iterates enabled MCP servers in stable order.
func (c Config) EnabledServers() iter.Seq2[string, MCPServerConfig] {
	return func(yield func(string, MCPServerConfig) bool) {
		names := slices.Collect(maps.Keys(c.MCPServers))
		slices.Sort(names)
		for _, name := range names {
			if !c.IsEnabled(name) {
				continue
			}
			if !yield(name, c.MCPServers[name]) {
				return
			}
		}
	}
}

// ServerForTransport returns the first enabled server using the given
// transport type, preferring the built-in ones.
func (c Config) ServerForTransport(typ string) (string, MCPServerConfig, bool) {
	for _, name := range []string{KnowledgeServer, DocsServer} {
		if srv, ok := c.MCPServers[name]; ok && c.IsEnabled(name) && transportOf(srv) == typ {
			return name, srv, true
		}
	}
	for name, srv := range c.EnabledServers() {
		if transportOf(srv) == typ {
			return name, srv, true
		}
	}
	return "", MCPServerConfig{}, false
}

func transportOf(srv MCPServerConfig) string {
	if srv.Type == "" {
		return "stdio"
	}
	return srv.Type
}

// WriteConfigFile creates the config file at path if it does not exist.
func WriteConfigFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return createConfigFile(path)
	} else if err != nil {
		return errs.Error{Err: err, Reason: "Could not stat path."}
	}
	return nil
}

func createConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errs.Error{Err: err, Reason: "Could not create config directory."}
	}

	tmpl := template.Must(template.New("config").Parse(configTemplate))

	f, err := os.Create(path)
	if err != nil {
		return errs.Error{Err: err, Reason: "Could not create configuration file."}
	}
	defer func() { _ = f.Close() }()

	m := struct {
		Config Config
		Help   map[string]string
	}{Config: Default(), Help: Help}
	if err := tmpl.Execute(f, m); err != nil {
		return errs.Error{Err: err, Reason: "Could not render template."}
	}
	return nil
}

// Default returns the default configuration values.
func Default() Config {
	return Config{
		Settings: Settings{
			Addr:              ":8000",
			LogLevel:          "info",
			OnStartupError:    StartupAbort,
			ShutdownTimeout:   10 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
			Model: Model{
				Provider: DefaultProvider,
				ID:       DefaultModelID,
				Region:   DefaultRegion,
			},
			SystemPrompt: defaultSystemPrompt,
			MaxSteps:     20,
			ToolSource:   KnowledgeServer,
			MCPServers: map[string]MCPServerConfig{
				KnowledgeServer: {
					Type: "http",
					URL:  "https://knowledge-mcp.global.api.aws",
				},
				DocsServer: {
					Type:    "stdio",
					Command: "uvx",
					Args:    []string{"awslabs.aws-documentation-mcp-server@latest"},
					Env:     []string{"FASTMCP_LOG_LEVEL=ERROR"},
				},
			},
			MCPTimeout: 15 * time.Second,
			UI: UI{
				BaseURL:        "http://127.0.0.1:8000",
				Endpoint:       "/knowledge",
				RequestTimeout: 30 * time.Second,
				ProbeTimeout:   10 * time.Second,
				Theme:          "charm",
			},
		},
	}
}
