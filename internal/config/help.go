package config

// Help describes every setting. It is shared by the settings template and
// the command line flags.
var Help = map[string]string{
	"addr":                "Address the HTTP service listens on.",
	"log-level":           "Log level: debug, info, warn, error or fatal.",
	"on-startup-error":    "What to do when the model or tools fail to initialize: abort or continue.",
	"cors-origins":        "Origins allowed to call the HTTP service from a browser. Empty allows any origin.",
	"shutdown-timeout":    "How long to wait for in-flight requests on shutdown.",
	"read-header-timeout": "Maximum time to read request headers.",
	"model.provider":      "Model provider: bedrock, anthropic, openai or openaicompat.",
	"model.id":            "Model identifier passed to the provider.",
	"model.region":        "AWS region of the Bedrock endpoint.",
	"model.base-url":      "Custom provider endpoint, for example an Ollama server.",
	"model.api-key-env":   "Environment variable holding the provider API key.",
	"model.api-key-cmd":   "Command whose output is the provider API key.",
	"http-proxy":          "HTTP proxy used to reach the model provider.",
	"max-steps":           "Maximum number of model steps per request before giving up on a tool loop.",
	"max-tokens":          "Maximum number of tokens in the answer.",
	"temp":                "Sampling temperature. Zero uses the provider default.",
	"system-prompt":       "System prompt: raw text, file:// path or http(s) URL.",
	"tool-source":         "MCP server whose tools are offered to the model. Empty disables tools.",
	"mcp-servers":         "MCP servers, keyed by name. Types: http, sse, stdio.",
	"mcp-disable":         "MCP servers to disable. Use * to disable all of them.",
	"mcp-timeout":         "Timeout for the MCP handshake and tool listing. Tool calls are not bounded.",
	"mcp-no-inherit-env":  "Do not pass the process environment to stdio MCP servers.",
	"ui.base-url":         "Service base URL used by the terminal UI.",
	"ui.endpoint":         "Endpoint the terminal UI posts prompts to.",
	"ui.request-timeout":  "Timeout for prompt requests sent by the terminal UI.",
	"ui.probe-timeout":    "Timeout for probing / and /docs from the terminal UI.",
	"ui.theme":            "Form theme: charm, catppuccin, dracula or base16.",
}
