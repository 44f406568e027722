package server

import "context"

// Agent answers a single prompt.
type Agent interface {
	Run(ctx context.Context, prompt string) (string, error)
}

// AgentFactory builds a fresh agent for each request.
type AgentFactory func() Agent

// Info describes the running service on GET /.
type Info struct {
	Service     string            `json:"service"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	Endpoints   map[string]string `json:"endpoints"`
	PoweredBy   string            `json:"powered_by"`
	Model       string            `json:"model"`
	Tools       []string          `json:"tools"`
}

// Runtime is the state shared by every request. It is built once at
// startup and never mutated.
type Runtime struct {
	agents AgentFactory
	info   Info
}

// NewRuntime creates a runtime. A nil factory means the model failed to
// initialize.
func NewRuntime(agents AgentFactory, info Info) *Runtime {
	if info.Endpoints == nil {
		info.Endpoints = DefaultEndpoints()
	}
	if info.Tools == nil {
		info.Tools = []string{}
	}
	return &Runtime{agents: agents, info: info}
}

// ModelReady reports whether requests can be answered.
func (r *Runtime) ModelReady() bool {
	return r.agents != nil
}

// Info returns the service description.
func (r *Runtime) Info() Info {
	return r.info
}

// DefaultEndpoints lists the routes served by Server.
func DefaultEndpoints() map[string]string {
	return map[string]string{
		"GET /":           "service description",
		"GET /health":     "model readiness",
		"POST /knowledge": "answer a prompt",
		"GET /docs":       "OpenAPI document",
	}
}
