// Package ui is an interactive terminal client for a running knowledge
// service: a form to compose a request, a spinner while it runs and a pager
// showing the status, body and headers that came back.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/dotcommander/awsknow/internal/client"
	"github.com/dotcommander/awsknow/internal/config"
)

// Action is what the form asks the UI to do.
type Action string

// Actions offered by the form.
const (
	ActionSend      Action = "send"
	ActionProbeRoot Action = "probe-root"
	ActionProbeDocs Action = "probe-docs"
)

func (a Action) String() string {
	switch a {
	case ActionProbeRoot:
		return "GET /"
	case ActionProbeDocs:
		return "GET /docs"
	default:
		return "POST"
	}
}

// DefaultPrompt pre-fills the prompt field.
const DefaultPrompt = "What is Amazon S3?"

// Endpoints are the paths offered by the endpoint select.
var Endpoints = []string{"/knowledge"}

// Input is one filled-in form.
type Input struct {
	BaseURL  string
	Endpoint string
	Prompt   string
	Action   Action
}

// Executor runs an Input against a service.
type Executor struct {
	RequestTimeout time.Duration
	ProbeTimeout   time.Duration
	Options        []client.Option
}

// NewExecutor uses the timeouts from cfg.
func NewExecutor(cfg config.UI) *Executor {
	return &Executor{RequestTimeout: cfg.RequestTimeout, ProbeTimeout: cfg.ProbeTimeout}
}

// Execute performs in and returns the response.
func (x *Executor) Execute(ctx context.Context, in Input) (*client.Response, error) {
	opts := append([]client.Option{client.WithTimeouts(x.RequestTimeout, x.ProbeTimeout)}, x.Options...)
	c, err := client.New(in.BaseURL, opts...)
	if err != nil {
		return nil, err
	}
	switch in.Action {
	case ActionSend:
		return c.Ask(ctx, in.Endpoint, in.Prompt)
	case ActionProbeRoot:
		return c.Probe(ctx, "/")
	case ActionProbeDocs:
		return c.Probe(ctx, "/docs")
	default:
		return nil, fmt.Errorf("unknown action %q", in.Action)
	}
}
