// Package model builds the language model handle shared by every request.
package model

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"charm.land/fantasy"

	"github.com/dotcommander/awsknow/internal/credentials"
	"github.com/dotcommander/awsknow/internal/errs"
)

// Provider names.
const (
	ProviderBedrock      = "bedrock"
	ProviderAnthropic    = "anthropic"
	ProviderOpenAI       = "openai"
	ProviderOpenAICompat = "openaicompat"
	ProviderOllama       = "ollama"
)

// Config describes the model to bind.
type Config struct {
	Provider   string
	ID         string
	Region     string
	BaseURL    string
	HTTPProxy  string
	HTTPClient *http.Client
}

// Handle is a language model bound to a provider, model ID and region.
// It is built once and is safe for concurrent use.
type Handle struct {
	Provider string
	ID       string
	Region   string

	lm fantasy.LanguageModel
}

// New builds the provider from cfg and creds and binds the model.
func New(ctx context.Context, cfg Config, creds credentials.Credentials) (*Handle, error) {
	if cfg.ID == "" {
		return nil, errs.Init(fmt.Errorf("empty model id"), "No model configured.")
	}
	if cfg.HTTPProxy != "" && cfg.HTTPClient == nil {
		client, err := ProxyClient(cfg.HTTPProxy)
		if err != nil {
			return nil, err
		}
		cfg.HTTPClient = client
	}
	if cfg.Provider == ProviderBedrock && cfg.Region != "" {
		// The Bedrock provider resolves its region from the AWS environment.
		if err := os.Setenv("AWS_REGION", cfg.Region); err != nil {
			return nil, errs.Init(err, "Could not set AWS region.")
		}
	}

	provider, err := newProvider(cfg, creds.APIKey)
	if err != nil {
		return nil, errs.Init(err, fmt.Sprintf("Could not create the %s provider.", cfg.Provider))
	}
	lm, err := provider.LanguageModel(ctx, cfg.ID)
	if err != nil {
		return nil, errs.Init(fmt.Errorf("fantasy language model: %w", err), fmt.Sprintf("Could not load model %s.", cfg.ID))
	}
	return &Handle{Provider: cfg.Provider, ID: cfg.ID, Region: cfg.Region, lm: lm}, nil
}

// Stream starts one model step.
func (h *Handle) Stream(ctx context.Context, call fantasy.Call) (fantasy.StreamResponse, error) {
	seq, err := h.lm.Stream(ctx, call)
	if err != nil {
		return nil, fmt.Errorf("fantasy stream: %w", err)
	}
	return seq, nil
}

// String returns provider/model.
func (h *Handle) String() string {
	return h.Provider + "/" + h.ID
}

// ProxyClient returns an HTTP client that routes through httpProxy.
func ProxyClient(httpProxy string) (*http.Client, error) {
	proxyURL, err := url.Parse(httpProxy)
	if err != nil {
		return nil, errs.Error{Err: err, Reason: "There was an error parsing your proxy URL."}
	}
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errs.Error{Err: fmt.Errorf("default transport is not *http.Transport"), Reason: "Could not configure proxy."}
	}
	tr := base.Clone()
	tr.Proxy = http.ProxyURL(proxyURL)
	tr.DialContext = (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	tr.TLSHandshakeTimeout = 10 * time.Second
	tr.ResponseHeaderTimeout = 30 * time.Second
	tr.IdleConnTimeout = 90 * time.Second
	tr.ExpectContinueTimeout = 1 * time.Second
	return &http.Client{Transport: tr}, nil
}
