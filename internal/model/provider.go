package model

import (
	"fmt"
	"strings"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/bedrock"
	fopenai "charm.land/fantasy/providers/openai"
	fopenaicompat "charm.land/fantasy/providers/openaicompat"
)

const ollamaBaseURL = "http://localhost:11434/v1"

func newProvider(cfg Config, apiKey string) (fantasy.Provider, error) {
	switch cfg.Provider {
	case ProviderBedrock:
		opts := []bedrock.Option{}
		if apiKey != "" {
			opts = append(opts, bedrock.WithAPIKey(apiKey))
		}
		if cfg.HTTPClient != nil {
			opts = append(opts, bedrock.WithHTTPClient(cfg.HTTPClient))
		}
		provider, err := bedrock.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("new fantasy bedrock provider: %w", err)
		}
		return provider, nil
	case ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithAPIKey(apiKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/v1")))
		}
		if cfg.HTTPClient != nil {
			opts = append(opts, anthropic.WithHTTPClient(cfg.HTTPClient))
		}
		provider, err := anthropic.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("new fantasy anthropic provider: %w", err)
		}
		return provider, nil
	case ProviderOpenAI:
		opts := []fopenai.Option{fopenai.WithAPIKey(apiKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, fopenai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.HTTPClient != nil {
			opts = append(opts, fopenai.WithHTTPClient(cfg.HTTPClient))
		}
		provider, err := fopenai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("new fantasy openai provider: %w", err)
		}
		return provider, nil
	case ProviderOpenAICompat, ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" && cfg.Provider == ProviderOllama {
			baseURL = ollamaBaseURL
		}
		opts := []fopenaicompat.Option{fopenaicompat.WithName(cfg.Provider)}
		if apiKey != "" {
			opts = append(opts, fopenaicompat.WithAPIKey(apiKey))
		}
		if baseURL != "" {
			opts = append(opts, fopenaicompat.WithBaseURL(baseURL))
		}
		if cfg.HTTPClient != nil {
			opts = append(opts, fopenaicompat.WithHTTPClient(cfg.HTTPClient))
		}
		provider, err := fopenaicompat.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("new fantasy openai-compatible provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q, supported providers are: %s, %s, %s, %s, %s",
			cfg.Provider, ProviderBedrock, ProviderAnthropic, ProviderOpenAI, ProviderOpenAICompat, ProviderOllama)
	}
}
