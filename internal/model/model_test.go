package model

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/awsknow/internal/credentials"
	"github.com/dotcommander/awsknow/internal/errs"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("ollama defaults base url", func(t *testing.T) {
		h, err := New(ctx, Config{Provider: ProviderOllama, ID: "llama3.2"}, credentials.Credentials{})
		require.NoError(t, err)
		require.Equal(t, "ollama/llama3.2", h.String())
	})

	t.Run("openai with key", func(t *testing.T) {
		h, err := New(ctx, Config{Provider: ProviderOpenAI, ID: "gpt-4o-mini"}, credentials.Credentials{APIKey: "sk-test"})
		require.NoError(t, err)
		require.Equal(t, ProviderOpenAI, h.Provider)
		require.Equal(t, "gpt-4o-mini", h.ID)
	})

	t.Run("anthropic with proxy", func(t *testing.T) {
		h, err := New(ctx, Config{
			Provider:  ProviderAnthropic,
			ID:        "claude-3-7-sonnet-latest",
			BaseURL:   "https://api.anthropic.com/v1",
			HTTPProxy: "http://127.0.0.1:3128",
		}, credentials.Credentials{APIKey: "sk-ant"})
		require.NoError(t, err)
		require.NotNil(t, h)
	})

	t.Run("unsupported provider", func(t *testing.T) {
		_, err := New(ctx, Config{Provider: "cohere", ID: "command"}, credentials.Credentials{})
		require.Error(t, err)
		require.Equal(t, errs.KindInit, errs.KindOf(err))
		require.ErrorContains(t, err, `unsupported provider "cohere"`)
	})

	t.Run("missing model id", func(t *testing.T) {
		_, err := New(ctx, Config{Provider: ProviderBedrock}, credentials.Credentials{})
		require.Error(t, err)
		var e errs.Error
		require.ErrorAs(t, err, &e)
		require.Equal(t, "No model configured.", e.ReasonText())
	})
}

func TestProxyClient(t *testing.T) {
	client, err := ProxyClient("http://proxy.internal:3128")
	require.NoError(t, err)
	tr, ok := client.Transport.(*http.Transport)
	require.True(t, ok)

	req, err := http.NewRequest(http.MethodGet, "https://bedrock-runtime.us-west-2.amazonaws.com", nil)
	require.NoError(t, err)
	proxyURL, err := tr.Proxy(req)
	require.NoError(t, err)
	require.Equal(t, "proxy.internal:3128", proxyURL.Host)

	_, err = ProxyClient("://missing-scheme")
	require.Error(t, err)
}
