package ui

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/golden"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/awsknow/internal/client"
	"github.com/dotcommander/awsknow/internal/config"
	"github.com/dotcommander/awsknow/internal/server"
)

type fixedAgent string

func (a fixedAgent) Run(context.Context, string) (string, error) { return string(a), nil }

func knowledgeServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rt := server.NewRuntime(func() server.Agent {
		return fixedAgent("Amazon S3 is an object storage service.")
	}, server.Info{Service: "awsknow"})
	srv := httptest.NewServer(server.New(rt, server.Options{}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func uiConfig() config.UI {
	return config.UI{
		BaseURL:        "http://127.0.0.1:8000",
		Endpoint:       "/knowledge",
		RequestTimeout: time.Second,
		ProbeTimeout:   time.Second,
	}
}

func TestReportSend(t *testing.T) {
	in := Input{BaseURL: "http://127.0.0.1:8000", Endpoint: "/knowledge", Prompt: "What is Amazon S3?", Action: ActionSend}
	resp := &client.Response{
		Request: client.Request{
			Method:  http.MethodPost,
			URL:     "http://127.0.0.1:8000/knowledge",
			Payload: &client.Payload{Prompt: "What is Amazon S3?"},
		},
		Status: http.StatusOK,
		Header: http.Header{
			"Content-Type": {"text/plain; charset=utf-8"},
			"X-Request-Id": {"req-1"},
		},
		Body: []byte("Amazon S3 is an object storage service."),
	}
	golden.RequireEqual(t, []byte(Report(plainStyles(), in, resp)))
}

func TestReportProbeDocs(t *testing.T) {
	in := Input{BaseURL: "http://127.0.0.1:8000", Action: ActionProbeDocs}
	resp := &client.Response{
		Request: client.Request{Method: http.MethodGet, URL: "http://127.0.0.1:8000/docs"},
		Status:  http.StatusOK,
		Header:  http.Header{"Content-Type": {"application/json; charset=utf-8"}},
		Body:    []byte(`{"swagger":"2.0","info":{"title":"awsknow"}}`),
	}
	golden.RequireEqual(t, []byte(Report(plainStyles(), in, resp)))
}

func TestStatusLine(t *testing.T) {
	s := plainStyles()
	resp := func(code int) *client.Response {
		return &client.Response{Request: client.Request{Method: http.MethodGet, URL: "http://x/"}, Status: code}
	}
	require.Equal(t, "✗ 404 Not Found: endpoint not found, try a different path.", statusLine(s, ActionSend, resp(404)))
	require.Equal(t, "! Status 503", statusLine(s, ActionSend, resp(503)))
	require.Equal(t, "GET http://x/ → 404", statusLine(s, ActionProbeDocs, resp(404)))
	require.Equal(t, "GET http://x/ → 200", statusLine(s, ActionProbeRoot, resp(200)))
}

func TestReportTruncatesProbedRoot(t *testing.T) {
	resp := &client.Response{
		Request: client.Request{Method: http.MethodGet, URL: "http://x"},
		Status:  http.StatusOK,
		Body:    []byte(strings.Repeat("a", 600)),
	}
	out := Report(plainStyles(), Input{Action: ActionProbeRoot}, resp)
	require.Contains(t, out, strings.Repeat("a", maxProbeBody)+"…")
	require.NotContains(t, out, strings.Repeat("a", maxProbeBody+1))
}

func TestErrorReport(t *testing.T) {
	c, err := client.New("http://127.0.0.1:1", client.WithTimeouts(time.Second, time.Second))
	require.NoError(t, err)
	_, err = c.Probe(context.Background(), "/")
	require.Error(t, err)

	out := ErrorReport(plainStyles(), Input{BaseURL: "http://127.0.0.1:1", Action: ActionProbeRoot}, err)
	require.True(t, strings.HasPrefix(out, "✗ Connection failed: could not connect to http://127.0.0.1:1."))
	require.Contains(t, out, "GET / http://127.0.0.1:1")

	out = ErrorReport(plainStyles(), Input{}, errors.New("boom"))
	require.Equal(t, "✗ Request failed.\n  boom\n", out)
}

func TestExecute(t *testing.T) {
	srv := knowledgeServer(t)
	x := NewExecutor(uiConfig())
	ctx := context.Background()

	resp, err := x.Execute(ctx, Input{BaseURL: srv.URL, Endpoint: "/knowledge", Prompt: "What is Amazon S3?", Action: ActionSend})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, "Amazon S3 is an object storage service.", string(resp.Body))
	require.NotEmpty(t, resp.Header.Get(server.RequestIDHeader))

	resp, err = x.Execute(ctx, Input{BaseURL: srv.URL, Action: ActionProbeRoot})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.True(t, resp.IsJSON())

	resp, err = x.Execute(ctx, Input{BaseURL: srv.URL, Action: ActionProbeDocs})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Contains(t, string(resp.Body), "/knowledge")

	resp, err = x.Execute(ctx, Input{BaseURL: srv.URL, Endpoint: "/nope", Prompt: "q", Action: ActionSend})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.Status)

	_, err = x.Execute(ctx, Input{BaseURL: "localhost:8000", Action: ActionSend, Prompt: "q"})
	require.Error(t, err)
	_, err = x.Execute(ctx, Input{BaseURL: srv.URL, Action: "dance"})
	require.ErrorContains(t, err, `unknown action "dance"`)
}

func TestRunOnce(t *testing.T) {
	srv := knowledgeServer(t)
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	var out bytes.Buffer
	err = Run(context.Background(), Options{
		Config:  uiConfig(),
		Store:   store,
		Initial: Input{BaseURL: srv.URL},
		Out:     &out,
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), "✓ Status 200")
	require.Contains(t, out.String(), "Amazon S3 is an object storage service.")
	require.Contains(t, out.String(), `{"prompt":"What is Amazon S3?"}`)

	last := store.Last()
	require.Equal(t, srv.URL, last.BaseURL)
	require.Equal(t, "/knowledge", last.Endpoint)
	require.False(t, last.LastUsed.IsZero())

	entries := store.History().List()
	require.Len(t, entries, 1)
	require.Equal(t, "What is Amazon S3?", entries[0].Prompt)
	require.Equal(t, http.StatusOK, entries[0].Status)

	body, err := store.Body(entries[0].ID)
	require.NoError(t, err)
	require.Equal(t, "Amazon S3 is an object storage service.", body)

	require.NoError(t, store.Forget(entries[0].ID))
	require.Empty(t, store.History().List())
	_, err = store.Body(entries[0].ID)
	require.Error(t, err)
}

func TestRunOnceFailure(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), Options{
		Config:  uiConfig(),
		Initial: Input{BaseURL: "http://127.0.0.1:1", Action: ActionProbeDocs},
		Out:     &out,
	})
	require.ErrorIs(t, err, client.ErrConnection)
	require.Contains(t, out.String(), "Connection failed")
}

func TestPrefill(t *testing.T) {
	opts := Options{Config: uiConfig()}
	in := opts.prefill()
	require.Equal(t, Input{
		BaseURL:  "http://127.0.0.1:8000",
		Endpoint: "/knowledge",
		Prompt:   DefaultPrompt,
		Action:   ActionSend,
	}, in)

	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	require.NoError(t, store.Remember(Input{BaseURL: "https://knowledge.example.com"}, time.Now()))

	opts.Store = store
	opts.Initial = Input{Prompt: "What is AWS Lambda?", Action: ActionProbeRoot}
	in = opts.prefill()
	require.Equal(t, "https://knowledge.example.com", in.BaseURL)
	require.Equal(t, "/knowledge", in.Endpoint)
	require.Equal(t, "What is AWS Lambda?", in.Prompt)
	require.Equal(t, ActionProbeRoot, in.Action)
}

func TestOpenStoreRequiresPath(t *testing.T) {
	_, err := OpenStore("")
	require.Error(t, err)
}

func TestValidation(t *testing.T) {
	require.NoError(t, validateBaseURL("http://127.0.0.1:8000"))
	require.Error(t, validateBaseURL("127.0.0.1:8000"))
	require.NoError(t, validatePrompt(DefaultPrompt))
	require.EqualError(t, validatePrompt("  "), "Please enter a question.")
	require.NotNil(t, Theme("dracula"))
	require.NotNil(t, Theme("unknown"))
}

func TestPager(t *testing.T) {
	var copied string
	p := newPager(plainStyles(), "line 1\nline 2", "Amazon S3 is an object storage service.")
	p.copy = func(s string) error {
		copied = s
		return nil
	}

	require.Empty(t, p.View())
	p.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	require.Contains(t, p.View(), "line 1")
	require.Contains(t, p.View(), "q quit")

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	require.Equal(t, "Amazon S3 is an object storage service.", copied)
	require.Contains(t, p.View(), "COPIED")

	p.copy = func(string) error { return errors.New("no clipboard") }
	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	require.Contains(t, p.View(), "copy failed: no clipboard")

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	require.True(t, p.again)
	require.NotNil(t, cmd)

	p.again = false
	_, cmd = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.False(t, p.again)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestActionString(t *testing.T) {
	require.Equal(t, "POST", ActionSend.String())
	require.Equal(t, "GET /", ActionProbeRoot.String())
	require.Equal(t, "GET /docs", ActionProbeDocs.String())
}
