// Package client talks to a running awsknow service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/dotcommander/awsknow/internal/errs"
)

// Default timeouts for prompts and probes.
const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultProbeTimeout   = 10 * time.Second
)

const maxBodyBytes = 4 << 20

// ErrTimeout and ErrConnection classify transport failures.
var (
	ErrTimeout    = errors.New("request timed out")
	ErrConnection = errors.New("connection failed")
)

// Payload is the JSON body sent to the knowledge endpoint.
type Payload struct {
	Prompt string `json:"prompt"`
}

// Request is what was sent.
type Request struct {
	Method  string
	URL     string
	Payload *Payload
}

// Curl renders the request as an equivalent curl command line.
func (r Request) Curl() string {
	if r.Payload == nil {
		return "curl " + r.URL
	}
	body, _ := json.Marshal(r.Payload)
	return fmt.Sprintf(`curl -X %s %s -H "Content-Type: application/json" -d '%s'`,
		r.Method, r.URL, strings.ReplaceAll(string(body), "'", `'\''`))
}

// Response is what came back.
type Response struct {
	Request Request
	Status  int
	Header  http.Header
	Body    []byte
	Elapsed time.Duration
}

// IsJSON reports whether the body parses as JSON.
func (r *Response) IsJSON() bool {
	return len(bytes.TrimSpace(r.Body)) > 0 && gjson.ValidBytes(r.Body)
}

// PrettyBody returns the body indented when it is JSON and verbatim otherwise.
func (r *Response) PrettyBody() string {
	if !r.IsJSON() {
		return string(r.Body)
	}
	out := pretty.PrettyOptions(r.Body, &pretty.Options{Width: 80, Indent: "  "})
	return strings.TrimRight(string(out), "\n")
}

// HeaderLines returns the response headers as sorted "Key: value" lines.
func (r *Response) HeaderLines() []string {
	lines := make([]string, 0, len(r.Header))
	for k, v := range r.Header {
		lines = append(lines, k+": "+strings.Join(v, ", "))
	}
	sort.Strings(lines)
	return lines
}

// Client issues requests against one base URL.
type Client struct {
	base           *url.URL
	http           *http.Client
	requestTimeout time.Duration
	probeTimeout   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeouts overrides the prompt and probe timeouts. Zero keeps the
// default.
func WithTimeouts(request, probe time.Duration) Option {
	return func(c *Client) {
		if request > 0 {
			c.requestTimeout = request
		}
		if probe > 0 {
			c.probeTimeout = probe
		}
	}
}

// New validates baseURL and returns a client for it.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		base:           base,
		http:           &http.Client{},
		requestTimeout: DefaultRequestTimeout,
		probeTimeout:   DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ParseBaseURL checks that s is an absolute http(s) URL.
func ParseBaseURL(s string) (*url.URL, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errs.UserErrorf("Please enter a base URL.")
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errs.UserErrorf("Base URL must include the scheme, for example http://127.0.0.1:8000.")
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	if path == "" || path == "/" {
		return c.base.String()
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base.String() + path
}

// Ask posts prompt to endpoint.
func (c *Client) Ask(ctx context.Context, endpoint, prompt string) (*Response, error) {
	if prompt == "" {
		return nil, errs.UserErrorf("Please enter a question.")
	}
	req := Request{Method: http.MethodPost, URL: c.URL(endpoint), Payload: &Payload{Prompt: prompt}}
	return c.do(ctx, req, c.requestTimeout)
}

// Probe issues a GET against path.
func (c *Client) Probe(ctx context.Context, path string) (*Response, error) {
	req := Request{Method: http.MethodGet, URL: c.URL(path)}
	return c.do(ctx, req, c.probeTimeout)
}

func (c *Client) do(ctx context.Context, r Request, timeout time.Duration) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if r.Payload != nil {
		b, err := json.Marshal(r.Payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if r.Payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(r.URL, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classify(r.URL, err)
	}
	return &Response{
		Request: r,
		Status:  resp.StatusCode,
		Header:  resp.Header,
		Body:    data,
		Elapsed: time.Since(start),
	}, nil
}

func classify(target string, err error) error {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return errs.Wrap(fmt.Errorf("%w: %w", ErrTimeout, err),
			"Request timed out: the server is taking too long to respond.")
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return errs.Wrapf(fmt.Errorf("%w: %w", ErrConnection, err),
			"Connection failed: could not connect to %s.", target)
	}
	return errs.Wrap(err, "Request failed.")
}
