package config

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	promptFetchTimeout = 10 * time.Second
	maxPromptBytes     = 2 << 20
	maxErrorBodyBytes  = 512
)

// LoadSystemPrompt resolves the system-prompt setting. src is one of:
//   - literal text
//   - file://path, with a leading ~ expanded to the home directory
//   - an http(s) URL, fetched with hc (http.DefaultClient when nil)
//
// YAML frontmatter is dropped from markdown prompts.
func LoadSystemPrompt(ctx context.Context, src string, hc *http.Client) (string, error) {
	switch {
	case strings.HasPrefix(src, "https://"), strings.HasPrefix(src, "http://"):
		return fetchPrompt(ctx, src, hc)
	case strings.HasPrefix(src, "file://"):
		return readPrompt(strings.TrimPrefix(src, "file://"))
	}
	return src, nil
}

func fetchPrompt(ctx context.Context, url string, hc *http.Client) (string, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	ctx, cancel := context.WithTimeout(ctx, promptFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch system prompt: %w", err)
	}
	req.Header.Set("Accept", "text/markdown, text/plain;q=0.9, */*;q=0.1")
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch system prompt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPromptBytes+1))
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch system prompt: HTTP %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body[:min(len(body), maxErrorBodyBytes)])))
	}
	if len(body) > maxPromptBytes {
		return "", fmt.Errorf("read system prompt: larger than %d bytes", maxPromptBytes)
	}
	if isMarkdown(url) || strings.HasPrefix(resp.Header.Get("Content-Type"), "text/markdown") {
		return stripFrontmatter(string(body))
	}
	return string(body), nil
}

func readPrompt(path string) (string, error) {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("read system prompt file: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	bts, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system prompt file: %w", err)
	}
	if isMarkdown(path) {
		return stripFrontmatter(string(bts))
	}
	return string(bts), nil
}

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// stripFrontmatter drops a leading "---" delimited YAML block. The block must
// be valid YAML.
func stripFrontmatter(content string) (string, error) {
	first, rest, _ := strings.Cut(content, "\n")
	if strings.TrimSpace(first) != "---" {
		return content, nil
	}
	front, body, found := strings.Cut("\n"+rest, "\n---")
	if !found {
		return "", fmt.Errorf("invalid markdown frontmatter: missing closing delimiter")
	}

	var meta map[string]any
	if err := yaml.Unmarshal([]byte(front), &meta); err != nil {
		return "", fmt.Errorf("invalid markdown frontmatter: %w", err)
	}

	_, body, _ = strings.Cut(body, "\n")
	return strings.TrimLeft(body, "\r\n"), nil
}
