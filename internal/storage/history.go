// Package storage records the requests the UI sends to a knowledge service.
package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

var (
	// ErrNoMatches is returned when no entry matches the query.
	ErrNoMatches = errors.New("no history entries found")
	// ErrManyMatches is returned when more than one entry matches the query.
	ErrManyMatches = errors.New("multiple history entries matched the input")
)

const (
	logFileName        = "history.jsonl"
	lockFileName       = "history.lock"
	compactMinOps      = 256
	compactScaleFactor = 4
)

// Entry is one request made from the UI.
type Entry struct {
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	URL     string        `json:"url"`
	Prompt  string        `json:"prompt,omitempty"`
	Status  int           `json:"status"`
	Elapsed time.Duration `json:"elapsed"`
	At      time.Time     `json:"at"`
}

// Title is a one-line label for the entry.
func (e Entry) Title() string {
	if e.Prompt != "" {
		return firstLine(e.Prompt)
	}
	return e.Method + " " + e.URL
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	return s
}

type event struct {
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
	Entry *Entry `json:"entry,omitempty"`
}

// History is an append-only JSONL log of entries, guarded by a file lock so
// that several UI processes can share it.
type History struct {
	mu      sync.RWMutex
	logPath string
	lock    *flock.Flock
	entries map[string]Entry
	ops     int
	tempDir string
}

// Open loads the history stored in dir. The special value ":memory:" uses a
// temporary directory that Close removes.
func Open(dir string) (*History, error) {
	var tempDir string
	if dir == ":memory:" {
		d, err := os.MkdirTemp("", "awsknow-history-*")
		if err != nil {
			return nil, fmt.Errorf("create temp history directory: %w", err)
		}
		dir, tempDir = d, d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	h := &History{
		logPath: filepath.Join(dir, logFileName),
		lock:    flock.New(filepath.Join(dir, lockFileName)),
		entries: make(map[string]Entry),
		tempDir: tempDir,
	}
	if err := h.load(); err != nil {
		return nil, err
	}
	return h, nil
}

// Close releases the temporary directory of a ":memory:" history.
func (h *History) Close() error {
	if h.tempDir == "" {
		return nil
	}
	if err := os.RemoveAll(h.tempDir); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// Record stores e, assigning an ID and timestamp when they are unset, and
// returns the stored entry.
func (h *History) Record(e Entry) (Entry, error) {
	if strings.TrimSpace(e.URL) == "" {
		return Entry{}, fmt.Errorf("record: %w", errors.New("empty url"))
	}
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[e.ID] = e
	if err := h.appendLocked(event{Op: "put", Entry: &e}); err != nil {
		return Entry{}, fmt.Errorf("record: %w", err)
	}
	if err := h.compactIfNeededLocked(); err != nil {
		return Entry{}, fmt.Errorf("record: %w", err)
	}
	return e, nil
}

// Delete removes an entry. Unknown IDs are ignored.
func (h *History) Delete(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("delete: %w", errors.New("empty id"))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.entries[id]; !ok {
		return nil
	}
	delete(h.entries, id)
	if err := h.appendLocked(event{Op: "delete", ID: id}); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return h.compactIfNeededLocked()
}

// OlderThan returns the entries recorded more than d ago, newest first.
func (h *History) OlderThan(d time.Duration) []Entry {
	cutoff := time.Now().Add(-d)
	var out []Entry
	for _, e := range h.List() {
		if e.At.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Latest returns the most recent entry.
func (h *History) Latest() (*Entry, error) {
	list := h.List()
	if len(list) == 0 {
		return nil, fmt.Errorf("latest: %w", ErrNoMatches)
	}
	return &list[0], nil
}

// Find resolves an entry by ID prefix of at least MinPrefixLen characters.
func (h *History) Find(prefix string) (*Entry, error) {
	if len(prefix) < MinPrefixLen {
		return nil, fmt.Errorf("%w: %q is shorter than %d characters", ErrNoMatches, prefix, MinPrefixLen)
	}

	h.mu.RLock()
	var found []Entry
	for id, e := range h.entries {
		if strings.HasPrefix(id, prefix) {
			found = append(found, e)
		}
	}
	h.mu.RUnlock()

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNoMatches, prefix)
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrManyMatches, prefix)
	}
}

// Completions returns "shortid\ttitle" shell completion candidates.
func (h *History) Completions(prefix string) []string {
	var out []string
	for _, e := range h.List() {
		if !strings.HasPrefix(e.ID, prefix) {
			continue
		}
		id := e.ID
		if len(prefix) < ShortIDLen {
			id = ShortID(id)
		}
		out = append(out, id+"\t"+e.Title())
	}
	slices.Sort(out)
	return out
}

// List returns every entry, newest first.
func (h *History) List() []Entry {
	h.mu.RLock()
	out := make([]Entry, 0, len(h.entries))
	for _, e := range h.entries {
		out = append(out, e)
	}
	h.mu.RUnlock()

	slices.SortFunc(out, func(a, b Entry) int {
		if c := b.At.Compare(a.At); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (h *History) load() error {
	if err := h.lock.Lock(); err != nil {
		return fmt.Errorf("lock history: %w", err)
	}
	defer func() { _ = h.lock.Unlock() }()

	file, err := os.Open(h.logPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer file.Close() //nolint:errcheck

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var evt event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			return fmt.Errorf("parse history event: %w", err)
		}
		if err := h.apply(evt); err != nil {
			return err
		}
		h.ops++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan history: %w", err)
	}
	return nil
}

func (h *History) apply(evt event) error {
	switch evt.Op {
	case "put":
		if evt.Entry == nil || strings.TrimSpace(evt.Entry.ID) == "" {
			return errors.New("invalid put event: missing entry id")
		}
		h.entries[evt.Entry.ID] = *evt.Entry
	case "delete":
		if strings.TrimSpace(evt.ID) == "" {
			return errors.New("invalid delete event: empty id")
		}
		delete(h.entries, evt.ID)
	default:
		return fmt.Errorf("invalid history event op: %q", evt.Op)
	}
	return nil
}

func (h *History) appendLocked(evt event) error {
	if err := h.lock.Lock(); err != nil {
		return fmt.Errorf("lock history: %w", err)
	}
	defer func() { _ = h.lock.Unlock() }()

	file, err := os.OpenFile(h.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = file.Close() }()

	line, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal history event: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write history event: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync history: %w", err)
	}
	h.ops++
	return nil
}

func (h *History) compactIfNeededLocked() error {
	if h.ops < compactMinOps {
		return nil
	}
	if len(h.entries) > 0 && h.ops < len(h.entries)*compactScaleFactor {
		return nil
	}
	return h.compactLocked()
}

// compactLocked rewrites the log with one put event per live entry.
func (h *History) compactLocked() error {
	if err := h.lock.Lock(); err != nil {
		return fmt.Errorf("lock history: %w", err)
	}
	defer func() { _ = h.lock.Unlock() }()

	items := make([]Entry, 0, len(h.entries))
	for _, e := range h.entries {
		items = append(items, e)
	}
	slices.SortFunc(items, func(a, b Entry) int {
		if c := a.At.Compare(b.At); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	tmpPath := h.logPath + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open compacted history: %w", err)
	}
	enc := json.NewEncoder(file)
	for i := range items {
		if err := enc.Encode(event{Op: "put", Entry: &items[i]}); err != nil {
			_ = file.Close()
			return fmt.Errorf("write compacted history: %w", err)
		}
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("sync compacted history: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close compacted history: %w", err)
	}
	if err := os.Rename(tmpPath, h.logPath); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	h.ops = len(h.entries)
	return nil
}
