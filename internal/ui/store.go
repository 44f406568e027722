package ui

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/x/exp/ordered"

	"github.com/dotcommander/awsknow/internal/client"
	"github.com/dotcommander/awsknow/internal/storage"
	"github.com/dotcommander/awsknow/internal/storage/cache"
)

const stateKey = "ui"

// State is what the UI remembers between runs.
type State struct {
	BaseURL  string    `json:"base_url"`
	Endpoint string    `json:"endpoint"`
	LastUsed time.Time `json:"last_used"`
}

// Store keeps UI state, the request history and recorded response bodies
// under one directory.
type Store struct {
	state     *cache.Cache[State]
	responses *cache.Cache[string]
	history   *storage.History
}

// OpenStore opens or creates the store in dir.
func OpenStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("open ui store: empty state path")
	}
	state, err := cache.New[State](dir, cache.StateCache)
	if err != nil {
		return nil, fmt.Errorf("open ui store: %w", err)
	}
	responses, err := cache.New[string](dir, cache.ResponseCache)
	if err != nil {
		return nil, fmt.Errorf("open ui store: %w", err)
	}
	history, err := storage.Open(filepath.Join(dir, "history"))
	if err != nil {
		return nil, fmt.Errorf("open ui store: %w", err)
	}
	return &Store{state: state, responses: responses, history: history}, nil
}

// Close releases the history.
func (s *Store) Close() error {
	return s.history.Close()
}

// History exposes the request history.
func (s *Store) History() *storage.History {
	return s.history
}

// Last returns the remembered state, or the zero State.
func (s *Store) Last() State {
	st, err := s.state.Get(stateKey)
	if err != nil {
		return State{}
	}
	return st
}

// Remember saves the base URL and endpoint of in.
func (s *Store) Remember(in Input, at time.Time) error {
	prev := s.Last()
	return s.state.Put(stateKey, State{
		BaseURL:  in.BaseURL,
		Endpoint: ordered.First(in.Endpoint, prev.Endpoint),
		LastUsed: at,
	})
}

// Record adds a completed request to the history and keeps its body.
func (s *Store) Record(in Input, resp *client.Response) (storage.Entry, error) {
	e, err := s.history.Record(storage.Entry{
		Method:  resp.Request.Method,
		URL:     resp.Request.URL,
		Prompt:  promptOf(in),
		Status:  resp.Status,
		Elapsed: resp.Elapsed,
	})
	if err != nil {
		return storage.Entry{}, err
	}
	if err := s.responses.Put(e.ID, resp.PrettyBody()); err != nil {
		return e, fmt.Errorf("record response body: %w", err)
	}
	return e, nil
}

// Body returns the recorded body of the entry with the given ID.
func (s *Store) Body(id string) (string, error) {
	return s.responses.Get(id)
}

// Forget removes an entry and its body.
func (s *Store) Forget(id string) error {
	if err := s.history.Delete(id); err != nil {
		return err
	}
	return s.responses.Delete(id)
}

func promptOf(in Input) string {
	if in.Action != ActionSend {
		return ""
	}
	return in.Prompt
}
