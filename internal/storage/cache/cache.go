// Package cache stores small JSON documents as files, one per ID.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Type names a cache subdirectory.
type Type string

// Cache types.
const (
	// StateCache holds UI state such as the last base URL used.
	StateCache Type = "state"
	// ResponseCache holds response bodies recorded by the UI, sharded by the
	// first two characters of the ID.
	ResponseCache Type = "responses"
)

const (
	cacheExt       = ".json"
	shardPrefixLen = 2
)

var (
	errInvalidID = errors.New("invalid id")
	// ErrNotFound is returned by Get when nothing is stored under the ID.
	ErrNotFound = errors.New("not found")
)

// Cache stores values of type T as JSON files.
type Cache[T any] struct {
	dir     string
	sharded bool
}

// New creates the cache directory for typ under baseDir.
func New[T any](baseDir string, typ Type) (*Cache[T], error) {
	dir := filepath.Join(baseDir, string(typ))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Cache[T]{dir: dir, sharded: typ == ResponseCache}, nil
}

func (c *Cache[T]) path(id string) string {
	if !c.sharded || len(id) < shardPrefixLen {
		return filepath.Join(c.dir, id+cacheExt)
	}
	return filepath.Join(c.dir, id[:shardPrefixLen], id+cacheExt)
}

// Get decodes the value stored under id.
func (c *Cache[T]) Get(id string) (T, error) {
	var v T
	if id == "" {
		return v, fmt.Errorf("get: %w", errInvalidID)
	}
	data, err := os.ReadFile(c.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return v, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return v, fmt.Errorf("get: %w", err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("get %s: decode: %w", id, err)
	}
	return v, nil
}

// Put stores v under id, replacing the file atomically.
func (c *Cache[T]) Put(id string, v T) error {
	if id == "" {
		return fmt.Errorf("put: %w", errInvalidID)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("put: encode: %w", err)
	}

	path := c.path(id)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("put: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("put: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("put: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("put: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("put: %w", err)
	}
	return nil
}

// Delete removes the value stored under id. Deleting a missing ID is not an
// error.
func (c *Cache[T]) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("delete: %w", errInvalidID)
	}
	if err := os.Remove(c.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}
