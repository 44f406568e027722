package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testHistory(tb testing.TB) *History {
	h, err := Open(":memory:")
	require.NoError(tb, err)
	tb.Cleanup(func() {
		require.NoError(tb, h.Close())
	})
	return h
}

func ask(prompt string, at time.Time) Entry {
	return Entry{
		Method: "POST",
		URL:    "http://127.0.0.1:8000/knowledge",
		Prompt: prompt,
		Status: 200,
		At:     at,
	}
}

func TestHistory(t *testing.T) {
	const testid = "df31ae23ab8b75b5643c2f846c570997"
	now := time.Now().UTC()

	t.Run("list empty", func(t *testing.T) {
		require.Empty(t, testHistory(t).List())
	})

	t.Run("record", func(t *testing.T) {
		h := testHistory(t)
		e, err := h.Record(ask("What is Amazon S3?", time.Time{}))
		require.NoError(t, err)
		require.Len(t, e.ID, 32)
		require.False(t, e.At.IsZero())

		found, err := h.Find(e.ID[:MinPrefixLen])
		require.NoError(t, err)
		require.Equal(t, "What is Amazon S3?", found.Title())
	})

	t.Run("record without url", func(t *testing.T) {
		_, err := testHistory(t).Record(Entry{Prompt: "x"})
		require.Error(t, err)
	})

	t.Run("record replaces same id", func(t *testing.T) {
		h := testHistory(t)
		e := ask("first", now)
		e.ID = testid
		_, err := h.Record(e)
		require.NoError(t, err)
		e.Status = 500
		_, err = h.Record(e)
		require.NoError(t, err)

		list := h.List()
		require.Len(t, list, 1)
		require.Equal(t, 500, list[0].Status)
	})

	t.Run("latest", func(t *testing.T) {
		h := testHistory(t)
		_, err := h.Latest()
		require.ErrorIs(t, err, ErrNoMatches)

		_, err = h.Record(ask("older", now.Add(-time.Hour)))
		require.NoError(t, err)
		newer, err := h.Record(ask("newer", now))
		require.NoError(t, err)

		latest, err := h.Latest()
		require.NoError(t, err)
		require.Equal(t, newer.ID, latest.ID)
	})

	t.Run("find", func(t *testing.T) {
		h := testHistory(t)
		for _, id := range []string{testid, "df31ae23ab9b75b5641c2f846c571000"} {
			e := ask(id, now)
			e.ID = id
			_, err := h.Record(e)
			require.NoError(t, err)
		}

		_, err := h.Find("df31ae")
		require.ErrorIs(t, err, ErrManyMatches)
		_, err = h.Find("df3")
		require.ErrorIs(t, err, ErrNoMatches)
		_, err = h.Find("ffff")
		require.ErrorIs(t, err, ErrNoMatches)

		e, err := h.Find("df31ae23ab8")
		require.NoError(t, err)
		require.Equal(t, testid, e.ID)
	})

	t.Run("title falls back to request line", func(t *testing.T) {
		e := Entry{Method: "GET", URL: "http://127.0.0.1:8000/docs"}
		require.Equal(t, "GET http://127.0.0.1:8000/docs", e.Title())
		require.Equal(t, "line one", Entry{Prompt: "  line one\nline two"}.Title())
	})

	t.Run("delete", func(t *testing.T) {
		h := testHistory(t)
		_, err := h.Record(ask("one", now))
		require.NoError(t, err)
		require.NoError(t, h.Delete(NewID()))
		require.Len(t, h.List(), 1)

		for _, e := range h.List() {
			require.NoError(t, h.Delete(e.ID))
		}
		require.Empty(t, h.List())
		require.Error(t, h.Delete(""))
	})

	t.Run("older than", func(t *testing.T) {
		h := testHistory(t)
		old, err := h.Record(ask("old", now.Add(-48*time.Hour)))
		require.NoError(t, err)
		_, err = h.Record(ask("fresh", now))
		require.NoError(t, err)

		got := h.OlderThan(24 * time.Hour)
		require.Len(t, got, 1)
		require.Equal(t, old.ID, got[0].ID)
	})

	t.Run("completions", func(t *testing.T) {
		h := testHistory(t)
		const id1 = "fc5012d8c67073ea0a46a3c05488a0e1"
		const id2 = "6c33f71694bf41a18c844a96d1f62f15"
		for id, prompt := range map[string]string{id1: "What is Amazon S3?", id2: "What is AWS Lambda?"} {
			e := ask(prompt, now)
			e.ID = id
			_, err := h.Record(e)
			require.NoError(t, err)
		}

		require.Equal(t, []string{ShortID(id1) + "\tWhat is Amazon S3?"}, h.Completions("f"))
		require.Equal(t, []string{id2 + "\tWhat is AWS Lambda?"}, h.Completions(id2[:ShortIDLen]))
		require.Len(t, h.Completions(""), 2)
	})

	t.Run("persists", func(t *testing.T) {
		dir := t.TempDir()
		h, err := Open(dir)
		require.NoError(t, err)
		e := ask("What is Amazon S3?", now)
		e.ID = testid
		_, err = h.Record(e)
		require.NoError(t, err)
		_, err = h.Record(ask("gone", now.Add(time.Minute)))
		require.NoError(t, err)
		latest, err := h.Latest()
		require.NoError(t, err)
		require.NoError(t, h.Delete(latest.ID))
		require.NoError(t, h.Close())

		reopened, err := Open(dir)
		require.NoError(t, err)
		list := reopened.List()
		require.Len(t, list, 1)
		require.Equal(t, testid, list[0].ID)

		_, err = os.Stat(filepath.Join(dir, logFileName))
		require.NoError(t, err)
	})

	t.Run("compacts", func(t *testing.T) {
		dir := t.TempDir()
		h, err := Open(dir)
		require.NoError(t, err)
		e := ask("same", now)
		e.ID = testid
		for range compactMinOps {
			_, err = h.Record(e)
			require.NoError(t, err)
		}
		require.Equal(t, 1, h.ops)

		data, err := os.ReadFile(filepath.Join(dir, logFileName))
		require.NoError(t, err)
		require.Equal(t, 1, countLines(data))
	})
}

func countLines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}

func TestShortID(t *testing.T) {
	require.Equal(t, "abc", ShortID("abc"))
	require.Equal(t, "0123abcd", ShortID("0123abcdef"))
	require.NotEqual(t, NewID(), NewID())
}
