package log

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(LevelInfo) })

	for _, tc := range []struct {
		in   string
		want string
	}{
		{LevelDebug, "debug"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LevelFatal, "fatal"},
		{"nonsense", "info"},
		{LevelInfo, "info"},
	} {
		SetLevel(tc.in)
		require.Equal(t, tc.want, Level(), tc.in)
	}
}

func TestHelpersUseDefault(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	orig := Default
	Default = zap.New(core).Sugar()
	t.Cleanup(func() { Default = orig })

	Infof("model %s ready", "claude")
	Warnf("tools unavailable: %v", "timeout")
	Infow("request", "status", 200)

	entries := logs.All()
	require.Len(t, entries, 3)
	require.Equal(t, "model claude ready", entries[0].Message)
	require.Equal(t, "tools unavailable: timeout", entries[1].Message)
	require.Equal(t, int64(200), entries[2].ContextMap()["status"])
}
