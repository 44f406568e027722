package present

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Amazon S3\n\nObject storage.\tBuckets hold objects.\n", 80)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(out, "\n"))
	require.NotContains(t, out, "\t")
	require.Contains(t, out, "Object storage.")
}

func TestGradientText(t *testing.T) {
	require.Len(t, GradientRamp(5), 5)
	require.Equal(t, "ab", GradientText(StdoutStyles().AppName, "ab"))
	require.Contains(t, GradientText(StdoutStyles().AppName, "awsknow"), "w")
}

func TestConfirmation(t *testing.T) {
	var b strings.Builder
	PrintConfirmation(&b, "", "/tmp/awsknow.yml")
	require.Contains(t, b.String(), "WROTE")
	require.Contains(t, b.String(), "/tmp/awsknow.yml")
	require.True(t, strings.HasSuffix(b.String(), "\n"))

	require.Contains(t, Confirmation("copied", "answer"), "COPIED")
}
