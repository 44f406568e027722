package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dotcommander/awsknow/internal/present"
)

const maxStdinBytes = 1 << 20

func drainStdin() {
	if present.IsInputTTY() {
		return
	}
	_, _ = io.Copy(io.Discard, os.Stdin)
}

// pipedStdin returns stdin when input is piped, nil when it is a terminal.
func pipedStdin(stdin io.Reader) io.Reader {
	if present.IsInputTTY() {
		return nil
	}
	return stdin
}

// readStdin returns the trimmed input of r. A nil r yields "".
func readStdin(r io.Reader) (string, error) {
	if r == nil {
		return "", nil
	}
	bts, err := io.ReadAll(io.LimitReader(r, maxStdinBytes))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(bts)), nil
}
