package cmd

import (
	"math/rand"
	"regexp"

	"github.com/dotcommander/awsknow/internal/present"
)

var examples = map[string]string{
	"Serve the knowledge endpoint":       `AWS_REGION=us-east-1 awsknow serve --addr :8000`,
	"Ask a one-off question":             `awsknow ask "What is Amazon S3?" | glow`,
	"Pipe a question to the docs server": `echo "Compare SQS and SNS" | awsknow ask --transport stdio`,
	"Query a running service":            `awsknow ui --no-interactive --prompt "What is AWS Lambda?"`,
}

func randomExample() string {
	keys := make([]string, 0, len(examples))
	for k := range examples {
		keys = append(keys, k)
	}
	return keys[rand.Intn(len(keys))] //nolint:gosec
}

// exampleFor returns the command line for an example description, or the
// description itself when it is already a command line.
func exampleFor(desc string) string {
	if ex, ok := examples[desc]; ok {
		return ex
	}
	return desc
}

var (
	quoteRE = regexp.MustCompile(`"([^"\\]|\\.)*"`)
	pipeRE  = regexp.MustCompile(`\|`)
)

func cheapHighlighting(s present.Styles, code string) string {
	code = quoteRE.ReplaceAllStringFunc(code, func(x string) string {
		return s.Quote.Render(x)
	})
	return pipeRE.ReplaceAllStringFunc(code, func(x string) string {
		return s.Pipe.Render(x)
	})
}
