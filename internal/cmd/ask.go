package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"github.com/dotcommander/awsknow/internal/config"
	"github.com/dotcommander/awsknow/internal/errs"
	"github.com/dotcommander/awsknow/internal/log"
	"github.com/dotcommander/awsknow/internal/present"
)

const defaultAskPrompt = "What is AWS Lambda?"

type askOptions struct {
	tools    toolFlags
	raw      bool
	wordWrap int
}

func newAskCmd(rt *runtime) *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:     "ask [prompt]",
		Short:   "Ask one question without a server",
		Long:    "Connects to a tool endpoint, lists its tools, asks one question and prints the answer.",
		Example: "Ask a one-off question",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			prompt, err := askPrompt(pipedStdin(cmd.InOrStdin()), args)
			if err != nil {
				return err
			}
			return rt.ask(ctx, cmd.OutOrStdout(), prompt, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.tools.transport, "transport", "", "Use the first configured MCP server of this transport: stdio, http or sse")
	flags.StringVarP(&opts.tools.server, "server", "s", "", "Use the named MCP server")
	flags.StringVar(&opts.tools.command, "command", "", "Spawn this stdio MCP server, e.g. \"uvx awslabs.aws-documentation-mcp-server@latest\"")
	flags.StringVar(&opts.tools.url, "url", "", "Connect to this streamable HTTP MCP server")
	flags.BoolVar(&opts.tools.noTools, "no-tools", false, "Ask the model without tools")
	flags.BoolVarP(&opts.raw, "raw", "r", false, "Print the answer without markdown rendering")
	flags.IntVar(&opts.wordWrap, "word-wrap", 80, "Wrap rendered answers at this width")
	addModelFlags(flags, &rt.cfg)
	cmd.MarkFlagsMutuallyExclusive("transport", "server", "command", "url", "no-tools")
	flags.SortFlags = false

	_ = cmd.RegisterFlagCompletionFunc("server", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for name := range rt.cfg.EnabledServers() {
			names = append(names, name)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// askPrompt joins the arguments and the piped input, if any. The default
// question is used when both are empty.
func askPrompt(stdin io.Reader, args []string) (string, error) {
	piped, err := readStdin(stdin)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, 2)
	if arg := strings.TrimSpace(strings.Join(args, " ")); arg != "" {
		parts = append(parts, arg)
	}
	if piped != "" {
		parts = append(parts, piped)
	}
	if len(parts) == 0 {
		return defaultAskPrompt, nil
	}
	return strings.Join(parts, "\n\n"), nil
}

func (rt *runtime) ask(ctx context.Context, w io.Writer, prompt string, opts askOptions) error {
	src, err := resolveToolSource(rt.cfg, opts.tools)
	if err != nil {
		return err
	}

	var answer string
	run := func(ctx context.Context) error {
		boot, err := rt.startup(ctx, src, config.StartupAbort)
		if err != nil {
			return err
		}
		defer boot.Close() //nolint:errcheck

		ag := boot.newAgent()
		log.Debugf("asking %s with %d tools", boot.modelName(), len(ag.Tools().Tools))
		answer, err = ag.Run(ctx, prompt)
		if err != nil {
			return errs.Remote(err, "The model could not answer.")
		}
		return nil
	}

	if present.IsOutputTTY() && present.IsInputTTY() {
		err = spinner.New().
			Title(fmt.Sprintf("Asking %s…", rt.cfg.Model.ID)).
			Context(ctx).
			ActionWithErr(run).
			Run()
	} else {
		err = run(ctx)
	}
	if err != nil {
		return err
	}

	if present.IsOutputTTY() && !opts.raw {
		if out, err := present.RenderMarkdown(answer, opts.wordWrap); err == nil {
			answer = out
		}
	}
	_, err = fmt.Fprint(w, strings.TrimRight(answer, "\n")+"\n")
	return err
}
