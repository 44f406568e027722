package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dotcommander/awsknow/internal/errs"
	"github.com/dotcommander/awsknow/internal/present"
	"github.com/dotcommander/awsknow/internal/ui"
)

func newUICmd(rt *runtime) *cobra.Command {
	var (
		in            ui.Input
		action        string
		copyBody      bool
		noInteractive bool
	)
	cmd := &cobra.Command{
		Use:     "ui",
		Short:   "Send requests to a running service from a terminal form",
		Args:    cobra.NoArgs,
		Example: "Query a running service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			in.Action = ui.Action(action)
			if err := validAction(in.Action); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := ui.OpenStore(rt.cfg.UI.StatePath)
			if err != nil {
				return errs.Wrap(err, "Could not open the UI state.")
			}
			defer store.Close() //nolint:errcheck

			return ui.Run(ctx, ui.Options{
				Config:      rt.cfg.UI,
				Store:       store,
				Initial:     in,
				Interactive: !noInteractive && present.IsInputTTY() && present.IsOutputTTY(),
				Copy:        copyBody,
				Out:         cmd.OutOrStdout(),
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&in.BaseURL, "base-url", "u", "", help("ui.base-url"))
	flags.StringVarP(&in.Endpoint, "endpoint", "e", "", help("ui.endpoint"))
	flags.StringVarP(&in.Prompt, "prompt", "p", "", "Question sent to the endpoint")
	flags.StringVar(&action, "action", string(ui.ActionSend), "What to do: send, probe-root or probe-docs")
	flags.BoolVarP(&copyBody, "copy", "c", false, "Copy the response body to the clipboard")
	flags.BoolVar(&noInteractive, "no-interactive", false, "Run once with the given values and print the result")
	flags.StringVar(&rt.cfg.UI.Theme, "theme", rt.cfg.UI.Theme, help("ui.theme"))
	flags.Var(newDurationFlag(rt.cfg.UI.RequestTimeout, &rt.cfg.UI.RequestTimeout), "request-timeout", help("ui.request-timeout"))
	flags.Var(newDurationFlag(rt.cfg.UI.ProbeTimeout, &rt.cfg.UI.ProbeTimeout), "probe-timeout", help("ui.probe-timeout"))
	flags.SortFlags = false

	_ = cmd.RegisterFlagCompletionFunc("action", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{string(ui.ActionSend), string(ui.ActionProbeRoot), string(ui.ActionProbeDocs)}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("endpoint", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return ui.Endpoints, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func validAction(a ui.Action) error {
	switch a {
	case ui.ActionSend, ui.ActionProbeRoot, ui.ActionProbeDocs:
		return nil
	}
	return errs.Wrap(
		fmt.Errorf("unknown action %q", a),
		"Action must be send, probe-root or probe-docs.",
	)
}
