package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	timeago "github.com/caarlos0/timea.go"
	"github.com/charmbracelet/huh"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/dotcommander/awsknow/internal/errs"
	"github.com/dotcommander/awsknow/internal/present"
	"github.com/dotcommander/awsknow/internal/storage"
	"github.com/dotcommander/awsknow/internal/ui"
)

func newHistoryCmd(rt *runtime) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Manage requests recorded by the UI",
	}

	historyCmd.AddCommand(newHistoryListCmd(rt))
	historyCmd.AddCommand(newHistoryShowCmd(rt))
	historyCmd.AddCommand(newHistoryDeleteCmd(rt))
	historyCmd.AddCommand(newHistoryPruneCmd(rt))

	return historyCmd
}

// openStore opens the UI store for a history command.
func (rt *runtime) openStore() (*ui.Store, error) {
	if rt.cfgErr != nil {
		return nil, rt.cfgErr
	}
	store, err := ui.OpenStore(rt.cfg.UI.StatePath)
	if err != nil {
		return nil, errs.Wrap(err, "Could not open the request history.")
	}
	return store, nil
}

func newHistoryListCmd(rt *runtime) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := rt.openStore()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			entries := store.History().List()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No requests recorded.")
				return nil
			}
			if present.IsInputTTY() && present.IsOutputTTY() && !raw {
				return selectFromList(cmd.OutOrStdout(), entries)
			}
			printList(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&raw, "raw", "r", false, "Print a plain list instead of a picker")
	return cmd
}

func newHistoryShowCmd(rt *runtime) *cobra.Command {
	var last bool
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show the response body of a recorded request",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rt.openStore()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			var target string
			if len(args) == 1 {
				target = args[0]
			}
			return showEntry(cmd.OutOrStdout(), store, target, last)
		},
	}
	cmd.Flags().BoolVarP(&last, "last", "l", false, "Show the latest request")
	cmd.ValidArgsFunction = rt.completeEntries
	return cmd
}

func newHistoryDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:               "delete <id> [more...]",
		Short:             "Delete recorded requests",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: rt.completeEntries,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rt.openStore()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck
			return deleteEntries(cmd.ErrOrStderr(), store, args)
		},
	}
}

func newHistoryPruneCmd(rt *runtime) *cobra.Command {
	var (
		olderThan time.Duration
		yes       bool
	)
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete requests older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan == 0 {
				return errs.Wrap(errs.UserErrorf("missing --older-than"), "Could not delete old requests.")
			}
			store, err := rt.openStore()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck
			return pruneEntries(cmd.OutOrStdout(), cmd.ErrOrStderr(), store, olderThan, yes)
		},
	}
	cmd.Flags().Var(newDurationFlag(olderThan, &olderThan), "older-than", "Duration to prune; e.g. 24h, 7d")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	return cmd
}

func (rt *runtime) completeEntries(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	store, err := rt.openStore()
	if err != nil {
		return nil, cobra.ShellCompDirectiveDefault
	}
	defer store.Close() //nolint:errcheck
	return store.History().Completions(toComplete), cobra.ShellCompDirectiveNoFileComp
}

func findEntry(store *ui.Store, target string, last bool) (*storage.Entry, error) {
	if last || target == "" {
		e, err := store.History().Latest()
		if err != nil {
			return nil, errs.Wrap(err, "No requests recorded yet.")
		}
		return e, nil
	}
	e, err := store.History().Find(target)
	switch {
	case errors.Is(err, storage.ErrManyMatches):
		return nil, errs.Wrap(err, "More than one request matches; use a longer ID.")
	case err != nil:
		return nil, errs.Wrap(err, "Could not find the request.")
	}
	return e, nil
}

func showEntry(w io.Writer, store *ui.Store, target string, last bool) error {
	e, err := findEntry(store, target, last)
	if err != nil {
		return err
	}
	body, err := store.Body(e.ID)
	if err != nil {
		return errs.Wrap(err, "The response body of this request was not kept.")
	}

	s := present.StdoutStyles()
	fmt.Fprintf(w, "%s %s %s\n", s.ShortID.Render(storage.ShortID(e.ID)), e.Method, e.URL)
	fmt.Fprintln(w, s.Timeago.Render(fmt.Sprintf("%d in %s, %s", e.Status, e.Elapsed.Round(time.Millisecond), timeago.Of(e.At))))
	if e.Prompt != "" {
		fmt.Fprintln(w, s.Comment.Render("> "+strings.ReplaceAll(e.Prompt, "\n", "\n> ")))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, body)
	return nil
}

func deleteEntries(w io.Writer, store *ui.Store, targets []string) error {
	for _, target := range targets {
		e, err := findEntry(store, target, false)
		if err != nil {
			return err
		}
		if err := store.Forget(e.ID); err != nil {
			return errs.Wrap(err, "Could not delete the request.")
		}
		present.PrintConfirmation(w, "deleted", storage.ShortID(e.ID)+" "+e.Title())
	}
	return nil
}

func pruneEntries(out, errOut io.Writer, store *ui.Store, olderThan time.Duration, yes bool) error {
	entries := store.History().OlderThan(olderThan)
	if len(entries) == 0 {
		fmt.Fprintln(errOut, "No requests found.")
		return nil
	}

	if !yes {
		printList(out, entries)
		if !present.IsOutputTTY() || !present.IsInputTTY() {
			fmt.Fprintln(errOut)
			//nolint:wrapcheck
			return errs.UserErrorf(
				"To delete the requests above, run: %s",
				strings.Join(append(os.Args, "--yes"), " "),
			)
		}
		var confirm bool
		if err := huh.Run(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete requests older than %s?", olderThan)).
				Description(fmt.Sprintf("This will delete the %d requests listed above.", len(entries))).
				Value(&confirm),
		); err != nil {
			return errs.Wrap(err, "Couldn't delete old requests.")
		}
		if !confirm {
			//nolint:wrapcheck
			return errs.UserErrorf("Aborted by user")
		}
	}

	for _, e := range entries {
		if err := store.Forget(e.ID); err != nil {
			return errs.Wrap(err, "Couldn't delete old requests.")
		}
	}
	present.PrintConfirmation(errOut, "pruned", fmt.Sprintf("%d requests", len(entries)))
	return nil
}

func makeOptions(entries []storage.Entry) []huh.Option[string] {
	s := present.StdoutStyles()
	opts := make([]huh.Option[string], 0, len(entries))
	for _, e := range entries {
		left := s.ShortID.Render(storage.ShortID(e.ID))
		right := e.Title() + " " + s.Timeago.Render(timeago.Of(e.At))
		opts = append(opts, huh.NewOption(left+" "+right, e.ID))
	}
	return opts
}

func selectFromList(w io.Writer, entries []storage.Entry) error {
	var selected string
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Requests").
				Value(&selected).
				Options(makeOptions(entries)...),
		),
	).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return errs.Wrap(err, "Prompt failed.")
	}

	_ = clipboard.WriteAll(selected)
	termenv.Copy(selected)
	present.PrintConfirmation(w, "copied", selected)

	s := present.StdoutStyles()
	fmt.Fprintln(w, s.Comment.Render("You can use this request ID with the following commands:"))
	for _, c := range []string{
		"awsknow history show " + storage.ShortID(selected),
		"awsknow history delete " + storage.ShortID(selected),
	} {
		fmt.Fprintf(w, "  %s\n", s.InlineCode.Render(c))
	}
	return nil
}

func printList(w io.Writer, entries []storage.Entry) {
	s := present.StdoutStyles()
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			s.ShortID.Render(storage.ShortID(e.ID)),
			e.Status,
			e.Title(),
			s.Timeago.Render(timeago.Of(e.At)),
		)
	}
}
