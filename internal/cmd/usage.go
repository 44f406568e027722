package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/dotcommander/awsknow/internal/present"
)

func useLine(cmd *cobra.Command) string {
	appName := cmd.Root().Name()
	if present.StdoutRenderer().ColorProfile() == termenv.TrueColor {
		appName = present.GradientText(present.StdoutStyles().AppName, appName)
	}
	rest := strings.TrimPrefix(cmd.UseLine(), cmd.Root().Name())
	if cmd.HasAvailableSubCommands() && !cmd.Runnable() {
		rest = strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name()) + " [COMMAND]"
	}
	return appName + present.StdoutStyles().CliArgs.Render(rest)
}

func usageFunc(cmd *cobra.Command) error {
	s := present.StdoutStyles()
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Usage:\n  %s\n\n", useLine(cmd))

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintln(w, "Commands:")
		for _, c := range cmd.Commands() {
			if !c.IsAvailableCommand() {
				continue
			}
			fmt.Fprintf(w, "  %-30s %s\n", s.Flag.Render(c.Name()), s.FlagDesc.Render(c.Short))
		}
		fmt.Fprintln(w)
	}

	if cmd.HasAvailableLocalFlags() {
		fmt.Fprintln(w, "Options:")
		printFlags(w, s, cmd.LocalFlags())
	}
	if cmd.HasAvailableInheritedFlags() {
		fmt.Fprintln(w, "\nGlobal options:")
		printFlags(w, s, cmd.InheritedFlags())
	}

	if cmd.HasExample() {
		fmt.Fprintf(w, "\nExample:\n  %s\n  %s\n",
			s.Comment.Render("# "+cmd.Example),
			cheapHighlighting(s, exampleFor(cmd.Example)),
		)
	}
	return nil
}

func printFlags(w io.Writer, s present.Styles, flags *flag.FlagSet) {
	flags.VisitAll(func(f *flag.Flag) {
		if f.Hidden {
			return
		}
		if f.Shorthand == "" {
			fmt.Fprintf(w, "  %-44s %s\n", s.Flag.Render("--"+f.Name), s.FlagDesc.Render(f.Usage))
			return
		}
		fmt.Fprintf(w, "  %s%s %-40s %s\n",
			s.Flag.Render("-"+f.Shorthand),
			s.FlagComma,
			s.Flag.Render("--"+f.Name),
			s.FlagDesc.Render(f.Usage),
		)
	})
}
