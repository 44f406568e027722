package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"

	"github.com/dotcommander/awsknow/internal/errs"
	"github.com/dotcommander/awsknow/internal/present"
)

func handleError(w io.Writer, err error) {
	maybeWriteMemProfile()
	drainStdin()

	s := present.StderrStyles()
	format := "\n%s\n\n"

	var ferr flagParseError
	if errors.As(err, &ferr) {
		fmt.Fprintf(w, format+"%s\n\n",
			fmt.Sprintf(
				"Check out %s %s",
				s.InlineCode.Render("awsknow -h"),
				s.Comment.Render("for help."),
			),
			fmt.Sprintf(ferr.ReasonFormat(), s.InlineCode.Render(ferr.Flag())),
		)
		return
	}

	var merr errs.Error
	if errors.As(err, &merr) && merr.Reason != "" {
		args := []any{s.ErrPadding.Render(s.ErrorHeader.String(), merr.Reason)}
		if !errors.Is(merr.Err, huh.ErrUserAborted) && merr.Err != nil {
			format += "%s\n\n"
			args = append(args, s.ErrPadding.Render(s.ErrorDetails.Render(err.Error())))
		}
		if errs.KindOf(err) == errs.KindInit {
			format += "%s\n\n"
			args = append(args, s.ErrPadding.Render(fmt.Sprintf(
				"Review the effective settings with %s %s",
				s.InlineCode.Render("awsknow config show"),
				s.Comment.Render("or start with --on-startup-error continue."),
			)))
		}
		fmt.Fprintf(w, format, args...)
		return
	}

	fmt.Fprintf(w, format, s.ErrPadding.Render(s.ErrorDetails.Render(err.Error())))
}
