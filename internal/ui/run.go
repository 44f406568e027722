package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/x/exp/ordered"

	"github.com/dotcommander/awsknow/internal/client"
	"github.com/dotcommander/awsknow/internal/config"
	"github.com/dotcommander/awsknow/internal/errs"
	"github.com/dotcommander/awsknow/internal/log"
	"github.com/dotcommander/awsknow/internal/present"
)

// Options configures Run.
type Options struct {
	Config config.UI
	// Store remembers state and history; nil disables both.
	Store *Store
	// Initial pre-fills the form, or is executed as-is when not interactive.
	Initial Input
	// Interactive shows the form and pager instead of printing one report.
	Interactive bool
	// Copy copies the response body of a successful request to the clipboard.
	Copy bool
	Out  io.Writer
}

// Run drives the UI until the user quits. Without Interactive it executes
// Initial once and prints the report.
func Run(ctx context.Context, opts Options) error {
	x := NewExecutor(opts.Config)
	in := opts.prefill()

	if !opts.Interactive {
		return runOnce(ctx, x, opts, in)
	}

	styles := present.StdoutStyles()
	for {
		last := opts.last()
		if err := newForm(&in, last, Theme(opts.Config.Theme)).RunWithContext(ctx); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return errs.Wrap(err, "Prompt failed.")
		}

		resp, err := executeWithSpinner(ctx, x, in)
		var report, body string
		if err != nil {
			report = ErrorReport(styles, in, err)
		} else {
			report = Report(styles, in, resp)
			body = string(resp.Body)
			opts.record(in, resp)
		}

		pg := newPager(styles, report, body)
		if _, err := tea.NewProgram(pg, tea.WithContext(ctx), tea.WithAltScreen()).Run(); err != nil {
			return errs.Wrap(err, "Couldn't start Bubble Tea program.")
		}
		if !pg.again {
			fmt.Fprint(opts.Out, report)
			return nil
		}
	}
}

func runOnce(ctx context.Context, x *Executor, opts Options, in Input) error {
	styles := present.StdoutStyles()
	if !present.IsOutputTTY() {
		styles = plainStyles()
	}
	resp, err := x.Execute(ctx, in)
	if err != nil {
		fmt.Fprint(opts.Out, ErrorReport(styles, in, err))
		return err
	}
	opts.record(in, resp)
	fmt.Fprint(opts.Out, Report(styles, in, resp))

	if opts.Copy && resp.Status < 300 {
		if err := copyToClipboard(string(resp.Body)); err != nil {
			return errs.Wrap(err, "Could not copy the response body.")
		}
	}
	return nil
}

func executeWithSpinner(ctx context.Context, x *Executor, in Input) (*client.Response, error) {
	var resp *client.Response
	var runErr error
	err := spinner.New().
		Title(fmt.Sprintf("%s %s…", in.Action, in.BaseURL)).
		Context(ctx).
		ActionWithErr(func(ctx context.Context) error {
			resp, runErr = x.Execute(ctx, in)
			return nil
		}).
		Run()
	if err != nil {
		return nil, err
	}
	return resp, runErr
}

func (o Options) last() State {
	if o.Store == nil {
		return State{}
	}
	return o.Store.Last()
}

func (o Options) prefill() Input {
	last := o.last()
	in := o.Initial
	in.BaseURL = ordered.First(in.BaseURL, last.BaseURL, o.Config.BaseURL)
	in.Endpoint = ordered.First(in.Endpoint, last.Endpoint, o.Config.Endpoint, Endpoints[0])
	in.Prompt = ordered.First(in.Prompt, DefaultPrompt)
	in.Action = ordered.First(in.Action, ActionSend)
	return in
}

// record saves the UI state and history entry for resp. Failures are logged.
func (o Options) record(in Input, resp *client.Response) {
	if o.Store == nil {
		return
	}
	if err := o.Store.Remember(in, time.Now()); err != nil {
		log.Warnf("remember ui state: %v", err)
	}
	if _, err := o.Store.Record(in, resp); err != nil {
		log.Warnf("record ui history: %v", err)
	}
}
