package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/triage/internal/presentation/tui"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/muesli/termenv"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	SessionID  string
	JSON       bool
	ExitOnHalt bool
	Fresh      bool // delete the stored session before starting
	Plain      bool // no banner, colors or markdown even on a terminal
}

// RunSession walks one session on in/out until the user exits or ctx is done.
// On a terminal the output gets the banner, chat colors and markdown rendering.
func RunSession(ctx context.Context, app *App, opts RunOptions, in io.Reader, out io.Writer) error {
	if opts.Fresh && opts.SessionID != "" {
		if err := app.Manager.Delete(ctx, opts.SessionID); err != nil {
			return fmt.Errorf("reset session: %w", err)
		}
	}

	var handler runner.IOHandler
	if opts.JSON {
		h := runner.NewJSONHandler(out,
			runner.WithJSONHandlerReader(in),
			runner.WithJSONHandlerMaxInputSize(app.Config.MaxInputSize),
		)
		defer h.Close()
		handler = h
	} else {
		textOpts := []runner.TextHandlerOption{
			runner.WithTextHandlerReader(in),
			runner.WithTextHandlerMaxInputSize(app.Config.MaxInputSize),
		}
		if !opts.Plain && isTerminalWriter(out) {
			tui.PrintBanner(out, app.Config.Title)
			textOpts = append(textOpts, runner.WithTextHandlerTheme(tui.NewTheme(termenv.ColorProfile())))
			if render, err := tui.NewRenderer(); err == nil {
				textOpts = append(textOpts, runner.WithTextHandlerRenderer(render))
			} else {
				app.Logger.Warn("Markdown rendering disabled", "err", err)
			}
		}
		h := runner.NewTextHandler(out, textOpts...)
		defer h.Close()
		handler = h
	}

	runnerOpts := []runner.Option{
		runner.WithLogger(app.Logger),
		runner.WithInputHandler(handler),
		runner.WithSessionManager(app.Manager),
		runner.WithExitOnHalt(opts.ExitOnHalt),
	}
	if opts.SessionID != "" {
		runnerOpts = append(runnerOpts, runner.WithSessionID(opts.SessionID))
	}
	r := runner.NewRunner(app.Engine.Controller(), runnerOpts...)
	app.Logger.Info("Session active", "session_id", r.SessionID)

	state, err := r.Run(ctx)

	if !opts.JSON {
		var sig os.Signal
		if sc, ok := ctx.(*SignalContext); ok {
			sig = sc.Signal()
		}
		logCompletion(out, state, err, sig)
	}
	return handleExecutionError(err)
}
