package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ferry/cli/render"
	"github.com/pithecene-io/ferry/cli/tui"
	"github.com/pithecene-io/ferry/iox"
	"github.com/pithecene-io/ferry/poller"
	"github.com/pithecene-io/ferry/transfer"
	"github.com/pithecene-io/ferry/types"
	"github.com/pithecene-io/ferry/workflow"
)

// SubmitCommand returns the submit command.
// It uploads one file and waits for the configured result object.
func SubmitCommand() *cli.Command {
	flags := append([]cli.Flag{}, OutputFlags()...)
	flags = append(flags, TUIFlag, QuietFlag,
		&cli.StringFlag{
			Name:  "content-type",
			Usage: "Content type recorded on the uploaded object",
		},
	)
	flags = append(flags, ConfigFlags()...)

	return &cli.Command{
		Name:      "submit",
		Usage:     "Upload a file and wait for its processed result",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action:    submitAction,
	}
}

func submitAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("submit requires exactly one file argument", exitConfig)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return configExit(err)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return configExit(err)
	}
	logger, err := newLogger(c, cfg)
	if err != nil {
		return configExit(err)
	}
	defer iox.DiscardErr(logger.Sync)

	path := c.Args().First()
	f, err := os.Open(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot open %s: %v", path, err), exitConfig)
	}
	defer iox.DiscardClose(f)
	info, err := f.Stat()
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot stat %s: %v", path, err), exitConfig)
	}
	if info.IsDir() {
		return cli.Exit(fmt.Sprintf("%s is a directory", path), exitConfig)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := buildStore(ctx, cfg)
	if err != nil {
		return configExit(err)
	}
	notifier, err := buildAdapter(cfg)
	if err != nil {
		return configExit(err)
	}

	collector := newCollector(cfg)
	opts := []workflow.Option{
		workflow.WithLogger(logger),
		workflow.WithMetrics(collector),
	}
	if notifier != nil {
		opts = append(opts, workflow.WithAdapter(notifier))
	}
	useTUI := c.Bool(TUIFlag.Name)
	if !useTUI && !c.Bool(QuietFlag.Name) {
		opts = append(opts, workflow.WithObserver(progressPrinter(errWriter(c))))
	}

	wf := workflow.New(
		workflow.Config{Target: cfg.Target()},
		transfer.New(cfg.TransferConfig(), st, transfer.WithLogger(logger), transfer.WithMetrics(collector)),
		poller.New(cfg.PollerConfig(), st, poller.WithLogger(logger), poller.WithMetrics(collector)),
		opts...,
	)
	defer iox.DiscardErr(func() error { return iox.CloseAll(wf, notifier, st) })

	req := &types.UploadRequest{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: c.String("content-type"),
		Body:        f,
	}
	if _, err := wf.Submit(ctx, req); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	if useTUI {
		if _, err := tui.Run(ctx, errWriter(c), req.Name, wf.Watch(), wf.Cancel); err != nil {
			wf.Cancel()
			logger.Warn("tui exited with error", map[string]any{"error": err.Error()})
		}
	}

	// The signal context only cancels the submission; always wait for its
	// terminal state so the summary reports it.
	final, err := wf.Wait(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	if err := r.Render(newSummary(final, collector.Snapshot())); err != nil {
		return err
	}
	return exitFor(final)
}

// progressPrinter writes one line per visible state change.
// Observers run on the submission goroutine, so last needs no lock.
func progressPrinter(w io.Writer) func(types.WorkflowState) {
	var last types.WorkflowState
	return func(s types.WorkflowState) {
		if s.Kind == last.Kind && s.Progress == last.Progress {
			return
		}
		last = s
		switch s.Kind {
		case types.StateUploading:
			fmt.Fprintf(w, "uploading %s: %d%%\n", s.File, s.Progress)
		case types.StateAwaitingResult:
			fmt.Fprintf(w, "uploaded to %s, waiting for result\n", s.Location)
		case types.StateCompleted:
			fmt.Fprintln(w, "result ready")
		case types.StateFailed:
			fmt.Fprintf(w, "failed: %s\n", s.Reason)
		}
	}
}
