package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ferry/cli/render"
	"github.com/pithecene-io/ferry/iox"
	"github.com/pithecene-io/ferry/poller"
	"github.com/pithecene-io/ferry/types"
)

// AwaitCommand returns the await command.
// It polls for the configured result object without uploading anything.
func AwaitCommand() *cli.Command {
	flags := append([]cli.Flag{}, OutputFlags()...)
	flags = append(flags, QuietFlag,
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Give up after this long (0 waits until interrupted)",
		},
	)
	flags = append(flags, ConfigFlags()...)

	return &cli.Command{
		Name:   "await",
		Usage:  "Wait for the processed result without uploading",
		Flags:  flags,
		Action: awaitAction,
	}
}

func awaitAction(c *cli.Context) error {
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

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout := c.Duration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	st, err := buildStore(ctx, cfg)
	if err != nil {
		return configExit(err)
	}
	defer iox.DiscardClose(st)

	collector := newCollector(cfg)
	p := poller.New(cfg.PollerConfig(), st, poller.WithLogger(logger), poller.WithMetrics(collector))

	target := cfg.Target()
	if !c.Bool(QuietFlag.Name) {
		fmt.Fprintf(errWriter(c), "waiting for %s every %s\n", target, cfg.Result.PollInterval.Duration.Round(time.Millisecond))
	}

	final := awaitState(p.Await(ctx, target))
	if err := r.Render(newSummary(final, collector.Snapshot())); err != nil {
		return err
	}
	return exitFor(final)
}

// awaitState maps a poll outcome onto the workflow's terminal states.
func awaitState(payload *types.ResultPayload, err error) types.WorkflowState {
	if err != nil {
		return types.WorkflowState{
			Kind:   types.StateFailed,
			Reason: types.Reason(err),
			Detail: err.Error(),
		}
	}
	return types.WorkflowState{
		Kind:     types.StateCompleted,
		Progress: 100,
		Result:   payload,
	}
}
