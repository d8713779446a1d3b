package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/twitter/ice/common/errors"
	"github.com/twitter/ice/common/stats"
	"github.com/twitter/ice/demo"
	"github.com/twitter/ice/ice"
)

type demoCmd struct {
	requests  int
	timeout   time.Duration
	showStats bool
	async     bool
}

func (c *demoCmd) registerFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "demo [chain-config]",
		Short: "Run the root -> app -> handler demo with concurrent handler scopes",
		Args:  cobra.MaximumNArgs(1),
	}
	r.Flags().IntVar(&c.requests, "requests", 3, "number of concurrent handler scopes")
	r.Flags().DurationVar(&c.timeout, "timeout", time.Minute, "give up after this long")
	r.Flags().BoolVar(&c.showStats, "stats", false, "print resolver stats when done")
	r.Flags().BoolVar(&c.async, "async", false, "resolve on an async tree, required for async bindings such as db memory_async")
	return r
}

func (c *demoCmd) run(cl *simpleCLIClient, cmd *cobra.Command, args []string) error {
	chain, err := cl.chain(args)
	if err != nil {
		return err
	}
	stat := stats.NewStatsReceiver(stats.NewRegistry())

	ctx, cancel := context.WithTimeout(cl.ctx, c.timeout)
	defer cancel()
	run := demo.Run
	if c.async {
		run = demo.RunAsync
	}
	rep, err := run(ctx, chain, c.requests, ice.WithStats(stat))
	if rep.Config != nil {
		fmt.Fprintf(cl.out, "config: %v\n", rep.Config)
	}
	for _, line := range rep.Journal {
		fmt.Fprintln(cl.out, line)
	}
	if err != nil {
		return exitCode(err, errors.ReleaseFailureExitCode)
	}
	fmt.Fprintf(cl.out, "%d requests, %d commits\n", c.requests, rep.Commits)
	if c.showStats {
		fmt.Fprintf(cl.out, "%s\n", stat.Render(true))
	}
	return nil
}
