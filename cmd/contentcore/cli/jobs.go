package cli

import (
	"context"
	"fmt"
)

func (c *CLI) jobs(ctx context.Context, sub string, args []string) int {
	if sub != "orphan-cleanup" {
		return c.unknown("jobs", sub)
	}
	fs := c.flags("jobs orphan-cleanup")
	spiID := fs.String("spi-id", "", "storage id of the orphaned bytes")
	cause := fs.String("cause", "manual", "reason recorded with the task")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if *spiID == "" {
		_, _ = fmt.Fprintln(c.Stderr, "jobs orphan-cleanup: -spi-id is required")
		return ExitUsage
	}
	queue, err := c.Backend.Jobs(ctx)
	if err != nil {
		return c.fail("jobs orphan-cleanup", err)
	}
	info, err := queue.EnqueueOrphanCleanup(ctx, *spiID, *cause)
	if err != nil {
		return c.fail("jobs orphan-cleanup", err)
	}
	if info == nil {
		_, _ = fmt.Fprintf(c.Stdout, "cleanup for %s already pending\n", *spiID)
		return ExitOK
	}
	_, _ = fmt.Fprintf(c.Stdout, "enqueued %s on %s\n", info.ID, info.Queue)
	return ExitOK
}
