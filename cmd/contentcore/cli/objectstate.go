package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
)

func (c *CLI) objectState(ctx context.Context, sub string, args []string) int {
	states, err := c.Backend.ObjectStates(ctx)
	if err != nil {
		return c.fail("objectstate", err)
	}
	switch sub {
	case "groups":
		fs := c.flags("objectstate groups")
		offset := fs.Int("offset", 0, "first group")
		limit := fs.Int("limit", -1, "max groups, -1 for all")
		if err := fs.Parse(args); err != nil {
			return ExitUsage
		}
		groups, err := states.LoadAllGroups(ctx, *offset, *limit)
		if err != nil {
			return c.fail("objectstate groups", err)
		}
		tw := tabwriter.NewWriter(c.Stdout, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "ID\tIDENTIFIER\tNAME")
		for _, g := range groups {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", g.ID, g.Identifier, g.Names[g.DefaultLanguageCode])
		}
		_ = tw.Flush()
		return ExitOK
	case "states":
		fs := c.flags("objectstate states")
		groupID := fs.Int64("group", 0, "group id")
		if err := fs.Parse(args); err != nil || *groupID <= 0 {
			_, _ = fmt.Fprintln(c.Stderr, "objectstate states: -group is required and must be positive")
			return ExitUsage
		}
		list, err := states.LoadObjectStates(ctx, *groupID)
		if err != nil {
			return c.fail("objectstate states", err)
		}
		tw := tabwriter.NewWriter(c.Stdout, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "PRIORITY\tID\tIDENTIFIER")
		for _, s := range list {
			_, _ = fmt.Fprintf(tw, "%d\t%d\t%s\n", s.Priority, s.ID, s.Identifier)
		}
		_ = tw.Flush()
		return ExitOK
	case "set-priority":
		fs := c.flags("objectstate set-priority")
		stateID := fs.Int64("state", 0, "state id")
		priority := fs.Int("priority", 0, "new priority")
		if err := fs.Parse(args); err != nil || *stateID <= 0 {
			_, _ = fmt.Fprintln(c.Stderr, "objectstate set-priority: -state is required and must be positive")
			return ExitUsage
		}
		if err := states.SetPriority(ctx, *stateID, *priority); err != nil {
			return c.fail("objectstate set-priority", err)
		}
		_, _ = fmt.Fprintf(c.Stdout, "state %d moved to priority %d\n", *stateID, *priority)
		return ExitOK
	default:
		return c.unknown("objectstate", sub)
	}
}
