package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
)

type roleSummary struct {
	ID         int64  `json:"id"`
	Identifier string `json:"identifier"`
	State      string `json:"state"`
	Policies   int    `json:"policies"`
}

func (c *CLI) role(ctx context.Context, sub string, args []string) int {
	roles, err := c.Backend.Roles(ctx)
	if err != nil {
		return c.fail("role", err)
	}
	switch sub {
	case "list":
		fs := c.flags("role list")
		asJSON := fs.Bool("json", false, "print JSON")
		if err := fs.Parse(args); err != nil {
			return ExitUsage
		}
		list, err := roles.LoadRoles(ctx)
		if err != nil {
			return c.fail("role list", err)
		}
		out := make([]roleSummary, 0, len(list))
		for _, r := range list {
			out = append(out, roleSummary{ID: r.ID, Identifier: r.Identifier, State: r.State.String(), Policies: len(r.Policies)})
		}
		if *asJSON {
			return c.emitJSON("role list", out)
		}
		tw := tabwriter.NewWriter(c.Stdout, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "ID\tIDENTIFIER\tSTATE\tPOLICIES")
		for _, r := range out {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", r.ID, r.Identifier, r.State, r.Policies)
		}
		_ = tw.Flush()
		return ExitOK
	case "draft":
		fs := c.flags("role draft")
		roleID := fs.Int64("role", 0, "published role id")
		if err := fs.Parse(args); err != nil || *roleID <= 0 {
			_, _ = fmt.Fprintln(c.Stderr, "role draft: -role is required and must be positive")
			return ExitUsage
		}
		draft, err := roles.LoadRoleDraftByRoleID(ctx, *roleID)
		if err != nil {
			return c.fail("role draft", err)
		}
		_, _ = fmt.Fprintf(c.Stdout, "draft %d of role %d (%s)\n", draft.ID, *roleID, draft.Identifier)
		for _, p := range draft.Policies {
			_, _ = fmt.Fprintf(c.Stdout, "  %s/%s %s\n", p.Module, p.Function, p.Limitations)
		}
		return ExitOK
	case "publish":
		fs := c.flags("role publish")
		draftID := fs.Int64("draft", 0, "role draft id")
		if err := fs.Parse(args); err != nil || *draftID <= 0 {
			_, _ = fmt.Fprintln(c.Stderr, "role publish: -draft is required and must be positive")
			return ExitUsage
		}
		if err := roles.PublishRoleDraft(ctx, *draftID); err != nil {
			return c.fail("role publish", err)
		}
		_, _ = fmt.Fprintf(c.Stdout, "published draft %d\n", *draftID)
		return ExitOK
	case "assignments":
		fs := c.flags("role assignments")
		roleID := fs.Int64("role", 0, "role id")
		if err := fs.Parse(args); err != nil || *roleID <= 0 {
			_, _ = fmt.Fprintln(c.Stderr, "role assignments: -role is required and must be positive")
			return ExitUsage
		}
		list, err := roles.LoadRoleAssignmentsByRoleID(ctx, *roleID)
		if err != nil {
			return c.fail("role assignments", err)
		}
		for _, a := range list {
			limitation := "-"
			if a.LimitationIdentifier != "" {
				limitation = a.LimitationIdentifier + "=" + strings.Join(a.Values, ",")
			}
			_, _ = fmt.Fprintf(c.Stdout, "%d\tcontent %d\t%s\n", a.ID, a.ContentID, limitation)
		}
		return ExitOK
	default:
		return c.unknown("role", sub)
	}
}
