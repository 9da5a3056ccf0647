package cli

import (
	"context"
	"fmt"
)

func (c *CLI) files(ctx context.Context, sub string, args []string) int {
	files, err := c.Backend.Files(ctx)
	if err != nil {
		return c.fail("io", err)
	}
	fs := c.flags("io " + sub)
	id := fs.String("id", "", "binary file id")
	var path *string
	if sub == "put" {
		path = fs.String("file", "", "local file to store")
	}
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if *id == "" {
		_, _ = fmt.Fprintf(c.Stderr, "io %s: -id is required\n", sub)
		return ExitUsage
	}

	switch sub {
	case "stat":
		f, err := files.LoadBinaryFile(ctx, *id)
		if err != nil {
			return c.fail("io stat", err)
		}
		if f.Missing {
			_, _ = fmt.Fprintf(c.Stdout, "%s\tmissing\t%s\n", f.ID, f.URI)
			return ExitNotFound
		}
		_, _ = fmt.Fprintf(c.Stdout, "%s\t%d\t%s\t%s\n", f.ID, f.Size, f.MimeType, f.URI)
		return ExitOK
	case "put":
		if *path == "" {
			_, _ = fmt.Fprintln(c.Stderr, "io put: -file is required")
			return ExitUsage
		}
		cs, err := files.NewBinaryCreateStructFromLocalFile(ctx, *path)
		if err != nil {
			return c.fail("io put", err)
		}
		if closer, ok := cs.InputStream.(interface{ Close() error }); ok {
			defer closer.Close()
		}
		cs.ID = *id
		f, err := files.CreateBinaryFile(ctx, cs)
		if err != nil {
			return c.fail("io put", err)
		}
		_, _ = fmt.Fprintf(c.Stdout, "stored %s (%d bytes, %s)\n", f.ID, f.Size, f.MimeType)
		return ExitOK
	case "rm":
		f, err := files.LoadBinaryFile(ctx, *id)
		if err != nil {
			return c.fail("io rm", err)
		}
		if err := files.DeleteBinaryFile(ctx, f); err != nil {
			return c.fail("io rm", err)
		}
		_, _ = fmt.Fprintf(c.Stdout, "deleted %s\n", *id)
		return ExitOK
	default:
		return c.unknown("io", sub)
	}
}
