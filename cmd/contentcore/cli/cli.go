// Package cli implements the contentcore operator commands.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/hibiken/asynq"

	"github.com/contentcore/contentcore/internal/fieldtype"
	"github.com/contentcore/contentcore/internal/ioservice"
	"github.com/contentcore/contentcore/internal/objectstate"
	"github.com/contentcore/contentcore/internal/role"
	"github.com/contentcore/contentcore/internal/shared"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitUsage    = 2
	ExitNotFound = 3
)

// Roles is the role service surface used by the CLI.
type Roles interface {
	LoadRoles(ctx context.Context) ([]role.Role, error)
	LoadRoleDraftByRoleID(ctx context.Context, roleID int64) (role.Role, error)
	PublishRoleDraft(ctx context.Context, draftID int64) error
	LoadRoleAssignmentsByRoleID(ctx context.Context, roleID int64) ([]role.Assignment, error)
}

// ObjectStates is the object state service surface used by the CLI.
type ObjectStates interface {
	LoadAllGroups(ctx context.Context, offset, limit int) ([]objectstate.Group, error)
	LoadObjectStates(ctx context.Context, groupID int64) ([]objectstate.State, error)
	SetPriority(ctx context.Context, stateID int64, priority int) error
}

// JobQueue enqueues maintenance tasks.
type JobQueue interface {
	EnqueueOrphanCleanup(ctx context.Context, spiID, cause string) (*asynq.TaskInfo, error)
}

// Backend opens the services a command needs. Implementations connect lazily
// so that commands only touch what they use.
type Backend interface {
	Roles(ctx context.Context) (Roles, error)
	ObjectStates(ctx context.Context) (ObjectStates, error)
	Files(ctx context.Context) (ioservice.IOService, error)
	Jobs(ctx context.Context) (JobQueue, error)
	ApplySchema(ctx context.Context) error
}

// CLI dispatches subcommands.
type CLI struct {
	Backend    Backend
	FieldTypes *fieldtype.Registry
	Stdout     io.Writer
	Stderr     io.Writer
}

const usage = `usage: contentcore <command> <subcommand> [flags]

commands:
  schema apply
  role list | draft -role ID | publish -draft ID | assignments -role ID
  objectstate groups | states -group ID | set-priority -state ID -priority N
  io stat -id ID | put -id ID -file PATH | rm -id ID
  jobs orphan-cleanup -spi-id ID
  fieldtype resolve -id IDENTIFIER
`

// Run executes args (without the program name) and returns the exit code.
func (c *CLI) Run(ctx context.Context, args []string) int {
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if len(args) < 2 {
		_, _ = fmt.Fprint(c.Stderr, usage)
		return ExitUsage
	}
	cmd, sub, rest := args[0], args[1], args[2:]
	var run func(context.Context, string, []string) int
	switch cmd {
	case "schema":
		run = c.schema
	case "role":
		run = c.role
	case "objectstate":
		run = c.objectState
	case "io":
		run = c.files
	case "jobs":
		run = c.jobs
	case "fieldtype":
		run = c.fieldType
	default:
		_, _ = fmt.Fprintf(c.Stderr, "unknown command %q\n%s", cmd, usage)
		return ExitUsage
	}
	return run(ctx, sub, rest)
}

func (c *CLI) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.Stderr)
	return fs
}

func (c *CLI) unknown(cmd, sub string) int {
	_, _ = fmt.Fprintf(c.Stderr, "%s: unknown subcommand %q\n%s", cmd, sub, usage)
	return ExitUsage
}

// fail prints err and maps it onto an exit code.
func (c *CLI) fail(cmd string, err error) int {
	_, _ = fmt.Fprintf(c.Stderr, "%s: %v\n", cmd, err)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, shared.ErrInvalidArgument):
		return ExitUsage
	default:
		return ExitError
	}
}

func (c *CLI) emitJSON(cmd string, v any) int {
	enc := json.NewEncoder(c.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_, _ = fmt.Fprintf(c.Stderr, "%s: encode json: %v\n", cmd, err)
		return ExitError
	}
	return ExitOK
}

func (c *CLI) schema(ctx context.Context, sub string, args []string) int {
	if sub != "apply" {
		return c.unknown("schema", sub)
	}
	if err := c.Backend.ApplySchema(ctx); err != nil {
		return c.fail("schema apply", err)
	}
	_, _ = fmt.Fprintln(c.Stdout, "schema applied")
	return ExitOK
}

func (c *CLI) fieldType(_ context.Context, sub string, args []string) int {
	if sub != "resolve" {
		return c.unknown("fieldtype", sub)
	}
	fs := c.flags("fieldtype resolve")
	id := fs.String("id", "", "field type identifier or legacy alias")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if c.FieldTypes == nil {
		_, _ = fmt.Fprintln(c.Stderr, "fieldtype resolve: no registry configured")
		return ExitError
	}
	ft, err := c.FieldTypes.Get(*id)
	if err != nil {
		return c.fail("fieldtype resolve", err)
	}
	_, _ = fmt.Fprintln(c.Stdout, ft.Identifier())
	return ExitOK
}
