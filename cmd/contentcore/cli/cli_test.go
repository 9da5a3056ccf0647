package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentcore/contentcore/internal/fieldtype"
	"github.com/contentcore/contentcore/internal/fieldtype/image"
	"github.com/contentcore/contentcore/internal/ioservice"
	"github.com/contentcore/contentcore/internal/ioservice/filesystem"
	"github.com/contentcore/contentcore/internal/objectstate"
	"github.com/contentcore/contentcore/internal/role"
	"github.com/contentcore/contentcore/internal/shared"
)

type stubRoles struct {
	roles     []role.Role
	published []int64
}

func (s *stubRoles) LoadRoles(context.Context) ([]role.Role, error) { return s.roles, nil }

func (s *stubRoles) LoadRoleDraftByRoleID(_ context.Context, roleID int64) (role.Role, error) {
	for _, r := range s.roles {
		if r.State.IsDraft() && r.OriginalID() == roleID {
			return r, nil
		}
	}
	return role.Role{}, shared.NewNotFound("Role draft", roleID)
}

func (s *stubRoles) PublishRoleDraft(_ context.Context, draftID int64) error {
	s.published = append(s.published, draftID)
	return nil
}

func (s *stubRoles) LoadRoleAssignmentsByRoleID(context.Context, int64) ([]role.Assignment, error) {
	return []role.Assignment{
		{ID: 1, RoleID: 5, ContentID: 14},
		{ID: 2, RoleID: 5, ContentID: 42, LimitationIdentifier: "Subtree", Values: []string{"/1/2/"}},
	}, nil
}

type stubStates struct {
	moved map[int64]int
}

func (s *stubStates) LoadAllGroups(context.Context, int, int) ([]objectstate.Group, error) {
	return []objectstate.Group{{ID: 2, Identifier: "ibexa_lock", DefaultLanguageCode: "eng-GB", Names: map[string]string{"eng-GB": "Lock"}}}, nil
}

func (s *stubStates) LoadObjectStates(context.Context, int64) ([]objectstate.State, error) {
	return []objectstate.State{{ID: 1, Identifier: "not_locked", Priority: 0}, {ID: 2, Identifier: "locked", Priority: 1}}, nil
}

func (s *stubStates) SetPriority(_ context.Context, stateID int64, priority int) error {
	if stateID == 99 {
		return shared.NewNotFound("ObjectState", stateID)
	}
	s.moved[stateID] = priority
	return nil
}

type stubQueue struct {
	enqueued []string
}

func (s *stubQueue) EnqueueOrphanCleanup(_ context.Context, spiID, _ string) (*asynq.TaskInfo, error) {
	s.enqueued = append(s.enqueued, spiID)
	return &asynq.TaskInfo{ID: "orphan:" + spiID, Queue: "io"}, nil
}

type stubBackend struct {
	roles     *stubRoles
	states    *stubStates
	files     ioservice.IOService
	queue     *stubQueue
	schemaErr error
	applied   bool
}

func (b *stubBackend) Roles(context.Context) (Roles, error)               { return b.roles, nil }
func (b *stubBackend) ObjectStates(context.Context) (ObjectStates, error) { return b.states, nil }
func (b *stubBackend) Files(context.Context) (ioservice.IOService, error) { return b.files, nil }
func (b *stubBackend) Jobs(context.Context) (JobQueue, error)             { return b.queue, nil }
func (b *stubBackend) ApplySchema(context.Context) error {
	b.applied = true
	return b.schemaErr
}

func newTestCLI(t *testing.T) (*CLI, *stubBackend, afero.Fs, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	storage := afero.NewMemMapFs()
	local := afero.NewMemMapFs()
	files := ioservice.NewService(
		filesystem.NewMetadataHandler(storage, "var", ioservice.Detector{}),
		filesystem.NewBinarydataHandler(storage, "var", "/var"),
		ioservice.WithLocalFs(local),
	)
	registry, err := fieldtype.NewRegistry(fieldtype.NewAliasRegistry(fieldtype.DefaultAliases()), image.Type{})
	require.NoError(t, err)

	backend := &stubBackend{
		roles: &stubRoles{roles: []role.Role{
			{ID: 5, Identifier: "editor", State: role.Published(), Policies: []role.Policy{{Module: "content", Function: "read"}}},
			{ID: 9, Identifier: "editor", State: role.Draft(5), Policies: []role.Policy{{Module: "content", Function: "read"}, {Module: "content", Function: "edit"}}},
		}},
		states: &stubStates{moved: map[int64]int{}},
		files:  files,
		queue:  &stubQueue{},
	}
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	return &CLI{Backend: backend, FieldTypes: registry, Stdout: stdout, Stderr: stderr}, backend, local, stdout, stderr
}

func TestRunUsage(t *testing.T) {
	cli, _, _, _, stderr := newTestCLI(t)
	assert.Equal(t, ExitUsage, cli.Run(context.Background(), nil))
	assert.Contains(t, stderr.String(), "usage: contentcore")
	assert.Equal(t, ExitUsage, cli.Run(context.Background(), []string{"nope", "x"}))
	assert.Equal(t, ExitUsage, cli.Run(context.Background(), []string{"role", "x"}))
}

func TestRoleCommands(t *testing.T) {
	cli, backend, _, stdout, _ := newTestCLI(t)
	ctx := context.Background()

	require.Equal(t, ExitOK, cli.Run(ctx, []string{"role", "list"}))
	assert.Contains(t, stdout.String(), "draft(of 5)")

	stdout.Reset()
	require.Equal(t, ExitOK, cli.Run(ctx, []string{"role", "list", "-json"}))
	assert.Contains(t, stdout.String(), `"identifier": "editor"`)

	stdout.Reset()
	require.Equal(t, ExitOK, cli.Run(ctx, []string{"role", "draft", "-role", "5"}))
	assert.Contains(t, stdout.String(), "content/edit *")
	assert.Equal(t, ExitNotFound, cli.Run(ctx, []string{"role", "draft", "-role", "7"}))

	require.Equal(t, ExitOK, cli.Run(ctx, []string{"role", "publish", "-draft", "9"}))
	assert.Equal(t, []int64{9}, backend.roles.published)
	assert.Equal(t, ExitUsage, cli.Run(ctx, []string{"role", "publish"}))

	stdout.Reset()
	require.Equal(t, ExitOK, cli.Run(ctx, []string{"role", "assignments", "-role", "5"}))
	assert.Contains(t, stdout.String(), "Subtree=/1/2/")
}

func TestObjectStateCommands(t *testing.T) {
	cli, backend, _, stdout, _ := newTestCLI(t)
	ctx := context.Background()

	require.Equal(t, ExitOK, cli.Run(ctx, []string{"objectstate", "groups"}))
	assert.Contains(t, stdout.String(), "ibexa_lock")

	stdout.Reset()
	require.Equal(t, ExitOK, cli.Run(ctx, []string{"objectstate", "states", "-group", "2"}))
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "locked")

	require.Equal(t, ExitOK, cli.Run(ctx, []string{"objectstate", "set-priority", "-state", "2", "-priority", "0"}))
	assert.Equal(t, map[int64]int{2: 0}, backend.states.moved)
	assert.Equal(t, ExitNotFound, cli.Run(ctx, []string{"objectstate", "set-priority", "-state", "99", "-priority", "0"}))
}

func TestIOCommands(t *testing.T) {
	cli, _, local, stdout, stderr := newTestCLI(t)
	ctx := context.Background()
	require.NoError(t, afero.WriteFile(local, "/tmp/readme.txt", []byte("hello world"), 0o644))

	require.Equal(t, ExitOK, cli.Run(ctx, []string{"io", "put", "-id", "original/readme.txt", "-file", "/tmp/readme.txt"}), stderr.String())
	assert.Contains(t, stdout.String(), "stored original/readme.txt (11 bytes, text/plain)")

	stdout.Reset()
	require.Equal(t, ExitOK, cli.Run(ctx, []string{"io", "stat", "-id", "original/readme.txt"}))
	assert.Contains(t, stdout.String(), "/var/original/readme.txt")

	require.Equal(t, ExitOK, cli.Run(ctx, []string{"io", "rm", "-id", "original/readme.txt"}))
	assert.Equal(t, ExitNotFound, cli.Run(ctx, []string{"io", "stat", "-id", "original/readme.txt"}))
	assert.Equal(t, ExitUsage, cli.Run(ctx, []string{"io", "put", "-id", "x", "-file", "/tmp/none"}))
	assert.Equal(t, ExitUsage, cli.Run(ctx, []string{"io", "stat"}))
}

func TestJobsAndSchemaCommands(t *testing.T) {
	cli, backend, _, stdout, _ := newTestCLI(t)
	ctx := context.Background()

	require.Equal(t, ExitOK, cli.Run(ctx, []string{"jobs", "orphan-cleanup", "-spi-id", "images/1/a.png"}))
	assert.Equal(t, []string{"images/1/a.png"}, backend.queue.enqueued)
	assert.Contains(t, stdout.String(), "orphan:images/1/a.png")
	assert.Equal(t, ExitUsage, cli.Run(ctx, []string{"jobs", "orphan-cleanup"}))

	require.Equal(t, ExitOK, cli.Run(ctx, []string{"schema", "apply"}))
	assert.True(t, backend.applied)
	backend.schemaErr = errors.New("permission denied")
	assert.Equal(t, ExitError, cli.Run(ctx, []string{"schema", "apply"}))
}

func TestFieldTypeResolve(t *testing.T) {
	cli, _, _, stdout, _ := newTestCLI(t)
	require.Equal(t, ExitOK, cli.Run(context.Background(), []string{"fieldtype", "resolve", "-id", "ezimage"}))
	assert.Equal(t, "ibexa_image\n", stdout.String())
	assert.Equal(t, ExitNotFound, cli.Run(context.Background(), []string{"fieldtype", "resolve", "-id", "ezstring"}))
}
