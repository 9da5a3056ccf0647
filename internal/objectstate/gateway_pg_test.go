package objectstate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentcore/contentcore/internal/language"
	"github.com/contentcore/contentcore/internal/shared"
	"github.com/contentcore/contentcore/internal/testing/pgtest"
)

func TestPostgresLockGroupLifecycle(t *testing.T) {
	pool := pgtest.Pool(t)
	ctx := context.Background()
	pgtest.Exec(t, pool,
		`INSERT INTO ibexa_content_language (id, locale, name) VALUES (2, 'eng-GB', 'English'), (4, 'ger-DE', 'German')`,
		`INSERT INTO ibexa_content (id) VALUES (1), (2), (3)`,
	)
	languages, err := language.LoadResolver(ctx, language.NewRepository(pool))
	require.NoError(t, err)
	svc := NewService(NewExceptionConversion(NewGateway(pool), nil), languages, nil)

	group, err := svc.CreateGroup(ctx, InputStruct{
		Identifier:          "ibexa_lock",
		DefaultLanguageCode: "eng-GB",
		Names:               map[string]string{"eng-GB": "Lock", "ger-DE": "Sperre"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"eng-GB", "ger-DE"}, group.LanguageCodes)

	notLocked, err := svc.Create(ctx, group.ID, InputStruct{Identifier: "not_locked", DefaultLanguageCode: "eng-GB", Names: map[string]string{"eng-GB": "Not locked"}})
	require.NoError(t, err)
	locked, err := svc.Create(ctx, group.ID, InputStruct{Identifier: "locked", DefaultLanguageCode: "eng-GB", Names: map[string]string{"eng-GB": "Locked"}})
	require.NoError(t, err)
	assert.Equal(t, 0, notLocked.Priority)
	assert.Equal(t, 1, locked.Priority)

	count, err := svc.GetContentCount(ctx, notLocked.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, svc.SetContentState(ctx, 2, group.ID, locked.ID))
	current, err := svc.GetContentState(ctx, 2, group.ID)
	require.NoError(t, err)
	assert.Equal(t, "locked", current.Identifier)

	require.NoError(t, svc.SetPriority(ctx, locked.ID, 0))
	states, err := svc.LoadObjectStates(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "locked", states[0].Identifier)
	assert.Equal(t, 1, states[1].Priority)

	require.NoError(t, svc.Delete(ctx, notLocked.ID))
	count, err = svc.GetContentCount(ctx, locked.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	states, err = svc.LoadObjectStates(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, 0, states[0].Priority)

	require.NoError(t, svc.DeleteGroup(ctx, group.ID))
	_, err = svc.LoadGroup(ctx, group.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.Load(ctx, locked.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
