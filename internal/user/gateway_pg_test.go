package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentcore/contentcore/internal/shared"
	"github.com/contentcore/contentcore/internal/testing/pgtest"
)

func TestPostgresPasswordAndTokens(t *testing.T) {
	pool := pgtest.Pool(t)
	ctx := context.Background()
	pgtest.Exec(t, pool,
		`INSERT INTO ibexa_user (contentobject_id, login, email, password_hash, password_hash_type)
		 VALUES (14, 'admin', 'admin@example.com', '', 1)`,
		`INSERT INTO ibexa_user_setting (user_id, is_enabled, max_login) VALUES (14, 1, 10)`,
	)
	svc := NewService(NewExceptionConversion(NewGateway(pool), nil), nil)

	_, err := svc.CheckPassword(ctx, "admin", "publish123")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	require.NoError(t, svc.UpdatePassword(ctx, PasswordUpdateStruct{UserID: 14, Password: "publish123"}))
	u, err := svc.CheckPassword(ctx, "ADMIN", "publish123")
	require.NoError(t, err)
	assert.Equal(t, int64(14), u.ID)
	assert.True(t, u.Enabled)

	token, err := svc.UpdateUserToken(ctx, TokenUpdateStruct{UserID: 14, Time: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	loaded, err := svc.LoadUserByToken(ctx, token.HashKey)
	require.NoError(t, err)
	assert.Equal(t, "admin", loaded.Login)

	require.NoError(t, svc.ExpireUserToken(ctx, token.HashKey))
	_, err = svc.LoadUserByToken(ctx, token.HashKey)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, 14))
	_, err = svc.Load(ctx, 14)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
