package user

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contentcore/contentcore/internal/platform/db"
)

const selectUserColumns = `
	SELECT u.contentobject_id, u.login, u.email, u.password_hash, u.password_hash_type,
	       u.password_updated_at, COALESCE(s.is_enabled, 0), COALESCE(s.max_login, 0)
	FROM ibexa_user u
	LEFT JOIN ibexa_user_setting s ON s.user_id = u.contentobject_id`

type pgGateway struct {
	pool db.TxBeginner
	q    db.Querier
	inTx bool
}

// NewGateway returns the PostgreSQL gateway.
func NewGateway(pool *pgxpool.Pool) Gateway {
	return &pgGateway{pool: pool, q: pool}
}

func (g *pgGateway) WithTx(ctx context.Context, fn func(Gateway) error) error {
	if g.inTx {
		return fn(g)
	}
	return db.WithTx(ctx, g.pool, func(tx pgx.Tx) error {
		return fn(&pgGateway{q: tx, inTx: true})
	})
}

func (g *pgGateway) userRows(ctx context.Context, sql string, args ...any) ([]UserRow, error) {
	rows, err := g.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[UserRow])
}

func (g *pgGateway) Load(ctx context.Context, userID int64) ([]UserRow, error) {
	return g.userRows(ctx, selectUserColumns+` WHERE u.contentobject_id = $1`, userID)
}

func (g *pgGateway) LoadByLogin(ctx context.Context, login string) ([]UserRow, error) {
	return g.userRows(ctx, selectUserColumns+` WHERE LOWER(u.login) = LOWER($1)`, login)
}

func (g *pgGateway) LoadByEmail(ctx context.Context, email string) ([]UserRow, error) {
	return g.userRows(ctx, selectUserColumns+` WHERE u.email = $1 ORDER BY u.contentobject_id`, email)
}

func (g *pgGateway) LoadUserByToken(ctx context.Context, hashKey string, now int64) ([]UserRow, error) {
	return g.userRows(ctx, selectUserColumns+`
		JOIN ibexa_user_accountkey k ON k.user_id = u.contentobject_id
		WHERE k.hash_key = $1 AND k.time > $2`, hashKey, now)
}

func (g *pgGateway) UpdateUserToken(ctx context.Context, token TokenRecord) error {
	if _, err := g.q.Exec(ctx, `DELETE FROM ibexa_user_accountkey WHERE user_id = $1`, token.UserID); err != nil {
		return err
	}
	_, err := g.q.Exec(ctx, `
		INSERT INTO ibexa_user_accountkey (hash_key, time, user_id)
		VALUES ($1, $2, $3)`, token.HashKey, token.Time, token.UserID)
	return err
}

func (g *pgGateway) ExpireUserToken(ctx context.Context, hashKey string) error {
	_, err := g.q.Exec(ctx, `UPDATE ibexa_user_accountkey SET time = 0 WHERE hash_key = $1`, hashKey)
	return err
}

func (g *pgGateway) UpdatePassword(ctx context.Context, userID int64, hash string, hashType int, updatedAt int64) error {
	_, err := g.q.Exec(ctx, `
		UPDATE ibexa_user
		SET password_hash = $1, password_hash_type = $2, password_updated_at = $3
		WHERE contentobject_id = $4`, hash, hashType, updatedAt, userID)
	return err
}

func (g *pgGateway) Delete(ctx context.Context, userID int64) error {
	for _, sql := range []string{
		`DELETE FROM ibexa_user_setting WHERE user_id = $1`,
		`DELETE FROM ibexa_user_accountkey WHERE user_id = $1`,
		`DELETE FROM ibexa_user WHERE contentobject_id = $1`,
	} {
		if _, err := g.q.Exec(ctx, sql, userID); err != nil {
			return err
		}
	}
	return nil
}
