package objectstate

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contentcore/contentcore/internal/language"
	"github.com/contentcore/contentcore/internal/platform/db"
)

const selectGroupColumns = `
	SELECT g.id, g.identifier, g.default_language_id, g.language_mask,
	       t.real_language_id, t.name, t.description
	FROM ibexa_object_state_group g
	JOIN ibexa_object_state_group_language t ON t.contentobject_state_group_id = g.id`

const selectStateColumns = `
	SELECT s.id, s.group_id, s.identifier, s.priority, s.default_language_id, s.language_mask,
	       t.language_id, t.name, t.description
	FROM ibexa_object_state s
	JOIN ibexa_object_state_language t ON t.contentobject_state_id = s.id`

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

func (g *pgGateway) groupRows(ctx context.Context, sql string, args ...any) ([]GroupRow, error) {
	rows, err := g.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[GroupRow])
}

func (g *pgGateway) stateRows(ctx context.Context, sql string, args ...any) ([]StateRow, error) {
	rows, err := g.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[StateRow])
}

func (g *pgGateway) LoadGroup(ctx context.Context, groupID int64) ([]GroupRow, error) {
	return g.groupRows(ctx, selectGroupColumns+` WHERE g.id = $1 ORDER BY t.real_language_id`, groupID)
}

func (g *pgGateway) LoadGroupByIdentifier(ctx context.Context, identifier string) ([]GroupRow, error) {
	return g.groupRows(ctx, selectGroupColumns+` WHERE g.identifier = $1 ORDER BY t.real_language_id`, identifier)
}

func (g *pgGateway) LoadGroups(ctx context.Context, offset, limit int) ([]GroupRow, error) {
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}
	return g.groupRows(ctx, selectGroupColumns+`
		WHERE g.id IN (SELECT id FROM ibexa_object_state_group ORDER BY id OFFSET $1 LIMIT $2)
		ORDER BY g.id, t.real_language_id`, offset, limitArg)
}

func (g *pgGateway) InsertGroup(ctx context.Context, group Record) (int64, error) {
	var id int64
	err := g.q.QueryRow(ctx, `
		INSERT INTO ibexa_object_state_group (default_language_id, identifier, language_mask)
		VALUES ($1, $2, $3)
		RETURNING id`, group.DefaultLanguageID, group.Identifier, group.LanguageMask).Scan(&id)
	if err != nil {
		return 0, err
	}
	group.ID = id
	return id, g.insertGroupTranslations(ctx, group)
}

func (g *pgGateway) insertGroupTranslations(ctx context.Context, group Record) error {
	for _, t := range group.Translations {
		if _, err := g.q.Exec(ctx, `
			INSERT INTO ibexa_object_state_group_language
				(contentobject_state_group_id, language_id, real_language_id, name, description)
			VALUES ($1, $2, $3, $4, $5)`,
			group.ID, storedLanguageID(t.LanguageID, group.DefaultLanguageID), t.LanguageID, t.Name, t.Description); err != nil {
			return err
		}
	}
	return nil
}

func (g *pgGateway) UpdateGroup(ctx context.Context, group Record) error {
	if _, err := g.q.Exec(ctx, `
		UPDATE ibexa_object_state_group
		SET default_language_id = $1, identifier = $2, language_mask = $3
		WHERE id = $4`, group.DefaultLanguageID, group.Identifier, group.LanguageMask, group.ID); err != nil {
		return err
	}
	if _, err := g.q.Exec(ctx, `DELETE FROM ibexa_object_state_group_language WHERE contentobject_state_group_id = $1`, group.ID); err != nil {
		return err
	}
	return g.insertGroupTranslations(ctx, group)
}

func (g *pgGateway) DeleteGroup(ctx context.Context, groupID int64) error {
	if _, err := g.q.Exec(ctx, `DELETE FROM ibexa_object_state_group_language WHERE contentobject_state_group_id = $1`, groupID); err != nil {
		return err
	}
	_, err := g.q.Exec(ctx, `DELETE FROM ibexa_object_state_group WHERE id = $1`, groupID)
	return err
}

func (g *pgGateway) LoadState(ctx context.Context, stateID int64) ([]StateRow, error) {
	return g.stateRows(ctx, selectStateColumns+` WHERE s.id = $1 ORDER BY t.language_id`, stateID)
}

func (g *pgGateway) LoadStateByIdentifier(ctx context.Context, identifier string, groupID int64) ([]StateRow, error) {
	return g.stateRows(ctx, selectStateColumns+` WHERE s.identifier = $1 AND s.group_id = $2 ORDER BY t.language_id`, identifier, groupID)
}

func (g *pgGateway) LoadStates(ctx context.Context, groupID int64) ([]StateRow, error) {
	return g.stateRows(ctx, selectStateColumns+` WHERE s.group_id = $1 ORDER BY s.priority, s.id, t.language_id`, groupID)
}

func (g *pgGateway) InsertState(ctx context.Context, groupID int64, priority int, state Record) (int64, error) {
	var id int64
	err := g.q.QueryRow(ctx, `
		INSERT INTO ibexa_object_state (default_language_id, group_id, identifier, language_mask, priority)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`, state.DefaultLanguageID, groupID, state.Identifier, state.LanguageMask, priority).Scan(&id)
	if err != nil {
		return 0, err
	}
	state.ID = id
	return id, g.insertStateTranslations(ctx, state)
}

func (g *pgGateway) insertStateTranslations(ctx context.Context, state Record) error {
	for _, t := range state.Translations {
		if _, err := g.q.Exec(ctx, `
			INSERT INTO ibexa_object_state_language (contentobject_state_id, language_id, name, description)
			VALUES ($1, $2, $3, $4)`,
			state.ID, storedLanguageID(t.LanguageID, state.DefaultLanguageID), t.Name, t.Description); err != nil {
			return err
		}
	}
	return nil
}

func (g *pgGateway) UpdateState(ctx context.Context, state Record) error {
	if _, err := g.q.Exec(ctx, `
		UPDATE ibexa_object_state
		SET default_language_id = $1, identifier = $2, language_mask = $3
		WHERE id = $4`, state.DefaultLanguageID, state.Identifier, state.LanguageMask, state.ID); err != nil {
		return err
	}
	if _, err := g.q.Exec(ctx, `DELETE FROM ibexa_object_state_language WHERE contentobject_state_id = $1`, state.ID); err != nil {
		return err
	}
	return g.insertStateTranslations(ctx, state)
}

func (g *pgGateway) UpdateStatePriority(ctx context.Context, stateID int64, priority int) error {
	_, err := g.q.Exec(ctx, `UPDATE ibexa_object_state SET priority = $1 WHERE id = $2`, priority, stateID)
	return err
}

func (g *pgGateway) DeleteState(ctx context.Context, stateID int64) error {
	if _, err := g.q.Exec(ctx, `DELETE FROM ibexa_object_state_language WHERE contentobject_state_id = $1`, stateID); err != nil {
		return err
	}
	_, err := g.q.Exec(ctx, `DELETE FROM ibexa_object_state WHERE id = $1`, stateID)
	return err
}

func (g *pgGateway) LinkAllContent(ctx context.Context, stateID int64) error {
	_, err := g.q.Exec(ctx, `
		INSERT INTO ibexa_object_state_link (contentobject_id, contentobject_state_id)
		SELECT id, $1 FROM ibexa_content`, stateID)
	return err
}

func (g *pgGateway) UpdateStateLinks(ctx context.Context, oldStateID, newStateID int64) error {
	_, err := g.q.Exec(ctx, `
		UPDATE ibexa_object_state_link SET contentobject_state_id = $1
		WHERE contentobject_state_id = $2`, newStateID, oldStateID)
	return err
}

func (g *pgGateway) DeleteStateLinks(ctx context.Context, stateID int64) error {
	_, err := g.q.Exec(ctx, `DELETE FROM ibexa_object_state_link WHERE contentobject_state_id = $1`, stateID)
	return err
}

func (g *pgGateway) SetContentState(ctx context.Context, contentID, groupID, stateID int64) error {
	if _, err := g.q.Exec(ctx, `
		DELETE FROM ibexa_object_state_link
		WHERE contentobject_id = $1
		  AND contentobject_state_id IN (SELECT id FROM ibexa_object_state WHERE group_id = $2)`, contentID, groupID); err != nil {
		return err
	}
	_, err := g.q.Exec(ctx, `
		INSERT INTO ibexa_object_state_link (contentobject_id, contentobject_state_id)
		VALUES ($1, $2)`, contentID, stateID)
	return err
}

func (g *pgGateway) LoadContentState(ctx context.Context, contentID, groupID int64) ([]StateRow, error) {
	return g.stateRows(ctx, selectStateColumns+`
		JOIN ibexa_object_state_link l ON l.contentobject_state_id = s.id
		WHERE l.contentobject_id = $1 AND s.group_id = $2
		ORDER BY t.language_id`, contentID, groupID)
}

func (g *pgGateway) CountContent(ctx context.Context, stateID int64) (int, error) {
	var count int
	err := g.q.QueryRow(ctx, `
		SELECT COUNT(contentobject_id) FROM ibexa_object_state_link
		WHERE contentobject_state_id = $1`, stateID).Scan(&count)
	return count, err
}

// storedLanguageID marks the default language's translation row with the
// always-available bit.
func storedLanguageID(languageID, defaultLanguageID int64) int64 {
	if languageID == defaultLanguageID {
		return languageID | language.AlwaysAvailableBit
	}
	return languageID
}
