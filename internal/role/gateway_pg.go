package role

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contentcore/contentcore/internal/platform/db"
)

const selectRoleColumns = `
	SELECT r.id, r.name, r.version,
	       p.id, p.module_name, p.function_name, p.original_id,
	       l.identifier, v.value
	FROM ibexa_role r
	LEFT JOIN ibexa_policy p ON p.role_id = r.id
	LEFT JOIN ibexa_policy_limitation l ON l.policy_id = p.id
	LEFT JOIN ibexa_policy_limitation_value v ON v.limitation_id = l.id`

const roleOrder = ` ORDER BY r.id, p.id, l.id, v.id`

const selectAssignmentColumns = `
	SELECT id, role_id, contentobject_id, limit_identifier, limit_value
	FROM ibexa_user_role`

// ancestorContentIDs selects the content ids of every location above the
// locations of content $1.
const ancestorContentIDs = `
	SELECT a.contentobject_id
	FROM ibexa_content_tree t
	JOIN ibexa_content_tree a ON t.path_string LIKE a.path_string || '%' AND a.node_id <> t.node_id
	WHERE t.contentobject_id = $1`

type pgGateway struct {
	pool db.TxBeginner
	q    db.Querier
	inTx bool
}

// NewGateway returns the PostgreSQL gateway. Wrap it with
// NewExceptionConversion before handing it to a Service.
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

func statusCondition(status Status) string {
	if status == StatusDraft {
		return ` r.version <> 0`
	}
	return ` r.version = 0`
}

func (g *pgGateway) CreateRole(ctx context.Context, r Role) (int64, error) {
	var id int64
	err := g.q.QueryRow(ctx, `
		INSERT INTO ibexa_role (is_new, name, value, version)
		VALUES (0, $1, '', $2)
		RETURNING id`, r.Identifier, versionFromState(r.State)).Scan(&id)
	return id, err
}

func (g *pgGateway) queryRoleRows(ctx context.Context, sql string, args ...any) ([]RoleRow, error) {
	rows, err := g.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[RoleRow])
}

func (g *pgGateway) LoadRole(ctx context.Context, roleID int64, status Status) ([]RoleRow, error) {
	return g.queryRoleRows(ctx, selectRoleColumns+` WHERE r.id = $1 AND`+statusCondition(status)+roleOrder, roleID)
}

func (g *pgGateway) LoadRoleByIdentifier(ctx context.Context, identifier string, status Status) ([]RoleRow, error) {
	return g.queryRoleRows(ctx, selectRoleColumns+` WHERE r.name = $1 AND`+statusCondition(status)+roleOrder, identifier)
}

func (g *pgGateway) LoadRoleDraftByRoleID(ctx context.Context, roleID int64) ([]RoleRow, error) {
	return g.queryRoleRows(ctx, selectRoleColumns+` WHERE r.version = $1`+roleOrder, roleID)
}

func (g *pgGateway) LoadRoles(ctx context.Context) ([]RoleRow, error) {
	return g.queryRoleRows(ctx, selectRoleColumns+` WHERE`+statusCondition(StatusDefined)+roleOrder)
}

func (g *pgGateway) UpdateRole(ctx context.Context, update UpdateStruct) error {
	_, err := g.q.Exec(ctx, `UPDATE ibexa_role SET name = $1 WHERE id = $2`, update.Identifier, update.ID)
	return err
}

func (g *pgGateway) DeleteRole(ctx context.Context, roleID int64, status Status) error {
	if status == StatusDefined {
		if _, err := g.q.Exec(ctx, `DELETE FROM ibexa_user_role WHERE role_id = $1`, roleID); err != nil {
			return err
		}
	}
	_, err := g.q.Exec(ctx, `DELETE FROM ibexa_role r WHERE r.id = $1 AND`+statusCondition(status), roleID)
	return err
}

func (g *pgGateway) PublishRoleDraft(ctx context.Context, draftID, originalID int64) error {
	if originalID == 0 {
		if _, err := g.q.Exec(ctx, `UPDATE ibexa_role SET version = 0 WHERE id = $1`, draftID); err != nil {
			return err
		}
		_, err := g.q.Exec(ctx, `UPDATE ibexa_policy SET original_id = 0 WHERE role_id = $1`, draftID)
		return err
	}
	if _, err := g.q.Exec(ctx, `UPDATE ibexa_role SET version = 0, id = $2 WHERE id = $1`, draftID, originalID); err != nil {
		return err
	}
	if _, err := g.q.Exec(ctx, `UPDATE ibexa_policy SET original_id = 0, role_id = $2 WHERE role_id = $1`, draftID, originalID); err != nil {
		return err
	}
	_, err := g.q.Exec(ctx, `UPDATE ibexa_user_role SET role_id = $2 WHERE role_id = $1`, draftID, originalID)
	return err
}

func (g *pgGateway) AddPolicy(ctx context.Context, roleID int64, p Policy) (int64, error) {
	var id int64
	err := g.q.QueryRow(ctx, `
		INSERT INTO ibexa_policy (function_name, module_name, original_id, role_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, p.Function, p.Module, p.OriginalID, roleID).Scan(&id)
	return id, err
}

func (g *pgGateway) AddPolicyLimitations(ctx context.Context, policyID int64, limitations Limitations) error {
	identifiers := make([]string, 0, len(limitations))
	for identifier := range limitations {
		identifiers = append(identifiers, identifier)
	}
	sort.Strings(identifiers)
	for _, identifier := range identifiers {
		var limitationID int64
		err := g.q.QueryRow(ctx, `
			INSERT INTO ibexa_policy_limitation (identifier, policy_id)
			VALUES ($1, $2)
			RETURNING id`, identifier, policyID).Scan(&limitationID)
		if err != nil {
			return err
		}
		for _, value := range limitations[identifier] {
			if _, err := g.q.Exec(ctx, `
				INSERT INTO ibexa_policy_limitation_value (limitation_id, value)
				VALUES ($1, $2)`, limitationID, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *pgGateway) RemovePolicy(ctx context.Context, policyID int64) error {
	if err := g.RemovePolicyLimitations(ctx, policyID); err != nil {
		return err
	}
	_, err := g.q.Exec(ctx, `DELETE FROM ibexa_policy WHERE id = $1`, policyID)
	return err
}

func (g *pgGateway) RemovePolicyLimitations(ctx context.Context, policyID int64) error {
	if _, err := g.q.Exec(ctx, `
		DELETE FROM ibexa_policy_limitation_value
		WHERE limitation_id IN (SELECT id FROM ibexa_policy_limitation WHERE policy_id = $1)`, policyID); err != nil {
		return err
	}
	_, err := g.q.Exec(ctx, `DELETE FROM ibexa_policy_limitation WHERE policy_id = $1`, policyID)
	return err
}

func (g *pgGateway) LoadPoliciesByUserID(ctx context.Context, userID int64) ([]PolicyRow, error) {
	rows, err := g.q.Query(ctx, `
		SELECT DISTINCT p.id, p.role_id, p.original_id, p.module_name, p.function_name,
		       l.identifier, v.value
		FROM ibexa_policy p
		JOIN ibexa_role r ON r.id = p.role_id AND r.version = 0
		JOIN ibexa_user_role ur ON ur.role_id = r.id
		LEFT JOIN ibexa_policy_limitation l ON l.policy_id = p.id
		LEFT JOIN ibexa_policy_limitation_value v ON v.limitation_id = l.id
		WHERE ur.contentobject_id = $1 OR ur.contentobject_id IN (`+ancestorContentIDs+`)
		ORDER BY p.id, l.identifier, v.value`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[PolicyRow])
}

func (g *pgGateway) AssignRole(ctx context.Context, contentID, roleID int64, limitation Limitations) error {
	if limitation.IsUnrestricted() {
		_, err := g.q.Exec(ctx, `
			INSERT INTO ibexa_user_role (contentobject_id, limit_identifier, limit_value, role_id)
			VALUES ($1, '', '', $2)`, contentID, roleID)
		return err
	}
	identifiers := make([]string, 0, len(limitation))
	for identifier := range limitation {
		identifiers = append(identifiers, identifier)
	}
	sort.Strings(identifiers)
	for _, identifier := range identifiers {
		for _, value := range limitation[identifier] {
			if _, err := g.q.Exec(ctx, `
				INSERT INTO ibexa_user_role (contentobject_id, limit_identifier, limit_value, role_id)
				VALUES ($1, $2, $3, $4)`, contentID, identifier, value, roleID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *pgGateway) UnassignRole(ctx context.Context, contentID, roleID int64) error {
	_, err := g.q.Exec(ctx, `DELETE FROM ibexa_user_role WHERE contentobject_id = $1 AND role_id = $2`, contentID, roleID)
	return err
}

func (g *pgGateway) RemoveRoleAssignmentByID(ctx context.Context, assignmentID int64) error {
	_, err := g.q.Exec(ctx, `DELETE FROM ibexa_user_role WHERE id = $1`, assignmentID)
	return err
}

func (g *pgGateway) queryAssignmentRows(ctx context.Context, sql string, args ...any) ([]AssignmentRow, error) {
	rows, err := g.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[AssignmentRow])
}

func (g *pgGateway) LoadRoleAssignment(ctx context.Context, assignmentID int64) ([]AssignmentRow, error) {
	return g.queryAssignmentRows(ctx, selectAssignmentColumns+` WHERE id = $1`, assignmentID)
}

func (g *pgGateway) LoadRoleAssignmentsByRoleID(ctx context.Context, roleID int64) ([]AssignmentRow, error) {
	return g.queryAssignmentRows(ctx, selectAssignmentColumns+` WHERE role_id = $1 ORDER BY id`, roleID)
}

func (g *pgGateway) LoadRoleAssignmentsByRoleIDWithOffsetAndLimit(ctx context.Context, roleID int64, offset, limit int) ([]AssignmentRow, error) {
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}
	return g.queryAssignmentRows(ctx, selectAssignmentColumns+` WHERE role_id = $1 ORDER BY id OFFSET $2 LIMIT $3`, roleID, offset, limitArg)
}

func (g *pgGateway) CountRoleAssignments(ctx context.Context, roleID int64) (int, error) {
	var count int
	err := g.q.QueryRow(ctx, `SELECT COUNT(*) FROM ibexa_user_role WHERE role_id = $1`, roleID).Scan(&count)
	return count, err
}

func (g *pgGateway) LoadRoleAssignmentsByGroupID(ctx context.Context, groupID int64, inherited bool) ([]AssignmentRow, error) {
	if !inherited {
		return g.queryAssignmentRows(ctx, selectAssignmentColumns+` WHERE contentobject_id = $1 ORDER BY id`, groupID)
	}
	return g.queryAssignmentRows(ctx, selectAssignmentColumns+`
		WHERE contentobject_id = $1 OR contentobject_id IN (`+ancestorContentIDs+`)
		ORDER BY id`, groupID)
}
