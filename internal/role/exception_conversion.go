package role

import (
	"context"

	"github.com/contentcore/contentcore/internal/shared"
)

type exceptionConversion struct {
	inner    Gateway
	observer shared.GatewayObserver
}

// NewExceptionConversion wraps a gateway so that every driver error surfaces
// as a *shared.DatabaseError. Errors already in the shared taxonomy pass
// through untouched. observer may be nil.
func NewExceptionConversion(inner Gateway, observer shared.GatewayObserver) Gateway {
	return &exceptionConversion{inner: inner, observer: observer}
}

func (g *exceptionConversion) convert(op string, err error) error {
	if err == nil || shared.IsDomainError(err) {
		return err
	}
	if g.observer != nil {
		g.observer.ObserveGatewayError("role", op)
	}
	return &shared.DatabaseError{Op: "role." + op, Err: err}
}

func (g *exceptionConversion) WithTx(ctx context.Context, fn func(Gateway) error) error {
	err := g.inner.WithTx(ctx, func(inner Gateway) error {
		return fn(&exceptionConversion{inner: inner, observer: g.observer})
	})
	return g.convert("WithTx", err)
}

func (g *exceptionConversion) CreateRole(ctx context.Context, r Role) (int64, error) {
	id, err := g.inner.CreateRole(ctx, r)
	return id, g.convert("CreateRole", err)
}

func (g *exceptionConversion) LoadRole(ctx context.Context, roleID int64, status Status) ([]RoleRow, error) {
	rows, err := g.inner.LoadRole(ctx, roleID, status)
	return rows, g.convert("LoadRole", err)
}

func (g *exceptionConversion) LoadRoleByIdentifier(ctx context.Context, identifier string, status Status) ([]RoleRow, error) {
	rows, err := g.inner.LoadRoleByIdentifier(ctx, identifier, status)
	return rows, g.convert("LoadRoleByIdentifier", err)
}

func (g *exceptionConversion) LoadRoleDraftByRoleID(ctx context.Context, roleID int64) ([]RoleRow, error) {
	rows, err := g.inner.LoadRoleDraftByRoleID(ctx, roleID)
	return rows, g.convert("LoadRoleDraftByRoleID", err)
}

func (g *exceptionConversion) LoadRoles(ctx context.Context) ([]RoleRow, error) {
	rows, err := g.inner.LoadRoles(ctx)
	return rows, g.convert("LoadRoles", err)
}

func (g *exceptionConversion) UpdateRole(ctx context.Context, update UpdateStruct) error {
	return g.convert("UpdateRole", g.inner.UpdateRole(ctx, update))
}

func (g *exceptionConversion) DeleteRole(ctx context.Context, roleID int64, status Status) error {
	return g.convert("DeleteRole", g.inner.DeleteRole(ctx, roleID, status))
}

func (g *exceptionConversion) PublishRoleDraft(ctx context.Context, draftID, originalID int64) error {
	return g.convert("PublishRoleDraft", g.inner.PublishRoleDraft(ctx, draftID, originalID))
}

func (g *exceptionConversion) AddPolicy(ctx context.Context, roleID int64, p Policy) (int64, error) {
	id, err := g.inner.AddPolicy(ctx, roleID, p)
	return id, g.convert("AddPolicy", err)
}

func (g *exceptionConversion) AddPolicyLimitations(ctx context.Context, policyID int64, limitations Limitations) error {
	return g.convert("AddPolicyLimitations", g.inner.AddPolicyLimitations(ctx, policyID, limitations))
}

func (g *exceptionConversion) RemovePolicy(ctx context.Context, policyID int64) error {
	return g.convert("RemovePolicy", g.inner.RemovePolicy(ctx, policyID))
}

func (g *exceptionConversion) RemovePolicyLimitations(ctx context.Context, policyID int64) error {
	return g.convert("RemovePolicyLimitations", g.inner.RemovePolicyLimitations(ctx, policyID))
}

func (g *exceptionConversion) LoadPoliciesByUserID(ctx context.Context, userID int64) ([]PolicyRow, error) {
	rows, err := g.inner.LoadPoliciesByUserID(ctx, userID)
	return rows, g.convert("LoadPoliciesByUserID", err)
}

func (g *exceptionConversion) AssignRole(ctx context.Context, contentID, roleID int64, limitation Limitations) error {
	return g.convert("AssignRole", g.inner.AssignRole(ctx, contentID, roleID, limitation))
}

func (g *exceptionConversion) UnassignRole(ctx context.Context, contentID, roleID int64) error {
	return g.convert("UnassignRole", g.inner.UnassignRole(ctx, contentID, roleID))
}

func (g *exceptionConversion) RemoveRoleAssignmentByID(ctx context.Context, assignmentID int64) error {
	return g.convert("RemoveRoleAssignmentByID", g.inner.RemoveRoleAssignmentByID(ctx, assignmentID))
}

func (g *exceptionConversion) LoadRoleAssignment(ctx context.Context, assignmentID int64) ([]AssignmentRow, error) {
	rows, err := g.inner.LoadRoleAssignment(ctx, assignmentID)
	return rows, g.convert("LoadRoleAssignment", err)
}

func (g *exceptionConversion) LoadRoleAssignmentsByRoleID(ctx context.Context, roleID int64) ([]AssignmentRow, error) {
	rows, err := g.inner.LoadRoleAssignmentsByRoleID(ctx, roleID)
	return rows, g.convert("LoadRoleAssignmentsByRoleID", err)
}

func (g *exceptionConversion) LoadRoleAssignmentsByRoleIDWithOffsetAndLimit(ctx context.Context, roleID int64, offset, limit int) ([]AssignmentRow, error) {
	rows, err := g.inner.LoadRoleAssignmentsByRoleIDWithOffsetAndLimit(ctx, roleID, offset, limit)
	return rows, g.convert("LoadRoleAssignmentsByRoleIDWithOffsetAndLimit", err)
}

func (g *exceptionConversion) CountRoleAssignments(ctx context.Context, roleID int64) (int, error) {
	count, err := g.inner.CountRoleAssignments(ctx, roleID)
	return count, g.convert("CountRoleAssignments", err)
}

func (g *exceptionConversion) LoadRoleAssignmentsByGroupID(ctx context.Context, groupID int64, inherited bool) ([]AssignmentRow, error) {
	rows, err := g.inner.LoadRoleAssignmentsByGroupID(ctx, groupID, inherited)
	return rows, g.convert("LoadRoleAssignmentsByGroupID", err)
}
