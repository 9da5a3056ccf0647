package role

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/contentcore/contentcore/internal/shared"
)

// Service implements role use cases on top of a Gateway.
type Service struct {
	gateway Gateway
	mapper  Mapper
	logger  *slog.Logger
}

// NewService builds a Service. logger may be nil.
func NewService(gateway Gateway, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, logger: logger}
}

// CreateRole persists a role with its policies.
func (s *Service) CreateRole(ctx context.Context, cs CreateStruct) (Role, error) {
	if err := shared.ValidateStruct(cs); err != nil {
		return Role{}, err
	}
	var created Role
	err := s.gateway.WithTx(ctx, func(g Gateway) error {
		var err error
		created, err = s.createRole(ctx, g, cs)
		return err
	})
	return created, err
}

func (s *Service) createRole(ctx context.Context, g Gateway, cs CreateStruct) (Role, error) {
	r := s.mapper.RoleFromCreateStruct(cs)
	id, err := g.CreateRole(ctx, r)
	if err != nil {
		return Role{}, err
	}
	r.ID = id
	for i, p := range r.Policies {
		added, err := s.addPolicy(ctx, g, id, policyFromDraftSource(p))
		if err != nil {
			return Role{}, err
		}
		r.Policies[i] = added
	}
	return r, nil
}

// CreateRoleDraft copies a published role into a new draft. A role can have
// at most one draft.
func (s *Service) CreateRoleDraft(ctx context.Context, roleID int64) (Role, error) {
	var draft Role
	err := s.gateway.WithTx(ctx, func(g Gateway) error {
		published, err := s.loadRole(ctx, g, roleID, StatusDefined)
		if err != nil {
			return err
		}
		rows, err := g.LoadRoleDraftByRoleID(ctx, roleID)
		if err != nil {
			return err
		}
		if existing, ok := s.mapper.MapRole(rows); ok {
			return shared.NewInvalidArgument("roleId", "role %d already has draft %d", roleID, existing.ID)
		}
		draft, err = s.createRole(ctx, g, s.mapper.CreateStructFromRole(published))
		return err
	})
	return draft, err
}

// LoadRole loads a role by id and status.
func (s *Service) LoadRole(ctx context.Context, roleID int64, status Status) (Role, error) {
	return s.loadRole(ctx, s.gateway, roleID, status)
}

func (s *Service) loadRole(ctx context.Context, g Gateway, roleID int64, status Status) (Role, error) {
	rows, err := g.LoadRole(ctx, roleID, status)
	if err != nil {
		return Role{}, err
	}
	r, ok := s.mapper.MapRole(rows)
	if !ok {
		return Role{}, shared.NewNotFound("role", roleID)
	}
	return r, nil
}

// LoadRoleByIdentifier loads a role by identifier and status.
func (s *Service) LoadRoleByIdentifier(ctx context.Context, identifier string, status Status) (Role, error) {
	rows, err := s.gateway.LoadRoleByIdentifier(ctx, identifier, status)
	if err != nil {
		return Role{}, err
	}
	r, ok := s.mapper.MapRole(rows)
	if !ok {
		return Role{}, shared.NewNotFound("role", identifier)
	}
	return r, nil
}

// LoadRoleDraftByRoleID loads the draft created from a published role.
func (s *Service) LoadRoleDraftByRoleID(ctx context.Context, roleID int64) (Role, error) {
	rows, err := s.gateway.LoadRoleDraftByRoleID(ctx, roleID)
	if err != nil {
		return Role{}, err
	}
	r, ok := s.mapper.MapRole(rows)
	if !ok {
		return Role{}, shared.NewNotFound("roleDraft", roleID)
	}
	return r, nil
}

// LoadRoles returns every published role.
func (s *Service) LoadRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.gateway.LoadRoles(ctx)
	if err != nil {
		return nil, err
	}
	return s.mapper.MapRoles(rows), nil
}

// UpdateRole renames a role.
func (s *Service) UpdateRole(ctx context.Context, us UpdateStruct) error {
	if err := shared.ValidateStruct(us); err != nil {
		return err
	}
	return s.gateway.UpdateRole(ctx, us)
}

// DeleteRole removes a role with its policies. Deleting a published role also
// drops its assignments.
func (s *Service) DeleteRole(ctx context.Context, roleID int64, status Status) error {
	return s.gateway.WithTx(ctx, func(g Gateway) error {
		return s.deleteRole(ctx, g, roleID, status)
	})
}

func (s *Service) deleteRole(ctx context.Context, g Gateway, roleID int64, status Status) error {
	r, err := s.loadRole(ctx, g, roleID, status)
	if err != nil {
		return err
	}
	for _, p := range r.Policies {
		if err := g.RemovePolicy(ctx, p.ID); err != nil {
			return err
		}
	}
	return g.DeleteRole(ctx, r.ID, status)
}

// PublishRoleDraft promotes a draft to the published role. When the draft was
// created from a published role, that role's assignments move to the draft,
// the old role is deleted and the draft takes over its id. All steps run in
// one transaction.
func (s *Service) PublishRoleDraft(ctx context.Context, draftID int64) error {
	return s.gateway.WithTx(ctx, func(g Gateway) error {
		draft, err := s.loadRole(ctx, g, draftID, StatusDraft)
		if err != nil {
			return err
		}
		originalID := draft.OriginalID()
		if originalID == 0 {
			s.logger.Debug("publish role draft", slog.Int64("draft_id", draft.ID))
			return g.PublishRoleDraft(ctx, draft.ID, 0)
		}

		published, err := s.loadRole(ctx, g, originalID, StatusDefined)
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Debug("publish role draft without published original",
				slog.Int64("draft_id", draft.ID), slog.Int64("original_id", originalID))
			return g.PublishRoleDraft(ctx, draft.ID, 0)
		}
		if err != nil {
			return err
		}

		assignments, err := s.loadRoleAssignmentsByRoleID(ctx, g, published.ID)
		if err != nil {
			return err
		}
		if err := s.deleteRole(ctx, g, published.ID, StatusDefined); err != nil {
			return fmt.Errorf("delete published role %d: %w", published.ID, err)
		}
		for _, a := range assignments {
			var limitation Limitations
			if a.LimitationIdentifier != "" {
				limitation = Limitations{a.LimitationIdentifier: a.Values}
			}
			if err := g.AssignRole(ctx, a.ContentID, draft.ID, limitation); err != nil {
				return err
			}
		}
		s.logger.Debug("publish role draft",
			slog.Int64("draft_id", draft.ID), slog.Int64("role_id", published.ID),
			slog.Int("assignments", len(assignments)))
		return g.PublishRoleDraft(ctx, draft.ID, published.ID)
	})
}

// AddPolicy adds a policy to a role.
func (s *Service) AddPolicy(ctx context.Context, roleID int64, p Policy) (Policy, error) {
	if err := shared.ValidateStruct(p); err != nil {
		return Policy{}, err
	}
	var added Policy
	err := s.gateway.WithTx(ctx, func(g Gateway) error {
		var err error
		added, err = s.addPolicy(ctx, g, roleID, p)
		return err
	})
	return added, err
}

// AddPolicyByRoleDraft adds a copy of a published policy to a draft, keeping
// the published policy id as the draft policy's original id.
func (s *Service) AddPolicyByRoleDraft(ctx context.Context, roleID int64, p Policy) (Policy, error) {
	return s.AddPolicy(ctx, roleID, policyFromDraftSource(p))
}

func policyFromDraftSource(p Policy) Policy {
	if p.ID != 0 {
		p.OriginalID = p.ID
		p.ID = 0
	}
	return p
}

func (s *Service) addPolicy(ctx context.Context, g Gateway, roleID int64, p Policy) (Policy, error) {
	p.Limitations = normalizeLimitations(p.Limitations)
	if err := checkLimitations("policy.limitations", p.Limitations); err != nil {
		return Policy{}, err
	}
	id, err := g.AddPolicy(ctx, roleID, p)
	if err != nil {
		return Policy{}, err
	}
	if !p.Limitations.IsUnrestricted() {
		if err := g.AddPolicyLimitations(ctx, id, p.Limitations); err != nil {
			return Policy{}, err
		}
	}
	p.ID = id
	p.RoleID = roleID
	return p, nil
}

// UpdatePolicy replaces the limitations of a policy.
func (s *Service) UpdatePolicy(ctx context.Context, p Policy) (Policy, error) {
	p.Limitations = normalizeLimitations(p.Limitations)
	if err := checkLimitations("policy.limitations", p.Limitations); err != nil {
		return Policy{}, err
	}
	err := s.gateway.WithTx(ctx, func(g Gateway) error {
		if err := g.RemovePolicyLimitations(ctx, p.ID); err != nil {
			return err
		}
		if p.Limitations.IsUnrestricted() {
			return nil
		}
		return g.AddPolicyLimitations(ctx, p.ID, p.Limitations)
	})
	return p, err
}

// RemovePolicy deletes a policy with its limitations.
func (s *Service) RemovePolicy(ctx context.Context, policyID int64) error {
	return s.gateway.WithTx(ctx, func(g Gateway) error {
		return g.RemovePolicy(ctx, policyID)
	})
}

// RemovePolicyByRoleDraft deletes a policy of a role draft.
func (s *Service) RemovePolicyByRoleDraft(ctx context.Context, roleID, policyID int64) error {
	return s.RemovePolicy(ctx, policyID)
}

// LoadPoliciesByUserID returns the policies granted to a user directly or
// through any of its user groups.
func (s *Service) LoadPoliciesByUserID(ctx context.Context, userID int64) ([]Policy, error) {
	rows, err := s.gateway.LoadPoliciesByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.mapper.MapPolicies(rows), nil
}

// AssignRole assigns a published role to a user or user group, optionally
// limited.
func (s *Service) AssignRole(ctx context.Context, contentID, roleID int64, limitation Limitations) error {
	if contentID <= 0 {
		return shared.NewInvalidArgument("contentId", "must be positive")
	}
	if err := checkLimitations("limitation", limitation); err != nil {
		return err
	}
	return s.gateway.WithTx(ctx, func(g Gateway) error {
		if _, err := s.loadRole(ctx, g, roleID, StatusDefined); err != nil {
			return err
		}
		return g.AssignRole(ctx, contentID, roleID, normalizeLimitations(limitation))
	})
}

// UnassignRole removes every assignment of a role to a user or group.
func (s *Service) UnassignRole(ctx context.Context, contentID, roleID int64) error {
	return s.gateway.UnassignRole(ctx, contentID, roleID)
}

// RemoveRoleAssignment deletes one assignment row.
func (s *Service) RemoveRoleAssignment(ctx context.Context, assignmentID int64) error {
	return s.gateway.RemoveRoleAssignmentByID(ctx, assignmentID)
}

// LoadRoleAssignment loads an assignment by id.
func (s *Service) LoadRoleAssignment(ctx context.Context, assignmentID int64) (Assignment, error) {
	rows, err := s.gateway.LoadRoleAssignment(ctx, assignmentID)
	if err != nil {
		return Assignment{}, err
	}
	assignments := s.mapper.MapRoleAssignments(rows)
	if len(assignments) == 0 {
		return Assignment{}, shared.NewNotFound("roleAssignment", assignmentID)
	}
	return assignments[0], nil
}

// LoadRoleAssignmentsByRoleID returns all assignments of a role.
func (s *Service) LoadRoleAssignmentsByRoleID(ctx context.Context, roleID int64) ([]Assignment, error) {
	return s.loadRoleAssignmentsByRoleID(ctx, s.gateway, roleID)
}

func (s *Service) loadRoleAssignmentsByRoleID(ctx context.Context, g Gateway, roleID int64) ([]Assignment, error) {
	rows, err := g.LoadRoleAssignmentsByRoleID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return s.mapper.MapRoleAssignments(rows), nil
}

// LoadRoleAssignmentsByRoleIDWithOffsetAndLimit pages through assignment rows
// of a role. A non-positive limit means no limit.
func (s *Service) LoadRoleAssignmentsByRoleIDWithOffsetAndLimit(ctx context.Context, roleID int64, offset, limit int) ([]Assignment, error) {
	if offset < 0 {
		return nil, shared.NewInvalidArgument("offset", "must not be negative")
	}
	rows, err := s.gateway.LoadRoleAssignmentsByRoleIDWithOffsetAndLimit(ctx, roleID, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.mapper.MapRoleAssignments(rows), nil
}

// CountRoleAssignments counts assignment rows of a role.
func (s *Service) CountRoleAssignments(ctx context.Context, roleID int64) (int, error) {
	return s.gateway.CountRoleAssignments(ctx, roleID)
}

// LoadRoleAssignmentsByGroupID returns assignments of a user or group. With
// inherited set, assignments of every parent group are included.
func (s *Service) LoadRoleAssignmentsByGroupID(ctx context.Context, groupID int64, inherited bool) ([]Assignment, error) {
	rows, err := s.gateway.LoadRoleAssignmentsByGroupID(ctx, groupID, inherited)
	if err != nil {
		return nil, err
	}
	return s.mapper.MapRoleAssignments(rows), nil
}

func checkLimitations(name string, l Limitations) error {
	for identifier, values := range l {
		if identifier == "" {
			return shared.NewInvalidArgument(name, "limitation identifier must not be empty")
		}
		if len(values) == 0 {
			return shared.NewInvalidArgument(name, "limitation '%s' has no values", identifier)
		}
	}
	return nil
}
