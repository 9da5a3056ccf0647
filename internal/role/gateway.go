package role

import "context"

// Stored values of ibexa_role.version. A positive value is the id of the
// published role a draft was created from.
const (
	versionDefined    int64 = 0
	versionFreshDraft int64 = -1
)

// versionFromState encodes a State into the legacy version column.
func versionFromState(s State) int64 {
	switch {
	case !s.IsDraft():
		return versionDefined
	case s.OriginalID() > 0:
		return s.OriginalID()
	default:
		return versionFreshDraft
	}
}

// stateFromVersion decodes the legacy version column.
func stateFromVersion(version int64) State {
	switch {
	case version == versionDefined:
		return Published()
	case version > 0:
		return Draft(version)
	default:
		return Draft(0)
	}
}

// RoleRow is one row of the role/policy/limitation join. Policy and
// limitation columns are nil when the role has none.
type RoleRow struct {
	ID                   int64
	Identifier           string
	Version              int64
	PolicyID             *int64
	PolicyModule         *string
	PolicyFunction       *string
	PolicyOriginalID     *int64
	LimitationIdentifier *string
	LimitationValue      *string
}

// PolicyRow is one row of the policy/limitation join.
type PolicyRow struct {
	ID                   int64
	RoleID               int64
	OriginalID           int64
	Module               string
	Function             string
	LimitationIdentifier *string
	LimitationValue      *string
}

// AssignmentRow is one row of ibexa_user_role.
type AssignmentRow struct {
	ID              int64
	RoleID          int64
	ContentID       int64
	LimitIdentifier string
	LimitValue      string
}

// Gateway is the SQL boundary for roles. Implementations return raw rows and
// never translate driver errors; see NewExceptionConversion.
type Gateway interface {
	// WithTx runs fn against a gateway bound to one transaction.
	WithTx(ctx context.Context, fn func(Gateway) error) error

	CreateRole(ctx context.Context, r Role) (int64, error)
	LoadRole(ctx context.Context, roleID int64, status Status) ([]RoleRow, error)
	LoadRoleByIdentifier(ctx context.Context, identifier string, status Status) ([]RoleRow, error)
	LoadRoleDraftByRoleID(ctx context.Context, roleID int64) ([]RoleRow, error)
	LoadRoles(ctx context.Context) ([]RoleRow, error)
	UpdateRole(ctx context.Context, update UpdateStruct) error
	DeleteRole(ctx context.Context, roleID int64, status Status) error
	// PublishRoleDraft marks the draft defined. When originalID is non-zero
	// the draft takes over that id together with its policies and assignments.
	PublishRoleDraft(ctx context.Context, draftID, originalID int64) error

	AddPolicy(ctx context.Context, roleID int64, p Policy) (int64, error)
	AddPolicyLimitations(ctx context.Context, policyID int64, limitations Limitations) error
	RemovePolicy(ctx context.Context, policyID int64) error
	RemovePolicyLimitations(ctx context.Context, policyID int64) error
	LoadPoliciesByUserID(ctx context.Context, userID int64) ([]PolicyRow, error)

	AssignRole(ctx context.Context, contentID, roleID int64, limitation Limitations) error
	UnassignRole(ctx context.Context, contentID, roleID int64) error
	RemoveRoleAssignmentByID(ctx context.Context, assignmentID int64) error
	LoadRoleAssignment(ctx context.Context, assignmentID int64) ([]AssignmentRow, error)
	LoadRoleAssignmentsByRoleID(ctx context.Context, roleID int64) ([]AssignmentRow, error)
	LoadRoleAssignmentsByRoleIDWithOffsetAndLimit(ctx context.Context, roleID int64, offset, limit int) ([]AssignmentRow, error)
	CountRoleAssignments(ctx context.Context, roleID int64) (int, error)
	LoadRoleAssignmentsByGroupID(ctx context.Context, groupID int64, inherited bool) ([]AssignmentRow, error)
}
