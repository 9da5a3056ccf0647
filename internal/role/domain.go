// Package role persists roles, their policies and role assignments in the
// legacy ibexa_role tables.
package role

import "fmt"

// Status is the coarse lifecycle used by loaders.
type Status int

const (
	// StatusDefined selects published roles.
	StatusDefined Status = iota
	// StatusDraft selects role drafts.
	StatusDraft
)

func (s Status) String() string {
	if s == StatusDraft {
		return "draft"
	}
	return "defined"
}

// State is either Published or a Draft, optionally of an existing role.
type State struct {
	draft      bool
	originalID int64
}

// Published is the state of a defined role.
func Published() State { return State{} }

// Draft is the state of a role draft. originalID 0 means a fresh draft.
func Draft(originalID int64) State { return State{draft: true, originalID: originalID} }

// IsDraft reports whether the role is a draft.
func (s State) IsDraft() bool { return s.draft }

// OriginalID returns the published role a draft was created from, or 0.
func (s State) OriginalID() int64 { return s.originalID }

// Status maps the state onto the loader status.
func (s State) Status() Status {
	if s.draft {
		return StatusDraft
	}
	return StatusDefined
}

func (s State) String() string {
	switch {
	case !s.draft:
		return "published"
	case s.originalID == 0:
		return "draft"
	default:
		return fmt.Sprintf("draft(of %d)", s.originalID)
	}
}

// Unrestricted is the limitation marker granting a policy without restriction.
const Unrestricted = "*"

// Limitations restrict a policy. A nil or empty map means unrestricted.
type Limitations map[string][]string

// IsUnrestricted reports whether no limitation applies.
func (l Limitations) IsUnrestricted() bool { return len(l) == 0 }

// String renders the unrestricted marker or the identifier list.
func (l Limitations) String() string {
	if l.IsUnrestricted() {
		return Unrestricted
	}
	return fmt.Sprint(map[string][]string(l))
}

// Policy grants a module/function pair on a role.
type Policy struct {
	ID          int64
	RoleID      int64
	OriginalID  int64
	Module      string `validate:"required,max=255"`
	Function    string `validate:"required,max=255"`
	Limitations Limitations
}

// Role is a named set of policies.
type Role struct {
	ID         int64
	Identifier string
	State      State
	Policies   []Policy
}

// Status returns the role status.
func (r Role) Status() Status { return r.State.Status() }

// OriginalID returns the published role this draft was created from, or 0.
func (r Role) OriginalID() int64 { return r.State.OriginalID() }

// CreateStruct carries the input for a new role. The zero State creates a
// published role.
type CreateStruct struct {
	Identifier string `validate:"required,max=255"`
	State      State
	Policies   []Policy `validate:"dive"`
}

// UpdateStruct renames a role.
type UpdateStruct struct {
	ID         int64  `validate:"required"`
	Identifier string `validate:"required,max=255"`
}

// Assignment binds a role to a user or user group content item.
type Assignment struct {
	ID                   int64
	RoleID               int64
	ContentID            int64
	LimitationIdentifier string
	Values               []string
}
