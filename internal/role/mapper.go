package role

// Mapper turns gateway rows into roles, policies and assignments.
type Mapper struct{}

// MapRole maps the rows of a single role. It returns false for an empty set.
func (m Mapper) MapRole(rows []RoleRow) (Role, bool) {
	roles := m.MapRoles(rows)
	if len(roles) == 0 {
		return Role{}, false
	}
	return roles[0], true
}

// MapRoles groups rows by role id, keeping the row order.
func (m Mapper) MapRoles(rows []RoleRow) []Role {
	var (
		roles    []Role
		index    = map[int64]int{}
		policies = map[int64]map[int64]int{}
	)
	for _, row := range rows {
		ri, ok := index[row.ID]
		if !ok {
			ri = len(roles)
			index[row.ID] = ri
			policies[row.ID] = map[int64]int{}
			roles = append(roles, Role{
				ID:         row.ID,
				Identifier: row.Identifier,
				State:      stateFromVersion(row.Version),
			})
		}
		if row.PolicyID == nil {
			continue
		}
		r := &roles[ri]
		pi, ok := policies[row.ID][*row.PolicyID]
		if !ok {
			pi = len(r.Policies)
			policies[row.ID][*row.PolicyID] = pi
			r.Policies = append(r.Policies, Policy{
				ID:         *row.PolicyID,
				RoleID:     row.ID,
				OriginalID: deref(row.PolicyOriginalID),
				Module:     deref(row.PolicyModule),
				Function:   deref(row.PolicyFunction),
			})
		}
		addLimitation(&r.Policies[pi], row.LimitationIdentifier, row.LimitationValue)
	}
	return roles
}

// MapPolicies maps policy rows, keeping the row order.
func (m Mapper) MapPolicies(rows []PolicyRow) []Policy {
	var (
		out   []Policy
		index = map[int64]int{}
	)
	for _, row := range rows {
		pi, ok := index[row.ID]
		if !ok {
			pi = len(out)
			index[row.ID] = pi
			out = append(out, Policy{
				ID:         row.ID,
				RoleID:     row.RoleID,
				OriginalID: row.OriginalID,
				Module:     row.Module,
				Function:   row.Function,
			})
		}
		addLimitation(&out[pi], row.LimitationIdentifier, row.LimitationValue)
	}
	return out
}

func addLimitation(p *Policy, identifier, value *string) {
	if identifier == nil || *identifier == "" {
		return
	}
	if p.Limitations == nil {
		p.Limitations = Limitations{}
	}
	values := p.Limitations[*identifier]
	if value != nil && !contains(values, *value) {
		values = append(values, *value)
	}
	if values == nil {
		values = []string{}
	}
	p.Limitations[*identifier] = values
}

type assignmentKey struct {
	roleID     int64
	contentID  int64
	identifier string
}

// MapRoleAssignments merges rows sharing role, content and limitation
// identifier into one assignment. An unlimited row supersedes every limited
// row of the same role and content.
func (m Mapper) MapRoleAssignments(rows []AssignmentRow) []Assignment {
	type pair struct{ roleID, contentID int64 }
	unlimited := map[pair]bool{}
	for _, row := range rows {
		if row.LimitIdentifier == "" {
			unlimited[pair{row.RoleID, row.ContentID}] = true
		}
	}

	var (
		out   []Assignment
		index = map[assignmentKey]int{}
	)
	for _, row := range rows {
		if row.LimitIdentifier != "" && unlimited[pair{row.RoleID, row.ContentID}] {
			continue
		}
		key := assignmentKey{row.RoleID, row.ContentID, row.LimitIdentifier}
		ai, ok := index[key]
		if !ok {
			ai = len(out)
			index[key] = ai
			out = append(out, Assignment{
				ID:                   row.ID,
				RoleID:               row.RoleID,
				ContentID:            row.ContentID,
				LimitationIdentifier: row.LimitIdentifier,
			})
		}
		if row.LimitIdentifier != "" && !contains(out[ai].Values, row.LimitValue) {
			out[ai].Values = append(out[ai].Values, row.LimitValue)
		}
	}
	return out
}

// RoleFromCreateStruct builds the role to persist.
func (m Mapper) RoleFromCreateStruct(cs CreateStruct) Role {
	r := Role{Identifier: cs.Identifier, State: cs.State}
	for _, p := range cs.Policies {
		r.Policies = append(r.Policies, Policy{
			ID:          p.ID,
			OriginalID:  p.OriginalID,
			Module:      p.Module,
			Function:    p.Function,
			Limitations: normalizeLimitations(p.Limitations),
		})
	}
	return r
}

// CreateStructFromRole copies a published role into a draft create struct.
func (m Mapper) CreateStructFromRole(r Role) CreateStruct {
	cs := CreateStruct{Identifier: r.Identifier, State: Draft(r.ID)}
	for _, p := range r.Policies {
		cs.Policies = append(cs.Policies, Policy{
			ID:          p.ID,
			Module:      p.Module,
			Function:    p.Function,
			Limitations: copyLimitations(p.Limitations),
		})
	}
	return cs
}

func normalizeLimitations(l Limitations) Limitations {
	if l.IsUnrestricted() {
		return nil
	}
	return copyLimitations(l)
}

func copyLimitations(l Limitations) Limitations {
	if l == nil {
		return nil
	}
	out := make(Limitations, len(l))
	for k, v := range l {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
