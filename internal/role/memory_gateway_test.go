package role

import (
	"context"
	"errors"
	"sort"
)

type memoryRole struct {
	identifier string
	version    int64
}

type memoryPolicy struct {
	roleID      int64
	originalID  int64
	module      string
	function    string
	limitations Limitations
}

type memoryGateway struct {
	roles       map[int64]memoryRole
	policies    map[int64]memoryPolicy
	assignments []AssignmentRow
	parents     map[int64]int64
	nextID      int64

	failOn string
	txs    int
}

var errInjected = errors.New("injected driver failure")

func newMemoryGateway() *memoryGateway {
	return &memoryGateway{
		roles:    make(map[int64]memoryRole),
		policies: make(map[int64]memoryPolicy),
		parents:  make(map[int64]int64),
		nextID:   100,
	}
}

func (g *memoryGateway) id() int64 {
	g.nextID++
	return g.nextID
}

func (g *memoryGateway) fail(op string) error {
	if g.failOn == op {
		return errInjected
	}
	return nil
}

// WithTx snapshots the tables and restores them when fn fails.
func (g *memoryGateway) WithTx(ctx context.Context, fn func(Gateway) error) error {
	g.txs++
	roles := make(map[int64]memoryRole, len(g.roles))
	for k, v := range g.roles {
		roles[k] = v
	}
	policies := make(map[int64]memoryPolicy, len(g.policies))
	for k, v := range g.policies {
		policies[k] = v
	}
	assignments := append([]AssignmentRow(nil), g.assignments...)
	if err := fn(g); err != nil {
		g.roles, g.policies, g.assignments = roles, policies, assignments
		return err
	}
	return nil
}

func matchesStatus(version int64, status Status) bool {
	if status == StatusDraft {
		return version != 0
	}
	return version == 0
}

func (g *memoryGateway) roleRows(match func(int64, memoryRole) bool) []RoleRow {
	var ids []int64
	for id, r := range g.roles {
		if match(id, r) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var rows []RoleRow
	for _, id := range ids {
		r := g.roles[id]
		base := RoleRow{ID: id, Identifier: r.identifier, Version: r.version}
		var policyIDs []int64
		for pid, p := range g.policies {
			if p.roleID == id {
				policyIDs = append(policyIDs, pid)
			}
		}
		if len(policyIDs) == 0 {
			rows = append(rows, base)
			continue
		}
		sort.Slice(policyIDs, func(i, j int) bool { return policyIDs[i] < policyIDs[j] })
		for _, pid := range policyIDs {
			p := g.policies[pid]
			row := base
			row.PolicyID = ptr(pid)
			row.PolicyModule = ptr(p.module)
			row.PolicyFunction = ptr(p.function)
			row.PolicyOriginalID = ptr(p.originalID)
			if len(p.limitations) == 0 {
				rows = append(rows, row)
				continue
			}
			for _, identifier := range sortedKeys(p.limitations) {
				for _, value := range p.limitations[identifier] {
					lrow := row
					lrow.LimitationIdentifier = ptr(identifier)
					lrow.LimitationValue = ptr(value)
					rows = append(rows, lrow)
				}
			}
		}
	}
	return rows
}

func (g *memoryGateway) CreateRole(ctx context.Context, r Role) (int64, error) {
	if err := g.fail("CreateRole"); err != nil {
		return 0, err
	}
	id := g.id()
	g.roles[id] = memoryRole{identifier: r.Identifier, version: versionFromState(r.State)}
	return id, nil
}

func (g *memoryGateway) LoadRole(ctx context.Context, roleID int64, status Status) ([]RoleRow, error) {
	if err := g.fail("LoadRole"); err != nil {
		return nil, err
	}
	return g.roleRows(func(id int64, r memoryRole) bool {
		return id == roleID && matchesStatus(r.version, status)
	}), nil
}

func (g *memoryGateway) LoadRoleByIdentifier(ctx context.Context, identifier string, status Status) ([]RoleRow, error) {
	return g.roleRows(func(_ int64, r memoryRole) bool {
		return r.identifier == identifier && matchesStatus(r.version, status)
	}), nil
}

func (g *memoryGateway) LoadRoleDraftByRoleID(ctx context.Context, roleID int64) ([]RoleRow, error) {
	return g.roleRows(func(_ int64, r memoryRole) bool { return r.version == roleID }), nil
}

func (g *memoryGateway) LoadRoles(ctx context.Context) ([]RoleRow, error) {
	return g.roleRows(func(_ int64, r memoryRole) bool { return r.version == 0 }), nil
}

func (g *memoryGateway) UpdateRole(ctx context.Context, update UpdateStruct) error {
	r, ok := g.roles[update.ID]
	if ok {
		r.identifier = update.Identifier
		g.roles[update.ID] = r
	}
	return nil
}

func (g *memoryGateway) DeleteRole(ctx context.Context, roleID int64, status Status) error {
	r, ok := g.roles[roleID]
	if !ok || !matchesStatus(r.version, status) {
		return nil
	}
	if status == StatusDefined {
		g.filterAssignments(func(a AssignmentRow) bool { return a.RoleID != roleID })
	}
	delete(g.roles, roleID)
	return nil
}

func (g *memoryGateway) PublishRoleDraft(ctx context.Context, draftID, originalID int64) error {
	if err := g.fail("PublishRoleDraft"); err != nil {
		return err
	}
	r := g.roles[draftID]
	r.version = 0
	target := draftID
	if originalID != 0 {
		delete(g.roles, draftID)
		target = originalID
	}
	g.roles[target] = r
	for id, p := range g.policies {
		if p.roleID == draftID {
			p.roleID = target
			p.originalID = 0
			g.policies[id] = p
		}
	}
	for i := range g.assignments {
		if g.assignments[i].RoleID == draftID {
			g.assignments[i].RoleID = target
		}
	}
	return nil
}

func (g *memoryGateway) AddPolicy(ctx context.Context, roleID int64, p Policy) (int64, error) {
	id := g.id()
	g.policies[id] = memoryPolicy{roleID: roleID, originalID: p.OriginalID, module: p.Module, function: p.Function}
	return id, nil
}

func (g *memoryGateway) AddPolicyLimitations(ctx context.Context, policyID int64, limitations Limitations) error {
	p := g.policies[policyID]
	p.limitations = copyLimitations(limitations)
	g.policies[policyID] = p
	return nil
}

func (g *memoryGateway) RemovePolicy(ctx context.Context, policyID int64) error {
	delete(g.policies, policyID)
	return nil
}

func (g *memoryGateway) RemovePolicyLimitations(ctx context.Context, policyID int64) error {
	p, ok := g.policies[policyID]
	if ok {
		p.limitations = nil
		g.policies[policyID] = p
	}
	return nil
}

func (g *memoryGateway) LoadPoliciesByUserID(ctx context.Context, userID int64) ([]PolicyRow, error) {
	holders := g.withAncestors(userID)
	granted := map[int64]bool{}
	for _, a := range g.assignments {
		if holders[a.ContentID] && g.roles[a.RoleID].version == 0 {
			if _, ok := g.roles[a.RoleID]; ok {
				granted[a.RoleID] = true
			}
		}
	}
	var ids []int64
	for id, p := range g.policies {
		if granted[p.roleID] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var rows []PolicyRow
	for _, id := range ids {
		p := g.policies[id]
		base := PolicyRow{ID: id, RoleID: p.roleID, OriginalID: p.originalID, Module: p.module, Function: p.function}
		if len(p.limitations) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, identifier := range sortedKeys(p.limitations) {
			for _, value := range p.limitations[identifier] {
				row := base
				row.LimitationIdentifier = ptr(identifier)
				row.LimitationValue = ptr(value)
				rows = append(rows, row)
			}
		}
	}
	return rows, nil
}

func (g *memoryGateway) AssignRole(ctx context.Context, contentID, roleID int64, limitation Limitations) error {
	if err := g.fail("AssignRole"); err != nil {
		return err
	}
	if limitation.IsUnrestricted() {
		g.assignments = append(g.assignments, AssignmentRow{ID: g.id(), RoleID: roleID, ContentID: contentID})
		return nil
	}
	for _, identifier := range sortedKeys(limitation) {
		for _, value := range limitation[identifier] {
			g.assignments = append(g.assignments, AssignmentRow{
				ID: g.id(), RoleID: roleID, ContentID: contentID,
				LimitIdentifier: identifier, LimitValue: value,
			})
		}
	}
	return nil
}

func (g *memoryGateway) filterAssignments(keep func(AssignmentRow) bool) {
	out := g.assignments[:0:0]
	for _, a := range g.assignments {
		if keep(a) {
			out = append(out, a)
		}
	}
	g.assignments = out
}

func (g *memoryGateway) UnassignRole(ctx context.Context, contentID, roleID int64) error {
	g.filterAssignments(func(a AssignmentRow) bool { return a.ContentID != contentID || a.RoleID != roleID })
	return nil
}

func (g *memoryGateway) RemoveRoleAssignmentByID(ctx context.Context, assignmentID int64) error {
	g.filterAssignments(func(a AssignmentRow) bool { return a.ID != assignmentID })
	return nil
}

func (g *memoryGateway) selectAssignments(match func(AssignmentRow) bool) []AssignmentRow {
	var rows []AssignmentRow
	for _, a := range g.assignments {
		if match(a) {
			rows = append(rows, a)
		}
	}
	return rows
}

func (g *memoryGateway) LoadRoleAssignment(ctx context.Context, assignmentID int64) ([]AssignmentRow, error) {
	return g.selectAssignments(func(a AssignmentRow) bool { return a.ID == assignmentID }), nil
}

func (g *memoryGateway) LoadRoleAssignmentsByRoleID(ctx context.Context, roleID int64) ([]AssignmentRow, error) {
	return g.selectAssignments(func(a AssignmentRow) bool { return a.RoleID == roleID }), nil
}

func (g *memoryGateway) LoadRoleAssignmentsByRoleIDWithOffsetAndLimit(ctx context.Context, roleID int64, offset, limit int) ([]AssignmentRow, error) {
	rows := g.selectAssignments(func(a AssignmentRow) bool { return a.RoleID == roleID })
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

func (g *memoryGateway) CountRoleAssignments(ctx context.Context, roleID int64) (int, error) {
	return len(g.selectAssignments(func(a AssignmentRow) bool { return a.RoleID == roleID })), nil
}

func (g *memoryGateway) LoadRoleAssignmentsByGroupID(ctx context.Context, groupID int64, inherited bool) ([]AssignmentRow, error) {
	holders := map[int64]bool{groupID: true}
	if inherited {
		holders = g.withAncestors(groupID)
	}
	return g.selectAssignments(func(a AssignmentRow) bool { return holders[a.ContentID] }), nil
}

func (g *memoryGateway) withAncestors(contentID int64) map[int64]bool {
	out := map[int64]bool{contentID: true}
	for parent, ok := g.parents[contentID]; ok; parent, ok = g.parents[parent] {
		out[parent] = true
	}
	return out
}

func sortedKeys(l Limitations) []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func ptr[T any](v T) *T { return &v }
