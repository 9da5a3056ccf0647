package objectstate

import (
	"context"
	"errors"
	"sort"
)

type memoryState struct {
	groupID  int64
	priority int
	rec      Record
}

type memoryGateway struct {
	groups  map[int64]Record
	states  map[int64]memoryState
	links   map[int64]int64 // content id -> state id, single group in tests
	content []int64
	nextID  int64

	failOn string
}

var errInjected = errors.New("injected driver failure")

func newMemoryGateway(content ...int64) *memoryGateway {
	return &memoryGateway{
		groups:  make(map[int64]Record),
		states:  make(map[int64]memoryState),
		links:   make(map[int64]int64),
		content: content,
	}
}

func (g *memoryGateway) WithTx(ctx context.Context, fn func(Gateway) error) error {
	groups := make(map[int64]Record, len(g.groups))
	for k, v := range g.groups {
		groups[k] = v
	}
	states := make(map[int64]memoryState, len(g.states))
	for k, v := range g.states {
		states[k] = v
	}
	links := make(map[int64]int64, len(g.links))
	for k, v := range g.links {
		links[k] = v
	}
	if err := fn(g); err != nil {
		g.groups, g.states, g.links = groups, states, links
		return err
	}
	return nil
}

func (g *memoryGateway) fail(op string) error {
	if g.failOn == op {
		return errInjected
	}
	return nil
}

func groupRows(id int64, rec Record) []GroupRow {
	var rows []GroupRow
	for _, t := range rec.Translations {
		rows = append(rows, GroupRow{
			ID: id, Identifier: rec.Identifier, DefaultLanguageID: rec.DefaultLanguageID,
			LanguageMask: rec.LanguageMask, LanguageID: t.LanguageID, Name: t.Name, Description: t.Description,
		})
	}
	return rows
}

func stateRows(id int64, st memoryState) []StateRow {
	var rows []StateRow
	for _, t := range st.rec.Translations {
		rows = append(rows, StateRow{
			ID: id, GroupID: st.groupID, Identifier: st.rec.Identifier, Priority: st.priority,
			DefaultLanguageID: st.rec.DefaultLanguageID, LanguageMask: st.rec.LanguageMask,
			LanguageID: storedLanguageID(t.LanguageID, st.rec.DefaultLanguageID), Name: t.Name, Description: t.Description,
		})
	}
	return rows
}

func (g *memoryGateway) LoadGroup(ctx context.Context, groupID int64) ([]GroupRow, error) {
	if err := g.fail("LoadGroup"); err != nil {
		return nil, err
	}
	rec, ok := g.groups[groupID]
	if !ok {
		return nil, nil
	}
	return groupRows(groupID, rec), nil
}

func (g *memoryGateway) LoadGroupByIdentifier(ctx context.Context, identifier string) ([]GroupRow, error) {
	for id, rec := range g.groups {
		if rec.Identifier == identifier {
			return groupRows(id, rec), nil
		}
	}
	return nil, nil
}

func (g *memoryGateway) LoadGroups(ctx context.Context, offset, limit int) ([]GroupRow, error) {
	ids := make([]int64, 0, len(g.groups))
	for id := range g.groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	var rows []GroupRow
	for _, id := range ids {
		rows = append(rows, groupRows(id, g.groups[id])...)
	}
	return rows, nil
}

func (g *memoryGateway) InsertGroup(ctx context.Context, group Record) (int64, error) {
	g.nextID++
	group.ID = g.nextID
	g.groups[group.ID] = group
	return group.ID, nil
}

func (g *memoryGateway) UpdateGroup(ctx context.Context, group Record) error {
	g.groups[group.ID] = group
	return nil
}

func (g *memoryGateway) DeleteGroup(ctx context.Context, groupID int64) error {
	delete(g.groups, groupID)
	return nil
}

func (g *memoryGateway) LoadState(ctx context.Context, stateID int64) ([]StateRow, error) {
	st, ok := g.states[stateID]
	if !ok {
		return nil, nil
	}
	return stateRows(stateID, st), nil
}

func (g *memoryGateway) LoadStateByIdentifier(ctx context.Context, identifier string, groupID int64) ([]StateRow, error) {
	for id, st := range g.states {
		if st.groupID == groupID && st.rec.Identifier == identifier {
			return stateRows(id, st), nil
		}
	}
	return nil, nil
}

func (g *memoryGateway) LoadStates(ctx context.Context, groupID int64) ([]StateRow, error) {
	var ids []int64
	for id, st := range g.states {
		if st.groupID == groupID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := g.states[ids[i]].priority, g.states[ids[j]].priority
		if pi != pj {
			return pi < pj
		}
		return ids[i] < ids[j]
	})
	var rows []StateRow
	for _, id := range ids {
		rows = append(rows, stateRows(id, g.states[id])...)
	}
	return rows, nil
}

func (g *memoryGateway) InsertState(ctx context.Context, groupID int64, priority int, state Record) (int64, error) {
	g.nextID++
	state.ID = g.nextID
	g.states[state.ID] = memoryState{groupID: groupID, priority: priority, rec: state}
	return state.ID, nil
}

func (g *memoryGateway) UpdateState(ctx context.Context, state Record) error {
	st := g.states[state.ID]
	st.rec = state
	g.states[state.ID] = st
	return nil
}

func (g *memoryGateway) UpdateStatePriority(ctx context.Context, stateID int64, priority int) error {
	if err := g.fail("UpdateStatePriority"); err != nil {
		return err
	}
	st := g.states[stateID]
	st.priority = priority
	g.states[stateID] = st
	return nil
}

func (g *memoryGateway) DeleteState(ctx context.Context, stateID int64) error {
	delete(g.states, stateID)
	return nil
}

func (g *memoryGateway) LinkAllContent(ctx context.Context, stateID int64) error {
	for _, id := range g.content {
		g.links[id] = stateID
	}
	return nil
}

func (g *memoryGateway) UpdateStateLinks(ctx context.Context, oldStateID, newStateID int64) error {
	for content, state := range g.links {
		if state == oldStateID {
			g.links[content] = newStateID
		}
	}
	return nil
}

func (g *memoryGateway) DeleteStateLinks(ctx context.Context, stateID int64) error {
	for content, state := range g.links {
		if state == stateID {
			delete(g.links, content)
		}
	}
	return nil
}

func (g *memoryGateway) SetContentState(ctx context.Context, contentID, groupID, stateID int64) error {
	g.links[contentID] = stateID
	return nil
}

func (g *memoryGateway) LoadContentState(ctx context.Context, contentID, groupID int64) ([]StateRow, error) {
	stateID, ok := g.links[contentID]
	if !ok || g.states[stateID].groupID != groupID {
		return nil, nil
	}
	return stateRows(stateID, g.states[stateID]), nil
}

func (g *memoryGateway) CountContent(ctx context.Context, stateID int64) (int, error) {
	count := 0
	for _, state := range g.links {
		if state == stateID {
			count++
		}
	}
	return count, nil
}
