package objectstate

import (
	"context"
	"log/slog"

	"github.com/contentcore/contentcore/internal/language"
	"github.com/contentcore/contentcore/internal/shared"
)

// Service implements object state use cases.
type Service struct {
	gateway Gateway
	mapper  Mapper
	logger  *slog.Logger
}

// NewService builds a Service. logger may be nil.
func NewService(gateway Gateway, languages language.Lookup, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, mapper: NewMapper(languages), logger: logger}
}

// CreateGroup persists a new group.
func (s *Service) CreateGroup(ctx context.Context, in InputStruct) (Group, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return Group{}, err
	}
	rec, err := s.mapper.Record(0, in)
	if err != nil {
		return Group{}, err
	}
	var group Group
	err = s.gateway.WithTx(ctx, func(g Gateway) error {
		id, err := g.InsertGroup(ctx, rec)
		if err != nil {
			return err
		}
		group, err = s.loadGroup(ctx, g, id)
		return err
	})
	return group, err
}

// LoadGroup loads a group by id.
func (s *Service) LoadGroup(ctx context.Context, groupID int64) (Group, error) {
	return s.loadGroup(ctx, s.gateway, groupID)
}

func (s *Service) loadGroup(ctx context.Context, g Gateway, groupID int64) (Group, error) {
	rows, err := g.LoadGroup(ctx, groupID)
	if err != nil {
		return Group{}, err
	}
	groups := s.mapper.MapGroups(rows)
	if len(groups) == 0 {
		return Group{}, shared.NewNotFound("ObjectStateGroup", groupID)
	}
	return groups[0], nil
}

// LoadGroupByIdentifier loads a group by identifier.
func (s *Service) LoadGroupByIdentifier(ctx context.Context, identifier string) (Group, error) {
	rows, err := s.gateway.LoadGroupByIdentifier(ctx, identifier)
	if err != nil {
		return Group{}, err
	}
	groups := s.mapper.MapGroups(rows)
	if len(groups) == 0 {
		return Group{}, shared.NewNotFound("ObjectStateGroup", identifier)
	}
	return groups[0], nil
}

// LoadAllGroups pages over groups. A non-positive limit means no limit.
func (s *Service) LoadAllGroups(ctx context.Context, offset, limit int) ([]Group, error) {
	if offset < 0 {
		return nil, shared.NewInvalidArgument("offset", "must not be negative")
	}
	rows, err := s.gateway.LoadGroups(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.mapper.MapGroups(rows), nil
}

// LoadObjectStates returns the states of a group ordered by priority.
func (s *Service) LoadObjectStates(ctx context.Context, groupID int64) ([]State, error) {
	return s.loadStates(ctx, s.gateway, groupID)
}

func (s *Service) loadStates(ctx context.Context, g Gateway, groupID int64) ([]State, error) {
	rows, err := g.LoadStates(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.mapper.MapStates(rows), nil
}

// UpdateGroup replaces a group's identifier, languages and translations.
func (s *Service) UpdateGroup(ctx context.Context, groupID int64, in InputStruct) (Group, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return Group{}, err
	}
	rec, err := s.mapper.Record(groupID, in)
	if err != nil {
		return Group{}, err
	}
	var group Group
	err = s.gateway.WithTx(ctx, func(g Gateway) error {
		if _, err := s.loadGroup(ctx, g, groupID); err != nil {
			return err
		}
		if err := g.UpdateGroup(ctx, rec); err != nil {
			return err
		}
		group, err = s.loadGroup(ctx, g, groupID)
		return err
	})
	return group, err
}

// DeleteGroup deletes a group with all its states and their content links.
func (s *Service) DeleteGroup(ctx context.Context, groupID int64) error {
	return s.gateway.WithTx(ctx, func(g Gateway) error {
		if _, err := s.loadGroup(ctx, g, groupID); err != nil {
			return err
		}
		states, err := s.loadStates(ctx, g, groupID)
		if err != nil {
			return err
		}
		for _, st := range states {
			if err := g.DeleteStateLinks(ctx, st.ID); err != nil {
				return err
			}
			if err := g.DeleteState(ctx, st.ID); err != nil {
				return err
			}
		}
		return g.DeleteGroup(ctx, groupID)
	})
}

// Create adds a state at the end of a group. The first state of a group is
// linked to every existing content item.
func (s *Service) Create(ctx context.Context, groupID int64, in InputStruct) (State, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return State{}, err
	}
	rec, err := s.mapper.Record(0, in)
	if err != nil {
		return State{}, err
	}
	var state State
	err = s.gateway.WithTx(ctx, func(g Gateway) error {
		if _, err := s.loadGroup(ctx, g, groupID); err != nil {
			return err
		}
		siblings, err := s.loadStates(ctx, g, groupID)
		if err != nil {
			return err
		}
		priority := 0
		for _, sib := range siblings {
			if sib.Priority >= priority {
				priority = sib.Priority + 1
			}
		}
		id, err := g.InsertState(ctx, groupID, priority, rec)
		if err != nil {
			return err
		}
		if len(siblings) == 0 {
			s.logger.Debug("link all content to first object state",
				slog.Int64("group_id", groupID), slog.Int64("state_id", id))
			if err := g.LinkAllContent(ctx, id); err != nil {
				return err
			}
		}
		state, err = s.load(ctx, g, id)
		return err
	})
	return state, err
}

// Load loads a state by id.
func (s *Service) Load(ctx context.Context, stateID int64) (State, error) {
	return s.load(ctx, s.gateway, stateID)
}

func (s *Service) load(ctx context.Context, g Gateway, stateID int64) (State, error) {
	rows, err := g.LoadState(ctx, stateID)
	if err != nil {
		return State{}, err
	}
	states := s.mapper.MapStates(rows)
	if len(states) == 0 {
		return State{}, shared.NewNotFound("ObjectState", stateID)
	}
	return states[0], nil
}

// LoadByIdentifier loads a state by identifier within a group.
func (s *Service) LoadByIdentifier(ctx context.Context, identifier string, groupID int64) (State, error) {
	rows, err := s.gateway.LoadStateByIdentifier(ctx, identifier, groupID)
	if err != nil {
		return State{}, err
	}
	states := s.mapper.MapStates(rows)
	if len(states) == 0 {
		return State{}, shared.NewNotFound("ObjectState", map[string]any{"identifier": identifier, "groupId": groupID})
	}
	return states[0], nil
}

// Update replaces a state's identifier, languages and translations.
func (s *Service) Update(ctx context.Context, stateID int64, in InputStruct) (State, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return State{}, err
	}
	rec, err := s.mapper.Record(stateID, in)
	if err != nil {
		return State{}, err
	}
	var state State
	err = s.gateway.WithTx(ctx, func(g Gateway) error {
		if _, err := s.load(ctx, g, stateID); err != nil {
			return err
		}
		if err := g.UpdateState(ctx, rec); err != nil {
			return err
		}
		state, err = s.load(ctx, g, stateID)
		return err
	})
	return state, err
}

// SetPriority moves a state to position priority within its group and
// renumbers every sibling 0..n-1 keeping the relative order of the others.
// Out of range priorities are clamped.
func (s *Service) SetPriority(ctx context.Context, stateID int64, priority int) error {
	return s.gateway.WithTx(ctx, func(g Gateway) error {
		state, err := s.load(ctx, g, stateID)
		if err != nil {
			return err
		}
		siblings, err := s.loadStates(ctx, g, state.GroupID)
		if err != nil {
			return err
		}
		order := make([]int64, 0, len(siblings))
		for _, sib := range siblings {
			if sib.ID != stateID {
				order = append(order, sib.ID)
			}
		}
		if priority < 0 {
			priority = 0
		}
		if priority > len(order) {
			priority = len(order)
		}
		order = append(order[:priority], append([]int64{stateID}, order[priority:]...)...)
		return renumber(ctx, g, siblings, order)
	})
}

// Delete removes a state. Content linked to it moves to the first remaining
// state of the group, or loses its link when none remains.
func (s *Service) Delete(ctx context.Context, stateID int64) error {
	return s.gateway.WithTx(ctx, func(g Gateway) error {
		state, err := s.load(ctx, g, stateID)
		if err != nil {
			return err
		}
		siblings, err := s.loadStates(ctx, g, state.GroupID)
		if err != nil {
			return err
		}
		order := make([]int64, 0, len(siblings))
		for _, sib := range siblings {
			if sib.ID != stateID {
				order = append(order, sib.ID)
			}
		}
		if len(order) > 0 {
			err = g.UpdateStateLinks(ctx, stateID, order[0])
		} else {
			err = g.DeleteStateLinks(ctx, stateID)
		}
		if err != nil {
			return err
		}
		if err := g.DeleteState(ctx, stateID); err != nil {
			return err
		}
		s.logger.Debug("deleted object state",
			slog.Int64("state_id", stateID), slog.Int("remaining", len(order)))
		return renumber(ctx, g, siblings, order)
	})
}

// renumber assigns priority i to order[i], skipping states already there.
func renumber(ctx context.Context, g Gateway, current []State, order []int64) error {
	priorities := make(map[int64]int, len(current))
	for _, st := range current {
		priorities[st.ID] = st.Priority
	}
	for i, id := range order {
		if p, ok := priorities[id]; ok && p == i {
			continue
		}
		if err := g.UpdateStatePriority(ctx, id, i); err != nil {
			return err
		}
	}
	return nil
}

// SetContentState links a content item to a state of the group, replacing
// its previous state in that group.
func (s *Service) SetContentState(ctx context.Context, contentID, groupID, stateID int64) error {
	return s.gateway.WithTx(ctx, func(g Gateway) error {
		state, err := s.load(ctx, g, stateID)
		if err != nil {
			return err
		}
		if state.GroupID != groupID {
			return shared.NewInvalidArgument("stateId", "state %d does not belong to group %d", stateID, groupID)
		}
		return g.SetContentState(ctx, contentID, groupID, stateID)
	})
}

// GetContentState returns the state of a content item within a group.
func (s *Service) GetContentState(ctx context.Context, contentID, groupID int64) (State, error) {
	rows, err := s.gateway.LoadContentState(ctx, contentID, groupID)
	if err != nil {
		return State{}, err
	}
	states := s.mapper.MapStates(rows)
	if len(states) == 0 {
		return State{}, shared.NewNotFound("ObjectState", map[string]any{"contentId": contentID, "groupId": groupID})
	}
	return states[0], nil
}

// GetContentCount counts content items linked to a state.
func (s *Service) GetContentCount(ctx context.Context, stateID int64) (int, error) {
	return s.gateway.CountContent(ctx, stateID)
}
