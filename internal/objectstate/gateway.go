package objectstate

import "context"

// GroupRow is one row of the group/translation join.
type GroupRow struct {
	ID                int64
	Identifier        string
	DefaultLanguageID int64
	LanguageMask      int64
	LanguageID        int64
	Name              string
	Description       string
}

// StateRow is one row of the state/translation join.
type StateRow struct {
	ID                int64
	GroupID           int64
	Identifier        string
	Priority          int
	DefaultLanguageID int64
	LanguageMask      int64
	LanguageID        int64
	Name              string
	Description       string
}

// Gateway is the SQL boundary for object states. Row loaders return an empty
// slice when nothing matches.
type Gateway interface {
	WithTx(ctx context.Context, fn func(Gateway) error) error

	LoadGroup(ctx context.Context, groupID int64) ([]GroupRow, error)
	LoadGroupByIdentifier(ctx context.Context, identifier string) ([]GroupRow, error)
	// LoadGroups pages over groups ordered by id. A non-positive limit means
	// no limit.
	LoadGroups(ctx context.Context, offset, limit int) ([]GroupRow, error)
	InsertGroup(ctx context.Context, group Record) (int64, error)
	UpdateGroup(ctx context.Context, group Record) error
	DeleteGroup(ctx context.Context, groupID int64) error

	LoadState(ctx context.Context, stateID int64) ([]StateRow, error)
	LoadStateByIdentifier(ctx context.Context, identifier string, groupID int64) ([]StateRow, error)
	// LoadStates returns the rows of every state of a group ordered by
	// priority.
	LoadStates(ctx context.Context, groupID int64) ([]StateRow, error)
	InsertState(ctx context.Context, groupID int64, priority int, state Record) (int64, error)
	UpdateState(ctx context.Context, state Record) error
	UpdateStatePriority(ctx context.Context, stateID int64, priority int) error
	DeleteState(ctx context.Context, stateID int64) error

	// LinkAllContent links every content item to the state.
	LinkAllContent(ctx context.Context, stateID int64) error
	UpdateStateLinks(ctx context.Context, oldStateID, newStateID int64) error
	DeleteStateLinks(ctx context.Context, stateID int64) error
	// SetContentState replaces the content's link within the group.
	SetContentState(ctx context.Context, contentID, groupID, stateID int64) error
	LoadContentState(ctx context.Context, contentID, groupID int64) ([]StateRow, error)
	CountContent(ctx context.Context, stateID int64) (int, error)
}
