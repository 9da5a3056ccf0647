package objectstate

import (
	"context"

	"github.com/contentcore/contentcore/internal/shared"
)

type exceptionConversion struct {
	inner    Gateway
	observer shared.GatewayObserver
}

// NewExceptionConversion wraps a gateway so that driver errors surface as
// *shared.DatabaseError. observer may be nil.
func NewExceptionConversion(inner Gateway, observer shared.GatewayObserver) Gateway {
	return &exceptionConversion{inner: inner, observer: observer}
}

func (g *exceptionConversion) convert(op string, err error) error {
	if err == nil || shared.IsDomainError(err) {
		return err
	}
	if g.observer != nil {
		g.observer.ObserveGatewayError("objectstate", op)
	}
	return &shared.DatabaseError{Op: "objectstate." + op, Err: err}
}

func (g *exceptionConversion) WithTx(ctx context.Context, fn func(Gateway) error) error {
	err := g.inner.WithTx(ctx, func(inner Gateway) error {
		return fn(&exceptionConversion{inner: inner, observer: g.observer})
	})
	return g.convert("WithTx", err)
}

func (g *exceptionConversion) LoadGroup(ctx context.Context, groupID int64) ([]GroupRow, error) {
	rows, err := g.inner.LoadGroup(ctx, groupID)
	return rows, g.convert("LoadGroup", err)
}

func (g *exceptionConversion) LoadGroupByIdentifier(ctx context.Context, identifier string) ([]GroupRow, error) {
	rows, err := g.inner.LoadGroupByIdentifier(ctx, identifier)
	return rows, g.convert("LoadGroupByIdentifier", err)
}

func (g *exceptionConversion) LoadGroups(ctx context.Context, offset, limit int) ([]GroupRow, error) {
	rows, err := g.inner.LoadGroups(ctx, offset, limit)
	return rows, g.convert("LoadGroups", err)
}

func (g *exceptionConversion) InsertGroup(ctx context.Context, group Record) (int64, error) {
	id, err := g.inner.InsertGroup(ctx, group)
	return id, g.convert("InsertGroup", err)
}

func (g *exceptionConversion) UpdateGroup(ctx context.Context, group Record) error {
	return g.convert("UpdateGroup", g.inner.UpdateGroup(ctx, group))
}

func (g *exceptionConversion) DeleteGroup(ctx context.Context, groupID int64) error {
	return g.convert("DeleteGroup", g.inner.DeleteGroup(ctx, groupID))
}

func (g *exceptionConversion) LoadState(ctx context.Context, stateID int64) ([]StateRow, error) {
	rows, err := g.inner.LoadState(ctx, stateID)
	return rows, g.convert("LoadState", err)
}

func (g *exceptionConversion) LoadStateByIdentifier(ctx context.Context, identifier string, groupID int64) ([]StateRow, error) {
	rows, err := g.inner.LoadStateByIdentifier(ctx, identifier, groupID)
	return rows, g.convert("LoadStateByIdentifier", err)
}

func (g *exceptionConversion) LoadStates(ctx context.Context, groupID int64) ([]StateRow, error) {
	rows, err := g.inner.LoadStates(ctx, groupID)
	return rows, g.convert("LoadStates", err)
}

func (g *exceptionConversion) InsertState(ctx context.Context, groupID int64, priority int, state Record) (int64, error) {
	id, err := g.inner.InsertState(ctx, groupID, priority, state)
	return id, g.convert("InsertState", err)
}

func (g *exceptionConversion) UpdateState(ctx context.Context, state Record) error {
	return g.convert("UpdateState", g.inner.UpdateState(ctx, state))
}

func (g *exceptionConversion) UpdateStatePriority(ctx context.Context, stateID int64, priority int) error {
	return g.convert("UpdateStatePriority", g.inner.UpdateStatePriority(ctx, stateID, priority))
}

func (g *exceptionConversion) DeleteState(ctx context.Context, stateID int64) error {
	return g.convert("DeleteState", g.inner.DeleteState(ctx, stateID))
}

func (g *exceptionConversion) LinkAllContent(ctx context.Context, stateID int64) error {
	return g.convert("LinkAllContent", g.inner.LinkAllContent(ctx, stateID))
}

func (g *exceptionConversion) UpdateStateLinks(ctx context.Context, oldStateID, newStateID int64) error {
	return g.convert("UpdateStateLinks", g.inner.UpdateStateLinks(ctx, oldStateID, newStateID))
}

func (g *exceptionConversion) DeleteStateLinks(ctx context.Context, stateID int64) error {
	return g.convert("DeleteStateLinks", g.inner.DeleteStateLinks(ctx, stateID))
}

func (g *exceptionConversion) SetContentState(ctx context.Context, contentID, groupID, stateID int64) error {
	return g.convert("SetContentState", g.inner.SetContentState(ctx, contentID, groupID, stateID))
}

func (g *exceptionConversion) LoadContentState(ctx context.Context, contentID, groupID int64) ([]StateRow, error) {
	rows, err := g.inner.LoadContentState(ctx, contentID, groupID)
	return rows, g.convert("LoadContentState", err)
}

func (g *exceptionConversion) CountContent(ctx context.Context, stateID int64) (int, error) {
	count, err := g.inner.CountContent(ctx, stateID)
	return count, g.convert("CountContent", err)
}
