package user

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
		g.observer.ObserveGatewayError("user", op)
	}
	return &shared.DatabaseError{Op: "user." + op, Err: err}
}

func (g *exceptionConversion) WithTx(ctx context.Context, fn func(Gateway) error) error {
	err := g.inner.WithTx(ctx, func(inner Gateway) error {
		return fn(&exceptionConversion{inner: inner, observer: g.observer})
	})
	return g.convert("WithTx", err)
}

func (g *exceptionConversion) Load(ctx context.Context, userID int64) ([]UserRow, error) {
	rows, err := g.inner.Load(ctx, userID)
	return rows, g.convert("Load", err)
}

func (g *exceptionConversion) LoadByLogin(ctx context.Context, login string) ([]UserRow, error) {
	rows, err := g.inner.LoadByLogin(ctx, login)
	return rows, g.convert("LoadByLogin", err)
}

func (g *exceptionConversion) LoadByEmail(ctx context.Context, email string) ([]UserRow, error) {
	rows, err := g.inner.LoadByEmail(ctx, email)
	return rows, g.convert("LoadByEmail", err)
}

func (g *exceptionConversion) LoadUserByToken(ctx context.Context, hashKey string, now int64) ([]UserRow, error) {
	rows, err := g.inner.LoadUserByToken(ctx, hashKey, now)
	return rows, g.convert("LoadUserByToken", err)
}

func (g *exceptionConversion) UpdateUserToken(ctx context.Context, token TokenRecord) error {
	return g.convert("UpdateUserToken", g.inner.UpdateUserToken(ctx, token))
}

func (g *exceptionConversion) ExpireUserToken(ctx context.Context, hashKey string) error {
	return g.convert("ExpireUserToken", g.inner.ExpireUserToken(ctx, hashKey))
}

func (g *exceptionConversion) UpdatePassword(ctx context.Context, userID int64, hash string, hashType int, updatedAt int64) error {
	return g.convert("UpdatePassword", g.inner.UpdatePassword(ctx, userID, hash, hashType, updatedAt))
}

func (g *exceptionConversion) Delete(ctx context.Context, userID int64) error {
	return g.convert("Delete", g.inner.Delete(ctx, userID))
}
