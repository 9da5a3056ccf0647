package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contentcore/contentcore/internal/language"
	"github.com/contentcore/contentcore/internal/objectstate"
	"github.com/contentcore/contentcore/internal/role"
	"github.com/contentcore/contentcore/internal/shared"
	"github.com/contentcore/contentcore/internal/user"
)

// Services are the persistence services built over one pool.
type Services struct {
	Languages    *language.Resolver
	Roles        *role.Service
	ObjectStates *objectstate.Service
	Users        *user.Service
}

// BuildServices wraps every gateway in exception conversion and loads the
// language table once.
func BuildServices(ctx context.Context, pool *pgxpool.Pool, observer shared.GatewayObserver, logger *slog.Logger) (*Services, error) {
	languages, err := language.LoadResolver(ctx, language.NewRepository(pool))
	if err != nil {
		return nil, fmt.Errorf("app: load languages: %w", err)
	}
	return &Services{
		Languages:    languages,
		Roles:        role.NewService(role.NewExceptionConversion(role.NewGateway(pool), observer), logger),
		ObjectStates: objectstate.NewService(objectstate.NewExceptionConversion(objectstate.NewGateway(pool), observer), languages, logger),
		Users:        user.NewService(user.NewExceptionConversion(user.NewGateway(pool), observer), logger),
	}, nil
}
