package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/contentcore/contentcore/cmd/contentcore/cli"
	"github.com/contentcore/contentcore/internal/app"
	"github.com/contentcore/contentcore/internal/fieldtype"
	"github.com/contentcore/contentcore/internal/fieldtype/image"
	"github.com/contentcore/contentcore/internal/ioservice"
	"github.com/contentcore/contentcore/internal/platform/cache"
	"github.com/contentcore/contentcore/internal/platform/db"
	"github.com/contentcore/contentcore/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(".env")
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(cli.ExitError)
	}
	logger := app.NewLogger(cfg)

	registry, err := fieldtype.NewRegistry(fieldtype.NewAliasRegistry(fieldtype.DefaultAliases()), image.Type{})
	if err != nil {
		logger.Error("field type registry", slog.Any("error", err))
		os.Exit(cli.ExitError)
	}

	b := &backend{cfg: cfg, logger: logger}
	code := (&cli.CLI{Backend: b, FieldTypes: registry}).Run(ctx, os.Args[1:])
	b.close()
	os.Exit(code)
}

// backend connects to Postgres and Redis on first use.
type backend struct {
	cfg    *app.Config
	logger *slog.Logger

	poolOnce sync.Once
	pool     *pgxpool.Pool
	poolErr  error

	servicesOnce sync.Once
	services     *app.Services
	servicesErr  error

	jobsClient *jobs.Client
	redis      *redis.Client
	closeOnce  sync.Once
}

func (b *backend) db(ctx context.Context) (*pgxpool.Pool, error) {
	b.poolOnce.Do(func() {
		b.pool, b.poolErr = db.New(ctx, b.cfg.PGDSN, db.PoolOptions{})
	})
	return b.pool, b.poolErr
}

func (b *backend) appServices(ctx context.Context) (*app.Services, error) {
	b.servicesOnce.Do(func() {
		pool, err := b.db(ctx)
		if err != nil {
			b.servicesErr = err
			return
		}
		b.services, b.servicesErr = app.BuildServices(ctx, pool, nil, b.logger)
	})
	return b.services, b.servicesErr
}

func (b *backend) Roles(ctx context.Context) (cli.Roles, error) {
	s, err := b.appServices(ctx)
	if err != nil {
		return nil, err
	}
	return s.Roles, nil
}

func (b *backend) ObjectStates(ctx context.Context) (cli.ObjectStates, error) {
	s, err := b.appServices(ctx)
	if err != nil {
		return nil, err
	}
	return s.ObjectStates, nil
}

func (b *backend) Files(ctx context.Context) (ioservice.IOService, error) {
	deps := app.IODeps{Logger: b.logger}
	if b.cfg.IOMetadataHandler == app.MetadataHandlerDFS {
		pool, err := b.db(ctx)
		if err != nil {
			return nil, err
		}
		deps.Pool = pool
	}
	if b.cfg.IOMetadataCacheTTL > 0 {
		client, err := cache.New(ctx, b.cfg.RedisAddr)
		if err != nil {
			b.logger.Warn("metadata cache disabled", slog.Any("error", err))
		} else {
			b.redis = client
			deps.Redis = client
		}
	}
	deps.Orphans = b.queue()
	stack, err := app.BuildIOStack(b.cfg, deps)
	if err != nil {
		return nil, err
	}
	return stack.Service, nil
}

func (b *backend) queue() *jobs.Client {
	if b.jobsClient == nil {
		b.jobsClient = jobs.NewClient(asynq.RedisClientOpt{Addr: b.cfg.RedisAddr}, b.logger)
	}
	return b.jobsClient
}

func (b *backend) Jobs(context.Context) (cli.JobQueue, error) {
	return b.queue(), nil
}

func (b *backend) ApplySchema(ctx context.Context) error {
	pool, err := b.db(ctx)
	if err != nil {
		return err
	}
	return db.ApplySchema(ctx, pool)
}

func (b *backend) close() {
	b.closeOnce.Do(func() {
		if b.pool != nil {
			b.pool.Close()
		}
		if b.redis != nil {
			_ = b.redis.Close()
		}
		if b.jobsClient != nil {
			_ = b.jobsClient.Close()
		}
	})
}
