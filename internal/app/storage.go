package app

import (
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"github.com/contentcore/contentcore/internal/ioservice"
	iocache "github.com/contentcore/contentcore/internal/ioservice/cache"
	"github.com/contentcore/contentcore/internal/ioservice/dfs"
	"github.com/contentcore/contentcore/internal/ioservice/filesystem"
)

// IODeps are the runtime handles the IO stack is built from. Pool is
// required for the dfs metadata handler; Redis enables the metadata cache.
type IODeps struct {
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	StorageFs afero.Fs
	LocalFs   afero.Fs
	Orphans   ioservice.OrphanReporter
	Observer  ioservice.Observer
	Logger    *slog.Logger
}

// IOStack is the assembled IO service with the handlers behind it.
type IOStack struct {
	Service  *ioservice.ScopeAwareService
	Metadata ioservice.MetadataHandler
	Binary   ioservice.BinarydataHandler
}

// BuildIOStack wires handlers, decorators and the service from configuration.
func BuildIOStack(cfg *Config, deps IODeps) (*IOStack, error) {
	if cfg == nil {
		return nil, errors.New("app: io stack needs config")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	storage := deps.StorageFs
	if storage == nil {
		storage = afero.NewOsFs()
	}

	binary := filesystem.NewBinarydataHandler(storage, cfg.IORootDir, cfg.IOURLPrefix)

	var metadata ioservice.MetadataHandler
	switch cfg.IOMetadataHandler {
	case MetadataHandlerDFS:
		if deps.Pool == nil {
			return nil, errors.New("app: dfs metadata handler needs a database pool")
		}
		metadata = dfs.NewMetadataHandler(deps.Pool)
	case MetadataHandlerFilesystem:
		metadata = filesystem.NewMetadataHandler(storage, cfg.IORootDir, ioservice.Detector{})
	default:
		return nil, errors.New("app: unknown metadata handler " + cfg.IOMetadataHandler)
	}
	if cfg.IOMetadataCacheTTL > 0 && deps.Redis != nil {
		metadata = iocache.NewMetadataHandler(metadata, deps.Redis, cfg.IOMetadataCacheTTL, logger)
	}

	opts := []ioservice.Option{
		ioservice.WithPrefix(cfg.IOPrefix),
		ioservice.WithLogger(logger),
	}
	if deps.LocalFs != nil {
		opts = append(opts, ioservice.WithLocalFs(deps.LocalFs))
	}
	if deps.Orphans != nil {
		opts = append(opts, ioservice.WithOrphanReporter(deps.Orphans))
	}
	if deps.Observer != nil {
		opts = append(opts, ioservice.WithObserver(deps.Observer))
	}
	core := ioservice.NewService(metadata, binary, opts...)

	var svc ioservice.IOService = core
	if cfg.IOTolerant {
		svc = ioservice.NewTolerantService(core)
	}
	return &IOStack{
		Service:  ioservice.NewScopeAwareService(svc, cfg, IOPrefixParameter, logger),
		Metadata: metadata,
		Binary:   binary,
	}, nil
}
