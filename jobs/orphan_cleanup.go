package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/contentcore/contentcore/internal/jobs"
	"github.com/contentcore/contentcore/internal/ioservice"
	"github.com/contentcore/contentcore/internal/shared"
)

// OrphanCleanupJob deletes stored bytes that have no metadata.
type OrphanCleanupJob struct {
	Metadata ioservice.MetadataHandler
	Binary   ioservice.BinarydataHandler
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewOrphanCleanupJob initialises the cleanup handler.
func NewOrphanCleanupJob(metadata ioservice.MetadataHandler, binary ioservice.BinarydataHandler, logger *slog.Logger, metrics *jobmetrics.Metrics) *OrphanCleanupJob {
	return &OrphanCleanupJob{Metadata: metadata, Binary: binary, Logger: logger, Metrics: metrics}
}

// Handle processes TaskIOOrphanCleanup tasks. Bytes that regained metadata
// since the report are kept; bytes already gone count as success.
func (j *OrphanCleanupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Binary == nil {
		return errors.New("orphan cleanup: handler not configured")
	}
	var payload OrphanCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.SpiID == "" {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskIOOrphanCleanup)
	defer func() { err = tracker.End(err) }()

	logger := j.logger().With(slog.String("spi_id", payload.SpiID))

	if j.Metadata != nil {
		exists, err := j.Metadata.Exists(ctx, payload.SpiID)
		if err != nil {
			logger.Error("orphan metadata check failed", slog.Any("error", err))
			return err
		}
		if exists {
			logger.Info("orphan adopted by metadata, keeping bytes")
			j.Metrics.AddOrphans("adopted")
			return nil
		}
	}

	if err := j.Binary.Delete(ctx, payload.SpiID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			j.Metrics.AddOrphans("already_gone")
			return nil
		}
		logger.Error("orphan delete failed", slog.Any("error", err))
		return err
	}
	logger.Info("orphan removed", slog.String("cause", payload.Cause))
	j.Metrics.AddOrphans("removed")
	return nil
}

func (j *OrphanCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
