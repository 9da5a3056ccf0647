package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueIO carries binary storage maintenance.
	QueueIO = "io"
	// TaskIOOrphanCleanup removes bytes left behind by a failed file create.
	TaskIOOrphanCleanup = "io:orphan-cleanup"
)

// OrphanCleanupPayload names a storage id whose bytes may have no metadata.
type OrphanCleanupPayload struct {
	SpiID      string    `json:"spi_id"`
	Cause      string    `json:"cause,omitempty"`
	ReportedAt time.Time `json:"reported_at"`
}

// NewOrphanCleanupTask constructs the cleanup task. The task id is derived
// from the storage id so repeated reports collapse into one pending task.
func NewOrphanCleanupTask(payload OrphanCleanupPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIOOrphanCleanup, body,
		asynq.Queue(QueueIO),
		asynq.TaskID("orphan:"+payload.SpiID),
		asynq.MaxRetry(10),
	), nil
}
