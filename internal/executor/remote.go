package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/genstudio/api/internal/config"
	"github.com/genstudio/api/internal/model"
)

// TaskTypeVideoGenerate is the asynq task type consumed by the remote
// video job receiver.
const TaskTypeVideoGenerate = "video:generate"

// Publisher is the slice of asynq.Client the remote backend needs.
type Publisher interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RemoteBackend serializes the job into a JobEnvelope and publishes it to
// the configured queue. It never runs generation itself; a worker fleet
// consuming the queue does.
type RemoteBackend struct {
	publisher Publisher
	queue     string
	maxRetry  int
}

func NewRemoteBackend(publisher Publisher, cfg *config.ExecutorConfig) *RemoteBackend {
	return &RemoteBackend{
		publisher: publisher,
		queue:     cfg.Queue,
		maxRetry:  cfg.MaxRetry,
	}
}

// Submit publishes the envelope. Publish failures are returned to the
// caller so the dispatcher can fail the already-created record instead of
// leaving it pending forever.
func (b *RemoteBackend) Submit(ctx context.Context, mediaItemID string, req *model.GenerateVideoRequest) error {
	env := &model.JobEnvelope{
		MediaItemID: mediaItemID,
		RequestDTO:  *req,
	}

	payload, err := env.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode job envelope: %w", err)
	}

	task := asynq.NewTask(TaskTypeVideoGenerate, payload)
	info, err := b.publisher.Enqueue(task,
		asynq.Queue(b.queue),
		asynq.MaxRetry(b.maxRetry),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue video job: %w", err)
	}

	log.Printf("[executor] queued video job %s (task=%s queue=%s)", mediaItemID, info.ID, info.Queue)
	return nil
}
