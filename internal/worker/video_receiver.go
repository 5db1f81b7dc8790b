package worker

import (
	"context"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/genstudio/api/internal/model"
	"github.com/genstudio/api/internal/service"
)

// VideoJobReceiver consumes queued video jobs published by the remote
// execution backend and runs them through the shared Generator.
//
// Failure routing: a message that can never succeed (missing payload, bad
// base64/UTF-8, bad JSON, schema violation) is rejected permanently with
// asynq.SkipRetry; redelivering it would loop forever. Anything unexpected
// is returned as a plain error so the queue redelivers, on the assumption
// the failure is transient infrastructure trouble rather than bad data.
type VideoJobReceiver struct {
	generator *service.Generator
	validate  *validator.Validate
}

func NewVideoJobReceiver(generator *service.Generator, validate *validator.Validate) *VideoJobReceiver {
	return &VideoJobReceiver{
		generator: generator,
		validate:  validate,
	}
}

// ProcessTask handles one queued video job.
func (r *VideoJobReceiver) ProcessTask(ctx context.Context, t *asynq.Task) error {
	env, err := model.DecodeJobEnvelope(t.Payload())
	if err != nil {
		log.Printf("[receiver] rejecting malformed video job message: %v", err)
		return fmt.Errorf("malformed video job message: %v: %w", err, asynq.SkipRetry)
	}

	if err := r.validate.Struct(env); err != nil {
		log.Printf("[receiver] rejecting schema-invalid video job %s: %v", env.MediaItemID, err)
		return fmt.Errorf("invalid video job envelope: %v: %w", err, asynq.SkipRetry)
	}

	log.Printf("[receiver] processing video job %s", env.MediaItemID)
	return r.generator.Run(ctx, env.MediaItemID, &env.RequestDTO)
}
