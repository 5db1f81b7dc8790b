package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/genstudio/api/internal/client"
	"github.com/genstudio/api/internal/model"
	"github.com/genstudio/api/internal/store"
)

// Generator executes one video generation job end to end: invoke the model,
// then apply the terminal state transition to the media item. Both the local
// worker pool and the remote job receiver run jobs through the same
// Generator, so the two paths cannot drift apart.
type Generator struct {
	store store.MediaStore
	veo   client.VideoGenerator // nil falls back to placeholder results
}

func NewGenerator(mediaStore store.MediaStore, veo client.VideoGenerator) *Generator {
	return &Generator{store: mediaStore, veo: veo}
}

// Run executes the generation call for mediaItemID and records the outcome.
//
// Error contract: a non-nil return means an unexpected infrastructure
// failure (the record store was unreachable) and the job is safe to retry.
// Generation failures are anticipated: they are recorded on the media item
// as FAILED and Run returns nil. Duplicate completions against a record
// already in a terminal state are logged and discarded.
func (g *Generator) Run(ctx context.Context, mediaItemID string, req *model.GenerateVideoRequest) error {
	log.Printf("[generator] starting video job %s (model=%s)", mediaItemID, req.Model)

	start := time.Now()
	result, genErr := g.generate(ctx, req)
	elapsed := time.Since(start).Seconds()

	if genErr != nil {
		log.Printf("[generator] video job %s failed after %.1fs: %v", mediaItemID, elapsed, genErr)
		return g.applyTerminal(mediaItemID, func(ctx context.Context) error {
			return g.store.Fail(ctx, mediaItemID, genErr.Error())
		})
	}

	log.Printf("[generator] video job %s completed in %.1fs (%d videos)", mediaItemID, elapsed, len(result.VideoURIs))
	return g.applyTerminal(mediaItemID, func(ctx context.Context) error {
		return g.store.Complete(ctx, mediaItemID, result.VideoURIs, elapsed)
	})
}

func (g *Generator) generate(ctx context.Context, req *model.GenerateVideoRequest) (*client.GenerateVideosResult, error) {
	if g.veo == nil {
		return g.generateMock(req), nil
	}

	result, err := g.veo.GenerateVideos(ctx, &client.GenerateVideosRequest{
		Model:          string(req.Model),
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    string(req.AspectRatio),
		SampleCount:    req.SampleCount,
		DurationSecs:   req.DurationSecs,
		GenerateAudio:  req.GenerateAudio,
	})
	if err != nil {
		return nil, err
	}
	if len(result.VideoURIs) == 0 {
		return nil, fmt.Errorf("generation returned no output")
	}
	return result, nil
}

// generateMock produces placeholder result URIs when no model API key is
// configured, mirroring the request's sample count.
func (g *Generator) generateMock(req *model.GenerateVideoRequest) *client.GenerateVideosResult {
	result := &client.GenerateVideosResult{}
	for i := 0; i < req.SampleCount; i++ {
		result.VideoURIs = append(result.VideoURIs,
			fmt.Sprintf("s3://genstudio-dev/videos/%s.mp4", uuid.New().String()))
	}
	return result
}

// applyTerminal performs a terminal transition with a store-level retry.
// ErrTerminal means another execution of the same job already finished:
// that is the duplicate-delivery case, discarded after logging.
func (g *Generator) applyTerminal(mediaItemID string, apply func(context.Context) error) error {
	// The job may have been cancelled upstream; the record update must
	// still go through.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := apply(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrTerminal) {
		log.Printf("[generator] discarding duplicate completion for media item %s", mediaItemID)
		return nil
	}
	return fmt.Errorf("failed to update media item %s: %w", mediaItemID, err)
}
