package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/genstudio/api/internal/client"
	"github.com/genstudio/api/internal/executor"
	"github.com/genstudio/api/internal/model"
	"github.com/genstudio/api/internal/store"
)

const signedURLExpiry = 1 * time.Hour

// VideoService is the job dispatcher: it creates the placeholder record and
// hands the work to the selected execution backend, returning immediately.
type VideoService struct {
	store    store.MediaStore
	rewriter client.PromptRewriter // nil skips prompt enhancement
	storage  client.StorageClient  // nil skips signed URLs on poll responses
	backend  executor.Backend
}

func NewVideoService(mediaStore store.MediaStore, rewriter client.PromptRewriter, storage client.StorageClient, backend executor.Backend) *VideoService {
	return &VideoService{
		store:    mediaStore,
		rewriter: rewriter,
		storage:  storage,
		backend:  backend,
	}
}

// StartGeneration accepts a generation request and returns the pending media
// item without waiting for generation. Prompt enhancement runs first, before
// any record exists, so an enhancement failure leaves nothing behind. The
// enhanced prompt is what gets persisted and what crosses the backend
// boundary: local and remote executions of the same job see the same prompt.
func (s *VideoService) StartGeneration(ctx context.Context, req *model.GenerateVideoRequest, user *model.User) (*model.MediaItem, error) {
	enhanced := req.Prompt
	if s.rewriter != nil {
		var err error
		enhanced, err = s.rewriter.RewritePrompt(ctx, req.Prompt)
		if err != nil {
			return nil, fmt.Errorf("prompt enhancement failed: %w", err)
		}
	}

	submitted := *req
	submitted.Prompt = enhanced

	item := &model.MediaItem{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		UserEmail:      user.Email,
		MimeType:       model.MimeTypeVideoMP4,
		Model:          req.Model,
		Status:         model.JobStatusPending,
		OriginalPrompt: req.Prompt,
		Prompt:         enhanced,
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    req.AspectRatio,
		DurationSecs:   req.DurationSecs,
		SampleCount:    req.SampleCount,
		GenerateAudio:  req.GenerateAudio,
		ResultURIs:     []string{},
		CreatedAt:      time.Now(),
	}

	if err := s.store.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create media item: %w", err)
	}

	if err := s.backend.Submit(ctx, item.ID, &submitted); err != nil {
		// The record exists but nothing will ever process it. Fail it now
		// so polling clients see a terminal state instead of an eternal
		// pending.
		failMsg := fmt.Sprintf("failed to submit generation job: %v", err)
		if failErr := s.store.Fail(ctx, item.ID, failMsg); failErr != nil {
			log.Printf("[dispatcher] could not fail media item %s after submit error: %v", item.ID, failErr)
		}
		return nil, fmt.Errorf("failed to submit generation job: %w", err)
	}

	log.Printf("[dispatcher] video job %s queued (user=%s model=%s)", item.ID, user.Email, item.Model)
	return item, nil
}

// StartGenerationBatch submits each request independently. One item's
// failure never blocks the others; every failure is reported alongside the
// request that caused it, and accepted items stay accepted.
func (s *VideoService) StartGenerationBatch(ctx context.Context, reqs []model.GenerateVideoRequest, user *model.User) *model.GenerateVideoBatchResponse {
	resp := &model.GenerateVideoBatchResponse{
		Items:    []model.MediaItem{},
		Failures: []model.BatchFailure{},
	}

	for i := range reqs {
		item, err := s.StartGeneration(ctx, &reqs[i], user)
		if err != nil {
			resp.Failures = append(resp.Failures, model.BatchFailure{
				Index:  i,
				Prompt: reqs[i].Prompt,
				Error:  err.Error(),
			})
			continue
		}
		resp.Items = append(resp.Items, *item)
	}

	return resp
}

// GetMediaItem returns the current record, enriched with short-lived signed
// URLs for completed results. This is the polling endpoint's backing call.
func (s *VideoService) GetMediaItem(ctx context.Context, id string) (*model.MediaItemResponse, error) {
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &model.MediaItemResponse{
		MediaItem:  *item,
		SignedURLs: []string{},
	}

	if s.storage != nil {
		for _, uri := range item.ResultURIs {
			signed, err := s.storage.SignResultURI(ctx, uri, signedURLExpiry)
			if err != nil {
				log.Printf("[dispatcher] failed to sign result URI for media item %s: %v", id, err)
				continue
			}
			resp.SignedURLs = append(resp.SignedURLs, signed)
		}
	}

	return resp, nil
}
