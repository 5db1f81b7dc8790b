package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/genstudio/api/internal/model"
)

func pendingItem(id string) *model.MediaItem {
	return &model.MediaItem{
		ID:         id,
		UserID:     "user-1",
		UserEmail:  "user@example.com",
		Model:      model.ModelVeo3Fast,
		Status:     model.JobStatusPending,
		Prompt:     "a cat",
		ResultURIs: []string{},
		CreatedAt:  time.Now(),
	}
}

func TestCreateAndGet(t *testing.T) {
	s := NewMemoryMediaStore()
	ctx := context.Background()

	if err := s.Create(ctx, pendingItem("m1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	item, err := s.Get(ctx, "m1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if item.Status != model.JobStatusPending {
		t.Errorf("status = %q, want pending", item.Status)
	}
	if len(item.ResultURIs) != 0 {
		t.Errorf("new item has result URIs: %v", item.ResultURIs)
	}
}

func TestGetNotFound(t *testing.T) {
	s := NewMemoryMediaStore()
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCompleteSetsResultInvariant(t *testing.T) {
	s := NewMemoryMediaStore()
	ctx := context.Background()
	s.Create(ctx, pendingItem("m1"))

	uris := []string{"s3://bucket/a.mp4", "s3://bucket/b.mp4"}
	if err := s.Complete(ctx, "m1", uris, 42.5); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	item, _ := s.Get(ctx, "m1")
	if item.Status != model.JobStatusCompleted {
		t.Errorf("status = %q, want completed", item.Status)
	}
	if len(item.ResultURIs) != 2 {
		t.Errorf("result URIs = %v, want 2 entries", item.ResultURIs)
	}
	if item.Error != nil {
		t.Errorf("completed item has error detail: %v", *item.Error)
	}
	if item.CompletedAt == nil {
		t.Error("completed item missing CompletedAt")
	}
	if item.GenerationTime != 42.5 {
		t.Errorf("generation time = %v, want 42.5", item.GenerationTime)
	}
}

func TestFailSetsErrorInvariant(t *testing.T) {
	s := NewMemoryMediaStore()
	ctx := context.Background()
	s.Create(ctx, pendingItem("m1"))

	if err := s.Fail(ctx, "m1", "model exploded"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	item, _ := s.Get(ctx, "m1")
	if item.Status != model.JobStatusFailed {
		t.Errorf("status = %q, want failed", item.Status)
	}
	if item.Error == nil || *item.Error == "" {
		t.Error("failed item missing error detail")
	}
	if len(item.ResultURIs) != 0 {
		t.Errorf("failed item has result URIs: %v", item.ResultURIs)
	}
}

func TestTerminalStateIsImmutable(t *testing.T) {
	s := NewMemoryMediaStore()
	ctx := context.Background()
	s.Create(ctx, pendingItem("m1"))

	if err := s.Complete(ctx, "m1", []string{"s3://bucket/a.mp4"}, 10); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// A duplicate completion must not change the record.
	if err := s.Fail(ctx, "m1", "late failure"); !errors.Is(err, ErrTerminal) {
		t.Errorf("Fail on completed item: err = %v, want ErrTerminal", err)
	}
	if err := s.Complete(ctx, "m1", []string{"s3://bucket/other.mp4"}, 99); !errors.Is(err, ErrTerminal) {
		t.Errorf("Complete on completed item: err = %v, want ErrTerminal", err)
	}

	item, _ := s.Get(ctx, "m1")
	if item.Status != model.JobStatusCompleted {
		t.Errorf("status changed after duplicate completion: %q", item.Status)
	}
	if len(item.ResultURIs) != 1 || item.ResultURIs[0] != "s3://bucket/a.mp4" {
		t.Errorf("result URIs corrupted by duplicate completion: %v", item.ResultURIs)
	}
}

func TestTransitionOnMissingItem(t *testing.T) {
	s := NewMemoryMediaStore()
	if err := s.Complete(context.Background(), "missing", []string{"u"}, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
