package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/genstudio/api/internal/executor"
	"github.com/genstudio/api/internal/model"
	"github.com/genstudio/api/internal/service"
	"github.com/genstudio/api/internal/store"
)

type stubBackend struct {
	failOnPrompt string
}

func (b stubBackend) Submit(ctx context.Context, mediaItemID string, req *model.GenerateVideoRequest) error {
	if b.failOnPrompt != "" && req.Prompt == b.failOnPrompt {
		return errors.New("queue unreachable")
	}
	return nil
}

func newTestApp(t *testing.T, backend executor.Backend) (*fiber.App, *store.MemoryMediaStore) {
	t.Helper()

	mediaStore := store.NewMemoryMediaStore()
	svc := service.NewVideoService(mediaStore, nil, nil, backend)
	h := NewVideoHandler(svc, validator.New())

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userId", "u1")
		c.Locals("email", "user@example.com")
		return c.Next()
	})

	videos := app.Group("/api/videos")
	videos.Post("/generate", h.Generate)
	videos.Post("/generate-batch", h.GenerateBatch)
	videos.Get("/:mediaId", h.Get)

	return app, mediaStore
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func validBody() map[string]interface{} {
	return map[string]interface{}{
		"prompt":          "a lighthouse in a storm",
		"model":           string(model.ModelVeo3Fast),
		"aspectRatio":     string(model.AspectRatio16x9),
		"sampleCount":     1,
		"durationSeconds": 4,
	}
}

func TestGenerateReturnsAcceptedPendingItem(t *testing.T) {
	app, mediaStore := newTestApp(t, stubBackend{})

	resp := postJSON(t, app, "/api/videos/generate", validBody())
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var item model.MediaItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if item.ID == "" {
		t.Error("response item has no id")
	}
	if item.Status != model.JobStatusPending {
		t.Errorf("status = %q, want pending", item.Status)
	}

	if _, err := mediaStore.Get(context.Background(), item.ID); err != nil {
		t.Errorf("record not persisted: %v", err)
	}
}

func TestGenerateRejectsInvalidBody(t *testing.T) {
	app, _ := newTestApp(t, stubBackend{})

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing prompt", func() map[string]interface{} {
			b := validBody()
			delete(b, "prompt")
			return b
		}()},
		{"unknown model", func() map[string]interface{} {
			b := validBody()
			b["model"] = "dall-e-3"
			return b
		}()},
		{"sample count too high", func() map[string]interface{} {
			b := validBody()
			b["sampleCount"] = 9
			return b
		}()},
		{"duration too long", func() map[string]interface{} {
			b := validBody()
			b["durationSeconds"] = 30
			return b
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, app, "/api/videos/generate", tc.body)
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestGetReturnsMediaItem(t *testing.T) {
	app, mediaStore := newTestApp(t, stubBackend{})

	now := time.Now()
	err := mediaStore.Create(context.Background(), &model.MediaItem{
		ID:          "m1",
		UserID:      "u1",
		Status:      model.JobStatusCompleted,
		ResultURIs:  []string{"s3://bucket/a.mp4"},
		CreatedAt:   now,
		CompletedAt: &now,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/videos/m1", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var item model.MediaItemResponse
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if item.Status != model.JobStatusCompleted {
		t.Errorf("status = %q, want completed", item.Status)
	}
	if len(item.ResultURIs) != 1 {
		t.Errorf("result URIs = %v, want 1 entry", item.ResultURIs)
	}
}

func TestGetUnknownItemReturns404(t *testing.T) {
	app, _ := newTestApp(t, stubBackend{})

	req := httptest.NewRequest(http.MethodGet, "/api/videos/no-such-item", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGenerateBatchInvalidItemRejectsRequest(t *testing.T) {
	app, _ := newTestApp(t, stubBackend{})

	good := validBody()
	bad := validBody()
	bad["sampleCount"] = 1
	delete(bad, "prompt") // fails per-item validation inside the batch

	resp := postJSON(t, app, "/api/videos/generate-batch", map[string]interface{}{
		"requests": []map[string]interface{}{good, bad},
	})

	// Per-item validation runs on the whole batch up front, so a bad item
	// fails the request outright rather than producing a partial result.
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGenerateBatchPartialFailureReturns207(t *testing.T) {
	app, _ := newTestApp(t, stubBackend{failOnPrompt: "doomed"})

	bad := validBody()
	bad["prompt"] = "doomed"

	resp := postJSON(t, app, "/api/videos/generate-batch", map[string]interface{}{
		"requests": []map[string]interface{}{validBody(), bad},
	})
	if resp.StatusCode != fiber.StatusMultiStatus {
		t.Fatalf("status = %d, want 207", resp.StatusCode)
	}

	var result model.GenerateVideoBatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(result.Items) != 1 {
		t.Errorf("accepted %d items, want 1", len(result.Items))
	}
	if len(result.Failures) != 1 || result.Failures[0].Index != 1 {
		t.Errorf("failures = %+v, want one failure at index 1", result.Failures)
	}
}

func TestGenerateBatchAllAcceptedReturns202(t *testing.T) {
	app, _ := newTestApp(t, stubBackend{})

	resp := postJSON(t, app, "/api/videos/generate-batch", map[string]interface{}{
		"requests": []map[string]interface{}{validBody(), validBody(), validBody()},
	})
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var result model.GenerateVideoBatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(result.Items) != 3 {
		t.Errorf("accepted %d items, want 3", len(result.Items))
	}
	if len(result.Failures) != 0 {
		t.Errorf("failures = %v, want none", result.Failures)
	}
}
