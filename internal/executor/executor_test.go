package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/genstudio/api/internal/config"
	"github.com/genstudio/api/internal/model"
)

type fakePublisher struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (p *fakePublisher) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.tasks = append(p.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: "videos"}, nil
}

func noopRun(ctx context.Context, mediaItemID string, req *model.GenerateVideoRequest) error {
	return nil
}

func testRequest() *model.GenerateVideoRequest {
	return &model.GenerateVideoRequest{
		Prompt:       "a cat",
		Model:        model.ModelVeo3Fast,
		AspectRatio:  model.AspectRatio16x9,
		SampleCount:  1,
		DurationSecs: 4,
	}
}

func TestSelectLocal(t *testing.T) {
	pool := NewWorkerPool(1, 1)
	defer pool.Shutdown(context.Background())

	cfg := &config.ExecutorConfig{Type: TypeLocal}
	backend, err := Select(cfg, pool, noopRun, nil)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if _, ok := backend.(*LocalBackend); !ok {
		t.Errorf("backend = %T, want *LocalBackend", backend)
	}
}

func TestSelectRemote(t *testing.T) {
	cfg := &config.ExecutorConfig{Type: TypeRemote, Queue: "videos", MaxRetry: 3}
	backend, err := Select(cfg, nil, nil, &fakePublisher{})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if _, ok := backend.(*RemoteBackend); !ok {
		t.Errorf("backend = %T, want *RemoteBackend", backend)
	}
}

func TestSelectUnknownTypeFails(t *testing.T) {
	cfg := &config.ExecutorConfig{Type: "celery"}
	if _, err := Select(cfg, nil, noopRun, &fakePublisher{}); err == nil {
		t.Fatal("Select accepted an unknown executor type")
	}
}

func TestSelectLocalRequiresPool(t *testing.T) {
	cfg := &config.ExecutorConfig{Type: TypeLocal}
	if _, err := Select(cfg, nil, noopRun, nil); err == nil {
		t.Fatal("Select accepted local executor without a pool")
	}
}

func TestLocalBackendRunsJob(t *testing.T) {
	pool := NewWorkerPool(1, 4)

	done := make(chan string, 1)
	run := func(ctx context.Context, mediaItemID string, req *model.GenerateVideoRequest) error {
		done <- mediaItemID
		return nil
	}

	backend := NewLocalBackend(pool, run)
	if err := backend.Submit(context.Background(), "m1", testRequest()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	select {
	case id := <-done:
		if id != "m1" {
			t.Errorf("ran job %q, want m1", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}

	pool.Shutdown(context.Background())
}

func TestRemoteBackendPublishesEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	backend := NewRemoteBackend(pub, &config.ExecutorConfig{Queue: "videos", MaxRetry: 3})

	req := testRequest()
	if err := backend.Submit(context.Background(), "m1", req); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if len(pub.tasks) != 1 {
		t.Fatalf("published %d tasks, want 1", len(pub.tasks))
	}
	task := pub.tasks[0]
	if task.Type() != TaskTypeVideoGenerate {
		t.Errorf("task type = %q, want %q", task.Type(), TaskTypeVideoGenerate)
	}

	env, err := model.DecodeJobEnvelope(task.Payload())
	if err != nil {
		t.Fatalf("published payload does not decode: %v", err)
	}
	if env.MediaItemID != "m1" {
		t.Errorf("envelope media item id = %q, want m1", env.MediaItemID)
	}
	if env.RequestDTO != *req {
		t.Errorf("envelope request = %+v, want %+v", env.RequestDTO, *req)
	}
}

func TestRemoteBackendPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("NOT_FOUND: topic does not exist")}
	backend := NewRemoteBackend(pub, &config.ExecutorConfig{Queue: "videos", MaxRetry: 3})

	if err := backend.Submit(context.Background(), "m1", testRequest()); err == nil {
		t.Fatal("Submit swallowed the publish failure")
	}
}
