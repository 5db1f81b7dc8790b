package executor

import (
	"context"
	"fmt"

	"github.com/genstudio/api/internal/config"
	"github.com/genstudio/api/internal/model"
)

// Executor type selectors. Chosen once at startup from configuration.
const (
	TypeLocal  = "local"
	TypeRemote = "remote"
)

// Backend abstracts where the blocking generation call runs. Submit hands
// off a job and returns without waiting for generation to finish: the local
// variant queues it on an in-process worker pool, the remote variant
// publishes it to a message queue for a separate worker fleet.
type Backend interface {
	Submit(ctx context.Context, mediaItemID string, req *model.GenerateVideoRequest) error
}

// RunFunc is the generation routine a backend eventually invokes. It owns
// the terminal state transition of the media item; a non-nil error means an
// unexpected infrastructure failure, safe to retry.
type RunFunc func(ctx context.Context, mediaItemID string, req *model.GenerateVideoRequest) error

// Select maps the configured executor type to a backend. The match is
// exhaustive on purpose: an unrecognized value is a configuration mistake
// and must abort startup, never silently fall back to a default.
func Select(cfg *config.ExecutorConfig, pool *WorkerPool, run RunFunc, publisher Publisher) (Backend, error) {
	switch cfg.Type {
	case TypeLocal:
		if pool == nil {
			return nil, fmt.Errorf("local executor requires a worker pool")
		}
		if run == nil {
			return nil, fmt.Errorf("local executor requires a generation routine")
		}
		return NewLocalBackend(pool, run), nil
	case TypeRemote:
		if publisher == nil {
			return nil, fmt.Errorf("remote executor requires a queue publisher")
		}
		return NewRemoteBackend(publisher, cfg), nil
	default:
		return nil, fmt.Errorf("unknown executor type %q (must be %q or %q)", cfg.Type, TypeLocal, TypeRemote)
	}
}
