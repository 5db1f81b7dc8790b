package store

import (
	"context"
	"errors"

	"github.com/genstudio/api/internal/model"
)

var (
	// ErrNotFound is returned when no record exists for the given id.
	ErrNotFound = errors.New("media item not found")

	// ErrTerminal is returned when a terminal transition is attempted on a
	// record that is already completed or failed. Callers treat this as a
	// duplicate completion: log and discard, never overwrite.
	ErrTerminal = errors.New("media item already in a terminal state")
)

// MediaStore persists media item records keyed by id. Terminal transitions
// (Complete, Fail) are atomic check-and-set operations: they apply only while
// the record is still pending.
type MediaStore interface {
	Create(ctx context.Context, item *model.MediaItem) error
	Get(ctx context.Context, id string) (*model.MediaItem, error)
	Complete(ctx context.Context, id string, resultURIs []string, generationTime float64) error
	Fail(ctx context.Context, id string, errMsg string) error
}
