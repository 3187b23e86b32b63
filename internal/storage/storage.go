package storage

import (
	"context"

	"github.com/athenahq/scheduling-assistant/internal/models"
)

// Storage persists conversation history and pending turn state per
// thread. The core only reads and writes through this interface;
// everything else about persistence is the implementation's concern.
type Storage interface {
	// AppendUtterance records one message in a thread's history.
	AppendUtterance(ctx context.Context, u models.Utterance) error

	// RecentUtterances returns up to limit utterances for a thread in
	// chronological order.
	RecentUtterances(ctx context.Context, threadID int64, limit int) ([]models.Utterance, error)

	Close() error

	ThreadStateStorage
}

// ThreadStateStorage keeps the pending task (intent plus bound slots)
// carried across turns while a clarification answer is awaited.
type ThreadStateStorage interface {
	// GetThreadState returns nil with no error when the thread has no
	// pending state.
	GetThreadState(ctx context.Context, threadID int64) (*models.ThreadState, error)
	SaveThreadState(ctx context.Context, state *models.ThreadState) error
	ClearThreadState(ctx context.Context, threadID int64) error
}
