package storage

import (
	"context"
	"sync"
	"time"

	"github.com/athenahq/scheduling-assistant/internal/models"
)

// MemoryStorage keeps conversation history and thread state in process
// memory. Used in tests and when no database is configured.
type MemoryStorage struct {
	mu         sync.RWMutex
	utterances map[int64][]models.Utterance
	states     map[int64]models.ThreadState
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		utterances: make(map[int64][]models.Utterance),
		states:     make(map[int64]models.ThreadState),
	}
}

func (s *MemoryStorage) AppendUtterance(_ context.Context, u models.Utterance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.utterances[u.ThreadID] = append(s.utterances[u.ThreadID], u)
	return nil
}

func (s *MemoryStorage) RecentUtterances(_ context.Context, threadID int64, limit int) ([]models.Utterance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.utterances[threadID]
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]models.Utterance, len(history))
	copy(out, history)
	return out, nil
}

func (s *MemoryStorage) GetThreadState(_ context.Context, threadID int64) (*models.ThreadState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if state, exists := s.states[threadID]; exists {
		copied := state
		return &copied, nil
	}
	return nil, nil
}

func (s *MemoryStorage) SaveThreadState(_ context.Context, state *models.ThreadState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.UpdatedAt = time.Now()
	s.states[state.ThreadID] = *state
	return nil
}

func (s *MemoryStorage) ClearThreadState(_ context.Context, threadID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, threadID)
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
