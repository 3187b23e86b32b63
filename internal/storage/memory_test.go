package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/athenahq/scheduling-assistant/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageAppendAndRecent(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	base := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := s.AppendUtterance(ctx, models.Utterance{
			ID:        fmt.Sprintf("u-%d", i),
			ThreadID:  1,
			Speaker:   models.SpeakerUser,
			Text:      fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	recent, err := s.RecentUtterances(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	// The last N utterances, oldest first.
	assert.Equal(t, "message 2", recent[0].Text)
	assert.Equal(t, "message 4", recent[2].Text)
}

func TestMemoryStorageThreadsAreIsolated(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.AppendUtterance(ctx, models.Utterance{ID: "a", ThreadID: 1, Text: "one"}))
	require.NoError(t, s.AppendUtterance(ctx, models.Utterance{ID: "b", ThreadID: 2, Text: "two"}))

	recent, err := s.RecentUtterances(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "one", recent[0].Text)
}

func TestMemoryStorageRecentOnEmptyThread(t *testing.T) {
	s := NewMemoryStorage()

	recent, err := s.RecentUtterances(context.Background(), 42, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestMemoryStorageThreadStateLifecycle(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	// Absent until saved.
	state, err := s.GetThreadState(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, state)

	saved := &models.ThreadState{
		ThreadID: 1,
		Intent:   models.IntentMeetingRequest,
		Slots:    models.SlotValues{Title: "launch sync"},
		Missing:  []string{models.FieldStart, models.FieldEnd},
	}
	require.NoError(t, s.SaveThreadState(ctx, saved))

	state, err = s.GetThreadState(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.IntentMeetingRequest, state.Intent)
	assert.Equal(t, "launch sync", state.Slots.Title)
	assert.Equal(t, []string{models.FieldStart, models.FieldEnd}, state.Missing)

	require.NoError(t, s.ClearThreadState(ctx, 1))

	state, err = s.GetThreadState(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestMemoryStorageSaveOverwrites(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.SaveThreadState(ctx, &models.ThreadState{ThreadID: 1, Intent: models.IntentMeetingRequest}))
	require.NoError(t, s.SaveThreadState(ctx, &models.ThreadState{ThreadID: 1, Intent: models.IntentAvailabilityInquiry}))

	state, err := s.GetThreadState(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.IntentAvailabilityInquiry, state.Intent)
}
