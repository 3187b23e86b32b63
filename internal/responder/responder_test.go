package responder

import (
	"context"
	"errors"
	"testing"

	"github.com/athenahq/scheduling-assistant/internal/models"
	"github.com/athenahq/scheduling-assistant/internal/reasoner"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubReasoner struct {
	reply string
	err   error
}

func (s *stubReasoner) Infer(_ context.Context, _ string, _ []reasoner.Message) (string, error) {
	return s.reply, s.err
}

func turn(message string) *models.ConversationTurn {
	return &models.ConversationTurn{Message: message}
}

func TestRespondUsesGeneratedText(t *testing.T) {
	r := New(&stubReasoner{reply: "All booked for tomorrow at 10!"}, zap.NewNop())

	got := r.Respond(context.Background(), turn("book it"), []models.ToolResult{
		{Operation: models.OpCreateEvent, Success: true, Output: "Meeting scheduled"},
	})

	assert.Equal(t, "All booked for tomorrow at 10!", got)
}

func TestRespondFallsBackToToolOutputs(t *testing.T) {
	r := New(&stubReasoner{err: errors.New("service down")}, zap.NewNop())

	got := r.Respond(context.Background(), turn("book it"), []models.ToolResult{
		{Operation: models.OpCheckAvailability, Success: true, Output: "Time slot is free"},
		{Operation: models.OpCreateEvent, Success: true, Output: "Meeting scheduled"},
	})

	assert.Contains(t, got, "Time slot is free")
	assert.Contains(t, got, "Meeting scheduled")
}

func TestRespondFallbackMentionsPartialFailure(t *testing.T) {
	r := New(&stubReasoner{err: errors.New("service down")}, zap.NewNop())

	got := r.Respond(context.Background(), turn("book it"), []models.ToolResult{
		{Operation: models.OpCheckAvailability, Success: true, Output: "Time slot is free"},
		{Operation: models.OpCreateEvent, Success: false, Error: "backend unavailable"},
	})

	assert.Contains(t, got, "Time slot is free")
	assert.Contains(t, got, "sorry")
	assert.NotContains(t, got, "backend unavailable")
}

func TestRespondAllFailedApologizes(t *testing.T) {
	r := New(&stubReasoner{err: errors.New("service down")}, zap.NewNop())

	got := r.Respond(context.Background(), turn("book it"), []models.ToolResult{
		{Operation: models.OpCreateEvent, Success: false, Error: "backend unavailable"},
	})

	assert.Equal(t, Apology, got)
}

func TestDirectFallsBackToGreeting(t *testing.T) {
	r := New(&stubReasoner{reply: "  "}, zap.NewNop())

	got := r.Direct(context.Background(), turn("hi"))

	assert.Equal(t, Greeting, got)
}
