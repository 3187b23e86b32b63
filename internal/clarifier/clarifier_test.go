package clarifier

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
	reply  string
	err    error
	prompt string
}

func (s *stubReasoner) Infer(_ context.Context, _ string, messages []reasoner.Message) (string, error) {
	if len(messages) > 0 {
		s.prompt = messages[len(messages)-1].Content
	}
	return s.reply, s.err
}

func TestPickPrecedence(t *testing.T) {
	assert.Equal(t, models.FieldStart, Pick([]string{models.FieldTitle, models.FieldStart}))
	assert.Equal(t, models.FieldStart, Pick([]string{models.FieldEnd, models.FieldStart, models.FieldAttendees}))
	assert.Equal(t, models.FieldEnd, Pick([]string{models.FieldTitle, models.FieldEnd}))
	assert.Equal(t, models.FieldTitle, Pick([]string{models.FieldAttendees, models.FieldTitle}))
	assert.Equal(t, models.FieldEventID, Pick([]string{models.FieldEventID}))
	assert.Equal(t, "", Pick(nil))
}

func TestClarifyAsksAboutHighestPriorityField(t *testing.T) {
	stub := &stubReasoner{reply: "When would you like the meeting to start?"}
	c := New(stub, zap.NewNop())

	got := c.Clarify(context.Background(), []string{models.FieldTitle, models.FieldStart}, models.IntentMeetingRequest)

	assert.Equal(t, "When would you like the meeting to start?", got)
	assert.Contains(t, stub.prompt, "the date and time the meeting should start")
	assert.Contains(t, stub.prompt, "meeting request")
}

func TestClarifyTruncatesToOneQuestion(t *testing.T) {
	stub := &stubReasoner{reply: "When should it start? And who is coming?"}
	c := New(stub, zap.NewNop())

	got := c.Clarify(context.Background(), []string{models.FieldStart}, models.IntentMeetingRequest)

	assert.Equal(t, "When should it start?", got)
}

func TestClarifyReasonerErrorFallsBack(t *testing.T) {
	stub := &stubReasoner{err: errors.New("service down")}
	c := New(stub, zap.NewNop())

	got := c.Clarify(context.Background(), []string{models.FieldStart}, models.IntentMeetingRequest)

	assert.Equal(t, FallbackQuestion, got)
}

func TestClarifyEmptyReplyFallsBack(t *testing.T) {
	stub := &stubReasoner{reply: "   "}
	c := New(stub, zap.NewNop())

	got := c.Clarify(context.Background(), []string{models.FieldTitle}, models.IntentMeetingRequest)

	assert.Equal(t, FallbackQuestion, got)
}

func TestClarifyNoMissingFieldsFallsBack(t *testing.T) {
	stub := &stubReasoner{reply: "unused"}
	c := New(stub, zap.NewNop())

	assert.Equal(t, FallbackQuestion, c.Clarify(context.Background(), nil, models.IntentMeetingRequest))
}
