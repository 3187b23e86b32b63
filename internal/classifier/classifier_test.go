package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/athenahq/scheduling-assistant/internal/models"
	"github.com/athenahq/scheduling-assistant/internal/reasoner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubReasoner struct {
	reply    string
	err      error
	system   string
	messages []reasoner.Message
}

func (s *stubReasoner) Infer(_ context.Context, system string, messages []reasoner.Message) (string, error) {
	s.system = system
	s.messages = messages
	return s.reply, s.err
}

func utterance(speaker models.Speaker, text string) models.Utterance {
	return models.Utterance{Speaker: speaker, Text: text, CreatedAt: time.Now()}
}

func TestKeywordClassifierIntents(t *testing.T) {
	tests := []struct {
		message string
		want    models.Intent
	}{
		{"can you schedule a meeting with Dana?", models.IntentMeetingRequest},
		{"book a room for us on friday", models.IntentMeetingRequest},
		{"am I free tomorrow afternoon?", models.IntentAvailabilityInquiry},
		{"any open slots next week?", models.IntentAvailabilityInquiry},
		{"what's on my calendar today?", models.IntentCalendarInquiry},
		{"show me my agenda", models.IntentCalendarInquiry},
		{"cancel the standup", models.IntentMeetingModification},
		{"reschedule my 1:1 to thursday", models.IntentMeetingModification},
		{"what time is it over there?", models.IntentTimeQuestion},
		{"which timezone are you using?", models.IntentTimeQuestion},
		// "what time" by itself is a scheduling phrase, not a clock question.
		{"what time works for you?", models.IntentGeneralConversation},
		{"what time suits dana for the sync?", models.IntentGeneralConversation},
		{"hello there!", models.IntentGeneralConversation},
		{"thanks for your help", models.IntentGeneralConversation},
	}

	c := NewKeywordClassifier()
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(context.Background(), tt.message, nil))
		})
	}
}

func TestKeywordClassifierConfirmationAfterQuestion(t *testing.T) {
	c := NewKeywordClassifier()
	history := []models.Utterance{
		utterance(models.SpeakerUser, "schedule a sync with the team"),
		utterance(models.SpeakerAssistant, "What time works best for you?"),
	}

	assert.Equal(t, models.IntentClarificationAnswer,
		c.Classify(context.Background(), "yes please", history))
	assert.Equal(t, models.IntentClarificationAnswer,
		c.Classify(context.Background(), "Tomorrow at 3 PM", history))

	// A full new request after a question is not treated as an answer.
	assert.Equal(t, models.IntentMeetingRequest,
		c.Classify(context.Background(), "actually, can you schedule a meeting with Dana for next monday instead", history))
}

func TestKeywordClassifierNoQuestionNoClarification(t *testing.T) {
	c := NewKeywordClassifier()
	history := []models.Utterance{
		utterance(models.SpeakerAssistant, "Done, your meeting is booked."),
	}

	assert.Equal(t, models.IntentGeneralConversation,
		c.Classify(context.Background(), "great, thank you", history))
}

func TestLLMClassifierValidLabel(t *testing.T) {
	stub := &stubReasoner{reply: "meeting_request"}
	c := NewLLMClassifier(stub, zap.NewNop())

	got := c.Classify(context.Background(), "set something up with Dana", nil)

	assert.Equal(t, models.IntentMeetingRequest, got)
}

func TestLLMClassifierSanitizesLabel(t *testing.T) {
	stub := &stubReasoner{reply: " \"Availability_Inquiry\". "}
	c := NewLLMClassifier(stub, zap.NewNop())

	got := c.Classify(context.Background(), "when am I free?", nil)

	assert.Equal(t, models.IntentAvailabilityInquiry, got)
}

func TestLLMClassifierInvalidLabelFallsBack(t *testing.T) {
	stub := &stubReasoner{reply: "something_else"}
	c := NewLLMClassifier(stub, zap.NewNop())

	got := c.Classify(context.Background(), "book a meeting tomorrow", nil)

	// The keyword fallback still finds the right intent.
	assert.Equal(t, models.IntentMeetingRequest, got)
}

func TestLLMClassifierErrorFallsBack(t *testing.T) {
	stub := &stubReasoner{err: errors.New("service down")}
	c := NewLLMClassifier(stub, zap.NewNop())

	got := c.Classify(context.Background(), "any slots on friday?", nil)

	assert.Equal(t, models.IntentAvailabilityInquiry, got)
}

func TestLLMClassifierBoundsContext(t *testing.T) {
	stub := &stubReasoner{reply: "general_conversation"}
	c := NewLLMClassifier(stub, zap.NewNop())

	history := []models.Utterance{
		utterance(models.SpeakerUser, "one"),
		utterance(models.SpeakerAssistant, "two"),
		utterance(models.SpeakerUser, "three"),
		utterance(models.SpeakerAssistant, "four"),
		utterance(models.SpeakerUser, "five"),
	}

	c.Classify(context.Background(), "hello", history)

	// Three most recent history turns plus the message itself.
	require.Len(t, stub.messages, 4)
	assert.Equal(t, "three", stub.messages[0].Content)
	assert.Equal(t, reasoner.RoleAssistant, stub.messages[1].Role)
	assert.Contains(t, stub.messages[3].Content, "hello")
}
