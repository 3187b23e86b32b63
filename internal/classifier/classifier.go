package classifier

import (
	"context"
	"strings"

	"github.com/athenahq/scheduling-assistant/internal/models"
)

// Classifier maps the latest message plus short conversation context to
// one of the fixed intents. Classification never fails: implementations
// fall back to general_conversation instead of returning an error.
type Classifier interface {
	Classify(ctx context.Context, latest string, history []models.Utterance) models.Intent
}

// KeywordClassifier is the deterministic fallback used when the
// reasoning service is unavailable or returns an invalid label.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

var confirmations = []string{
	"yes", "no", "sure", "ok", "okay", "go ahead", "sounds good",
	"that works", "proceed", "yes please",
}

func (c *KeywordClassifier) Classify(_ context.Context, latest string, history []models.Utterance) models.Intent {
	lower := strings.ToLower(strings.TrimSpace(latest))

	// A short confirmation right after an assistant question is an
	// answer to that question, whatever words it uses.
	if answersPendingQuestion(lower, history) {
		return models.IntentClarificationAnswer
	}

	switch {
	// "what time" alone is too broad: "what time works for you?" is a
	// scheduling question, not a clock question.
	case containsAny(lower, "what time is it", "what's the time", "what is the time", "timezone", "time zone", "current time"):
		return models.IntentTimeQuestion
	case containsAny(lower, "cancel", "reschedule", "move the", "move my", "change the", "change my"):
		return models.IntentMeetingModification
	case containsAny(lower, "schedule", "book", "meet", "meeting", "appointment"):
		return models.IntentMeetingRequest
	case containsAny(lower, "available", "availability", "free", "open slot", "slots"):
		return models.IntentAvailabilityInquiry
	case containsAny(lower, "calendar", "agenda", "events", "my schedule"):
		return models.IntentCalendarInquiry
	}
	return models.IntentGeneralConversation
}

func answersPendingQuestion(lower string, history []models.Utterance) bool {
	if len(history) == 0 {
		return false
	}
	last := history[len(history)-1]
	if last.Speaker != models.SpeakerAssistant || !strings.HasSuffix(strings.TrimSpace(last.Text), "?") {
		return false
	}
	for _, word := range confirmations {
		if lower == word || strings.HasPrefix(lower, word+" ") {
			return true
		}
	}
	// Short replies to a direct question are field values, not new requests.
	return len(strings.Fields(lower)) <= 6
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
