package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/athenahq/scheduling-assistant/internal/models"
	"github.com/athenahq/scheduling-assistant/internal/reasoner"
	"go.uber.org/zap"
)

// contextTurns bounds how much conversation history is sent to the
// reasoning service for classification.
const contextTurns = 3

const classifySystemPrompt = `You are an intent classifier for a professional executive assistant that coordinates meetings between a user and their colleagues.

Classify the latest message into exactly one of these intents:

1. general_conversation - greetings, casual chat, off-topic discussion
2. clarification_answer - the message answers a question the assistant just asked: missing details ("Tomorrow at 3 PM", "The client presentation"), or confirmations ("yes", "ok go ahead", "that works")
3. meeting_request - the sender wants to schedule, book, or create a new meeting
4. calendar_inquiry - the sender wants to see existing calendar events
5. availability_inquiry - the sender wants to check free time or open slots
6. meeting_modification - the sender wants to change, cancel, or reschedule an existing meeting
7. time_question - the sender asks about the current time or timezone

If the assistant's previous message was a question and the latest message reads as an answer or a confirmation, classify it as clarification_answer.

Respond with ONLY the intent name (e.g. "meeting_request").`

// LLMClassifier delegates intent judgment to the reasoning service. It
// owns the context bounding, label validation, and fallback; it never
// raises to the orchestrator.
type LLMClassifier struct {
	reasoner reasoner.Reasoner
	fallback *KeywordClassifier
	logger   *zap.Logger
}

func NewLLMClassifier(r reasoner.Reasoner, logger *zap.Logger) *LLMClassifier {
	return &LLMClassifier{
		reasoner: r,
		fallback: NewKeywordClassifier(),
		logger:   logger,
	}
}

func (c *LLMClassifier) Classify(ctx context.Context, latest string, history []models.Utterance) models.Intent {
	messages := boundContext(latest, history)

	raw, err := c.reasoner.Infer(ctx, classifySystemPrompt, messages)
	if err != nil {
		c.logger.Warn("Intent classification unavailable, using keyword fallback", zap.Error(err))
		return c.fallback.Classify(ctx, latest, history)
	}

	intent := models.Intent(sanitizeLabel(raw))
	if !intent.Valid() {
		c.logger.Warn("Invalid intent label from reasoning service, using keyword fallback",
			zap.String("label", raw))
		return c.fallback.Classify(ctx, latest, history)
	}
	return intent
}

func boundContext(latest string, history []models.Utterance) []reasoner.Message {
	recent := history
	if len(recent) > contextTurns {
		recent = recent[len(recent)-contextTurns:]
	}
	messages := make([]reasoner.Message, 0, len(recent)+1)
	for _, u := range recent {
		role := reasoner.RoleUser
		if u.Speaker == models.SpeakerAssistant {
			role = reasoner.RoleAssistant
		}
		messages = append(messages, reasoner.Message{Role: role, Content: u.Text})
	}
	return append(messages, reasoner.Message{
		Role:    reasoner.RoleUser,
		Content: fmt.Sprintf("Classify this message: %s", latest),
	})
}

func sanitizeLabel(raw string) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	for _, ch := range []string{"*", "`", `"`, "'", "."} {
		label = strings.ReplaceAll(label, ch, "")
	}
	return strings.TrimSpace(label)
}
