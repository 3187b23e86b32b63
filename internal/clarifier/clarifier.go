// Package clarifier produces the single question asked when required
// fields are missing.
package clarifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/athenahq/scheduling-assistant/internal/models"
	"github.com/athenahq/scheduling-assistant/internal/reasoner"
	"go.uber.org/zap"
)

// FallbackQuestion is used when question generation fails.
const FallbackQuestion = "Could you provide more details?"

// precedence orders missing fields by importance; the clarifier asks
// about the first one present and nothing else this turn.
var precedence = []string{
	models.FieldStart,
	models.FieldEnd,
	models.FieldTitle,
	models.FieldDuration,
	models.FieldAttendees,
}

var fieldDescriptions = map[string]string{
	models.FieldStart:     "the date and time the meeting should start",
	models.FieldEnd:       "when the meeting should end",
	models.FieldTitle:     "what the meeting is about",
	models.FieldDuration:  "how long the meeting should be",
	models.FieldAttendees: "who should attend",
	models.FieldLocation:  "where the meeting takes place",
	models.FieldEventID:   "which existing meeting they mean",
}

const clarifySystemPrompt = `You are a professional executive assistant coordinating a meeting. Ask the colleague exactly ONE short, natural question to obtain the missing detail described by the user message. Do not ask about anything else, do not list requirements, and do not mention tools or systems. Reply with the question only.`

type Clarifier struct {
	reasoner reasoner.Reasoner
	logger   *zap.Logger
}

func New(r reasoner.Reasoner, logger *zap.Logger) *Clarifier {
	return &Clarifier{reasoner: r, logger: logger}
}

// Pick selects the single most important missing field.
func Pick(missing []string) string {
	for _, field := range precedence {
		for _, m := range missing {
			if m == field {
				return field
			}
		}
	}
	if len(missing) > 0 {
		return missing[0]
	}
	return ""
}

// Clarify phrases one question for the highest-priority missing field.
// Generation failures degrade to a fixed context-free question.
func (c *Clarifier) Clarify(ctx context.Context, missing []string, intent models.Intent) string {
	field := Pick(missing)
	if field == "" {
		return FallbackQuestion
	}

	desc, ok := fieldDescriptions[field]
	if !ok {
		desc = field
	}

	prompt := fmt.Sprintf("The colleague sent a %s. I still need to know: %s. Ask one question for that.",
		strings.ReplaceAll(string(intent), "_", " "), desc)

	question, err := c.reasoner.Infer(ctx, clarifySystemPrompt, []reasoner.Message{
		{Role: reasoner.RoleUser, Content: prompt},
	})
	if err != nil || strings.TrimSpace(question) == "" {
		c.logger.Warn("Clarification generation failed, using fallback question",
			zap.Error(err),
			zap.String("field", field))
		return FallbackQuestion
	}
	return oneQuestion(question)
}

// oneQuestion enforces the single-question constraint on generated text.
func oneQuestion(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "?"); idx >= 0 {
		return strings.TrimSpace(text[:idx+1])
	}
	return text
}
