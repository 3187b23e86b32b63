// Package responder turns final turn state into the user-facing reply.
package responder

import (
	"context"
	"fmt"
	"strings"

	"github.com/athenahq/scheduling-assistant/internal/models"
	"github.com/athenahq/scheduling-assistant/internal/reasoner"
	"go.uber.org/zap"
)

const (
	// Greeting is the direct response for general conversation when the
	// reasoning service has nothing better to offer.
	Greeting = "Hello! I'm Athena, an executive assistant. I can check availability, schedule meetings, and keep a calendar organized. What can I help you with?"

	// Apology is the generic failure response. It never carries
	// technical detail.
	Apology = "I'm sorry, I wasn't able to complete that just now. Could you try again in a moment?"
)

const respondSystemPrompt = `You are Athena, a warm, professional executive assistant replying to a colleague about their scheduling request. You are given the raw outcomes of the calendar operations you just performed. Summarize them in one short, natural message. Never mention tools, APIs, or technical errors; if something failed, apologise briefly and suggest trying again or rephrasing. Reply with the message only.`

const directSystemPrompt = `You are Athena, a warm, professional executive assistant for scheduling meetings. Reply briefly and naturally to the colleague's message, and remind them you can help check availability or book meetings. Reply with the message only.`

type Responder struct {
	reasoner reasoner.Reasoner
	logger   *zap.Logger
}

func New(r reasoner.Reasoner, logger *zap.Logger) *Responder {
	return &Responder{reasoner: r, logger: logger}
}

// Respond phrases the outcome of executed operations. If generation
// fails, it falls back to a deterministic summary of the tool outputs.
func (r *Responder) Respond(ctx context.Context, turn *models.ConversationTurn, results []models.ToolResult) string {
	summary := summarize(results)

	text, err := r.reasoner.Infer(ctx, respondSystemPrompt, []reasoner.Message{
		{Role: reasoner.RoleUser, Content: fmt.Sprintf("Colleague's message: %s\n\nOperation outcomes:\n%s", turn.Message, summary)},
	})
	if err != nil || strings.TrimSpace(text) == "" {
		r.logger.Warn("Response generation failed, using deterministic summary", zap.Error(err))
		return fallbackResponse(results)
	}
	return text
}

// Direct handles turns that need no tools.
func (r *Responder) Direct(ctx context.Context, turn *models.ConversationTurn) string {
	text, err := r.reasoner.Infer(ctx, directSystemPrompt, []reasoner.Message{
		{Role: reasoner.RoleUser, Content: turn.Message},
	})
	if err != nil || strings.TrimSpace(text) == "" {
		r.logger.Warn("Direct response generation failed, using greeting", zap.Error(err))
		return Greeting
	}
	return text
}

func summarize(results []models.ToolResult) string {
	if len(results) == 0 {
		return "No operations were needed."
	}
	var b strings.Builder
	for _, res := range results {
		if res.Success {
			fmt.Fprintf(&b, "- %s succeeded: %s\n", res.Operation, res.Output)
		} else {
			fmt.Fprintf(&b, "- %s failed: %s\n", res.Operation, res.Error)
		}
	}
	return b.String()
}

func fallbackResponse(results []models.ToolResult) string {
	var outputs []string
	anyFailed := false
	for _, res := range results {
		if res.Success && res.Output != "" {
			outputs = append(outputs, strings.TrimSpace(res.Output))
		}
		if !res.Success {
			anyFailed = true
		}
	}

	if len(outputs) == 0 {
		if anyFailed {
			return Apology
		}
		return Greeting
	}

	text := strings.Join(outputs, "\n\n")
	if anyFailed {
		text += "\n\nPart of that didn't go through, sorry. Could you try that part again?"
	}
	return text
}
