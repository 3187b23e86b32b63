// Package planner maps intents to ordered calendar operations and
// decides what the orchestrator should do next.
package planner

import (
	"strings"

	"github.com/athenahq/scheduling-assistant/internal/models"
	"github.com/athenahq/scheduling-assistant/internal/temporal"
	"go.uber.org/zap"
)

// Stage is the planner's verdict on what the current turn needs next.
type Stage string

const (
	StageResolveTime Stage = "resolve_time"
	StageClarify     Stage = "clarify"
	StageExecute     Stage = "execute"
	StageRespond     Stage = "respond"
)

// templates holds the fixed step list per intent. Intents without an
// entry need no tools and produce a direct response.
var templates = map[models.Intent][]models.PlanStep{
	models.IntentMeetingRequest: {
		{
			Operation: models.OpCheckAvailability,
			Optional:  []string{models.FieldDuration},
		},
		{
			Operation: models.OpCreateEvent,
			Required:  []string{models.FieldTitle, models.FieldStart, models.FieldEnd},
			Optional:  []string{models.FieldAttendees, models.FieldDescription, models.FieldLocation},
		},
	},
	models.IntentCalendarInquiry: {
		{
			Operation: models.OpListEvents,
			Required:  []string{models.FieldStart, models.FieldEnd},
		},
	},
	models.IntentAvailabilityInquiry: {
		{
			Operation: models.OpFindSlots,
			Required:  []string{models.FieldStart, models.FieldEnd},
			Optional:  []string{models.FieldDuration},
		},
	},
	models.IntentMeetingModification: {
		{
			Operation: models.OpListEvents,
			Required:  []string{models.FieldStart, models.FieldEnd},
		},
		{
			// The target event is located at execution time from the
			// listing, so event_id is never clarified for.
			Operation: models.OpUpdateEvent,
			Optional: []string{
				models.FieldEventID, models.FieldTitle, models.FieldStart, models.FieldEnd,
				models.FieldAttendees, models.FieldLocation, models.FieldDescription,
			},
			DependsOn: models.OpListEvents,
		},
	},
	models.IntentTimeQuestion: {
		{Operation: models.OpCurrentTime},
	},
}

// cancelWords distinguish a cancellation from a reschedule within the
// modification intent.
var cancelWords = []string{"cancel", "delete", "remove", "call off"}

func wantsCancellation(message string) bool {
	lower := strings.ToLower(message)
	for _, word := range cancelWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

type Planner struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Planner {
	return &Planner{logger: logger}
}

// Build returns the fixed plan template for an intent. Intents with no
// template yield an empty plan, which routes to a direct response.
func (p *Planner) Build(intent models.Intent) models.Plan {
	steps := templates[intent]
	out := make([]models.PlanStep, len(steps))
	copy(out, steps)
	return models.Plan{Intent: intent, Steps: out}
}

// Plan evaluates the turn against the intent's template and applies the
// decision table: an unresolved temporal phrase resolves first (once),
// missing required fields clarify, a complete plan executes, and an
// empty plan responds directly. It also records the detected temporal
// phrase and the missing fields on the turn.
func (p *Planner) Plan(turn *models.ConversationTurn) (models.Plan, Stage) {
	plan := p.Build(turn.Intent)

	if turn.Intent == models.IntentMeetingModification && wantsCancellation(turn.Message) {
		plan.Steps[1] = models.PlanStep{
			Operation: models.OpDeleteEvent,
			Optional:  []string{models.FieldEventID, models.FieldTitle},
			DependsOn: models.OpListEvents,
		}
	}

	if len(plan.Steps) == 0 {
		turn.Missing = nil
		return plan, StageRespond
	}

	if turn.Phrase == nil {
		if phrase, ok := temporal.FindPhrase(turn.Message); ok {
			turn.Phrase = phrase
		}
	}
	if turn.Phrase != nil && turn.Resolved == nil {
		p.logger.Debug("Temporal phrase needs resolution",
			zap.String("phrase", turn.Phrase.Raw),
			zap.String("intent", string(turn.Intent)))
		return plan, StageResolveTime
	}

	turn.Missing = plan.MissingFields(turn.Slots)
	if len(turn.Missing) > 0 {
		return plan, StageClarify
	}
	return plan, StageExecute
}
