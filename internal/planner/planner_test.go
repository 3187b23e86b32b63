package planner

import (
	"testing"
	"time"

	"github.com/athenahq/scheduling-assistant/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testTurn(intent models.Intent, message string) *models.ConversationTurn {
	return &models.ConversationTurn{
		ThreadID:  1,
		Message:   message,
		Intent:    intent,
		Reference: time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC),
		Location:  time.UTC,
	}
}

func TestPlanGeneralConversationRespondsDirectly(t *testing.T) {
	p := New(zap.NewNop())
	turn := testTurn(models.IntentGeneralConversation, "hello!")

	plan, stage := p.Plan(turn)

	assert.Equal(t, StageRespond, stage)
	assert.Empty(t, plan.Steps)
}

func TestPlanUnresolvedPhraseResolvesFirst(t *testing.T) {
	p := New(zap.NewNop())
	turn := testTurn(models.IntentAvailabilityInquiry, "am I free tomorrow at 10am?")

	_, stage := p.Plan(turn)

	assert.Equal(t, StageResolveTime, stage)
	require.NotNil(t, turn.Phrase)
	assert.Equal(t, "tomorrow", turn.Phrase.DayKeyword)
}

func TestPlanResolvedPhraseDoesNotResolveAgain(t *testing.T) {
	p := New(zap.NewNop())
	turn := testTurn(models.IntentAvailabilityInquiry, "am I free tomorrow at 10am?")
	turn.Phrase = &models.TemporalPhrase{Raw: "tomorrow at 10am"}
	turn.Resolved = &models.ResolvedRange{
		Start: time.Date(2024, 6, 16, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 16, 10, 30, 0, 0, time.UTC),
	}
	turn.Slots.Start = turn.Resolved.Start
	turn.Slots.End = turn.Resolved.End

	_, stage := p.Plan(turn)

	assert.Equal(t, StageExecute, stage)
}

func TestPlanMeetingRequestMissingTimesClarifies(t *testing.T) {
	p := New(zap.NewNop())
	turn := testTurn(models.IntentMeetingRequest, "set up a meeting about the launch")
	turn.Slots.Title = "launch"

	_, stage := p.Plan(turn)

	assert.Equal(t, StageClarify, stage)
	assert.Equal(t, []string{models.FieldStart, models.FieldEnd}, turn.Missing)
}

func TestPlanCompleteMeetingRequestExecutes(t *testing.T) {
	p := New(zap.NewNop())
	turn := testTurn(models.IntentMeetingRequest, "meeting please")
	turn.Slots.Title = "design review"
	turn.Slots.Start = time.Date(2024, 6, 16, 10, 0, 0, 0, time.UTC)
	turn.Slots.End = time.Date(2024, 6, 16, 10, 30, 0, 0, time.UTC)

	plan, stage := p.Plan(turn)

	assert.Equal(t, StageExecute, stage)
	assert.Empty(t, turn.Missing)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, models.OpCheckAvailability, plan.Steps[0].Operation)
	assert.Equal(t, models.OpCreateEvent, plan.Steps[1].Operation)
}

func TestPlanTimeQuestionNeedsNoFields(t *testing.T) {
	p := New(zap.NewNop())
	turn := testTurn(models.IntentTimeQuestion, "what is the current time?")

	plan, stage := p.Plan(turn)

	assert.Equal(t, StageExecute, stage)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, models.OpCurrentTime, plan.Steps[0].Operation)
}

func TestPlanModificationDependsOnListing(t *testing.T) {
	p := New(zap.NewNop())

	plan := p.Build(models.IntentMeetingModification)

	require.Len(t, plan.Steps, 2)
	assert.Equal(t, models.OpListEvents, plan.Steps[0].Operation)
	assert.Equal(t, models.OpUpdateEvent, plan.Steps[1].Operation)
	assert.Equal(t, models.OpListEvents, plan.Steps[1].DependsOn)
	// The target is located at execution time, never clarified for.
	assert.Empty(t, plan.Steps[1].Required)
	assert.Contains(t, plan.Steps[1].Optional, models.FieldEventID)
}

func TestPlanModificationNeverClarifiesForEventID(t *testing.T) {
	p := New(zap.NewNop())
	turn := testTurn(models.IntentMeetingModification, "move my sync")
	turn.Slots.Start = time.Date(2024, 6, 16, 8, 0, 0, 0, time.UTC)
	turn.Slots.End = time.Date(2024, 6, 16, 18, 0, 0, 0, time.UTC)

	_, stage := p.Plan(turn)

	assert.Equal(t, StageExecute, stage)
	assert.NotContains(t, turn.Missing, models.FieldEventID)
}

func TestPlanCancellationUsesDeleteStep(t *testing.T) {
	p := New(zap.NewNop())
	turn := testTurn(models.IntentMeetingModification, "cancel the standup")
	turn.Slots.Start = time.Date(2024, 6, 16, 8, 0, 0, 0, time.UTC)
	turn.Slots.End = time.Date(2024, 6, 16, 18, 0, 0, 0, time.UTC)

	plan, stage := p.Plan(turn)

	assert.Equal(t, StageExecute, stage)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, models.OpDeleteEvent, plan.Steps[1].Operation)
	assert.Equal(t, models.OpListEvents, plan.Steps[1].DependsOn)
}

func TestMissingFieldsDeduplicatesAcrossSteps(t *testing.T) {
	plan := models.Plan{Steps: []models.PlanStep{
		{Operation: "a", Required: []string{models.FieldStart, models.FieldEnd}},
		{Operation: "b", Required: []string{models.FieldStart, models.FieldTitle}},
	}}

	missing := plan.MissingFields(models.SlotValues{})

	assert.Equal(t, []string{models.FieldStart, models.FieldEnd, models.FieldTitle}, missing)
}

func TestBuildReturnsACopy(t *testing.T) {
	p := New(zap.NewNop())

	first := p.Build(models.IntentMeetingRequest)
	first.Steps[0].Operation = "mutated"

	second := p.Build(models.IntentMeetingRequest)
	assert.Equal(t, models.OpCheckAvailability, second.Steps[0].Operation)
}
