// Package executor runs planned calendar operations and records a
// per-step result, surviving partial failures.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/athenahq/scheduling-assistant/internal/calendar"
	"github.com/athenahq/scheduling-assistant/internal/models"
	"github.com/athenahq/scheduling-assistant/internal/slots"
	"go.uber.org/zap"
)

const (
	stampFormat = "2006-01-02 15:04"
	clockFormat = "15:04 MST"

	maxListedSlots = 10
)

type Executor struct {
	calendar        calendar.Client
	calendarIDs     []string
	defaultDuration time.Duration
	logger          *zap.Logger
}

func New(cal calendar.Client, calendarIDs []string, defaultDuration time.Duration, logger *zap.Logger) *Executor {
	if defaultDuration <= 0 {
		defaultDuration = 30 * time.Minute
	}
	return &Executor{
		calendar:        cal,
		calendarIDs:     calendarIDs,
		defaultDuration: defaultDuration,
		logger:          logger,
	}
}

// Execute runs each plan step in order. A failed step is recorded and
// does not abort its siblings; steps depending on a failed step are
// skipped with their own failure record.
func (e *Executor) Execute(ctx context.Context, plan models.Plan, turn *models.ConversationTurn) []models.ToolResult {
	results := make([]models.ToolResult, 0, len(plan.Steps))
	failed := make(map[string]bool)

	for _, step := range plan.Steps {
		if step.DependsOn != "" && failed[step.DependsOn] {
			results = append(results, models.ToolResult{
				Operation: step.Operation,
				Success:   false,
				Error:     fmt.Sprintf("skipped: depends on failed step %s", step.DependsOn),
			})
			failed[step.Operation] = true
			continue
		}

		result := e.runStep(ctx, step, turn)
		if !result.Success {
			failed[step.Operation] = true
			e.logger.Warn("Plan step failed",
				zap.String("operation", step.Operation),
				zap.String("error", result.Error),
				zap.Int64("thread_id", turn.ThreadID))
		}
		results = append(results, result)
	}
	return results
}

func (e *Executor) runStep(ctx context.Context, step models.PlanStep, turn *models.ConversationTurn) models.ToolResult {
	switch step.Operation {
	case models.OpCheckAvailability:
		return e.checkAvailability(ctx, turn)
	case models.OpCreateEvent:
		return e.createEvent(ctx, turn)
	case models.OpListEvents:
		return e.listEvents(ctx, turn)
	case models.OpFindSlots:
		return e.findSlots(ctx, turn)
	case models.OpUpdateEvent:
		return e.updateEvent(ctx, turn)
	case models.OpDeleteEvent:
		return e.deleteEvent(ctx, turn)
	case models.OpCurrentTime:
		return e.currentTime(turn)
	}
	return models.ToolResult{
		Operation: step.Operation,
		Success:   false,
		Error:     fmt.Sprintf("unknown operation %q", step.Operation),
	}
}

func (e *Executor) checkAvailability(ctx context.Context, turn *models.ConversationTurn) models.ToolResult {
	result := models.ToolResult{
		Operation: models.OpCheckAvailability,
		Input: map[string]any{
			"start": turn.Slots.Start,
			"end":   turn.Slots.End,
		},
	}
	if len(e.calendarIDs) == 0 {
		result.Error = "no calendars configured"
		return result
	}
	busy, err := e.calendar.ListBusy(ctx, e.calendarIDs, turn.Slots.Start, turn.Slots.End)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	if len(busy) == 0 {
		result.Output = fmt.Sprintf("Time slot %s to %s is free across all configured calendars",
			turn.Slots.Start.In(turn.Location).Format(stampFormat),
			turn.Slots.End.In(turn.Location).Format(clockFormat))
		return result
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Time slot %s to %s has conflicts:\n",
		turn.Slots.Start.In(turn.Location).Format(stampFormat),
		turn.Slots.End.In(turn.Location).Format(clockFormat))
	for _, interval := range busy {
		fmt.Fprintf(&b, "- Busy from %s to %s\n",
			interval.Start.In(turn.Location).Format(clockFormat),
			interval.End.In(turn.Location).Format(clockFormat))
	}
	result.Output = b.String()
	return result
}

func (e *Executor) createEvent(ctx context.Context, turn *models.ConversationTurn) models.ToolResult {
	result := models.ToolResult{
		Operation: models.OpCreateEvent,
		Input: map[string]any{
			"title": turn.Slots.Title,
			"start": turn.Slots.Start,
			"end":   turn.Slots.End,
		},
	}

	// Local validation: these never reach the backend.
	if strings.TrimSpace(turn.Slots.Title) == "" {
		result.Error = "meeting title is required"
		return result
	}
	if turn.Slots.Start.IsZero() || turn.Slots.End.IsZero() {
		result.Error = "start and end times are required"
		return result
	}
	if turn.Slots.Start.Before(turn.Reference) {
		result.Error = fmt.Sprintf("cannot create an event in the past: %s",
			turn.Slots.Start.In(turn.Location).Format(stampFormat))
		return result
	}
	if len(e.calendarIDs) == 0 {
		result.Error = "no calendars configured"
		return result
	}

	created, err := e.calendar.CreateEvent(ctx, e.calendarIDs[0], models.EventRecord{
		Title:       turn.Slots.Title,
		Description: turn.Slots.Description,
		Location:    turn.Slots.Location,
		Start:       turn.Slots.Start,
		End:         turn.Slots.End,
		Attendees:   turn.Slots.Attendees,
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	var b strings.Builder
	fmt.Fprintf(&b, "Meeting %q scheduled from %s to %s",
		created.Title,
		created.Start.In(turn.Location).Format(stampFormat),
		created.End.In(turn.Location).Format(clockFormat))
	if len(created.Attendees) > 0 {
		fmt.Fprintf(&b, " with %s", strings.Join(created.Attendees, ", "))
	}
	if created.HTMLLink != "" {
		fmt.Fprintf(&b, " (%s)", created.HTMLLink)
	}
	result.Output = b.String()
	return result
}

func (e *Executor) listEvents(ctx context.Context, turn *models.ConversationTurn) models.ToolResult {
	result := models.ToolResult{
		Operation: models.OpListEvents,
		Input: map[string]any{
			"start": turn.Slots.Start,
			"end":   turn.Slots.End,
		},
	}
	if len(e.calendarIDs) == 0 {
		result.Error = "no calendars configured"
		return result
	}
	events, err := e.calendar.ListEvents(ctx, e.calendarIDs, turn.Slots.Start, turn.Slots.End)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	turn.Events = events

	result.Success = true
	if len(events) == 0 {
		result.Output = fmt.Sprintf("No events between %s and %s",
			turn.Slots.Start.In(turn.Location).Format(stampFormat),
			turn.Slots.End.In(turn.Location).Format(stampFormat))
		return result
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Events between %s and %s:\n",
		turn.Slots.Start.In(turn.Location).Format(stampFormat),
		turn.Slots.End.In(turn.Location).Format(stampFormat))
	for _, ev := range events {
		fmt.Fprintf(&b, "- %s (%s - %s)\n", ev.Title,
			ev.Start.In(turn.Location).Format(stampFormat),
			ev.End.In(turn.Location).Format(clockFormat))
		if ev.Location != "" {
			fmt.Fprintf(&b, "  Location: %s\n", ev.Location)
		}
		if len(ev.Attendees) > 0 {
			fmt.Fprintf(&b, "  Attendees: %s\n", strings.Join(ev.Attendees, ", "))
		}
	}
	result.Output = b.String()
	return result
}

func (e *Executor) findSlots(ctx context.Context, turn *models.ConversationTurn) models.ToolResult {
	duration := e.defaultDuration
	if turn.Slots.DurationMinutes > 0 {
		duration = time.Duration(turn.Slots.DurationMinutes) * time.Minute
	}
	result := models.ToolResult{
		Operation: models.OpFindSlots,
		Input: map[string]any{
			"start":            turn.Slots.Start,
			"end":              turn.Slots.End,
			"duration_minutes": int(duration.Minutes()),
		},
	}
	if len(e.calendarIDs) == 0 {
		result.Error = "no calendars configured"
		return result
	}
	busy, err := e.calendar.ListBusy(ctx, e.calendarIDs, turn.Slots.Start, turn.Slots.End)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	available := slots.Find(busy, turn.Slots.Start, turn.Slots.End, duration)
	result.Success = true
	if len(available) == 0 {
		result.Output = fmt.Sprintf("No %d-minute slots available between %s and %s",
			int(duration.Minutes()),
			turn.Slots.Start.In(turn.Location).Format(stampFormat),
			turn.Slots.End.In(turn.Location).Format(stampFormat))
		return result
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d available %d-minute slots:\n", len(available), int(duration.Minutes()))
	for i, slot := range available {
		if i == maxListedSlots {
			fmt.Fprintf(&b, "... and %d more\n", len(available)-maxListedSlots)
			break
		}
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1,
			slot.Start.In(turn.Location).Format(stampFormat),
			slot.End.In(turn.Location).Format(clockFormat))
	}
	result.Output = b.String()
	return result
}

func (e *Executor) updateEvent(ctx context.Context, turn *models.ConversationTurn) models.ToolResult {
	result := models.ToolResult{
		Operation: models.OpUpdateEvent,
		Input:     map[string]any{},
	}
	eventID, err := e.targetEventID(turn)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Input["event_id"] = eventID
	if len(e.calendarIDs) == 0 {
		result.Error = "no calendars configured"
		return result
	}
	updated, err := e.calendar.UpdateEvent(ctx, e.calendarIDs[0], eventID, models.EventRecord{
		Title:       turn.Slots.Title,
		Description: turn.Slots.Description,
		Location:    turn.Slots.Location,
		Start:       turn.Slots.Start,
		End:         turn.Slots.End,
		Attendees:   turn.Slots.Attendees,
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	result.Output = fmt.Sprintf("Updated %q, now %s to %s",
		updated.Title,
		updated.Start.In(turn.Location).Format(stampFormat),
		updated.End.In(turn.Location).Format(clockFormat))
	return result
}

func (e *Executor) deleteEvent(ctx context.Context, turn *models.ConversationTurn) models.ToolResult {
	result := models.ToolResult{
		Operation: models.OpDeleteEvent,
		Input:     map[string]any{},
	}
	eventID, err := e.targetEventID(turn)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Input["event_id"] = eventID
	if len(e.calendarIDs) == 0 {
		result.Error = "no calendars configured"
		return result
	}
	if err := e.calendar.DeleteEvent(ctx, e.calendarIDs[0], eventID); err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	result.Output = fmt.Sprintf("Deleted event %s", eventID)
	return result
}

// targetEventID locates the event a modification refers to. An explicit
// id wins; otherwise the events loaded by the listing step are filtered
// by title, and the match must be unambiguous.
func (e *Executor) targetEventID(turn *models.ConversationTurn) (string, error) {
	if turn.Slots.EventID != "" {
		return turn.Slots.EventID, nil
	}

	candidates := turn.Events
	if title := strings.TrimSpace(turn.Slots.Title); title != "" {
		needle := strings.ToLower(title)
		var matched []models.EventRecord
		for _, ev := range candidates {
			if strings.Contains(strings.ToLower(ev.Title), needle) {
				matched = append(matched, ev)
			}
		}
		if len(matched) > 0 {
			candidates = matched
		}
	}

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("no matching meeting found in that period")
	case 1:
		return candidates[0].ID, nil
	}
	return "", fmt.Errorf("found %d meetings in that period, cannot tell which one is meant", len(candidates))
}

func (e *Executor) currentTime(turn *models.ConversationTurn) models.ToolResult {
	now := turn.Reference.In(turn.Location)
	return models.ToolResult{
		Operation: models.OpCurrentTime,
		Input:     map[string]any{"timezone": turn.Location.String()},
		Success:   true,
		Output:    fmt.Sprintf("Current time in %s: %s", turn.Location, now.Format("2006-01-02 15:04:05 MST")),
	}
}
