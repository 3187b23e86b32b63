// Package agent orchestrates one conversation turn: it classifies the
// message, plans calendar operations, resolves temporal references,
// asks for missing details, executes the plan and phrases the reply.
package agent

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/athenahq/scheduling-assistant/internal/classifier"
	"github.com/athenahq/scheduling-assistant/internal/clarifier"
	"github.com/athenahq/scheduling-assistant/internal/executor"
	"github.com/athenahq/scheduling-assistant/internal/models"
	"github.com/athenahq/scheduling-assistant/internal/planner"
	"github.com/athenahq/scheduling-assistant/internal/responder"
	"github.com/athenahq/scheduling-assistant/internal/storage"
	"github.com/athenahq/scheduling-assistant/internal/temporal"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State names the orchestrator's position while processing a turn.
type State string

const (
	StateClassifying    State = "classifying"
	StatePlanning       State = "planning"
	StateResolvingTime  State = "resolving_time"
	StateClarifying     State = "clarifying"
	StateExecuting      State = "executing"
	StateDirectResponse State = "direct_response"
	StateResponding     State = "responding"
)

// historyLimit bounds how much thread history a turn loads.
const historyLimit = 10

var (
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	durationPattern = regexp.MustCompile(`(\d+)\s*(hours?|hrs?|minutes?|mins?)`)
	// Apostrophes make single quotes too ambiguous to treat as titles.
	quotedTitle = regexp.MustCompile(`"([^"]+)"|“([^”]+)”`)
)

type Agent struct {
	classifier classifier.Classifier
	planner    *planner.Planner
	clarifier  *clarifier.Clarifier
	executor   *executor.Executor
	responder  *responder.Responder
	resolver   *temporal.Resolver
	storage    storage.Storage
	logger     *zap.Logger
}

func New(
	cls classifier.Classifier,
	pln *planner.Planner,
	clr *clarifier.Clarifier,
	exe *executor.Executor,
	rsp *responder.Responder,
	res *temporal.Resolver,
	store storage.Storage,
	logger *zap.Logger,
) *Agent {
	return &Agent{
		classifier: cls,
		planner:    pln,
		clarifier:  clr,
		executor:   exe,
		responder:  rsp,
		resolver:   res,
		storage:    store,
		logger:     logger,
	}
}

// ProcessMessage runs one message through the full pipeline and always
// returns a reply. A panic anywhere below surfaces as a generic apology
// rather than killing the thread worker.
func (a *Agent) ProcessMessage(ctx context.Context, threadID int64, message string, ref time.Time, loc *time.Location) (reply *models.Reply) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Recovered from panic while processing message",
				zap.Int64("thread_id", threadID),
				zap.Any("panic", r))
			reply = &models.Reply{
				Response: responder.Apology,
				Intent:   models.IntentGeneralConversation,
			}
		}
	}()

	if loc == nil {
		loc = time.UTC
	}

	turn := &models.ConversationTurn{
		ID:        uuid.New().String(),
		ThreadID:  threadID,
		Message:   message,
		Reference: ref.In(loc),
		Location:  loc,
	}

	history, err := a.storage.RecentUtterances(ctx, threadID, historyLimit)
	if err != nil {
		a.logger.Warn("Failed to load thread history",
			zap.Int64("thread_id", threadID),
			zap.Error(err))
	}
	turn.History = history

	reply = a.run(ctx, turn)
	a.record(ctx, turn, reply)
	return reply
}

// run drives the turn through the state machine and produces the reply.
func (a *Agent) run(ctx context.Context, turn *models.ConversationTurn) *models.Reply {
	state := StateClassifying
	var plan models.Plan
	var results []models.ToolResult
	var question string

	for {
		switch state {
		case StateClassifying:
			turn.Intent = a.classifier.Classify(ctx, turn.Message, turn.History)
			a.logger.Debug("Classified message",
				zap.Int64("thread_id", turn.ThreadID),
				zap.String("intent", string(turn.Intent)))

			switch turn.Intent {
			case models.IntentGeneralConversation:
				state = StateDirectResponse
			case models.IntentClarificationAnswer:
				if a.resumePending(ctx, turn) {
					state = StatePlanning
				} else {
					state = StateDirectResponse
				}
			default:
				state = StatePlanning
			}

		case StatePlanning:
			a.bindMessageFields(turn)
			var stage planner.Stage
			plan, stage = a.planner.Plan(turn)
			switch stage {
			case planner.StageResolveTime:
				state = StateResolvingTime
			case planner.StageClarify:
				state = StateClarifying
			case planner.StageExecute:
				state = StateExecuting
			default:
				state = StateDirectResponse
			}

		case StateResolvingTime:
			// Resolve never fails, so this state runs at most once per
			// turn before planning proceeds.
			rng := a.resolver.Resolve(turn.Phrase.Raw, turn.Reference, turn.Location)
			turn.Resolved = &rng
			a.bindResolvedRange(turn, rng)
			state = StatePlanning

		case StateClarifying:
			question = a.clarifier.Clarify(ctx, turn.Missing, turn.Intent)
			a.savePending(ctx, turn)
			state = StateResponding

		case StateExecuting:
			results = a.executor.Execute(ctx, plan, turn)
			a.clearPending(ctx, turn)
			state = StateResponding

		case StateDirectResponse:
			return &models.Reply{
				Response: a.responder.Direct(ctx, turn),
				Intent:   turn.Intent,
			}

		case StateResponding:
			if question != "" {
				return &models.Reply{
					Response:    question,
					Intent:      turn.Intent,
					MissingInfo: turn.Missing,
				}
			}
			return &models.Reply{
				Response:    a.responder.Respond(ctx, turn, results),
				Intent:      turn.Intent,
				ToolResults: results,
			}
		}
	}
}

// bindResolvedRange writes a resolved time range into unbound slots.
// A stated duration replaces the range's own end only for point-in-time
// phrases; a day or week window stays intact as the search range.
func (a *Agent) bindResolvedRange(turn *models.ConversationTurn, rng models.ResolvedRange) {
	if !turn.Slots.Bound(models.FieldStart) {
		turn.Slots.Start = rng.Start
	}
	if !turn.Slots.Bound(models.FieldEnd) {
		pointInTime := turn.Phrase != nil && (turn.Phrase.Clock != nil || turn.Phrase.NamedTime != "")
		if pointInTime && turn.Slots.Bound(models.FieldDuration) {
			turn.Slots.End = turn.Slots.Start.Add(time.Duration(turn.Slots.DurationMinutes) * time.Minute)
		} else {
			turn.Slots.End = rng.End
		}
	}
}

// resumePending restores the task saved when the previous turn asked a
// clarifying question and folds the answer into its slots. It reports
// false when no task is pending.
func (a *Agent) resumePending(ctx context.Context, turn *models.ConversationTurn) bool {
	state, err := a.storage.GetThreadState(ctx, turn.ThreadID)
	if err != nil {
		a.logger.Warn("Failed to load pending thread state",
			zap.Int64("thread_id", turn.ThreadID),
			zap.Error(err))
		return false
	}
	if state == nil {
		return false
	}

	turn.Intent = state.Intent
	turn.Slots = state.Slots
	a.bindAnswer(turn, state.Missing)
	return true
}

// bindMessageFields extracts the non-temporal details stated in the
// message itself, so a request that already carries them is not
// clarified for. Only unbound slots are written; re-running is a no-op.
func (a *Agent) bindMessageFields(turn *models.ConversationTurn) {
	lower := strings.ToLower(turn.Message)

	if !turn.Slots.Bound(models.FieldDuration) {
		if minutes := parseDurationMinutes(lower); minutes > 0 {
			turn.Slots.DurationMinutes = minutes
		}
	}
	if !turn.Slots.Bound(models.FieldAttendees) {
		if emails := emailPattern.FindAllString(turn.Message, -1); len(emails) > 0 {
			turn.Slots.Attendees = emails
		}
	}
	if !turn.Slots.Bound(models.FieldTitle) {
		if title := extractTitle(turn.Message); title != "" {
			turn.Slots.Title = title
		}
	}
}

// bindAnswer interprets a clarification answer against the fields that
// were missing when the question was asked.
func (a *Agent) bindAnswer(turn *models.ConversationTurn, missing []string) {
	answer := strings.TrimSpace(turn.Message)
	lower := strings.ToLower(answer)

	wanted := make(map[string]bool, len(missing))
	for _, field := range missing {
		wanted[field] = true
	}

	if !turn.Slots.Bound(models.FieldDuration) {
		if minutes := parseDurationMinutes(lower); minutes > 0 {
			turn.Slots.DurationMinutes = minutes
		}
	}

	if emails := emailPattern.FindAllString(answer, -1); len(emails) > 0 && !turn.Slots.Bound(models.FieldAttendees) {
		turn.Slots.Attendees = emails
	}

	if (wanted[models.FieldStart] || wanted[models.FieldEnd]) && turn.Phrase == nil {
		if phrase, ok := temporal.FindPhrase(answer); ok {
			turn.Phrase = phrase
		}
	}

	// A short answer with no time reference and no addresses is taken
	// as the title when that is what was asked for.
	if wanted[models.FieldTitle] && !turn.Slots.Bound(models.FieldTitle) &&
		turn.Phrase == nil && len(turn.Slots.Attendees) == 0 && answer != "" {
		turn.Slots.Title = answer
	}
}

func parseDurationMinutes(lower string) int {
	m := durationPattern.FindStringSubmatch(lower)
	if m == nil {
		return 0
	}
	minutes, _ := strconv.Atoi(m[1])
	if strings.HasPrefix(m[2], "h") {
		minutes *= 60
	}
	return minutes
}

// extractTitle pulls a meeting title out of a request: quoted text
// first, then the clause after "about"/"titled"/"called"/"regarding"
// up to the next temporal or attendee clause.
func extractTitle(message string) string {
	if m := quotedTitle.FindStringSubmatch(message); m != nil {
		for _, group := range m[1:] {
			if group != "" {
				return strings.TrimSpace(group)
			}
		}
	}

	lower := strings.ToLower(message)
	for _, marker := range []string{" about ", " titled ", " called ", " regarding "} {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		return trimTitleClause(message[idx+len(marker):])
	}
	return ""
}

func trimTitleClause(rest string) string {
	lower := strings.ToLower(rest)
	cut := len(rest)
	for _, boundary := range []string{
		" tomorrow", " today", " yesterday", " next ", " this ",
		" at ", " on ", " from ", " with ", " between ",
	} {
		if idx := strings.Index(lower, boundary); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return strings.Trim(strings.TrimSpace(rest[:cut]), `.,!?"'`)
}

// savePending persists the interrupted task so the next message in the
// thread can resume it.
func (a *Agent) savePending(ctx context.Context, turn *models.ConversationTurn) {
	state := &models.ThreadState{
		ThreadID:  turn.ThreadID,
		Intent:    turn.Intent,
		Slots:     turn.Slots,
		Missing:   turn.Missing,
		UpdatedAt: time.Now(),
	}
	if err := a.storage.SaveThreadState(ctx, state); err != nil {
		a.logger.Warn("Failed to save pending thread state",
			zap.Int64("thread_id", turn.ThreadID),
			zap.Error(err))
	}
}

func (a *Agent) clearPending(ctx context.Context, turn *models.ConversationTurn) {
	if err := a.storage.ClearThreadState(ctx, turn.ThreadID); err != nil {
		a.logger.Warn("Failed to clear pending thread state",
			zap.Int64("thread_id", turn.ThreadID),
			zap.Error(err))
	}
}

// record appends both sides of the exchange to the thread history.
// Storage failures are logged and do not affect the reply.
func (a *Agent) record(ctx context.Context, turn *models.ConversationTurn, reply *models.Reply) {
	now := time.Now()
	entries := []models.Utterance{
		{
			ID:        turn.ID,
			ThreadID:  turn.ThreadID,
			Speaker:   models.SpeakerUser,
			Text:      turn.Message,
			CreatedAt: now,
		},
		{
			ID:        uuid.New().String(),
			ThreadID:  turn.ThreadID,
			Speaker:   models.SpeakerAssistant,
			Text:      reply.Response,
			CreatedAt: now.Add(time.Millisecond),
		},
	}
	for _, u := range entries {
		if err := a.storage.AppendUtterance(ctx, u); err != nil {
			a.logger.Warn("Failed to record utterance",
				zap.Int64("thread_id", turn.ThreadID),
				zap.Error(err))
		}
	}
}
