package models

import "time"

// Speaker tags who produced an utterance in a conversation thread.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Utterance is one message in a conversation thread.
type Utterance struct {
	ID        string    `json:"id"`
	ThreadID  int64     `json:"thread_id"`
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ClockTime is an explicit time of day extracted from a phrase,
// already normalized to 24-hour form.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// TemporalPhrase is a substring of a message believed to reference a
// date or time. Either or both of Clock and DayKeyword may be set.
type TemporalPhrase struct {
	Raw        string     `json:"raw"`
	Clock      *ClockTime `json:"clock,omitempty"`
	NamedTime  string     `json:"named_time,omitempty"`
	DayKeyword string     `json:"day_keyword,omitempty"`
}

// ResolvedRange is a concrete timezone-aware start/end pair.
// Produced only by the temporal resolver; End is always after Start.
type ResolvedRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BusyInterval is an existing commitment reported by the calendar backend.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AvailableSlot is an open window computed by the slot finder.
type AvailableSlot struct {
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
}

// Slot field names shared by the planner, clarifier and executor.
const (
	FieldTitle       = "title"
	FieldStart       = "start"
	FieldEnd         = "end"
	FieldDuration    = "duration"
	FieldAttendees   = "attendees"
	FieldLocation    = "location"
	FieldDescription = "description"
	FieldEventID     = "event_id"
)

// SlotValues holds the fields extracted so far for the current task.
type SlotValues struct {
	Title           string    `json:"title,omitempty"`
	Start           time.Time `json:"start,omitempty"`
	End             time.Time `json:"end,omitempty"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	Attendees       []string  `json:"attendees,omitempty"`
	Location        string    `json:"location,omitempty"`
	Description     string    `json:"description,omitempty"`
	EventID         string    `json:"event_id,omitempty"`
}

// Bound reports whether the named field has a value.
func (s SlotValues) Bound(field string) bool {
	switch field {
	case FieldTitle:
		return s.Title != ""
	case FieldStart:
		return !s.Start.IsZero()
	case FieldEnd:
		return !s.End.IsZero()
	case FieldDuration:
		return s.DurationMinutes > 0
	case FieldAttendees:
		return len(s.Attendees) > 0
	case FieldLocation:
		return s.Location != ""
	case FieldDescription:
		return s.Description != ""
	case FieldEventID:
		return s.EventID != ""
	}
	return false
}

// ConversationTurn carries one inbound message and the state accumulated
// while processing it. It is created per message and discarded once a
// reply has been produced; nothing mutates it concurrently.
type ConversationTurn struct {
	ID        string
	ThreadID  int64
	Message   string
	History   []Utterance
	Intent    Intent
	Slots     SlotValues
	Missing   []string
	Phrase    *TemporalPhrase
	Resolved  *ResolvedRange
	// Events holds the records loaded by a listing step so later steps
	// in the same plan can locate their target.
	Events    []EventRecord
	Reference time.Time
	Location  *time.Location
}

// ThreadState is the pending task carried across turns while the
// assistant waits for a clarification answer.
type ThreadState struct {
	ThreadID  int64      `json:"thread_id"`
	Intent    Intent     `json:"intent"`
	Slots     SlotValues `json:"slots"`
	Missing   []string   `json:"missing"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ToolResult records one executed (or skipped) plan step.
type ToolResult struct {
	Operation string         `json:"operation"`
	Input     map[string]any `json:"input,omitempty"`
	Output    string         `json:"output,omitempty"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
}

// Reply is the structured record produced for each processed message.
type Reply struct {
	Response    string       `json:"response"`
	Intent      Intent       `json:"intent"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
	MissingInfo []string     `json:"missing_info,omitempty"`
}

// EventRecord is a calendar event as the backend reports it.
type EventRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Attendees   []string  `json:"attendees,omitempty"`
	Status      string    `json:"status,omitempty"`
	HTMLLink    string    `json:"html_link,omitempty"`
}
