package models

// Intent is the closed-set classification of what a message asks for.
type Intent string

const (
	IntentGeneralConversation Intent = "general_conversation"
	IntentClarificationAnswer Intent = "clarification_answer"
	IntentMeetingRequest      Intent = "meeting_request"
	IntentCalendarInquiry     Intent = "calendar_inquiry"
	IntentAvailabilityInquiry Intent = "availability_inquiry"
	IntentMeetingModification Intent = "meeting_modification"
	IntentTimeQuestion        Intent = "time_question"
)

// AllIntents lists every valid intent label.
var AllIntents = []Intent{
	IntentGeneralConversation,
	IntentClarificationAnswer,
	IntentMeetingRequest,
	IntentCalendarInquiry,
	IntentAvailabilityInquiry,
	IntentMeetingModification,
	IntentTimeQuestion,
}

func (i Intent) Valid() bool {
	for _, v := range AllIntents {
		if i == v {
			return true
		}
	}
	return false
}
