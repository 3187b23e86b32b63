package models

// Plan operation names.
const (
	OpCheckAvailability = "check_availability"
	OpCreateEvent       = "create_event"
	OpListEvents        = "list_events"
	OpFindSlots         = "find_slots"
	OpUpdateEvent       = "update_event"
	OpDeleteEvent       = "delete_event"
	OpCurrentTime       = "current_time"
)

// PlanStep is one calendar operation with its field requirements.
// DependsOn names an earlier step whose failure makes this step
// unexecutable; the executor then skips it with its own failure record.
type PlanStep struct {
	Operation string   `json:"operation"`
	Required  []string `json:"required,omitempty"`
	Optional  []string `json:"optional,omitempty"`
	DependsOn string   `json:"depends_on,omitempty"`
}

// Plan is the ordered list of operations for an intent.
type Plan struct {
	Intent Intent     `json:"intent"`
	Steps  []PlanStep `json:"steps"`
}

// MissingFields returns the required fields across all steps that have
// no bound value, in declaration order without duplicates.
func (p Plan) MissingFields(slots SlotValues) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, step := range p.Steps {
		for _, field := range step.Required {
			if seen[field] || slots.Bound(field) {
				continue
			}
			seen[field] = true
			missing = append(missing, field)
		}
	}
	return missing
}

// Complete reports whether every required field has a bound value.
func (p Plan) Complete(slots SlotValues) bool {
	return len(p.MissingFields(slots)) == 0
}
