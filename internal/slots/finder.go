// Package slots computes open meeting windows from busy calendar time.
package slots

import (
	"sort"
	"time"

	"github.com/athenahq/scheduling-assistant/internal/models"
)

// ScanStep is the fixed resolution at which candidate windows are
// examined. It is independent of the requested slot duration, so
// returned slots may overlap one another; callers needing disjoint
// slots post-filter.
const ScanStep = 30 * time.Minute

// Find returns every free window of the given duration inside
// [rangeStart, rangeEnd], stepping at ScanStep and testing each
// candidate against the busy intervals with a half-open overlap check.
// Busy intervals whose end does not follow their start are ignored.
func Find(busy []models.BusyInterval, rangeStart, rangeEnd time.Time, slotDuration time.Duration) []models.AvailableSlot {
	if slotDuration <= 0 {
		slotDuration = ScanStep
	}

	periods := make([]models.BusyInterval, 0, len(busy))
	for _, b := range busy {
		if !b.End.After(b.Start) {
			continue
		}
		periods = append(periods, b)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Start.Before(periods[j].Start) })

	var available []models.AvailableSlot
	for current := rangeStart; !current.Add(slotDuration).After(rangeEnd); current = current.Add(ScanStep) {
		slotEnd := current.Add(slotDuration)
		free := true
		for _, b := range periods {
			if slotEnd.After(b.Start) && current.Before(b.End) {
				free = false
				break
			}
		}
		if free {
			available = append(available, models.AvailableSlot{
				Start:    current,
				End:      slotEnd,
				Duration: slotDuration,
			})
		}
	}
	return available
}
