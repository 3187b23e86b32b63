package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/athenahq/scheduling-assistant/internal/models"
	"go.uber.org/zap"
)

var (
	clockWithMinutes = regexp.MustCompile(`\b(\d{1,2}):(\d{2})(?:\s*(am|pm))?\b`)
	clockAmPm        = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
	clockOClock      = regexp.MustCompile(`\b(\d{1,2})\s*o'?clock\b`)

	namedTimes = map[string]int{
		"noon":      12,
		"midnight":  0,
		"morning":   9,
		"afternoon": 14,
		"evening":   18,
		"night":     20,
		"lunchtime": 12,
	}

	// Checked in this order so "afternoon" is not matched as "noon".
	namedTimeOrder = []string{"lunchtime", "midnight", "afternoon", "noon", "morning", "evening", "night"}

	weekdayOrder = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

	weekdays = map[string]time.Weekday{
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
		"sunday":    time.Sunday,
	}
)

// Day keywords recognized by the resolver, beyond weekday names.
const (
	KeywordToday     = "today"
	KeywordTomorrow  = "tomorrow"
	KeywordYesterday = "yesterday"
	KeywordNextWeek  = "next week"
	KeywordThisWeek  = "this week"
)

// Options configure a Resolver. Zero values fall back to the standard
// defaults: 30-minute slots inside an 08:00-18:00 business window.
type Options struct {
	DefaultDuration   time.Duration
	BusinessStartHour int
	BusinessEndHour   int
}

// Resolver converts natural-language time phrases into concrete ranges.
// Resolution never fails: unparseable input degrades to the reference
// day's business window.
type Resolver struct {
	defaultDuration time.Duration
	dayStart        int
	dayEnd          int
	logger          *zap.Logger
}

func NewResolver(opts Options, logger *zap.Logger) *Resolver {
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = 30 * time.Minute
	}
	if opts.BusinessEndHour <= opts.BusinessStartHour {
		opts.BusinessStartHour = 8
		opts.BusinessEndHour = 18
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		defaultDuration: opts.DefaultDuration,
		dayStart:        opts.BusinessStartHour,
		dayEnd:          opts.BusinessEndHour,
		logger:          logger,
	}
}

// FindPhrase scans a message for a temporal reference. It returns false
// when the message carries no recognizable clock time, named time, or
// day keyword.
func FindPhrase(message string) (*models.TemporalPhrase, bool) {
	p := Extract(message)
	if p.Clock == nil && p.NamedTime == "" && p.DayKeyword == "" {
		return nil, false
	}
	return &p, true
}

// Extract pulls the clock time, named time, and day keyword out of a
// phrase. Clock times are normalized to 24-hour form; an hour above 12
// with no am/pm marker is taken as 24-hour input.
func Extract(phrase string) models.TemporalPhrase {
	lower := strings.ToLower(strings.TrimSpace(phrase))
	p := models.TemporalPhrase{Raw: phrase}

	p.Clock = extractClock(lower)
	if p.Clock == nil {
		for _, name := range namedTimeOrder {
			if strings.Contains(lower, name) {
				p.NamedTime = name
				break
			}
		}
	}
	p.DayKeyword = extractDayKeyword(lower)
	return p
}

func extractClock(lower string) *models.ClockTime {
	if m := clockWithMinutes.FindStringSubmatch(lower); m != nil {
		if c := buildClock(m[1], m[2], m[3]); c != nil {
			return c
		}
	}
	if m := clockAmPm.FindStringSubmatch(lower); m != nil {
		if c := buildClock(m[1], "", m[2]); c != nil {
			return c
		}
	}
	if m := clockOClock.FindStringSubmatch(lower); m != nil {
		if c := buildClock(m[1], "", ""); c != nil {
			return c
		}
	}
	return nil
}

func buildClock(hourStr, minuteStr, ampm string) *models.ClockTime {
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour > 23 {
		return nil
	}
	minute := 0
	if minuteStr != "" {
		minute, err = strconv.Atoi(minuteStr)
		if err != nil || minute > 59 {
			return nil
		}
	}
	switch ampm {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 {
		return nil
	}
	return &models.ClockTime{Hour: hour, Minute: minute}
}

// extractDayKeyword applies the documented tie-break: a weekday name
// wins over today/tomorrow/yesterday when both appear.
func extractDayKeyword(lower string) string {
	for _, name := range weekdayOrder {
		if strings.Contains(lower, name) {
			return name
		}
	}
	for _, kw := range []string{KeywordToday, KeywordTomorrow, KeywordYesterday, KeywordNextWeek, KeywordThisWeek} {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return ""
}

// Resolve converts a phrase plus a reference instant and timezone into a
// concrete range. A phrase with a clock time becomes a default-duration
// slot on the anchor date; a phrase without one becomes the anchor day's
// (or week's) business window.
func (r *Resolver) Resolve(phrase string, ref time.Time, loc *time.Location) models.ResolvedRange {
	if loc == nil {
		loc = time.UTC
	}
	ref = ref.In(loc)
	p := Extract(phrase)

	anchor, weekEnd, isWeek := r.anchor(p.DayKeyword, ref)

	clock := p.Clock
	if clock == nil && p.NamedTime != "" {
		clock = &models.ClockTime{Hour: namedTimes[p.NamedTime]}
	}

	var start, end time.Time
	if clock != nil {
		start = at(anchor, clock.Hour, clock.Minute, loc)
		end = start.Add(r.defaultDuration)
	} else {
		start = at(anchor, r.dayStart, 0, loc)
		endDay := anchor
		if isWeek {
			endDay = weekEnd
		}
		end = at(endDay, r.dayEnd, 0, loc)
	}

	if !end.After(start) {
		r.logger.Warn("temporal phrase did not resolve, using business-window fallback",
			zap.String("phrase", phrase),
			zap.Time("reference", ref))
		return r.fallback(ref, loc)
	}
	return models.ResolvedRange{Start: start, End: end}
}

// ResolveWithin tightens an already-resolved coarse window using a clock
// time found in the query, anchored on the window's start date. A query
// with no recognizable time returns the window unchanged.
func (r *Resolver) ResolveWithin(query string, window models.ResolvedRange, loc *time.Location) models.ResolvedRange {
	if loc == nil {
		loc = time.UTC
	}
	p := Extract(query)
	clock := p.Clock
	if clock == nil && p.NamedTime != "" {
		clock = &models.ClockTime{Hour: namedTimes[p.NamedTime]}
	}
	if clock == nil {
		return window
	}
	start := at(window.Start.In(loc), clock.Hour, clock.Minute, loc)
	return models.ResolvedRange{Start: start, End: start.Add(r.defaultDuration)}
}

// anchor picks the date the phrase refers to. For week-long keywords it
// also returns the week's last business day.
func (r *Resolver) anchor(keyword string, ref time.Time) (anchor, weekEnd time.Time, isWeek bool) {
	if wd, ok := weekdays[keyword]; ok {
		days := (int(wd) - int(ref.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return ref.AddDate(0, 0, days), time.Time{}, false
	}

	switch keyword {
	case KeywordToday, "":
		return ref, time.Time{}, false
	case KeywordTomorrow:
		return ref.AddDate(0, 0, 1), time.Time{}, false
	case KeywordYesterday:
		return ref.AddDate(0, 0, -1), time.Time{}, false
	case KeywordNextWeek:
		iso := isoWeekday(ref)
		monday := ref.AddDate(0, 0, 7-iso)
		return monday, monday.AddDate(0, 0, 4), true
	case KeywordThisWeek:
		iso := isoWeekday(ref)
		if iso >= 5 {
			monday := ref.AddDate(0, 0, 7-iso)
			return monday, monday.AddDate(0, 0, 4), true
		}
		return ref, ref.AddDate(0, 0, 4-iso), true
	}
	return ref, time.Time{}, false
}

func (r *Resolver) fallback(ref time.Time, loc *time.Location) models.ResolvedRange {
	return models.ResolvedRange{
		Start: at(ref, r.dayStart, 0, loc),
		End:   at(ref, r.dayEnd, 0, loc),
	}
}

// isoWeekday maps Monday to 0 through Sunday to 6.
func isoWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func at(day time.Time, hour, minute int, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
}
