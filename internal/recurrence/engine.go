// Package recurrence expands a weekly recurrence request into the concrete
// dates of a series. Expansion walks from the initial date through the
// inclusive end date and keeps every date whose weekday is in the requested
// set.
package recurrence

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/emaximovel/agenda/internal/scheduler"
)

// DefaultMaxOccurrences bounds a single expansion batch.
const DefaultMaxOccurrences = 366

// ErrNoWeekdays indicates the request carried an empty weekday set.
var ErrNoWeekdays = errors.New("recurrence: at least one weekday is required")

// ErrInvalidWindow indicates the end date precedes the start date.
var ErrInvalidWindow = errors.New("recurrence: end date precedes start date")

// ErrNoDates indicates the window contains no matching dates.
var ErrNoDates = errors.New("recurrence: no dates match the requested weekdays")

// ErrTooManyOccurrences indicates the window would expand past the cap.
var ErrTooManyOccurrences = errors.New("recurrence: too many occurrences in the requested window")

// Options tunes a single expansion.
type Options struct {
	// MaxOccurrences caps the batch size; zero applies DefaultMaxOccurrences.
	MaxOccurrences int
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// ExpandDates returns the YYYY-MM-DD dates of a series, in chronological
// order, starting at startDate through the inclusive endDate.
func ExpandDates(startDate, endDate string, weekdays []time.Weekday, loc *time.Location, opts Options) ([]string, error) {
	if len(weekdays) == 0 {
		return nil, ErrNoWeekdays
	}
	if loc == nil {
		loc = time.Local
	}

	start, err := scheduler.ParseDate(startDate, loc)
	if err != nil {
		return nil, err
	}
	end, err := scheduler.ParseDate(endDate, loc)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, ErrInvalidWindow
	}

	maxOccurrences := opts.MaxOccurrences
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxOccurrences
	}

	byWeekday := make([]rrule.Weekday, 0, len(weekdays))
	for _, day := range weekdays {
		mapped, ok := rruleWeekdays[day]
		if !ok {
			continue
		}
		byWeekday = append(byWeekday, mapped)
	}
	if len(byWeekday) == 0 {
		return nil, ErrNoWeekdays
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Until:     end,
		Byweekday: byWeekday,
	})
	if err != nil {
		return nil, err
	}

	occurrences := rule.All()
	if len(occurrences) == 0 {
		return nil, ErrNoDates
	}
	if len(occurrences) > maxOccurrences {
		return nil, ErrTooManyOccurrences
	}

	dates := make([]string, 0, len(occurrences))
	for _, occ := range occurrences {
		dates = append(dates, occ.In(loc).Format("2006-01-02"))
	}
	return dates, nil
}
