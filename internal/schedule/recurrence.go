// Package schedule implements recurrence period math and the catch-up
// generation of transaction instances a schedule missed while the file
// was not open.
package schedule

import (
	"sort"
	"time"

	"github.com/bookport-dev/bookport/internal/model"
)

// PeriodTypeFromTag maps the wire spellings of a recurrence period —
// both the structured recurrence element's lowercase values and the
// legacy inline period strings — onto one PeriodType. The degenerate
// "once" period has no runtime meaning and returns ok=false.
func PeriodTypeFromTag(tag string) (model.PeriodType, bool) {
	switch tag {
	case "day", "DAY", "daily":
		return model.PeriodDay, true
	case "week", "WEEK", "weekly":
		return model.PeriodWeek, true
	case "month", "MONTH", "monthly", "end of month":
		return model.PeriodMonth, true
	case "year", "YEAR", "yearly":
		return model.PeriodYear, true
	}
	return "", false
}

// Step advances t by one recurrence period (multiplier included), then
// applies the weekday restriction and weekend adjustment if any.
func Step(r model.Recurrence, t time.Time) time.Time {
	mult := r.Multiplier
	if mult < 1 {
		mult = 1
	}
	switch r.PeriodType {
	case model.PeriodDay:
		t = t.AddDate(0, 0, mult)
	case model.PeriodWeek:
		t = t.AddDate(0, 0, 7*mult)
	case model.PeriodMonth:
		t = addMonthsClamped(t, mult)
	case model.PeriodYear:
		t = addMonthsClamped(t, 12*mult)
	}
	t = snapToWeekday(r, t)
	return adjustWeekend(r, t)
}

// addMonthsClamped adds months without the day-overflow normalization
// of AddDate: a schedule anchored on Jan 31 fires on Feb 29, not Mar 2.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	first := time.Date(year, month, 1, hour, min, sec, t.Nanosecond(), t.Location())
	target := first.AddDate(0, months, 0)
	if last := daysIn(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// snapToWeekday moves t forward to the nearest listed weekday when the
// recurrence carries an explicit weekday set.
func snapToWeekday(r model.Recurrence, t time.Time) time.Time {
	if len(r.Weekdays) == 0 {
		return t
	}
	allowed := make(map[time.Weekday]bool, len(r.Weekdays))
	for _, d := range r.Weekdays {
		allowed[d] = true
	}
	for i := 0; i < 7; i++ {
		if allowed[t.Weekday()] {
			return t
		}
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func adjustWeekend(r model.Recurrence, t time.Time) time.Time {
	switch r.WeekendAdjust {
	case model.WeekendAdjustBackward:
		for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
			t = t.AddDate(0, 0, -1)
		}
	case model.WeekendAdjustForward:
		for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
			t = t.AddDate(0, 0, 1)
		}
	}
	return t
}

// SortWeekdays normalizes an explicit weekday set: duplicates removed,
// ascending order, nil for an empty set.
func SortWeekdays(days []time.Weekday) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	seen := make(map[time.Weekday]bool, len(days))
	out := days[:0]
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
