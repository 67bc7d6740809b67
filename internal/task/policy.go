package task

import (
	"time"

	"github.com/cleanquest/cleanquest/internal/model"
)

// Task status flags. Deleted is a soft flag: deleted rows stay in the table
// and are excluded from every listing.
const (
	StatusDue     = "due"
	StatusDone    = "done"
	StatusSnoozed = "snoozed"
	StatusDeleted = "deleted"
)

// Regenerated occurrences land at 06:00 so the task is waiting when the day starts.
const regenHour = 6

// EarlyWindow returns the calendar week containing today: the most recent
// Sunday at 00:00:00 through the following Saturday at 23:59:59.
func EarlyWindow(today time.Time) (start, end time.Time) {
	day := startOfDay(today)
	start = day.AddDate(0, 0, -int(day.Weekday()))
	end = start.AddDate(0, 0, 6).Add(24*time.Hour - time.Second)
	return start, end
}

// EarlyExecutionEligible reports whether a task may be completed ahead of its
// exact due date. Only weekly tasks qualify: any day within the calendar week
// containing the due date is allowed.
func EarlyExecutionEligible(nextDueAt time.Time, freq model.Frequency, today time.Time) bool {
	if freq != model.FreqWeekly {
		return false
	}
	start, end := EarlyWindow(today)
	return !nextDueAt.Before(start) && !nextDueAt.After(end)
}

// IsDueToday reports whether a task belongs in the "today" list. Custom tasks
// and daily tasks are always available while due; otherwise the task must be
// due on today's calendar date or fall inside the weekly early window.
func IsDueToday(t model.UserTask, freq model.Frequency, today time.Time) bool {
	if t.Status != StatusDue {
		return false
	}
	if t.IsCustom || freq == model.FreqDaily {
		return true
	}
	if sameDay(t.NextDueAt, today) {
		return true
	}
	return EarlyExecutionEligible(t.NextDueAt, freq, today)
}

// NextOccurrence computes when a fresh instance becomes due after a
// completion at the given time. The result is always at 06:00 local time.
func NextOccurrence(freq model.Frequency, after time.Time) time.Time {
	var next time.Time
	switch freq {
	case model.FreqWeekly:
		next = after.AddDate(0, 0, 7)
	case model.FreqMonthly:
		next = after.AddDate(0, 1, 0)
	case model.FreqQuarterly:
		next = after.AddDate(0, 3, 0)
	case model.FreqYearly:
		next = after.AddDate(1, 0, 0)
	default:
		next = after.AddDate(0, 0, 1)
	}
	return time.Date(next.Year(), next.Month(), next.Day(), regenHour, 0, 0, 0, after.Location())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
