package mediasvc

import (
	"time"

	"github.com/nikmash711/book-corner-server/model"
)

// Late fee per overdue day, in dollars.
const DailyFineDollars = 1

// OverdueDays counts whole days from due to today, date-only. Time of day is
// ignored: an item due at any point today is not overdue yet. Negative means
// the due date is still in the future.
func OverdueDays(due, today time.Time) int {
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(d).Hours() / 24)
}

// Balance sums the late fees for items, in dollars. Only strictly positive
// overdue day counts contribute; an item due today or later owes nothing.
func Balance(items []model.Media, today time.Time) int {
	sum := 0
	for _, m := range items {
		if m.DueDate == nil {
			continue
		}
		if days := OverdueDays(*m.DueDate, today); days > 0 {
			sum += days * DailyFineDollars
		}
	}
	return sum
}

// StateOf derives the explicit lifecycle state from a media row, using the
// same day arithmetic as the balance above.
func StateOf(m *model.Media, today time.Time) model.MediaState {
	switch {
	case m.Available:
		return model.StateAvailable
	case m.DueDate == nil:
		return model.StateAwaitingPickup
	case OverdueDays(*m.DueDate, today) > 0:
		return model.StateOverdue
	default:
		return model.StateCheckedOut
	}
}
