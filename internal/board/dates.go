package board

import "time"

// Due-date bucket names, shared by swimlanes and metrics.
const (
	BucketOverdue  = "overdue"
	BucketToday    = "today"
	BucketTomorrow = "tomorrow"
	BucketThisWeek = "this-week"
	BucketLater    = "later"
	BucketNoDate   = "no-date"
)

// dayBounds holds the day boundaries of one evaluation instant. They are
// computed once per call so every comparison in a pass sees the same "today".
type dayBounds struct {
	today    time.Time
	tomorrow time.Time
	weekEnd  time.Time
}

func boundsAt(now time.Time) dayBounds {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return dayBounds{
		today:    today,
		tomorrow: today.AddDate(0, 0, 1),
		weekEnd:  today.AddDate(0, 0, 7),
	}
}

// day maps a due date onto the evaluation calendar. Due dates are calendar
// days, so only their year, month and day are kept.
func (b dayBounds) day(due time.Time) time.Time {
	y, m, d := due.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, b.today.Location())
}

func (b dayBounds) isOverdue(due *time.Time) bool {
	return due != nil && b.day(*due).Before(b.today)
}

// bucket returns the due-date bucket of a task's due date.
func (b dayBounds) bucket(due *time.Time) string {
	if due == nil {
		return BucketNoDate
	}
	d := b.day(*due)
	switch {
	case d.Before(b.today):
		return BucketOverdue
	case d.Equal(b.today):
		return BucketToday
	case d.Equal(b.tomorrow):
		return BucketTomorrow
	case d.Before(b.weekEnd):
		return BucketThisWeek
	default:
		return BucketLater
	}
}

// inThisWeek is the filter definition of "this week": strictly after today
// and before today+7.
func (b dayBounds) inThisWeek(due *time.Time) bool {
	if due == nil {
		return false
	}
	d := b.day(*due)
	return d.After(b.today) && d.Before(b.weekEnd)
}

func (b dayBounds) isLater(due *time.Time) bool {
	return due != nil && !b.day(*due).Before(b.weekEnd)
}

func (b dayBounds) isToday(due *time.Time) bool {
	return due != nil && b.day(*due).Equal(b.today)
}
