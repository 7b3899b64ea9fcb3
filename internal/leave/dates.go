package leave

import (
	"time"

	leaveerrors "hr-leave/internal/leave/errors"
	"hr-leave/internal/shared/apperror"
)

const monthLayout = "2006-01"

// DateSet holds calendar dates keyed as YYYY-MM-DD.
type DateSet map[string]struct{}

func (s DateSet) Add(d time.Time) {
	s[dateKey(d)] = struct{}{}
}

func (s DateSet) Has(d time.Time) bool {
	_, ok := s[dateKey(d)]
	return ok
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse(apperror.DateLayout, v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func parseMonth(v string) (time.Time, time.Time, error) {
	t, err := time.Parse(monthLayout, v)
	if err != nil {
		return time.Time{}, time.Time{}, leaveerrors.ErrInvalidMonthFormat
	}
	return t, t.AddDate(0, 1, -1), nil
}

func dateKey(d time.Time) string {
	return d.Format(apperror.DateLayout)
}

// truncateDate drops the clock part, keeping the calendar date of t in its own location.
func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func yearBounds(year int) (time.Time, time.Time) {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// eachDate calls fn for every date in [start, end].
func eachDate(start, end time.Time, fn func(d time.Time)) {
	for d := truncateDate(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// coveredDates returns every date occupied by the given requests.
func coveredDates(requests []LeaveRequest) DateSet {
	set := DateSet{}
	for _, r := range requests {
		eachDate(r.StartDate, truncateDate(r.EndDate), set.Add)
	}
	return set
}
