package ranking

import (
	"strings"
	"time"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	"github.com/samber/lo"
)

type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// Periods lists the supported windows, shortest first.
var Periods = []Period{PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear}

func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if lo.Contains(Periods, p) {
		return p, nil
	}
	return "", apperrors.ErrInvalidPeriod.WithDetails(map[string]interface{}{"period": s, "allowed": Periods})
}

// Entry is one leaderboard row.
type Entry struct {
	UserID int64 `json:"userId" db:"user_id"`
	Points int64 `json:"points" db:"points"`
}

// Cutoff returns the start of the window ending at now. Month based periods
// land on the same day of month, clamped to the target month's last day.
func Cutoff(now time.Time, p Period) time.Time {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodMonth:
		return subtractMonths(now, 1)
	case PeriodQuarter:
		return subtractMonths(now, 3)
	case PeriodYear:
		return subtractMonths(now, 12)
	}
	return now
}

func subtractMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m-time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
