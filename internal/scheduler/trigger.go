package scheduler

import (
	"fmt"
	"time"
)

// Kind distinguishes daily from weekly triggers.
type Kind int

const (
	KindDaily Kind = iota
	KindWeekly
)

// Trigger is a static fire condition evaluated in the scheduler's location.
type Trigger struct {
	Kind    Kind
	Weekday time.Weekday // weekly only
	Hour    int          // 0-23
}

// Daily fires once per calendar day, at or after hour.
func Daily(hour int) Trigger {
	return Trigger{Kind: KindDaily, Hour: hour}
}

// Weekly fires once per ISO week, on day at or after hour.
func Weekly(day time.Weekday, hour int) Trigger {
	return Trigger{Kind: KindWeekly, Weekday: day, Hour: hour}
}

// Validate rejects hours and weekdays outside their ranges.
func (t Trigger) Validate() error {
	if t.Hour < 0 || t.Hour > 23 {
		return fmt.Errorf("hour %d out of range 0-23", t.Hour)
	}
	switch t.Kind {
	case KindDaily:
	case KindWeekly:
		if t.Weekday < time.Sunday || t.Weekday > time.Saturday {
			return fmt.Errorf("weekday %d out of range", t.Weekday)
		}
	default:
		return fmt.Errorf("unknown trigger kind %d", t.Kind)
	}
	return nil
}

// Period is the bucket key for now: "2006-01-02" for daily triggers, the ISO
// week ("2024-W01") for weekly ones. now must already be in the scheduler's location.
func (t Trigger) Period(now time.Time) string {
	if t.Kind == KindWeekly {
		return ISOWeek(now)
	}
	return now.Format(time.DateOnly)
}

// Due reports whether the trigger holds at now and the current period has not
// been recorded yet.
func (t Trigger) Due(now time.Time, lastPeriod string) bool {
	if now.Hour() < t.Hour {
		return false
	}
	if t.Kind == KindWeekly && now.Weekday() != t.Weekday {
		return false
	}
	return lastPeriod != t.Period(now)
}

// CronExpr renders the trigger as a five-field cron expression.
func (t Trigger) CronExpr() string {
	if t.Kind == KindWeekly {
		return fmt.Sprintf("0 %d * * %d", t.Hour, int(t.Weekday))
	}
	return fmt.Sprintf("0 %d * * *", t.Hour)
}

func (t Trigger) String() string {
	if t.Kind == KindWeekly {
		return fmt.Sprintf("weekly %s %02d:00", t.Weekday.String()[:3], t.Hour)
	}
	return fmt.Sprintf("daily %02d:00", t.Hour)
}

// ISOWeek formats the ISO 8601 week of t, e.g. "2024-W01".
func ISOWeek(t time.Time) string {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}
