package booking

import (
	"fmt"
	"time"
)

// Windows holds the default booking windows used in auto mode. Weekday
// evenings and weekend afternoons differ because the library keeps
// different hours.
type Windows struct {
	WeekdayStart string
	WeekdayEnd   string
	WeekendStart string
	WeekendEnd   string
}

// DefaultWindows are the stock windows; overridable via config.
func DefaultWindows() Windows {
	return Windows{
		WeekdayStart: "19:00",
		WeekdayEnd:   "21:00",
		WeekendStart: "15:00",
		WeekendEnd:   "17:00",
	}
}

// For returns the window for the given date's day of week.
func (w Windows) For(date time.Time) (start, end string) {
	if isWeekend(date) {
		return w.WeekendStart, w.WeekendEnd
	}
	return w.WeekdayStart, w.WeekdayEnd
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

const dateLayout = "2006-01-02"

// ResolveTargets computes the run's target list.
//
// With an explicit date the run books that single date and any open slot
// qualifies. Without one it books two days out from now with an exact
// window chosen by day of week — the portal releases slots two days in
// advance, so that is the earliest date worth contending for.
func ResolveTargets(now time.Time, explicitDate string, room RoomType, w Windows) ([]Target, error) {
	if explicitDate != "" {
		d, err := time.Parse(dateLayout, explicitDate)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", explicitDate)
		}
		return []Target{{
			Date:     d.Format(dateLayout),
			DayName:  d.Weekday().String(),
			RoomType: room,
			Select:   AnyTime(),
		}}, nil
	}

	d := now.AddDate(0, 0, 2)
	start, end := w.For(d)
	return []Target{{
		Date:     d.Format(dateLayout),
		DayName:  d.Weekday().String(),
		RoomType: room,
		Select:   ExactWindow(start, end),
	}}, nil
}
