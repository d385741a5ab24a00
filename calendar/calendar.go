package calendar

import "time"

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	USD    CalendarID = "USD"
	TARGET CalendarID = "TARGET"
)

var usdHolidays = map[string]struct{}{}
var targetHolidays = map[string]struct{}{}

func init() {
	usdHolidays = make(map[string]struct{}, len(usHolidayList))
	for _, h := range usHolidayList {
		usdHolidays[h] = struct{}{}
	}
	targetHolidays = make(map[string]struct{}, len(targetHolidayList))
	for _, h := range targetHolidayList {
		targetHolidays[h] = struct{}{}
	}
}

func isHoliday(cal CalendarID, t time.Time) bool {
	key := t.Format("2006-01-02")
	switch cal {
	case USD:
		_, ok := usdHolidays[key]
		return ok
	case TARGET:
		_, ok := targetHolidays[key]
		return ok
	default:
		return false
	}
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// AdjustFollowing rolls t forward to the next business day if needed.
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AdjustPreceding rolls t backward to the previous business day if needed.
func AdjustPreceding(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

// BusinessDaysBetween lists every business day in [start, end] in ascending order.
// An empty slice is returned when end precedes start.
func BusinessDaysBetween(cal CalendarID, start, end time.Time) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(cal, d) {
			days = append(days, d)
		}
	}
	return days
}

// AddMonthsAdjusted adds calendar months and rolls the result forward to a business day.
func AddMonthsAdjusted(cal CalendarID, t time.Time, months int) time.Time {
	return AdjustFollowing(cal, t.AddDate(0, months, 0))
}

// AddYearsAdjusted adds calendar years and rolls the result forward to a business day.
func AddYearsAdjusted(cal CalendarID, t time.Time, years int) time.Time {
	return AdjustFollowing(cal, t.AddDate(years, 0, 0))
}
