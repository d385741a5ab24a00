package calendar_test

import (
	"testing"
	"time"

	"github.com/quantdesk/volcarry/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsBusinessDay(t *testing.T) {
	t.Parallel()

	if calendar.IsBusinessDay(calendar.USD, date(2024, 7, 6)) {
		t.Fatalf("expected Saturday to be non-business")
	}
	if calendar.IsBusinessDay(calendar.USD, date(2024, 7, 4)) {
		t.Fatalf("expected July 4th to be a USD holiday")
	}
	if !calendar.IsBusinessDay(calendar.TARGET, date(2024, 7, 4)) {
		t.Fatalf("July 4th is a TARGET business day")
	}
	if !calendar.IsBusinessDay(calendar.USD, date(2024, 7, 5)) {
		t.Fatalf("expected 2024-07-05 to be a business day")
	}
}

func TestAddBusinessDays(t *testing.T) {
	t.Parallel()

	// Wednesday 2024-07-03 + 1 skips July 4th and lands on Friday.
	got := calendar.AddBusinessDays(calendar.USD, date(2024, 7, 3), 1)
	if !got.Equal(date(2024, 7, 5)) {
		t.Fatalf("forward offset mismatch: got %s", got.Format("2006-01-02"))
	}

	// Monday - 1 lands on the prior Friday.
	got = calendar.AddBusinessDays(calendar.USD, date(2024, 7, 8), -1)
	if !got.Equal(date(2024, 7, 5)) {
		t.Fatalf("backward offset mismatch: got %s", got.Format("2006-01-02"))
	}
}

func TestBusinessDaysBetween(t *testing.T) {
	t.Parallel()

	days := calendar.BusinessDaysBetween(calendar.USD, date(2024, 7, 1), date(2024, 7, 8))
	// Mon 1, Tue 2, Wed 3, Fri 5, Mon 8 (Thu 4 holiday, 6-7 weekend).
	want := []time.Time{
		date(2024, 7, 1), date(2024, 7, 2), date(2024, 7, 3),
		date(2024, 7, 5), date(2024, 7, 8),
	}
	if len(days) != len(want) {
		t.Fatalf("expected %d days, got %d", len(want), len(days))
	}
	for i := range want {
		if !days[i].Equal(want[i]) {
			t.Fatalf("day %d mismatch: got %s want %s", i,
				days[i].Format("2006-01-02"), want[i].Format("2006-01-02"))
		}
	}

	if got := calendar.BusinessDaysBetween(calendar.USD, date(2024, 7, 8), date(2024, 7, 1)); len(got) != 0 {
		t.Fatalf("expected empty range when end precedes start, got %d days", len(got))
	}
}

func TestAddMonthsAdjusted(t *testing.T) {
	t.Parallel()

	// 2024-06-04 + 1M = 2024-07-04 (holiday) rolls to 2024-07-05.
	got := calendar.AddMonthsAdjusted(calendar.USD, date(2024, 6, 4), 1)
	if !got.Equal(date(2024, 7, 5)) {
		t.Fatalf("adjusted month add mismatch: got %s", got.Format("2006-01-02"))
	}
}
