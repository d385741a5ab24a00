package backtest_test

import (
	"math"
	"testing"
	"time"

	"github.com/quantdesk/volcarry/backtest"
	"github.com/quantdesk/volcarry/calendar"
	"github.com/quantdesk/volcarry/timeseries"
)

// panelOf joins the given per-instrument series into a wide panel.
func panelOf(t *testing.T, cols map[string]timeseries.Series) *timeseries.Frame {
	t.Helper()
	named := make([]timeseries.NamedSeries, 0, len(cols))
	for name, s := range cols {
		named = append(named, timeseries.NamedSeries{Name: name, Series: s})
	}
	f, err := timeseries.Join(named...)
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}
	return f
}

func at(t *testing.T, s timeseries.Series, d time.Time) float64 {
	t.Helper()
	v, ok := s.At(d)
	if !ok {
		t.Fatalf("no observation on %s", d.Format("2006-01-02"))
	}
	return v
}

func TestDecompose_SingleInstrumentLifecycle(t *testing.T) {
	t.Parallel()

	// Full price path [10, 10, 10, -2] over four business days.
	panel := panelOf(t, map[string]timeseries.Series{
		"a": series(t, map[time.Time]float64{bd(4): 10, bd(5): 10, bd(6): 10, bd(7): -2}),
	})

	// end two business days past the last panel date, so the cutoff
	// keeps the whole panel: end = Mon 03-11, cutoff = Thu 03-07.
	end := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	perf, err := backtest.Decompose(panel, calendar.USD, end)
	if err != nil {
		t.Fatalf("Decompose error: %v", err)
	}

	if got := at(t, perf.Premium, bd(4)); got != 10 {
		t.Fatalf("premium at inception = %v, want 10", got)
	}
	if got := at(t, perf.Premium, bd(7)); got != 10 {
		t.Fatalf("cumulative premium at end = %v, want 10", got)
	}
	if got := at(t, perf.Payoff, bd(6)); got != 0 {
		t.Fatalf("payoff before expiry = %v, want 0", got)
	}
	if got := at(t, perf.Payoff, bd(7)); got != -2 {
		t.Fatalf("payoff at expiry = %v, want -2", got)
	}
	if got := at(t, perf.MTM, bd(6)); got != 10 {
		t.Fatalf("MTM before expiry = %v, want 10", got)
	}
	if got := at(t, perf.MTM, bd(7)); got != 0 {
		t.Fatalf("MTM after realization = %v, want 0", got)
	}
}

func TestDecompose_SingleValidDateInstrument(t *testing.T) {
	t.Parallel()

	// First and last valid dates coincide: premium and payoff both
	// record on that date and the mark nets to zero.
	panel := panelOf(t, map[string]timeseries.Series{
		"a": series(t, map[time.Time]float64{bd(4): 5}),
	})
	end := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	perf, err := backtest.Decompose(panel, calendar.USD, end)
	if err != nil {
		t.Fatalf("Decompose error: %v", err)
	}

	if got := at(t, perf.Premium, bd(4)); got != 5 {
		t.Fatalf("premium = %v, want 5", got)
	}
	if got := at(t, perf.Payoff, bd(4)); got != 5 {
		t.Fatalf("payoff = %v, want 5", got)
	}
	if got := at(t, perf.MTM, bd(4)); got != 0 {
		t.Fatalf("MTM = %v, want 0", got)
	}
}

func TestDecompose_SameDatePayoffsSum(t *testing.T) {
	t.Parallel()

	// Both instruments realize their payoff on 03-05.
	panel := panelOf(t, map[string]timeseries.Series{
		"a": series(t, map[time.Time]float64{bd(4): 1, bd(5): 2}),
		"b": series(t, map[time.Time]float64{bd(5): 7}),
	})
	end := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	perf, err := backtest.Decompose(panel, calendar.USD, end)
	if err != nil {
		t.Fatalf("Decompose error: %v", err)
	}

	if got := at(t, perf.Payoff, bd(5)); got != 9 {
		t.Fatalf("same-date payoffs must sum: got %v, want 9", got)
	}
	// b contributes to premium on its own first valid date.
	if got := at(t, perf.Premium, bd(5)); got != 8 {
		t.Fatalf("cumulative premium = %v, want 8", got)
	}
}

func TestDecompose_CumulativePremiumIsMonotonic(t *testing.T) {
	t.Parallel()

	panel := panelOf(t, map[string]timeseries.Series{
		"a": series(t, map[time.Time]float64{bd(4): 3, bd(5): 3, bd(6): 3}),
		"b": series(t, map[time.Time]float64{bd(5): 4, bd(6): 4}),
		"c": series(t, map[time.Time]float64{bd(6): 5}),
	})
	end := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	perf, err := backtest.Decompose(panel, calendar.USD, end)
	if err != nil {
		t.Fatalf("Decompose error: %v", err)
	}

	prev := math.Inf(-1)
	for _, p := range perf.Premium.Points() {
		if p.Value < prev {
			t.Fatalf("cumulative premium decreased at %s: %v < %v",
				p.Date.Format("2006-01-02"), p.Value, prev)
		}
		prev = p.Value
	}
	// cumulative_premium[T] = sum of first-valid contributions with
	// first-valid-date <= T.
	if got := at(t, perf.Premium, bd(5)); got != 7 {
		t.Fatalf("cumulative premium at 03-05 = %v, want 7", got)
	}
	if got := at(t, perf.Premium, bd(6)); got != 12 {
		t.Fatalf("cumulative premium at 03-06 = %v, want 12", got)
	}
}

func TestDecompose_TruncatesTwoBusinessDaysBeforeEnd(t *testing.T) {
	t.Parallel()

	panel := panelOf(t, map[string]timeseries.Series{
		"a": series(t, map[time.Time]float64{bd(4): 1, bd(5): 1, bd(6): 1, bd(7): 1}),
	})
	// end = Thu 03-07, cutoff = Tue 03-05.
	perf, err := backtest.Decompose(panel, calendar.USD, bd(7))
	if err != nil {
		t.Fatalf("Decompose error: %v", err)
	}
	if perf.Premium.Len() != 2 {
		t.Fatalf("expected 2 rows after truncation, got %d", perf.Premium.Len())
	}
	if _, ok := perf.MTM.At(bd(6)); ok {
		t.Fatalf("03-06 should be truncated from the output")
	}
}

func TestDecompose_EmptyPanel(t *testing.T) {
	t.Parallel()

	perf, err := backtest.Decompose(panelOf(t, nil), calendar.USD, bd(7))
	if err != nil {
		t.Fatalf("Decompose error: %v", err)
	}
	if perf.Premium.Len() != 0 || perf.Payoff.Len() != 0 || perf.MTM.Len() != 0 {
		t.Fatalf("expected empty performance for empty panel")
	}
}
