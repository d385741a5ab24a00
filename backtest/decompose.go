package backtest

import (
	"fmt"
	"time"

	"github.com/quantdesk/volcarry/calendar"
	"github.com/quantdesk/volcarry/timeseries"
)

// Performance is the decomposition of a P&L panel.
type Performance struct {
	// Premium is the running total of each instrument's first valid
	// observation, credited at inception.
	Premium timeseries.Series
	// Payoff is the running total of each instrument's last valid
	// observation, realized at expiry or unwind.
	Payoff timeseries.Series
	// MTM is the level series of live marks: the zero-filled sum of all
	// instruments at each date minus payoffs realized so far.
	MTM timeseries.Series
}

// Decompose splits a wide panel (columns = instruments, rows = dates)
// into premium, payoff and mark-to-market. Instruments realizing on the
// same date sum their contributions. The output is truncated to two
// business days before end to avoid partial final-day data.
func Decompose(panel *timeseries.Frame, cal calendar.CalendarID, end time.Time) (Performance, error) {
	n := panel.Len()
	if n == 0 {
		return Performance{}, nil
	}

	dates := panel.Dates()
	rowOf := make(map[time.Time]int, n)
	for i, d := range dates {
		rowOf[d] = i
	}

	premium := make([]float64, n)
	payoff := make([]float64, n)
	for _, name := range panel.Names() {
		col, err := panel.SeriesOf(name)
		if err != nil {
			return Performance{}, fmt.Errorf("Decompose: %w", err)
		}
		if first, ok := col.FirstValid(); ok {
			premium[rowOf[first.Date]] += first.Value
		}
		if last, ok := col.LastValid(); ok {
			payoff[rowOf[last.Date]] += last.Value
		}
	}

	premiumSeries := pointsOn(dates, premium).CumSum()
	payoffSeries := pointsOn(dates, payoff).CumSum()

	cumPayoff := payoffSeries.Points()
	mtm := make([]float64, n)
	for i := 0; i < n; i++ {
		mtm[i] = panel.RowSumZeroFilled(i) - cumPayoff[i].Value
	}
	mtmSeries := pointsOn(dates, mtm)

	cutoff := calendar.AddBusinessDays(cal, end, -2)
	return Performance{
		Premium: premiumSeries.TruncateAfter(cutoff),
		Payoff:  payoffSeries.TruncateAfter(cutoff),
		MTM:     mtmSeries.TruncateAfter(cutoff),
	}, nil
}

func pointsOn(dates []time.Time, values []float64) timeseries.Series {
	ps := make([]timeseries.Point, len(dates))
	for i, d := range dates {
		ps[i] = timeseries.Point{Date: d, Value: values[i]}
	}
	s, _ := timeseries.New(ps) // dates come from a frame index, already unique
	return s
}
