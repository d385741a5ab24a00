package backtest

import (
	"fmt"
	"math"

	"github.com/quantdesk/volcarry/instrument"
	"github.com/quantdesk/volcarry/timeseries"
)

// Column names of a CombinedResult frame.
const (
	ColSwaptionPrice   = "swaption_price"
	ColSwaptionDelta   = "swaption_delta"
	ColSwapUnwindPrice = "swap_unwind_price"
	ColSwapDelta       = "swap_delta"
	ColHedgeNotional   = "hedge_notional"
	ColHedgePV         = "hedge_pv"
	ColTotalPV         = "total_pv"
)

// InstrumentSeries are the four per-instrument inputs to aggregation:
// the straddle's price and delta, the next-day unwind price of each
// day's hedge swap, and the hedge swap's own delta.
type InstrumentSeries struct {
	SwaptionPrice   timeseries.Series
	SwaptionDelta   timeseries.Series
	SwapUnwindPrice timeseries.Series
	SwapDelta       timeseries.Series
}

// CombinedResult is the per-instrument joined table of prices, Greeks,
// hedge notionals and total P&L.
type CombinedResult struct {
	Key   instrument.Key
	Frame *timeseries.Frame
}

// Aggregate outer-joins the four series on date and derives the hedged
// P&L per day:
//
//	hedge_notional[t] = -swaption_delta[t-1] / swap_delta[t-1]
//	hedge_pv[t]       = hedge_notional[t] * swap_unwind_price[t]
//	total_pv[t]       = swaption_price[t] + hedge_pv[t]
//
// The notional is zero on the first row and wherever the lagged Greeks
// are missing or the lagged swap delta is zero; a missing unwind price
// contributes zero hedge P&L. The final row is dropped: its unwind is
// observed the following day and never enters the sample.
func Aggregate(key instrument.Key, in InstrumentSeries) (*CombinedResult, error) {
	f, err := timeseries.Join(
		timeseries.NamedSeries{Name: ColSwaptionPrice, Series: in.SwaptionPrice},
		timeseries.NamedSeries{Name: ColSwaptionDelta, Series: in.SwaptionDelta},
		timeseries.NamedSeries{Name: ColSwapUnwindPrice, Series: in.SwapUnwindPrice},
		timeseries.NamedSeries{Name: ColSwapDelta, Series: in.SwapDelta},
	)
	if err != nil {
		return nil, fmt.Errorf("Aggregate %s: %w", key, err)
	}
	if f.Len() == 0 {
		return nil, fmt.Errorf("Aggregate %s: no observations", key)
	}

	lagSwaptionDelta, err := f.Lag(ColSwaptionDelta)
	if err != nil {
		return nil, fmt.Errorf("Aggregate %s: %w", key, err)
	}
	lagSwapDelta, err := f.Lag(ColSwapDelta)
	if err != nil {
		return nil, fmt.Errorf("Aggregate %s: %w", key, err)
	}
	unwind, _ := f.Column(ColSwapUnwindPrice)
	price, _ := f.Column(ColSwaptionPrice)

	n := f.Len()
	notional := make([]float64, n)
	hedgePV := make([]float64, n)
	totalPV := make([]float64, n)
	for i := 0; i < n; i++ {
		sd, wd := lagSwaptionDelta[i], lagSwapDelta[i]
		if math.IsNaN(sd) || math.IsNaN(wd) || wd == 0 {
			notional[i] = 0
		} else {
			notional[i] = -sd / wd
		}
		if math.IsNaN(unwind[i]) {
			hedgePV[i] = 0
		} else {
			hedgePV[i] = notional[i] * unwind[i]
		}
		totalPV[i] = price[i] + hedgePV[i]
	}

	if err := f.AddColumn(ColHedgeNotional, notional); err != nil {
		return nil, fmt.Errorf("Aggregate %s: %w", key, err)
	}
	if err := f.AddColumn(ColHedgePV, hedgePV); err != nil {
		return nil, fmt.Errorf("Aggregate %s: %w", key, err)
	}
	if err := f.AddColumn(ColTotalPV, totalPV); err != nil {
		return nil, fmt.Errorf("Aggregate %s: %w", key, err)
	}

	f.DropLastRow()
	return &CombinedResult{Key: key, Frame: f}, nil
}
