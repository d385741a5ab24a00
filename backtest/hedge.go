package backtest

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/quantdesk/volcarry/calendar"
	"github.com/quantdesk/volcarry/instrument"
)

// HedgeLeg is a single day's hedge: a swap struck at that day's ATM
// forward, priced for delta on Date and unwound at UnwindDate (the next
// business day), then replaced by the following day's leg.
type HedgeLeg struct {
	Date       time.Time
	UnwindDate time.Time
	Swap       instrument.Swap
}

// HedgeScheduler builds the daily sequence of hedge swaps for a straddle.
type HedgeScheduler struct {
	factory instrument.Factory
	cal     calendar.CalendarID
}

// NewHedgeScheduler builds a scheduler resolving swaps through factory.
func NewHedgeScheduler(factory instrument.Factory, cal calendar.CalendarID) *HedgeScheduler {
	return &HedgeScheduler{factory: factory, cal: cal}
}

// Schedule produces one hedge leg per business day from the straddle's
// trade date through the earlier of its expiry and the horizon. Each
// leg's swap matches the straddle's underlying start/end so the hedge
// carries the same tenor. A zero-day window (trade date == expiry)
// yields no legs. Days whose swap cannot be resolved are omitted;
// downstream aggregation treats them as gaps.
func (h *HedgeScheduler) Schedule(ctx context.Context, s instrument.Straddle, horizon time.Time) ([]HedgeLeg, error) {
	if !s.TradeDate.Before(s.ExpirationDate) {
		return nil, nil
	}
	last := s.ExpirationDate
	if horizon.Before(last) {
		last = horizon
	}

	terms := instrument.SwapTerms{
		EffectiveDate:   s.EffectiveDate,
		TerminationDate: s.TerminationDate,
		Notional:        s.Notional,
	}

	var legs []HedgeLeg
	for _, day := range calendar.BusinessDaysBetween(h.cal, s.TradeDate, last) {
		swp, err := h.factory.ResolveSwap(ctx, terms, day)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			var resErr *instrument.ResolutionError
			if errors.As(err, &resErr) {
				log.Printf("hedge: omitting %s for straddle %s: %v", day.Format("2006-01-02"), s.Key, err)
				continue
			}
			return nil, err
		}
		legs = append(legs, HedgeLeg{
			Date:       day,
			UnwindDate: calendar.AddBusinessDays(h.cal, day, 1),
			Swap:       swp,
		})
	}
	return legs, nil
}
