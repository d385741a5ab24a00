package backtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/quantdesk/volcarry/instrument"
	"github.com/quantdesk/volcarry/pricing"
	"github.com/quantdesk/volcarry/timeseries"
)

// Result is the output of a full backtest run.
type Result struct {
	// Keys lists the instruments in cohort (trade date) order.
	Keys []instrument.Key
	// Combined holds the per-instrument joined P&L tables.
	Combined map[instrument.Key]*CombinedResult
	// Hedged decomposes the delta-hedged total P&L panel.
	Hedged Performance
	// Unhedged decomposes the raw short-straddle price panel.
	Unhedged Performance
	// Failed records instruments whose pricing or aggregation failed.
	// Failures are terminal for the instrument but never abort the run.
	Failed map[instrument.Key]error
}

// Runner wires cohort construction, hedge scheduling, batched pricing
// and aggregation into one backtest.
type Runner struct {
	cfg     Config
	factory instrument.Factory
	client  *pricing.Client
}

// NewRunner builds a Runner. The pricing client is injected explicitly;
// there is no ambient pricing session.
func NewRunner(cfg Config, factory instrument.Factory, client *pricing.Client) *Runner {
	return &Runner{cfg: cfg, factory: factory, client: client}
}

type legFutures struct {
	leg    HedgeLeg
	delta  *pricing.Future
	unwind *pricing.Future
}

type instrumentFutures struct {
	straddle instrument.Straddle
	price    *pricing.Future
	delta    *pricing.Future
	legs     []legFutures
}

// Run executes the backtest: resolve the cohort, enqueue every pricing
// request, execute them as one batch, then join and aggregate per
// instrument and decompose the hedged and unhedged panels.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	cohort, err := NewPortfolioBuilder(r.factory, r.cfg).BuildCohort(ctx)
	if err != nil {
		return nil, fmt.Errorf("backtest: building cohort: %w", err)
	}

	scheduler := NewHedgeScheduler(r.factory, r.cfg.Calendar)

	// Phase 1: schedule hedges and enqueue all futures.
	pending := make([]instrumentFutures, 0, len(cohort))
	for _, s := range cohort {
		legs, err := scheduler.Schedule(ctx, s, r.cfg.End)
		if err != nil {
			return nil, fmt.Errorf("backtest: scheduling hedges for %s: %w", s.Key, err)
		}

		windowEnd := s.ExpirationDate
		if r.cfg.End.Before(windowEnd) {
			windowEnd = r.cfg.End
		}

		pi := instrumentFutures{
			straddle: s,
			price: r.client.Calc(pricing.Request{
				Straddle: &s, Measure: pricing.MeasurePrice,
				Start: s.TradeDate, End: windowEnd,
			}),
			delta: r.client.Calc(pricing.Request{
				Straddle: &s, Measure: pricing.MeasureIRDeltaParallel,
				Start: s.TradeDate, End: windowEnd,
			}),
		}
		for _, leg := range legs {
			pi.legs = append(pi.legs, legFutures{
				leg: leg,
				delta: r.client.Calc(pricing.Request{
					Swap: &leg.Swap, Measure: pricing.MeasureIRDeltaParallel,
					Start: leg.Date, End: leg.Date,
				}),
				unwind: r.client.Calc(pricing.Request{
					Swap: &leg.Swap, Measure: pricing.MeasurePrice,
					Start: leg.UnwindDate, End: leg.UnwindDate,
				}),
			})
		}
		pending = append(pending, pi)
	}

	if err := r.client.Run(ctx); err != nil {
		return nil, fmt.Errorf("backtest: pricing batch: %w", err)
	}

	// Phase 2: join per instrument. Instruments are independent, so the
	// joins run in parallel with no shared state beyond the result maps.
	res := &Result{
		Combined: make(map[instrument.Key]*CombinedResult, len(pending)),
		Failed:   make(map[instrument.Key]error),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	limit := r.cfg.MaxParallel
	if limit <= 0 {
		limit = 8
	}
	g.SetLimit(limit)

	for _, pi := range pending {
		g.Go(func() error {
			combined, err := collectInstrument(gctx, pi)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				res.Failed[pi.straddle.Key] = err
				return nil
			}
			res.Combined[pi.straddle.Key] = combined
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, pi := range pending {
		if _, ok := res.Combined[pi.straddle.Key]; ok {
			res.Keys = append(res.Keys, pi.straddle.Key)
		}
	}

	if err := r.decomposePanels(res); err != nil {
		return nil, err
	}
	return res, nil
}

// collectInstrument waits for all of an instrument's futures and builds
// its combined table. Any failed swaption request fails the instrument;
// hedge-leg gaps (data unavailable for a single day) are tolerated and
// contribute nothing.
func collectInstrument(ctx context.Context, pi instrumentFutures) (*CombinedResult, error) {
	price, err := pi.price.Result(ctx)
	if err != nil {
		return nil, fmt.Errorf("swaption price: %w", err)
	}
	delta, err := pi.delta.Result(ctx)
	if err != nil {
		return nil, fmt.Errorf("swaption delta: %w", err)
	}

	var deltaPoints, unwindPoints []timeseries.Point
	for _, lf := range pi.legs {
		s, err := lf.delta.Result(ctx)
		switch {
		case errors.Is(err, pricing.ErrDataUnavailable):
			// gap: no hedge contribution that day
		case err != nil:
			return nil, fmt.Errorf("hedge delta %s: %w", lf.leg.Date.Format("2006-01-02"), err)
		default:
			if v, ok := s.At(lf.leg.Date); ok {
				deltaPoints = append(deltaPoints, timeseries.Point{Date: lf.leg.Date, Value: v})
			}
		}

		s, err = lf.unwind.Result(ctx)
		switch {
		case errors.Is(err, pricing.ErrDataUnavailable):
			// gap
		case err != nil:
			return nil, fmt.Errorf("hedge unwind %s: %w", lf.leg.UnwindDate.Format("2006-01-02"), err)
		default:
			if v, ok := s.At(lf.leg.UnwindDate); ok {
				unwindPoints = append(unwindPoints, timeseries.Point{Date: lf.leg.UnwindDate, Value: v})
			}
		}
	}

	swapDelta, err := timeseries.New(deltaPoints)
	if err != nil {
		return nil, fmt.Errorf("hedge delta series: %w", err)
	}
	swapUnwind, err := timeseries.New(unwindPoints)
	if err != nil {
		return nil, fmt.Errorf("hedge unwind series: %w", err)
	}

	return Aggregate(pi.straddle.Key, InstrumentSeries{
		SwaptionPrice:   price,
		SwaptionDelta:   delta,
		SwapUnwindPrice: swapUnwind,
		SwapDelta:       swapDelta,
	})
}

func (r *Runner) decomposePanels(res *Result) error {
	hedged := make([]timeseries.NamedSeries, 0, len(res.Keys))
	unhedged := make([]timeseries.NamedSeries, 0, len(res.Keys))
	for _, key := range res.Keys {
		combined := res.Combined[key]
		total, err := combined.Frame.SeriesOf(ColTotalPV)
		if err != nil {
			return fmt.Errorf("backtest: panel for %s: %w", key, err)
		}
		prices, err := combined.Frame.SeriesOf(ColSwaptionPrice)
		if err != nil {
			return fmt.Errorf("backtest: panel for %s: %w", key, err)
		}
		hedged = append(hedged, timeseries.NamedSeries{Name: string(key), Series: total})
		unhedged = append(unhedged, timeseries.NamedSeries{Name: string(key), Series: prices})
	}

	hedgedPanel, err := timeseries.Join(hedged...)
	if err != nil {
		return fmt.Errorf("backtest: hedged panel: %w", err)
	}
	unhedgedPanel, err := timeseries.Join(unhedged...)
	if err != nil {
		return fmt.Errorf("backtest: unhedged panel: %w", err)
	}

	if res.Hedged, err = Decompose(hedgedPanel, r.cfg.Calendar, r.cfg.End); err != nil {
		return err
	}
	if res.Unhedged, err = Decompose(unhedgedPanel, r.cfg.Calendar, r.cfg.End); err != nil {
		return err
	}
	return nil
}
