package backtest

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/quantdesk/volcarry/calendar"
	"github.com/quantdesk/volcarry/instrument"
)

// PortfolioBuilder constructs the daily cohort of short straddles over
// the backtest window.
type PortfolioBuilder struct {
	factory instrument.Factory
	cfg     Config
}

// NewPortfolioBuilder builds a cohort builder over the given factory.
func NewPortfolioBuilder(factory instrument.Factory, cfg Config) *PortfolioBuilder {
	return &PortfolioBuilder{factory: factory, cfg: cfg}
}

// BuildCohort resolves one straddle per business day in [start, end].
// Days whose resolution fails are dropped from the cohort, not retried.
// Instruments whose premium has not settled by the evaluation end are
// filtered out.
func (b *PortfolioBuilder) BuildCohort(ctx context.Context) ([]instrument.Straddle, error) {
	terms := instrument.StraddleTerms{
		ExpiryMonths:   b.cfg.ExpiryMonths,
		SwapTenorYears: b.cfg.SwapTenorYears,
		Notional:       b.cfg.Notional,
	}

	var cohort []instrument.Straddle
	for _, day := range calendar.BusinessDaysBetween(b.cfg.Calendar, b.cfg.Start, b.cfg.End) {
		s, err := b.factory.ResolveStraddle(ctx, terms, day)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			var resErr *instrument.ResolutionError
			if errors.As(err, &resErr) {
				log.Printf("cohort: dropping %s: %v", day.Format("2006-01-02"), err)
				continue
			}
			return nil, err
		}
		if !premiumSettledBy(s, b.cfg.End) {
			continue
		}
		cohort = append(cohort, s)
	}
	return cohort, nil
}

func premiumSettledBy(s instrument.Straddle, end time.Time) bool {
	return !s.PremiumPaymentDate.After(end)
}
