// Package instrument defines the priceable instruments of the strategy:
// the swaption straddle sold daily and the swap used to delta-hedge it.
// Concrete terms (ATM strike, ATM forward rate) are fixed by an external
// Factory at resolution time; definitions are immutable afterwards.
package instrument

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Key is a stable identifier for a resolved instrument. Downstream
// components reference instruments by Key, never by object identity.
type Key string

// NewKey allocates a fresh instrument key.
func NewKey() Key {
	return Key(uuid.NewString())
}

// Straddle is a payer+receiver swaption pair struck at the money,
// resolved as of its trade date.
type Straddle struct {
	Key                Key
	TradeDate          time.Time
	ExpirationDate     time.Time
	EffectiveDate      time.Time // underlying swap start
	TerminationDate    time.Time // underlying swap end
	Notional           float64
	Strike             float64 // ATM strike fixed at resolution
	PremiumPaymentDate time.Time
}

// Swap is a fixed-for-floating interest rate swap used as the daily hedge.
type Swap struct {
	Key             Key
	TradeDate       time.Time
	EffectiveDate   time.Time
	TerminationDate time.Time
	Notional        float64
	FixedRate       float64 // ATM forward rate fixed at resolution
}

// StraddleTerms are the contract terms handed to the Factory; the strike
// and all dates derive from the as-of date at resolution.
type StraddleTerms struct {
	ExpiryMonths   int
	SwapTenorYears int
	Notional       float64
}

// SwapTerms request a hedge swap with explicit start/end so its tenor
// matches the straddle's underlying swap.
type SwapTerms struct {
	EffectiveDate   time.Time
	TerminationDate time.Time
	Notional        float64
}

// Factory resolves contract terms into concrete instruments with
// market-implied economics as of a date. Implementations call out to the
// pricing vendor; none of the market math lives in this module.
type Factory interface {
	ResolveStraddle(ctx context.Context, terms StraddleTerms, asOf time.Time) (Straddle, error)
	ResolveSwap(ctx context.Context, terms SwapTerms, asOf time.Time) (Swap, error)
}

// ResolutionError reports that an instrument could not be constructed for
// a date, typically because no market data exists for it. The affected
// instrument/date pair is dropped from the cohort, not retried.
type ResolutionError struct {
	AsOf   time.Time
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("instrument resolution failed as of %s: %s", e.AsOf.Format("2006-01-02"), e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Err }
