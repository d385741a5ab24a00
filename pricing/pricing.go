// Package pricing is the client surface for the external pricing and
// risk service. Requests are collected as futures and executed as a
// batch; the service performs all valuation, the client only routes
// requests and joins results.
package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/quantdesk/volcarry/instrument"
)

// Measure is a valuation measure the service can compute.
type Measure string

const (
	// MeasurePrice is the instrument's present value.
	MeasurePrice Measure = "Price"
	// MeasureIRDeltaParallel is the sensitivity to a parallel shift of
	// the underlying rate curve.
	MeasureIRDeltaParallel Measure = "IRDeltaParallel"
)

// ErrDataUnavailable indicates the service has no value for the requested
// instrument/date. Callers treat it as a data gap, not a hard failure.
var ErrDataUnavailable = errors.New("pricing: market data unavailable")

// PricingError wraps a failed request with the instrument and measure it
// was issued for.
type PricingError struct {
	Instrument instrument.Key
	Measure    Measure
	Err        error
}

func (e *PricingError) Error() string {
	return fmt.Sprintf("pricing %s for instrument %s: %v", e.Measure, e.Instrument, e.Err)
}

func (e *PricingError) Unwrap() error { return e.Err }

// Request asks for one measure over an inclusive date range for exactly
// one instrument (straddle or swap).
type Request struct {
	Straddle *instrument.Straddle
	Swap     *instrument.Swap
	Measure  Measure
	Start    time.Time
	End      time.Time
}

// InstrumentKey returns the key of the instrument being priced.
func (r Request) InstrumentKey() instrument.Key {
	if r.Straddle != nil {
		return r.Straddle.Key
	}
	if r.Swap != nil {
		return r.Swap.Key
	}
	return ""
}

func (r Request) validate() error {
	if (r.Straddle == nil) == (r.Swap == nil) {
		return fmt.Errorf("pricing: request must carry exactly one instrument")
	}
	if r.Measure == "" {
		return fmt.Errorf("pricing: request has no measure")
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("pricing: request end %s before start %s",
			r.End.Format("2006-01-02"), r.Start.Format("2006-01-02"))
	}
	return nil
}

// id is the dedupe/cache identity of the request.
func (r Request) id() string {
	return fmt.Sprintf("%s|%s|%s|%s",
		r.InstrumentKey(), r.Measure,
		r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
}
