package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/quantdesk/volcarry/instrument"
	"github.com/quantdesk/volcarry/timeseries"
)

// HTTPTransport talks to the pricing vendor's REST API. It implements
// both Transport (calc endpoint) and instrument.Factory (resolve
// endpoint), so a single authenticated handle covers both concerns.
type HTTPTransport struct {
	cli     *http.Client
	baseURL string
	token   string
}

// NewHTTPTransport builds a transport for the vendor API at baseURL,
// authenticating every call with the bearer token.
func NewHTTPTransport(baseURL, token string) *HTTPTransport {
	return &HTTPTransport{
		cli:     &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		token:   token,
	}
}

type wireInstrument struct {
	Key             string  `json:"key"`
	Type            string  `json:"type"` // "swaption_straddle" | "swap"
	TradeDate       string  `json:"trade_date"`
	ExpirationDate  string  `json:"expiration_date,omitempty"`
	EffectiveDate   string  `json:"effective_date"`
	TerminationDate string  `json:"termination_date"`
	Notional        float64 `json:"notional"`
	Strike          float64 `json:"strike,omitempty"`
	FixedRate       float64 `json:"fixed_rate,omitempty"`
}

func toWire(req Request) wireInstrument {
	if req.Straddle != nil {
		s := req.Straddle
		return wireInstrument{
			Key:             string(s.Key),
			Type:            "swaption_straddle",
			TradeDate:       s.TradeDate.Format(dateLayout),
			ExpirationDate:  s.ExpirationDate.Format(dateLayout),
			EffectiveDate:   s.EffectiveDate.Format(dateLayout),
			TerminationDate: s.TerminationDate.Format(dateLayout),
			Notional:        s.Notional,
			Strike:          s.Strike,
		}
	}
	w := req.Swap
	return wireInstrument{
		Key:             string(w.Key),
		Type:            "swap",
		TradeDate:       w.TradeDate.Format(dateLayout),
		EffectiveDate:   w.EffectiveDate.Format(dateLayout),
		TerminationDate: w.TerminationDate.Format(dateLayout),
		Notional:        w.Notional,
		FixedRate:       w.FixedRate,
	}
}

func (t *HTTPTransport) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.token)

	resp, err := t.cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrDataUnavailable
	default:
		return fmt.Errorf("vendor http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Calc prices one instrument/measure over an inclusive date range.
func (t *HTTPTransport) Calc(ctx context.Context, req Request) (timeseries.Series, error) {
	payload := struct {
		Instrument wireInstrument `json:"instrument"`
		Measure    string         `json:"measure"`
		Start      string         `json:"start"`
		End        string         `json:"end"`
	}{toWire(req), string(req.Measure), req.Start.Format(dateLayout), req.End.Format(dateLayout)}

	var raw struct {
		Results []struct {
			Date  string  `json:"date"`
			Value float64 `json:"value"`
		} `json:"results"`
		Error string `json:"error"`
	}
	if err := t.post(ctx, "/v1/calc", payload, &raw); err != nil {
		return timeseries.Series{}, err
	}
	if raw.Error != "" {
		return timeseries.Series{}, fmt.Errorf("vendor: %s", raw.Error)
	}
	if len(raw.Results) == 0 {
		return timeseries.Series{}, ErrDataUnavailable
	}

	points := make([]timeseries.Point, 0, len(raw.Results))
	for _, r := range raw.Results {
		d, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return timeseries.Series{}, fmt.Errorf("vendor: bad result date %q: %w", r.Date, err)
		}
		points = append(points, timeseries.Point{Date: d, Value: r.Value})
	}
	return timeseries.New(points)
}

// ResolveStraddle asks the vendor to fix the ATM economics of a straddle
// as of a date.
func (t *HTTPTransport) ResolveStraddle(ctx context.Context, terms instrument.StraddleTerms, asOf time.Time) (instrument.Straddle, error) {
	payload := struct {
		Type           string  `json:"type"`
		ExpiryMonths   int     `json:"expiry_months"`
		SwapTenorYears int     `json:"swap_tenor_years"`
		Notional       float64 `json:"notional"`
		AsOf           string  `json:"as_of"`
	}{"swaption_straddle", terms.ExpiryMonths, terms.SwapTenorYears, terms.Notional, asOf.Format(dateLayout)}

	var raw struct {
		ExpirationDate     string  `json:"expiration_date"`
		EffectiveDate      string  `json:"effective_date"`
		TerminationDate    string  `json:"termination_date"`
		Strike             float64 `json:"strike"`
		PremiumPaymentDate string  `json:"premium_payment_date"`
		Error              string  `json:"error"`
	}
	if err := t.post(ctx, "/v1/resolve", payload, &raw); err != nil {
		return instrument.Straddle{}, &instrument.ResolutionError{AsOf: asOf, Reason: "straddle resolve failed", Err: err}
	}
	if raw.Error != "" {
		return instrument.Straddle{}, &instrument.ResolutionError{AsOf: asOf, Reason: raw.Error}
	}

	dates, err := parseDates(raw.ExpirationDate, raw.EffectiveDate, raw.TerminationDate, raw.PremiumPaymentDate)
	if err != nil {
		return instrument.Straddle{}, &instrument.ResolutionError{AsOf: asOf, Reason: "bad resolve payload", Err: err}
	}
	return instrument.Straddle{
		Key:                instrument.NewKey(),
		TradeDate:          asOf,
		ExpirationDate:     dates[0],
		EffectiveDate:      dates[1],
		TerminationDate:    dates[2],
		Notional:           terms.Notional,
		Strike:             raw.Strike,
		PremiumPaymentDate: dates[3],
	}, nil
}

// ResolveSwap asks the vendor for a swap struck at the ATM forward rate
// as of a date, with the requested start/end.
func (t *HTTPTransport) ResolveSwap(ctx context.Context, terms instrument.SwapTerms, asOf time.Time) (instrument.Swap, error) {
	payload := struct {
		Type            string  `json:"type"`
		EffectiveDate   string  `json:"effective_date"`
		TerminationDate string  `json:"termination_date"`
		Notional        float64 `json:"notional"`
		AsOf            string  `json:"as_of"`
	}{"swap", terms.EffectiveDate.Format(dateLayout), terms.TerminationDate.Format(dateLayout), terms.Notional, asOf.Format(dateLayout)}

	var raw struct {
		FixedRate float64 `json:"fixed_rate"`
		Error     string  `json:"error"`
	}
	if err := t.post(ctx, "/v1/resolve", payload, &raw); err != nil {
		return instrument.Swap{}, &instrument.ResolutionError{AsOf: asOf, Reason: "swap resolve failed", Err: err}
	}
	if raw.Error != "" {
		return instrument.Swap{}, &instrument.ResolutionError{AsOf: asOf, Reason: raw.Error}
	}
	return instrument.Swap{
		Key:             instrument.NewKey(),
		TradeDate:       asOf,
		EffectiveDate:   terms.EffectiveDate,
		TerminationDate: terms.TerminationDate,
		Notional:        terms.Notional,
		FixedRate:       raw.FixedRate,
	}, nil
}

func parseDates(ds ...string) ([]time.Time, error) {
	out := make([]time.Time, len(ds))
	for i, s := range ds {
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
