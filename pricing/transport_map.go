package pricing

import (
	"context"
	"sync"

	"github.com/quantdesk/volcarry/instrument"
	"github.com/quantdesk/volcarry/timeseries"
)

// MapTransport serves pricing results from in-memory fixtures. It is a
// convenience when you don't want to wire the vendor service: tests and
// offline runs load it with precomputed series.
type MapTransport struct {
	mu     sync.RWMutex
	series map[instrument.Key]map[Measure]timeseries.Series
}

// NewMapTransport builds an empty fixture transport.
func NewMapTransport() *MapTransport {
	return &MapTransport{series: make(map[instrument.Key]map[Measure]timeseries.Series)}
}

// Set registers the fixture series for an instrument and measure.
func (t *MapTransport) Set(key instrument.Key, m Measure, s timeseries.Series) {
	t.mu.Lock()
	defer t.mu.Unlock()
	byMeasure, ok := t.series[key]
	if !ok {
		byMeasure = make(map[Measure]timeseries.Series)
		t.series[key] = byMeasure
	}
	byMeasure[m] = s
}

// Calc returns the fixture observations inside the request window, or
// ErrDataUnavailable when none exist.
func (t *MapTransport) Calc(_ context.Context, req Request) (timeseries.Series, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	byMeasure, ok := t.series[req.InstrumentKey()]
	if !ok {
		return timeseries.Series{}, ErrDataUnavailable
	}
	s, ok := byMeasure[req.Measure]
	if !ok {
		return timeseries.Series{}, ErrDataUnavailable
	}
	win := s.Window(req.Start, req.End)
	if win.Len() == 0 {
		return timeseries.Series{}, ErrDataUnavailable
	}
	return win, nil
}
