package pricing_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/quantdesk/volcarry/pricing"
	"github.com/quantdesk/volcarry/timeseries"
)

func TestSQLiteCache_RoundTrip(t *testing.T) {
	t.Parallel()

	cache, err := pricing.OpenSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteCache error: %v", err)
	}
	defer cache.Close()

	swp := testSwap()
	req := pricing.Request{Swap: swp, Measure: pricing.MeasurePrice, Start: day(3), End: day(4)}

	if _, ok := cache.Get(req); ok {
		t.Fatalf("expected a miss on an empty cache")
	}

	s := timeseries.FromMap(map[time.Time]float64{day(3): 1.5, day(4): 2.5})
	if err := cache.Put(req, s); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, ok := cache.Get(req)
	if !ok {
		t.Fatalf("expected a hit after Put")
	}
	if got.Len() != 2 {
		t.Fatalf("expected 2 observations, got %d", got.Len())
	}
	if v, ok := got.At(day(4)); !ok || v != 2.5 {
		t.Fatalf("At(day 4) = %v ok=%v", v, ok)
	}

	// A different range over the same instrument was never completed.
	wider := req
	wider.End = day(5)
	if _, ok := cache.Get(wider); ok {
		t.Fatalf("uncompleted range must miss even when rows overlap")
	}
}
