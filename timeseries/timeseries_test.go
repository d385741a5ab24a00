package timeseries_test

import (
	"math"
	"testing"
	"time"

	"github.com/quantdesk/volcarry/timeseries"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestNew_SortsAndRejectsDuplicates(t *testing.T) {
	t.Parallel()

	s, err := timeseries.New([]timeseries.Point{
		{Date: day(5), Value: 2},
		{Date: day(1), Value: 1},
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	dates := s.Dates()
	if !dates[0].Equal(day(1)) || !dates[1].Equal(day(5)) {
		t.Fatalf("expected sorted dates, got %v", dates)
	}

	_, err = timeseries.New([]timeseries.Point{
		{Date: day(1), Value: 1},
		{Date: day(1), Value: 2},
	})
	if err == nil {
		t.Fatalf("expected duplicate-date error")
	}
}

func TestFirstLastValid_SkipNaN(t *testing.T) {
	t.Parallel()

	s, err := timeseries.New([]timeseries.Point{
		{Date: day(1), Value: math.NaN()},
		{Date: day(2), Value: 7},
		{Date: day(3), Value: 9},
		{Date: day(4), Value: math.NaN()},
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	first, ok := s.FirstValid()
	if !ok || !first.Date.Equal(day(2)) || first.Value != 7 {
		t.Fatalf("FirstValid mismatch: %+v ok=%v", first, ok)
	}
	last, ok := s.LastValid()
	if !ok || !last.Date.Equal(day(3)) || last.Value != 9 {
		t.Fatalf("LastValid mismatch: %+v ok=%v", last, ok)
	}
}

func TestCumSum_CarriesThroughGaps(t *testing.T) {
	t.Parallel()

	s, err := timeseries.New([]timeseries.Point{
		{Date: day(1), Value: 1},
		{Date: day(2), Value: math.NaN()},
		{Date: day(3), Value: 2},
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	cum := s.CumSum().Points()
	want := []float64{1, 1, 3}
	for i, p := range cum {
		if p.Value != want[i] {
			t.Fatalf("cumsum[%d] = %v, want %v", i, p.Value, want[i])
		}
	}
}

func TestJoin_UnionWithNaN(t *testing.T) {
	t.Parallel()

	a, _ := timeseries.New([]timeseries.Point{
		{Date: day(1), Value: 1},
		{Date: day(3), Value: 3},
	})
	b, _ := timeseries.New([]timeseries.Point{
		{Date: day(2), Value: 20},
		{Date: day(3), Value: 30},
	})

	f, err := timeseries.Join(
		timeseries.NamedSeries{Name: "a", Series: a},
		timeseries.NamedSeries{Name: "b", Series: b},
	)
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}
	if f.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", f.Len())
	}

	colA, _ := f.Column("a")
	colB, _ := f.Column("b")
	if colA[0] != 1 || !math.IsNaN(colA[1]) || colA[2] != 3 {
		t.Fatalf("column a mismatch: %v", colA)
	}
	if !math.IsNaN(colB[0]) || colB[1] != 20 || colB[2] != 30 {
		t.Fatalf("column b mismatch: %v", colB)
	}
}

func TestLag_ShiftsOneRow(t *testing.T) {
	t.Parallel()

	a, _ := timeseries.New([]timeseries.Point{
		{Date: day(1), Value: 1},
		{Date: day(2), Value: 2},
		{Date: day(5), Value: 5}, // calendar gap; still one positional step
	})
	f, err := timeseries.Join(timeseries.NamedSeries{Name: "a", Series: a})
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}
	lag, err := f.Lag("a")
	if err != nil {
		t.Fatalf("Lag error: %v", err)
	}
	if !math.IsNaN(lag[0]) || lag[1] != 1 || lag[2] != 2 {
		t.Fatalf("lag mismatch: %v", lag)
	}
}

func TestDropLastRow(t *testing.T) {
	t.Parallel()

	a, _ := timeseries.New([]timeseries.Point{
		{Date: day(1), Value: 1},
		{Date: day(2), Value: 2},
	})
	f, _ := timeseries.Join(timeseries.NamedSeries{Name: "a", Series: a})
	f.DropLastRow()
	if f.Len() != 1 {
		t.Fatalf("expected 1 row after drop, got %d", f.Len())
	}
	if !f.Dates()[0].Equal(day(1)) {
		t.Fatalf("wrong surviving row: %v", f.Dates())
	}
}

func TestRowSumZeroFilled(t *testing.T) {
	t.Parallel()

	a, _ := timeseries.New([]timeseries.Point{{Date: day(1), Value: 2}})
	b, _ := timeseries.New([]timeseries.Point{{Date: day(2), Value: 5}})
	f, _ := timeseries.Join(
		timeseries.NamedSeries{Name: "a", Series: a},
		timeseries.NamedSeries{Name: "b", Series: b},
	)
	if got := f.RowSumZeroFilled(0); got != 2 {
		t.Fatalf("row 0 sum = %v, want 2", got)
	}
	if got := f.RowSumZeroFilled(1); got != 5 {
		t.Fatalf("row 1 sum = %v, want 5", got)
	}
}

func TestTruncateAfter(t *testing.T) {
	t.Parallel()

	s, _ := timeseries.New([]timeseries.Point{
		{Date: day(1), Value: 1},
		{Date: day(2), Value: 2},
		{Date: day(3), Value: 3},
	})
	got := s.TruncateAfter(day(2))
	if got.Len() != 2 {
		t.Fatalf("expected 2 points, got %d", got.Len())
	}
	if _, ok := got.At(day(3)); ok {
		t.Fatalf("day 3 should have been truncated")
	}
}
