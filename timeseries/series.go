// Package timeseries provides date-indexed series and wide frames used
// throughout the backtest: outer joins on date, one-row lags, first/last
// valid observations, and running totals. Missing observations are NaN;
// they are never silently treated as zero except where a caller applies
// an explicit zero-fill.
package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Point is a single dated observation.
type Point struct {
	Date  time.Time
	Value float64
}

// Series is an ordered sequence of dated observations with unique dates.
type Series struct {
	points []Point
}

// New builds a Series from points, sorting by date. Duplicate dates are
// rejected: a measure has at most one observation per day.
func New(points []Point) (Series, error) {
	ps := make([]Point, len(points))
	copy(ps, points)
	sort.Slice(ps, func(i, j int) bool { return ps[i].Date.Before(ps[j].Date) })
	for i := 1; i < len(ps); i++ {
		if ps[i].Date.Equal(ps[i-1].Date) {
			return Series{}, fmt.Errorf("timeseries.New: duplicate date %s", ps[i].Date.Format("2006-01-02"))
		}
	}
	return Series{points: ps}, nil
}

// FromMap builds a Series from a date-keyed map.
func FromMap(values map[time.Time]float64) Series {
	ps := make([]Point, 0, len(values))
	for d, v := range values {
		ps = append(ps, Point{Date: d, Value: v})
	}
	s, _ := New(ps) // map keys are unique by construction
	return s
}

// Len returns the number of observations, NaN entries included.
func (s Series) Len() int { return len(s.points) }

// Points returns a copy of the underlying observations in date order.
func (s Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Dates returns the observation dates in ascending order.
func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s.points))
	for i, p := range s.points {
		out[i] = p.Date
	}
	return out
}

// At reports the value observed on d, if any.
func (s Series) At(d time.Time) (float64, bool) {
	i := sort.Search(len(s.points), func(i int) bool { return !s.points[i].Date.Before(d) })
	if i < len(s.points) && s.points[i].Date.Equal(d) {
		return s.points[i].Value, true
	}
	return 0, false
}

// FirstValid returns the earliest non-NaN observation.
func (s Series) FirstValid() (Point, bool) {
	for _, p := range s.points {
		if !math.IsNaN(p.Value) {
			return p, true
		}
	}
	return Point{}, false
}

// LastValid returns the latest non-NaN observation.
func (s Series) LastValid() (Point, bool) {
	for i := len(s.points) - 1; i >= 0; i-- {
		if !math.IsNaN(s.points[i].Value) {
			return s.points[i], true
		}
	}
	return Point{}, false
}

// CumSum returns the running total of the series. NaN observations
// contribute nothing and the running total carries through them.
func (s Series) CumSum() Series {
	out := make([]Point, len(s.points))
	total := 0.0
	for i, p := range s.points {
		if !math.IsNaN(p.Value) {
			total += p.Value
		}
		out[i] = Point{Date: p.Date, Value: total}
	}
	return Series{points: out}
}

// Window keeps the observations with start <= date <= end.
func (s Series) Window(start, end time.Time) Series {
	i := sort.Search(len(s.points), func(i int) bool { return !s.points[i].Date.Before(start) })
	j := sort.Search(len(s.points), func(j int) bool { return s.points[j].Date.After(end) })
	if i >= j {
		return Series{}
	}
	out := make([]Point, j-i)
	copy(out, s.points[i:j])
	return Series{points: out}
}

// TruncateAfter drops every observation strictly after cutoff.
func (s Series) TruncateAfter(cutoff time.Time) Series {
	i := sort.Search(len(s.points), func(i int) bool { return s.points[i].Date.After(cutoff) })
	out := make([]Point, i)
	copy(out, s.points[:i])
	return Series{points: out}
}
