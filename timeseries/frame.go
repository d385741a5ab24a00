package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Frame is a wide table: one row per date, one float64 column per name.
// Missing cells are NaN. Column order is the order of insertion.
type Frame struct {
	dates []time.Time
	names []string
	cols  map[string][]float64
}

// NamedSeries pairs a column name with its series for joining.
type NamedSeries struct {
	Name   string
	Series Series
}

// Join outer-joins the given series on the union of their dates.
// Cells with no observation are NaN.
func Join(series ...NamedSeries) (*Frame, error) {
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, ns := range series {
		for _, d := range ns.Series.Dates() {
			if _, ok := seen[d]; !ok {
				seen[d] = struct{}{}
				dates = append(dates, d)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	f := &Frame{dates: dates, cols: make(map[string][]float64, len(series))}
	for _, ns := range series {
		col := make([]float64, len(dates))
		for i, d := range dates {
			if v, ok := ns.Series.At(d); ok {
				col[i] = v
			} else {
				col[i] = math.NaN()
			}
		}
		if err := f.AddColumn(ns.Name, col); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.dates) }

// Dates returns the row index in ascending order.
func (f *Frame) Dates() []time.Time {
	out := make([]time.Time, len(f.dates))
	copy(out, f.dates)
	return out
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Column returns the named column's values, aligned to Dates.
func (f *Frame) Column(name string) ([]float64, error) {
	col, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("Frame.Column: no column %q", name)
	}
	return col, nil
}

// AddColumn appends a column; its length must match the row count.
func (f *Frame) AddColumn(name string, values []float64) error {
	if _, ok := f.cols[name]; ok {
		return fmt.Errorf("Frame.AddColumn: column %q already exists", name)
	}
	if len(values) != len(f.dates) {
		return fmt.Errorf("Frame.AddColumn: column %q has %d values, frame has %d rows", name, len(values), len(f.dates))
	}
	f.names = append(f.names, name)
	f.cols[name] = values
	return nil
}

// Lag returns the named column shifted down by one row: row i holds the
// value from row i-1, and the first row is NaN. The lag is positional on
// the joined date index, so a calendar gap between adjacent rows still
// counts as a single step.
func (f *Frame) Lag(name string) ([]float64, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, fmt.Errorf("Frame.Lag: %w", err)
	}
	out := make([]float64, len(col))
	if len(out) == 0 {
		return out, nil
	}
	out[0] = math.NaN()
	copy(out[1:], col[:len(col)-1])
	return out, nil
}

// DropLastRow removes the final row from the frame.
func (f *Frame) DropLastRow() {
	if len(f.dates) == 0 {
		return
	}
	n := len(f.dates) - 1
	f.dates = f.dates[:n]
	for name, col := range f.cols {
		f.cols[name] = col[:n]
	}
}

// SeriesOf extracts the named column as a Series on the frame's dates.
func (f *Frame) SeriesOf(name string) (Series, error) {
	col, err := f.Column(name)
	if err != nil {
		return Series{}, fmt.Errorf("Frame.SeriesOf: %w", err)
	}
	ps := make([]Point, len(col))
	for i, v := range col {
		ps[i] = Point{Date: f.dates[i], Value: v}
	}
	return Series{points: ps}, nil
}

// RowSumZeroFilled sums row i across all columns, treating NaN as zero.
func (f *Frame) RowSumZeroFilled(i int) float64 {
	total := 0.0
	for _, name := range f.names {
		v := f.cols[name][i]
		if !math.IsNaN(v) {
			total += v
		}
	}
	return total
}
