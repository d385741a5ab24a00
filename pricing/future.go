package pricing

import (
	"context"

	"github.com/quantdesk/volcarry/timeseries"
)

// Future is the asynchronous handle for a submitted request. It resolves
// exactly once, when the owning Client executes its batch.
type Future struct {
	done   chan struct{}
	result timeseries.Series
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func resolvedFuture(result timeseries.Series, err error) *Future {
	f := newFuture()
	f.resolve(result, err)
	return f
}

func (f *Future) resolve(result timeseries.Series, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// Done reports whether the future has resolved.
func (f *Future) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result blocks until the future resolves or ctx is cancelled.
func (f *Future) Result(ctx context.Context) (timeseries.Series, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return timeseries.Series{}, ctx.Err()
	}
}
