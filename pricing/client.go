package pricing

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/quantdesk/volcarry/timeseries"
)

// Transport executes a single pricing request against the vendor service.
type Transport interface {
	Calc(ctx context.Context, req Request) (timeseries.Series, error)
}

// Cache stores completed request results keyed by instrument, measure and
// date range. A miss returns ok=false; implementations may also miss on
// internal errors rather than failing the request.
type Cache interface {
	Get(req Request) (timeseries.Series, bool)
	Put(req Request, s timeseries.Series) error
}

const defaultParallelism = 8

// Client collects pricing requests as futures and executes them in
// batches. It is the explicit handle components receive by constructor
// injection; there is no ambient session.
type Client struct {
	transport Transport
	cache     Cache
	limit     int

	mu      sync.Mutex
	pending map[string]*pendingRequest
}

type pendingRequest struct {
	req Request
	fut *Future
}

// Option configures a Client.
type Option func(*Client)

// WithCache attaches a result cache consulted before the transport.
func WithCache(c Cache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithParallelism caps concurrent transport calls during Run.
func WithParallelism(n int) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.limit = n
		}
	}
}

// NewClient builds a Client over the given transport.
func NewClient(transport Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		limit:     defaultParallelism,
		pending:   make(map[string]*pendingRequest),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calc enqueues a request and returns its future. Identical requests
// issued before the next Run share a single future. Invalid requests and
// cache hits resolve immediately.
func (c *Client) Calc(req Request) *Future {
	if err := req.validate(); err != nil {
		return resolvedFuture(timeseries.Series{}, err)
	}
	if c.cache != nil {
		if s, ok := c.cache.Get(req); ok {
			return resolvedFuture(s, nil)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	id := req.id()
	if p, ok := c.pending[id]; ok {
		return p.fut
	}
	fut := newFuture()
	c.pending[id] = &pendingRequest{req: req, fut: fut}
	return fut
}

// Run executes every pending request. Each future resolves with its own
// result or error; a single failed request never blocks the rest of the
// batch. Run itself only returns an error when the context is cancelled,
// in which case all still-pending futures resolve with the context error.
func (c *Client) Run(ctx context.Context) error {
	c.mu.Lock()
	batch := c.pending
	c.pending = make(map[string]*pendingRequest)
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)

	for _, p := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				p.fut.resolve(timeseries.Series{}, err)
				return err
			}
			s, err := c.transport.Calc(gctx, p.req)
			if err != nil {
				p.fut.resolve(timeseries.Series{}, &PricingError{
					Instrument: p.req.InstrumentKey(),
					Measure:    p.req.Measure,
					Err:        err,
				})
				return nil
			}
			if c.cache != nil {
				if err := c.cache.Put(p.req, s); err != nil {
					p.fut.resolve(timeseries.Series{}, &PricingError{
						Instrument: p.req.InstrumentKey(),
						Measure:    p.req.Measure,
						Err:        err,
					})
					return nil
				}
			}
			p.fut.resolve(s, nil)
			return nil
		})
	}

	return g.Wait()
}
