package kmeans

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool splits a parallel region over points into contiguous chunks.
type Pool struct {
	// Workers is the maximum number of concurrently running chunks.
	// Values <= 0 mean runtime.GOMAXPROCS(0).
	Workers int
}

type span struct {
	lo, hi int
}

func (p Pool) workers() int {
	if p.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return p.Workers
}

// spans splits [0, n) into at most p.workers() non-empty ranges.
func (p Pool) spans(n int) []span {
	w := min(p.workers(), n)
	if w <= 0 {
		return nil
	}
	out := make([]span, w)
	size, rem := n/w, n%w
	lo := 0
	for i := range out {
		hi := lo + size
		if i < rem {
			hi++
		}
		out[i] = span{lo: lo, hi: hi}
		lo = hi
	}
	return out
}

// run executes fn for every chunk of [0, n) and waits for all of them.
// The first error cancels the context handed to the remaining chunks.
func (p Pool) run(ctx context.Context, n int, fn func(ctx context.Context, chunk int, s span) error) error {
	spans := p.spans(n)
	if len(spans) == 1 {
		return fn(ctx, 0, spans[0])
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i, s := range spans {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i, s)
		})
	}
	return g.Wait()
}
