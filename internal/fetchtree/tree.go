package fetchtree

import (
	"context"

	"github.com/antflydb/xmlsource/internal/expand"
	"golang.org/x/sync/errgroup"
)

// EvalKeyed evaluates a set of named FetchData nodes concurrently - e.g.
// the private-key nodes a provide/media template declares - and returns
// one result string per key. newCtx must hand back a fresh *expand.Context
// per call: each goroutine gets its own, since ExpandableString state and
// named buffers are not safe for concurrent mutation from multiple keys
// evaluated in parallel.
func (f *Fetcher) EvalKeyed(ctx context.Context, newCtx func() *expand.Context, nodes map[string]*Node) (map[string]string, error) {
	results := make(map[string]string, len(nodes))
	if len(nodes) == 0 {
		return results, nil
	}

	type pair struct {
		key   string
		value string
	}
	out := make(chan pair, len(nodes))

	g, gctx := errgroup.WithContext(ctx)
	for key, node := range nodes {
		key, node := key, node
		g.Go(func() error {
			value, ok, err := f.Eval(gctx, newCtx(), node)
			if err != nil {
				return err
			}
			if ok {
				out <- pair{key, value}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(out)
	for p := range out {
		results[p.key] = p.value
	}
	return results, nil
}
