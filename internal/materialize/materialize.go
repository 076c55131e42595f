// Package materialize turns matched payload nodes into media.Record
// values by evaluating a template's key and private-key bindings through
// the fetch tree, then emitting completed records back to the host in
// the strict order they were requested even though their fetches complete
// out of order. A key declared use="resolve" is left unset by direct
// fetch and instead populated by a single nested resolve call issued once
// every other key and priv on the item has been processed.
package materialize

import (
	"context"
	"fmt"
	"sync"

	"github.com/antflydb/xmlsource/internal/expand"
	"github.com/antflydb/xmlsource/internal/fetchtree"
	"github.com/antflydb/xmlsource/internal/media"
	"github.com/antflydb/xmlsource/internal/payload"
	"github.com/antflydb/xmlsource/internal/specdoc"
	"golang.org/x/sync/errgroup"
)

// Materializer builds media.Record values from matched payload nodes.
type Materializer struct {
	Fetcher *fetchtree.Fetcher

	// Resolver re-enters the resolve pipeline for a use="resolve" key.
	// Nil means use-resolve keys are left unset - a Source wires itself
	// in here once constructed, since Materializer is built before its
	// owning Source exists.
	Resolver Resolver
}

// New builds a Materializer over fetcher, used to resolve any key or
// private-key FetchData a template declares.
func New(fetcher *fetchtree.Fetcher) *Materializer {
	return &Materializer{Fetcher: fetcher}
}

// Item pairs one matched payload node with the media template that
// matched it, the unit All fans out concurrently.
type Item struct {
	Node     payload.Node
	Template specdoc.MediaTemplate
}

// nodeSelector adapts a matched payload.Node to expand.NodeSelector, so a
// key's compiled NodeSelect FetchData node can evaluate its query/select
// path through the Fetcher instead of calling payload.Node.Eval directly.
type nodeSelector struct {
	node       payload.Node
	namespaces map[string]string
}

func (s nodeSelector) SelectText(pathExpr string) (string, bool, error) {
	values, err := s.node.Eval(pathExpr, s.namespaces)
	if err != nil {
		return "", false, err
	}
	if len(values) == 0 {
		return "", false, nil
	}
	return values[0].Text(), true, nil
}

// One converts a single matched node into a Record: key bindings are
// evaluated through the Fetcher against the matched node (a NodeSelect
// node resolves %…% placeholders then selects against the node itself; a
// key with a full FetchData tree fetches like a priv does), private-key
// bindings fan out concurrently through the Fetcher (via
// fetchtree.EvalKeyed). isResolveOp is true when tmpl belongs to a
// resolve operation - a resolve operation's own keys are never deferred
// to a nested resolve, since that is what would re-enter the operation
// that is already running. baseCtx builds the ambient *expand.Context
// (source id, config, strings, warnings) each fetch runs under; One
// attaches the record's own just-extracted keys to it as
// expand.Context.Media, so a private-key or nested-resolve fetch can
// reference %key:…% of the item it belongs to.
func (m *Materializer) One(ctx context.Context, node payload.Node, tmpl specdoc.MediaTemplate, isResolveOp bool, baseCtx func() *expand.Context) (*media.Record, error) {
	rec := media.New()
	sel := nodeSelector{node: node, namespaces: tmpl.Namespaces}

	var pendingResolve []string
	for _, kb := range tmpl.Keys {
		if kb.UseResolve && !isResolveOp {
			pendingResolve = append(pendingResolve, kb.Name)
			continue
		}

		ectx := baseCtx()
		ectx.Node = sel
		value, ok, err := m.Fetcher.Eval(ctx, ectx, kb.Fetch)
		if err != nil {
			return nil, fmt.Errorf("materialize key %q: %w", kb.Name, err)
		}
		if !ok || value == "" {
			continue
		}
		converted, err := media.ConvertKey(kb.Type, value)
		if err != nil {
			// A key that fails its declared type conversion is dropped,
			// not fatal to the rest of the item.
			continue
		}
		rec.Set(kb.Name, converted)
	}

	if len(tmpl.Privs) > 0 {
		nodes := make(map[string]*fetchtree.Node, len(tmpl.Privs))
		for _, pb := range tmpl.Privs {
			nodes[pb.Name] = pb.Fetch
		}
		newCtx := func() *expand.Context {
			c := baseCtx()
			c.Media = rec
			c.Node = sel
			return c
		}
		results, err := m.Fetcher.EvalKeyed(ctx, newCtx, nodes)
		if err != nil {
			return nil, fmt.Errorf("materialize private keys: %w", err)
		}
		for name, value := range results {
			rec.SetPrivate(name, value)
		}
	}

	if len(pendingResolve) > 0 && m.Resolver != nil {
		if err := m.applyResolve(ctx, rec); err != nil && err != ErrCyclicResolve {
			return nil, fmt.Errorf("materialize use-resolve keys: %w", err)
		}
	}

	return rec, nil
}

// applyResolve issues the single nested resolve call a use="resolve" key
// requires, guarded against re-entrant resolution of the same item. A
// cyclic attempt is swallowed by the caller: the keys it would have
// populated are simply left unset, not a fatal materialization error.
func (m *Materializer) applyResolve(ctx context.Context, rec *media.Record) error {
	guard := resolveGuardFrom(ctx)
	return guard.WithResolve(func() error {
		resolved, err := m.Resolver.ResolveKeys(withResolveGuard(ctx, guard), rec)
		if err != nil {
			return err
		}
		for _, name := range resolved.Keys() {
			if _, present := rec.Key(name); !present {
				v, _ := resolved.Key(name)
				rec.Set(name, v)
			}
		}
		return nil
	})
}

// Emit is called once per materialized record, in strict arrival-index
// order, with a bool reporting whether it is the last one.
type Emit func(rec *media.Record, last bool) error

// All materializes every item concurrently (bounded by errgroup's default
// goroutine-per-item fan-out) but emits results through emit in the same
// order items were given: an item whose fetches resolve quickly still
// waits behind any earlier item still in flight.
func (m *Materializer) All(ctx context.Context, items []Item, isResolveOp bool, newCtx func() *expand.Context, emit Emit) error {
	if len(items) == 0 {
		return nil
	}

	queue := newOrderedQueue(len(items), emit)

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			rec, err := m.One(gctx, item.Node, item.Template, isResolveOp, newCtx)
			if err != nil {
				return err
			}
			return queue.complete(i, rec)
		})
	}
	return g.Wait()
}

// orderedQueue buffers out-of-order completions and flushes them to emit
// in index order, tracking how many items remain pending.
type orderedQueue struct {
	mu        sync.Mutex
	next      int
	total     int
	buffered  map[int]*media.Record
	emit      Emit
	emittedOK bool
}

func newOrderedQueue(total int, emit Emit) *orderedQueue {
	return &orderedQueue{total: total, buffered: make(map[int]*media.Record), emit: emit}
}

func (q *orderedQueue) complete(index int, rec *media.Record) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.buffered[index] = rec
	for {
		rec, ok := q.buffered[q.next]
		if !ok {
			return nil
		}
		delete(q.buffered, q.next)
		last := q.next == q.total-1
		q.next++
		if err := q.emit(rec, last); err != nil {
			return err
		}
	}
}
