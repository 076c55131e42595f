// Package mediasource is the public facade: it wires the
// expander, fetch tree, result cache, operation matcher, template
// dispatcher, item materializer, and cancellation broker together behind
// three operations - Browse, Search, Resolve - driven by a parsed
// specdoc.Specification.
package mediasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/antflydb/xmlsource/internal/cancel"
	"github.com/antflydb/xmlsource/internal/dispatch"
	"github.com/antflydb/xmlsource/internal/expand"
	"github.com/antflydb/xmlsource/internal/fetchtree"
	"github.com/antflydb/xmlsource/internal/materialize"
	"github.com/antflydb/xmlsource/internal/match"
	"github.com/antflydb/xmlsource/internal/media"
	"github.com/antflydb/xmlsource/internal/payload"
	"github.com/antflydb/xmlsource/internal/resultcache"
	"github.com/antflydb/xmlsource/internal/specdoc"
	"go.uber.org/zap"
)

// Config builds a Source from an already-parsed Specification.
type Config struct {
	Spec       *specdoc.Specification
	HTTPClient *http.Client
	Logger     *zap.Logger
	Script     ScriptHook
}

// Source is one running instance of a source definition: the engine
// sitting between a host media framework and the declarative fetch
// pipeline.
type Source struct {
	spec *specdoc.Specification

	fetcher      *fetchtree.Fetcher
	cache        *resultcache.Cache[*payload.Document]
	dispatcher   *dispatch.Dispatcher
	materializer *materialize.Materializer
	broker       *cancel.Broker

	browse  *match.Matcher
	search  *match.Matcher
	resolve *match.Matcher

	log *zap.Logger
}

// New builds a Source over cfg.
func New(cfg Config) (*Source, error) {
	if cfg.Spec == nil {
		return nil, errors.New("mediasource: Config.Spec is required")
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	script := cfg.Script
	if script == nil {
		script = noScriptHook{}
	}

	fetcher := fetchtree.NewFetcher(cfg.HTTPClient, cfg.Spec.UserAgent, log)
	fetcher.Script = script

	var browseOps, searchOps, resolveOps []specdoc.Operation
	for _, op := range cfg.Spec.Operations {
		switch op.Kind {
		case specdoc.Browse:
			browseOps = append(browseOps, op)
		case specdoc.Search:
			searchOps = append(searchOps, op)
		case specdoc.Resolve:
			resolveOps = append(resolveOps, op)
		}
	}

	src := &Source{
		spec:         cfg.Spec,
		fetcher:      fetcher,
		cache:        resultcache.New[*payload.Document](),
		dispatcher:   dispatch.New(),
		materializer: materialize.New(fetcher),
		broker:       cancel.New(),
		browse:       match.New(toCandidates(browseOps)...),
		search:       match.New(toCandidates(searchOps)...),
		resolve:      match.New(toCandidates(resolveOps)...),
		log:          log,
	}
	src.materializer.Resolver = src
	return src, nil
}

func toCandidates(ops []specdoc.Operation) []match.Candidate {
	candidates := make([]match.Candidate, len(ops))
	for i, op := range ops {
		candidates[i] = op
	}
	return candidates
}

// Browse runs the first declared browse operation whose Requirements are
// satisfied by keys, windowed to [skip, skip+count). operationID, if
// non-empty, is registered with the cancellation broker so a concurrent
// call to Cancel(operationID) stops it; otherwise an id is generated and
// discarded once Browse returns.
func (s *Source) Browse(ctx context.Context, operationID string, keys expand.MediaKeys, skip, count int) ([]*media.Record, error) {
	op, _, ok := s.browse.Match(keys)
	if !ok {
		return nil, fmt.Errorf("%w: no browse operation matches the given keys", ErrBrowseFailed)
	}
	records, err := s.run(ctx, operationID, op.(specdoc.Operation), keys, "", skip, count)
	if err != nil {
		return nil, wrapErr(ErrBrowseFailed, err)
	}
	return records, nil
}

// Search runs the first declared search operation unconditionally -
// search never gates on Requirements.
func (s *Source) Search(ctx context.Context, operationID string, searchText string, skip, count int) ([]*media.Record, error) {
	op, ok := s.search.First()
	if !ok {
		return nil, fmt.Errorf("%w: source declares no search operation", ErrSearchFailed)
	}
	records, err := s.run(ctx, operationID, op.(specdoc.Operation), emptyKeys{}, searchText, skip, count)
	if err != nil {
		return nil, wrapErr(ErrSearchFailed, err)
	}
	return records, nil
}

// Resolve runs the first declared resolve operation whose Requirements
// are satisfied by keys, returning the single resulting record.
func (s *Source) Resolve(ctx context.Context, operationID string, keys expand.MediaKeys) (*media.Record, error) {
	op, _, ok := s.resolve.Match(keys)
	if !ok {
		return nil, fmt.Errorf("%w: no resolve operation matches the given keys", ErrResolveFailed)
	}
	records, err := s.run(ctx, operationID, op.(specdoc.Operation), keys, "", 0, 1)
	if err != nil {
		return nil, wrapErr(ErrResolveFailed, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: resolve operation produced no record", ErrResolveFailed)
	}
	return records[0], nil
}

// MayResolve reports the keys missing from keys that would let some
// declared resolve operation match - the introspection mode a host uses
// to decide whether fetching more metadata first could unlock a resolve.
// resolvable is true with a nil missing set when keys already resolve.
func (s *Source) MayResolve(keys expand.MediaKeys) (missing []string, resolvable bool) {
	if _, _, ok := s.resolve.Match(keys); ok {
		return nil, true
	}
	var best []string
	for i := 0; ; i++ {
		m, ok := s.resolve.MayResolve(i, keys)
		if !ok {
			break
		}
		if len(m) > 0 && (best == nil || len(m) < len(best)) {
			best = m
		}
	}
	return best, false
}

// Cancel stops the in-flight operation registered under operationID.
func (s *Source) Cancel(operationID string) bool {
	return s.broker.Cancel(operationID)
}

// ResolveKeys implements materialize.Resolver: it lets a use="resolve"
// key re-enter the resolve pipeline for the item's own keys, exactly as
// a host calling Resolve directly would.
func (s *Source) ResolveKeys(ctx context.Context, keys expand.MediaKeys) (*media.Record, error) {
	return s.Resolve(ctx, "", keys)
}

func (s *Source) run(ctx context.Context, operationID string, op specdoc.Operation, keys expand.MediaKeys, searchText string, skip, count int) ([]*media.Record, error) {
	opID, opCtx := s.broker.Start(ctx, operationID)
	defer s.broker.Finish(opID)

	if len(op.Results) == 0 {
		return nil, errors.New("operation declares no result")
	}
	result := op.Results[0]

	baseCtx := func() *expand.Context {
		c := expand.NewContext(nil)
		c.SourceID = s.spec.ID
		c.Media = keys
		c.Config = s.spec.ConfigDefaults
		c.Strings = s.spec.Strings
		c.SearchText = searchText
		c.Skip = skip
		c.Count = count
		c.MaxPageSize = s.spec.Autosplit
		c.Warn = s.log.Sugar()
		return c
	}

	s.log.Debug("running operation", zap.String("source_id", s.spec.ID), zap.Int("kind", int(op.Kind)))

	fetchAndParse := func(ctx context.Context) (*payload.Document, error) {
		raw, ok, err := s.fetcher.Eval(ctx, baseCtx(), result.Fetch)
		if err != nil {
			s.log.Error("result fetch failed", zap.String("result_id", result.ID), zap.Error(err))
			return nil, err
		}
		if !ok {
			raw = ""
		}
		if result.Format == payload.JSON {
			return payload.ParseJSON([]byte(raw))
		}
		return payload.ParseXML([]byte(raw))
	}

	var doc *payload.Document
	var err error
	if result.ID != "" && result.Cache > 0 {
		doc, err = s.cache.GetOrFetch(opCtx, result.ID, result.Cache, fetchAndParse)
	} else {
		doc, err = fetchAndParse(opCtx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnableToReadSource, err)
	}

	templates := make([]dispatch.Template, len(op.Templates))
	for i, t := range op.Templates {
		templates[i] = t.DispatchTemplate()
	}

	var items []materialize.Item
	_, err = s.dispatcher.Dispatch(opCtx, doc, templates, skip, count, func(ti int, node payload.Node) error {
		items = append(items, materialize.Item{Node: node, Template: op.Templates[ti]})
		return nil
	})
	if err != nil {
		return nil, err
	}

	var records []*media.Record
	err = s.materializer.All(opCtx, items, op.Kind == specdoc.Resolve, baseCtx, func(rec *media.Record, last bool) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		s.log.Error("materialization failed", zap.String("source_id", s.spec.ID), zap.Error(err))
		return nil, err
	}
	return records, nil
}

func wrapErr(kind, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// emptyKeys is the zero-key set search operations run with: their
// FetchData templates expand %param:search_text% and friends, never
// %key:…%.
type emptyKeys struct{}

func (emptyKeys) Key(string) (any, bool) { return nil, false }
