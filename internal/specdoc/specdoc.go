// Package specdoc parses and compiles the XML source-definition document:
// the declarative grammar naming a source's identity, its operation
// list (browse/search/resolve, each with Requirements, a fetch/cache
// result, and the media templates that bind the fetched payload to
// metadata keys). Parse yields ready-to-run types from the other
// internal packages - match.Requirements, fetchtree.Node, dispatch.Template -
// so the caller (pkg/mediasource) never touches the raw XML shape.
package specdoc

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/antflydb/xmlsource/internal/dispatch"
	"github.com/antflydb/xmlsource/internal/expand"
	"github.com/antflydb/xmlsource/internal/fetchtree"
	"github.com/antflydb/xmlsource/internal/match"
	"github.com/antflydb/xmlsource/internal/media"
	"github.com/antflydb/xmlsource/internal/payload"
)

// RuntimeOptions carries the root-level attributes and config overrides a
// host supplies when instantiating a source from its Specification.
type RuntimeOptions struct {
	Locale       string
	ConfigValues map[string]string
}

// Specification is a fully parsed and compiled spec document.
type Specification struct {
	API         string
	Autosplit   int
	UserAgent   string
	ID          string
	Name        string
	Description string
	Icon        string
	Script      string

	ConfigDefaults map[string]string
	Strings        *StringTable
	Operations     []Operation
}

// OperationKind is one of the three entry points a Specification can
// declare operations for.
type OperationKind int

const (
	Browse OperationKind = iota
	Search
	Resolve
)

func parseOperationKind(s string) (OperationKind, error) {
	switch s {
	case "browse":
		return Browse, nil
	case "search":
		return Search, nil
	case "resolve":
		return Resolve, nil
	default:
		return 0, fmt.Errorf("unknown operation type %q", s)
	}
}

// Result describes one declared fetch: how to retrieve a payload, under
// what id it is cached (an empty id or a zero Cache disables caching),
// for how long, and in
// which format the fetched bytes should be parsed. ref="id" results are
// resolved to their referenced Result at parse time, so by the time Parse
// returns every Result is independently runnable.
type Result struct {
	ID     string
	Cache  time.Duration
	Format payload.Format
	Fetch  *fetchtree.Node
}

// KeyBinding binds one metadata key, compiled into a FetchData tree so
// extraction runs through the Fetcher the same way a private key does -
// the bare chardata case compiles down to a single fetchtree.NodeSelect
// evaluated against the matched node, while a nested <data> child gets
// the full rest/regexp/replace/url treatment.
type KeyBinding struct {
	Name  string
	Type  media.KeyType
	Fetch *fetchtree.Node

	// Force marks a key that must be fetched even when a host didn't
	// explicitly request it.
	Force bool
	// Slow marks a key expensive enough that a host may want to defer
	// fetching it until the item is actually opened.
	Slow bool
	// UseResolve marks a key that is not fetched directly: it is left
	// unset until a single nested resolve call (issued once per item,
	// after every other key and priv is processed) populates it.
	UseResolve bool
}

// PrivBinding binds one private key to a FetchData tree evaluated with
// the matched node's buffers available, for later %priv:…% expansion.
type PrivBinding struct {
	Name  string
	Fetch *fetchtree.Node
}

// MediaTemplate is one provide/media declaration: a selection path plus
// the key/private bindings it populates for each matched node.
type MediaTemplate struct {
	Select     string
	Namespaces map[string]string
	Keys       []KeyBinding
	Privs      []PrivBinding
}

// DispatchTemplate adapts a MediaTemplate to dispatch.Template.
func (m MediaTemplate) DispatchTemplate() dispatch.Template {
	return dispatch.Template{Select: m.Select, Namespaces: m.Namespaces}
}

// Operation is one compiled <operation> block.
type Operation struct {
	Kind      OperationKind
	MediaType string
	Reqs      match.Requirements
	Results   []Result
	Templates []MediaTemplate
}

// Requirements implements match.Candidate.
func (o Operation) Requirements() match.Requirements { return o.Reqs }

// RequiredType implements match.TypedCandidate: an empty MediaType
// matches any input, same as declaring no <require> keys at all matches
// any key set.
func (o Operation) RequiredType() string { return o.MediaType }

// Parse decodes and compiles a spec document.
func Parse(data []byte, opts RuntimeOptions) (*Specification, error) {
	var raw specXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse spec document: %w", err)
	}

	spec := &Specification{
		API:            raw.API,
		Autosplit:      raw.Autosplit,
		UserAgent:      raw.UserAgent,
		ID:             raw.ID,
		Name:           raw.Name,
		Description:    raw.Description,
		Icon:           raw.Icon,
		Script:         raw.Script,
		ConfigDefaults: make(map[string]string, len(raw.Config)),
	}
	for _, c := range raw.Config {
		spec.ConfigDefaults[c.Name] = c.Default
	}
	for k, v := range opts.ConfigValues {
		spec.ConfigDefaults[k] = v
	}

	spec.Strings = NewStringTable(opts.Locale, raw.Strings)

	// registry lets a later result's ref="id" reuse an earlier one's
	// already-built Result by id, in document order - a forward
	// reference is a parse error, matching the original plugin's
	// single-pass resolution.
	registry := map[string]Result{}

	for _, o := range raw.Operations {
		kind, err := parseOperationKind(o.Type)
		if err != nil {
			return nil, err
		}

		op := Operation{Kind: kind, MediaType: o.MediaType}
		if o.Require != nil {
			for _, k := range o.Require.Keys {
				op.Reqs = append(op.Reqs, match.Requirement{Key: k.Name, Pattern: k.Pattern})
			}
			if err := op.Reqs.CompileAll(); err != nil {
				return nil, err
			}
		}

		for _, r := range o.Results {
			result, err := buildResult(r, registry)
			if err != nil {
				return nil, err
			}
			if result.ID != "" {
				registry[result.ID] = result
			}
			op.Results = append(op.Results, result)
		}

		for _, m := range o.Provide {
			tmpl, err := buildTemplate(m)
			if err != nil {
				return nil, err
			}
			op.Templates = append(op.Templates, tmpl)
		}

		spec.Operations = append(spec.Operations, op)
	}

	return spec, nil
}

// buildResult compiles one <result>. ref="id" reuses a previously
// registered Result wholesale instead of compiling its own <data> -
// r.Data is ignored in that case, the way a ref attribute overrides
// rather than supplements the element's own content.
func buildResult(r resultXML, registry map[string]Result) (Result, error) {
	if r.Ref != "" {
		shared, ok := registry[r.Ref]
		if !ok {
			return Result{}, fmt.Errorf("result references unknown id %q", r.Ref)
		}
		return shared, nil
	}

	result := Result{ID: r.ID}
	if r.Cache != "" {
		secs, err := strconv.Atoi(r.Cache)
		if err != nil {
			return Result{}, fmt.Errorf("result %q: invalid cache seconds %q: %w", r.ID, r.Cache, err)
		}
		result.Cache = time.Duration(secs) * time.Second
	}
	switch r.Format {
	case "json":
		result.Format = payload.JSON
	default:
		result.Format = payload.XML
	}

	fetch, err := buildFetchNode(r.Data)
	if err != nil {
		return Result{}, fmt.Errorf("result %q: %w", r.ID, err)
	}
	result.Fetch = fetch
	return result, nil
}

func buildTemplate(m mediaXML) (MediaTemplate, error) {
	tmpl := MediaTemplate{Select: m.Select}
	if len(m.Namespaces) > 0 {
		tmpl.Namespaces = make(map[string]string, len(m.Namespaces))
		for _, ns := range m.Namespaces {
			tmpl.Namespaces[ns.Prefix] = ns.URI
		}
	}
	for _, k := range m.Keys {
		fetch, err := buildKeyFetchNode(k)
		if err != nil {
			return MediaTemplate{}, fmt.Errorf("key %q: %w", k.Name, err)
		}
		tmpl.Keys = append(tmpl.Keys, KeyBinding{
			Name:       k.Name,
			Type:       media.ParseKeyType(k.Type),
			Fetch:      fetch,
			Force:      k.Force,
			Slow:       k.Slow,
			UseResolve: k.Use == "resolve",
		})
	}
	for _, p := range m.Privs {
		fetch, err := buildFetchNode(p.Data)
		if err != nil {
			return MediaTemplate{}, fmt.Errorf("priv %q: %w", p.Name, err)
		}
		tmpl.Privs = append(tmpl.Privs, PrivBinding{Name: p.Name, Fetch: fetch})
	}
	return tmpl, nil
}

// buildKeyFetchNode compiles one <key> binding into a FetchData tree. A
// key with an explicit <data> child gets the full rest/regexp/replace/url
// treatment like a <priv>; the common bare-chardata case instead compiles
// to a NodeSelect, evaluated against whatever payload node is in scope
// when the key is materialized.
func buildKeyFetchNode(k keyBindXML) (*fetchtree.Node, error) {
	if k.Data.Type != "" || len(k.Data.Children) > 0 {
		return buildFetchNode(k.Data)
	}
	return &fetchtree.Node{Kind: fetchtree.NodeSelect, NodeSelectPath: expand.New(k.Path)}, nil
}

func buildFetchNode(d dataXML) (*fetchtree.Node, error) {
	switch d.Type {
	case "", "raw":
		return &fetchtree.Node{Kind: fetchtree.Raw, RawValue: expand.New(d.Text)}, nil

	case "url":
		input, err := buildFirstChild(d)
		if err != nil {
			return nil, err
		}
		return &fetchtree.Node{Kind: fetchtree.URL, URLInput: input}, nil

	case "script":
		input, err := buildFirstChild(d)
		if err != nil {
			return nil, err
		}
		return &fetchtree.Node{Kind: fetchtree.Script, ScriptInput: input}, nil

	case "rest":
		spec := &fetchtree.RESTSpec{
			Endpoint: d.Endpoint,
			Method:   d.Method,
		}
		if d.Referer != "" {
			spec.Referer = expand.New(d.Referer)
		}
		if len(d.Params) > 0 {
			fnIdx := -1
			for i, p := range d.Params {
				if p.Name == "" {
					fnIdx = i
					continue
				}
				spec.Params = append(spec.Params, fetchtree.RESTParam{Name: p.Name, Value: expand.New(p.Text)})
			}
			if fnIdx >= 0 {
				spec.Function = expand.New(d.Params[fnIdx].Text)
			}
		}
		if d.OAuthToken != "" {
			spec.OAuth = &fetchtree.OAuthConfig{
				AccessToken:  d.OAuthToken,
				RefreshToken: d.OAuthRefresh,
				TokenType:    d.OAuthType,
			}
		}
		return &fetchtree.Node{Kind: fetchtree.REST, RESTSpec: spec}, nil

	case "replace":
		input, err := buildFirstChild(d)
		if err != nil {
			return nil, err
		}
		return &fetchtree.Node{
			Kind:               fetchtree.Replace,
			ReplaceInput:       input,
			ReplaceExpression:  expand.New(d.Expression),
			ReplaceReplacement: expand.New(d.Replacement),
		}, nil

	case "regexp":
		node := &fetchtree.Node{
			Kind:             fetchtree.Regexp,
			RegexpBufferRef:  d.BufferRef,
			RegexpExpression: expand.New(d.Expression),
			RegexpRepeat:     d.Repeat,
			RegexpOutputID:   d.OutputID,
		}
		if d.Output != "" {
			node.RegexpOutput = expand.New(d.Output)
		}
		if d.BufferRef == "" && len(d.Children) > 0 {
			input, err := buildFetchNode(d.Children[0])
			if err != nil {
				return nil, err
			}
			node.RegexpInput = input
		}
		for _, s := range d.Sub {
			sub, err := buildFetchNode(s)
			if err != nil {
				return nil, err
			}
			node.RegexpSub = append(node.RegexpSub, sub)
		}
		return node, nil

	default:
		return nil, fmt.Errorf("unknown fetch data type %q", d.Type)
	}
}

func buildFirstChild(d dataXML) (*fetchtree.Node, error) {
	if len(d.Children) == 0 {
		return nil, fmt.Errorf("%s node requires one nested <data> input", d.Type)
	}
	return buildFetchNode(d.Children[0])
}
